package filesystem

import (
	"os"
	"path/filepath"
)

var awsCredentialsEnv = []string{"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_DEFAULT_REGION"}

// AWSConfigured reports whether credentials are available from the
// environment or from the shared files under home.
func AWSConfigured(home string) bool {
	fromEnv := true
	for _, name := range awsCredentialsEnv {
		if os.Getenv(name) == "" {
			fromEnv = false
			break
		}
	}
	if fromEnv {
		return true
	}
	return isFile(filepath.Join(home, ".aws", "credentials")) && isFile(filepath.Join(home, ".aws", "config"))
}

func isFile(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && !info.IsDir()
}
