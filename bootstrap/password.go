package bootstrap

import (
	"fmt"
	"os"
	"strings"
	"subuk/ec2resize/util"

	"golang.org/x/term"
)

func askPassword(user, name string) (string, error) {
	fmt.Fprintf(os.Stderr, "Password for %s on %s: ", user, name)
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintf(os.Stderr, "\n")
	if err != nil {
		return "", util.NewError(err, "cannot read password")
	}
	return strings.TrimSpace(string(passwordBytes)), nil
}
