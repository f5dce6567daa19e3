package filesystem

import (
	"errors"
	"io/ioutil"
	"subuk/ec2resize/util"

	"golang.org/x/crypto/ssh"
)

var ErrKeyEncrypted = errors.New("private key is protected by a passphrase")

// LoadPrivateKey reads an unencrypted PEM or OpenSSH private key.
func LoadPrivateKey(filename string) (ssh.Signer, error) {
	content, err := ioutil.ReadFile(util.ExpandHomeDir(filename))
	if err != nil {
		return nil, util.NewError(err, "cannot read private key")
	}
	signer, err := ssh.ParsePrivateKey(content)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, ErrKeyEncrypted
		}
		return nil, util.NewError(err, "cannot parse private key %s", filename)
	}
	return signer, nil
}
