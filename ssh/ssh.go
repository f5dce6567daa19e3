package ssh

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"subuk/ec2resize/compute"
	"subuk/ec2resize/util"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

type DialerConfig struct {
	User     string
	Password string
	Port     int
	Signers  []ssh.Signer
	Timeout  time.Duration
}

// Dialer opens password (and optionally key) authenticated sessions to
// instances. Host keys are not verified: the address belongs to an instance
// that was just restarted and usually changed.
type Dialer struct {
	config DialerConfig
	logger zerolog.Logger
}

func NewDialer(config DialerConfig, logger zerolog.Logger) *Dialer {
	return &Dialer{config: config, logger: logger}
}

func (dialer *Dialer) clientConfig() *ssh.ClientConfig {
	auth := []ssh.AuthMethod{}
	if len(dialer.config.Signers) > 0 {
		auth = append(auth, ssh.PublicKeys(dialer.config.Signers...))
	}
	if dialer.config.Password != "" {
		auth = append(auth, ssh.Password(dialer.config.Password))
	}
	return &ssh.ClientConfig{
		User:            dialer.config.User,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         dialer.config.Timeout,
	}
}

func (dialer *Dialer) Dial(host string) (compute.Shell, error) {
	address := net.JoinHostPort(host, strconv.Itoa(dialer.config.Port))
	dialer.logger.Debug().Str("address", address).Str("user", dialer.config.User).Msg("connecting")
	client, err := ssh.Dial("tcp", address, dialer.clientConfig())
	if err != nil {
		return nil, util.NewError(err, "cannot connect to %s", address)
	}
	return &Shell{
		client:   client,
		password: dialer.config.Password,
		logger:   dialer.logger.With().Str("host", host).Logger(),
	}, nil
}

// Shell runs one command per ssh session over a single connection.
type Shell struct {
	client   *ssh.Client
	password string
	logger   zerolog.Logger
}

func (shell *Shell) Run(command string) (string, error) {
	return shell.run(command, command, nil)
}

// Sudo runs command through sudo, feeding the password on stdin.
func (shell *Shell) Sudo(command string) (string, error) {
	if shell.password == "" {
		return shell.run(command, "sudo -n "+command, nil)
	}
	return shell.run(command, "sudo -S -p '' "+command, strings.NewReader(shell.password+"\n"))
}

func (shell *Shell) run(display, command string, stdin io.Reader) (string, error) {
	session, err := shell.client.NewSession()
	if err != nil {
		return "", util.NewError(err, "cannot open session")
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	session.Stdin = stdin

	shell.logger.Debug().Str("command", command).Msg("running")
	if err := session.Run(command); err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("command '%s' exited with status %d: %s", display, exitErr.ExitStatus(), strings.TrimSpace(stderr.String()))
		}
		return "", util.NewError(err, "cannot run command '%s'", display)
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (shell *Shell) Close() error {
	return shell.client.Close()
}
