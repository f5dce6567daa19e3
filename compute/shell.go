package compute

// Shell is a serial command channel to the guest OS. Both methods return the
// trimmed stdout of the command and fail on a non-zero exit status.
type Shell interface {
	Run(command string) (string, error)
	Sudo(command string) (string, error)
	Close() error
}

type ShellDialer interface {
	Dial(host string) (Shell, error)
}
