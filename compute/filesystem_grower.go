package compute

import (
	"errors"
	"fmt"
	"subuk/ec2resize/util"

	"github.com/rs/zerolog"
)

var (
	ErrUnsupportedOS         = errors.New("bad instance OS")
	ErrUnsupportedFilesystem = errors.New("unsupported filesystem")
)

const (
	SupportedKernel = "Linux"
	FilesystemExt4  = "ext4"
	FilesystemXfs   = "xfs"
)

// Outcome is the terminal state of the in-guest filesystem grow step.
type Outcome int

const (
	OutcomeNone    = Outcome(0) // grow step not reached
	OutcomeResized = Outcome(1)
	OutcomeAborted = Outcome(2) // unsupported guest, no rollback
	OutcomeFailed  = Outcome(3) // triggers rollback
)

func (outcome Outcome) String() string {
	switch outcome {
	default:
		return "none"
	case OutcomeResized:
		return "resized"
	case OutcomeAborted:
		return "aborted"
	case OutcomeFailed:
		return "failed"
	}
}

type GrowResult struct {
	Outcome    Outcome
	Filesystem string
	Err        error
}

func growFailed(filesystem string, err error) GrowResult {
	return GrowResult{Outcome: OutcomeFailed, Filesystem: filesystem, Err: err}
}

func growAborted(filesystem string, err error) GrowResult {
	return GrowResult{Outcome: OutcomeAborted, Filesystem: filesystem, Err: err}
}

func GrowCommand(filesystem, device string) (string, bool) {
	switch filesystem {
	case FilesystemExt4:
		return "resize2fs " + device, true
	case FilesystemXfs:
		return "xfs_growfs -d /", true
	}
	return "", false
}

func (service *Service) growFilesystem(logger zerolog.Logger, host, device string) GrowResult {
	shell, err := service.dialer.Dial(host)
	if err != nil {
		return growFailed("", util.NewError(err, "cannot open remote session to %s", host))
	}
	defer func() {
		if err := shell.Close(); err != nil {
			logger.Warn().Err(err).Msg("cannot close remote session")
		}
	}()

	kernel, err := shell.Run("uname -s")
	if err != nil {
		return growFailed("", util.NewError(err, "cannot detect instance OS"))
	}
	if kernel != SupportedKernel {
		return growAborted("", fmt.Errorf("%w (got %s)", ErrUnsupportedOS, kernel))
	}

	filesystem, err := shell.Run(fmt.Sprintf("df -hT '%s' | tail -n +2 | awk '{print $2}'", device))
	if err != nil {
		return growFailed("", util.NewError(err, "cannot detect filesystem type of %s", device))
	}
	command, ok := GrowCommand(filesystem, device)
	if !ok {
		return growAborted(filesystem, fmt.Errorf("%w (got %s)", ErrUnsupportedFilesystem, filesystem))
	}

	logger.Info().Str("filesystem", filesystem).Str("command", command).Msg("growing filesystem")
	if _, err := shell.Sudo(command); err != nil {
		return growFailed(filesystem, util.NewError(err, "cannot grow %s filesystem", filesystem))
	}
	return GrowResult{Outcome: OutcomeResized, Filesystem: filesystem}
}
