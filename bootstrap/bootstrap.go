package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"subuk/ec2resize/compute"
	"subuk/ec2resize/config"
	"subuk/ec2resize/ec2"
	"subuk/ec2resize/filesystem"
	"subuk/ec2resize/ssh"
	"subuk/ec2resize/util"
	"syscall"

	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	cryptossh "golang.org/x/crypto/ssh"
)

var ErrAWSNotConfigured = errors.New("AWS is not configured")

func Resize(configFilename, name string, delta int, report bool) {
	cfg, err := config.Parse(configFilename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %s\n", err)
		os.Exit(1)
	}
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	service, err := newService(ctx, cfg, name, logger)
	if err != nil {
		logger.Error().Err(err).Msg("cannot initialize")
		cancel()
		os.Exit(1)
	}

	params := compute.ResizeParams{
		RunId:               uuid.New().String(),
		Name:                name,
		Delta:               delta,
		SnapshotDescription: cfg.Snapshot.Description,
		SnapshotTags:        cfg.Snapshot.TagMap(),
		WaitSnapshot:        !cfg.AWS.SkipSnapshotWait,
		WaitModification:    !cfg.AWS.SkipModificationWait,
	}
	logger.Info().Str("run", params.RunId).Str("name", name).Int("delta_gb", delta).Msg("resizing root volume")
	result, err := service.ResizeRootVolume(ctx, params)
	if report {
		if reportErr := writeReport(os.Stdout, result, err); reportErr != nil {
			logger.Warn().Err(reportErr).Msg("cannot write report")
		}
	}
	if err != nil {
		logger.Error().Err(err).Str("run", params.RunId).Str("outcome", result.Outcome.String()).Msg("resize failed")
		cancel()
		os.Exit(1)
	}
	logger.Info().
		Str("run", params.RunId).
		Str("instance_id", result.InstanceId).
		Str("old_size", result.OldSize.String()).
		Str("new_size", result.NewSize.String()).
		Msg("root volume resized")
}

func newService(ctx context.Context, cfg *config.Config, name string, logger zerolog.Logger) (*compute.Service, error) {
	if !cfg.AWS.HasStaticCredentials() && !filesystem.AWSConfigured(util.HomeDir()) {
		return nil, ErrAWSNotConfigured
	}
	awsConfig, err := ec2.LoadConfig(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}
	identity, err := ec2.NewIdentityChecker(sts.NewFromConfig(awsConfig)).Check(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("account", identity.Account).Str("arn", identity.Arn).Msg("aws credentials verified")

	dialerConfig := ssh.DialerConfig{
		User:     cfg.Remote.User,
		Password: cfg.Remote.Password,
		Port:     cfg.Remote.Port,
		Timeout:  cfg.Remote.ConnectTimeoutDuration(),
	}
	if cfg.Remote.AskPassword {
		password, err := askPassword(cfg.Remote.User, name)
		if err != nil {
			return nil, err
		}
		dialerConfig.Password = password
	}
	if cfg.Remote.KeyFile != "" {
		signer, err := filesystem.LoadPrivateKey(cfg.Remote.KeyFile)
		if err != nil {
			return nil, err
		}
		dialerConfig.Signers = []cryptossh.Signer{signer}
	}

	epub := filesystem.NewScriptedEventBroker(logger.With().Str("component", "events").Logger())
	for _, sub := range cfg.Subscribes {
		epub.Subscribe(sub.Event, sub.Script, sub.Mandatory)
	}

	client := awsec2.NewFromConfig(awsConfig)
	ec2Logger := logger.With().Str("component", "ec2").Logger()
	waitTimeout := cfg.AWS.WaitTimeoutDuration()
	instanceRepo := ec2.NewInstanceRepository(client, waitTimeout, ec2Logger)
	volumeRepo := ec2.NewVolumeRepository(client, waitTimeout, cfg.AWS.PollIntervalDuration(), ec2Logger)
	snapshotRepo := ec2.NewSnapshotRepository(client, waitTimeout, ec2Logger)
	dialer := ssh.NewDialer(dialerConfig, logger.With().Str("component", "ssh").Logger())

	return compute.New(epub, instanceRepo, volumeRepo, snapshotRepo, dialer, logger.With().Str("component", "compute").Logger()), nil
}
