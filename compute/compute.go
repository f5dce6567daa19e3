package compute

import (
	"context"
	"errors"
	"fmt"
	"subuk/ec2resize/util"

	"github.com/rs/zerolog"
)

// RunTagKey marks snapshots and volumes with the run that created them.
const RunTagKey = "ec2resize:run"

// The created_by tag is set on every snapshot and restored volume. A configured
// tag with the same key overrides its value.
const (
	CreatedByTagKey   = "created_by"
	CreatedByTagValue = "ec2resize"
)

var (
	ErrInvalidDelta          = errors.New("size delta must be positive")
	ErrInstanceNotFound      = errors.New("instance not found")
	ErrInstanceAmbiguous     = errors.New("multiple instances matched, only a single instance is supported")
	ErrUnsupportedRootDevice = errors.New("unsupported root device type")
	ErrNoPublicAddress       = errors.New("no public address")
)

type Event interface {
	Name() string
	Plain() map[string]string
}

type EventPublisher interface {
	Publish(event Event) error
}

type Service struct {
	instances InstanceRepository
	volumes   VolumeRepository
	snapshots SnapshotRepository
	dialer    ShellDialer
	epub      EventPublisher
	logger    zerolog.Logger
}

func New(epub EventPublisher, instances InstanceRepository, volumes VolumeRepository, snapshots SnapshotRepository, dialer ShellDialer, logger zerolog.Logger) *Service {
	return &Service{
		epub:      epub,
		instances: instances,
		volumes:   volumes,
		snapshots: snapshots,
		dialer:    dialer,
		logger:    logger,
	}
}

type ResizeParams struct {
	RunId               string
	Name                string
	Delta               int
	SnapshotDescription string
	SnapshotTags        map[string]string
	WaitSnapshot        bool
	WaitModification    bool
}

func (params ResizeParams) tags() map[string]string {
	tags := map[string]string{CreatedByTagKey: CreatedByTagValue}
	for key, value := range params.SnapshotTags {
		tags[key] = value
	}
	if params.RunId != "" {
		tags[RunTagKey] = params.RunId
	}
	return tags
}

// ResizeResult describes how far a run got. It is filled step by step and
// returned together with the error of a failed run.
type ResizeResult struct {
	RunId            string
	InstanceId       string
	VolumeId         string
	SnapshotId       string
	OldSize          Size
	NewSize          Size
	PublicIp         string
	Filesystem       string
	Outcome          Outcome
	RestoredVolumeId string
}

// LocateInstance returns the only instance tagged with the given name.
func (service *Service) LocateInstance(ctx context.Context, name string) (*Instance, error) {
	instances, err := service.instances.FindByName(ctx, name)
	if err != nil {
		return nil, util.NewError(err, "cannot find instance %s", name)
	}
	switch len(instances) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, name)
	case 1:
		return instances[0], nil
	default:
		return nil, fmt.Errorf("%w: %d instances named %s", ErrInstanceAmbiguous, len(instances), name)
	}
}

// ResolveRootVolume returns the id of the network volume backing the root device.
func ResolveRootVolume(instance *Instance) (string, error) {
	volumeId, ok := instance.RootVolumeId()
	if !ok {
		return "", fmt.Errorf("%w (current type: %s)", ErrUnsupportedRootDevice, instance.RootDeviceType)
	}
	return volumeId, nil
}

// ResizeRootVolume grows the root volume of the instance tagged params.Name by
// params.Delta GiB and grows its filesystem. When the filesystem cannot be grown
// the volume is restored from the snapshot taken before the resize and the
// original error is returned.
func (service *Service) ResizeRootVolume(ctx context.Context, params ResizeParams) (*ResizeResult, error) {
	result := &ResizeResult{RunId: params.RunId}
	if params.Delta <= 0 {
		return result, fmt.Errorf("%w (got %d)", ErrInvalidDelta, params.Delta)
	}
	logger := service.logger.With().Str("run", params.RunId).Logger()

	instance, err := service.LocateInstance(ctx, params.Name)
	if err != nil {
		return result, err
	}
	result.InstanceId = instance.Id
	logger = logger.With().Str("instance_id", instance.Id).Logger()

	volumeId, err := ResolveRootVolume(instance)
	if err != nil {
		return result, err
	}
	result.VolumeId = volumeId
	volume, err := service.volumes.Get(ctx, volumeId)
	if err != nil {
		return result, util.NewError(err, "cannot describe root volume %s", volumeId)
	}
	result.OldSize = volume.Size
	logger.Info().
		Str("volume_id", volume.Id).
		Str("size", volume.Size.String()).
		Str("device", instance.RootDeviceName).
		Msg("found root volume")

	snapshot, err := service.snapshotVolume(ctx, logger, instance, volume, params)
	if err != nil {
		return result, err
	}
	result.SnapshotId = snapshot.Id
	if err := service.epub.Publish(NewEventSnapshotCreated(instance, snapshot)); err != nil {
		return result, util.NewError(err, "cannot publish event snapshot created")
	}

	newSize, err := service.resizeVolume(ctx, logger, volume, params)
	if err != nil {
		return result, err
	}
	result.NewSize = newSize
	if err := service.epub.Publish(NewEventVolumeResized(instance, volume, newSize)); err != nil {
		return result, util.NewError(err, "cannot publish event volume resized")
	}

	address, err := service.restart(ctx, logger, instance.Id)
	if err != nil {
		return result, err
	}
	result.PublicIp = address

	grow := service.growFilesystem(logger, address, instance.RootDeviceName)
	result.Filesystem = grow.Filesystem
	result.Outcome = grow.Outcome

	switch grow.Outcome {
	case OutcomeResized:
		logger.Info().Str("filesystem", grow.Filesystem).Msg("filesystem grown")
		if err := service.epub.Publish(NewEventFilesystemGrown(instance, address, grow.Filesystem)); err != nil {
			return result, util.NewError(err, "cannot publish event filesystem grown")
		}
		return result, nil
	case OutcomeAborted:
		logger.Error().Err(grow.Err).Msg("filesystem resize aborted, volume is left resized")
		return result, grow.Err
	case OutcomeFailed:
		logger.Error().Err(grow.Err).Msg("filesystem resize failed, restoring root volume from snapshot")
		restored, err := service.rollback(ctx, logger, instance, volume, snapshot, params)
		if err != nil {
			return result, err
		}
		result.RestoredVolumeId = restored.Id
		if err := service.epub.Publish(NewEventRollbackCompleted(instance, volume, restored, snapshot, grow.Err)); err != nil {
			logger.Warn().Err(err).Msg("cannot publish event rollback completed")
		}
		return result, grow.Err
	default:
		return result, fmt.Errorf("unexpected filesystem grow outcome %s", grow.Outcome)
	}
}

func (service *Service) snapshotVolume(ctx context.Context, logger zerolog.Logger, instance *Instance, volume *Volume, params ResizeParams) (*Snapshot, error) {
	logger.Info().Msg("stopping instance")
	if err := service.instances.Stop(ctx, instance.Id); err != nil {
		return nil, util.NewError(err, "cannot stop instance %s", instance.Id)
	}
	snapshot, err := service.snapshots.Create(ctx, SnapshotCreateParams{
		VolumeId:    volume.Id,
		Description: params.SnapshotDescription,
		Tags:        params.tags(),
	})
	if err != nil {
		return nil, util.NewError(err, "cannot snapshot volume %s", volume.Id)
	}
	logger.Info().Str("snapshot_id", snapshot.Id).Str("volume_id", volume.Id).Msg("snapshot created")
	if params.WaitSnapshot {
		if err := service.snapshots.WaitCompleted(ctx, snapshot.Id); err != nil {
			return nil, util.NewError(err, "snapshot %s did not complete", snapshot.Id)
		}
		logger.Info().Str("snapshot_id", snapshot.Id).Msg("snapshot completed")
	}
	return snapshot, nil
}

func (service *Service) resizeVolume(ctx context.Context, logger zerolog.Logger, volume *Volume, params ResizeParams) (Size, error) {
	newSize := volume.Size.AddG(uint64(params.Delta))
	logger.Info().
		Str("volume_id", volume.Id).
		Str("old_size", volume.Size.String()).
		Str("new_size", newSize.String()).
		Msg("resizing volume")
	if err := service.volumes.Resize(ctx, volume.Id, newSize); err != nil {
		return Size{}, util.NewError(err, "cannot resize volume %s", volume.Id)
	}
	if params.WaitModification {
		if err := service.volumes.WaitResized(ctx, volume.Id); err != nil {
			return Size{}, util.NewError(err, "volume %s modification did not apply", volume.Id)
		}
	}
	return newSize, nil
}

func (service *Service) restart(ctx context.Context, logger zerolog.Logger, instanceId string) (string, error) {
	logger.Info().Msg("starting instance")
	if err := service.instances.Start(ctx, instanceId); err != nil {
		return "", util.NewError(err, "cannot start instance %s", instanceId)
	}
	instance, err := service.instances.Get(ctx, instanceId)
	if err != nil {
		return "", util.NewError(err, "cannot describe instance %s", instanceId)
	}
	address, ok := instance.PublicAddress()
	if !ok {
		return "", fmt.Errorf("%w for instance %s", ErrNoPublicAddress, instanceId)
	}
	logger.Info().Str("public_ip", address).Msg("instance is running")
	return address, nil
}
