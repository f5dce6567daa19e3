package compute

import (
	"context"
	"subuk/ec2resize/util"

	"github.com/rs/zerolog"
)

// rollback replaces the root volume of the instance with a fresh volume created
// from snapshot and deletes the original one. The original volume is deleted
// only after the replacement is attached and the instance is running again.
func (service *Service) rollback(ctx context.Context, logger zerolog.Logger, instance *Instance, original *Volume, snapshot *Snapshot, params ResizeParams) (*Volume, error) {
	restored, err := service.volumes.Create(ctx, VolumeCreateParams{
		SnapshotId:       snapshot.Id,
		AvailabilityZone: original.AvailabilityZone,
		Type:             original.Type,
		Iops:             original.Iops,
		Throughput:       original.Throughput,
		Tags:             params.tags(),
	})
	if err != nil {
		return nil, util.NewError(err, "cannot create volume from snapshot %s", snapshot.Id)
	}
	logger.Info().Str("volume_id", restored.Id).Str("snapshot_id", snapshot.Id).Msg("volume restored from snapshot")

	if err := service.instances.Stop(ctx, instance.Id); err != nil {
		return nil, util.NewError(err, "cannot stop instance %s", instance.Id)
	}
	if err := service.instances.DetachVolume(ctx, instance.Id, original.Id, instance.RootDeviceName, true); err != nil {
		return nil, util.NewError(err, "cannot detach volume %s", original.Id)
	}
	if err := service.instances.AttachVolume(ctx, instance.Id, restored.Id, instance.RootDeviceName); err != nil {
		return nil, util.NewError(err, "cannot attach volume %s", restored.Id)
	}
	logger.Info().Str("volume_id", restored.Id).Str("device", instance.RootDeviceName).Msg("restored volume attached")

	if err := service.instances.Start(ctx, instance.Id); err != nil {
		return nil, util.NewError(err, "cannot start instance %s", instance.Id)
	}
	if err := service.volumes.Delete(ctx, original.Id); err != nil {
		return nil, util.NewError(err, "cannot delete volume %s", original.Id)
	}
	logger.Info().Str("volume_id", original.Id).Msg("broken volume deleted")
	return restored, nil
}
