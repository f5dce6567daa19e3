package ec2

import (
	"context"
	"fmt"
	"subuk/ec2resize/compute"
	"subuk/ec2resize/util"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	smithytime "github.com/aws/smithy-go/time"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxEmptyModificationPolls bounds how long WaitResized keeps polling when the
// endpoint reports no modification at all for the volume.
const maxEmptyModificationPolls = 3

type VolumeRepository struct {
	ec2          API
	waitTimeout  time.Duration
	pollInterval time.Duration
	logger       zerolog.Logger
}

func NewVolumeRepository(client API, waitTimeout, pollInterval time.Duration, logger zerolog.Logger) *VolumeRepository {
	return &VolumeRepository{ec2: client, waitTimeout: waitTimeout, pollInterval: pollInterval, logger: logger}
}

func volumeFromEC2(volume types.Volume) *compute.Volume {
	result := &compute.Volume{
		Id:               aws.ToString(volume.VolumeId),
		Size:             compute.NewSize(uint64(aws.ToInt32(volume.Size)), compute.SizeUnitG),
		Type:             string(volume.VolumeType),
		Iops:             aws.ToInt32(volume.Iops),
		Throughput:       aws.ToInt32(volume.Throughput),
		AvailabilityZone: aws.ToString(volume.AvailabilityZone),
		State:            string(volume.State),
	}
	for _, attachment := range volume.Attachments {
		result.AttachedTo = aws.ToString(attachment.InstanceId)
		result.AttachedAs = aws.ToString(attachment.Device)
	}
	return result
}

func (repo *VolumeRepository) Get(ctx context.Context, id string) (*compute.Volume, error) {
	out, err := repo.ec2.DescribeVolumes(ctx, &ec2.DescribeVolumesInput{
		VolumeIds: []string{id},
	})
	if err != nil {
		return nil, util.NewError(err, "cannot describe volume %s", id)
	}
	if len(out.Volumes) != 1 {
		return nil, fmt.Errorf("expected one volume with id %s, got %d", id, len(out.Volumes))
	}
	return volumeFromEC2(out.Volumes[0]), nil
}

// createVolumeInput carries provisioned iops and throughput over only for the
// volume types that accept them on creation.
func createVolumeInput(params compute.VolumeCreateParams) *ec2.CreateVolumeInput {
	input := &ec2.CreateVolumeInput{
		AvailabilityZone:  aws.String(params.AvailabilityZone),
		SnapshotId:        aws.String(params.SnapshotId),
		VolumeType:        types.VolumeType(params.Type),
		ClientToken:       aws.String(uuid.New().String()),
		TagSpecifications: tagSpecifications(types.ResourceTypeVolume, params.Tags),
	}
	switch input.VolumeType {
	case types.VolumeTypeIo1, types.VolumeTypeIo2, types.VolumeTypeGp3:
		if params.Iops > 0 {
			input.Iops = aws.Int32(params.Iops)
		}
	}
	if input.VolumeType == types.VolumeTypeGp3 && params.Throughput > 0 {
		input.Throughput = aws.Int32(params.Throughput)
	}
	return input
}

func (repo *VolumeRepository) Create(ctx context.Context, params compute.VolumeCreateParams) (*compute.Volume, error) {
	out, err := repo.ec2.CreateVolume(ctx, createVolumeInput(params))
	if err != nil {
		return nil, util.NewError(err, "cannot request volume creation")
	}
	id := aws.ToString(out.VolumeId)
	repo.logger.Debug().Str("volume_id", id).Msg("waiting for volume to become available")
	waiter := ec2.NewVolumeAvailableWaiter(repo.ec2)
	if err := waiter.Wait(ctx, &ec2.DescribeVolumesInput{VolumeIds: []string{id}}, repo.waitTimeout); err != nil {
		return nil, util.NewError(err, "volume %s did not become available", id)
	}
	return repo.Get(ctx, id)
}

func (repo *VolumeRepository) Resize(ctx context.Context, id string, newSize compute.Size) error {
	_, err := repo.ec2.ModifyVolume(ctx, &ec2.ModifyVolumeInput{
		VolumeId: aws.String(id),
		Size:     aws.Int32(int32(newSize.G())),
	})
	if err != nil {
		return util.NewError(err, "cannot request volume modification")
	}
	return nil
}

// WaitResized polls the volume modification until the new capacity is usable
// by the guest, that is the modification is optimizing or completed.
func (repo *VolumeRepository) WaitResized(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, repo.waitTimeout)
	defer cancel()

	emptyPolls := 0
	for {
		out, err := repo.ec2.DescribeVolumesModifications(ctx, &ec2.DescribeVolumesModificationsInput{
			VolumeIds: []string{id},
		})
		if err != nil {
			return util.NewError(err, "cannot describe volume modifications")
		}
		var last *types.VolumeModification
		for index := range out.VolumesModifications {
			modification := &out.VolumesModifications[index]
			if last == nil || aws.ToTime(modification.StartTime).After(aws.ToTime(last.StartTime)) {
				last = modification
			}
		}
		if last == nil {
			emptyPolls++
			repo.logger.Debug().Str("volume_id", id).Int("poll", emptyPolls).Msg("no volume modification reported yet")
			if emptyPolls >= maxEmptyModificationPolls {
				repo.logger.Warn().Str("volume_id", id).Msg("endpoint reports no volume modification, assuming it is applied")
				return nil
			}
		} else {
			repo.logger.Debug().
				Str("volume_id", id).
				Str("state", string(last.ModificationState)).
				Int64("progress", aws.ToInt64(last.Progress)).
				Msg("volume modification")
			switch last.ModificationState {
			case types.VolumeModificationStateOptimizing, types.VolumeModificationStateCompleted:
				return nil
			case types.VolumeModificationStateFailed:
				return fmt.Errorf("volume modification failed: %s", aws.ToString(last.StatusMessage))
			}
		}
		if err := smithytime.SleepWithContext(ctx, repo.pollInterval); err != nil {
			return util.NewError(err, "volume modification did not finish in %s", repo.waitTimeout)
		}
	}
}

func (repo *VolumeRepository) Delete(ctx context.Context, id string) error {
	if _, err := repo.ec2.DeleteVolume(ctx, &ec2.DeleteVolumeInput{VolumeId: aws.String(id)}); err != nil {
		return util.NewError(err, "cannot request volume deletion")
	}
	return nil
}
