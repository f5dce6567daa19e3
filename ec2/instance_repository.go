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
	"github.com/rs/zerolog"
)

// Terminated instances keep their tags for a while and are never a resize target.
var liveInstanceStates = []string{
	string(types.InstanceStateNamePending),
	string(types.InstanceStateNameRunning),
	string(types.InstanceStateNameStopping),
	string(types.InstanceStateNameStopped),
}

type InstanceRepository struct {
	ec2         API
	waitTimeout time.Duration
	logger      zerolog.Logger
}

func NewInstanceRepository(client API, waitTimeout time.Duration, logger zerolog.Logger) *InstanceRepository {
	return &InstanceRepository{ec2: client, waitTimeout: waitTimeout, logger: logger}
}

func stateFromEC2(state *types.InstanceState) compute.InstanceState {
	if state == nil {
		return compute.StateUnknown
	}
	switch state.Name {
	case types.InstanceStateNameRunning:
		return compute.StateRunning
	case types.InstanceStateNameStopped:
		return compute.StateStopped
	case types.InstanceStateNameStopping, types.InstanceStateNameShuttingDown:
		return compute.StateStopping
	case types.InstanceStateNamePending:
		return compute.StatePending
	default:
		return compute.StateUnknown
	}
}

func instanceFromEC2(instance types.Instance) *compute.Instance {
	result := &compute.Instance{
		Id:             aws.ToString(instance.InstanceId),
		State:          stateFromEC2(instance.State),
		RootDeviceName: aws.ToString(instance.RootDeviceName),
		RootDeviceType: string(instance.RootDeviceType),
		BlockDevices:   []*compute.InstanceBlockDevice{},
		Interfaces:     []*compute.InstanceInterface{},
	}
	result.Name = tagsFromEC2(instance.Tags)[NameTag]
	for _, blockdev := range instance.BlockDeviceMappings {
		device := &compute.InstanceBlockDevice{DeviceName: aws.ToString(blockdev.DeviceName)}
		if blockdev.Ebs != nil {
			device.VolumeId = aws.ToString(blockdev.Ebs.VolumeId)
		}
		result.BlockDevices = append(result.BlockDevices, device)
	}
	for _, iface := range instance.NetworkInterfaces {
		attached := &compute.InstanceInterface{
			Id:     aws.ToString(iface.NetworkInterfaceId),
			Status: string(iface.Status),
		}
		if iface.Association != nil {
			attached.PublicIp = aws.ToString(iface.Association.PublicIp)
		}
		result.Interfaces = append(result.Interfaces, attached)
	}
	return result
}

func (repo *InstanceRepository) FindByName(ctx context.Context, name string) ([]*compute.Instance, error) {
	paginator := ec2.NewDescribeInstancesPaginator(repo.ec2, &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			ec2NameFilter(name),
			{Name: aws.String("instance-state-name"), Values: liveInstanceStates},
		},
	})
	instances := []*compute.Instance{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, util.NewError(err, "cannot describe instances")
		}
		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				instances = append(instances, instanceFromEC2(instance))
			}
		}
	}
	repo.logger.Debug().Str("name", name).Int("count", len(instances)).Msg("instances matched")
	return instances, nil
}

func (repo *InstanceRepository) Get(ctx context.Context, id string) (*compute.Instance, error) {
	out, err := repo.ec2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{id},
	})
	if err != nil {
		return nil, util.NewError(err, "cannot describe instance %s", id)
	}
	for _, reservation := range out.Reservations {
		for _, instance := range reservation.Instances {
			if aws.ToString(instance.InstanceId) == id {
				return instanceFromEC2(instance), nil
			}
		}
	}
	return nil, fmt.Errorf("instance %s not found", id)
}

func (repo *InstanceRepository) Stop(ctx context.Context, id string) error {
	if _, err := repo.ec2.StopInstances(ctx, &ec2.StopInstancesInput{InstanceIds: []string{id}}); err != nil {
		return util.NewError(err, "cannot request instance stop")
	}
	repo.logger.Debug().Str("instance_id", id).Msg("waiting for instance to stop")
	waiter := ec2.NewInstanceStoppedWaiter(repo.ec2)
	if err := waiter.Wait(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{id}}, repo.waitTimeout); err != nil {
		return util.NewError(err, "instance did not stop")
	}
	return nil
}

func (repo *InstanceRepository) Start(ctx context.Context, id string) error {
	if _, err := repo.ec2.StartInstances(ctx, &ec2.StartInstancesInput{InstanceIds: []string{id}}); err != nil {
		return util.NewError(err, "cannot request instance start")
	}
	repo.logger.Debug().Str("instance_id", id).Msg("waiting for instance to run")
	waiter := ec2.NewInstanceRunningWaiter(repo.ec2)
	if err := waiter.Wait(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{id}}, repo.waitTimeout); err != nil {
		return util.NewError(err, "instance did not start")
	}
	return nil
}

func (repo *InstanceRepository) AttachVolume(ctx context.Context, id, volumeId, deviceName string) error {
	_, err := repo.ec2.AttachVolume(ctx, &ec2.AttachVolumeInput{
		Device:     aws.String(deviceName),
		InstanceId: aws.String(id),
		VolumeId:   aws.String(volumeId),
	})
	if err != nil {
		return util.NewError(err, "cannot request volume attachment")
	}
	waiter := ec2.NewVolumeInUseWaiter(repo.ec2)
	if err := waiter.Wait(ctx, &ec2.DescribeVolumesInput{VolumeIds: []string{volumeId}}, repo.waitTimeout); err != nil {
		return util.NewError(err, "volume %s was not attached", volumeId)
	}
	return nil
}

func (repo *InstanceRepository) DetachVolume(ctx context.Context, id, volumeId, deviceName string, force bool) error {
	_, err := repo.ec2.DetachVolume(ctx, &ec2.DetachVolumeInput{
		Device:     aws.String(deviceName),
		Force:      aws.Bool(force),
		InstanceId: aws.String(id),
		VolumeId:   aws.String(volumeId),
	})
	if err != nil {
		return util.NewError(err, "cannot request volume detachment")
	}
	waiter := ec2.NewVolumeAvailableWaiter(repo.ec2)
	if err := waiter.Wait(ctx, &ec2.DescribeVolumesInput{VolumeIds: []string{volumeId}}, repo.waitTimeout); err != nil {
		return util.NewError(err, "volume %s was not detached", volumeId)
	}
	return nil
}
