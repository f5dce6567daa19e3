package ec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

type fakeAPI struct {
	reservations  []types.Reservation
	instances     map[string]*types.Instance
	volumes       map[string]*types.Volume
	snapshots     map[string]*types.Snapshot
	modifications [][]types.VolumeModification
	errs          map[string]error
	calls         []string
	inputs        map[string]interface{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		instances: map[string]*types.Instance{},
		volumes:   map[string]*types.Volume{},
		snapshots: map[string]*types.Snapshot{},
		errs:      map[string]error{},
		inputs:    map[string]interface{}{},
	}
}

func (api *fakeAPI) record(call string, input interface{}) error {
	api.calls = append(api.calls, call)
	api.inputs[call] = input
	return api.errs[call]
}

func (api *fakeAPI) addInstance(id string, state types.InstanceStateName) *types.Instance {
	instance := &types.Instance{
		InstanceId: aws.String(id),
		State:      &types.InstanceState{Name: state},
	}
	api.instances[id] = instance
	return instance
}

func (api *fakeAPI) addVolume(id string, size int32, state types.VolumeState) *types.Volume {
	volume := &types.Volume{
		VolumeId:         aws.String(id),
		Size:             aws.Int32(size),
		VolumeType:       types.VolumeTypeGp3,
		AvailabilityZone: aws.String("eu-west-1a"),
		State:            state,
	}
	api.volumes[id] = volume
	return volume
}

func (api *fakeAPI) DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	if err := api.record("DescribeInstances", params); err != nil {
		return nil, err
	}
	if len(params.InstanceIds) == 0 {
		return &ec2.DescribeInstancesOutput{Reservations: api.reservations}, nil
	}
	reservation := types.Reservation{}
	for _, id := range params.InstanceIds {
		if instance, ok := api.instances[id]; ok {
			reservation.Instances = append(reservation.Instances, *instance)
		}
	}
	return &ec2.DescribeInstancesOutput{Reservations: []types.Reservation{reservation}}, nil
}

func (api *fakeAPI) setInstanceState(ids []string, state types.InstanceStateName) {
	for _, id := range ids {
		api.instances[id].State = &types.InstanceState{Name: state}
	}
}

func (api *fakeAPI) StartInstances(ctx context.Context, params *ec2.StartInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error) {
	if err := api.record("StartInstances", params); err != nil {
		return nil, err
	}
	api.setInstanceState(params.InstanceIds, types.InstanceStateNameRunning)
	return &ec2.StartInstancesOutput{}, nil
}

func (api *fakeAPI) StopInstances(ctx context.Context, params *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error) {
	if err := api.record("StopInstances", params); err != nil {
		return nil, err
	}
	api.setInstanceState(params.InstanceIds, types.InstanceStateNameStopped)
	return &ec2.StopInstancesOutput{}, nil
}

func (api *fakeAPI) AttachVolume(ctx context.Context, params *ec2.AttachVolumeInput, optFns ...func(*ec2.Options)) (*ec2.AttachVolumeOutput, error) {
	if err := api.record("AttachVolume", params); err != nil {
		return nil, err
	}
	volume := api.volumes[aws.ToString(params.VolumeId)]
	volume.State = types.VolumeStateInUse
	volume.Attachments = []types.VolumeAttachment{
		{InstanceId: params.InstanceId, Device: params.Device},
	}
	return &ec2.AttachVolumeOutput{}, nil
}

func (api *fakeAPI) DetachVolume(ctx context.Context, params *ec2.DetachVolumeInput, optFns ...func(*ec2.Options)) (*ec2.DetachVolumeOutput, error) {
	if err := api.record("DetachVolume", params); err != nil {
		return nil, err
	}
	volume := api.volumes[aws.ToString(params.VolumeId)]
	volume.State = types.VolumeStateAvailable
	volume.Attachments = nil
	return &ec2.DetachVolumeOutput{}, nil
}

func (api *fakeAPI) DescribeVolumes(ctx context.Context, params *ec2.DescribeVolumesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error) {
	if err := api.record("DescribeVolumes", params); err != nil {
		return nil, err
	}
	out := &ec2.DescribeVolumesOutput{}
	for _, id := range params.VolumeIds {
		if volume, ok := api.volumes[id]; ok {
			out.Volumes = append(out.Volumes, *volume)
		}
	}
	return out, nil
}

func (api *fakeAPI) DescribeVolumesModifications(ctx context.Context, params *ec2.DescribeVolumesModificationsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVolumesModificationsOutput, error) {
	if err := api.record("DescribeVolumesModifications", params); err != nil {
		return nil, err
	}
	if len(api.modifications) == 0 {
		return &ec2.DescribeVolumesModificationsOutput{}, nil
	}
	next := api.modifications[0]
	if len(api.modifications) > 1 {
		api.modifications = api.modifications[1:]
	}
	return &ec2.DescribeVolumesModificationsOutput{VolumesModifications: next}, nil
}

func (api *fakeAPI) CreateVolume(ctx context.Context, params *ec2.CreateVolumeInput, optFns ...func(*ec2.Options)) (*ec2.CreateVolumeOutput, error) {
	if err := api.record("CreateVolume", params); err != nil {
		return nil, err
	}
	id := fmt.Sprintf("vol-%d", len(api.volumes)+1)
	volume := api.addVolume(id, 20, types.VolumeStateAvailable)
	volume.VolumeType = params.VolumeType
	volume.Iops = params.Iops
	volume.Throughput = params.Throughput
	volume.AvailabilityZone = params.AvailabilityZone
	volume.SnapshotId = params.SnapshotId
	return &ec2.CreateVolumeOutput{VolumeId: aws.String(id), State: types.VolumeStateCreating}, nil
}

func (api *fakeAPI) ModifyVolume(ctx context.Context, params *ec2.ModifyVolumeInput, optFns ...func(*ec2.Options)) (*ec2.ModifyVolumeOutput, error) {
	if err := api.record("ModifyVolume", params); err != nil {
		return nil, err
	}
	return &ec2.ModifyVolumeOutput{}, nil
}

func (api *fakeAPI) DeleteVolume(ctx context.Context, params *ec2.DeleteVolumeInput, optFns ...func(*ec2.Options)) (*ec2.DeleteVolumeOutput, error) {
	if err := api.record("DeleteVolume", params); err != nil {
		return nil, err
	}
	delete(api.volumes, aws.ToString(params.VolumeId))
	return &ec2.DeleteVolumeOutput{}, nil
}

func (api *fakeAPI) CreateSnapshot(ctx context.Context, params *ec2.CreateSnapshotInput, optFns ...func(*ec2.Options)) (*ec2.CreateSnapshotOutput, error) {
	if err := api.record("CreateSnapshot", params); err != nil {
		return nil, err
	}
	id := fmt.Sprintf("snap-%d", len(api.snapshots)+1)
	snapshot := &types.Snapshot{
		SnapshotId: aws.String(id),
		VolumeId:   params.VolumeId,
		State:      types.SnapshotStateCompleted,
	}
	api.snapshots[id] = snapshot
	out := &ec2.CreateSnapshotOutput{
		SnapshotId: aws.String(id),
		VolumeId:   params.VolumeId,
		State:      types.SnapshotStatePending,
	}
	for _, spec := range params.TagSpecifications {
		out.Tags = append(out.Tags, spec.Tags...)
	}
	return out, nil
}

func (api *fakeAPI) DescribeSnapshots(ctx context.Context, params *ec2.DescribeSnapshotsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSnapshotsOutput, error) {
	if err := api.record("DescribeSnapshots", params); err != nil {
		return nil, err
	}
	out := &ec2.DescribeSnapshotsOutput{}
	for _, id := range params.SnapshotIds {
		if snapshot, ok := api.snapshots[id]; ok {
			out.Snapshots = append(out.Snapshots, *snapshot)
		}
	}
	return out, nil
}

type fakeSTS struct {
	out *sts.GetCallerIdentityOutput
	err error
}

func (client *fakeSTS) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return client.out, client.err
}
