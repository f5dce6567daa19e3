package ec2

import (
	"context"
	"subuk/ec2resize/compute"
	"subuk/ec2resize/util"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/rs/zerolog"
)

type SnapshotRepository struct {
	ec2         API
	waitTimeout time.Duration
	logger      zerolog.Logger
}

func NewSnapshotRepository(client API, waitTimeout time.Duration, logger zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{ec2: client, waitTimeout: waitTimeout, logger: logger}
}

func (repo *SnapshotRepository) Create(ctx context.Context, params compute.SnapshotCreateParams) (*compute.Snapshot, error) {
	out, err := repo.ec2.CreateSnapshot(ctx, &ec2.CreateSnapshotInput{
		VolumeId:          aws.String(params.VolumeId),
		Description:       aws.String(params.Description),
		TagSpecifications: tagSpecifications(types.ResourceTypeSnapshot, params.Tags),
	})
	if err != nil {
		return nil, util.NewError(err, "cannot request snapshot creation")
	}
	snapshot := &compute.Snapshot{
		Id:       aws.ToString(out.SnapshotId),
		VolumeId: aws.ToString(out.VolumeId),
		State:    string(out.State),
		Tags:     tagsFromEC2(out.Tags),
	}
	if snapshot.VolumeId == "" {
		snapshot.VolumeId = params.VolumeId
	}
	return snapshot, nil
}

func (repo *SnapshotRepository) WaitCompleted(ctx context.Context, id string) error {
	repo.logger.Debug().Str("snapshot_id", id).Msg("waiting for snapshot to complete")
	waiter := ec2.NewSnapshotCompletedWaiter(repo.ec2)
	if err := waiter.Wait(ctx, &ec2.DescribeSnapshotsInput{SnapshotIds: []string{id}}, repo.waitTimeout); err != nil {
		return util.NewError(err, "snapshot %s did not complete", id)
	}
	return nil
}
