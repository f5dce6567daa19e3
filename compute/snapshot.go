package compute

import "context"

type Snapshot struct {
	Id       string
	VolumeId string
	State    string
	Tags     map[string]string
}

type SnapshotCreateParams struct {
	VolumeId    string
	Description string
	Tags        map[string]string
}

type SnapshotRepository interface {
	Create(ctx context.Context, params SnapshotCreateParams) (*Snapshot, error)
	WaitCompleted(ctx context.Context, id string) error
}
