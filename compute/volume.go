package compute

import (
	"context"
)

type Volume struct {
	Id               string
	Size             Size
	Type             string
	Iops             int32
	Throughput       int32
	AvailabilityZone string
	State            string
	AttachedTo       string
	AttachedAs       string
}

func (volume *Volume) SizeGb() uint64 {
	return volume.Size.G()
}

type VolumeCreateParams struct {
	SnapshotId       string
	AvailabilityZone string
	Type             string
	Iops             int32
	Throughput       int32
	Tags             map[string]string
}

type VolumeRepository interface {
	Get(ctx context.Context, id string) (*Volume, error)
	// Create blocks until the new volume is available.
	Create(ctx context.Context, params VolumeCreateParams) (*Volume, error)
	Resize(ctx context.Context, id string, newSize Size) error
	// WaitResized blocks until the last modification of the volume is applied
	// far enough for the guest to see the new capacity.
	WaitResized(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
