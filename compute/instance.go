package compute

import "context"

type InstanceState int

const (
	StateUnknown  = InstanceState(0)
	StateStopped  = InstanceState(1)
	StateRunning  = InstanceState(2)
	StatePending  = InstanceState(3)
	StateStopping = InstanceState(4)
)

func (state InstanceState) String() string {
	switch state {
	default:
		return "unknown"
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StatePending:
		return "pending"
	case StateStopping:
		return "stopping"
	}
}

// InterfaceStatusInUse is the status of a network interface attached to a
// running instance.
const InterfaceStatusInUse = "in-use"

type InstanceBlockDevice struct {
	DeviceName string
	VolumeId   string // empty for mappings not backed by a network volume
}

type InstanceInterface struct {
	Id       string
	PublicIp string
	Status   string
}

type Instance struct {
	Id             string
	Name           string
	State          InstanceState
	RootDeviceName string
	RootDeviceType string
	BlockDevices   []*InstanceBlockDevice
	Interfaces     []*InstanceInterface
}

// RootVolumeId returns the id of the volume backing the root device.
func (instance *Instance) RootVolumeId() (string, bool) {
	for _, blockdev := range instance.BlockDevices {
		if blockdev.DeviceName == instance.RootDeviceName && blockdev.VolumeId != "" {
			return blockdev.VolumeId, true
		}
	}
	return "", false
}

// PublicAddress returns the public ip of the first in-use interface that has one.
func (instance *Instance) PublicAddress() (string, bool) {
	for _, iface := range instance.Interfaces {
		if iface.PublicIp != "" && iface.Status == InterfaceStatusInUse {
			return iface.PublicIp, true
		}
	}
	return "", false
}

func (instance *Instance) IsRunning() bool {
	return instance.State == StateRunning
}

type InstanceRepository interface {
	FindByName(ctx context.Context, name string) ([]*Instance, error)
	Get(ctx context.Context, id string) (*Instance, error)
	// Stop blocks until the instance is stopped.
	Stop(ctx context.Context, id string) error
	// Start blocks until the instance is running.
	Start(ctx context.Context, id string) error
	AttachVolume(ctx context.Context, id, volumeId, deviceName string) error
	DetachVolume(ctx context.Context, id, volumeId, deviceName string, force bool) error
}
