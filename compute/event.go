package compute

import (
	"fmt"
)

type EventSnapshotCreated struct {
	instance *Instance
	snapshot *Snapshot
}

func NewEventSnapshotCreated(instance *Instance, snapshot *Snapshot) *EventSnapshotCreated {
	return &EventSnapshotCreated{instance: instance, snapshot: snapshot}
}

func (e *EventSnapshotCreated) Name() string {
	return "snapshot_created"
}

func (e *EventSnapshotCreated) Plain() map[string]string {
	return map[string]string{
		"event":       e.Name(),
		"instance_id": e.instance.Id,
		"snapshot_id": e.snapshot.Id,
		"volume_id":   e.snapshot.VolumeId,
	}
}

type EventVolumeResized struct {
	instance *Instance
	volume   *Volume
	newSize  Size
}

func NewEventVolumeResized(instance *Instance, volume *Volume, newSize Size) *EventVolumeResized {
	return &EventVolumeResized{instance: instance, volume: volume, newSize: newSize}
}

func (e *EventVolumeResized) Name() string {
	return "volume_resized"
}

func (e *EventVolumeResized) Plain() map[string]string {
	return map[string]string{
		"event":           e.Name(),
		"instance_id":     e.instance.Id,
		"volume_id":       e.volume.Id,
		"volume_old_size": fmt.Sprintf("%d", e.volume.SizeGb()),
		"volume_new_size": fmt.Sprintf("%d", e.newSize.G()),
	}
}

type EventFilesystemGrown struct {
	instance   *Instance
	address    string
	filesystem string
}

func NewEventFilesystemGrown(instance *Instance, address, filesystem string) *EventFilesystemGrown {
	return &EventFilesystemGrown{instance: instance, address: address, filesystem: filesystem}
}

func (e *EventFilesystemGrown) Name() string {
	return "filesystem_grown"
}

func (e *EventFilesystemGrown) Plain() map[string]string {
	return map[string]string{
		"event":       e.Name(),
		"instance_id": e.instance.Id,
		"public_ip":   e.address,
		"device":      e.instance.RootDeviceName,
		"filesystem":  e.filesystem,
	}
}

type EventRollbackCompleted struct {
	instance *Instance
	original *Volume
	restored *Volume
	snapshot *Snapshot
	cause    error
}

func NewEventRollbackCompleted(instance *Instance, original, restored *Volume, snapshot *Snapshot, cause error) *EventRollbackCompleted {
	return &EventRollbackCompleted{instance: instance, original: original, restored: restored, snapshot: snapshot, cause: cause}
}

func (e *EventRollbackCompleted) Name() string {
	return "rollback_completed"
}

func (e *EventRollbackCompleted) Plain() map[string]string {
	return map[string]string{
		"event":              e.Name(),
		"instance_id":        e.instance.Id,
		"snapshot_id":        e.snapshot.Id,
		"deleted_volume_id":  e.original.Id,
		"restored_volume_id": e.restored.Id,
		"cause":              e.cause.Error(),
	}
}
