package compute

import (
	"context"
	"fmt"
	"strings"
)

type fakeCloud struct {
	instances     map[string]*Instance
	volumes       map[string]*Volume
	snapshots     map[string]*Snapshot
	snapshotSizes map[string]Size
	errs          map[string]error
	calls         []string
	seq           int
}

func newFakeCloud() *fakeCloud {
	return &fakeCloud{
		instances:     map[string]*Instance{},
		volumes:       map[string]*Volume{},
		snapshots:     map[string]*Snapshot{},
		snapshotSizes: map[string]Size{},
		errs:          map[string]error{},
	}
}

// addInstance registers a stopped-or-running instance with an ext4-style root
// volume of sizeG GiB at /dev/xvda.
func (cloud *fakeCloud) addInstance(id, name string, sizeG uint64) *Instance {
	volumeId := "vol-" + strings.TrimPrefix(id, "i-")
	instance := &Instance{
		Id:             id,
		Name:           name,
		State:          StateRunning,
		RootDeviceName: "/dev/xvda",
		RootDeviceType: "ebs",
		BlockDevices: []*InstanceBlockDevice{
			{DeviceName: "/dev/xvda", VolumeId: volumeId},
		},
		Interfaces: []*InstanceInterface{
			{Id: "eni-" + id, PublicIp: "203.0.113.10", Status: InterfaceStatusInUse},
		},
	}
	cloud.instances[id] = instance
	cloud.volumes[volumeId] = &Volume{
		Id:               volumeId,
		Size:             NewSize(sizeG, SizeUnitG),
		Type:             "gp3",
		AvailabilityZone: "eu-west-1a",
		State:            "in-use",
		AttachedTo:       id,
		AttachedAs:       "/dev/xvda",
	}
	return instance
}

func (cloud *fakeCloud) record(call string, args ...string) error {
	cloud.calls = append(cloud.calls, strings.TrimSpace(call+" "+strings.Join(args, " ")))
	return cloud.errs[call]
}

var readOnlyCalls = map[string]bool{
	"instances.FindByName":    true,
	"instances.Get":           true,
	"volumes.Get":             true,
	"volumes.WaitResized":     true,
	"snapshots.WaitCompleted": true,
}

func (cloud *fakeCloud) mutations() []string {
	mutations := []string{}
	for _, call := range cloud.calls {
		if !readOnlyCalls[strings.Fields(call)[0]] {
			mutations = append(mutations, call)
		}
	}
	return mutations
}

func (cloud *fakeCloud) nextId(prefix string) string {
	cloud.seq++
	return fmt.Sprintf("%s-%d", prefix, cloud.seq)
}

type fakeInstances struct{ *fakeCloud }

func (repo fakeInstances) FindByName(ctx context.Context, name string) ([]*Instance, error) {
	if err := repo.record("instances.FindByName", name); err != nil {
		return nil, err
	}
	found := []*Instance{}
	for _, instance := range repo.instances {
		if instance.Name == name {
			found = append(found, instance)
		}
	}
	return found, nil
}

func (repo fakeInstances) Get(ctx context.Context, id string) (*Instance, error) {
	if err := repo.record("instances.Get", id); err != nil {
		return nil, err
	}
	instance, ok := repo.instances[id]
	if !ok {
		return nil, fmt.Errorf("instance %s does not exist", id)
	}
	return instance, nil
}

func (repo fakeInstances) Stop(ctx context.Context, id string) error {
	if err := repo.record("instances.Stop", id); err != nil {
		return err
	}
	repo.instances[id].State = StateStopped
	return nil
}

func (repo fakeInstances) Start(ctx context.Context, id string) error {
	if err := repo.record("instances.Start", id); err != nil {
		return err
	}
	repo.instances[id].State = StateRunning
	return nil
}

func (repo fakeInstances) AttachVolume(ctx context.Context, id, volumeId, deviceName string) error {
	if err := repo.record("instances.AttachVolume", id, volumeId, deviceName); err != nil {
		return err
	}
	instance := repo.instances[id]
	instance.BlockDevices = append(instance.BlockDevices, &InstanceBlockDevice{DeviceName: deviceName, VolumeId: volumeId})
	volume := repo.volumes[volumeId]
	volume.AttachedTo, volume.AttachedAs, volume.State = id, deviceName, "in-use"
	return nil
}

func (repo fakeInstances) DetachVolume(ctx context.Context, id, volumeId, deviceName string, force bool) error {
	if err := repo.record("instances.DetachVolume", id, volumeId, deviceName, fmt.Sprintf("force=%t", force)); err != nil {
		return err
	}
	instance := repo.instances[id]
	kept := []*InstanceBlockDevice{}
	for _, blockdev := range instance.BlockDevices {
		if blockdev.VolumeId != volumeId {
			kept = append(kept, blockdev)
		}
	}
	instance.BlockDevices = kept
	volume := repo.volumes[volumeId]
	volume.AttachedTo, volume.AttachedAs, volume.State = "", "", "available"
	return nil
}

type fakeVolumes struct{ *fakeCloud }

func (repo fakeVolumes) Get(ctx context.Context, id string) (*Volume, error) {
	if err := repo.record("volumes.Get", id); err != nil {
		return nil, err
	}
	volume, ok := repo.volumes[id]
	if !ok {
		return nil, fmt.Errorf("volume %s does not exist", id)
	}
	copied := *volume
	return &copied, nil
}

func (repo fakeVolumes) Create(ctx context.Context, params VolumeCreateParams) (*Volume, error) {
	if err := repo.record("volumes.Create", params.SnapshotId, params.AvailabilityZone, params.Type); err != nil {
		return nil, err
	}
	volume := &Volume{
		Id:               repo.nextId("vol-restored"),
		Size:             repo.snapshotSizes[params.SnapshotId],
		Type:             params.Type,
		Iops:             params.Iops,
		Throughput:       params.Throughput,
		AvailabilityZone: params.AvailabilityZone,
		State:            "available",
	}
	repo.volumes[volume.Id] = volume
	return volume, nil
}

func (repo fakeVolumes) Resize(ctx context.Context, id string, newSize Size) error {
	if err := repo.record("volumes.Resize", id, fmt.Sprintf("%d", newSize.G())); err != nil {
		return err
	}
	repo.volumes[id].Size = newSize
	return nil
}

func (repo fakeVolumes) WaitResized(ctx context.Context, id string) error {
	return repo.record("volumes.WaitResized", id)
}

func (repo fakeVolumes) Delete(ctx context.Context, id string) error {
	if err := repo.record("volumes.Delete", id); err != nil {
		return err
	}
	delete(repo.volumes, id)
	return nil
}

type fakeSnapshots struct{ *fakeCloud }

func (repo fakeSnapshots) Create(ctx context.Context, params SnapshotCreateParams) (*Snapshot, error) {
	if err := repo.record("snapshots.Create", params.VolumeId); err != nil {
		return nil, err
	}
	snapshot := &Snapshot{
		Id:       repo.nextId("snap"),
		VolumeId: params.VolumeId,
		State:    "pending",
		Tags:     params.Tags,
	}
	repo.snapshots[snapshot.Id] = snapshot
	repo.snapshotSizes[snapshot.Id] = repo.volumes[params.VolumeId].Size
	return snapshot, nil
}

func (repo fakeSnapshots) WaitCompleted(ctx context.Context, id string) error {
	if err := repo.record("snapshots.WaitCompleted", id); err != nil {
		return err
	}
	repo.snapshots[id].State = "completed"
	return nil
}

type fakeOutput struct {
	stdout string
	err    error
}

type fakeShell struct {
	outputs  map[string]fakeOutput
	commands []string
	closed   bool
}

func newLinuxShell(filesystem string) *fakeShell {
	return &fakeShell{outputs: map[string]fakeOutput{
		"uname -s": {stdout: "Linux"},
		"df -hT '/dev/xvda' | tail -n +2 | awk '{print $2}'": {stdout: filesystem},
		"sudo resize2fs /dev/xvda":                           {stdout: "The filesystem on /dev/xvda is now 7864320 blocks long."},
		"sudo xfs_growfs -d /":                               {stdout: "data blocks changed"},
	}}
}

func (shell *fakeShell) exec(command string) (string, error) {
	shell.commands = append(shell.commands, command)
	output, ok := shell.outputs[command]
	if !ok {
		return "", fmt.Errorf("unexpected command %q", command)
	}
	return output.stdout, output.err
}

func (shell *fakeShell) Run(command string) (string, error) {
	return shell.exec(command)
}

func (shell *fakeShell) Sudo(command string) (string, error) {
	return shell.exec("sudo " + command)
}

func (shell *fakeShell) Close() error {
	shell.closed = true
	return nil
}

func (shell *fakeShell) sudoCommands() []string {
	commands := []string{}
	for _, command := range shell.commands {
		if strings.HasPrefix(command, "sudo ") {
			commands = append(commands, command)
		}
	}
	return commands
}

type fakeDialer struct {
	shell  *fakeShell
	err    error
	dialed []string
}

func (dialer *fakeDialer) Dial(host string) (Shell, error) {
	dialer.dialed = append(dialer.dialed, host)
	if dialer.err != nil {
		return nil, dialer.err
	}
	return dialer.shell, nil
}

type fakePublisher struct {
	events []Event
	errs   map[string]error
}

func (epub *fakePublisher) Publish(event Event) error {
	epub.events = append(epub.events, event)
	return epub.errs[event.Name()]
}

func (epub *fakePublisher) names() []string {
	names := []string{}
	for _, event := range epub.events {
		names = append(names, event.Name())
	}
	return names
}
