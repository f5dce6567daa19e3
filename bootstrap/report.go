package bootstrap

import (
	"io"
	"subuk/ec2resize/compute"

	"gopkg.in/yaml.v2"
)

type resizeReport struct {
	Run            string `yaml:"run"`
	Instance       string `yaml:"instance,omitempty"`
	Volume         string `yaml:"volume,omitempty"`
	Snapshot       string `yaml:"snapshot,omitempty"`
	OldSizeGb      uint64 `yaml:"old_size_gb,omitempty"`
	NewSizeGb      uint64 `yaml:"new_size_gb,omitempty"`
	PublicIp       string `yaml:"public_ip,omitempty"`
	Filesystem     string `yaml:"filesystem,omitempty"`
	Outcome        string `yaml:"outcome"`
	RestoredVolume string `yaml:"restored_volume,omitempty"`
	Error          string `yaml:"error,omitempty"`
}

func newResizeReport(result *compute.ResizeResult, err error) resizeReport {
	report := resizeReport{
		Run:            result.RunId,
		Instance:       result.InstanceId,
		Volume:         result.VolumeId,
		Snapshot:       result.SnapshotId,
		OldSizeGb:      result.OldSize.G(),
		NewSizeGb:      result.NewSize.G(),
		PublicIp:       result.PublicIp,
		Filesystem:     result.Filesystem,
		Outcome:        result.Outcome.String(),
		RestoredVolume: result.RestoredVolumeId,
	}
	if err != nil {
		report.Error = err.Error()
	}
	return report
}

func writeReport(w io.Writer, result *compute.ResizeResult, err error) error {
	content, marshalErr := yaml.Marshal(newResizeReport(result, err))
	if marshalErr != nil {
		return marshalErr
	}
	_, writeErr := w.Write(content)
	return writeErr
}
