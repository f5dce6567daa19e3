package config

import (
	"fmt"
	"io/ioutil"
	"subuk/ec2resize/util"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/imdario/mergo"
	"github.com/rs/zerolog"
)

type AWSConfig struct {
	Endpoint             string `hcl:"endpoint"`
	Region               string `hcl:"region"`
	Profile              string `hcl:"profile"`
	AccessKey            string `hcl:"access_key"`
	SecretKey            string `hcl:"secret_key"`
	WaitTimeout          string `hcl:"wait_timeout"`
	PollInterval         string `hcl:"poll_interval"`
	SkipSnapshotWait     bool   `hcl:"skip_snapshot_wait"`
	SkipModificationWait bool   `hcl:"skip_modification_wait"`
}

func (conf AWSConfig) HasStaticCredentials() bool {
	return conf.AccessKey != "" && conf.SecretKey != ""
}

func (conf AWSConfig) WaitTimeoutDuration() time.Duration {
	value, _ := time.ParseDuration(conf.WaitTimeout)
	return value
}

func (conf AWSConfig) PollIntervalDuration() time.Duration {
	value, _ := time.ParseDuration(conf.PollInterval)
	return value
}

type RemoteConfig struct {
	User           string `hcl:"user"`
	Password       string `hcl:"password"`
	AskPassword    bool   `hcl:"ask_password"`
	Port           int    `hcl:"port"`
	KeyFile        string `hcl:"key_file"`
	ConnectTimeout string `hcl:"connect_timeout"`
}

func (conf RemoteConfig) ConnectTimeoutDuration() time.Duration {
	value, _ := time.ParseDuration(conf.ConnectTimeout)
	return value
}

type TagConfig struct {
	Key   string `hcl:",key"`
	Value string `hcl:"value"`
}

type SnapshotConfig struct {
	Description string      `hcl:"description"`
	Tags        []TagConfig `hcl:"tag"`
}

func (conf SnapshotConfig) TagMap() map[string]string {
	tags := map[string]string{}
	for _, tag := range conf.Tags {
		tags[tag.Key] = tag.Value
	}
	return tags
}

type SubscribeConfig struct {
	Event     string `hcl:",key"`
	Script    string `hcl:"script"`
	Mandatory bool   `hcl:"mandatory"`
}

type Config struct {
	LogLevel   string            `hcl:"log_level"`
	AWS        AWSConfig         `hcl:"aws"`
	Remote     RemoteConfig      `hcl:"remote"`
	Snapshot   SnapshotConfig    `hcl:"snapshot"`
	Subscribes []SubscribeConfig `hcl:"subscribe"`
}

func Default() *Config {
	return &Config{
		LogLevel: "info",
		AWS: AWSConfig{
			WaitTimeout:  "15m",
			PollInterval: "5s",
		},
		Remote: RemoteConfig{
			User:           "ec2-user",
			Password:       "password",
			Port:           22,
			ConnectTimeout: "30s",
		},
		Snapshot: SnapshotConfig{
			Description: "Automatic snapshot",
			Tags: []TagConfig{
				{Key: "created_by", Value: "ec2resize"},
			},
		},
	}
}

// Parse reads the configuration file and applies defaults. An empty filename
// yields the defaults.
func Parse(filename string) (*Config, error) {
	config := &Config{}
	if filename != "" {
		content, err := ioutil.ReadFile(util.ExpandHomeDir(filename))
		if err != nil {
			return nil, util.NewError(err, "cannot read configuration file")
		}
		if err := hcl.Unmarshal(content, config); err != nil {
			return nil, util.NewError(err, "invalid configuration format")
		}
	}
	if err := mergo.Merge(config, Default()); err != nil {
		return nil, util.NewError(err, "cannot apply default configuration value")
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (config *Config) validate() error {
	if _, err := zerolog.ParseLevel(config.LogLevel); err != nil {
		return fmt.Errorf("unknown log level '%s'", config.LogLevel)
	}
	durations := []struct {
		name  string
		value string
	}{
		{"aws.wait_timeout", config.AWS.WaitTimeout},
		{"aws.poll_interval", config.AWS.PollInterval},
		{"remote.connect_timeout", config.Remote.ConnectTimeout},
	}
	for _, option := range durations {
		value, err := time.ParseDuration(option.value)
		if err != nil {
			return util.NewError(err, "invalid duration for %s", option.name)
		}
		if value <= 0 {
			return fmt.Errorf("%s must be positive", option.name)
		}
	}
	if config.Remote.Port < 1 || config.Remote.Port > 65535 {
		return fmt.Errorf("remote port %d is out of range", config.Remote.Port)
	}
	if config.Remote.Password == "" && !config.Remote.AskPassword && config.Remote.KeyFile == "" {
		return fmt.Errorf("no remote authentication configured, set remote.password, remote.ask_password or remote.key_file")
	}
	if config.Remote.KeyFile != "" {
		config.Remote.KeyFile = util.ExpandHomeDir(config.Remote.KeyFile)
		if _, err := ioutil.ReadFile(config.Remote.KeyFile); err != nil {
			return util.NewError(err, "cannot read remote key file")
		}
	}
	tagKeys := map[string]struct{}{}
	for _, tag := range config.Snapshot.Tags {
		if _, exists := tagKeys[tag.Key]; exists {
			return fmt.Errorf("duplicate snapshot tag '%s'", tag.Key)
		}
		tagKeys[tag.Key] = struct{}{}
	}
	return nil
}
