// Package config loads the kdev configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
)

// DefaultPath is the config file location, relative to the user config dir.
const DefaultPath = "kdev/config.yaml"

// Config is the root configuration.
type Config struct {
	Kubectl *KubectlConfig `yaml:"kubectl"`
	Docker  *DockerConfig  `yaml:"docker"`
	Diff    *DiffConfig    `yaml:"diff"`
	Debug   *DebugConfig   `yaml:"debug"`
}

// KubectlConfig configures the cluster CLI wrapper.
type KubectlConfig struct {
	// Binary is the kubectl binary path or name.
	Binary string `yaml:"binary"`
	// Namespace is the default namespace for namespaced commands.
	Namespace string `yaml:"namespace"`
	// TranslatePaths rewrites drive-lettered paths into /mnt mounts before
	// passing them to the CLI.
	TranslatePaths bool `yaml:"translatePaths"`
}

// DockerConfig configures the container build tool.
type DockerConfig struct {
	Binary string `yaml:"binary"`
}

// DiffConfig configures diff presentation.
type DiffConfig struct {
	// Tool is an external diff command line. Empty selects the built-in
	// unified diff.
	Tool string `yaml:"tool"`
}

// DebugConfig configures the debug workflow.
type DebugConfig struct {
	// Debugger is the attach command template. `{port}`, `{local}` and
	// `{remote}` are substituted at attach time.
	Debugger string `yaml:"debugger"`
	// DebuggerPort and AppPort are the forwarded local ports.
	DebuggerPort int `yaml:"debuggerPort"`
	AppPort      int `yaml:"appPort"`
	// PollInterval and PollTimeout bound the readiness poll.
	PollInterval time.Duration `yaml:"pollInterval"`
	PollTimeout  time.Duration `yaml:"pollTimeout"`
}

// NewConfig creates a [Config] with defaults applied.
func NewConfig() *Config {
	c := &Config{}
	c.EnsureDefaults()

	return c
}

func (c *Config) EnsureDefaults() {
	if c.Kubectl == nil {
		c.Kubectl = &KubectlConfig{}
	}

	if c.Kubectl.Binary == "" {
		c.Kubectl.Binary = "kubectl"
	}

	if c.Docker == nil {
		c.Docker = &DockerConfig{}
	}

	if c.Docker.Binary == "" {
		c.Docker.Binary = "docker"
	}

	if c.Diff == nil {
		c.Diff = &DiffConfig{}
	}

	if c.Debug == nil {
		c.Debug = &DebugConfig{}
	}

	if c.Debug.DebuggerPort == 0 {
		c.Debug.DebuggerPort = 2345
	}

	if c.Debug.AppPort == 0 {
		c.Debug.AppPort = 8080
	}

	if c.Debug.PollInterval == 0 {
		c.Debug.PollInterval = time.Second
	}

	if c.Debug.PollTimeout == 0 {
		c.Debug.PollTimeout = 5 * time.Minute
	}
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return NewConfig(), nil
		}

		path = filepath.Join(dir, DefaultPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewConfig(), nil
		}

		return nil, fmt.Errorf("read config: %w", err)
	}

	c := &Config{}

	err = yaml.Unmarshal(data, c)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	c.EnsureDefaults()

	return c, nil
}
