// Package config loads optional YAML scheduler settings, mirroring the
// flag-struct shape of cmd/scheduler's opts so the same fields can come
// from a file or from CLI flags.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the settings the --socket/--cpus/--quanta/--metadata
// flags also expose (§6, CLI).
type Config struct {
	Socket   string `yaml:"socket"`
	CPUs     int    `yaml:"cpus"`
	Quanta   int64  `yaml:"quanta"`
	Metadata bool   `yaml:"metadata"`
}

// Load reads and parses a YAML config file. A missing path is not an
// error: it returns a zero-value Config so callers can layer CLI flag
// defaults on top.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &c, nil
}

// Merge overlays file-provided values under explicit flag values: a flag
// the user did not set on the command line defers to a non-zero file
// value; anything the user set on the command line wins.
func Merge(file *Config, socket string, socketSet bool, cpus int, cpusSet bool, quanta int64, quantaSet bool, metadata, metadataSet bool) Config {
	out := Config{Socket: socket, CPUs: cpus, Quanta: quanta, Metadata: metadata}
	if !socketSet && file.Socket != "" {
		out.Socket = file.Socket
	}
	if !cpusSet && file.CPUs > 0 {
		out.CPUs = file.CPUs
	}
	if !quantaSet && file.Quanta > 0 {
		out.Quanta = file.Quanta
	}
	if !metadataSet && file.Metadata {
		out.Metadata = file.Metadata
	}
	return out
}
