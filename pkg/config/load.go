package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a configuration.
//
//	entry: main
//	indent: 4
//	target: vm
//	features:
//	  unsigned-ops: true
//	warnings:
//	  shadow: true
type File struct {
	Entry    string          `yaml:"entry"`
	Indent   *int            `yaml:"indent"`
	Target   string          `yaml:"target"`
	Features map[string]bool `yaml:"features"`
	Warnings map[string]bool `yaml:"warnings"`
}

// LoadFile reads a YAML configuration file at path, applies it on top of the
// defaults and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration data.
func Parse(data []byte) (*Config, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := NewConfig()
	if err := cfg.Apply(&f); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Apply overlays the settings of f onto c.
func (c *Config) Apply(f *File) error {
	if f.Entry != "" {
		c.EntryPoint = f.Entry
	}
	if f.Indent != nil {
		c.IndentWidth = *f.Indent
	}
	if f.Target != "" {
		c.Target = f.Target
	}
	for name, on := range f.Features {
		ft, ok := c.FeatureMap[name]
		if !ok {
			return fmt.Errorf("unknown feature %q", name)
		}
		c.SetFeature(ft, on)
	}
	for name, on := range f.Warnings {
		wt, ok := c.WarningMap[name]
		if !ok {
			return fmt.Errorf("unknown warning %q", name)
		}
		c.SetWarning(wt, on)
	}
	return nil
}
