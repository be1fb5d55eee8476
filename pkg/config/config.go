package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xplshn/rcc/pkg/cli"
)

type Feature int

const (
	FeatEntryCheck Feature = iota
	FeatUnsignedOps
	FeatDebugReturn
	FeatCount
)

type Warning int

const (
	WarnType Warning = iota
	WarnShadow
	WarnGlobalInit
	WarnUnreachableCode
	WarnExtra
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

const (
	DefaultEntryPoint  = "main"
	DefaultIndentWidth = 4
	DefaultTarget      = "vm"
)

type Config struct {
	Features    map[Feature]Info
	Warnings    map[Warning]Info
	FeatureMap  map[string]Feature
	WarningMap  map[string]Warning
	EntryPoint  string
	IndentWidth int
	Target      string
}

func NewConfig() *Config {
	cfg := &Config{
		Features:    make(map[Feature]Info),
		Warnings:    make(map[Warning]Info),
		FeatureMap:  make(map[string]Feature),
		WarningMap:  make(map[string]Warning),
		EntryPoint:  DefaultEntryPoint,
		IndentWidth: DefaultIndentWidth,
		Target:      DefaultTarget,
	}

	features := map[Feature]Info{
		FeatEntryCheck:  {"entry-check", true, "Reject programs that do not define the entry function."},
		FeatUnsignedOps: {"unsigned-ops", false, "Emit unsigned arithmetic and comparison instructions."},
		FeatDebugReturn: {"debug-return", false, "Print the return value and halt instead of returning."},
	}

	warnings := map[Warning]Info{
		WarnType:            {"type", true, "Warn about int/bool mismatches in initializers and assignments."},
		WarnShadow:          {"shadow", false, "Warn when a local declaration shadows a global one."},
		WarnGlobalInit:      {"global-init", true, "Warn when a global initializer cannot be lowered."},
		WarnUnreachableCode: {"unreachable-code", true, "Warn about code that will never be executed."},
		WarnExtra:           {"extra", true, "Warn about unused expression results and redundant prototypes."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// SetTarget selects the code generation backend.
func (c *Config) SetTarget(target string) error {
	switch target {
	case "", DefaultTarget:
		c.Target = DefaultTarget
		return nil
	default:
		return fmt.Errorf("unsupported target '%s'. Supported: '%s'", target, DefaultTarget)
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.EntryPoint == "" {
		return fmt.Errorf("entry point name must not be empty")
	}
	if c.IndentWidth < 0 || c.IndentWidth > 16 {
		return fmt.Errorf("indent width %d out of range [0, 16]", c.IndentWidth)
	}
	return c.SetTarget(c.Target)
}

// ApplyFlag applies a single -W or -F style flag such as "-Wno-shadow" or
// "-Fdebug-return". Unknown names are reported as errors.
func (c *Config) ApplyFlag(flag string) error {
	trimmed := strings.TrimPrefix(flag, "-")
	var isWarning bool
	switch {
	case strings.HasPrefix(trimmed, "W"):
		isWarning = true
	case strings.HasPrefix(trimmed, "F"):
	default:
		return fmt.Errorf("unrecognized flag '%s'", flag)
	}
	name := trimmed[1:]
	enable := !strings.HasPrefix(name, "no-")
	name = strings.TrimPrefix(name, "no-")

	if isWarning {
		if name == "all" {
			for i := Warning(0); i < WarnCount; i++ {
				c.SetWarning(i, enable)
			}
			return nil
		}
		w, ok := c.WarningMap[name]
		if !ok {
			return fmt.Errorf("unknown warning '%s'", name)
		}
		c.SetWarning(w, enable)
		return nil
	}
	f, ok := c.FeatureMap[name]
	if !ok {
		return fmt.Errorf("unknown feature '%s'", name)
	}
	c.SetFeature(f, enable)
	return nil
}

// SetupFlagGroups registers -W<name>/-Wno-<name> and -F<name>/-Fno-<name>
// flags on fs. The returned entries are indexed by Warning and Feature and
// are applied with ApplyFlagGroups after parsing.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) ([]cli.FlagGroupEntry, []cli.FlagGroupEntry) {
	warningFlags := make([]cli.FlagGroupEntry, WarnCount)
	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		warningFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "W", Usage: info.Description,
			Enabled: new(bool), Disabled: new(bool), Default: info.Enabled,
		}
	}
	featureFlags := make([]cli.FlagGroupEntry, FeatCount)
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		featureFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "F", Usage: info.Description,
			Enabled: new(bool), Disabled: new(bool), Default: info.Enabled,
		}
	}
	fs.AddFlagGroup("Warning Flags", "Enable or disable specific warnings", "warning flag", "Available Warnings:", warningFlags)
	fs.AddFlagGroup("Feature Flags", "Enable or disable specific features", "feature flag", "Available Features:", featureFlags)
	return warningFlags, featureFlags
}

// ApplyFlagGroups copies the parsed group flags into the configuration.
// Explicit disables win over enables.
func (c *Config) ApplyFlagGroups(warningFlags, featureFlags []cli.FlagGroupEntry) {
	for i, entry := range warningFlags {
		if *entry.Enabled {
			c.SetWarning(Warning(i), true)
		}
		if *entry.Disabled {
			c.SetWarning(Warning(i), false)
		}
	}
	for i, entry := range featureFlags {
		if *entry.Enabled {
			c.SetFeature(Feature(i), true)
		}
		if *entry.Disabled {
			c.SetFeature(Feature(i), false)
		}
	}
}

// Enabled lists the names of enabled features and warnings, sorted, for logging.
func (c *Config) Enabled() (features, warnings []string) {
	for _, info := range c.Features {
		if info.Enabled {
			features = append(features, info.Name)
		}
	}
	for _, info := range c.Warnings {
		if info.Enabled {
			warnings = append(warnings, info.Name)
		}
	}
	sort.Strings(features)
	sort.Strings(warnings)
	return features, warnings
}
