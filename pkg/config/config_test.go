package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"
	"github.com/xplshn/rcc/pkg/cli"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()
	be.Equal(t, cfg.EntryPoint, "main")
	be.Equal(t, cfg.IndentWidth, 4)
	be.Equal(t, cfg.Target, "vm")
	be.True(t, cfg.IsFeatureEnabled(FeatEntryCheck))
	be.True(t, !cfg.IsFeatureEnabled(FeatUnsignedOps))
	be.True(t, !cfg.IsFeatureEnabled(FeatDebugReturn))
	be.True(t, cfg.IsWarningEnabled(WarnType))
	be.True(t, !cfg.IsWarningEnabled(WarnShadow))
	be.Err(t, cfg.Validate(), nil)

	be.Equal(t, len(cfg.Features), int(FeatCount))
	be.Equal(t, len(cfg.Warnings), int(WarnCount))
	be.Equal(t, len(cfg.FeatureMap), int(FeatCount))
	be.Equal(t, len(cfg.WarningMap), int(WarnCount))
}

func TestApplyFlag(t *testing.T) {
	cfg := NewConfig()
	be.Err(t, cfg.ApplyFlag("-Wshadow"), nil)
	be.True(t, cfg.IsWarningEnabled(WarnShadow))
	be.Err(t, cfg.ApplyFlag("-Wno-type"), nil)
	be.True(t, !cfg.IsWarningEnabled(WarnType))
	be.Err(t, cfg.ApplyFlag("-Funsigned-ops"), nil)
	be.True(t, cfg.IsFeatureEnabled(FeatUnsignedOps))
	be.Err(t, cfg.ApplyFlag("-Fno-entry-check"), nil)
	be.True(t, !cfg.IsFeatureEnabled(FeatEntryCheck))

	be.Err(t, cfg.ApplyFlag("-Wno-all"), nil)
	_, warnings := cfg.Enabled()
	be.Equal(t, len(warnings), 0)
	be.Err(t, cfg.ApplyFlag("-Wall"), nil)
	_, warnings = cfg.Enabled()
	be.Equal(t, warnings, []string{"extra", "global-init", "shadow", "type", "unreachable-code"})

	be.Err(t, cfg.ApplyFlag("-Wbogus"), "unknown warning 'bogus'")
	be.Err(t, cfg.ApplyFlag("-Fbogus"), "unknown feature 'bogus'")
	be.Err(t, cfg.ApplyFlag("-O2"), "unrecognized flag")
}

func TestValidate(t *testing.T) {
	cfg := NewConfig()
	cfg.EntryPoint = ""
	be.Err(t, cfg.Validate(), "entry point")

	cfg = NewConfig()
	cfg.IndentWidth = 17
	be.Err(t, cfg.Validate(), "out of range")

	cfg = NewConfig()
	cfg.Target = "qbe"
	be.Err(t, cfg.Validate(), "unsupported target 'qbe'")

	cfg = NewConfig()
	be.Err(t, cfg.SetTarget(""), nil)
	be.Equal(t, cfg.Target, "vm")
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
entry: start
indent: 2
target: vm
features:
  unsigned-ops: true
  entry-check: false
warnings:
  shadow: true
  type: false
`))
	be.Err(t, err, nil)
	be.Equal(t, cfg.EntryPoint, "start")
	be.Equal(t, cfg.IndentWidth, 2)
	be.True(t, cfg.IsFeatureEnabled(FeatUnsignedOps))
	be.True(t, !cfg.IsFeatureEnabled(FeatEntryCheck))
	be.True(t, cfg.IsWarningEnabled(WarnShadow))
	be.True(t, !cfg.IsWarningEnabled(WarnType))

	t.Run("indent zero is kept", func(t *testing.T) {
		cfg, err := Parse([]byte("indent: 0\n"))
		be.Err(t, err, nil)
		be.Equal(t, cfg.IndentWidth, 0)
	})
	t.Run("empty document", func(t *testing.T) {
		cfg, err := Parse(nil)
		be.Err(t, err, nil)
		be.Equal(t, cfg.EntryPoint, DefaultEntryPoint)
	})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"malformed yaml", "entry: [main", "failed to parse configuration"},
		{"unknown feature", "features:\n  turbo: true\n", `unknown feature "turbo"`},
		{"unknown warning", "warnings:\n  pedantic: true\n", `unknown warning "pedantic"`},
		{"invalid indent", "indent: 40\n", "configuration validation failed"},
		{"invalid target", "target: llvm\n", "unsupported target 'llvm'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			be.Err(t, err, tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rcc.yaml")
	be.Err(t, os.WriteFile(path, []byte("entry: boot\n"), 0o644), nil)

	cfg, err := LoadFile(path)
	be.Err(t, err, nil)
	be.Equal(t, cfg.EntryPoint, "boot")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	be.Err(t, err, "failed to read configuration file")
}

func TestFlagGroups(t *testing.T) {
	cfg := NewConfig()
	fs := cli.NewFlagSet("rcc")
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)
	be.Equal(t, len(warningFlags), int(WarnCount))
	be.Equal(t, len(featureFlags), int(FeatCount))
	be.True(t, warningFlags[WarnType].Default)
	be.True(t, !warningFlags[WarnShadow].Default)

	be.Err(t, fs.Parse([]string{"-Wshadow", "-Wno-type", "-Fdebug-return", "in.rc"}), nil)
	cfg.ApplyFlagGroups(warningFlags, featureFlags)
	be.True(t, cfg.IsWarningEnabled(WarnShadow))
	be.True(t, !cfg.IsWarningEnabled(WarnType))
	be.True(t, cfg.IsFeatureEnabled(FeatDebugReturn))
	be.True(t, cfg.IsFeatureEnabled(FeatEntryCheck))
	be.Equal(t, fs.Args(), []string{"in.rc"})
}
