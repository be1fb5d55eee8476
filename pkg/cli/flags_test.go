package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

type options struct {
	output  string
	indent  int
	verbose bool
	include []string
}

func newTestSet() (*FlagSet, *options) {
	o := &options{}
	fs := NewFlagSet("rcc")
	fs.String(&o.output, "output", "o", "-", "Place the output into <file>", "file")
	fs.Int(&o.indent, "indent", "", 4, "Indent width", "n")
	fs.Bool(&o.verbose, "verbose", "v", false, "Verbose logging")
	fs.List(&o.include, "include", "I", nil, "Search path", "dir")
	return fs, o
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want options
		rest []string
	}{
		{"defaults", []string{"a.rc"}, options{output: "-", indent: 4}, []string{"a.rc"}},
		{"long with value", []string{"--output", "out.s", "a.rc"}, options{output: "out.s", indent: 4}, []string{"a.rc"}},
		{"long with equals", []string{"--indent=2"}, options{output: "-", indent: 2}, nil},
		{"short with value", []string{"-o", "out.s"}, options{output: "out.s", indent: 4}, nil},
		{"short attached", []string{"-oout.s", "-v"}, options{output: "out.s", indent: 4, verbose: true}, nil},
		{"bool explicit", []string{"--verbose=false"}, options{output: "-", indent: 4}, nil},
		{"list repeats", []string{"-I", "a", "--include=b"}, options{output: "-", indent: 4, include: []string{"a", "b"}}, nil},
		{"double dash", []string{"-v", "--", "-o", "x.rc"}, options{output: "-", indent: 4, verbose: true}, []string{"-o", "x.rc"}},
		{"lone dash is positional", []string{"-"}, options{output: "-", indent: 4}, []string{"-"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, o := newTestSet()
			be.Err(t, fs.Parse(tt.args), nil)
			be.Equal(t, *o, tt.want)
			be.Equal(t, len(fs.Args()), len(tt.rest))
			for i := range tt.rest {
				be.Equal(t, fs.Args()[i], tt.rest[i])
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown long", []string{"--frobnicate"}, "unknown flag: --frobnicate"},
		{"unknown short", []string{"-x"}, "unknown flag: -x"},
		{"missing value", []string{"--output"}, "flag needs an argument: --output"},
		{"bad integer", []string{"--indent", "wide"}, "invalid integer value 'wide'"},
		{"bad bool", []string{"--verbose=maybe"}, "invalid boolean value 'maybe'"},
		{"empty name", []string{"--=x"}, "empty flag name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, _ := newTestSet()
			be.Err(t, fs.Parse(tt.args), tt.want)
		})
	}
}

func TestRedefinitionPanics(t *testing.T) {
	fs, _ := newTestSet()
	var s string
	defer func() {
		r := recover()
		be.Equal(t, r, "flag redefined: output")
	}()
	fs.String(&s, "output", "", "", "", "")
}

func TestFlagGroup(t *testing.T) {
	entries := []FlagGroupEntry{
		{Name: "shadow", Prefix: "W", Usage: "Shadowing", Enabled: new(bool), Disabled: new(bool)},
		{Name: "type", Prefix: "W", Usage: "Types", Enabled: new(bool), Disabled: new(bool), Default: true},
	}
	fs := NewFlagSet("rcc")
	fs.AddFlagGroup("Warning Flags", "Toggle warnings", "warning flag", "Available Warnings:", entries)

	be.Err(t, fs.Parse([]string{"-Wshadow", "-Wno-type", "main.rc"}), nil)
	be.True(t, *entries[0].Enabled)
	be.True(t, !*entries[0].Disabled)
	be.True(t, *entries[1].Disabled)
	be.Equal(t, fs.Args(), []string{"main.rc"})
	be.True(t, fs.Lookup("Wno-shadow") != nil)
}

func TestAppRun(t *testing.T) {
	t.Run("action receives positionals", func(t *testing.T) {
		app := NewApp("rcc")
		var verbose bool
		app.FlagSet.Bool(&verbose, "verbose", "v", false, "Verbose")
		var got []string
		app.Action = func(args []string) error { got = args; return nil }
		be.Err(t, app.Run([]string{"-v", "a.rc", "b.rc"}), nil)
		be.True(t, verbose)
		be.Equal(t, got, []string{"a.rc", "b.rc"})
	})

	t.Run("help", func(t *testing.T) {
		app := NewApp("rcc")
		app.Synopsis = "[options] <file.rc>..."
		app.Description = "Compiles programs."
		var out bytes.Buffer
		app.Stdout = &out
		fs := app.FlagSet
		var o string
		fs.String(&o, "output", "o", "-", "Output file", "file")
		fs.AddFlagGroup("Feature Flags", "Toggle features", "feature flag", "Available Features:", []FlagGroupEntry{
			{Name: "unsigned-ops", Prefix: "F", Usage: "Unsigned", Enabled: new(bool), Disabled: new(bool)},
		})

		err := app.Run([]string{"--help"})
		be.True(t, errors.Is(err, ErrHelp))
		help := out.String()
		be.True(t, strings.Contains(help, "rcc [options] <file.rc>..."))
		be.True(t, strings.Contains(help, "-o <file>, --output <file>"))
		be.True(t, strings.Contains(help, "|-|"))
		be.True(t, strings.Contains(help, "-Fno-<feature flag>"))
		be.True(t, strings.Contains(help, "unsigned-ops"))
		be.True(t, !strings.Contains(help, "--Funsigned-ops"))
	})

	t.Run("bad flag prints usage", func(t *testing.T) {
		app := NewApp("rcc")
		var errOut bytes.Buffer
		app.Stderr = &errOut
		err := app.Run([]string{"--nope"})
		be.Err(t, err, "unknown flag")
		be.True(t, strings.Contains(errOut.String(), "Usage: rcc"))
	})
}

func TestWrapText(t *testing.T) {
	be.Equal(t, wrapText("one two three four", 9), []string{"one two", "three", "four"})
	be.Equal(t, len(wrapText("   ", 10)), 0)
}
