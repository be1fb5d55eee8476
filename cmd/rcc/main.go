package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/xplshn/rcc/pkg/ast"
	"github.com/xplshn/rcc/pkg/cli"
	"github.com/xplshn/rcc/pkg/config"
	"github.com/xplshn/rcc/pkg/driver"
	"github.com/xplshn/rcc/pkg/util"
	"github.com/xplshn/rcc/pkg/watch"
)

func main() {
	app := cli.NewApp("rcc")
	app.Synopsis = "[options] <input.rc> ..."
	app.Description = "A compiler for a small C-like language with int and bool types, emitting assembly for a register/stack virtual machine."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/rcc>"

	var (
		outFile     string
		configFile  string
		entry       string
		indent      int
		target      string
		logFormat   string
		dumpSymbols bool
		dumpAST     bool
		verbose     bool
		watchMode   bool
		wall        bool
	)

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "-", "Place the output into <file>, '-' for stdout.", "file")
	fs.String(&configFile, "config", "c", "", "Load compiler settings from a YAML file.", "file")
	fs.String(&entry, "entry", "", "", "Name of the entry function (default 'main').", "name")
	fs.Int(&indent, "indent", "", -1, "Indentation width of the emitted assembly (default 4).", "n")
	fs.String(&target, "target", "t", "", "Set the backend (default 'vm').", "backend")
	fs.String(&logFormat, "log-format", "", "text", "Log format: text or json.", "format")
	fs.Bool(&dumpSymbols, "dump-symbols", "", false, "Print the symbol tables to stderr after analysis.")
	fs.Bool(&dumpAST, "dump-ast", "", false, "Print the syntax tree as an s-expression to stderr.")
	fs.Bool(&verbose, "verbose", "v", false, "Log pipeline progress.")
	fs.Bool(&watchMode, "watch", "w", false, "Recompile whenever an input file changes.")
	fs.Bool(&wall, "Wall", "", false, "Enable all warnings.")

	warningFlags, featureFlags := config.NewConfig().SetupFlagGroups(fs)

	app.Action = func(inputFiles []string) error {
		if len(inputFiles) == 0 {
			fmt.Fprintln(app.Stderr, "rcc: no input files specified.")
			app.WriteUsage(app.Stderr)
			return fmt.Errorf("no input files")
		}

		level := "warn"
		if verbose {
			level = "debug"
		}
		logger, err := util.NewLogger(app.Stderr, level, logFormat)
		if err != nil {
			return report(app.Stderr, nil, err)
		}

		// Settings apply in order: defaults, config file, command line. The
		// file is re-read on every build so --watch picks up edits to it.
		loadConfig := func() (*config.Config, error) {
			cfg := config.NewConfig()
			if configFile != "" {
				var err error
				if cfg, err = config.LoadFile(configFile); err != nil {
					return nil, err
				}
			}
			if wall {
				for i := config.Warning(0); i < config.WarnCount; i++ {
					cfg.SetWarning(i, true)
				}
			}
			cfg.ApplyFlagGroups(warningFlags, featureFlags)
			if entry != "" {
				cfg.EntryPoint = entry
			}
			if indent >= 0 {
				cfg.IndentWidth = indent
			}
			if target != "" {
				cfg.Target = target
			}
			return cfg, cfg.Validate()
		}

		build := func() error {
			cfg, err := loadConfig()
			if err != nil {
				return report(app.Stderr, nil, err)
			}
			features, warnings := cfg.Enabled()
			logger.Debug("Configuration", "entry", cfg.EntryPoint, "target", cfg.Target, "features", features, "warnings", warnings)

			sources, err := driver.ReadFiles(inputFiles)
			if err != nil {
				return report(app.Stderr, nil, err)
			}
			res, err := driver.New(cfg, logger).Compile(sources)
			rep := util.NewReporter(app.Stderr, res.Sources)
			if err != nil {
				rep.Error(err)
				return err
			}
			for _, d := range res.Bindings.Diagnostics {
				rep.Warn(cfg.Warnings[d.Warning].Name, d.Tok, d.Msg)
			}
			if dumpAST {
				fmt.Fprintln(app.Stderr, ast.SExpr(res.AST))
			}
			if dumpSymbols {
				fmt.Fprint(app.Stderr, res.Bindings.Dump())
			}
			return writeOutput(outFile, app.Stdout, res.Asm)
		}

		if !watchMode {
			return build()
		}

		_ = build()
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		paths := append([]string(nil), inputFiles...)
		if configFile != "" {
			paths = append(paths, configFile)
		}
		w, err := watch.New(paths, watch.DefaultDebounce, logger)
		if err != nil {
			return report(app.Stderr, nil, err)
		}
		defer w.Close()
		return w.Run(ctx, build)
	}

	if err := app.Run(os.Args[1:]); err != nil {
		if errors.Is(err, cli.ErrHelp) {
			return
		}
		os.Exit(1)
	}
}

func report(w io.Writer, sources []util.SourceFile, err error) error {
	util.NewReporter(w, sources).Error(err)
	return err
}

func writeOutput(path string, stdout io.Writer, asm string) error {
	if path == "-" {
		_, err := io.WriteString(stdout, asm)
		return err
	}
	if err := os.WriteFile(path, []byte(asm), 0o644); err != nil {
		return fmt.Errorf("failed to write output file '%s': %w", path, err)
	}
	return nil
}
