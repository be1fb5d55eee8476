// Package driver runs the compilation pipeline: tokenize, parse, analyze and
// generate.
package driver

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/xplshn/rcc/pkg/ast"
	"github.com/xplshn/rcc/pkg/codegen"
	"github.com/xplshn/rcc/pkg/config"
	"github.com/xplshn/rcc/pkg/lexer"
	"github.com/xplshn/rcc/pkg/parser"
	"github.com/xplshn/rcc/pkg/semantic"
	"github.com/xplshn/rcc/pkg/token"
	"github.com/xplshn/rcc/pkg/util"
)

// Result is the outcome of a successful compilation.
type Result struct {
	Sources  []util.SourceFile
	AST      *ast.Node
	Bindings *semantic.Bindings
	Asm      string
}

type Compiler struct {
	cfg    *config.Config
	logger *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *Compiler {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Compiler{cfg: cfg, logger: util.OrDiscard(logger)}
}

// ReadFiles loads source files in order.
func ReadFiles(paths []string) ([]util.SourceFile, error) {
	var sources []util.SourceFile
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read file '%s': %w", path, err)
		}
		sources = append(sources, util.SourceFile{Name: path, Content: []rune(string(content))})
	}
	return sources, nil
}

// CompileString compiles a single in-memory source named name.
func (c *Compiler) CompileString(name, src string) (*Result, error) {
	return c.Compile([]util.SourceFile{{Name: name, Content: []rune(src)}})
}

// Compile treats sources as one compilation unit in the given order. On
// failure the partially filled Result is still returned so callers can
// render diagnostics against the sources.
func (c *Compiler) Compile(sources []util.SourceFile) (*Result, error) {
	res := &Result{Sources: sources}
	start := time.Now()

	c.logger.Debug("Tokenizing", "files", len(sources))
	var toks []token.Token
	for i, src := range sources {
		fileToks, err := lexer.Tokenize(src.Content, i)
		if err != nil {
			return res, err
		}
		toks = append(toks, fileToks[:len(fileToks)-1]...)
	}
	last := max(len(sources)-1, 0)
	toks = append(toks, token.Token{Type: token.EOF, FileIndex: last})

	c.logger.Debug("Parsing", "tokens", len(toks))
	root, err := parser.NewParser(toks).Parse()
	if err != nil {
		return res, err
	}
	res.AST = root

	c.logger.Debug("Analyzing")
	b, err := semantic.NewAnalyzer(c.cfg, c.logger).Analyze(root)
	if err != nil {
		return res, err
	}
	res.Bindings = b

	c.logger.Debug("Generating", "target", c.cfg.Target)
	backend, err := codegen.NewBackend(c.cfg, c.logger)
	if err != nil {
		return res, err
	}
	buf, err := backend.Generate(root, b)
	if err != nil {
		return res, err
	}
	res.Asm = buf.String()

	c.logger.Debug("Compiled", "duration", time.Since(start), "bytes", len(res.Asm))
	return res, nil
}
