package codegen

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/xplshn/rcc/pkg/ast"
	"github.com/xplshn/rcc/pkg/config"
	"github.com/xplshn/rcc/pkg/semantic"
)

// Backend is the interface that all code generation backends must implement.
type Backend interface {
	// Generate lowers an analyzed program to target assembly. The bindings
	// must come from a successful analysis of exactly this tree.
	Generate(root *ast.Node, b *semantic.Bindings) (*bytes.Buffer, error)
}

// NewBackend selects the backend named by cfg.Target.
func NewBackend(cfg *config.Config, logger *slog.Logger) (Backend, error) {
	switch cfg.Target {
	case "", config.DefaultTarget:
		return NewVMBackend(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported backend '%s'", cfg.Target)
	}
}
