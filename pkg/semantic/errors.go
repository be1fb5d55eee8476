package semantic

import (
	"errors"
	"fmt"

	"github.com/xplshn/rcc/pkg/config"
	"github.com/xplshn/rcc/pkg/token"
)

var (
	ErrDuplicateDeclaration = errors.New("duplicate declaration")
	ErrUndeclaredIdentifier = errors.New("undeclared identifier")
	ErrMissingEntry         = errors.New("missing entry point")
	ErrReservedIdentifier   = errors.New("reserved identifier")
)

// Error is a fatal analysis error. Kind is one of the Err* sentinels and
// can be tested with errors.Is.
type Error struct {
	Kind error
	Name string
	Tok  token.Token
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Tok.Line, e.Tok.Column, e.Message())
}

func (e *Error) Message() string {
	switch e.Kind {
	case ErrDuplicateDeclaration:
		return fmt.Sprintf("'%s' is already declared in this scope", e.Name)
	case ErrUndeclaredIdentifier:
		return fmt.Sprintf("'%s' is not declared", e.Name)
	case ErrMissingEntry:
		return fmt.Sprintf("entry function '%s' is not defined", e.Name)
	case ErrReservedIdentifier:
		return fmt.Sprintf("'%s' is reserved for generated labels", e.Name)
	}
	return fmt.Sprintf("%v: '%s'", e.Kind, e.Name)
}

func (e *Error) Token() token.Token { return e.Tok }

func (e *Error) Unwrap() error { return e.Kind }

// Diagnostic is a non-fatal finding. It is only recorded when its warning
// is enabled in the configuration.
type Diagnostic struct {
	Warning config.Warning
	Tok     token.Token
	Msg     string
}
