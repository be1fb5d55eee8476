package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xplshn/rcc/pkg/token"
	"golang.org/x/term"
)

// SourceFile tracks the name and content of a single source file.
type SourceFile struct {
	Name    string
	Content []rune
}

// Error is a positioned compile error raised by the lexer or parser.
type Error struct {
	Tok token.Token
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("%d:%d: %s", e.Tok.Line, e.Tok.Column, e.Msg) }

// Throw aborts the current front-end pass with a positioned error. It must
// only be called below a deferred Catch.
func Throw(tok token.Token, format string, args ...interface{}) {
	panic(&Error{Tok: tok, Msg: fmt.Sprintf(format, args...)})
}

// Catch recovers an error raised by Throw into *errp. Any other panic is
// propagated unchanged.
func Catch(errp *error) {
	if x := recover(); x != nil {
		if e, ok := x.(*Error); ok {
			*errp = e
			return
		}
		panic(x)
	}
}

// Positioned is implemented by errors that carry a source token.
type Positioned interface {
	error
	Token() token.Token
	Message() string
}

func (e *Error) Token() token.Token { return e.Tok }
func (e *Error) Message() string    { return e.Msg }

type severity int

const (
	sevError severity = iota
	sevWarning
)

const (
	cRed    = "\033[31m"
	cYellow = "\033[33m"
	cGreen  = "\033[32m"
	cNone   = "\033[0m"
)

// Reporter renders diagnostics with the offending source line and a caret.
type Reporter struct {
	Out     io.Writer
	Sources []SourceFile
	Color   bool
}

// NewReporter colors its output only when w is a terminal.
func NewReporter(w io.Writer, sources []SourceFile) *Reporter {
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Reporter{Out: w, Sources: sources, Color: color}
}

func (r *Reporter) paint(code, s string) string {
	if !r.Color {
		return s
	}
	return code + s + cNone
}

// Error reports err. Positioned errors get a location and source excerpt.
func (r *Reporter) Error(err error) {
	var pe Positioned
	if errors.As(err, &pe) {
		r.report(sevError, pe.Token(), pe.Message(), "")
		return
	}
	fmt.Fprintf(r.Out, "%s %v\n", r.paint(cRed, "error:"), err)
}

// Warn reports a warning with its -W flag name appended.
func (r *Reporter) Warn(name string, tok token.Token, msg string) {
	r.report(sevWarning, tok, msg, name)
}

func (r *Reporter) report(sev severity, tok token.Token, msg, flag string) {
	label := r.paint(cRed, "error:")
	if sev == sevWarning {
		label = r.paint(cYellow, "warning:")
	}
	fmt.Fprintf(r.Out, "%s: %s %s", r.location(tok), label, msg)
	if flag != "" {
		fmt.Fprintf(r.Out, " [-W%s]", flag)
	}
	fmt.Fprintln(r.Out)
	r.excerpt(tok)
}

func (r *Reporter) location(tok token.Token) string {
	name := "unknown"
	if tok.FileIndex >= 0 && tok.FileIndex < len(r.Sources) {
		name = r.Sources[tok.FileIndex].Name
	}
	return fmt.Sprintf("%s:%d:%d", name, tok.Line, tok.Column)
}

func (r *Reporter) excerpt(tok token.Token) {
	if tok.FileIndex < 0 || tok.FileIndex >= len(r.Sources) || tok.Line < 1 || tok.Column < 1 {
		return
	}
	lines := strings.Split(string(r.Sources[tok.FileIndex].Content), "\n")
	if tok.Line > len(lines) {
		return
	}
	fmt.Fprintf(r.Out, "  %s\n", lines[tok.Line-1])
	caret := "^"
	if tok.Len > 1 {
		caret += strings.Repeat("~", tok.Len-1)
	}
	fmt.Fprintf(r.Out, "  %s%s\n", strings.Repeat(" ", tok.Column-1), r.paint(cGreen, caret))
}
