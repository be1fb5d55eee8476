package codegen

import (
	"bytes"
	"fmt"
	"strings"
)

// Emitter accumulates assembly text one instruction per line. Indentation is
// cosmetic and tracked as a level times a fixed unit.
type Emitter struct {
	buf    bytes.Buffer
	unit   string
	level  int
	labels int
}

func NewEmitter(indentWidth int) *Emitter {
	return &Emitter{unit: strings.Repeat(" ", indentWidth)}
}

func (e *Emitter) Indent() { e.level++ }

func (e *Emitter) Dedent() {
	if e.level == 0 {
		panic("codegen: unbalanced dedent")
	}
	e.level--
}

func (e *Emitter) line(s string) {
	for i := 0; i < e.level; i++ {
		e.buf.WriteString(e.unit)
	}
	e.buf.WriteString(s)
	e.buf.WriteByte('\n')
}

// Emit writes "mnemonic  op1, op2, ...".
func (e *Emitter) Emit(mnemonic string, operands ...string) {
	if len(operands) == 0 {
		e.line(mnemonic)
		return
	}
	e.line(mnemonic + "  " + strings.Join(operands, ", "))
}

// Label defines a label at the current position.
func (e *Emitter) Label(name string) { e.line("." + name + ":") }

// NewLabel returns a label name unique within this emitter.
func (e *Emitter) NewLabel() string {
	e.labels++
	return fmt.Sprintf("loc_%d", e.labels)
}

func Ref(label string) string { return "." + label }

func Imm(v int64) string { return fmt.Sprintf("%d", v) }

func (e *Emitter) Buffer() *bytes.Buffer { return &e.buf }

func (e *Emitter) String() string { return e.buf.String() }
