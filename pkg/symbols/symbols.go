// Package symbols implements the lexical scope chain used to resolve names
// and lay out stack storage.
package symbols

import (
	"fmt"
	"strings"

	"github.com/xplshn/rcc/pkg/ast"
)

// Type is one of the language's primitive types.
type Type int

const (
	Int Type = iota
	Bool
)

var typeInfo = [...]struct {
	name string
	size int
}{
	Int:  {"int", 4},
	Bool: {"bool", 1},
}

func TypeByName(name string) (Type, bool) {
	for t, info := range typeInfo {
		if info.name == name {
			return Type(t), true
		}
	}
	return 0, false
}

func (t Type) String() string { return typeInfo[t].name }

// Size is the storage size of t in bytes.
func (t Type) Size() int { return typeInfo[t].size }

// Symbol is a resolved declaration. Two symbols with the same name in
// different scopes are distinct values and compare unequal by pointer.
type Symbol struct {
	Name    string
	Type    Type
	Offset  int
	IsParam bool
	Global  bool
	Decl    *ast.Node
}

// Scope maps names to symbols in declaration order. Enclosing is a plain
// reference; a scope never owns its parent.
type Scope struct {
	Name        string
	Level       int
	StackOffset int
	Enclosing   *Scope

	names   map[string]*Symbol
	ordered []*Symbol
}

func NewScope(name string, enclosing *Scope) *Scope {
	s := &Scope{Name: name, Level: 1, Enclosing: enclosing, names: make(map[string]*Symbol)}
	if enclosing != nil {
		s.Level = enclosing.Level + 1
	}
	return s
}

// Insert binds sym in this scope and assigns its offset: the running offset
// plus the size of its type. Insert never fails; callers reject duplicates
// with Lookup beforehand.
func (s *Scope) Insert(sym *Symbol) {
	s.StackOffset += sym.Type.Size()
	sym.Offset = s.StackOffset
	sym.Global = s.Enclosing == nil
	s.names[sym.Name] = sym
	s.ordered = append(s.ordered, sym)
}

// Lookup resolves name in this scope and, unless currentOnly is set, in
// each enclosing scope outward. It returns nil when nothing binds name.
func (s *Scope) Lookup(name string, currentOnly bool) *Symbol {
	for sc := s; sc != nil; sc = sc.Enclosing {
		if sym, ok := sc.names[name]; ok {
			return sym
		}
		if currentOnly {
			break
		}
	}
	return nil
}

// Symbols returns the symbols of this scope in declaration order.
func (s *Scope) Symbols() []*Symbol {
	out := make([]*Symbol, len(s.ordered))
	copy(out, s.ordered)
	return out
}

func (s *Scope) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SCOPE %s (level %d, %d bytes)\n", s.Name, s.Level, s.StackOffset)
	if len(s.ordered) == 0 {
		sb.WriteString("  (empty)\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "  %-16s %-6s %6s\n", "Name", "Type", "Offset")
	for _, sym := range s.ordered {
		name := sym.Name
		if sym.IsParam {
			name += " (param)"
		}
		fmt.Fprintf(&sb, "  %-16s %-6s %6d\n", name, sym.Type, sym.Offset)
	}
	return sb.String()
}
