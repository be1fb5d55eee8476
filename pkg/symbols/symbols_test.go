package symbols

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func sp(n int) string { return strings.Repeat(" ", n) }

func TestTypeByName(t *testing.T) {
	typ, ok := TypeByName("int")
	be.True(t, ok)
	be.Equal(t, typ, Int)
	be.Equal(t, typ.Size(), 4)

	typ, ok = TypeByName("bool")
	be.True(t, ok)
	be.Equal(t, typ, Bool)
	be.Equal(t, typ.Size(), 1)

	_, ok = TypeByName("char")
	be.True(t, !ok)
}

func TestInsertAssignsRunningOffsets(t *testing.T) {
	global := NewScope("global", nil)
	a := &Symbol{Name: "a", Type: Int}
	b := &Symbol{Name: "b", Type: Bool}
	c := &Symbol{Name: "c", Type: Int}
	global.Insert(a)
	global.Insert(b)
	global.Insert(c)

	be.Equal(t, a.Offset, 4)
	be.Equal(t, b.Offset, 5)
	be.Equal(t, c.Offset, 9)
	be.Equal(t, global.StackOffset, 9)
	be.True(t, a.Global && b.Global && c.Global)

	fn := NewScope("main", global)
	x := &Symbol{Name: "x", Type: Int}
	fn.Insert(x)
	be.Equal(t, fn.Level, 2)
	be.Equal(t, x.Offset, 4)
	be.True(t, !x.Global)
}

func TestLookup(t *testing.T) {
	global := NewScope("global", nil)
	g := &Symbol{Name: "g", Type: Int}
	global.Insert(g)

	fn := NewScope("f", global)
	be.True(t, fn.Lookup("g", false) == g)
	be.True(t, fn.Lookup("g", true) == nil)
	be.True(t, fn.Lookup("missing", false) == nil)

	t.Run("shadowing", func(t *testing.T) {
		inner := &Symbol{Name: "g", Type: Bool}
		fn.Insert(inner)
		be.True(t, fn.Lookup("g", false) == inner)
		be.True(t, global.Lookup("g", false) == g)
	})
}

func TestSymbolsKeepsDeclarationOrder(t *testing.T) {
	s := NewScope("global", nil)
	for _, name := range []string{"z", "a", "m"} {
		s.Insert(&Symbol{Name: name, Type: Int})
	}
	var names []string
	for _, sym := range s.Symbols() {
		names = append(names, sym.Name)
	}
	be.Equal(t, names, []string{"z", "a", "m"})
}

func TestString(t *testing.T) {
	global := NewScope("global", nil)
	be.Equal(t, global.String(), "SCOPE global (level 1, 0 bytes)\n  (empty)\n")

	fn := NewScope("main", global)
	fn.Insert(&Symbol{Name: "a", Type: Int, IsParam: true})
	fn.Insert(&Symbol{Name: "x", Type: Bool})

	want := "SCOPE main (level 2, 5 bytes)\n" +
		"  Name" + sp(13) + "Type" + sp(3) + "Offset\n" +
		"  a (param)" + sp(8) + "int" + sp(9) + "4\n" +
		"  x" + sp(16) + "bool" + sp(8) + "5\n"
	be.Equal(t, fn.String(), want)
}
