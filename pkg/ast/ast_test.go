package ast

import (
	"testing"

	"github.com/nalgeon/be"
	"github.com/xplshn/rcc/pkg/token"
)

var tok = token.Token{Line: 1, Column: 1}

func ident(name string) *Node { return NewIdentifier(tok, name) }

// int f(int a) { x = a + 1; return x; }
func sampleFunc() *Node {
	args := NewFuncArgs(tok, []*Node{NewFuncArg(tok, NewType(tok, "int"), ident("a"))})
	sum := NewBinaryOp(tok, token.Plus, NewIdentifierExp(tok, ident("a")), NewIntConst(tok, 1))
	body := NewStatements(tok, []*Node{
		NewAssignStatement(tok, ident("x"), sum),
		NewReturnStatement(tok, NewIdentifierExp(tok, ident("x"))),
	})
	return NewFuncDef(tok, NewType(tok, "int"), ident("f"), args, body)
}

func TestNodeTypeString(t *testing.T) {
	be.Equal(t, Program.String(), "Program")
	be.Equal(t, ExpGroup.String(), "ExpGroup")

	defer func() {
		be.True(t, recover() != nil)
	}()
	_ = nodeTypeCount.String()
}

func TestConstructorsSetParent(t *testing.T) {
	fn := sampleFunc()
	d := fn.Data.(FuncDefNode)
	be.True(t, d.Body.Parent == fn)
	be.True(t, d.Ident.Parent == fn)

	ret := d.Body.Data.(StatementsNode).Stmts[1]
	be.True(t, ret.Parent == d.Body)

	prog := NewProgram(tok, []*Node{fn})
	be.True(t, fn.Parent == prog)
	be.True(t, prog.Parent == nil)
	be.Err(t, Validate(prog), nil)
}

func TestValidate(t *testing.T) {
	t.Run("shared node", func(t *testing.T) {
		shared := NewIntConst(tok, 1)
		sum := NewBinaryOp(tok, token.Plus, shared, shared)
		be.Err(t, Validate(sum), "more than one owner")
	})
	t.Run("stale parent", func(t *testing.T) {
		value := NewIntConst(tok, 1)
		NewReturnStatement(tok, value)
		other := NewExpStatement(tok, NewIntConst(tok, 2))
		stmts := NewStatements(tok, []*Node{other})
		stmts.Data = StatementsNode{Stmts: []*Node{other, value}}
		be.Err(t, Validate(stmts), "stale parent")
	})
	t.Run("nil", func(t *testing.T) {
		be.Err(t, Validate(nil), "nil tree")
	})
}

func TestChildrenOmitsAbsentOptionals(t *testing.T) {
	decl := NewVarDecl(tok, NewType(tok, "bool"), ident("b"), nil)
	be.Equal(t, len(Children(decl)), 2)

	ifStmt := NewIfStatement(tok, NewBoolConst(tok, true), NewStatements(tok, nil), nil)
	be.Equal(t, len(Children(ifStmt)), 2)
	be.Equal(t, len(Children(NewIntConst(tok, 3))), 0)
}

func TestChildrenPanicsOnUnknownPayload(t *testing.T) {
	defer func() {
		be.True(t, recover() != nil)
	}()
	Children(&Node{Type: Program, Data: 42})
}

func TestWalk(t *testing.T) {
	fn := sampleFunc()

	var visited []NodeType
	Walk(fn, func(n *Node) bool {
		visited = append(visited, n.Type)
		return true
	})
	be.Equal(t, visited[0], FuncDef)
	be.Equal(t, len(visited), 17)

	count := 0
	Walk(fn, func(n *Node) bool {
		count++
		return n.Type != Statements
	})
	be.Equal(t, count, 8)
}

func TestName(t *testing.T) {
	fn := sampleFunc()
	be.Equal(t, Name(fn), "f")
	be.Equal(t, Name(fn.Data.(FuncDefNode).RType), "int")
	be.Equal(t, Name(NewIdentifierExp(tok, ident("y"))), "y")
	be.Equal(t, Name(NewIntConst(tok, 1)), "")
	be.Equal(t, Name(nil), "")
}

func TestSExpr(t *testing.T) {
	be.Equal(t, SExpr(sampleFunc()),
		`(func (type int) (ident "f") (args (arg (type int) (ident "a"))) `+
			`(block (assign (ident "x") (binary "+" (ref (ident "a")) (integer 1))) (return (ref (ident "x")))))`)

	cond := NewLogic(tok, token.AndAnd,
		NewUnaryOp(tok, token.Not, NewBoolConst(tok, false)),
		NewExpGroup(tok, NewComparison(tok, token.Lte, NewIntConst(tok, -1), NewIntConst(tok, 2))))
	be.Equal(t, SExpr(cond), `(logic "&&" (unary "!" (bool false)) (group (cmp "<=" (integer -1) (integer 2))))`)
}
