// Package ast defines the types used to represent the Abstract Syntax Tree (AST)
package ast

import (
	"fmt"

	"github.com/xplshn/rcc/pkg/token"
)

// NodeType defines the kind of a node in the AST
type NodeType int

// Node types enum
const (
	Program NodeType = iota

	// Declarations
	VarDecl
	FuncDecl
	FuncDef
	FuncArg
	FuncArgs

	// Statements
	Statements
	AssignStatement
	ReturnStatement
	IfStatement
	WhileStatement
	ExpStatement

	// Expressions
	UnaryOp
	BinaryOp
	Comparison
	Logic
	BoolConst
	IntConst
	Identifier
	IdentifierExp
	Type
	ExpGroup

	nodeTypeCount
)

var nodeTypeNames = [...]string{
	Program:         "Program",
	VarDecl:         "VarDecl",
	FuncDecl:        "FuncDecl",
	FuncDef:         "FuncDef",
	FuncArg:         "FuncArg",
	FuncArgs:        "FuncArgs",
	Statements:      "Statements",
	AssignStatement: "AssignStatement",
	ReturnStatement: "ReturnStatement",
	IfStatement:     "IfStatement",
	WhileStatement:  "WhileStatement",
	ExpStatement:    "ExpStatement",
	UnaryOp:         "UnaryOp",
	BinaryOp:        "BinaryOp",
	Comparison:      "Comparison",
	Logic:           "Logic",
	BoolConst:       "BoolConst",
	IntConst:        "IntConst",
	Identifier:      "Identifier",
	IdentifierExp:   "IdentifierExp",
	Type:            "Type",
	ExpGroup:        "ExpGroup",
}

func (t NodeType) String() string {
	if t < 0 || t >= nodeTypeCount {
		panic(fmt.Sprintf("ast: unknown node type %d", int(t)))
	}
	return nodeTypeNames[t]
}

// Node represents a node in the Abstract Syntax Tree.
// Parent is a lookup-only back reference used for diagnostics; ownership
// always flows from parent to child through Data.
type Node struct {
	Type   NodeType
	Tok    token.Token
	Parent *Node
	Data   interface{}
}

// --- Node Data Structs ---
type ProgramNode struct{ Items []*Node }
type VarDeclNode struct{ VarType, Ident, Value *Node }
type FuncDeclNode struct{ RType, Ident, Args *Node }
type FuncDefNode struct{ RType, Ident, Args, Body *Node }
type FuncArgNode struct{ ArgType, Ident *Node }
type FuncArgsNode struct{ Args []*Node }
type StatementsNode struct{ Stmts []*Node }
type AssignStatementNode struct{ Ident, Value *Node }
type ReturnStatementNode struct{ Value *Node }
type IfStatementNode struct{ Cond, TrueBlock, ElseBlock *Node }
type WhileStatementNode struct{ Cond, Body *Node }
type ExpStatementNode struct{ Expr *Node }
type UnaryOpNode struct {
	Op    token.Type
	Right *Node
}
type BinaryOpNode struct {
	Op          token.Type
	Left, Right *Node
}
type ComparisonNode struct {
	Op          token.Type
	Left, Right *Node
}
type LogicNode struct {
	Op          token.Type
	Left, Right *Node
}
type BoolConstNode struct{ Value bool }
type IntConstNode struct{ Value int64 }
type IdentifierNode struct{ Name string }
type IdentifierExpNode struct{ Ident *Node }
type TypeNode struct{ Name string }
type ExpGroupNode struct{ Expr *Node }

// --- Node Constructors ---

func newNode(tok token.Token, nodeType NodeType, data interface{}, children ...*Node) *Node {
	node := &Node{Type: nodeType, Tok: tok, Data: data}
	for _, child := range children {
		if child != nil {
			child.Parent = node
		}
	}
	return node
}

func NewProgram(tok token.Token, items []*Node) *Node {
	return newNode(tok, Program, ProgramNode{Items: items}, items...)
}
func NewVarDecl(tok token.Token, varType, ident, value *Node) *Node {
	return newNode(tok, VarDecl, VarDeclNode{VarType: varType, Ident: ident, Value: value}, varType, ident, value)
}
func NewFuncDecl(tok token.Token, rType, ident, args *Node) *Node {
	return newNode(tok, FuncDecl, FuncDeclNode{RType: rType, Ident: ident, Args: args}, rType, ident, args)
}
func NewFuncDef(tok token.Token, rType, ident, args, body *Node) *Node {
	return newNode(tok, FuncDef, FuncDefNode{RType: rType, Ident: ident, Args: args, Body: body}, rType, ident, args, body)
}
func NewFuncArg(tok token.Token, argType, ident *Node) *Node {
	return newNode(tok, FuncArg, FuncArgNode{ArgType: argType, Ident: ident}, argType, ident)
}
func NewFuncArgs(tok token.Token, args []*Node) *Node {
	return newNode(tok, FuncArgs, FuncArgsNode{Args: args}, args...)
}
func NewStatements(tok token.Token, stmts []*Node) *Node {
	return newNode(tok, Statements, StatementsNode{Stmts: stmts}, stmts...)
}
func NewAssignStatement(tok token.Token, ident, value *Node) *Node {
	return newNode(tok, AssignStatement, AssignStatementNode{Ident: ident, Value: value}, ident, value)
}
func NewReturnStatement(tok token.Token, value *Node) *Node {
	return newNode(tok, ReturnStatement, ReturnStatementNode{Value: value}, value)
}
func NewIfStatement(tok token.Token, cond, trueBlock, elseBlock *Node) *Node {
	return newNode(tok, IfStatement, IfStatementNode{Cond: cond, TrueBlock: trueBlock, ElseBlock: elseBlock}, cond, trueBlock, elseBlock)
}
func NewWhileStatement(tok token.Token, cond, body *Node) *Node {
	return newNode(tok, WhileStatement, WhileStatementNode{Cond: cond, Body: body}, cond, body)
}
func NewExpStatement(tok token.Token, expr *Node) *Node {
	return newNode(tok, ExpStatement, ExpStatementNode{Expr: expr}, expr)
}
func NewUnaryOp(tok token.Token, op token.Type, right *Node) *Node {
	return newNode(tok, UnaryOp, UnaryOpNode{Op: op, Right: right}, right)
}
func NewBinaryOp(tok token.Token, op token.Type, left, right *Node) *Node {
	return newNode(tok, BinaryOp, BinaryOpNode{Op: op, Left: left, Right: right}, left, right)
}
func NewComparison(tok token.Token, op token.Type, left, right *Node) *Node {
	return newNode(tok, Comparison, ComparisonNode{Op: op, Left: left, Right: right}, left, right)
}
func NewLogic(tok token.Token, op token.Type, left, right *Node) *Node {
	return newNode(tok, Logic, LogicNode{Op: op, Left: left, Right: right}, left, right)
}
func NewBoolConst(tok token.Token, value bool) *Node {
	return newNode(tok, BoolConst, BoolConstNode{Value: value})
}
func NewIntConst(tok token.Token, value int64) *Node {
	return newNode(tok, IntConst, IntConstNode{Value: value})
}
func NewIdentifier(tok token.Token, name string) *Node {
	return newNode(tok, Identifier, IdentifierNode{Name: name})
}
func NewIdentifierExp(tok token.Token, ident *Node) *Node {
	return newNode(tok, IdentifierExp, IdentifierExpNode{Ident: ident}, ident)
}
func NewType(tok token.Token, name string) *Node {
	return newNode(tok, Type, TypeNode{Name: name})
}
func NewExpGroup(tok token.Token, expr *Node) *Node {
	return newNode(tok, ExpGroup, ExpGroupNode{Expr: expr}, expr)
}

// Name returns the identifier spelled by an Identifier or IdentifierExp node,
// or the declared name of a declaration node.
func Name(n *Node) string {
	if n == nil {
		return ""
	}
	switch d := n.Data.(type) {
	case IdentifierNode:
		return d.Name
	case IdentifierExpNode:
		return Name(d.Ident)
	case VarDeclNode:
		return Name(d.Ident)
	case FuncDeclNode:
		return Name(d.Ident)
	case FuncDefNode:
		return Name(d.Ident)
	case FuncArgNode:
		return Name(d.Ident)
	case AssignStatementNode:
		return Name(d.Ident)
	case TypeNode:
		return d.Name
	}
	return ""
}
