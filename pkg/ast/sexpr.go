package ast

import (
	"strconv"
	"strings"
)

var sexprHeads = [...]string{
	Program:         "program",
	VarDecl:         "var",
	FuncDecl:        "decl",
	FuncDef:         "func",
	FuncArg:         "arg",
	FuncArgs:        "args",
	Statements:      "block",
	AssignStatement: "assign",
	ReturnStatement: "return",
	IfStatement:     "if",
	WhileStatement:  "while",
	ExpStatement:    "expr",
	UnaryOp:         "unary",
	BinaryOp:        "binary",
	Comparison:      "cmp",
	Logic:           "logic",
	IdentifierExp:   "ref",
	ExpGroup:        "group",
}

// SExpr renders n as an s-expression, children in source order:
//
//	int x = 1 + y;  =>  (var (type int) (ident "x") (binary "+" (integer 1) (ref (ident "y"))))
func SExpr(n *Node) string {
	if n == nil {
		return "()"
	}
	switch d := n.Data.(type) {
	case IdentifierNode:
		return `(ident "` + d.Name + `")`
	case TypeNode:
		return "(type " + d.Name + ")"
	case IntConstNode:
		return "(integer " + strconv.FormatInt(d.Value, 10) + ")"
	case BoolConstNode:
		return "(bool " + strconv.FormatBool(d.Value) + ")"
	}

	var sb strings.Builder
	sb.WriteString("(" + sexprHeads[n.Type])
	switch d := n.Data.(type) {
	case UnaryOpNode:
		sb.WriteString(` "` + d.Op.String() + `"`)
	case BinaryOpNode:
		sb.WriteString(` "` + d.Op.String() + `"`)
	case ComparisonNode:
		sb.WriteString(` "` + d.Op.String() + `"`)
	case LogicNode:
		sb.WriteString(` "` + d.Op.String() + `"`)
	}
	for _, c := range Children(n) {
		sb.WriteString(" " + SExpr(c))
	}
	sb.WriteString(")")
	return sb.String()
}
