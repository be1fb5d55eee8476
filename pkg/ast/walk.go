package ast

import "fmt"

// Children returns the direct children of n in source order. Optional
// children that are absent are omitted.
func Children(n *Node) []*Node {
	if n == nil {
		return nil
	}
	var kids []*Node
	add := func(nodes ...*Node) {
		for _, c := range nodes {
			if c != nil {
				kids = append(kids, c)
			}
		}
	}

	switch d := n.Data.(type) {
	case ProgramNode:
		add(d.Items...)
	case VarDeclNode:
		add(d.VarType, d.Ident, d.Value)
	case FuncDeclNode:
		add(d.RType, d.Ident, d.Args)
	case FuncDefNode:
		add(d.RType, d.Ident, d.Args, d.Body)
	case FuncArgNode:
		add(d.ArgType, d.Ident)
	case FuncArgsNode:
		add(d.Args...)
	case StatementsNode:
		add(d.Stmts...)
	case AssignStatementNode:
		add(d.Ident, d.Value)
	case ReturnStatementNode:
		add(d.Value)
	case IfStatementNode:
		add(d.Cond, d.TrueBlock, d.ElseBlock)
	case WhileStatementNode:
		add(d.Cond, d.Body)
	case ExpStatementNode:
		add(d.Expr)
	case UnaryOpNode:
		add(d.Right)
	case BinaryOpNode:
		add(d.Left, d.Right)
	case ComparisonNode:
		add(d.Left, d.Right)
	case LogicNode:
		add(d.Left, d.Right)
	case IdentifierExpNode:
		add(d.Ident)
	case ExpGroupNode:
		add(d.Expr)
	case BoolConstNode, IntConstNode, IdentifierNode, TypeNode:
	default:
		panic(fmt.Sprintf("ast: unhandled payload %T on %s node", n.Data, n.Type))
	}
	return kids
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the current node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// Validate checks the ownership invariants of a tree: every reachable node
// is reached exactly once and its Parent points at the node that owns it.
func Validate(root *Node) error {
	seen := make(map[*Node]bool)
	var check func(n, owner *Node) error
	check = func(n, owner *Node) error {
		if seen[n] {
			return fmt.Errorf("%s node at %d:%d has more than one owner", n.Type, n.Tok.Line, n.Tok.Column)
		}
		seen[n] = true
		if owner != nil && n.Parent != owner {
			return fmt.Errorf("%s node at %d:%d has a stale parent reference", n.Type, n.Tok.Line, n.Tok.Column)
		}
		for _, c := range Children(n) {
			if err := check(c, n); err != nil {
				return err
			}
		}
		return nil
	}
	if root == nil {
		return fmt.Errorf("nil tree")
	}
	return check(root, nil)
}
