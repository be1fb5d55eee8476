// Package semantic resolves names through nested scopes, lays out stack
// storage and rejects invalid programs. Its result is a side table keyed by
// AST node; the tree itself is never modified.
package semantic

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/xplshn/rcc/pkg/ast"
	"github.com/xplshn/rcc/pkg/config"
	"github.com/xplshn/rcc/pkg/symbols"
	"github.com/xplshn/rcc/pkg/token"
	"github.com/xplshn/rcc/pkg/util"
)

// Bindings is everything code generation needs from analysis.
type Bindings struct {
	Global *symbols.Scope
	// Scopes holds the function scope of every FuncDef, kept for dumps.
	Scopes map[*ast.Node]*symbols.Scope
	// Symbols binds VarDecl, FuncArg, AssignStatement and IdentifierExp nodes.
	Symbols map[*ast.Node]*symbols.Symbol
	// Frames is the total local storage in bytes of each FuncDef.
	Frames map[*ast.Node]int
	// Funcs maps a function name to its definition, or to its prototype
	// when no definition was seen.
	Funcs map[string]*ast.Node
	// Globals and Defs list top-level VarDecls and FuncDefs in source order.
	Globals     []*ast.Node
	Defs        []*ast.Node
	Diagnostics []Diagnostic
}

// Dump renders the global scope followed by each function scope.
func (b *Bindings) Dump() string {
	var sb strings.Builder
	sb.WriteString(b.Global.String())
	for _, fn := range b.Defs {
		sb.WriteString(b.Scopes[fn].String())
	}
	return sb.String()
}

func newBindings() *Bindings {
	return &Bindings{
		Scopes:  make(map[*ast.Node]*symbols.Scope),
		Symbols: make(map[*ast.Node]*symbols.Symbol),
		Frames:  make(map[*ast.Node]int),
		Funcs:   make(map[string]*ast.Node),
	}
}

// Symbol returns the symbol bound to n. A missing binding is a defect in the
// caller: the tree was not the one analyzed.
func (b *Bindings) Symbol(n *ast.Node) *symbols.Symbol {
	sym, ok := b.Symbols[n]
	if !ok {
		panic(fmt.Sprintf("semantic: no symbol bound to %s node at %d:%d", n.Type, n.Tok.Line, n.Tok.Column))
	}
	return sym
}

// Frame returns the local storage size of a FuncDef.
func (b *Bindings) Frame(fn *ast.Node) int {
	size, ok := b.Frames[fn]
	if !ok {
		panic(fmt.Sprintf("semantic: no frame recorded for %s", ast.Name(fn)))
	}
	return size
}

// IsDefined reports whether name has a function definition.
func (b *Bindings) IsDefined(name string) bool {
	fn, ok := b.Funcs[name]
	return ok && fn.Type == ast.FuncDef
}

var reservedLabel = regexp.MustCompile(`^loc_[0-9]+$`)

type Analyzer struct {
	cfg    *config.Config
	logger *slog.Logger

	b       *Bindings
	scope   *symbols.Scope
	retType symbols.Type
}

func NewAnalyzer(cfg *config.Config, logger *slog.Logger) *Analyzer {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Analyzer{cfg: cfg, logger: util.OrDiscard(logger)}
}

// Analyze checks the program rooted at root. The first error aborts analysis
// and no bindings are returned. Analyze may be called repeatedly on the same
// tree; every call yields equivalent bindings.
func (a *Analyzer) Analyze(root *ast.Node) (*Bindings, error) {
	if root == nil || root.Type != ast.Program {
		return nil, fmt.Errorf("semantic: analysis must start at a Program node")
	}
	a.b = newBindings()
	a.scope = nil
	defer func() { a.scope = nil }()

	if err := a.visit(root); err != nil {
		return nil, err
	}

	entry := a.cfg.EntryPoint
	if !a.b.IsDefined(entry) {
		if a.cfg.IsFeatureEnabled(config.FeatEntryCheck) {
			return nil, &Error{Kind: ErrMissingEntry, Name: entry, Tok: root.Tok}
		}
		for _, g := range a.b.Globals {
			if g.Data.(ast.VarDeclNode).Value != nil {
				a.warn(config.WarnGlobalInit, g.Tok, "initializer of '%s' is not lowered without an entry function '%s'", ast.Name(g), entry)
			}
		}
	}

	a.logger.Debug("Analysis complete",
		"globals", len(a.b.Global.Symbols()),
		"functions", len(a.b.Funcs),
		"warnings", len(a.b.Diagnostics),
	)
	return a.b, nil
}

func (a *Analyzer) warn(w config.Warning, tok token.Token, format string, args ...interface{}) {
	if !a.cfg.IsWarningEnabled(w) {
		return
	}
	a.b.Diagnostics = append(a.b.Diagnostics, Diagnostic{Warning: w, Tok: tok, Msg: fmt.Sprintf(format, args...)})
}

func (a *Analyzer) visitAll(nodes []*ast.Node) error {
	for _, n := range nodes {
		if err := a.visit(n); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) visit(n *ast.Node) error {
	if n == nil {
		return nil
	}
	switch n.Type {
	case ast.Program:
		a.b.Global = symbols.NewScope("global", a.scope)
		a.scope = a.b.Global
		err := a.visitAll(n.Data.(ast.ProgramNode).Items)
		a.scope = a.scope.Enclosing
		return err

	case ast.VarDecl:
		return a.visitVarDecl(n)

	case ast.FuncDecl:
		return a.declareFunc(n)

	case ast.FuncDef:
		return a.visitFuncDef(n)

	case ast.FuncArgs:
		return a.visitAll(n.Data.(ast.FuncArgsNode).Args)

	case ast.FuncArg:
		d := n.Data.(ast.FuncArgNode)
		sym, err := a.declare(n, d.Ident, d.ArgType)
		if err != nil {
			return err
		}
		sym.IsParam = true
		return nil

	case ast.Statements:
		stmts := n.Data.(ast.StatementsNode).Stmts
		for i, s := range stmts {
			if i > 0 && stmts[i-1].Type == ast.ReturnStatement {
				a.warn(config.WarnUnreachableCode, s.Tok, "unreachable code after return")
			}
			if err := a.visit(s); err != nil {
				return err
			}
		}
		return nil

	case ast.AssignStatement:
		d := n.Data.(ast.AssignStatementNode)
		sym, err := a.resolve(n, d.Ident)
		if err != nil {
			return err
		}
		if err := a.visit(d.Value); err != nil {
			return err
		}
		a.checkType(d.Value, sym.Type, "assignment to '"+sym.Name+"'")
		return nil

	case ast.ReturnStatement:
		d := n.Data.(ast.ReturnStatementNode)
		if err := a.visit(d.Value); err != nil {
			return err
		}
		a.checkType(d.Value, a.retType, "return value")
		return nil

	case ast.IfStatement:
		d := n.Data.(ast.IfStatementNode)
		return a.visitAll([]*ast.Node{d.Cond, d.TrueBlock, d.ElseBlock})

	case ast.WhileStatement:
		d := n.Data.(ast.WhileStatementNode)
		return a.visitAll([]*ast.Node{d.Cond, d.Body})

	case ast.ExpStatement:
		a.warn(config.WarnExtra, n.Tok, "expression result is unused")
		return a.visit(n.Data.(ast.ExpStatementNode).Expr)

	case ast.UnaryOp:
		return a.visit(n.Data.(ast.UnaryOpNode).Right)

	case ast.BinaryOp:
		d := n.Data.(ast.BinaryOpNode)
		return a.visitAll([]*ast.Node{d.Left, d.Right})

	case ast.Comparison:
		d := n.Data.(ast.ComparisonNode)
		return a.visitAll([]*ast.Node{d.Left, d.Right})

	case ast.Logic:
		d := n.Data.(ast.LogicNode)
		return a.visitAll([]*ast.Node{d.Left, d.Right})

	case ast.IdentifierExp:
		_, err := a.resolve(n, n.Data.(ast.IdentifierExpNode).Ident)
		return err

	case ast.ExpGroup:
		return a.visit(n.Data.(ast.ExpGroupNode).Expr)

	case ast.BoolConst, ast.IntConst, ast.Identifier, ast.Type:
		return nil
	}
	panic(fmt.Sprintf("semantic: unhandled node type %s", n.Type))
}

func (a *Analyzer) visitVarDecl(n *ast.Node) error {
	d := n.Data.(ast.VarDeclNode)
	sym, err := a.declare(n, d.Ident, d.VarType)
	if err != nil {
		return err
	}
	if sym.Global {
		a.b.Globals = append(a.b.Globals, n)
	}
	if d.Value == nil {
		return nil
	}
	if err := a.visit(d.Value); err != nil {
		return err
	}
	a.checkType(d.Value, sym.Type, "initializer of '"+sym.Name+"'")
	return nil
}

// declare binds a new variable in the current scope.
func (a *Analyzer) declare(decl, ident, typ *ast.Node) (*symbols.Symbol, error) {
	name := ast.Name(ident)
	if a.scope.Lookup(name, true) != nil {
		return nil, &Error{Kind: ErrDuplicateDeclaration, Name: name, Tok: ident.Tok}
	}
	if a.scope == a.b.Global {
		if _, isFunc := a.b.Funcs[name]; isFunc {
			return nil, &Error{Kind: ErrDuplicateDeclaration, Name: name, Tok: ident.Tok}
		}
	} else if a.scope.Enclosing.Lookup(name, false) != nil {
		a.warn(config.WarnShadow, ident.Tok, "declaration of '%s' shadows a global", name)
	}

	symType, ok := symbols.TypeByName(ast.Name(typ))
	if !ok {
		panic(fmt.Sprintf("semantic: parser produced unknown type '%s'", ast.Name(typ)))
	}
	sym := &symbols.Symbol{Name: name, Type: symType, Decl: decl}
	a.scope.Insert(sym)
	a.b.Symbols[decl] = sym
	return sym, nil
}

// resolve binds a use of ident to the nearest enclosing declaration.
func (a *Analyzer) resolve(use, ident *ast.Node) (*symbols.Symbol, error) {
	name := ast.Name(ident)
	sym := a.scope.Lookup(name, false)
	if sym == nil {
		return nil, &Error{Kind: ErrUndeclaredIdentifier, Name: name, Tok: ident.Tok}
	}
	a.b.Symbols[use] = sym
	return sym, nil
}

// declareFunc records a function name. A prototype may precede or repeat;
// a second definition is a duplicate.
func (a *Analyzer) declareFunc(fn *ast.Node) error {
	var ident *ast.Node
	switch d := fn.Data.(type) {
	case ast.FuncDeclNode:
		ident = d.Ident
	case ast.FuncDefNode:
		ident = d.Ident
	default:
		panic(fmt.Sprintf("semantic: declareFunc on %s", fn.Type))
	}
	name := ast.Name(ident)
	if reservedLabel.MatchString(name) {
		return &Error{Kind: ErrReservedIdentifier, Name: name, Tok: ident.Tok}
	}
	if a.b.Global.Lookup(name, true) != nil {
		return &Error{Kind: ErrDuplicateDeclaration, Name: name, Tok: ident.Tok}
	}
	if prev, ok := a.b.Funcs[name]; ok && prev.Type == ast.FuncDef {
		if fn.Type == ast.FuncDef {
			return &Error{Kind: ErrDuplicateDeclaration, Name: name, Tok: ident.Tok}
		}
		a.warn(config.WarnExtra, ident.Tok, "redundant declaration of '%s' after its definition", name)
		return nil
	}
	a.b.Funcs[name] = fn
	return nil
}

func (a *Analyzer) visitFuncDef(n *ast.Node) error {
	if err := a.declareFunc(n); err != nil {
		return err
	}
	d := n.Data.(ast.FuncDefNode)
	name := ast.Name(d.Ident)
	rtype, _ := symbols.TypeByName(ast.Name(d.RType))

	scope := symbols.NewScope(name, a.scope)
	a.scope, a.retType = scope, rtype
	defer func() { a.scope = scope.Enclosing }()

	if err := a.visit(d.Args); err != nil {
		return err
	}
	if err := a.visit(d.Body); err != nil {
		return err
	}

	a.b.Scopes[n] = scope
	a.b.Frames[n] = scope.StackOffset
	a.b.Defs = append(a.b.Defs, n)
	a.logger.Debug("Function analyzed", "name", name, "frame", scope.StackOffset, "locals", len(scope.Symbols()))
	return nil
}

// exprType infers the type of an already-resolved expression. Values are
// interchangeable at runtime; the result only feeds -Wtype.
func (a *Analyzer) exprType(n *ast.Node) symbols.Type {
	switch n.Type {
	case ast.BoolConst, ast.Comparison, ast.Logic:
		return symbols.Bool
	case ast.UnaryOp:
		if n.Data.(ast.UnaryOpNode).Op == token.Not {
			return symbols.Bool
		}
		return symbols.Int
	case ast.IdentifierExp:
		return a.b.Symbols[n].Type
	case ast.ExpGroup:
		return a.exprType(n.Data.(ast.ExpGroupNode).Expr)
	}
	return symbols.Int
}

func (a *Analyzer) checkType(expr *ast.Node, want symbols.Type, what string) {
	if got := a.exprType(expr); got != want {
		a.warn(config.WarnType, expr.Tok, "%s has type %s, expected %s", what, got, want)
	}
}
