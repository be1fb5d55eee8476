package codegen

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/xplshn/rcc/pkg/ast"
	"github.com/xplshn/rcc/pkg/config"
	"github.com/xplshn/rcc/pkg/semantic"
	"github.com/xplshn/rcc/pkg/symbols"
	"github.com/xplshn/rcc/pkg/token"
	"github.com/xplshn/rcc/pkg/util"
)

type vmBackend struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewVMBackend returns the backend for the register/stack VM.
func NewVMBackend(cfg *config.Config, logger *slog.Logger) Backend {
	return &vmBackend{cfg: cfg, logger: util.OrDiscard(logger)}
}

// vmContext is the state of one compilation unit.
type vmContext struct {
	*Emitter
	b          *semantic.Bindings
	entry      string
	unsigned   bool
	debugRet   bool
	globalInit []*ast.Node
}

func (be *vmBackend) Generate(root *ast.Node, b *semantic.Bindings) (*bytes.Buffer, error) {
	if root == nil || root.Type != ast.Program {
		return nil, fmt.Errorf("codegen: generation must start at a Program node")
	}
	if b == nil {
		return nil, fmt.Errorf("codegen: program has not been analyzed")
	}
	ctx := &vmContext{
		Emitter:  NewEmitter(be.cfg.IndentWidth),
		b:        b,
		entry:    be.cfg.EntryPoint,
		unsigned: be.cfg.IsFeatureEnabled(config.FeatUnsignedOps),
		debugRet: be.cfg.IsFeatureEnabled(config.FeatDebugReturn),
	}
	for _, g := range b.Globals {
		if g.Data.(ast.VarDeclNode).Value != nil {
			ctx.globalInit = append(ctx.globalInit, g)
		}
	}

	ctx.gen(root)
	be.logger.Debug("Generated assembly", "bytes", ctx.Buffer().Len(), "labels", ctx.labels)
	return ctx.Buffer(), nil
}

func (c *vmContext) gen(n *ast.Node) {
	if n == nil {
		return
	}
	switch n.Type {
	case ast.Program:
		c.Emit("jmp", Ref(c.entry))
		for _, item := range n.Data.(ast.ProgramNode).Items {
			c.gen(item)
		}

	case ast.VarDecl:
		sym := c.b.Symbol(n)
		if value := n.Data.(ast.VarDeclNode).Value; value != nil && !sym.Global {
			c.gen(value)
			c.store(sym)
		}

	case ast.FuncDecl:

	case ast.FuncDef:
		c.genFuncDef(n)

	case ast.Statements:
		for _, s := range n.Data.(ast.StatementsNode).Stmts {
			c.gen(s)
		}

	case ast.AssignStatement:
		c.gen(n.Data.(ast.AssignStatementNode).Value)
		c.store(c.b.Symbol(n))

	case ast.ReturnStatement:
		c.gen(n.Data.(ast.ReturnStatementNode).Value)
		c.epilogue()

	case ast.IfStatement:
		d := n.Data.(ast.IfStatementNode)
		elseLabel, endLabel := c.NewLabel(), c.NewLabel()
		c.gen(d.Cond)
		c.Emit("jz", regPrimary, Ref(elseLabel))
		c.gen(d.TrueBlock)
		if d.ElseBlock != nil {
			c.Emit("jmp", Ref(endLabel))
		}
		c.Label(elseLabel)
		if d.ElseBlock != nil {
			c.gen(d.ElseBlock)
			c.Label(endLabel)
		}

	case ast.WhileStatement:
		d := n.Data.(ast.WhileStatementNode)
		startLabel, endLabel := c.NewLabel(), c.NewLabel()
		c.Label(startLabel)
		c.gen(d.Cond)
		c.Emit("jz", regPrimary, Ref(endLabel))
		c.gen(d.Body)
		c.Emit("jmp", Ref(startLabel))
		c.Label(endLabel)

	case ast.ExpStatement:
		c.gen(n.Data.(ast.ExpStatementNode).Expr)

	case ast.UnaryOp:
		c.genUnary(n.Data.(ast.UnaryOpNode))

	case ast.BinaryOp:
		d := n.Data.(ast.BinaryOpNode)
		op, ok := arithmetic[d.Op]
		if !ok {
			panic(fmt.Sprintf("codegen: unknown arithmetic operator %s", d.Op))
		}
		c.operands(d.Left, d.Right)
		c.Emit(op.pick(c.unsigned), regPrimary, regLeft, regPrimary)

	case ast.Comparison:
		d := n.Data.(ast.ComparisonNode)
		op, ok := comparison[d.Op]
		if !ok {
			panic(fmt.Sprintf("codegen: unknown comparison operator %s", d.Op))
		}
		c.operands(d.Left, d.Right)
		c.materialize(func(onTrue string) {
			c.Emit(op.pick(c.unsigned), regLeft, regPrimary, Ref(onTrue))
		})

	case ast.Logic:
		c.genLogic(n.Data.(ast.LogicNode))

	case ast.BoolConst:
		v := int64(0)
		if n.Data.(ast.BoolConstNode).Value {
			v = 1
		}
		c.Emit(loadCons.of(symbols.Bool.Size()), regPrimary, Imm(v))

	case ast.IntConst:
		c.Emit(loadCons.of(symbols.Int.Size()), regPrimary, Imm(n.Data.(ast.IntConstNode).Value))

	case ast.IdentifierExp:
		c.load(c.b.Symbol(n))

	case ast.ExpGroup:
		c.gen(n.Data.(ast.ExpGroupNode).Expr)

	case ast.FuncArgs, ast.FuncArg, ast.Identifier, ast.Type:

	default:
		panic(fmt.Sprintf("codegen: unhandled node type %s", n.Type))
	}
}

func (c *vmContext) genFuncDef(n *ast.Node) {
	d := n.Data.(ast.FuncDefNode)
	name := ast.Name(d.Ident)

	c.Label(name)
	c.Indent()
	for _, r := range savedRegs {
		c.Emit("push", r)
	}
	c.Emit("push", regRA)
	c.Emit("push", regBP)
	c.Emit("mov", regBP, regSP)

	if size := c.b.Frame(n); size > 0 {
		c.loadOffset(regLeft, size)
		c.Emit("sub", regSP, regSP, regLeft)
	}

	if name == c.entry {
		for _, g := range c.globalInit {
			c.gen(g.Data.(ast.VarDeclNode).Value)
			c.store(c.b.Symbol(g))
		}
	}

	c.gen(d.Body)

	c.Emit(loadCons.of(1), regPrimary, Imm(0))
	c.epilogue()
	c.Dedent()
}

// epilogue returns the value in the primary register. The saved registers
// are restored, so the value travels in regReturn.
func (c *vmContext) epilogue() {
	c.Emit("mov", regReturn, regPrimary)
	c.Emit("mov", regSP, regBP)
	c.Emit("pop", regBP)
	c.Emit("pop", regRA)
	for i := len(savedRegs) - 1; i >= 0; i-- {
		c.Emit("pop", savedRegs[i])
	}
	if c.debugRet {
		c.Emit("printi", regReturn, "1")
		c.Emit("halt")
		return
	}
	c.Emit("ret")
}

// operands evaluates left then right, leaving left in regLeft and right in
// the primary register.
func (c *vmContext) operands(left, right *ast.Node) {
	c.gen(left)
	c.Emit("push", regPrimary)
	c.gen(right)
	c.Emit("pop", regLeft)
}

// materialize turns a branch into a 0/1 value in the primary register. branch
// must jump to its label argument when the condition holds.
func (c *vmContext) materialize(branch func(onTrue string)) {
	trueLabel, endLabel := c.NewLabel(), c.NewLabel()
	branch(trueLabel)
	c.Emit(loadCons.of(1), regPrimary, "0")
	c.Emit("jmp", Ref(endLabel))
	c.Label(trueLabel)
	c.Emit(loadCons.of(1), regPrimary, "1")
	c.Label(endLabel)
}

func (c *vmContext) genUnary(d ast.UnaryOpNode) {
	c.gen(d.Right)
	switch d.Op {
	case token.Minus:
		c.Emit(loadCons.of(1), regLeft, "0")
		c.Emit("sub", regPrimary, regLeft, regPrimary)
	case token.Not:
		c.materialize(func(onTrue string) {
			c.Emit("jz", regPrimary, Ref(onTrue))
		})
	default:
		panic(fmt.Sprintf("codegen: unknown unary operator %s", d.Op))
	}
}

// genLogic evaluates both operands with the binary protocol, then tests
// them. Expressions have no side effects, so evaluating both is safe.
func (c *vmContext) genLogic(d ast.LogicNode) {
	c.operands(d.Left, d.Right)
	switch d.Op {
	case token.OrOr:
		c.materialize(func(onTrue string) {
			c.Emit("jnz", regLeft, Ref(onTrue))
			c.Emit("jnz", regPrimary, Ref(onTrue))
		})
	case token.AndAnd:
		falseLabel, endLabel := c.NewLabel(), c.NewLabel()
		c.Emit("jz", regLeft, Ref(falseLabel))
		c.Emit("jz", regPrimary, Ref(falseLabel))
		c.Emit(loadCons.of(1), regPrimary, "1")
		c.Emit("jmp", Ref(endLabel))
		c.Label(falseLabel)
		c.Emit(loadCons.of(1), regPrimary, "0")
		c.Label(endLabel)
	default:
		panic(fmt.Sprintf("codegen: unknown logic operator %s", d.Op))
	}
}

// globalAddr places globals in the data segment from address 0, in
// declaration order.
func globalAddr(sym *symbols.Symbol) string {
	return Imm(int64(sym.Offset - sym.Type.Size()))
}

func (c *vmContext) address(sym *symbols.Symbol) {
	c.loadOffset(regAddr, sym.Offset)
	c.Emit("sub", regAddr, regBP, regAddr)
}

// loadOffset loads a frame size or offset, widening past the 16-bit form.
func (c *vmContext) loadOffset(reg string, v int) {
	size := 2
	if v > maxWordImm {
		size = 4
	}
	c.Emit(loadCons.of(size), reg, Imm(int64(v)))
}

func (c *vmContext) load(sym *symbols.Symbol) {
	if sym.Global {
		c.Emit(loadAbs.of(sym.Type.Size()), regPrimary, globalAddr(sym))
		return
	}
	c.address(sym)
	c.Emit(loadPtr.of(sym.Type.Size()), regPrimary, regAddr)
}

func (c *vmContext) store(sym *symbols.Symbol) {
	if sym.Global {
		c.Emit(storeAbs.of(sym.Type.Size()), globalAddr(sym), regPrimary)
		return
	}
	c.address(sym)
	c.Emit(storePtr.of(sym.Type.Size()), regAddr, regPrimary)
}
