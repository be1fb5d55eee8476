package parser

import (
	"strconv"

	"github.com/xplshn/rcc/pkg/ast"
	"github.com/xplshn/rcc/pkg/token"
	"github.com/xplshn/rcc/pkg/util"
)

// Parser holds the state for the parsing process
type Parser struct {
	tokens   []token.Token
	pos      int
	current  token.Token
	previous token.Token
}

// NewParser creates a Parser over a token stream terminated by EOF.
func NewParser(tokens []token.Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		tokens = append(tokens, token.Token{Type: token.EOF})
	}
	return &Parser{tokens: tokens, current: tokens[0]}
}

// Parse builds the Program node. The first syntax error stops parsing and
// is returned as a *util.Error.
func (p *Parser) Parse() (root *ast.Node, err error) {
	defer util.Catch(&err)
	tok := p.current
	var items []*ast.Node
	for !p.check(token.EOF) {
		items = append(items, p.parseTopLevel())
	}
	return ast.NewProgram(tok, items), nil
}

// Parser helpers
func (p *Parser) advance() {
	p.previous = p.current
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.current = p.tokens[p.pos]
}

func (p *Parser) peek() token.Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) check(tokType token.Type) bool { return p.current.Type == tokType }

func (p *Parser) match(tokType token.Type) bool {
	if !p.check(tokType) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(tokType token.Type, message string) token.Token {
	if p.check(tokType) {
		p.advance()
		return p.previous
	}
	util.Throw(p.current, "%s Found '%s'.", message, p.current.Lexeme())
	return token.Token{}
}

func isTypeKeyword(t token.Type) bool { return t == token.Int || t == token.Bool }

// --- Declarations ---

func (p *Parser) parseType() *ast.Node {
	tok := p.current
	if !isTypeKeyword(tok.Type) {
		util.Throw(tok, "Expected a type name ('int' or 'bool'). Found '%s'.", tok.Lexeme())
	}
	p.advance()
	return ast.NewType(tok, tok.Type.String())
}

func (p *Parser) parseIdent() *ast.Node {
	tok := p.expect(token.Ident, "Expected an identifier.")
	return ast.NewIdentifier(tok, tok.Value)
}

func (p *Parser) parseTopLevel() *ast.Node {
	tok := p.current
	typ := p.parseType()
	ident := p.parseIdent()

	if !p.match(token.LParen) {
		return p.finishVarDecl(tok, typ, ident)
	}

	args := p.parseFuncArgs()
	p.expect(token.RParen, "Expected ')' after parameter list.")
	if p.match(token.Semi) {
		return ast.NewFuncDecl(tok, typ, ident, args)
	}
	return ast.NewFuncDef(tok, typ, ident, args, p.parseBody())
}

func (p *Parser) finishVarDecl(tok token.Token, typ, ident *ast.Node) *ast.Node {
	var value *ast.Node
	if p.match(token.Eq) {
		value = p.parseExpr()
	}
	p.expect(token.Semi, "Expected ';' after variable declaration.")
	return ast.NewVarDecl(tok, typ, ident, value)
}

func (p *Parser) parseFuncArgs() *ast.Node {
	tok := p.current
	var args []*ast.Node
	if !p.check(token.RParen) {
		for {
			argTok := p.current
			typ := p.parseType()
			args = append(args, ast.NewFuncArg(argTok, typ, p.parseIdent()))
			if !p.match(token.Comma) {
				break
			}
		}
	}
	return ast.NewFuncArgs(tok, args)
}

// --- Statements ---

// parseBody parses either a braced block or a single statement, always
// producing a Statements node.
func (p *Parser) parseBody() *ast.Node {
	tok := p.current
	if !p.match(token.LBrace) {
		return ast.NewStatements(tok, []*ast.Node{p.parseStmt()})
	}
	var stmts []*ast.Node
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		stmts = append(stmts, p.parseStmt())
	}
	p.expect(token.RBrace, "Expected '}' to close block.")
	return ast.NewStatements(tok, stmts)
}

func (p *Parser) parseStmt() *ast.Node {
	tok := p.current
	switch {
	case isTypeKeyword(tok.Type):
		typ := p.parseType()
		return p.finishVarDecl(tok, typ, p.parseIdent())

	case p.match(token.Return):
		value := p.parseExpr()
		p.expect(token.Semi, "Expected ';' after return value.")
		return ast.NewReturnStatement(tok, value)

	case p.match(token.If):
		p.expect(token.LParen, "Expected '(' after 'if'.")
		cond := p.parseExpr()
		p.expect(token.RParen, "Expected ')' after if condition.")
		trueBlock := p.parseBody()
		var elseBlock *ast.Node
		if p.match(token.Else) {
			elseBlock = p.parseBody()
		}
		return ast.NewIfStatement(tok, cond, trueBlock, elseBlock)

	case p.match(token.While):
		p.expect(token.LParen, "Expected '(' after 'while'.")
		cond := p.parseExpr()
		p.expect(token.RParen, "Expected ')' after while condition.")
		return ast.NewWhileStatement(tok, cond, p.parseBody())

	case tok.Type == token.Ident && p.peek().Type == token.Eq:
		ident := p.parseIdent()
		p.advance()
		value := p.parseExpr()
		p.expect(token.Semi, "Expected ';' after assignment.")
		return ast.NewAssignStatement(tok, ident, value)

	case tok.Type == token.LBrace:
		util.Throw(tok, "Nested blocks are not supported; blocks only follow 'if', 'else', 'while' or a function header.")
	}

	expr := p.parseExpr()
	p.expect(token.Semi, "Expected ';' after expression.")
	return ast.NewExpStatement(tok, expr)
}

// --- Expressions ---

func getBinaryOpPrecedence(op token.Type) int {
	switch op {
	case token.Star, token.Slash, token.Rem:
		return 10
	case token.Plus, token.Minus:
		return 9
	case token.Shl, token.Shr:
		return 8
	case token.Lt, token.Gt, token.Lte, token.Gte:
		return 7
	case token.EqEq, token.Neq:
		return 6
	case token.And:
		return 5
	case token.Xor:
		return 4
	case token.Or:
		return 3
	case token.AndAnd:
		return 2
	case token.OrOr:
		return 1
	default:
		return -1
	}
}

func (p *Parser) parseExpr() *ast.Node { return p.parseBinaryExpr(1) }

// parseBinaryExpr is a precedence climber; all binary operators are left
// associative.
func (p *Parser) parseBinaryExpr(minPrec int) *ast.Node {
	left := p.parseUnaryExpr()
	for {
		opTok := p.current
		prec := getBinaryOpPrecedence(opTok.Type)
		if prec < minPrec {
			return left
		}
		p.advance()
		right := p.parseBinaryExpr(prec + 1)
		switch opTok.Type {
		case token.EqEq, token.Neq, token.Lt, token.Gt, token.Lte, token.Gte:
			left = ast.NewComparison(opTok, opTok.Type, left, right)
		case token.AndAnd, token.OrOr:
			left = ast.NewLogic(opTok, opTok.Type, left, right)
		default:
			left = ast.NewBinaryOp(opTok, opTok.Type, left, right)
		}
	}
}

func (p *Parser) parseUnaryExpr() *ast.Node {
	tok := p.current
	if p.match(token.Minus) || p.match(token.Not) {
		return ast.NewUnaryOp(tok, tok.Type, p.parseUnaryExpr())
	}
	return p.parsePrimaryExpr()
}

func (p *Parser) parsePrimaryExpr() *ast.Node {
	tok := p.current
	switch {
	case p.match(token.Number):
		val, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			util.Throw(tok, "Invalid number literal: %s", tok.Value)
		}
		return ast.NewIntConst(tok, val)
	case p.match(token.True):
		return ast.NewBoolConst(tok, true)
	case p.match(token.False):
		return ast.NewBoolConst(tok, false)
	case p.check(token.Ident):
		return ast.NewIdentifierExp(tok, p.parseIdent())
	case p.match(token.LParen):
		expr := p.parseExpr()
		p.expect(token.RParen, "Expected ')' after expression.")
		return ast.NewExpGroup(tok, expr)
	}
	util.Throw(tok, "Expected an expression. Found '%s'.", tok.Lexeme())
	return nil
}
