package token

import "fmt"

type Type int

const (
	EOF Type = iota
	Ident
	Number
	Int
	Bool
	True
	False
	If
	Else
	While
	Return
	LParen
	RParen
	LBrace
	RBrace
	Semi
	Comma
	Eq
	Plus
	Minus
	Star
	Slash
	Rem
	And
	Or
	Xor
	Shl
	Shr
	EqEq
	Neq
	Lt
	Gt
	Gte
	Lte
	AndAnd
	OrOr
	Not
)

var KeywordMap = map[string]Type{
	"int":    Int,
	"bool":   Bool,
	"true":   True,
	"false":  False,
	"if":     If,
	"else":   Else,
	"while":  While,
	"return": Return,
}

var punctuation = map[Type]string{
	EOF: "end of file", LParen: "(", RParen: ")", LBrace: "{", RBrace: "}",
	Semi: ";", Comma: ",", Eq: "=", Plus: "+", Minus: "-", Star: "*",
	Slash: "/", Rem: "%", And: "&", Or: "|", Xor: "^", Shl: "<<", Shr: ">>",
	EqEq: "==", Neq: "!=", Lt: "<", Gt: ">", Gte: ">=", Lte: "<=",
	AndAnd: "&&", OrOr: "||", Not: "!",
}

// Reverse mapping from Type to the keyword string
var TypeStrings = make(map[Type]string)

func init() {
	for str, typ := range KeywordMap {
		TypeStrings[typ] = str
	}
	for typ, str := range punctuation {
		TypeStrings[typ] = str
	}
}

func (t Type) String() string {
	switch t {
	case Ident:
		return "identifier"
	case Number:
		return "number"
	}
	if s, ok := TypeStrings[t]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(t))
}

type Token struct {
	Type      Type
	Value     string
	FileIndex int
	Line      int
	Column    int
	Len       int
}

// Lexeme is the source spelling of the token, used in diagnostics.
func (t Token) Lexeme() string {
	if t.Value != "" {
		return t.Value
	}
	return t.Type.String()
}
