package lexer

import (
	"errors"
	"testing"

	"github.com/nalgeon/be"
	"github.com/xplshn/rcc/pkg/token"
	"github.com/xplshn/rcc/pkg/util"
)

func types(toks []token.Token) []token.Type {
	var out []token.Type
	for _, t := range toks {
		out = append(out, t.Type)
	}
	return out
}

func TestTokenize(t *testing.T) {
	src := "int x = 0x1F; // trailing\n/* block\ncomment */ bool y_2 = !true;"
	toks, err := Tokenize([]rune(src), 0)
	be.Err(t, err, nil)
	be.Equal(t, types(toks), []token.Type{
		token.Int, token.Ident, token.Eq, token.Number, token.Semi,
		token.Bool, token.Ident, token.Eq, token.Not, token.True, token.Semi,
		token.EOF,
	})
	be.Equal(t, toks[1].Value, "x")
	be.Equal(t, toks[3].Value, "31")
	be.Equal(t, toks[6].Value, "y_2")

	// bool starts after the block comment on line 3.
	be.Equal(t, toks[5].Line, 3)
	be.Equal(t, toks[5].Column, 12)
	be.Equal(t, toks[5].Len, 4)
}

func TestOperators(t *testing.T) {
	tests := []struct {
		src  string
		want token.Type
	}{
		{"==", token.EqEq}, {"=", token.Eq}, {"!=", token.Neq}, {"!", token.Not},
		{"&&", token.AndAnd}, {"&", token.And}, {"||", token.OrOr}, {"|", token.Or},
		{"<<", token.Shl}, {"<=", token.Lte}, {"<", token.Lt},
		{">>", token.Shr}, {">=", token.Gte}, {">", token.Gt},
		{"^", token.Xor}, {"%", token.Rem}, {"/", token.Slash}, {"*", token.Star},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			toks, err := Tokenize([]rune(tt.src), 0)
			be.Err(t, err, nil)
			be.Equal(t, types(toks), []token.Type{tt.want, token.EOF})
			be.Equal(t, toks[0].Len, len(tt.src))
		})
	}
}

func TestFileIndex(t *testing.T) {
	toks, err := Tokenize([]rune("while"), 2)
	be.Err(t, err, nil)
	be.Equal(t, toks[0].Type, token.While)
	be.Equal(t, toks[0].FileIndex, 2)
	be.Equal(t, toks[1].FileIndex, 2)
}

func TestNumberLimits(t *testing.T) {
	toks, err := Tokenize([]rune("2147483647 007"), 0)
	be.Err(t, err, nil)
	be.Equal(t, toks[0].Value, "2147483647")
	be.Equal(t, toks[1].Value, "7")
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unexpected character", "int x @", "1:7: Unexpected character: '@'"},
		{"unterminated comment", "int\n  /* never closed", "2:3: Unterminated block comment"},
		{"out of range", "x = 2147483648;", "1:5: Integer constant out of range: 2147483648"},
		{"bad suffix", "12ab", "1:1: Invalid number literal: 12ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize([]rune(tt.src), 0)
			be.Err(t, err)
			be.Equal(t, err.Error(), tt.want)

			var ue *util.Error
			be.True(t, errors.As(err, &ue))
		})
	}
}
