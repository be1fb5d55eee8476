package codegen

import (
	"fmt"

	"github.com/xplshn/rcc/pkg/token"
)

// Registers of the target machine. r0 is the primary register, r1 holds a
// preserved left operand and r5 computes variable addresses. t0 carries a
// function's return value across the epilogue.
const (
	regPrimary = "r0"
	regLeft    = "r1"
	regAddr    = "r5"
	regReturn  = "t0"
	regSP      = "sp"
	regBP      = "bp"
	regRA      = "ra"
)

// savedRegs are pushed by every prologue in this order and popped in reverse.
var savedRegs = []string{"r0", "r1", "r5"}

// Registers lists the full register namespace of the target.
var Registers = func() []string {
	regs := make([]string, 0, 19)
	for i := 0; i < 6; i++ {
		regs = append(regs, fmt.Sprintf("r%d", i))
	}
	for i := 0; i < 10; i++ {
		regs = append(regs, fmt.Sprintf("t%d", i))
	}
	return append(regs, regSP, regBP, regRA)
}()

// sized picks a mnemonic by operand width in bytes.
type sized struct{ b, w, d string }

func (s sized) of(size int) string {
	switch size {
	case 1:
		return s.b
	case 2:
		return s.w
	case 4:
		return s.d
	}
	panic(fmt.Sprintf("codegen: no %d-byte form of %s", size, s.d))
}

// maxWordImm is the largest immediate lconsw can load.
const maxWordImm = 0xFFFF

var (
	loadPtr  = sized{"loadb_p", "loadw_p", "load_p"}
	storePtr = sized{"storb_p", "storw_p", "stor_p"}
	loadAbs  = sized{"loadb", "loadw", "load"}
	storeAbs = sized{"storb", "storw", "stor"}
	loadCons = sized{"lconsb", "lconsw", "lcons"}
)

// signedPair holds the unsigned and signed form of an instruction.
type signedPair struct{ unsigned, signed string }

func (p signedPair) pick(unsigned bool) string {
	if unsigned {
		return p.unsigned
	}
	return p.signed
}

var arithmetic = map[token.Type]signedPair{
	token.Plus:  {"add", "add"},
	token.Minus: {"sub", "sub"},
	token.Star:  {"mul", "imul"},
	token.Slash: {"div", "idiv"},
	token.Shl:   {"shl", "shl"},
	token.Shr:   {"shr", "ishr"},
	token.Rem:   {"mod", "imod"},
	token.And:   {"and", "and"},
	token.Or:    {"or", "or"},
	token.Xor:   {"xor", "xor"},
}

var comparison = map[token.Type]signedPair{
	token.EqEq: {"je", "je"},
	token.Neq:  {"jne", "jne"},
	token.Gt:   {"ja", "jg"},
	token.Gte:  {"jae", "jge"},
	token.Lt:   {"jb", "jl"},
	token.Lte:  {"jbe", "jle"},
}
