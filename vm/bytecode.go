// Package vm implements the Lada instruction set architecture: opcode
// encoding, the dual stack/arena memory model, the two-pass assembler, the
// binary container codec, and the fetch/decode/dispatch execution engine.
package vm

import "fmt"

// Opcode identifies one Lada instruction. The enumeration must fit in 8
// bits: it is the first byte of every encoded instruction (see codec.go).
type Opcode byte

const (
	Nop Opcode = iota
	Halt

	Push
	Pop
	Dup
	Swap
	Pick
	Shove
	Empty
	IfEmpty

	Add
	Sub
	Mult
	Div

	Addf
	Subf
	Multf
	Divf

	Shl
	Shr
	And
	Or
	Xor
	Not

	Jmp
	Jif
	Ret

	Eq
	Lt
	Gt
	Ltf
	Gtf
	Neg

	Ftoi
	Itof
	Floor
	Ceil

	Print
	Shout
	Dump

	Read8
	Read16
	Read32
	Read64
	Write8
	Write16
	Write32
	Write64

	Native
	Malloc
	Free
)

// HasOperand reports whether op carries an inline immediate operand. Only
// PUSH, JMP and JIF do; every other opcode's operand is always zero. This
// is the sole source of truth for the "operand-bearing opcode" contract in
// place of a separately stored has_operand flag.
func (op Opcode) HasOperand() bool {
	return op == Push || op == Jmp || op == Jif
}

// mnemonics maps the canonical and alias spellings recognized by the
// assembler to their opcode. Used only for parsing; disassembly goes
// through canonicalMnemonic below.
var mnemonics = map[string]Opcode{
	"nop":  Nop,
	"halt": Halt,

	"push":  Push,
	"pop":   Pop,
	"dup":   Dup,
	"swap":  Swap,
	"pick":  Pick,
	"shove": Shove,

	"empty":   Empty,
	"ifempty": IfEmpty,

	"add": Add, "+": Add,
	"sub": Sub, "-": Sub,
	"mult": Mult, "*": Mult,
	"div": Div, "/": Div,

	"addf": Addf, "+f": Addf,
	"subf": Subf, "-f": Subf,
	"multf": Multf, "*f": Multf,
	"divf": Divf, "/f": Divf,

	"shl": Shl, "<<": Shl,
	"shr": Shr, ">>": Shr,
	"and": And, "&": And,
	"or": Or, "|": Or,
	"xor": Xor, "^": Xor,
	"not": Not, "!": Not,

	"jmp":    Jmp,
	"jmpif":  Jif,
	"jif":    Jif,
	"ret":    Ret,
	"eq":     Eq,
	"neg":    Neg,
	"lt":     Lt,
	"gt":     Gt,
	"ltf":    Ltf,
	"gtf":    Gtf,
	"print":  Print,
	".":      Print,
	"shout":  Shout,
	"dump":   Dump,
	"ftoi":   Ftoi,
	"itof":   Itof,
	"floor":  Floor,
	"ceil":   Ceil,
	"read8":  Read8,
	"read16": Read16,
	"read32": Read32,
	"read64": Read64,

	"write8":  Write8,
	"write16": Write16,
	"write32": Write32,
	"write64": Write64,

	"native": Native,
	"malloc": Malloc,
	"free":   Free,
}

// canonicalMnemonic maps each opcode back to the single spelling used by
// the disassembler; aliases like "+" or "jmpif" only ever appear on the
// input side.
var canonicalMnemonic = map[Opcode]string{
	Nop: "nop", Halt: "halt",
	Push: "push", Pop: "pop", Dup: "dup", Swap: "swap", Pick: "pick", Shove: "shove",
	Empty: "empty", IfEmpty: "ifempty",
	Add: "add", Sub: "sub", Mult: "mult", Div: "div",
	Addf: "addf", Subf: "subf", Multf: "multf", Divf: "divf",
	Shl: "shl", Shr: "shr", And: "and", Or: "or", Xor: "xor", Not: "not",
	Jmp: "jmp", Jif: "jif", Ret: "ret",
	Eq: "eq", Lt: "lt", Gt: "gt", Ltf: "ltf", Gtf: "gtf", Neg: "neg",
	Ftoi: "ftoi", Itof: "itof", Floor: "floor", Ceil: "ceil",
	Print: "print", Shout: "shout", Dump: "dump",
	Read8: "read8", Read16: "read16", Read32: "read32", Read64: "read64",
	Write8: "write8", Write16: "write16", Write32: "write32", Write64: "write64",
	Native: "native", Malloc: "malloc", Free: "free",
}

// String renders the canonical mnemonic for op, or a placeholder for an
// opcode value outside the enumeration (e.g. one decoded from a corrupt
// binary file).
func (op Opcode) String() string {
	if s, ok := canonicalMnemonic[op]; ok {
		return s
	}
	return "?unknown?"
}

// Instruction is the (opcode, operand) pair described by spec.md §3: a
// sum-type-shaped encoding where has_operand is derived from the opcode
// rather than stored, per Design Note §9's recommendation.
type Instruction struct {
	Op      Opcode
	Operand int64
}

// String renders an instruction the way the disassembler and debug tracer
// print it: "mnemonic" or "mnemonic operand".
func (i Instruction) String() string {
	if !i.Op.HasOperand() {
		return i.Op.String()
	}
	return fmt.Sprintf("%s %d", i.Op, i.Operand)
}
