package vm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// operandSize is the width of an inline operand when present: an 8-byte
// native-endian word.
const operandSize = 8

// Encode serializes prog to the Lada binary container format (spec.md
// §6.1): an 8-byte native-endian header holding len(prog.Mem), the raw
// memory bytes, then the code stream as one byte-opcode per instruction
// followed by an 8-byte native-endian operand only when that opcode is
// PUSH, JMP or JIF. Ground truth: original_source/src/lib.rs's `mod
// file`'s dump_prog_to_file, which only appends inst.operand.to_ne_bytes()
// when inst.has_op is set.
func Encode(prog Program) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(8 + len(prog.Mem) + len(prog.Inst)*(1+operandSize))

	var header [8]byte
	binary.NativeEndian.PutUint64(header[:], uint64(len(prog.Mem)))
	buf.Write(header[:])
	buf.Write(prog.Mem)

	for _, inst := range prog.Inst {
		buf.WriteByte(byte(inst.Op))
		if inst.Op.HasOperand() {
			var operand [operandSize]byte
			binary.NativeEndian.PutUint64(operand[:], uint64(inst.Operand))
			buf.Write(operand[:])
		}
	}
	return buf.Bytes()
}

// Decode parses a Lada binary container produced by Encode (or by the
// reference assembler). Every failure is an *ExecErr: ErrIllegalInst for
// an unknown opcode byte, ErrIllegalOperand for a truncated stream or a
// read error alike.
// Ground truth: original_source/src/lib.rs's read_prog_from_file, which
// reads the 8-byte operand only for PUSH/JMP/JIF opcodes.
func Decode(r io.Reader) (Program, *ExecErr) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Program{}, ErrIllegalOperand
	}
	memLen := binary.NativeEndian.Uint64(header[:])

	mem := make([]byte, memLen)
	if _, err := io.ReadFull(r, mem); err != nil {
		return Program{}, ErrIllegalOperand
	}

	rest, err := io.ReadAll(r)
	if err != nil {
		return Program{}, ErrIllegalOperand
	}

	var inst []Instruction
	for i := 0; i < len(rest); {
		op := Opcode(rest[i])
		if _, ok := canonicalMnemonic[op]; !ok {
			return Program{}, ErrIllegalInst
		}
		i++

		if !op.HasOperand() {
			inst = append(inst, Instruction{Op: op})
			continue
		}
		if i+operandSize > len(rest) {
			return Program{}, ErrIllegalOperand
		}
		operand := int64(binary.NativeEndian.Uint64(rest[i : i+operandSize]))
		i += operandSize
		inst = append(inst, Instruction{Op: op, Operand: operand})
	}

	return Program{Mem: mem, Inst: inst}, nil
}

// Disassemble renders prog as assembly text, one bare instruction per
// line, in exactly the form the assembler accepts back in (modulo labels,
// which disassembly never reconstructs — jump targets print as raw
// instruction indices instead, which the assembler also accepts as a
// literal operand). Ground truth: original_source/src/bin/ldis.rs, which
// writes bare `inst.to_string()` lines with no index or header.
func Disassemble(prog Program) string {
	buf := new(bytes.Buffer)
	for _, inst := range prog.Inst {
		fmt.Fprintf(buf, "%s\n", inst)
	}
	return buf.String()
}
