package vm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	prog := Program{
		Mem: []byte("hello"),
		Inst: []Instruction{
			{Op: Push, Operand: 42},
			{Op: Dup},
			{Op: Add},
			{Op: Jmp, Operand: 0},
			{Op: Halt},
		},
	}

	encoded := Encode(prog)
	decoded, err := Decode(bytes.NewReader(encoded))
	require.Nil(t, err)
	assert.Equal(t, prog.Mem, decoded.Mem)
	assert.Equal(t, prog.Inst, decoded.Inst)
}

func TestDecodeRejectsTruncatedStream(t *testing.T) {
	prog := Program{Inst: []Instruction{{Op: Push, Operand: 1}}}
	encoded := Encode(prog)
	_, err := Decode(bytes.NewReader(encoded[:len(encoded)-1]))
	assert.NotNil(t, err)
}

func TestDisassembleRendersMnemonics(t *testing.T) {
	prog := Program{Inst: []Instruction{
		{Op: Push, Operand: 7},
		{Op: Halt},
	}}
	text := Disassemble(prog)
	assert.Contains(t, text, "push 7")
	assert.Contains(t, text, "halt")
}

// TestDisassembleRoundTripsThroughAssemble checks that Disassemble's
// output is bare reassemblable text (no index prefix or header line), so
// it can be fed straight back into Assemble.
func TestDisassembleRoundTripsThroughAssemble(t *testing.T) {
	prog := Program{Inst: []Instruction{
		{Op: Push, Operand: 2},
		{Op: Push, Operand: 3},
		{Op: Add},
		{Op: Halt},
	}}
	text := Disassemble(prog)
	reassembled, err := Assemble(text)
	require.Nil(t, err)
	assert.Equal(t, prog.Inst, reassembled.Inst)
}
