package vm

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarioFibonacciStreamFirstPrint assembles the streaming-Fibonacci
// program (push 0; push 1; dup; push 2; pick; add; print; jmp 2; halt) and
// checks the first value it emits. The stack grows by one word per
// iteration (dup and push each add one, add removes one), so only the
// first PRINT is asserted here rather than the full infinite sequence.
func TestScenarioFibonacciStreamFirstPrint(t *testing.T) {
	prog, err := Assemble(`
		push 0
		push 1
		dup
		push 2
		pick
		add
		print
		jmp 2
		halt
	`)
	require.Nil(t, err)

	out := new(bytes.Buffer)
	e := NewEngine(prog, Config{StackCap: 64, Natives: DefaultNatives(out), Out: out})

	for i := 0; i < 7; i++ {
		require.Nil(t, e.Step())
	}
	line := strings.SplitN(out.String(), " | ", 2)[0]
	n, convErr := strconv.Atoi(line)
	require.NoError(t, convErr)
	assert.Equal(t, 1, n)
}

func TestScenarioIntegerArithmetic(t *testing.T) {
	prog, err := Assemble(`
		push 69
		push 420
		add
		push 440
		sub
		push 2
		mult
		push 14
		div
		shout
		halt
	`)
	require.Nil(t, err)

	out := new(bytes.Buffer)
	e := NewEngine(prog, Config{StackCap: 16, Natives: DefaultNatives(out), Out: out})
	require.Nil(t, e.Run())
	line := strings.SplitN(out.String(), " | ", 2)[0]
	assert.Equal(t, "7", line)
}

func TestScenarioFloatReinterpretation(t *testing.T) {
	prog, err := Assemble(`
		push 1.5
		push 2.25
		addf
		shout
		halt
	`)
	require.Nil(t, err)

	out := new(bytes.Buffer)
	e := NewEngine(prog, Config{StackCap: 16, Natives: DefaultNatives(out), Out: out})
	require.Nil(t, e.Run())
	fields := strings.Split(strings.TrimSpace(out.String()), " | ")
	require.Len(t, fields, 3)
	f, parseErr := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	require.NoError(t, parseErr)
	assert.InDelta(t, 3.75, f, 1e-9)
}

// TestScenarioMallocWriteRead exercises malloc, a swap-into-position
// ahead of write64, and a read64 round-trip through the same chunk.
func TestScenarioMallocWriteRead(t *testing.T) {
	prog, err := Assemble(`
		push 16
		malloc
		dup
		push 1234
		push 1
		swap
		write64
		read64
		shout
		halt
	`)
	require.Nil(t, err)

	out := new(bytes.Buffer)
	e := NewEngine(prog, Config{StackCap: 16, Natives: DefaultNatives(out), Out: out})
	require.Nil(t, e.Run())
	line := strings.SplitN(out.String(), " | ", 2)[0]
	assert.Equal(t, "1234", line)
}

// TestReadAt64Boundary checks the edge case called out in spec.md §8:
// a READ_64 starting at arena_len-8 succeeds, one byte further in fails.
func TestReadAt64Boundary(t *testing.T) {
	arenaLen := 16
	m := NewMemory(make([]byte, arenaLen), arenaLen)
	_, err := m.Read(int64(arenaLen-8), 8)
	assert.Nil(t, err)
	_, err = m.Read(int64(arenaLen-7), 8)
	assert.Same(t, ErrIllegalMemAccess, err)
}
