package vm

import (
	"fmt"
	"io"
	"time"
)

// Native is a host-provided callback invoked by index via the NATIVE
// opcode (spec.md §4.4). Ported from original_source/src/linux.rs's
// `type Native = fn(&mut Lada) -> Result<(), ExecErr>`.
type Native func(e *Engine) *ExecErr

// DefaultNatives returns the native table used by `lvm` and by the
// round-trip tests: dump-stack, print-string and sleep-millis, grounded on
// linux.rs's two-entry NATIVES table plus the timer device GVM exposes
// (vm/devices.go), collapsed to a single blocking call since the spec's
// Non-goals exclude a scheduler.
//
// Index 0: dumpStack    — prints the full value stack to out.
// Index 1: printString  — pops (addr, len), prints arena[addr:addr+len) as UTF-8.
// Index 2: sleepMillis  — pops a millisecond count and blocks the caller.
func DefaultNatives(out io.Writer) []Native {
	return []Native{
		func(e *Engine) *ExecErr { return dumpStack(e, out) },
		func(e *Engine) *ExecErr { return printString(e, out) },
		sleepMillis,
	}
}

func dumpStack(e *Engine, out io.Writer) *ExecErr {
	fmt.Fprintln(out, e.StackSlice())
	return nil
}

func printString(e *Engine, out io.Writer) *ExecErr {
	if e.stackSize < 2 {
		return ErrStackUnderflow
	}
	length := e.stack[e.stackSize-1]
	addr := e.stack[e.stackSize-2]

	region, off, err := e.mem.region(addr, length)
	if err != nil {
		return err
	}
	e.stackSize -= 2
	fmt.Fprint(out, string(region[off:off+length]))
	return nil
}

func sleepMillis(e *Engine) *ExecErr {
	if e.stackSize < 1 {
		return ErrStackUnderflow
	}
	ms := e.stack[e.stackSize-1]
	if ms < 0 {
		return ErrNativeError
	}
	e.stackSize--
	time.Sleep(time.Duration(ms) * time.Millisecond)
	return nil
}
