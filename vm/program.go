package vm

// Program is the immutable container produced by the assembler or the
// binary decoder and consumed by the execution engine: a static memory
// image plus an ordered instruction sequence. Ported from
// original_source/src/lib.rs's `Program { inst, mem }`.
type Program struct {
	// Mem is the static data image assembled from @-prefixed declarations.
	Mem []byte
	// Inst is the code.
	Inst []Instruction
}
