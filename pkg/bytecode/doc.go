// Package bytecode implements the Lunet compiler and virtual machine.
//
// The compiler is a single forward pass over the token stream: there is
// no AST. Each statement is translated directly into instructions as
// its tokens arrive, using one token of lookahead to tell assignment
// from a call. Literals are interned into a deduplicated constant pool;
// local variables are an ordered name list whose position is the
// register index.
//
// Instructions are byte-encoded: an Opcode byte followed by a fixed
// number of operand bytes (registers and constant indices are one byte,
// integer immediates are a big-endian int16). A compiled program is a
// Chunk: the code section plus the constant pool. Chunks can be
// disassembled (disasm.go), serialized to the LNBC binary format
// (chunk.go) and to CBOR (wire.go).
//
// The virtual machine (ExeState) executes a Chunk top to bottom over a
// register stack that grows on demand, a global name table, and a
// closed set of built-in functions dispatched by tag. Execution is
// strictly sequential; the instruction set for this subset has no
// jumps.
//
// Example:
//
//	chunk, err := bytecode.Compile(`local a = 10  print(a)`)
//	if err != nil {
//		...
//	}
//	state := bytecode.NewExeState()
//	err = state.Execute(chunk)
package bytecode
