// Package wat assembles flat instruction text into a WebAssembly module.
//
// The input is a sequence of parenthesized stack instructions with no
// module wrapper:
//
//	(f32.const 2.5) (f32.const 4) (f32.mul)
//
// The output is a complete binary module with one function of type
// () -> (i32|f32), exported as "calc". The result type is inferred from
// the last classifying byte of the instruction stream.
//
// Basic usage:
//
//	bin, err := wat.Compile("(i32.const 2) (i32.const 3) (i32.add)")
//
// An Assembler keeps fixed input, scratch and output regions and exposes
// them the way a host would see an embedded build: InputPtr,
// InputUTF8Cap, OutputPtr, OutputBytesCap and Run.
//
// Supported instructions: unreachable, nop, return, drop, select,
// i32.const, f32.const, i32/f32 comparisons, i32/f32 arithmetic and
// bitwise ops, and the i32/f32 conversions and reinterpretations.
//
// Malformed text stops assembly at the first bad form; the module is
// still produced from the instructions before it. Capacity overflow is
// the only condition Assemble reports as an error.
//
// Not supported: locals, control flow, calls, memory instructions, i64/f64.
package wat
