// Package wasm provides WebAssembly binary format primitives and decoding.
//
// The package carries the constants, LEB128 helpers and float helpers used
// by the assembler's encoder, and a decoder for the single-function module
// shape the assembler produces.
//
// # Parsing
//
//	module, err := wasm.ParseModule(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(module.Result()) // i32 or f32
//
// ParseModule is strict about sizes: every section must consume exactly the
// number of bytes its header declares, and every function body must consume
// exactly its declared body size. Sections other than type, function, export
// and code are recorded in Module.Sections and skipped.
//
// # LEB128 Encoding
//
//	wasm.EncodeLEB128u(624485)    // []byte{0xE5, 0x8E, 0x26}
//	wasm.EncodeLEB128s64(-123456) // []byte{0xC0, 0xBB, 0x78}
//	wasm.SizeLEB128u(128)         // 2
package wasm
