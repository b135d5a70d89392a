// Package watcalc provides a minimal WebAssembly text-to-binary assembler.
//
// The assembler accepts a flat sequence of parenthesized stack instructions
// and produces a complete core module exporting a single function, calc,
// that takes no parameters and returns one i32 or f32.
//
// # Architecture Overview
//
//	watcalc/            Root package with the linear Memory model
//	├── wat/            Assembler: lexer, instruction table, parser, encoder
//	├── wasm/           Binary primitives and a module decoder
//	├── engine/         wazero-backed evaluation of assembled modules
//	├── config/         TOML configuration and logger construction
//	├── errors/         Structured error types
//	└── cmd/watcalc/    Command line tool and interactive REPL
//
// # Quick Start
//
//	asm := wat.New()
//	res, err := asm.Assemble([]byte("(i32.const 2) (i32.const 3) (i32.add)"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	eng, err := engine.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close(ctx)
//
//	v, err := eng.Eval(ctx, res.Binary)
//	fmt.Println(v) // 5
//
// # Host Calling Convention
//
// An Assembler reproduces the fixed-buffer host ABI: the host writes source
// text at InputPtr (at most InputUTF8Cap bytes), calls Run with the number of
// bytes written and reads the returned number of bytes from OutputPtr.
//
// # Thread Safety
//
// An Assembler owns its buffers and supports one in-flight run at a time.
// Use one Assembler per goroutine. Engine is safe for concurrent use.
package watcalc
