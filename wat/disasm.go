package wat

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wippyai/wat-calc/errors"
	"github.com/wippyai/wat-calc/wasm"
	"github.com/wippyai/wat-calc/wat/internal/opcode"
)

// Instruction is one decoded instruction of a code stream.
type Instruction struct {
	Name   string
	Offset int
	I32    int64
	F32    float32
	Opcode byte
}

// String renders the instruction as an assembler form.
// Non-finite f32 immediates have no text form and render as Go would print them.
func (in Instruction) String() string {
	switch in.Opcode {
	case wasm.OpI32Const:
		return "(" + in.Name + " " + strconv.FormatInt(in.I32, 10) + ")"
	case wasm.OpF32Const:
		return "(" + in.Name + " " + strconv.FormatFloat(float64(in.F32), 'g', -1, 32) + ")"
	}
	return "(" + in.Name + ")"
}

// Disassemble decodes a code stream produced by the assembler, without
// the trailing end opcode.
func Disassemble(code []byte) ([]Instruction, error) {
	r := bytes.NewReader(code)
	var out []Instruction
	for r.Len() > 0 {
		off := len(code) - r.Len()
		op, _ := r.ReadByte()
		name, ok := opcode.Name(op)
		if !ok {
			return out, errors.New(errors.PhaseDecode, errors.KindUnsupported).
				Value(op).
				Detailf("opcode 0x%02X at offset %d", op, off).
				Build()
		}
		in := Instruction{Name: name, Offset: off, Opcode: op}
		switch op {
		case wasm.OpI32Const:
			v, err := wasm.ReadLEB128s64(r)
			if err != nil {
				return out, immError(name, off, err)
			}
			in.I32 = v
		case wasm.OpF32Const:
			v, err := wasm.ReadFloat32(r)
			if err != nil {
				return out, immError(name, off, err)
			}
			in.F32 = v
		}
		out = append(out, in)
	}
	return out, nil
}

func immError(name string, off int, err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return errors.New(errors.PhaseDecode, errors.KindInvalidData).
		Cause(err).
		Detailf("%s immediate at offset %d", name, off).
		Build()
}

// Format renders instructions one form per line.
func Format(instrs []Instruction) string {
	var b strings.Builder
	for _, in := range instrs {
		fmt.Fprintln(&b, in.String())
	}
	return b.String()
}

// Mnemonics returns every supported instruction name in sorted order.
func Mnemonics() []string {
	return opcode.Names()
}
