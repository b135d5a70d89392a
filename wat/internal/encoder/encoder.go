package encoder

import (
	"github.com/wippyai/wat-calc/wasm"
	"github.com/wippyai/wat-calc/wat/internal/opcode"
)

// ExportName is the name the assembled function is exported under.
const ExportName = "calc"

// InferResult classifies the program's result type by scanning code
// backward for the last classifying byte. Immediate bytes are scanned too;
// this is a heuristic, not a type check, and stack balance is not
// validated. An empty or unclassified stream yields i32.
func InferResult(code []byte) wasm.ValType {
	for i := len(code) - 1; i >= 0; i-- {
		switch opcode.Classify(code[i]) {
		case opcode.ClassFloat:
			return wasm.ValF32
		case opcode.ClassInt, opcode.ClassFloatCompare:
			return wasm.ValI32
		}
	}
	return wasm.ValI32
}

// EncodeModule resets out and writes a complete module whose single
// function, exported as calc, runs code. It returns the inferred result type.
func EncodeModule(out *Buffer, code []byte) wasm.ValType {
	out.Reset()
	result := InferResult(code)

	out.WriteBytes(wasm.Header[:])
	encodeTypeSection(out, result)
	encodeFuncSection(out)
	encodeExportSection(out)
	encodeCodeSection(out, code)

	return result
}

func writeSectionHeader(out *Buffer, id byte, contentSize uint32) {
	out.AppendByte(id)
	out.WriteU32(contentSize)
}

// Type section: one func type, () -> (result).
func encodeTypeSection(out *Buffer, result wasm.ValType) {
	const params, results = 0, 1
	sz := U32Size(1) + 1 + U32Size(params) + U32Size(results) + results
	writeSectionHeader(out, wasm.SectionType, sz)
	out.WriteU32(1)
	out.AppendByte(wasm.FuncTypeByte)
	out.WriteU32(params)
	out.WriteU32(results)
	out.AppendByte(byte(result))
}

// Function section: one function of type 0.
func encodeFuncSection(out *Buffer) {
	sz := U32Size(1) + U32Size(0)
	writeSectionHeader(out, wasm.SectionFunction, sz)
	out.WriteU32(1)
	out.WriteU32(0)
}

// Export section: function 0 exported as calc.
func encodeExportSection(out *Buffer) {
	name := uint32(len(ExportName))
	sz := U32Size(1) + U32Size(name) + name + 1 + U32Size(0)
	writeSectionHeader(out, wasm.SectionExport, sz)
	out.WriteU32(1)
	out.WriteString(ExportName)
	out.AppendByte(wasm.KindFunc)
	out.WriteU32(0)
}

// Code section. Sizes are computed inside out: body first, then the
// section length from the encoded width of the body size.
func encodeCodeSection(out *Buffer, code []byte) {
	body := U32Size(0) + uint32(len(code)) + 1
	sz := U32Size(1) + U32Size(body) + body
	writeSectionHeader(out, wasm.SectionCode, sz)
	out.WriteU32(1)
	out.WriteU32(body)
	out.WriteU32(0) // no locals
	out.WriteBytes(code)
	out.AppendByte(wasm.OpEnd)
}
