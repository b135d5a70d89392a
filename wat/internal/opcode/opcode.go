// Package opcode holds the closed instruction table of the assembler.
package opcode

import (
	"sort"

	"github.com/wippyai/wat-calc/wasm"
)

// ImmKind is the kind of immediate that follows an opcode.
type ImmKind int

const (
	ImmNone ImmKind = iota
	ImmI32          // i32.const: signed LEB128 of the literal
	ImmF32          // f32.const: 4 bytes little-endian IEEE-754
)

// Info describes one mnemonic of the table.
type Info struct {
	Opcode  byte
	ImmType ImmKind
}

// Lookup matches name exactly: same length, same bytes, case-sensitive.
func Lookup(name string) (Info, bool) {
	info, ok := table[name]
	return info, ok
}

// LookupBytes is Lookup for a span of source text.
func LookupBytes(name []byte) (Info, bool) {
	info, ok := table[string(name)]
	return info, ok
}

// Name returns the mnemonic for an opcode byte.
func Name(op byte) (string, bool) {
	name, ok := names[op]
	return name, ok
}

// Names returns every mnemonic in sorted order.
func Names() []string {
	out := make([]string, 0, len(table))
	for name := range table {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

var table = map[string]Info{
	// Control and parametric
	"unreachable": {wasm.OpUnreachable, ImmNone},
	"nop":         {wasm.OpNop, ImmNone},
	"return":      {wasm.OpReturn, ImmNone},
	"drop":        {wasm.OpDrop, ImmNone},
	"select":      {wasm.OpSelect, ImmNone},

	// Constants
	"i32.const": {wasm.OpI32Const, ImmI32},
	"f32.const": {wasm.OpF32Const, ImmF32},

	// i32 comparison
	"i32.eqz":  {wasm.OpI32Eqz, ImmNone},
	"i32.eq":   {wasm.OpI32Eq, ImmNone},
	"i32.ne":   {wasm.OpI32Ne, ImmNone},
	"i32.lt_s": {wasm.OpI32LtS, ImmNone},
	"i32.lt_u": {wasm.OpI32LtU, ImmNone},
	"i32.gt_s": {wasm.OpI32GtS, ImmNone},
	"i32.gt_u": {wasm.OpI32GtU, ImmNone},
	"i32.le_s": {wasm.OpI32LeS, ImmNone},
	"i32.le_u": {wasm.OpI32LeU, ImmNone},
	"i32.ge_s": {wasm.OpI32GeS, ImmNone},
	"i32.ge_u": {wasm.OpI32GeU, ImmNone},

	// f32 comparison
	"f32.eq": {wasm.OpF32Eq, ImmNone},
	"f32.ne": {wasm.OpF32Ne, ImmNone},
	"f32.lt": {wasm.OpF32Lt, ImmNone},
	"f32.gt": {wasm.OpF32Gt, ImmNone},
	"f32.le": {wasm.OpF32Le, ImmNone},
	"f32.ge": {wasm.OpF32Ge, ImmNone},

	// i32 unary
	"i32.clz":    {wasm.OpI32Clz, ImmNone},
	"i32.ctz":    {wasm.OpI32Ctz, ImmNone},
	"i32.popcnt": {wasm.OpI32Popcnt, ImmNone},

	// i32 binary
	"i32.add":   {wasm.OpI32Add, ImmNone},
	"i32.sub":   {wasm.OpI32Sub, ImmNone},
	"i32.mul":   {wasm.OpI32Mul, ImmNone},
	"i32.div_s": {wasm.OpI32DivS, ImmNone},
	"i32.div_u": {wasm.OpI32DivU, ImmNone},
	"i32.rem_s": {wasm.OpI32RemS, ImmNone},
	"i32.rem_u": {wasm.OpI32RemU, ImmNone},
	"i32.and":   {wasm.OpI32And, ImmNone},
	"i32.or":    {wasm.OpI32Or, ImmNone},
	"i32.xor":   {wasm.OpI32Xor, ImmNone},
	"i32.shl":   {wasm.OpI32Shl, ImmNone},
	"i32.shr_s": {wasm.OpI32ShrS, ImmNone},
	"i32.shr_u": {wasm.OpI32ShrU, ImmNone},
	"i32.rotl":  {wasm.OpI32Rotl, ImmNone},
	"i32.rotr":  {wasm.OpI32Rotr, ImmNone},

	// f32 unary
	"f32.abs":     {wasm.OpF32Abs, ImmNone},
	"f32.neg":     {wasm.OpF32Neg, ImmNone},
	"f32.ceil":    {wasm.OpF32Ceil, ImmNone},
	"f32.floor":   {wasm.OpF32Floor, ImmNone},
	"f32.trunc":   {wasm.OpF32Trunc, ImmNone},
	"f32.nearest": {wasm.OpF32Nearest, ImmNone},
	"f32.sqrt":    {wasm.OpF32Sqrt, ImmNone},

	// f32 binary
	"f32.add":      {wasm.OpF32Add, ImmNone},
	"f32.sub":      {wasm.OpF32Sub, ImmNone},
	"f32.mul":      {wasm.OpF32Mul, ImmNone},
	"f32.div":      {wasm.OpF32Div, ImmNone},
	"f32.min":      {wasm.OpF32Min, ImmNone},
	"f32.max":      {wasm.OpF32Max, ImmNone},
	"f32.copysign": {wasm.OpF32Copysign, ImmNone},

	// Conversions
	"i32.trunc_f32_s":     {wasm.OpI32TruncF32S, ImmNone},
	"i32.trunc_f32_u":     {wasm.OpI32TruncF32U, ImmNone},
	"f32.convert_i32_s":   {wasm.OpF32ConvertI32S, ImmNone},
	"f32.convert_i32_u":   {wasm.OpF32ConvertI32U, ImmNone},
	"i32.reinterpret_f32": {wasm.OpI32ReinterpretF32, ImmNone},
	"f32.reinterpret_i32": {wasm.OpF32ReinterpretI32, ImmNone},
}

var names = func() map[byte]string {
	m := make(map[byte]string, len(table))
	for name, info := range table {
		m[info.Opcode] = name
	}
	return m
}()

// Class is the result-type classification of an opcode byte.
type Class int

const (
	ClassNone         Class = iota
	ClassInt                // produces i32
	ClassFloat              // produces f32
	ClassFloatCompare       // consumes f32, produces i32
)

// Classify reports what a byte would produce if it were an opcode.
// Bytes that are not classifying opcodes, including control and
// parametric instructions, yield ClassNone.
func Classify(b byte) Class {
	switch {
	case b == wasm.OpF32Const,
		b >= wasm.OpF32Abs && b <= wasm.OpF32Copysign,
		b == wasm.OpF32ConvertI32S, b == wasm.OpF32ConvertI32U,
		b == wasm.OpF32ReinterpretI32:
		return ClassFloat
	case b >= wasm.OpF32Eq && b <= wasm.OpF32Ge:
		return ClassFloatCompare
	case b == wasm.OpI32Const,
		b >= wasm.OpI32Eqz && b <= wasm.OpI32GeU,
		b >= wasm.OpI32Clz && b <= wasm.OpI32Rotr,
		b == wasm.OpI32TruncF32S, b == wasm.OpI32TruncF32U,
		b == wasm.OpI32ReinterpretF32:
		return ClassInt
	}
	return ClassNone
}
