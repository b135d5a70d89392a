package engine

import (
	"strconv"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wat-calc/wasm"
)

// Value is the result of a calc call as raw wazero bits plus its type.
type Value struct {
	Bits uint64
	Type wasm.ValType
}

// Int32 interprets the value as i32.
func (v Value) Int32() int32 {
	return api.DecodeI32(v.Bits)
}

// Float32 interprets the value as f32.
func (v Value) Float32() float32 {
	return api.DecodeF32(v.Bits)
}

// Interface returns int32 or float32 according to Type.
func (v Value) Interface() any {
	if v.Type == wasm.ValF32 {
		return v.Float32()
	}
	return v.Int32()
}

func (v Value) String() string {
	if v.Type == wasm.ValF32 {
		return strconv.FormatFloat(float64(v.Float32()), 'g', -1, 32)
	}
	return strconv.FormatInt(int64(v.Int32()), 10)
}

// WIT returns the component-model type of the value: s32 or f32.
func (v Value) WIT() wit.Type {
	if v.Type == wasm.ValF32 {
		return wit.F32{}
	}
	return wit.S32{}
}
