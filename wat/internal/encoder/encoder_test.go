package encoder

import (
	"bytes"
	"math"
	"testing"

	"github.com/wippyai/wat-calc/wasm"
)

func TestBufferAppendByte(t *testing.T) {
	b := NewBuffer(4)
	b.AppendByte(0x42)
	if !bytes.Equal(b.Bytes(), []byte{0x42}) {
		t.Errorf("AppendByte failed: got %v", b.Bytes())
	}
	if b.Overflowed() {
		t.Error("unexpected overflow")
	}
}

func TestBufferCapacity(t *testing.T) {
	b := NewBuffer(3)
	b.WriteBytes([]byte{1, 2, 3, 4, 5})
	if b.Len() != 3 {
		t.Errorf("Len = %d, want 3", b.Len())
	}
	if !b.Overflowed() {
		t.Error("expected overflow")
	}
	if !bytes.Equal(b.Bytes(), []byte{1, 2, 3}) {
		t.Errorf("Bytes = %v", b.Bytes())
	}

	b.Reset()
	if b.Len() != 0 || b.Overflowed() {
		t.Errorf("Reset left len=%d overflowed=%v", b.Len(), b.Overflowed())
	}
}

func TestBufferZeroCapacity(t *testing.T) {
	b := NewBuffer(0)
	b.AppendByte(1)
	if b.Len() != 0 || !b.Overflowed() {
		t.Errorf("len=%d overflowed=%v", b.Len(), b.Overflowed())
	}
}

func TestBufferMarkRewind(t *testing.T) {
	b := NewBuffer(4)
	b.AppendByte(0xAA)
	m := b.Mark()
	b.WriteBytes([]byte{1, 2, 3, 4})
	if !b.Overflowed() {
		t.Fatal("expected overflow")
	}
	b.Rewind(m)
	if !bytes.Equal(b.Bytes(), []byte{0xAA}) || b.Overflowed() {
		t.Errorf("after rewind: %v overflowed=%v", b.Bytes(), b.Overflowed())
	}
}

func TestBufferOver(t *testing.T) {
	region := make([]byte, 8)
	b := Over(region[2:5])
	b.WriteBytes([]byte{7, 8, 9, 10})
	if !bytes.Equal(region, []byte{0, 0, 7, 8, 9, 0, 0, 0}) {
		t.Errorf("region = %v", region)
	}
}

func TestBufferWriteU32(t *testing.T) {
	tests := []struct {
		want []byte
		val  uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7F}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xFF, 0x01}, 255},
		{[]byte{0xFF, 0x7F}, 16383},
		{[]byte{0x80, 0x80, 0x01}, 16384},
		{[]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		b := NewBuffer(8)
		b.WriteU32(tt.val)
		if !bytes.Equal(b.Bytes(), tt.want) {
			t.Errorf("WriteU32(%d) = %v, want %v", tt.val, b.Bytes(), tt.want)
		}
		if got := U32Size(tt.val); int(got) != len(tt.want) || int(got) != wasm.SizeLEB128u(tt.val) {
			t.Errorf("U32Size(%d) = %d, want %d", tt.val, got, len(tt.want))
		}
	}
}

func TestBufferWriteI64(t *testing.T) {
	tests := []struct {
		want []byte
		val  int64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7F}, -1},
		{[]byte{0x3F}, 63},
		{[]byte{0xC0, 0x00}, 64},
		{[]byte{0x40}, -64},
		{[]byte{0xBF, 0x7F}, -65},
		{[]byte{0xE5, 0x8E, 0x26}, 624485},
		{[]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x07}, math.MaxInt32},
		{[]byte{0x80, 0x80, 0x80, 0x80, 0x78}, math.MinInt32},
	}

	for _, tt := range tests {
		b := NewBuffer(16)
		b.WriteI64(tt.val)
		if !bytes.Equal(b.Bytes(), tt.want) {
			t.Errorf("WriteI64(%d) = %x, want %x", tt.val, b.Bytes(), tt.want)
		}
		if ref := wasm.EncodeLEB128s64(tt.val); !bytes.Equal(b.Bytes(), ref) {
			t.Errorf("WriteI64(%d) = %x, wasm encoder gives %x", tt.val, b.Bytes(), ref)
		}
	}
}

func TestBufferWriteF32(t *testing.T) {
	tests := []struct {
		want []byte
		val  float32
	}{
		{[]byte{0x00, 0x00, 0x00, 0x00}, 0},
		{[]byte{0x00, 0x00, 0x80, 0x3F}, 1},
		{[]byte{0x00, 0x00, 0x20, 0x40}, 2.5},
		{[]byte{0x00, 0x00, 0x80, 0xBF}, -1},
	}

	for _, tt := range tests {
		b := NewBuffer(4)
		b.WriteF32(tt.val)
		if !bytes.Equal(b.Bytes(), tt.want) {
			t.Errorf("WriteF32(%v) = %x, want %x", tt.val, b.Bytes(), tt.want)
		}
		if ref := wasm.EncodeFloat32(tt.val); !bytes.Equal(b.Bytes(), ref) {
			t.Errorf("WriteF32(%v) = %x, wasm encoder gives %x", tt.val, b.Bytes(), ref)
		}
	}
}

func TestBufferWriteString(t *testing.T) {
	b := NewBuffer(8)
	b.WriteString("calc")
	if !bytes.Equal(b.Bytes(), []byte{0x04, 'c', 'a', 'l', 'c'}) {
		t.Errorf("WriteString = %v", b.Bytes())
	}
}

func TestInferResult(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want wasm.ValType
	}{
		{"empty", nil, wasm.ValI32},
		{"i32.const", []byte{wasm.OpI32Const, 0x05}, wasm.ValI32},
		{"f32.const", []byte{wasm.OpF32Const, 0, 0, 0x80, 0x3F}, wasm.ValF32},
		{"f32.add last", []byte{wasm.OpI32Const, 0x01, wasm.OpF32Add}, wasm.ValF32},
		{"f32 compare", []byte{wasm.OpF32Const, 0, 0, 0, 0, wasm.OpF32Const, 0, 0, 0, 0, wasm.OpF32Lt}, wasm.ValI32},
		{"convert", []byte{wasm.OpI32Const, 0x02, wasm.OpF32ConvertI32S}, wasm.ValF32},
		{"trunc", []byte{wasm.OpF32Const, 0, 0, 0x20, 0x40, wasm.OpI32TruncF32S}, wasm.ValI32},
		{"trailing nop ignored", []byte{wasm.OpF32Const, 0, 0, 0, 0, wasm.OpNop, wasm.OpDrop}, wasm.ValF32},
		// 0x8C inside the LEB128 immediate reads as f32.neg.
		{"immediate bytes scanned", []byte{wasm.OpI32Const, 0x8C, 0x01}, wasm.ValF32},
		{"only unclassified", []byte{wasm.OpNop, wasm.OpNop}, wasm.ValI32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferResult(tt.code); got != tt.want {
				t.Errorf("InferResult(%x) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestEncodeModule_Empty(t *testing.T) {
	out := NewBuffer(128)
	rt := EncodeModule(out, nil)
	if rt != wasm.ValI32 {
		t.Errorf("result type = %v, want i32", rt)
	}

	want := []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7F,
		0x03, 0x02, 0x01, 0x00,
		0x07, 0x08, 0x01, 0x04, 'c', 'a', 'l', 'c', 0x00, 0x00,
		0x0A, 0x04, 0x01, 0x02, 0x00, 0x0B,
	}
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("EncodeModule(empty)\n got %x\nwant %x", out.Bytes(), want)
	}
}

func TestEncodeModule_F32(t *testing.T) {
	code := []byte{wasm.OpF32Const, 0x00, 0x00, 0x80, 0x3F}
	out := NewBuffer(128)
	if rt := EncodeModule(out, code); rt != wasm.ValF32 {
		t.Errorf("result type = %v, want f32", rt)
	}

	m, err := wasm.ParseModule(out.Bytes())
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	if rt, ok := m.Result(); !ok || rt != wasm.ValF32 {
		t.Errorf("declared result = %v, %v", rt, ok)
	}
	if !bytes.Equal(m.Code[0].Instructions(), code) {
		t.Errorf("body = %x, want %x", m.Code[0].Instructions(), code)
	}
}

func TestEncodeModule_MultiByteSizes(t *testing.T) {
	// 200 nops pushes the body size and section size past one LEB128 byte.
	code := bytes.Repeat([]byte{wasm.OpNop}, 200)
	out := NewBuffer(512)
	EncodeModule(out, code)

	m, err := wasm.ParseModule(out.Bytes())
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	sec, ok := m.Section(wasm.SectionCode)
	if !ok {
		t.Fatal("missing code section")
	}
	if want := uint32(1 + 2 + 1 + 200 + 1); sec.Size != want {
		t.Errorf("code section size = %d, want %d", sec.Size, want)
	}
	if m.Code[0].Size != 202 {
		t.Errorf("body size = %d, want 202", m.Code[0].Size)
	}
}

func TestEncodeModule_Overflow(t *testing.T) {
	out := NewBuffer(10)
	EncodeModule(out, []byte{wasm.OpI32Const, 0x01})
	if !out.Overflowed() {
		t.Error("expected overflow")
	}
	if out.Len() != 10 {
		t.Errorf("Len = %d, want 10", out.Len())
	}
}

func TestEncodeModule_ResetsOutput(t *testing.T) {
	out := NewBuffer(128)
	EncodeModule(out, []byte{wasm.OpF32Const, 0, 0, 0, 0})
	first := out.Len()
	EncodeModule(out, nil)
	if out.Len() != first-5 {
		t.Errorf("second encode len = %d, want %d", out.Len(), first-5)
	}
}
