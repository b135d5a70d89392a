package wasm

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestLEB128u_RoundTrip(t *testing.T) {
	tests := []struct {
		want []byte
		val  uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7F}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xE5, 0x8E, 0x26}, 624485},
		{[]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		got := EncodeLEB128u(tt.val)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("EncodeLEB128u(%d) = %x, want %x", tt.val, got, tt.want)
		}
		if n := SizeLEB128u(tt.val); n != len(tt.want) {
			t.Errorf("SizeLEB128u(%d) = %d, want %d", tt.val, n, len(tt.want))
		}
		back, err := ReadLEB128u(bytes.NewReader(got))
		if err != nil {
			t.Fatalf("ReadLEB128u(%x): %v", got, err)
		}
		if back != tt.val {
			t.Errorf("ReadLEB128u(%x) = %d, want %d", got, back, tt.val)
		}
	}
}

func TestLEB128s64_RoundTrip(t *testing.T) {
	tests := []struct {
		want []byte
		val  int64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x2A}, 42},
		{[]byte{0x7F}, -1},
		{[]byte{0x3F}, 63},
		{[]byte{0xC0, 0x00}, 64},
		{[]byte{0x40}, -64},
		{[]byte{0xBF, 0x7F}, -65},
		{[]byte{0xC0, 0xBB, 0x78}, -123456},
		{[]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x07}, math.MaxInt32},
		{[]byte{0x80, 0x80, 0x80, 0x80, 0x78}, math.MinInt32},
	}

	for _, tt := range tests {
		got := EncodeLEB128s64(tt.val)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("EncodeLEB128s64(%d) = %x, want %x", tt.val, got, tt.want)
		}
		back, err := ReadLEB128s64(bytes.NewReader(got))
		if err != nil {
			t.Fatalf("ReadLEB128s64(%x): %v", got, err)
		}
		if back != tt.val {
			t.Errorf("ReadLEB128s64(%x) = %d, want %d", got, back, tt.val)
		}
	}
}

func TestReadLEB128u_Overflow(t *testing.T) {
	_, err := ReadLEB128u(bytes.NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}))
	if !errors.Is(err, ErrOverflow) {
		t.Errorf("err = %v, want ErrOverflow", err)
	}
}

func TestFloat32(t *testing.T) {
	got := EncodeFloat32(1.5)
	if !bytes.Equal(got, []byte{0x00, 0x00, 0xC0, 0x3F}) {
		t.Errorf("EncodeFloat32(1.5) = %x", got)
	}
	v, err := ReadFloat32(bytes.NewReader(got))
	if err != nil {
		t.Fatal(err)
	}
	if v != 1.5 {
		t.Errorf("ReadFloat32 = %v, want 1.5", v)
	}
	if _, err := ReadFloat32(bytes.NewReader([]byte{0x01})); err == nil {
		t.Error("expected error for short input")
	}
}

func TestWriters_Stream(t *testing.T) {
	var buf bytes.Buffer
	WriteLEB128u(&buf, 300)
	WriteFloat32(&buf, -2.5)
	WriteLEB128s64(&buf, -1)

	want := []byte{0xAC, 0x02, 0x00, 0x00, 0x20, 0xC0, 0x7F}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("stream = %x, want %x", buf.Bytes(), want)
	}

	r := bytes.NewReader(buf.Bytes())
	if v, err := ReadLEB128u(r); err != nil || v != 300 {
		t.Errorf("ReadLEB128u = %d, %v", v, err)
	}
	if v, err := ReadFloat32(r); err != nil || v != -2.5 {
		t.Errorf("ReadFloat32 = %v, %v", v, err)
	}
	if v, err := ReadLEB128s64(r); err != nil || v != -1 {
		t.Errorf("ReadLEB128s64 = %d, %v", v, err)
	}
	if r.Len() != 0 {
		t.Errorf("%d bytes left over", r.Len())
	}
}
