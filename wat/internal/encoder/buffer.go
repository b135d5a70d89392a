package encoder

import (
	"encoding/binary"
	"math"
)

// Buffer is a fixed-capacity byte region. Writes past capacity are dropped
// and mark the buffer overflowed; nothing ever grows.
type Buffer struct {
	data       []byte
	n          int
	overflowed bool
}

// NewBuffer allocates a Buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// Over returns a Buffer that writes into region.
func Over(region []byte) *Buffer {
	return &Buffer{data: region}
}

// Reset makes the buffer logically empty.
func (b *Buffer) Reset() {
	b.n = 0
	b.overflowed = false
}

// Len returns the number of bytes written.
func (b *Buffer) Len() int { return b.n }

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// Bytes returns the written bytes. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.n]
}

// Overflowed reports whether any write was dropped since the last Reset.
func (b *Buffer) Overflowed() bool {
	return b.overflowed
}

// Mark captures the buffer state for Rewind.
type Mark struct {
	n          int
	overflowed bool
}

// Mark returns the current state.
func (b *Buffer) Mark() Mark {
	return Mark{n: b.n, overflowed: b.overflowed}
}

// Rewind discards everything written after m.
func (b *Buffer) Rewind(m Mark) {
	b.n = m.n
	b.overflowed = m.overflowed
}

// AppendByte writes v, or marks the buffer overflowed when it is full.
func (b *Buffer) AppendByte(v byte) {
	if b.n >= len(b.data) {
		b.overflowed = true
		return
	}
	b.data[b.n] = v
	b.n++
}

// WriteBytes appends v byte by byte. A partial write keeps the bytes that fit.
func (b *Buffer) WriteBytes(v []byte) {
	for _, c := range v {
		b.AppendByte(c)
	}
}

// U32Size returns the encoded width of v as unsigned LEB128.
func U32Size(v uint32) uint32 {
	n := uint32(1)
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// WriteU32 writes unsigned LEB128 encoding.
func (b *Buffer) WriteU32(v uint32) {
	for {
		byt := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			byt |= 0x80
		}
		b.AppendByte(byt)
		if v == 0 {
			break
		}
	}
}

// WriteI64 writes signed LEB128 encoding.
func (b *Buffer) WriteI64(v int64) {
	for {
		byt := byte(v & 0x7F)
		v >>= 7
		if (v == 0 && byt&0x40 == 0) || (v == -1 && byt&0x40 != 0) {
			b.AppendByte(byt)
			break
		}
		b.AppendByte(byt | 0x80)
	}
}

// WriteF32 writes v as little-endian IEEE-754.
func (b *Buffer) WriteF32(v float32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
	b.WriteBytes(buf[:])
}

// WriteString writes a length-prefixed name.
func (b *Buffer) WriteString(s string) {
	b.WriteU32(uint32(len(s)))
	for i := 0; i < len(s); i++ {
		b.AppendByte(s[i])
	}
}
