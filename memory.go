package watcalc

import (
	"encoding/binary"
	"fmt"
)

// Memory represents a linear memory region addressed by 32-bit offsets.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU32(offset uint32) (uint32, error)
	WriteU8(offset uint32, value uint8) error
	WriteU32(offset uint32, value uint32) error
}

// MemorySizer provides the current size of linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// LinearMemory is a fixed-size byte-addressed Memory.
type LinearMemory struct {
	data []byte
}

// NewLinearMemory allocates a zeroed memory of size bytes.
func NewLinearMemory(size uint32) *LinearMemory {
	return &LinearMemory{data: make([]byte, size)}
}

// Size returns the memory size in bytes.
func (m *LinearMemory) Size() uint32 {
	return uint32(len(m.data))
}

// Bytes returns the backing slice. Writes through it are visible to readers.
func (m *LinearMemory) Bytes() []byte {
	return m.data
}

func (m *LinearMemory) check(offset, length uint32) error {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(m.data)) {
		return fmt.Errorf("memory access out of bounds: offset=%d, length=%d, size=%d", offset, length, len(m.data))
	}
	return nil
}

// Read returns a copy of length bytes starting at offset.
func (m *LinearMemory) Read(offset uint32, length uint32) ([]byte, error) {
	if err := m.check(offset, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, m.data[offset:offset+length])
	return out, nil
}

// Write copies data into memory at offset.
func (m *LinearMemory) Write(offset uint32, data []byte) error {
	if err := m.check(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(m.data[offset:], data)
	return nil
}

// ReadU8 reads one byte.
func (m *LinearMemory) ReadU8(offset uint32) (uint8, error) {
	if err := m.check(offset, 1); err != nil {
		return 0, err
	}
	return m.data[offset], nil
}

// ReadU32 reads a little-endian uint32.
func (m *LinearMemory) ReadU32(offset uint32) (uint32, error) {
	if err := m.check(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.data[offset:]), nil
}

// WriteU8 writes one byte.
func (m *LinearMemory) WriteU8(offset uint32, value uint8) error {
	if err := m.check(offset, 1); err != nil {
		return err
	}
	m.data[offset] = value
	return nil
}

// WriteU32 writes a little-endian uint32.
func (m *LinearMemory) WriteU32(offset uint32, value uint32) error {
	if err := m.check(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.data[offset:], value)
	return nil
}
