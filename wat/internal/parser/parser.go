// Package parser turns instruction forms into code bytes.
package parser

import (
	"errors"

	"github.com/wippyai/wat-calc/wat/internal/encoder"
	"github.com/wippyai/wat-calc/wat/internal/lexer"
	"github.com/wippyai/wat-calc/wat/internal/opcode"
)

// Reasons parsing stopped before the end of input.
var (
	ErrExpectedOpen    = errors.New("expected '('")
	ErrMissingMnemonic = errors.New("missing instruction name")
	ErrUnknownMnemonic = errors.New("unknown instruction")
	ErrBadImmediate    = errors.New("malformed immediate")
	ErrExpectedClose   = errors.New("expected ')'")
	ErrUnexpectedClose = errors.New("unexpected ')'")
	ErrUnexpectedNUL   = errors.New("unexpected NUL byte")
	ErrCapacity        = errors.New("code capacity exceeded")
)

// Stats describes one Parse call.
type Stats struct {
	Err          error  // nil when all input was consumed
	Mnemonic     string // instruction being parsed when Err occurred, if any
	Instructions int
	Offset       int // reader offset where parsing stopped
}

// Truncated reports whether parsing stopped before the end of input.
func (s Stats) Truncated() bool {
	return s.Err != nil
}

// Parse reads "(mnemonic [immediate])" forms from r and appends their
// encoding to code until the input ends, a ')' appears at top level, or
// an instruction fails. A failed instruction contributes no bytes and
// the reader is left at its opening '('; earlier instructions are kept.
func Parse(r *lexer.Reader, code *encoder.Buffer) Stats {
	var st Stats
	for {
		switch r.Peek() {
		case 0:
			if !r.AtEnd() {
				st.Err = ErrUnexpectedNUL
			}
			st.Offset = r.Pos()
			return st
		case ')':
			st.Err = ErrUnexpectedClose
			st.Offset = r.Pos()
			return st
		}

		pos, mark := r.Pos(), code.Mark()
		name, err := parseInstruction(r, code)
		if err == nil && code.Overflowed() {
			err = ErrCapacity
		}
		if err != nil {
			r.Reset(pos)
			code.Rewind(mark)
			st.Err = err
			st.Mnemonic = name
			st.Offset = pos
			return st
		}
		st.Instructions++
	}
}

func parseInstruction(r *lexer.Reader, code *encoder.Buffer) (string, error) {
	if !r.Expect('(') {
		return "", ErrExpectedOpen
	}
	ident := r.ReadIdent()
	if len(ident) == 0 {
		return "", ErrMissingMnemonic
	}
	name := string(ident)
	info, ok := opcode.LookupBytes(ident)
	if !ok {
		return name, ErrUnknownMnemonic
	}

	code.AppendByte(info.Opcode)
	switch info.ImmType {
	case opcode.ImmI32:
		v, ok := r.ParseInt()
		if !ok {
			return name, ErrBadImmediate
		}
		code.WriteI64(v)
	case opcode.ImmF32:
		v, ok := r.ParseFloat()
		if !ok {
			return name, ErrBadImmediate
		}
		code.WriteF32(v)
	}

	if !r.Expect(')') {
		return name, ErrExpectedClose
	}
	return name, nil
}
