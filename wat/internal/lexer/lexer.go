// Package lexer reads instruction text one significant byte or span at a time.
package lexer

import (
	"errors"
	"strconv"
)

// Reader is a cursor over source text. It skips whitespace, ";;" line
// comments and "(; ;)" block comments before every read. Failed parses
// leave the cursor where it was.
type Reader struct {
	src []byte
	pos int
}

// New returns a Reader positioned at the start of src.
func New(src []byte) *Reader {
	return &Reader{src: src}
}

// Pos returns the current byte offset.
func (r *Reader) Pos() int {
	return r.pos
}

// Reset moves the cursor to pos.
func (r *Reader) Reset(pos int) {
	r.pos = pos
}

// AtEnd reports whether no significant input remains.
func (r *Reader) AtEnd() bool {
	r.skip()
	return r.pos >= len(r.src)
}

func (r *Reader) skip() {
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			r.pos++
		case c == ';' && r.pos+1 < len(r.src) && r.src[r.pos+1] == ';':
			r.pos += 2
			for r.pos < len(r.src) && r.src[r.pos] != '\n' {
				r.pos++
			}
		case c == '(' && r.pos+1 < len(r.src) && r.src[r.pos+1] == ';':
			// Not nested: the first ";)" closes. An unterminated comment
			// stops one byte short of the end.
			r.pos += 2
			for r.pos+1 < len(r.src) {
				if r.src[r.pos] == ';' && r.src[r.pos+1] == ')' {
					r.pos += 2
					break
				}
				r.pos++
			}
		default:
			return
		}
	}
}

// Peek returns the next significant byte without consuming it, or 0 at end of input.
func (r *Reader) Peek() byte {
	r.skip()
	if r.pos >= len(r.src) {
		return 0
	}
	return r.src[r.pos]
}

// Expect consumes ch if it is the next significant byte.
func (r *Reader) Expect(ch byte) bool {
	r.skip()
	if r.pos >= len(r.src) || r.src[r.pos] != ch {
		return false
	}
	r.pos++
	return true
}

func isIdentByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') || c == '_' || c == '.' || c == '-'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// ReadIdent consumes a maximal run of [A-Za-z0-9_.-]. The result is empty
// when no identifier byte follows and aliases the source otherwise.
func (r *Reader) ReadIdent() []byte {
	r.skip()
	start := r.pos
	for r.pos < len(r.src) && isIdentByte(r.src[r.pos]) {
		r.pos++
	}
	return r.src[start:r.pos]
}

// digits consumes decimal digits and returns how many it consumed.
func (r *Reader) digits() int {
	start := r.pos
	for r.pos < len(r.src) && isDigit(r.src[r.pos]) {
		r.pos++
	}
	return r.pos - start
}

func (r *Reader) accept(ch byte) bool {
	if r.pos < len(r.src) && r.src[r.pos] == ch {
		r.pos++
		return true
	}
	return false
}

// ParseInt consumes an optional '-' followed by decimal digits.
// Accumulation wraps on int64 overflow. On failure the cursor is left
// after any leading whitespace and comments, which is the same position
// as before the call for every later read since skipping is idempotent.
func (r *Reader) ParseInt() (int64, bool) {
	r.skip()
	start := r.pos
	negative := r.accept('-')

	var val int64
	digitStart := r.pos
	for r.pos < len(r.src) && isDigit(r.src[r.pos]) {
		val = val*10 + int64(r.src[r.pos]-'0')
		r.pos++
	}
	if r.pos == digitStart {
		r.pos = start
		return 0, false
	}
	if negative {
		val = -val
	}
	return val, true
}

// ParseFloat consumes [+-]digits[.digits][(e|E)[+-]digits] with at least
// one mantissa digit. An exponent marker without digits is consumed and
// ignored. Out-of-range values round to infinity or zero. Failure leaves
// the cursor where ParseInt would.
func (r *Reader) ParseFloat() (float32, bool) {
	r.skip()
	start := r.pos
	if !r.accept('-') {
		r.accept('+')
	}

	n := r.digits()
	if r.accept('.') {
		n += r.digits()
	}
	end := r.pos

	if r.accept('e') || r.accept('E') {
		if !r.accept('-') {
			r.accept('+')
		}
		if r.digits() > 0 {
			end = r.pos
		}
	}

	if n == 0 {
		r.pos = start
		return 0, false
	}

	v, err := strconv.ParseFloat(string(r.src[start:end]), 32)
	if err != nil {
		var numErr *strconv.NumError
		if !errors.As(err, &numErr) || !errors.Is(numErr.Err, strconv.ErrRange) {
			r.pos = start
			return 0, false
		}
	}
	return float32(v), true
}
