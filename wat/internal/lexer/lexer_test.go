package lexer

import (
	"math"
	"testing"
)

func TestPeekSkipsTrivia(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  byte
	}{
		{"empty", "", 0},
		{"whitespace only", " \t\r\n", 0},
		{"paren", "  (", '('},
		{"line comment", ";; comment\n(", '('},
		{"line comment at end", ";; trailing", 0},
		{"block comment", "(; block ;)(", '('},
		{"block comment not nested", "(; (; inner ;) x", 'x'},
		{"single semicolon", "; x", ';'},
		{"mixed", " ;; a\n (; b ;)\t;; c\n)", ')'},
		{"unterminated block keeps last byte", "(; open x", 'x'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New([]byte(tt.input))
			if got := r.Peek(); got != tt.want {
				t.Errorf("Peek() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpect(t *testing.T) {
	r := New([]byte(" ( )"))
	if r.Expect(')') {
		t.Fatal("Expect(')') should fail before '('")
	}
	if !r.Expect('(') {
		t.Fatal("Expect('(') failed")
	}
	if !r.Expect(')') {
		t.Fatal("Expect(')') failed")
	}
	if r.Expect(')') {
		t.Fatal("Expect at end should fail")
	}
	if !r.AtEnd() {
		t.Error("AtEnd() = false")
	}
}

func TestReadIdent(t *testing.T) {
	tests := []struct {
		input string
		want  string
		rest  byte
	}{
		{"i32.const 5", "i32.const", '5'},
		{"f32.convert_i32_s)", "f32.convert_i32_s", ')'},
		{"  nop)", "nop", ')'},
		{"a-b.c_D9 ", "a-b.c_D9", 0},
		{"(nop)", "", '('},
		{"$x", "", '$'},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := New([]byte(tt.input))
			if got := string(r.ReadIdent()); got != tt.want {
				t.Errorf("ReadIdent() = %q, want %q", got, tt.want)
			}
			if got := r.Peek(); got != tt.rest {
				t.Errorf("next = %q, want %q", got, tt.rest)
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		input string
		want  int64
		ok    bool
		pos   int
	}{
		{"42", 42, true, 2},
		{"  -7)", -7, true, 4},
		{"0", 0, true, 1},
		{"2147483648", 2147483648, true, 10},
		{"007", 7, true, 3},
		{"-", 0, false, 0},
		{"+5", 0, false, 0},
		{"x", 0, false, 0},
		{"", 0, false, 0},
		{"12abc", 12, true, 2},
		{"1.5", 1, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := New([]byte(tt.input))
			got, ok := r.ParseInt()
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseInt() = %d, %v; want %d, %v", got, ok, tt.want, tt.ok)
			}
			if !ok && r.Pos() != 0 {
				t.Errorf("failed parse moved cursor to %d", r.Pos())
			}
			if ok && r.Pos() != tt.pos {
				t.Errorf("Pos() = %d, want %d", r.Pos(), tt.pos)
			}
		})
	}
}

func TestParseInt_FailureRestoresAfterWhitespace(t *testing.T) {
	r := New([]byte("(nop)  -)"))
	r.Reset(5)
	if _, ok := r.ParseInt(); ok {
		t.Fatal("ParseInt should fail on lone '-'")
	}
	// The cursor is restored to the skipped position, not beyond the '-'.
	if r.Peek() != '-' {
		t.Errorf("Peek() = %q, want '-'", r.Peek())
	}
}

func TestParse_FailureEquivalentToNoCall(t *testing.T) {
	tests := []struct {
		parse func(*Reader) bool
		name  string
	}{
		{func(r *Reader) bool { _, ok := r.ParseInt(); return ok }, "int"},
		{func(r *Reader) bool { _, ok := r.ParseFloat(); return ok }, "float"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := []byte("  ;; note\n  -x)")
			failed, fresh := New(src), New(src)
			if tt.parse(failed) {
				t.Fatal("parse should fail on '-x'")
			}
			failed.skip()
			fresh.skip()
			if failed.Pos() != fresh.Pos() || failed.Peek() != '-' {
				t.Errorf("Pos() = %d, want %d", failed.Pos(), fresh.Pos())
			}
		})
	}
}

func TestParseInt_Wraps(t *testing.T) {
	r := New([]byte("9223372036854775808"))
	got, ok := r.ParseInt()
	if !ok {
		t.Fatal("ParseInt failed")
	}
	if got != math.MinInt64 {
		t.Errorf("ParseInt() = %d, want wrapped %d", got, int64(math.MinInt64))
	}
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		input string
		want  float32
		ok    bool
		pos   int
	}{
		{"1.5", 1.5, true, 3},
		{"-2.25", -2.25, true, 5},
		{"+3", 3, true, 2},
		{"42", 42, true, 2},
		{".5", 0.5, true, 2},
		{"5.", 5, true, 2},
		{"1e3", 1000, true, 3},
		{"1.5E-2", 0.015, true, 6},
		{"2e+2", 200, true, 4},
		{"1e)", 1, true, 2},
		{"1e-)", 1, true, 3},
		{"0.1", 0.1, true, 3},
		{"-0", float32(math.Copysign(0, -1)), true, 2},
		{".", 0, false, 0},
		{"-", 0, false, 0},
		{"e5", 0, false, 0},
		{"-.e1", 0, false, 0},
		{"", 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := New([]byte(tt.input))
			got, ok := r.ParseFloat()
			if ok != tt.ok {
				t.Fatalf("ParseFloat() ok = %v, want %v", ok, tt.ok)
			}
			if math.Float32bits(got) != math.Float32bits(tt.want) {
				t.Errorf("ParseFloat() = %v, want %v", got, tt.want)
			}
			if ok && r.Pos() != tt.pos {
				t.Errorf("Pos() = %d, want %d", r.Pos(), tt.pos)
			}
			if !ok && r.Pos() != 0 {
				t.Errorf("failed parse moved cursor to %d", r.Pos())
			}
		})
	}
}

func TestParseFloat_Range(t *testing.T) {
	r := New([]byte("1e40"))
	got, ok := r.ParseFloat()
	if !ok || !math.IsInf(float64(got), 1) {
		t.Errorf("ParseFloat(1e40) = %v, %v; want +Inf", got, ok)
	}

	r = New([]byte("-1e-50"))
	got, ok = r.ParseFloat()
	if !ok || got != 0 {
		t.Errorf("ParseFloat(-1e-50) = %v, %v; want 0", got, ok)
	}
}
