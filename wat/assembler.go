package wat

import (
	watcalc "github.com/wippyai/wat-calc"
	"github.com/wippyai/wat-calc/errors"
	"github.com/wippyai/wat-calc/wasm"
	"github.com/wippyai/wat-calc/wat/internal/encoder"
	"github.com/wippyai/wat-calc/wat/internal/lexer"
	"github.com/wippyai/wat-calc/wat/internal/parser"
	"go.uber.org/zap"
)

// Region capacities in bytes.
const (
	DefaultInputCap  = 65536 // source text the host may write at InputPtr
	DefaultOutputCap = 65536 // module bytes Run may write at OutputPtr
	DefaultCodeCap   = 32768 // instruction bytes between header and end

	// MaxRegionCap bounds every region. Larger requests are clamped.
	MaxRegionCap = 1 << 24

	// ExportName is the export under which the function is published.
	ExportName = encoder.ExportName
)

// Options configures region capacities. Zero values use the defaults;
// values above MaxRegionCap are clamped to it.
type Options struct {
	InputCap  uint32
	OutputCap uint32
	CodeCap   uint32
}

func (o Options) withDefaults() Options {
	if o.InputCap == 0 {
		o.InputCap = DefaultInputCap
	}
	if o.OutputCap == 0 {
		o.OutputCap = DefaultOutputCap
	}
	if o.CodeCap == 0 {
		o.CodeCap = DefaultCodeCap
	}
	o.InputCap = min(o.InputCap, MaxRegionCap)
	o.OutputCap = min(o.OutputCap, MaxRegionCap)
	o.CodeCap = min(o.CodeCap, MaxRegionCap)
	return o
}

// Assembler owns the input, scratch and output regions of one assembly
// pipeline. Input sits at offset 0 of Memory, output right after it.
//
// An Assembler runs one assembly at a time and is not safe for
// concurrent use. Separate instances share nothing.
type Assembler struct {
	mem  *watcalc.LinearMemory
	code *encoder.Buffer
	out  *encoder.Buffer
	opts Options

	last Stats
}

// Stats describes the most recent Run.
type Stats struct {
	StopReason   error
	Mnemonic     string
	Instructions int
	StopOffset   int
	ResultType   wasm.ValType
	CodeOverflow bool
	OutOverflow  bool
}

// New returns an Assembler with the default capacities.
func New() *Assembler {
	return NewWithOptions(Options{})
}

// NewWithOptions returns an Assembler with the given capacities.
func NewWithOptions(opts Options) *Assembler {
	opts = opts.withDefaults()
	mem := watcalc.NewLinearMemory(opts.InputCap + opts.OutputCap)
	return &Assembler{
		mem:  mem,
		code: encoder.NewBuffer(int(opts.CodeCap)),
		out:  encoder.Over(mem.Bytes()[opts.InputCap:]),
		opts: opts,
	}
}

// InputPtr returns the offset of the input region in Memory.
func (a *Assembler) InputPtr() uint32 { return 0 }

// InputUTF8Cap returns the input region capacity in bytes.
func (a *Assembler) InputUTF8Cap() uint32 { return a.opts.InputCap }

// OutputPtr returns the offset of the output region in Memory.
func (a *Assembler) OutputPtr() uint32 { return a.opts.InputCap }

// OutputBytesCap returns the output region capacity in bytes.
func (a *Assembler) OutputBytesCap() uint32 { return a.opts.OutputCap }

// Memory returns the linear memory holding the input and output regions.
func (a *Assembler) Memory() watcalc.Memory { return a.mem }

// Run assembles inputSize bytes from the input region and writes the
// module to the output region, returning the number of bytes written.
// inputSize is capped at InputUTF8Cap. The result never exceeds
// OutputBytesCap; a module that does not fit is cut short.
func (a *Assembler) Run(inputSize uint32) uint32 {
	if inputSize > a.opts.InputCap {
		inputSize = a.opts.InputCap
	}
	src := a.mem.Bytes()[:inputSize]

	a.code.Reset()
	ps := parser.Parse(lexer.New(src), a.code)
	rt := encoder.EncodeModule(a.out, a.code.Bytes())

	a.last = Stats{
		StopReason:   ps.Err,
		Mnemonic:     ps.Mnemonic,
		Instructions: ps.Instructions,
		StopOffset:   ps.Offset,
		ResultType:   rt,
		CodeOverflow: ps.Err == parser.ErrCapacity,
		OutOverflow:  a.out.Overflowed(),
	}

	if ps.Truncated() {
		Logger().Debug("assembly stopped early",
			zap.Error(ps.Err),
			zap.String("mnemonic", ps.Mnemonic),
			zap.Int("offset", ps.Offset),
			zap.Int("instructions", ps.Instructions))
	}
	if a.last.OutOverflow {
		Logger().Debug("output region overflow", zap.Uint32("capacity", a.opts.OutputCap))
	}

	return uint32(a.out.Len())
}

// LastStats returns details of the most recent Run.
func (a *Assembler) LastStats() Stats {
	return a.last
}

// Result is the outcome of Assemble.
type Result struct {
	// StopReason is nil when every instruction was assembled.
	StopReason   error
	Mnemonic     string
	Binary       []byte
	Code         []byte
	Instructions int
	StopOffset   int
	ResultType   wasm.ValType
	Truncated    bool
	// Incomplete reports that the output region filled up, so Binary is a
	// prefix of the module and does not decode.
	Incomplete bool
}

// Assemble copies src into the input region, runs the pipeline and
// returns copies of the module and its instruction bytes.
//
// Malformed instructions are not errors: they end the program early and
// are described by Result.Truncated and Result.StopReason. The error is
// non-nil only for capacity overflow, in which case the Result is still
// returned.
func (a *Assembler) Assemble(src []byte) (*Result, error) {
	var overflow error
	if uint64(len(src)) > uint64(a.opts.InputCap) {
		overflow = errors.Overflow(errors.PhaseParse, "input", int(a.opts.InputCap))
		src = src[:a.opts.InputCap]
	}
	if err := a.mem.Write(a.InputPtr(), src); err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidInput, err, "copy input")
	}

	n := a.Run(uint32(len(src)))
	bin, err := a.mem.Read(a.OutputPtr(), n)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "read output")
	}

	st := a.last
	res := &Result{
		StopReason:   st.StopReason,
		Mnemonic:     st.Mnemonic,
		Binary:       append([]byte(nil), bin...),
		Code:         append([]byte(nil), a.code.Bytes()...),
		Instructions: st.Instructions,
		StopOffset:   st.StopOffset,
		ResultType:   st.ResultType,
		Truncated:    st.StopReason != nil,
		Incomplete:   st.OutOverflow,
	}

	switch {
	case overflow != nil:
		return res, overflow
	case st.CodeOverflow:
		return res, errors.Overflow(errors.PhaseParse, "code", int(a.opts.CodeCap))
	case st.OutOverflow:
		return res, errors.Overflow(errors.PhaseEncode, "output", int(a.opts.OutputCap))
	}
	return res, nil
}

// Compile assembles source with a fresh default Assembler and returns the
// module bytes.
func Compile(source string) ([]byte, error) {
	res, err := New().Assemble([]byte(source))
	if err != nil {
		return nil, err
	}
	return res.Binary, nil
}
