package engine

import (
	"context"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wat-calc/errors"
)

// Exports of a run-ABI module. Each pointer and capacity may be an i32
// global or a function of no parameters.
const (
	ExportInputPtr       = "input_ptr"
	ExportInputUTF8Cap   = "input_utf8_cap"
	ExportInputBytesCap  = "input_bytes_cap"
	ExportOutputPtr      = "output_ptr"
	ExportOutputUTF8Cap  = "output_utf8_cap"
	ExportOutputI32Cap   = "output_i32_cap"
	ExportOutputBytesCap = "output_bytes_cap"
	ExportRun            = "run"
)

// Encoding describes how a run-ABI region is interpreted.
type Encoding int

const (
	EncodingRaw Encoding = iota
	EncodingUTF8
	EncodingI32 // little-endian i32 items; capacity and count are in items
)

func (e Encoding) String() string {
	switch e {
	case EncodingUTF8:
		return "utf8"
	case EncodingI32:
		return "i32"
	default:
		return "raw"
	}
}

// RunResult is the outcome of RunModule.
type RunResult struct {
	// Output is a copy of the output region, nil when the module has no
	// output_ptr export.
	Output         []byte
	Instantiation  time.Duration
	Run            time.Duration
	MemoryBytes    uint64
	InputCap       uint32
	OutputCap      uint32
	Count          uint32 // value returned by run
	InputEncoding  Encoding
	OutputEncoding Encoding
}

// RunModule executes a run-ABI module: it writes input at input_ptr,
// calls run with the input length and copies run's result count of items
// from output_ptr. The instance is closed before RunModule returns.
func (e *Engine) RunModule(ctx context.Context, bin, input []byte) (*RunResult, error) {
	if e.closed.Load() {
		return nil, errors.NotInitialized(errors.PhaseRuntime, "engine")
	}
	if len(bin) == 0 {
		return nil, errors.InvalidInput(errors.PhaseLoad, "empty module")
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = WithExecutionTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	compiled, err := e.runtime.CompileModule(ctx, bin)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}
	defer compiled.Close(ctx)

	res := &RunResult{}
	start := time.Now()
	mod, err := e.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	defer mod.Close(ctx)
	res.Instantiation = time.Since(start)

	inputPtr, ok := exportedValue(ctx, mod, ExportInputPtr)
	if !ok {
		return nil, errors.NotFound(errors.PhaseLoad, "export", ExportInputPtr)
	}
	if c, ok := exportedValue(ctx, mod, ExportInputUTF8Cap); ok {
		res.InputCap, res.InputEncoding = c, EncodingUTF8
	} else if c, ok := exportedValue(ctx, mod, ExportInputBytesCap); ok {
		res.InputCap, res.InputEncoding = c, EncodingRaw
	} else {
		return nil, errors.NotFound(errors.PhaseLoad, "export", ExportInputUTF8Cap+" or "+ExportInputBytesCap)
	}

	outputPtr, hasOutput := exportedValue(ctx, mod, ExportOutputPtr)
	if hasOutput {
		if c, ok := exportedValue(ctx, mod, ExportOutputUTF8Cap); ok {
			res.OutputCap, res.OutputEncoding = c, EncodingUTF8
		} else if c, ok := exportedValue(ctx, mod, ExportOutputI32Cap); ok {
			res.OutputCap, res.OutputEncoding = c, EncodingI32
		} else if c, ok := exportedValue(ctx, mod, ExportOutputBytesCap); ok {
			res.OutputCap, res.OutputEncoding = c, EncodingRaw
		} else {
			return nil, errors.NotFound(errors.PhaseLoad, "export",
				ExportOutputUTF8Cap+" or "+ExportOutputI32Cap+" or "+ExportOutputBytesCap)
		}
	}

	run := mod.ExportedFunction(ExportRun)
	if run == nil {
		return nil, errors.NotFound(errors.PhaseLoad, "export", ExportRun)
	}
	mem := mod.Memory()
	if mem == nil {
		return nil, errors.New(errors.PhaseLoad, errors.KindNotFound).
			Detail("module defines no memory").
			Build()
	}

	if uint64(len(input)) > uint64(res.InputCap) {
		return nil, errors.Overflow(errors.PhaseRuntime, "input", int(res.InputCap))
	}
	if !mem.Write(inputPtr, input) {
		return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Path("input").
			Detailf("cannot write %d bytes at %d", len(input), inputPtr).
			Build()
	}

	start = time.Now()
	results, err := run.Call(ctx, uint64(len(input)))
	res.Run = time.Since(start)
	if err != nil {
		herr := HumanizeError(ctx, err)
		Logger().Debug("run failed", zap.Error(herr), zap.Duration("elapsed", res.Run))
		return nil, herr
	}
	if len(results) == 0 {
		return nil, errors.New(errors.PhaseRuntime, errors.KindTypeMismatch).
			Path(ExportRun).
			Detail("run returned no value").
			Build()
	}
	res.Count = api.DecodeU32(results[0])

	if hasOutput {
		if res.Count > res.OutputCap {
			return nil, errors.New(errors.PhaseRuntime, errors.KindOverflow).
				Path("output").
				Value(res.Count).
				Detailf("run returned %d items, capacity is %d", res.Count, res.OutputCap).
				Build()
		}
		n := uint64(res.Count)
		if res.OutputEncoding == EncodingI32 {
			n *= 4
		}
		out, ok := mem.Read(outputPtr, uint32(n))
		if !ok {
			return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidData).
				Path("output").
				Detailf("cannot read %d bytes at %d", n, outputPtr).
				Build()
		}
		res.Output = append([]byte(nil), out...)
	}
	res.MemoryBytes = memorySizeBytes(mem)

	Logger().Debug("run returned",
		zap.Uint32("count", res.Count),
		zap.Stringer("output_encoding", res.OutputEncoding),
		zap.Duration("elapsed", res.Run))
	return res, nil
}

// exportedValue reads name as an i32 global, or calls it as a function.
func exportedValue(ctx context.Context, mod api.Module, name string) (uint32, bool) {
	if g := mod.ExportedGlobal(name); g != nil {
		return api.DecodeU32(g.Get()), true
	}
	if fn := mod.ExportedFunction(name); fn != nil {
		results, err := fn.Call(ctx)
		if err == nil && len(results) > 0 {
			return api.DecodeU32(results[0]), true
		}
	}
	return 0, false
}

func memorySizeBytes(mem api.Memory) uint64 {
	if size := mem.Size(); size != 0 {
		return uint64(size)
	}
	// Size wraps to 0 at the 4GiB maximum.
	pages, ok := mem.Grow(0)
	if !ok {
		return 0
	}
	return uint64(pages) * 65536
}
