package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wat-calc/errors"
	"github.com/wippyai/wat-calc/wasm"
	"github.com/wippyai/wat-calc/wat"
)

// Engine evaluates calc modules on a wazero runtime.
type Engine struct {
	runtime wazero.Runtime
	cfg     Config
	closed  atomic.Bool
}

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages caps memory per instance in 64KB pages. 0 means the
	// wazero default. Assembled modules declare no memory; the limit only
	// matters for foreign modules passed to Eval.
	MemoryLimitPages uint32

	// Timeout bounds each Eval call. 0 means no limit beyond the caller's
	// context.
	Timeout time.Duration
}

// New creates an engine with the default configuration.
func New(ctx context.Context) (*Engine, error) {
	return NewWithConfig(ctx, nil)
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)

	var c Config
	if cfg != nil {
		c = *cfg
		if c.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(c.MemoryLimitPages)
		}
	}

	return &Engine{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		cfg:     c,
	}, nil
}

// Close releases the runtime and every module compiled by it.
func (e *Engine) Close(ctx context.Context) error {
	if e.closed.Swap(true) {
		return nil
	}
	return e.runtime.Close(ctx)
}

// Eval runs the calc export of bin and returns its result.
func (e *Engine) Eval(ctx context.Context, bin []byte) (Value, error) {
	if e.closed.Load() {
		return Value{}, errors.NotInitialized(errors.PhaseRuntime, "engine")
	}
	if len(bin) == 0 {
		return Value{}, errors.InvalidInput(errors.PhaseLoad, "empty module")
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = WithExecutionTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	compiled, err := e.runtime.CompileModule(ctx, bin)
	if err != nil {
		return Value{}, errors.Load("compile module", err)
	}
	defer compiled.Close(ctx)

	def, ok := compiled.ExportedFunctions()[wat.ExportName]
	if !ok {
		return Value{}, errors.NotFound(errors.PhaseLoad, "export", wat.ExportName)
	}
	rt, err := resultType(def)
	if err != nil {
		return Value{}, err
	}

	// An empty name keeps instances anonymous so repeated evals never collide.
	mod, err := e.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return Value{}, errors.Instantiation(err)
	}
	defer mod.Close(ctx)

	fn := mod.ExportedFunction(wat.ExportName)
	if fn == nil {
		return Value{}, errors.NotFound(errors.PhaseRuntime, "export", wat.ExportName)
	}

	start := time.Now()
	results, err := fn.Call(ctx)
	if err != nil {
		herr := HumanizeError(ctx, err)
		Logger().Debug("calc failed", zap.Error(herr), zap.Duration("elapsed", time.Since(start)))
		return Value{}, herr
	}

	v := Value{Type: rt, Bits: results[0]}
	Logger().Debug("calc returned", zap.Stringer("value", v), zap.Duration("elapsed", time.Since(start)))
	return v, nil
}

func resultType(def api.FunctionDefinition) (wasm.ValType, error) {
	if len(def.ParamTypes()) != 0 {
		return 0, errors.New(errors.PhaseLoad, errors.KindTypeMismatch).
			Path(wat.ExportName).
			Detailf("expected no parameters, got %d", len(def.ParamTypes())).
			Build()
	}
	results := def.ResultTypes()
	if len(results) != 1 {
		return 0, errors.New(errors.PhaseLoad, errors.KindTypeMismatch).
			Path(wat.ExportName).
			Detailf("expected one result, got %d", len(results)).
			Build()
	}
	switch results[0] {
	case api.ValueTypeI32:
		return wasm.ValI32, nil
	case api.ValueTypeF32:
		return wasm.ValF32, nil
	}
	return 0, errors.Unsupported(errors.PhaseLoad, "result type "+api.ValueTypeName(results[0]))
}
