package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wat-calc/config"
	"github.com/wippyai/wat-calc/engine"
	"github.com/wippyai/wat-calc/errors"
	"github.com/wippyai/wat-calc/wasm"
	"github.com/wippyai/wat-calc/wat"
)

type options struct {
	input   string
	output  string
	cfgPath string
	via     string
	run     bool
	dump    bool
	verbose bool
	repl    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.input, "i", "", "Instruction text file (- for stdin)")
	flag.StringVar(&opts.output, "o", "", "Write the module to this .wasm file")
	flag.StringVar(&opts.cfgPath, "config", "", "Path to watcalc.toml (default: search upward from cwd)")
	flag.StringVar(&opts.via, "via", "", "Assemble with this run-ABI .wasm module instead of the built-in assembler")
	flag.BoolVar(&opts.run, "run", false, "Evaluate calc and print the result")
	flag.BoolVar(&opts.dump, "dump", false, "Print the decoded sections and instructions")
	flag.BoolVar(&opts.verbose, "v", false, "Debug logging")
	flag.BoolVar(&opts.repl, "repl", false, "Interactive mode with TUI")
	flag.Parse()

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	wat.SetLogger(log.Named("wat"))
	engine.SetLogger(log.Named("engine"))

	if opts.repl || (opts.input == "" && term.IsTerminal(int(os.Stdin.Fd()))) {
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(opts, cfg, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(opts options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.cfgPath != "" {
		cfg, err = config.Load(opts.cfgPath)
	} else {
		cfg, err = config.FindAndLoad(".")
	}
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func run(opts options, cfg *config.Config, log *zap.Logger) error {
	src, err := readInput(opts.input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	var res *wat.Result
	if opts.via != "" {
		res, err = assembleVia(cfg, opts.via, src)
	} else {
		res, err = wat.NewWithOptions(cfg.AssemblerOptions()).Assemble(src)
	}
	if err != nil {
		var werr *errors.Error
		if !stderrors.As(err, &werr) || werr.Kind != errors.KindOverflow {
			return err
		}
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	if res.Truncated {
		fmt.Fprintf(os.Stderr, "warning: stopped at offset %d: %v%s (%d instructions assembled)\n",
			res.StopOffset, res.StopReason, quoted(res.Mnemonic), res.Instructions)
	}
	log.Debug("assembled",
		zap.Int("bytes", len(res.Binary)),
		zap.Int("instructions", res.Instructions),
		zap.Stringer("result", res.ResultType))

	if opts.output != "" {
		if err := os.WriteFile(opts.output, res.Binary, 0644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	if opts.dump {
		if err := dump(os.Stdout, res); err != nil {
			return err
		}
	}

	if opts.run {
		return evaluate(cfg, res)
	}

	if opts.output == "" && !opts.dump {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Println(hexString(res.Binary))
			return nil
		}
		if _, err := os.Stdout.Write(res.Binary); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}

func evaluate(cfg *config.Config, res *wat.Result) error {
	ctx := context.Background()
	eng, err := engine.NewWithConfig(ctx, cfg.EngineConfig())
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	defer eng.Close(ctx)

	v, err := eng.Eval(ctx, res.Binary)
	if err != nil {
		return err
	}
	fmt.Printf("%s = %s\n", signature(v.WIT()), v)
	return nil
}

// assembleVia runs the run-ABI assembler module at path on src and
// describes the module it writes the same way Assemble does.
func assembleVia(cfg *config.Config, path string, src []byte) (*wat.Result, error) {
	bin, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assembler: %w", err)
	}

	ctx := context.Background()
	eng, err := engine.NewWithConfig(ctx, cfg.EngineConfig())
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	defer eng.Close(ctx)

	out, err := eng.RunModule(ctx, bin, src)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", path, err)
	}
	return resultFromModule(out.Output)
}

// resultFromModule decodes an assembled module into a Result.
func resultFromModule(bin []byte) (*wat.Result, error) {
	m, err := wasm.ParseModule(bin)
	if err != nil {
		return nil, fmt.Errorf("decode module: %w", err)
	}
	exp, ok := m.Export(wat.ExportName)
	if !ok || exp.Kind != wasm.KindFunc || int(exp.Idx) >= len(m.Code) {
		return nil, errors.NotFound(errors.PhaseDecode, "export", wat.ExportName)
	}

	res := &wat.Result{
		Binary: bin,
		Code:   m.Code[exp.Idx].Instructions(),
	}
	if ft, ok := m.FuncType(exp.Idx); ok && len(ft.Results) == 1 {
		res.ResultType = ft.Results[0]
	}
	// Opcodes outside the subset end the count; dump reports them.
	instrs, _ := wat.Disassemble(res.Code)
	res.Instructions = len(instrs)
	return res, nil
}

func dump(w io.Writer, res *wat.Result) error {
	fmt.Fprintf(w, "module: %d bytes\n", len(res.Binary))
	if res.Incomplete {
		fmt.Fprintln(w, "  (output region full, module is incomplete)")
	} else {
		m, err := wasm.ParseModule(res.Binary)
		if err != nil {
			return fmt.Errorf("decode module: %w", err)
		}
		for _, s := range m.Sections {
			fmt.Fprintf(w, "  section %-8s id=%-2d offset=%-4d size=%d\n", sectionName(s.ID), s.ID, s.Offset, s.Size)
		}
		if rt, ok := m.Result(); ok {
			fmt.Fprintf(w, "calc: func() -> %s\n", rt)
		}
	}

	instrs, err := wat.Disassemble(res.Code)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "code: %d bytes, %d instructions\n", len(res.Code), len(instrs))
	for _, in := range instrs {
		fmt.Fprintf(w, "  %04x  %s\n", in.Offset, in)
	}
	return nil
}

func sectionName(id byte) string {
	switch id {
	case wasm.SectionType:
		return "type"
	case wasm.SectionFunction:
		return "function"
	case wasm.SectionExport:
		return "export"
	case wasm.SectionCode:
		return "code"
	case wasm.SectionCustom:
		return "custom"
	}
	return "other"
}

func hexString(b []byte) string {
	var sb strings.Builder
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", c)
	}
	return sb.String()
}

func quoted(name string) string {
	if name == "" {
		return ""
	}
	return fmt.Sprintf(" %q", name)
}
