package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wippyai/wat-calc/errors"
	"github.com/wippyai/wat-calc/wat"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.Assembler.InputCap != wat.DefaultInputCap {
		t.Errorf("input cap = %d", c.Assembler.InputCap)
	}
	if c.Assembler.OutputCap != wat.DefaultOutputCap {
		t.Errorf("output cap = %d", c.Assembler.OutputCap)
	}
	if c.Assembler.CodeCap != wat.DefaultCodeCap {
		t.Errorf("code cap = %d", c.Assembler.CodeCap)
	}
	if c.Log.Level != "info" || c.Log.Format != "console" {
		t.Errorf("log = %+v", c.Log)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
[assembler]
input-cap = 1024
code-cap = 256

[engine]
timeout-ms = 250
memory-limit-pages = 16

[log]
level = "debug"
format = "json"
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Assembler.InputCap != 1024 {
		t.Errorf("input cap = %d, want 1024", c.Assembler.InputCap)
	}
	if c.Assembler.OutputCap != wat.DefaultOutputCap {
		t.Errorf("output cap = %d, want default", c.Assembler.OutputCap)
	}
	if c.Assembler.CodeCap != 256 {
		t.Errorf("code cap = %d, want 256", c.Assembler.CodeCap)
	}
	if c.Log.Level != "debug" || c.Log.Format != "json" {
		t.Errorf("log = %+v", c.Log)
	}
	if !filepath.IsAbs(c.Path) {
		t.Errorf("path = %q, want absolute", c.Path)
	}

	ec := c.EngineConfig()
	if ec.Timeout != 250*time.Millisecond || ec.MemoryLimitPages != 16 {
		t.Errorf("engine config = %+v", ec)
	}
	opts := c.AssemblerOptions()
	if opts.InputCap != 1024 || opts.CodeCap != 256 {
		t.Errorf("assembler options = %+v", opts)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		kind    errors.Kind
	}{
		{"syntax", "[assembler\n", errors.KindInvalidData},
		{"unknown_key", "[assembler]\nstack-cap = 4\n", errors.KindInvalidData},
		{"wrong_type", "[engine]\ntimeout-ms = \"soon\"\n", errors.KindInvalidData},
		{"negative_timeout", "[engine]\ntimeout-ms = -1\n", errors.KindInvalidInput},
		{"bad_level", "[log]\nlevel = \"loud\"\n", errors.KindInvalidInput},
		{"bad_format", "[log]\nformat = \"xml\"\n", errors.KindInvalidInput},
		{"input_cap_too_large", "[assembler]\ninput-cap = 4294967295\noutput-cap = 1\n", errors.KindInvalidInput},
		{"output_cap_too_large", "[assembler]\noutput-cap = 16777217\n", errors.KindInvalidInput},
		{"code_cap_too_large", "[assembler]\ncode-cap = 33554432\n", errors.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := Load(path)
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: tt.kind}) {
				t.Errorf("Load error = %v, want %s", err, tt.kind)
			}
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindNotFound}) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestValidate_MaxRegionCap(t *testing.T) {
	c := Default()
	c.Assembler.InputCap = wat.MaxRegionCap
	c.Assembler.OutputCap = wat.MaxRegionCap
	if err := c.Validate(); err != nil {
		t.Errorf("caps at the limit rejected: %v", err)
	}

	c.Assembler.InputCap = wat.MaxRegionCap + 1
	err := c.Validate()
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidInput}) {
		t.Fatalf("Validate error = %v", err)
	}
	var e *errors.Error
	if stderrors.As(err, &e) && (len(e.Path) != 2 || e.Path[1] != "input-cap") {
		t.Errorf("path = %v", e.Path)
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[assembler]\ncode-cap = 128\n")

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c.Assembler.CodeCap != 128 {
		t.Errorf("code cap = %d, want 128", c.Assembler.CodeCap)
	}
	if c.Path != filepath.Join(root, FileName) {
		t.Errorf("path = %q", c.Path)
	}
}

func TestFindAndLoad_NoFile(t *testing.T) {
	c, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c.Path != "" || c.Assembler.InputCap != wat.DefaultInputCap {
		t.Errorf("expected defaults, got %+v", c)
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		l, err := NewLogger(Log{Level: "debug", Format: format})
		if err != nil {
			t.Fatalf("NewLogger(%s) failed: %v", format, err)
		}
		if !l.Core().Enabled(-1) {
			t.Errorf("%s logger should enable debug", format)
		}
	}

	if _, err := NewLogger(Log{Level: "nope"}); err == nil {
		t.Error("expected error for bad level")
	}
}
