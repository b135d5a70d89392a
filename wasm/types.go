package wasm

// ValType represents a WebAssembly value type.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	default:
		return "unknown"
	}
}

// Module represents a decoded WebAssembly module
type Module struct {
	Types    []FuncType
	Funcs    []uint32 // Type indices for declared functions
	Exports  []Export
	Code     []FuncBody
	Sections []SectionInfo // Every section in binary order, including skipped ones
}

// FuncType represents a WebAssembly function signature with parameter and result types.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Export represents an exported definition.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// FuncBody represents a decoded function body.
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte // Raw code bytes including end opcode
	Size   uint32 // Declared body size
}

// Instructions returns the body's code without the trailing end opcode.
func (b FuncBody) Instructions() []byte {
	if n := len(b.Code); n > 0 && b.Code[n-1] == OpEnd {
		return b.Code[:n-1]
	}
	return b.Code
}

// LocalEntry represents a group of local variables with the same type.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// SectionInfo records where a section sits in the binary.
// Offset is the position of the first content byte, after the size field.
type SectionInfo struct {
	ID     byte
	Offset int
	Size   uint32
}

// Export returns the export with the given name.
func (m *Module) Export(name string) (Export, bool) {
	for _, e := range m.Exports {
		if e.Name == name {
			return e, true
		}
	}
	return Export{}, false
}

// FuncType returns the signature of the function at funcIdx.
func (m *Module) FuncType(funcIdx uint32) (FuncType, bool) {
	if int(funcIdx) >= len(m.Funcs) {
		return FuncType{}, false
	}
	typeIdx := m.Funcs[funcIdx]
	if int(typeIdx) >= len(m.Types) {
		return FuncType{}, false
	}
	return m.Types[typeIdx], true
}

// Result returns the single result type of function 0.
// It returns false when the module has no function or the function does
// not declare exactly one result.
func (m *Module) Result() (ValType, bool) {
	ft, ok := m.FuncType(0)
	if !ok || len(ft.Results) != 1 {
		return 0, false
	}
	return ft.Results[0], true
}

// Section returns the first recorded section with the given id.
func (m *Module) Section(id byte) (SectionInfo, bool) {
	for _, s := range m.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return SectionInfo{}, false
}
