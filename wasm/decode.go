package wasm

import (
	"errors"
	"fmt"

	werrors "github.com/wippyai/wat-calc/errors"
	"github.com/wippyai/wat-calc/wasm/internal/binary"
)

// Parsing errors returned by ParseModule.
var (
	ErrInvalidMagic   = errors.New("invalid wasm magic number")
	ErrInvalidVersion = errors.New("invalid wasm version")
)

// ParseModule parses a WebAssembly binary module.
// Type, function, export and code sections are decoded; all other sections
// are recorded in Module.Sections and skipped.
func ParseModule(data []byte) (*Module, error) {
	r := binary.NewReader(data)

	magic, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}

	version, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if version != Version {
		return nil, ErrInvalidVersion
	}

	m := &Module{}
	var lastID byte

	for r.Len() > 0 {
		sectionID, err := r.ReadByte()
		if err != nil {
			return nil, r.WrapError("section header", err)
		}

		if sectionID != SectionCustom {
			if sectionID <= lastID {
				return nil, fmt.Errorf("section %d appears out of order", sectionID)
			}
			lastID = sectionID
		}

		sectionSize, err := r.ReadU32()
		if err != nil {
			return nil, r.WrapError("section size", err)
		}

		offset := r.Position()
		sectionData, err := r.ReadBytes(int(sectionSize))
		if err != nil {
			return nil, r.WrapError("section data", err)
		}
		m.Sections = append(m.Sections, SectionInfo{ID: sectionID, Offset: offset, Size: sectionSize})

		sr := binary.NewReader(sectionData)

		var name string
		switch sectionID {
		case SectionType:
			name, err = "type", parseTypeSection(sr, m)
		case SectionFunction:
			name, err = "function", parseFunctionSection(sr, m)
		case SectionExport:
			name, err = "export", parseExportSection(sr, m)
		case SectionCode:
			name, err = "code", parseCodeSection(sr, m)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s section: %w", name, err)
		}
		if sr.Len() != 0 {
			return nil, werrors.New(werrors.PhaseDecode, werrors.KindInvalidData).
				Path(name).
				Value(sectionSize).
				Detailf("section declares %d bytes but content ends after %d", sectionSize, sr.Position()).
				Build()
		}
	}

	if len(m.Funcs) != len(m.Code) {
		return nil, werrors.InvalidData(werrors.PhaseDecode, []string{"code"},
			fmt.Sprintf("function count %d does not match code count %d", len(m.Funcs), len(m.Code)))
	}

	return m, nil
}

func parseTypeSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Types = make([]FuncType, count)
	for i := uint32(0); i < count; i++ {
		form, err := r.ReadByte()
		if err != nil {
			return err
		}
		if form != FuncTypeByte {
			return werrors.Unsupported(werrors.PhaseDecode, fmt.Sprintf("type form 0x%02x", form))
		}
		params, err := readValTypes(r)
		if err != nil {
			return err
		}
		results, err := readValTypes(r)
		if err != nil {
			return err
		}
		m.Types[i] = FuncType{Params: params, Results: results}
	}
	return nil
}

func readValTypes(r *binary.Reader) ([]ValType, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	raw, err := r.ReadBytes(int(n))
	if err != nil {
		return nil, err
	}
	types := make([]ValType, n)
	for i, b := range raw {
		types[i] = ValType(b)
	}
	return types, nil
}

func parseFunctionSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Funcs = make([]uint32, count)
	for i := uint32(0); i < count; i++ {
		m.Funcs[i], err = r.ReadU32()
		if err != nil {
			return err
		}
	}
	return nil
}

func parseExportSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Exports = make([]Export, count)
	for i := uint32(0); i < count; i++ {
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}
		if kind > KindGlobal {
			return fmt.Errorf("invalid export kind: 0x%02x", kind)
		}
		idx, err := r.ReadU32()
		if err != nil {
			return err
		}
		m.Exports[i] = Export{Name: name, Kind: kind, Idx: idx}
	}
	return nil
}

func parseCodeSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Code = make([]FuncBody, count)
	for i := uint32(0); i < count; i++ {
		bodySize, err := r.ReadU32()
		if err != nil {
			return err
		}
		bodyData, err := r.ReadBytes(int(bodySize))
		if err != nil {
			return err
		}

		br := binary.NewReader(bodyData)

		localCount, err := br.ReadU32()
		if err != nil {
			return err
		}
		var locals []LocalEntry
		for j := uint32(0); j < localCount; j++ {
			n, err := br.ReadU32()
			if err != nil {
				return err
			}
			t, err := br.ReadByte()
			if err != nil {
				return err
			}
			locals = append(locals, LocalEntry{Count: n, ValType: ValType(t)})
		}

		code, err := br.ReadBytes(br.Len())
		if err != nil {
			return err
		}
		if len(code) == 0 || code[len(code)-1] != OpEnd {
			return werrors.InvalidData(werrors.PhaseDecode, []string{"code", fmt.Sprint(i)},
				"function body does not end with end opcode")
		}
		m.Code[i] = FuncBody{Locals: locals, Code: code, Size: bodySize}
	}
	return nil
}
