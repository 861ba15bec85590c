package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/loomproc/loom/pkg/errors"
)

// =============================================================================
// Index Archive Serialization API
// =============================================================================

// Archive is the wire form of an index: a flat list of class records.
// The JSON layout is stable and consumed by the processor, the cache and
// external indexer tooling.
type Archive struct {
	// Version is the archive format version. Currently always 1.
	Version int `json:"version"`
	// Classes lists the indexed classes, sorted by name on write.
	Classes []ClassRecord `json:"classes"`
}

// ClassRecord is the wire form of a single class.
type ClassRecord struct {
	Name        string             `json:"name"`
	Super       string             `json:"super,omitempty"`
	Interfaces  []string           `json:"interfaces,omitempty"`
	Flags       uint32             `json:"flags,omitempty"`
	Annotations []AnnotationRecord `json:"annotations,omitempty"`
	Methods     []MethodRecord     `json:"methods,omitempty"`
	Fields      []FieldRecord      `json:"fields,omitempty"`
}

// MethodRecord is the wire form of a method declaration.
type MethodRecord struct {
	Name        string               `json:"name"`
	Flags       uint32               `json:"flags,omitempty"`
	Parameters  []TypeRecord         `json:"params,omitempty"`
	Returns     TypeRecord           `json:"returns"`
	Annotations []AnnotationRecord   `json:"annotations,omitempty"`
	ParamAnnots [][]AnnotationRecord `json:"paramAnnotations,omitempty"`
}

// FieldRecord is the wire form of a field declaration.
type FieldRecord struct {
	Name        string             `json:"name"`
	Flags       uint32             `json:"flags,omitempty"`
	Type        TypeRecord         `json:"type"`
	Annotations []AnnotationRecord `json:"annotations,omitempty"`
}

// TypeRecord is the wire form of a type descriptor.
type TypeRecord struct {
	Kind       string `json:"kind"`
	Name       string `json:"name,omitempty"`
	Dimensions int    `json:"dims,omitempty"`
}

// AnnotationRecord is the wire form of an annotation occurrence.
type AnnotationRecord struct {
	Name   string         `json:"name"`
	Values map[string]any `json:"values,omitempty"`
}

// MarshalIndex converts an Index to JSON bytes.
// Classes are sorted by name for deterministic output.
func MarshalIndex(idx *Index) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeIndexTo(idx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteIndexFile writes an Index to a JSON archive file.
// The file is created with 0644 permissions.
func WriteIndexFile(idx *Index, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeIndexTo(idx, f)
}

// WriteIndex writes an Index as JSON to an io.Writer.
func WriteIndex(idx *Index, w io.Writer) error {
	return writeIndexTo(idx, w)
}

// ReadIndexFile reads a JSON archive file and returns the decoded Index.
// Returns a structured INVALID_INDEX error for malformed archives.
func ReadIndexFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readIndexFrom(f)
}

// ReadIndex decodes a JSON archive from an io.Reader into an Index.
func ReadIndex(r io.Reader) (*Index, error) {
	return readIndexFrom(r)
}

// UnmarshalIndex decodes JSON bytes into an Index.
func UnmarshalIndex(data []byte) (*Index, error) {
	return readIndexFrom(bytes.NewReader(data))
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeIndexTo(idx *Index, w io.Writer) error {
	out := Archive{Version: 1}
	for _, c := range idx.Classes() {
		out.Classes = append(out.Classes, classToRecord(c))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readIndexFrom(r io.Reader) (*Index, error) {
	var data Archive
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidIndex, err, "decode index archive")
	}
	return FromArchive(data)
}

// FromArchive converts a decoded Archive into an Index, validating class
// names along the way.
func FromArchive(data Archive) (*Index, error) {
	if data.Version != 0 && data.Version != 1 {
		return nil, errors.New(errors.ErrCodeInvalidIndex, "unsupported archive version %d", data.Version)
	}

	classes := make([]*ClassInfo, 0, len(data.Classes))
	for _, rec := range data.Classes {
		if err := errors.ValidateClassName(rec.Name); err != nil {
			return nil, err
		}
		classes = append(classes, recordToClass(rec))
	}
	return Build(classes), nil
}

func classToRecord(c *ClassInfo) ClassRecord {
	rec := ClassRecord{
		Name:        string(c.Name),
		Super:       string(c.SuperName),
		Flags:       uint32(c.Flags),
		Annotations: annotationsToRecords(c.Annotations),
	}
	for _, i := range c.Interfaces {
		rec.Interfaces = append(rec.Interfaces, string(i))
	}
	for _, m := range c.Methods {
		mr := MethodRecord{
			Name:        m.Name,
			Flags:       uint32(m.Flags),
			Returns:     typeToRecord(m.ReturnType),
			Annotations: annotationsToRecords(m.Annotations),
		}
		for _, p := range m.Parameters {
			mr.Parameters = append(mr.Parameters, typeToRecord(p))
		}
		for _, pa := range m.ParameterAnnotations {
			mr.ParamAnnots = append(mr.ParamAnnots, annotationsToRecords(pa))
		}
		rec.Methods = append(rec.Methods, mr)
	}
	for _, f := range c.Fields {
		rec.Fields = append(rec.Fields, FieldRecord{
			Name:        f.Name,
			Flags:       uint32(f.Flags),
			Type:        typeToRecord(f.Type),
			Annotations: annotationsToRecords(f.Annotations),
		})
	}
	return rec
}

func recordToClass(rec ClassRecord) *ClassInfo {
	c := &ClassInfo{
		Name:        DotName(rec.Name),
		SuperName:   DotName(rec.Super),
		Flags:       Flags(rec.Flags),
		Annotations: recordsToAnnotations(rec.Annotations),
	}
	for _, i := range rec.Interfaces {
		c.Interfaces = append(c.Interfaces, DotName(i))
	}
	for _, mr := range rec.Methods {
		m := &MethodInfo{
			Name:           mr.Name,
			DeclaringClass: c.Name,
			Flags:          Flags(mr.Flags),
			ReturnType:     recordToType(mr.Returns),
			Annotations:    recordsToAnnotations(mr.Annotations),
		}
		for _, pr := range mr.Parameters {
			m.Parameters = append(m.Parameters, recordToType(pr))
		}
		for _, pa := range mr.ParamAnnots {
			m.ParameterAnnotations = append(m.ParameterAnnotations, recordsToAnnotations(pa))
		}
		c.Methods = append(c.Methods, m)
	}
	for _, fr := range rec.Fields {
		c.Fields = append(c.Fields, &FieldInfo{
			Name:           fr.Name,
			DeclaringClass: c.Name,
			Flags:          Flags(fr.Flags),
			Type:           recordToType(fr.Type),
			Annotations:    recordsToAnnotations(fr.Annotations),
		})
	}
	return c
}

func typeToRecord(t Type) TypeRecord {
	return TypeRecord{Kind: t.Kind.String(), Name: string(t.Name), Dimensions: t.Dimensions}
}

func recordToType(rec TypeRecord) Type {
	var kind TypeKind
	switch rec.Kind {
	case "primitive":
		kind = TypeKindPrimitive
	case "void", "":
		kind = TypeKindVoid
	case "array":
		kind = TypeKindArray
	default:
		kind = TypeKindClass
	}
	return Type{Kind: kind, Name: DotName(rec.Name), Dimensions: rec.Dimensions}
}

func annotationsToRecords(annotations []AnnotationInstance) []AnnotationRecord {
	var out []AnnotationRecord
	for _, a := range annotations {
		out = append(out, AnnotationRecord{Name: string(a.Name), Values: a.Values})
	}
	return out
}

func recordsToAnnotations(records []AnnotationRecord) []AnnotationInstance {
	var out []AnnotationInstance
	for _, r := range records {
		values := r.Values
		if values == nil {
			values = map[string]any{}
		}
		out = append(out, AnnotationInstance{Name: DotName(r.Name), Values: values})
	}
	return out
}
