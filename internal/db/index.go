package db

import (
	"errors"
	"fmt"
	"strconv"
)

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

// DistanceCosine is the only metric the similarity index uses; scores are 1 - distance.
const DistanceCosine DistanceMetric = "COSINE"

// FieldKind enumerates the schema field kinds a record index needs.
type FieldKind int

const (
	// FieldTag is an exact-match TAG field.
	FieldTag FieldKind = iota + 1
	// FieldVector is an HNSW VECTOR field of FLOAT32 components.
	FieldVector
)

// VectorSpec holds HNSW parameters. Zero M or EFConstruction leaves the server default.
type VectorSpec struct {
	Dim            int
	Distance       DistanceMetric
	M              int
	EFConstruction int
}

// IndexField is one JSON path indexed under an alias.
type IndexField struct {
	Path          string // JSONPath, e.g. "$.embedding"
	Alias         string
	Kind          FieldKind
	CaseSensitive bool        // TAG only
	Vector        *VectorSpec // VECTOR only
}

// IndexDefinition is an FT index over JSON documents sharing key prefixes.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Path == "" {
			return errors.New("field path is required at index " + strconv.Itoa(i))
		}
		if f.Alias == "" {
			return errors.New("field " + f.Path + " requires an alias")
		}
		if seen[f.Alias] {
			return errors.New("duplicate field alias: " + f.Alias)
		}
		seen[f.Alias] = true

		switch f.Kind {
		case FieldTag:
		case FieldVector:
			if f.Vector == nil || f.Vector.Dim <= 0 {
				return errors.New("vector field requires positive DIM")
			}
		default:
			return fmt.Errorf("field %s: unknown kind %d", f.Alias, f.Kind)
		}
	}
	return nil
}

// CreateArgs renders the FT.CREATE arguments, index name first.
func (idx *IndexDefinition) CreateArgs() ([]string, error) {
	if err := idx.Validate(); err != nil {
		return nil, err
	}

	args := []string{idx.Name, "ON", "JSON"}
	if len(idx.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(idx.Prefixes)))
		args = append(args, idx.Prefixes...)
	}

	args = append(args, "SCHEMA")
	for i := range idx.Fields {
		f := &idx.Fields[i]
		args = append(args, f.Path, "AS", f.Alias)
		switch f.Kind {
		case FieldTag:
			args = append(args, "TAG")
			if f.CaseSensitive {
				args = append(args, "CASESENSITIVE")
			}
		case FieldVector:
			args = append(args, vectorArgs(f.Vector)...)
		}
	}
	return args, nil
}

func vectorArgs(v *VectorSpec) []string {
	distance := v.Distance
	if distance == "" {
		distance = DistanceCosine
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(v.Dim),
		"DISTANCE_METRIC", string(distance),
	}
	if v.M > 0 {
		attrs = append(attrs, "M", strconv.Itoa(v.M))
	}
	if v.EFConstruction > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(v.EFConstruction))
	}

	out := make([]string, 0, 3+len(attrs))
	out = append(out, "VECTOR", "HNSW", strconv.Itoa(len(attrs)))
	return append(out, attrs...)
}

// VectorDim returns the dimension of the first vector field, or 0 when there is none.
func (idx *IndexDefinition) VectorDim() int {
	for i := range idx.Fields {
		if f := &idx.Fields[i]; f.Kind == FieldVector && f.Vector != nil {
			return f.Vector.Dim
		}
	}
	return 0
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
