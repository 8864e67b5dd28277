package parser

import (
	"fmt"
	"strings"

	"github.com/aluiziolira/go-crawl-nhl/models"
)

type fieldSource int

const (
	fromFragment fieldSource = iota
	fromJersey
	alwaysNull
)

type fieldSpec struct {
	path     []string
	optional bool
	source   fieldSource
}

func required(path ...string) fieldSpec { return fieldSpec{path: path} }

func optional(path ...string) fieldSpec { return fieldSpec{path: path, optional: true} }

func (f fieldSpec) name() string { return strings.Join(f.path, ".") }

// extract lays the fragment's fields out over columns in field order.
func extract(fragment string, data map[string]any, specs []fieldSpec, columns []string, jersey any) (models.Row, error) {
	if len(columns) != len(specs) {
		return models.Row{}, fmt.Errorf("%s normalizer needs %d columns, got %d", fragment, len(specs), len(columns))
	}

	row := models.NewRow(columns)
	for i, spec := range specs {
		switch spec.source {
		case fromJersey:
			row.Values[i] = jersey
		case alwaysNull:
			row.Values[i] = nil
		default:
			value, ok := lookup(data, spec.path)
			if !ok && !spec.optional {
				return models.Row{}, &MalformedRecordError{Fragment: fragment, Field: spec.name()}
			}
			row.Values[i] = value
		}
	}
	return row, nil
}

// lookup walks a nested path. A key present with a JSON null counts as present.
func lookup(data map[string]any, path []string) (any, bool) {
	var current any = data
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
