// Package schema holds the versioned output column contracts.
package schema

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownSchemaVersion is returned when no column mapping exists for a version.
var ErrUnknownSchemaVersion = errors.New("schema: unknown version")

// Column group boundaries shared by every registered version.
const (
	PersonWidth = 28
	GoalieWidth = 17
	SkaterWidth = 21

	personEnd = PersonWidth
	goalieEnd = personEnd + GoalieWidth
	skaterEnd = goalieEnd + SkaterWidth

	// Width is the total number of output columns.
	Width = skaterEnd
)

// SideColumn is the trailing skater slot reserved for a team-side annotation.
const SideColumn = "side"

// Columns is an ordered, immutable output column list.
type Columns struct {
	version string
	names   []string
}

var registry = map[string][]string{
	"v1": v1Columns,
}

// Lookup returns the column contract registered for version.
func Lookup(version string) (Columns, error) {
	names, ok := registry[version]
	if !ok {
		return Columns{}, fmt.Errorf("%w: %q", ErrUnknownSchemaVersion, version)
	}
	if len(names) != Width {
		return Columns{}, fmt.Errorf("schema %q has %d columns, want %d", version, len(names), Width)
	}
	return Columns{version: version, names: names}, nil
}

// Versions lists the registered schema versions in sorted order.
func Versions() []string {
	out := make([]string, 0, len(registry))
	for v := range registry {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Version reports the version key the columns were looked up with.
func (c Columns) Version() string { return c.version }

// Len returns the full row width.
func (c Columns) Len() int { return len(c.names) }

// All returns a copy of the full column list.
func (c Columns) All() []string { return clone(c.names) }

// Person returns the person columns, [0:28).
func (c Columns) Person() []string { return clone(c.names[:personEnd]) }

// Goalie returns the goalie stat columns, [28:45).
func (c Columns) Goalie() []string { return clone(c.names[personEnd:goalieEnd]) }

// Skater returns the skater stat columns, [45:66). The last one is SideColumn.
func (c Columns) Skater() []string { return clone(c.names[goalieEnd:skaterEnd]) }

// GoalieOffset is the index of the first goalie column in a full row.
func (c Columns) GoalieOffset() int { return personEnd }

// SkaterOffset is the index of the first skater column in a full row.
func (c Columns) SkaterOffset() int { return goalieEnd }

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
