package graph

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Export is the on-disk shape of a directory export: one center entity and
// its connected groups. JSON exports parse through the same decoder since
// JSON is valid YAML.
type Export struct {
	Center Record   `yaml:"center"`
	Groups []Record `yaml:"groups"`
}

// Filter selects which groups make it into a snapshot. Changing the filter
// means building a new snapshot.
type Filter struct {
	// MaxGroups caps the number of groups; zero means unlimited.
	MaxGroups int
	// NameContains keeps groups whose name contains the text, ignoring case.
	NameContains string
}

// LoadFile reads a YAML or JSON export from disk.
func LoadFile(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError("load", "", err)
	}
	return Parse(data)
}

// Parse decodes an export document.
func Parse(data []byte) (*Export, error) {
	var e Export
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, newError("parse", "", err)
	}
	if e.Center.ID == "" {
		return nil, newError("parse", "", ErrNoCenter)
	}
	return &e, nil
}

// BuildSnapshot applies the filter to the export and builds a snapshot.
func BuildSnapshot(e *Export, f Filter) (*Snapshot, error) {
	if e == nil {
		return nil, newError("build", "", ErrNoCenter)
	}

	groups := e.Groups
	if f.NameContains != "" {
		needle := strings.ToLower(f.NameContains)
		groups = lo.Filter(groups, func(r Record, _ int) bool {
			return strings.Contains(strings.ToLower(r.Name), needle)
		})
	}
	if f.MaxGroups > 0 && len(groups) > f.MaxGroups {
		groups = groups[:f.MaxGroups]
	}

	center := e.Center
	center.IsCenter = true
	records := append([]Record{center}, lo.Map(groups, func(r Record, _ int) Record {
		r.IsCenter = false
		return r
	})...)

	s, err := NewSnapshot(records)
	if err != nil {
		return nil, fmt.Errorf("building snapshot for %q: %w", center.ID, err)
	}
	return s, nil
}
