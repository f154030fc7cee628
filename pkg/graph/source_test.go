package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportYAML = `
center:
  id: me
  name: Ada Lovelace
  photo: photos/me.png
groups:
  - id: g1
    name: Analytical Engines
    description: Hardware guild
  - id: g2
    name: Poetry Society
  - id: g3
    name: Engine Room
`

const exportJSON = `{
  "center": {"id": "me", "name": "Ada"},
  "groups": [{"id": "g1", "name": "One"}, {"id": "g2", "name": "Two"}]
}`

func TestParseYAMLAndJSON(t *testing.T) {
	y, err := Parse([]byte(exportYAML))
	require.NoError(t, err)
	assert.Equal(t, "me", y.Center.ID)
	assert.Len(t, y.Groups, 3)
	assert.Equal(t, "Hardware guild", y.Groups[0].Description)

	j, err := Parse([]byte(exportJSON))
	require.NoError(t, err)
	assert.Len(t, j.Groups, 2)
}

func TestParseRejectsMissingCenter(t *testing.T) {
	_, err := Parse([]byte("groups: [{id: g1}]"))
	assert.ErrorIs(t, err, ErrNoCenter)

	_, err = Parse([]byte("center: [unclosed"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.yaml")
	require.NoError(t, os.WriteFile(path, []byte(exportYAML), 0o600))

	e, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", e.Center.Name)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuildSnapshotFilter(t *testing.T) {
	e, err := Parse([]byte(exportYAML))
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter", Filter{}, []string{"g1", "g2", "g3"}},
		{"max groups", Filter{MaxGroups: 2}, []string{"g1", "g2"}},
		{"name contains ignores case", Filter{NameContains: "ENGINE"}, []string{"g1", "g3"}},
		{"combined", Filter{NameContains: "engine", MaxGroups: 1}, []string{"g1"}},
		{"nothing matches", Filter{NameContains: "zzz"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := BuildSnapshot(e, tt.filter)
			require.NoError(t, err)
			got := []string{}
			for _, g := range s.Groups() {
				got = append(got, g.ID)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "me", s.Center().ID)
		})
	}
}

func TestBuildSnapshotIgnoresCenterFlagsOnGroups(t *testing.T) {
	e := &Export{
		Center: Record{ID: "me"},
		Groups: []Record{{ID: "g1", IsCenter: true}},
	}
	s, err := BuildSnapshot(e, Filter{})
	require.NoError(t, err)
	g, _ := s.Lookup("g1")
	assert.False(t, g.IsCenter)
}

func TestAdapterViews(t *testing.T) {
	s, err := NewSnapshot(sampleRecords())
	require.NoError(t, err)
	a := NewAdapter(nil)

	solar := a.Solar(s)
	assert.Len(t, solar.Nodes, 4)
	require.Len(t, solar.Links, 3)
	for _, l := range solar.Links {
		assert.Equal(t, "me", l.Source)
		assert.Equal(t, 1.0, l.Weight)
	}

	mesh := a.Mesh(s)
	assert.Len(t, mesh.Nodes, 3)
	assert.Empty(t, mesh.Links)
	for _, n := range mesh.Nodes {
		assert.False(t, n.IsCenter)
	}
}
