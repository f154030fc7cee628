package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []Record {
	return []Record{
		{ID: "g1", Name: "Platform"},
		{ID: "me", Name: "Ada", IsCenter: true},
		{ID: "g2", Name: "Design Guild", PhotoURL: "photos/g2.png"},
		{ID: "g3", Name: "Infra"},
	}
}

func TestNewSnapshot(t *testing.T) {
	s, err := NewSnapshot(sampleRecords())
	require.NoError(t, err)

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, "me", s.Center().ID)
	assert.True(t, s.Center().IsCenter)

	ids := []string{}
	for _, g := range s.Groups() {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []string{"g1", "g2", "g3"}, ids, "groups keep source order")
	assert.NotEmpty(t, s.Generation)

	n, ok := s.Lookup("g2")
	require.True(t, ok)
	assert.Equal(t, "photos/g2.png", n.PhotoURL)
}

func TestNewSnapshotErrors(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		want    error
	}{
		{"empty", nil, ErrNoCenter},
		{"no center", []Record{{ID: "a"}}, ErrNoCenter},
		{"two centers", []Record{{ID: "a", IsCenter: true}, {ID: "b", IsCenter: true}}, ErrMultipleCenters},
		{"duplicate", []Record{{ID: "c", IsCenter: true}, {ID: "a"}, {ID: "a"}}, ErrDuplicateNode},
		{"missing id", []Record{{ID: "c", IsCenter: true}, {Name: "nameless"}}, ErrInvalidRecord},
		{"bad photo", []Record{{ID: "c", IsCenter: true, PhotoURL: "gopher://x"}}, ErrInvalidRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSnapshot(tt.records)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var gerr *GraphError
			assert.True(t, errors.As(err, &gerr))
		})
	}
}

func TestSnapshotGenerationsDiffer(t *testing.T) {
	a, err := NewSnapshot(sampleRecords())
	require.NoError(t, err)
	b, err := NewSnapshot(sampleRecords())
	require.NoError(t, err)
	assert.NotEqual(t, a.Generation, b.Generation)
}

func TestMustLookup(t *testing.T) {
	s, err := NewSnapshot(sampleRecords())
	require.NoError(t, err)

	_, err = s.MustLookup("nope")
	assert.ErrorIs(t, err, ErrUnknownNode)
	assert.Contains(t, err.Error(), `"nope"`)
}

func TestCarryLayoutState(t *testing.T) {
	prev, err := NewSnapshot(sampleRecords())
	require.NoError(t, err)
	g2, _ := prev.Lookup("g2")
	g2.OrbitAngle, g2.AngleSet = 1.25, true
	g2.X, g2.Y = 10, -4

	next, err := NewSnapshot([]Record{
		{ID: "me", IsCenter: true},
		{ID: "g2"},
		{ID: "g9"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, next.CarryLayoutState(prev), "center and g2 carry over")

	carried, _ := next.Lookup("g2")
	assert.True(t, carried.AngleSet)
	assert.Equal(t, 1.25, carried.OrbitAngle)
	assert.Equal(t, 10.0, carried.X)

	fresh, _ := next.Lookup("g9")
	assert.False(t, fresh.AngleSet)
	assert.Zero(t, next.CarryLayoutState(nil))
}

func TestNodePinning(t *testing.T) {
	n := &Node{ID: "a", VX: 3}
	n.Pin(5, 6)
	require.True(t, n.Pinned())
	assert.Equal(t, 5.0, *n.FX)
	assert.Equal(t, 6.0, n.Y)
	assert.Zero(t, n.VX)

	n.Unpin()
	assert.False(t, n.Pinned())

	assert.Equal(t, "a", n.Label())
	n.Name = "Alpha"
	assert.Equal(t, "Alpha", n.Label())
}
