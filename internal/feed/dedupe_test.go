package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/resqlink/internal/gdacs"
)

func TestDedupe_FirstOccurrenceWins(t *testing.T) {
	first := feature(42, "EQ", "Green", "2024-10-18")
	first.Properties.Country = "Nepal"
	second := feature(42, "EQ", "Red", "2024-10-19")
	second.Properties.Country = "India"
	second.Properties.Name = "A more complete record"

	events := Dedupe([]gdacs.Feature{first, second})

	require.Len(t, events, 1)
	assert.Equal(t, "Nepal", events[0].Location)
	assert.Empty(t, events[0].Title)
}

func TestDedupe_KeepsOrder(t *testing.T) {
	in := []gdacs.Feature{
		feature(3, "EQ", "Green", ""),
		feature(1, "FL", "Green", ""),
		feature(3, "TC", "Green", ""),
		feature(2, "DR", "Green", ""),
		feature(1, "VO", "Green", ""),
	}

	events := Dedupe(in)

	require.Len(t, events, 3)
	for i, want := range []int64{3, 1, 2} {
		assert.Equal(t, want, events[i].ID)
	}
}

func TestDedupe_UniqueIDs(t *testing.T) {
	var in []gdacs.Feature
	for i := 0; i < 50; i++ {
		in = append(in, feature(int64(i%7), "EQ", "Green", ""))
	}

	events := Dedupe(in)

	assert.LessOrEqual(t, len(events), len(in))
	seen := map[int64]bool{}
	for _, e := range events {
		assert.False(t, seen[e.ID], "duplicate id %d", e.ID)
		seen[e.ID] = true
	}
	assert.Len(t, events, 7)
}

func TestDedupe_Empty(t *testing.T) {
	events := Dedupe(nil)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}
