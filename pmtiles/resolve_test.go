package pmtiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	entries := []Entry{
		{TileID: 10, RunLength: 1, Offset: 0, Length: 5},
		{TileID: 20, RunLength: 3, Offset: 5, Length: 8},
		{TileID: 40, RunLength: 0, Offset: 100, Length: 50},
		{TileID: 90, RunLength: 1, Offset: 13, Length: 2},
	}
	cases := []struct {
		id   uint64
		want Resolution
	}{
		{0, Resolution{Outcome: Miss}},
		{9, Resolution{Outcome: Miss}},
		{10, Resolution{Outcome: Hit, Offset: 0, Length: 5}},
		{11, Resolution{Outcome: Miss}},
		{20, Resolution{Outcome: Hit, Offset: 5, Length: 8}},
		{22, Resolution{Outcome: Hit, Offset: 5, Length: 8}},
		{23, Resolution{Outcome: Miss}},
		{40, Resolution{Outcome: Redirect, Offset: 100, Length: 50}},
		{89, Resolution{Outcome: Redirect, Offset: 100, Length: 50}},
		{90, Resolution{Outcome: Hit, Offset: 13, Length: 2}},
		{91, Resolution{Outcome: Miss}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Resolve(entries, c.id), "id %d", c.id)
	}
	assert.Equal(t, Resolution{Outcome: Miss}, Resolve(nil, 0))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "hit", Hit.String())
	assert.Equal(t, "redirect", Redirect.String())
	assert.Equal(t, "miss", Miss.String())
}
