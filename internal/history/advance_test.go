package history

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"flick/internal/media"
)

func TestNextEpisode(t *testing.T) {
	layout := twoSeasonLayout()

	tests := []struct {
		name        string
		season      int
		episode     int
		wantSeason  int
		wantEpisode int
		wantOK      bool
	}{
		{"mid season", 2, 1, 2, 2, true},
		{"end of season rolls over", 1, 2, 2, 1, true},
		{"final episode", 2, 3, 0, 0, false},
		{"unknown season", 5, 1, 0, 0, false},
		{"nil layout", 0, 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l [][]media.Episode
			if tt.name != "nil layout" {
				l = layout
			}
			season, episode, ok := NextEpisode(l, tt.season, tt.episode)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantSeason, season)
				assert.Equal(t, tt.wantEpisode, episode)
			}
		})
	}
}

func TestNextEpisodeSkipsGaps(t *testing.T) {
	// Providers sometimes list non-contiguous episode numbers; the next
	// episode is the first with a strictly greater number.
	layout := [][]media.Episode{
		{{Number: 1, ID: "a"}, {Number: 3, ID: "b"}, {Number: 5, ID: "c"}},
	}

	season, episode, ok := NextEpisode(layout, 1, 3)
	assert.True(t, ok)
	assert.Equal(t, 1, season)
	assert.Equal(t, 5, episode)
}

func TestNextEpisodeStrictlyIncreases(t *testing.T) {
	layout := twoSeasonLayout()

	season, episode := 1, 1
	for i := 0; i < 10; i++ {
		nextSeason, nextEpisode, ok := NextEpisode(layout, season, episode)
		if !ok {
			return
		}
		after := nextSeason > season || (nextSeason == season && nextEpisode > episode)
		assert.True(t, after, "advance from S%dE%d went to S%dE%d", season, episode, nextSeason, nextEpisode)
		season, episode = nextSeason, nextEpisode
	}
	t.Fatal("advance never terminated")
}
