package history

import "flick/internal/media"

// NextEpisode returns the episode following (season, episode) in a
// season layout: the next episode of the same season when one exists,
// else the first episode of the next season. ok is false when the given
// episode is the last of the last season. The returned pair is always
// strictly greater in (season, episode) order; provider data that would
// violate that is treated as having no successor.
func NextEpisode(layout [][]media.Episode, season, episode int) (nextSeason, nextEpisode int, ok bool) {
	row := season - 1
	if row < 0 || row >= len(layout) {
		return 0, 0, false
	}

	idx := -1
	for i, ep := range layout[row] {
		if ep.Number == episode {
			idx = i
			break
		}
	}
	if idx == -1 {
		// Provider renumbered the season under us; position fallback
		idx = episode - 1
		if idx < 0 || idx >= len(layout[row]) {
			return 0, 0, false
		}
	}

	if idx+1 < len(layout[row]) {
		next := layout[row][idx+1].Number
		if next <= episode {
			return 0, 0, false
		}
		return season, next, true
	}

	if row+1 < len(layout) && len(layout[row+1]) > 0 {
		return season + 1, layout[row+1][0].Number, true
	}

	return 0, 0, false
}
