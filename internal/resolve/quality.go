package resolve

import (
	"strconv"
	"strings"

	"flick/internal/media"
)

// SelectVariant picks the stream variant for a requested quality.
// With a request, the closest available quality at or below it wins,
// falling back to the highest available when nothing qualifies. Without
// a request, the highest available wins. Ties keep provider order.
// Variants without a numeric label only win when nothing numeric exists.
func SelectVariant(variants []media.Variant, requested string) media.Variant {
	if len(variants) == 0 {
		return media.Variant{}
	}

	reqN := parseQuality(requested)

	bestAtOrBelow := -1
	highest := -1
	for i, v := range variants {
		n := parseQuality(v.Quality)
		if n < 0 {
			continue
		}
		if highest < 0 || n > parseQuality(variants[highest].Quality) {
			highest = i
		}
		if reqN > 0 && n <= reqN {
			if bestAtOrBelow < 0 || n > parseQuality(variants[bestAtOrBelow].Quality) {
				bestAtOrBelow = i
			}
		}
	}

	switch {
	case reqN > 0 && bestAtOrBelow >= 0:
		return variants[bestAtOrBelow]
	case highest >= 0:
		return variants[highest]
	default:
		return variants[0]
	}
}

// parseQuality turns a quality label like "1080" or "720p" into its
// numeric value, -1 when the label is not numeric (e.g. "auto").
func parseQuality(label string) int {
	label = strings.TrimSuffix(strings.TrimSpace(label), "p")
	if label == "" {
		return -1
	}
	n, err := strconv.Atoi(label)
	if err != nil || n <= 0 {
		return -1
	}
	return n
}

// SelectSubtitle picks the first track matching the configured language
// tag, case-insensitively. No match means no subtitle, never an error.
func SelectSubtitle(subtitles []media.Subtitle, language string) *media.Subtitle {
	if language == "" {
		return nil
	}

	lang := strings.ToLower(language)
	for i, sub := range subtitles {
		if strings.Contains(strings.ToLower(sub.Language), lang) ||
			strings.Contains(strings.ToLower(sub.Label), lang) {
			return &subtitles[i]
		}
	}

	return nil
}
