// Package provider defines the capability interface for streaming-site
// clients and their implementations. Providers are known at build time;
// the registry orders them by user preference.
package provider

import (
	"fmt"
	"strings"

	"flick/internal/media"
)

// Provider is the capability set every streaming site must implement.
// Search returns media.ErrNotFound when a query has zero hits; all
// network and parse failures wrap media.ErrUpstreamUnavailable so the
// orchestrator can skip to the next candidate source.
type Provider interface {
	// Name returns the provider's registry name (e.g. "flixhq").
	Name() string

	// Search returns matching results for a query.
	Search(query string) ([]media.SearchResult, error)

	// GetSeasons returns available seasons for a TV show.
	GetSeasons(id string) ([]media.Season, error)

	// GetEpisodes returns episodes for a given season.
	GetEpisodes(id string, seasonID string) ([]media.Episode, error)

	// GetServers returns available mirror servers.
	// For movies, episodeID is empty.
	GetServers(id string, episodeID string) ([]media.Server, error)

	// GetEmbedURL returns the embed URL for a given server.
	GetEmbedURL(serverID string) (string, error)

	// Trending returns trending content.
	Trending(mediaType media.MediaType) ([]media.SearchResult, error)

	// Recent returns recently added content.
	Recent(mediaType media.MediaType) ([]media.SearchResult, error)
}

// Registry returns all providers ordered with the preferred one first.
// The remaining order is fixed, so fallback is deterministic.
func Registry(preferred, flixhqBase, sflixBase string) []Provider {
	all := []Provider{
		NewFlixHQ(flixhqBase),
		NewSflix(sflixBase),
	}

	for i, p := range all {
		if strings.EqualFold(p.Name(), preferred) {
			all[0], all[i] = all[i], all[0]
			break
		}
	}

	return all
}

// FormatDisplayTitle creates a display string for menu selection.
func FormatDisplayTitle(r media.SearchResult) string {
	parts := []string{r.Title}
	if r.Year != "" {
		parts = append(parts, fmt.Sprintf("(%s)", r.Year))
	}
	if r.Type == media.TV {
		parts = append(parts, "[TV]")
	} else {
		parts = append(parts, "[Movie]")
	}
	return strings.Join(parts, " ")
}
