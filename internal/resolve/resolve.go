// Package resolve sequences a resolution request end to end: provider
// selection and fallback, season/episode selection, embed link
// fetching, extraction, decryption, and quality/subtitle selection.
// A Resolver holds no per-request state; each request runs its own
// state machine to completion.
package resolve

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"flick/internal/decrypt"
	"flick/internal/extract"
	"flick/internal/media"
	"flick/internal/provider"
)

// State is a stage of one resolution request.
type State int

const (
	StateSearching State = iota
	StateCandidateSelected
	StateEpisodeSelecting
	StateLinkFetching
	StateExtracting
	StateDecrypting
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateCandidateSelected:
		return "candidate-selected"
	case StateEpisodeSelecting:
		return "episode-selecting"
	case StateLinkFetching:
		return "link-fetching"
	case StateExtracting:
		return "extracting"
	case StateDecrypting:
		return "decrypting"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Chooser presents ordered candidates and returns the chosen index.
// A cancelled selection returns media.ErrCancelled.
type Chooser interface {
	Choose(prompt string, items []string) (int, error)
}

// ChooserFunc adapts a function to the Chooser interface.
type ChooserFunc func(prompt string, items []string) (int, error)

func (f ChooserFunc) Choose(prompt string, items []string) (int, error) {
	return f(prompt, items)
}

// Request describes one resolution request.
type Request struct {
	Query    string
	Season   int    // 0 = ask the chooser (TV only)
	Episode  int    // 0 = ask the chooser (TV only)
	Server   string // Preferred mirror server label, e.g. "Vidcloud"
	Quality  string // Requested quality, "" = highest available
	Language string // Preferred subtitle language tag
}

// Result is the terminal Resolved state of a request.
type Result struct {
	Media    media.SearchResult
	Title    string // Display title, includes SxxEyy for episodes
	Season   int
	Episode  int
	Stream   media.Stream
	Subtitle *media.Subtitle   // nil when no language match
	Layout   [][]media.Episode // Episodes per season, nil for movies
}

// Resolver turns requests into playable streams. Safe for sequential
// reuse; it retains no state between invocations.
type Resolver struct {
	providers []provider.Provider
	extractor extract.Extractor
	log       zerolog.Logger
}

// New creates a Resolver over an ordered provider list.
func New(providers []provider.Provider, extractor extract.Extractor, log zerolog.Logger) *Resolver {
	return &Resolver{
		providers: providers,
		extractor: extractor,
		log:       log,
	}
}

// Resolve runs the full state machine for a query.
func (r *Resolver) Resolve(req Request, choose Chooser) (*Result, error) {
	r.log.Debug().Stringer("state", StateSearching).Str("query", req.Query).Msg("resolving")

	var attempted []string
	for _, p := range r.providers {
		results, err := p.Search(req.Query)
		if err != nil {
			if errors.Is(err, media.ErrNotFound) || errors.Is(err, media.ErrUpstreamUnavailable) {
				r.log.Debug().Str("provider", p.Name()).Err(err).Msg("provider skipped")
				attempted = append(attempted, p.Name())
				continue
			}
			return nil, err
		}

		idx := 0
		if len(results) > 1 {
			items := make([]string, len(results))
			for i, res := range results {
				items[i] = provider.FormatDisplayTitle(res)
			}
			idx, err = choose.Choose("Select", items)
			if err != nil {
				return nil, err
			}
		}

		r.log.Debug().Stringer("state", StateCandidateSelected).
			Str("provider", p.Name()).Str("id", results[idx].ID).Msg("candidate chosen")

		return r.ResolveCandidate(p, results[idx], req, choose)
	}

	return nil, fmt.Errorf("%w: %q (tried providers: %v)", media.ErrNotFound, req.Query, attempted)
}

// ResolveCandidate resolves an already-selected search result. Used
// directly by the trending, recent, and history flows.
func (r *Resolver) ResolveCandidate(p provider.Provider, selected media.SearchResult, req Request, choose Chooser) (*Result, error) {
	result := &Result{
		Media: selected,
		Title: selected.Title,
	}

	episodeID := ""
	if selected.Type == media.TV {
		var err error
		episodeID, err = r.selectEpisode(p, selected, req, choose, result)
		if err != nil {
			return nil, err
		}
	}

	stream, subtitle, err := r.resolveStream(p, selected, episodeID, req, result.Title)
	if err != nil {
		return nil, err
	}

	result.Stream = *stream
	result.Subtitle = subtitle
	r.log.Debug().Stringer("state", StateResolved).
		Str("quality", stream.Quality).Str("title", result.Title).Msg("resolved")
	return result, nil
}

// selectEpisode loads the full season layout, picks a season and
// episode (from the request or the chooser), and fills in the result.
func (r *Resolver) selectEpisode(p provider.Provider, selected media.SearchResult, req Request, choose Chooser, result *Result) (string, error) {
	r.log.Debug().Stringer("state", StateEpisodeSelecting).Str("id", selected.ID).Msg("loading seasons")

	seasons, err := p.GetSeasons(selected.ID)
	if err != nil {
		return "", fmt.Errorf("getting seasons for %q: %w", selected.Title, err)
	}
	if len(seasons) == 0 {
		return "", fmt.Errorf("no seasons for %q: %w", selected.Title, media.ErrUpstreamUnavailable)
	}

	// The full layout is needed for resume-advance, so every season's
	// episode list is loaded up front.
	layout := make([][]media.Episode, len(seasons))
	for i, s := range seasons {
		episodes, err := p.GetEpisodes(selected.ID, s.ID)
		if err != nil {
			return "", fmt.Errorf("getting episodes for season %d of %q: %w", s.Number, selected.Title, err)
		}
		layout[i] = episodes
	}
	result.Layout = layout

	seasonIdx := 0
	switch {
	case req.Season > 0:
		// A requested season must exist. Providers renumber or drop
		// seasons, and silently playing season one instead would
		// corrupt a resume position.
		seasonIdx = -1
		for i, s := range seasons {
			if s.Number == req.Season {
				seasonIdx = i
				break
			}
		}
		if seasonIdx < 0 {
			return "", fmt.Errorf("season %d of %q no longer listed: %w", req.Season, selected.Title, media.ErrNotFound)
		}
	case len(seasons) > 1:
		items := make([]string, len(seasons))
		for i, s := range seasons {
			items[i] = fmt.Sprintf("Season %d", s.Number)
		}
		seasonIdx, err = choose.Choose("Season", items)
		if err != nil {
			return "", err
		}
	}

	episodes := layout[seasonIdx]
	if len(episodes) == 0 {
		return "", fmt.Errorf("no episodes in season %d of %q: %w", seasons[seasonIdx].Number, selected.Title, media.ErrUpstreamUnavailable)
	}

	episodeIdx := 0
	switch {
	case req.Episode > 0:
		episodeIdx = -1
		for i, ep := range episodes {
			if ep.Number == req.Episode {
				episodeIdx = i
				break
			}
		}
		if episodeIdx < 0 {
			return "", fmt.Errorf("episode %d of season %d of %q no longer listed: %w",
				req.Episode, seasons[seasonIdx].Number, selected.Title, media.ErrNotFound)
		}
	case len(episodes) > 1:
		items := make([]string, len(episodes))
		for i, ep := range episodes {
			if ep.Title != "" {
				items[i] = fmt.Sprintf("Episode %d: %s", ep.Number, ep.Title)
			} else {
				items[i] = fmt.Sprintf("Episode %d", ep.Number)
			}
		}
		episodeIdx, err = choose.Choose("Episode", items)
		if err != nil {
			return "", err
		}
	}

	season := seasons[seasonIdx]
	episode := episodes[episodeIdx]

	result.Season = season.Number
	result.Episode = episode.Number
	result.Title = fmt.Sprintf("%s S%02dE%02d", selected.Title, season.Number, episode.Number)

	return episode.ID, nil
}

// resolveStream fetches every embed link for the content, then walks
// them in preference order through extraction and decryption until one
// yields a playable stream.
func (r *Resolver) resolveStream(p provider.Provider, selected media.SearchResult, episodeID string, req Request, title string) (*media.Stream, *media.Subtitle, error) {
	r.log.Debug().Stringer("state", StateLinkFetching).Str("title", title).Msg("fetching servers")

	servers, err := p.GetServers(selected.ID, episodeID)
	if err != nil {
		return nil, nil, fmt.Errorf("getting servers for %q: %w", title, err)
	}
	if len(servers) == 0 {
		return nil, nil, fmt.Errorf("no servers for %q: %w", title, media.ErrNoPlayableSource)
	}

	links := r.fetchEmbedLinks(p, orderServers(servers, req.Server))

	attempted := 0
	for _, link := range links {
		if link.URL == "" {
			continue // embed URL fetch failed, already logged
		}
		attempted++

		stream, subtitle, err := r.resolveLink(link, req)
		if err != nil {
			if errors.Is(err, media.ErrExtractionFailed) ||
				errors.Is(err, media.ErrDecryptionFailed) ||
				errors.Is(err, media.ErrUpstreamUnavailable) {
				r.log.Debug().Str("server", link.Server.Name).Err(err).Msg("embed link skipped")
				continue
			}
			return nil, nil, err
		}

		return stream, subtitle, nil
	}

	return nil, nil, fmt.Errorf("resolving %q: exhausted %d of %d embed links: %w",
		title, attempted, len(servers), media.ErrNoPlayableSource)
}

// resolveLink runs one embed link through extraction and decryption and
// applies the quality and subtitle selection rules.
func (r *Resolver) resolveLink(link media.EmbedLink, req Request) (*media.Stream, *media.Subtitle, error) {
	r.log.Debug().Stringer("state", StateExtracting).Str("server", link.Server.Name).Msg("extracting")

	payload, err := r.extractor.Extract(link.URL)
	if err != nil {
		return nil, nil, err
	}

	r.log.Debug().Stringer("state", StateDecrypting).Str("server", link.Server.Name).Msg("decrypting")

	var set *media.SourceSet
	if payload.Encrypted() {
		set, err = decrypt.Sources(payload.Ciphertext, decrypt.Material{
			ClientKey:   payload.ClientKey,
			ProviderKey: payload.ProviderKey,
		})
	} else {
		set, err = decrypt.ParseSourceSet(payload.Plain)
		if err != nil {
			err = fmt.Errorf("%w: %w", media.ErrDecryptionFailed, err)
		}
	}
	if err != nil {
		return nil, nil, err
	}
	set.Subtitles = payload.Tracks

	variant := SelectVariant(set.Variants, req.Quality)
	subtitle := SelectSubtitle(set.Subtitles, req.Language)

	return &media.Stream{
		URL:       variant.URL,
		Quality:   variant.Quality,
		Subtitles: set.Subtitles,
	}, subtitle, nil
}

// fetchEmbedLinks resolves embed URLs for all servers concurrently,
// buffering every result so selection stays in preference order rather
// than racing on whichever upstream answers first.
func (r *Resolver) fetchEmbedLinks(p provider.Provider, servers []media.Server) []media.EmbedLink {
	links := make([]media.EmbedLink, len(servers))

	var wg sync.WaitGroup
	for i, server := range servers {
		links[i].Server = server

		wg.Add(1)
		go func(i int, server media.Server) {
			defer wg.Done()
			url, err := p.GetEmbedURL(server.ID)
			if err != nil {
				r.log.Debug().Str("server", server.Name).Err(err).Msg("embed URL fetch failed")
				return
			}
			links[i].URL = url
		}(i, server)
	}
	wg.Wait()

	return links
}

// orderServers puts servers matching the preferred label first while
// keeping the provider's listed order otherwise.
func orderServers(servers []media.Server, preferred string) []media.Server {
	if preferred == "" {
		return servers
	}

	ordered := make([]media.Server, 0, len(servers))
	for _, s := range servers {
		if strings.EqualFold(s.Name, preferred) {
			ordered = append(ordered, s)
		}
	}
	for _, s := range servers {
		if !strings.EqualFold(s.Name, preferred) {
			ordered = append(ordered, s)
		}
	}
	return ordered
}
