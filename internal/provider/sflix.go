package provider

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"flick/internal/httputil"
	"flick/internal/media"
)

// Sflix implements the Provider interface for the Sflix content source.
// The site serves the same markup family as FlixHQ with slightly
// different ajax endpoints, so the document parsers are shared.
type Sflix struct {
	base   string // e.g., "sflix.to"
	client *http.Client
}

// NewSflix creates a new Sflix provider.
func NewSflix(base string) *Sflix {
	return &Sflix{
		base:   base,
		client: httputil.NewClient(),
	}
}

func (s *Sflix) Name() string { return "sflix" }

func (s *Sflix) baseURL() string {
	return "https://" + s.base
}

// Search returns matching results for a query.
func (s *Sflix) Search(query string) ([]media.SearchResult, error) {
	url := fmt.Sprintf("%s/search/%s", s.baseURL(), httputil.EncodeQuery(query))

	doc, err := s.fetchDocument(url)
	if err != nil {
		return nil, fmt.Errorf("searching for %q: %w: %w", query, media.ErrUpstreamUnavailable, err)
	}

	results := parseSearchResults(doc)
	if len(results) == 0 {
		return nil, fmt.Errorf("searching for %q: %w", query, media.ErrNotFound)
	}

	s.qualify(results)
	return results, nil
}

// GetSeasons returns available seasons for a TV show.
func (s *Sflix) GetSeasons(id string) ([]media.Season, error) {
	if err := httputil.ValidateID(id); err != nil {
		return nil, fmt.Errorf("invalid content ID: %w", err)
	}

	numID := extractNumericID(id)
	if numID == "" {
		return nil, fmt.Errorf("cannot extract numeric ID from %q", id)
	}

	url := fmt.Sprintf("%s/ajax/season/list/%s", s.baseURL(), numID)
	doc, err := s.fetchDocument(url)
	if err != nil {
		return nil, fmt.Errorf("getting seasons: %w: %w", media.ErrUpstreamUnavailable, err)
	}

	return parseSeasons(doc), nil
}

// GetEpisodes returns episodes for a given season.
func (s *Sflix) GetEpisodes(id string, seasonID string) ([]media.Episode, error) {
	if err := httputil.ValidateID(seasonID); err != nil {
		return nil, fmt.Errorf("invalid season ID: %w", err)
	}

	url := fmt.Sprintf("%s/ajax/season/episodes/%s", s.baseURL(), seasonID)
	doc, err := s.fetchDocument(url)
	if err != nil {
		return nil, fmt.Errorf("getting episodes: %w: %w", media.ErrUpstreamUnavailable, err)
	}

	return parseEpisodes(doc), nil
}

// GetServers returns available mirror servers for content.
func (s *Sflix) GetServers(id string, episodeID string) ([]media.Server, error) {
	var url string

	if episodeID != "" {
		if err := httputil.ValidateID(episodeID); err != nil {
			return nil, fmt.Errorf("invalid episode ID: %w", err)
		}
		url = fmt.Sprintf("%s/ajax/episode/servers/%s", s.baseURL(), episodeID)
	} else {
		if err := httputil.ValidateID(id); err != nil {
			return nil, fmt.Errorf("invalid content ID: %w", err)
		}
		numID := extractNumericID(id)
		if numID == "" {
			return nil, fmt.Errorf("cannot extract numeric ID from %q", id)
		}
		url = fmt.Sprintf("%s/ajax/episode/list/%s", s.baseURL(), numID)
	}

	doc, err := s.fetchDocument(url)
	if err != nil {
		return nil, fmt.Errorf("getting servers: %w: %w", media.ErrUpstreamUnavailable, err)
	}

	return parseServers(doc), nil
}

// GetEmbedURL returns the embed URL for a given server.
func (s *Sflix) GetEmbedURL(serverID string) (string, error) {
	if err := httputil.ValidateID(serverID); err != nil {
		return "", fmt.Errorf("invalid server ID: %w", err)
	}

	url := fmt.Sprintf("%s/ajax/episode/sources/%s", s.baseURL(), serverID)
	body, err := httputil.GetJSON(s.client, url, s.baseURL()+"/")
	if err != nil {
		return "", fmt.Errorf("getting embed URL: %w: %w", media.ErrUpstreamUnavailable, err)
	}

	var result struct {
		Link string `json:"link"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parsing embed response: %w: %w", media.ErrUpstreamUnavailable, err)
	}

	if result.Link == "" {
		return "", fmt.Errorf("no embed URL for server %s: %w", serverID, media.ErrUpstreamUnavailable)
	}

	return result.Link, nil
}

// Trending returns trending content from the /home page.
func (s *Sflix) Trending(mediaType media.MediaType) ([]media.SearchResult, error) {
	doc, err := s.fetchDocument(s.baseURL() + "/home")
	if err != nil {
		return nil, fmt.Errorf("getting trending: %w: %w", media.ErrUpstreamUnavailable, err)
	}

	results := parseTrendingResults(doc, mediaType)
	s.qualify(results)
	return results, nil
}

// Recent returns recently added content from /movie or /tv-show pages.
func (s *Sflix) Recent(mediaType media.MediaType) ([]media.SearchResult, error) {
	var url string
	switch mediaType {
	case media.TV:
		url = s.baseURL() + "/tv-show"
	default:
		url = s.baseURL() + "/movie"
	}

	doc, err := s.fetchDocument(url)
	if err != nil {
		return nil, fmt.Errorf("getting recent: %w: %w", media.ErrUpstreamUnavailable, err)
	}

	results := parseSearchResults(doc)
	s.qualify(results)
	return results, nil
}

func (s *Sflix) qualify(results []media.SearchResult) {
	for i := range results {
		results[i].Provider = s.Name()
		if !strings.HasPrefix(results[i].URL, "http") {
			results[i].URL = s.baseURL() + results[i].URL
		}
	}
}

func (s *Sflix) fetchDocument(url string) (*goquery.Document, error) {
	resp, err := httputil.Get(s.client, url, s.baseURL()+"/")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	return doc, nil
}
