package extract

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"flick/internal/httputil"
	"flick/internal/media"
)

const megacloudKeysURL = "https://raw.githubusercontent.com/yogesh-hacker/MegacloudKeys/refs/heads/main/keys.json"

var embedPrefixRe = regexp.MustCompile(`^embed-\d+$`)

// MegaCloud extracts payloads from MegaCloud/VidCloud embed URLs.
type MegaCloud struct {
	client *http.Client

	// Cached provider keys, fetched once per process
	keysMu sync.Mutex
	keys   map[string]string
}

// NewMegaCloud creates a new MegaCloud extractor.
func NewMegaCloud() *MegaCloud {
	return &MegaCloud{
		client: httputil.NewClient(),
	}
}

// sourcesResponse represents the JSON from the getSources endpoint.
type sourcesResponse struct {
	Sources   json.RawMessage `json:"sources"`
	Tracks    []track         `json:"tracks"`
	Encrypted bool            `json:"encrypted"`
}

type track struct {
	File    string `json:"file"`
	Label   string `json:"label"`
	Kind    string `json:"kind"`
	Default bool   `json:"default"`
}

// Extract fetches the embed page and the getSources endpoint and
// returns the raw payload plus key material.
func (m *MegaCloud) Extract(embedURL string) (*Payload, error) {
	if err := httputil.ValidateURL(embedURL); err != nil {
		return nil, fmt.Errorf("invalid embed URL: %w", err)
	}

	domain, embedPrefix, sourceID, err := parseEmbedURL(embedURL)
	if err != nil {
		return nil, fmt.Errorf("megacloud %s: %w: %w", embedURL, media.ErrExtractionFailed, err)
	}

	// Step 1: fetch embed page HTML to get the client key
	embedPageURL := fmt.Sprintf("https://%s/%s/v3/e-1/%s?z=", domain, embedPrefix, sourceID)
	embedHTML, err := httputil.GetHTML(m.client, embedPageURL, embedURL)
	if err != nil {
		return nil, fmt.Errorf("megacloud %s: fetching embed page: %w: %w", embedURL, media.ErrUpstreamUnavailable, err)
	}

	// Step 2: extract client key from the page
	clientKey, err := ExtractClientKey(embedHTML)
	if err != nil {
		return nil, fmt.Errorf("megacloud %s: %w: %w", embedURL, media.ErrExtractionFailed, err)
	}

	// Step 3: call the getSources endpoint
	getSourcesURL := fmt.Sprintf("https://%s/%s/v3/e-1/getSources?id=%s&_k=%s",
		domain, embedPrefix, url.QueryEscape(sourceID), url.QueryEscape(clientKey))

	body, err := httputil.GetJSON(m.client, getSourcesURL, embedURL)
	if err != nil {
		return nil, fmt.Errorf("megacloud %s: fetching sources: %w: %w", embedURL, media.ErrUpstreamUnavailable, err)
	}

	var resp sourcesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("megacloud %s: parsing sources response: %w: %w", embedURL, media.ErrExtractionFailed, err)
	}
	if len(resp.Sources) == 0 {
		return nil, fmt.Errorf("megacloud %s: sources field absent: %w", embedURL, media.ErrExtractionFailed)
	}

	payload := &Payload{
		Provider:  "megacloud",
		EmbedURL:  embedURL,
		ClientKey: clientKey,
		Tracks:    mapTracks(resp.Tracks),
	}

	if resp.Encrypted {
		// The encrypted sources field is a JSON string
		if err := json.Unmarshal(resp.Sources, &payload.Ciphertext); err != nil {
			return nil, fmt.Errorf("megacloud %s: parsing encrypted sources: %w: %w", embedURL, media.ErrExtractionFailed, err)
		}

		// Step 4: the decryption key lives at a separate endpoint
		payload.ProviderKey, err = m.providerKey()
		if err != nil {
			return nil, fmt.Errorf("megacloud %s: %w", embedURL, err)
		}
	} else {
		payload.Plain = resp.Sources
	}

	return payload, nil
}

// mapTracks converts caption tracks to subtitle entries.
func mapTracks(tracks []track) []media.Subtitle {
	var subs []media.Subtitle
	for _, t := range tracks {
		if t.Kind != "captions" || t.File == "" {
			continue
		}
		subs = append(subs, media.Subtitle{
			Language: t.Label,
			Label:    t.Label,
			URL:      t.File,
		})
	}
	return subs
}

// parseEmbedURL extracts domain, embed prefix, and source ID from an embed URL.
// Example: https://streameeeeee.site/embed-1/v3/e-1/AbCdEf?z= -> ("streameeeeee.site", "embed-1", "AbCdEf")
func parseEmbedURL(embedURL string) (domain, embedPrefix, sourceID string, err error) {
	u, err := url.Parse(embedURL)
	if err != nil {
		return "", "", "", fmt.Errorf("parsing URL: %w", err)
	}

	domain = u.Host

	path := strings.TrimPrefix(u.Path, "/")
	parts := strings.Split(path, "/")

	if len(parts) == 0 {
		return "", "", "", fmt.Errorf("empty URL path")
	}

	embedPrefix = parts[0]
	if !embedPrefixRe.MatchString(embedPrefix) {
		// Fallback observed on older mirrors
		embedPrefix = "embed-2"
	}

	sourceID = parts[len(parts)-1]
	if sourceID == "" && len(parts) > 1 {
		sourceID = parts[len(parts)-2]
	}

	if sourceID == "" {
		return "", "", "", fmt.Errorf("could not extract source ID from %q", embedURL)
	}

	return domain, embedPrefix, sourceID, nil
}

// providerKey fetches and caches the megacloud decryption key.
func (m *MegaCloud) providerKey() (string, error) {
	m.keysMu.Lock()
	defer m.keysMu.Unlock()

	if m.keys == nil {
		body, err := httputil.GetJSON(m.client, megacloudKeysURL, "")
		if err != nil {
			return "", fmt.Errorf("fetching megacloud keys: %w: %w", media.ErrUpstreamUnavailable, err)
		}

		var keys map[string]string
		if err := json.Unmarshal(body, &keys); err != nil {
			return "", fmt.Errorf("parsing megacloud keys: %w: %w", media.ErrExtractionFailed, err)
		}
		m.keys = keys
	}

	key, ok := m.keys["mega"]
	if !ok {
		return "", fmt.Errorf("mega key absent from keys response: %w", media.ErrExtractionFailed)
	}

	return key, nil
}
