// Package extract pulls the encrypted payload and key material out of
// provider embed pages. It is the most version-fragile stage of the
// pipeline: providers rotate their obfuscation without notice, so every
// missing field fails cleanly with enough context for diagnosis.
package extract

import (
	"encoding/json"

	"flick/internal/media"
)

// Payload is the opaque output of extraction: either an encrypted
// sources string plus the keys needed to reverse it, or an already
// plaintext sources array. Interpreting it is the decryptor's job.
type Payload struct {
	Provider    string          // Extractor id, e.g. "megacloud"
	EmbedURL    string          // The embed URL the payload came from
	Ciphertext  string          // Encrypted sources blob (empty when Plain is set)
	Plain       json.RawMessage // Plaintext sources array (empty when encrypted)
	ClientKey   string          // Per-request key scraped from the embed page
	ProviderKey string          // Provider-wide key from the auxiliary key endpoint
	Tracks      []media.Subtitle
}

// Encrypted reports whether the payload still needs decryption.
func (p *Payload) Encrypted() bool {
	return p.Ciphertext != ""
}

// Extractor turns an embed URL into a raw payload.
type Extractor interface {
	Extract(embedURL string) (*Payload, error)
}

// New returns the appropriate extractor for the given embed URL.
// MegaCloud fronts every mirror the supported sites currently use.
func New() Extractor {
	return NewMegaCloud()
}
