// Package decrypt reverses provider obfuscation schemes to recover the
// plaintext stream listing from an extracted payload. Every scheme is
// deterministic: identical ciphertext and key material always yield
// identical plaintext.
package decrypt

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"

	"flick/internal/media"
)

// Material is the key material an extractor gathered for one payload.
type Material struct {
	ClientKey   string // Per-request key from the embed page
	ProviderKey string // Provider-wide key from the auxiliary endpoint
}

// Scheme is one reversible provider transform. The algorithm is a
// moving target upstream, so callers pick a scheme per payload rather
// than the package fixing one cipher.
type Scheme interface {
	Name() string
	Decrypt(ciphertext string, mat Material) (string, error)
}

// Detect picks the scheme for a ciphertext by its envelope: an OpenSSL
// "Salted__" header selects the AES-CBC scheme, anything else the
// layered scheme.
func Detect(ciphertext string) Scheme {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err == nil && bytes.HasPrefix(data, []byte(opensslMagic)) {
		return OpenSSL{}
	}
	return Layered{}
}

// Sources decrypts a ciphertext with the detected scheme and parses the
// plaintext into a source set.
func Sources(ciphertext string, mat Material) (*media.SourceSet, error) {
	scheme := Detect(ciphertext)

	plaintext, err := scheme.Decrypt(ciphertext, mat)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", scheme.Name(), media.ErrDecryptionFailed, err)
	}

	set, err := ParseSourceSet([]byte(plaintext))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", scheme.Name(), media.ErrDecryptionFailed, err)
	}

	return set, nil
}

// rawSource is one entry of the decrypted sources array.
type rawSource struct {
	File  string `json:"file"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

var (
	labelQualityRe = regexp.MustCompile(`(\d{3,4})p?\b`)
	urlQualityRe   = regexp.MustCompile(`[/_.-](360|480|720|1080|1440|2160)[/_.-]`)
)

// ParseSourceSet parses a plaintext sources array into a SourceSet.
// An empty variant list is a failure, never an empty success.
func ParseSourceSet(plaintext []byte) (*media.SourceSet, error) {
	var raw []rawSource
	if err := json.Unmarshal(plaintext, &raw); err != nil {
		return nil, fmt.Errorf("parsing sources array: %w", err)
	}

	set := &media.SourceSet{}
	seen := map[string]bool{}
	for _, s := range raw {
		if s.File == "" {
			continue
		}
		q := qualityLabel(s)
		// Quality labels within one set are unique; keep first listed
		if q != "" && seen[q] {
			continue
		}
		seen[q] = true
		set.Variants = append(set.Variants, media.Variant{
			URL:     s.File,
			Quality: q,
		})
	}

	if len(set.Variants) == 0 {
		return nil, fmt.Errorf("no stream variants in decrypted payload")
	}

	return set, nil
}

// qualityLabel derives a numeric quality label from a source's label
// or URL. Adaptive master playlists come back as "auto".
func qualityLabel(s rawSource) string {
	if m := labelQualityRe.FindStringSubmatch(s.Label); m != nil {
		return m[1]
	}
	if m := urlQualityRe.FindStringSubmatch(s.File); m != nil {
		return m[1]
	}
	return "auto"
}
