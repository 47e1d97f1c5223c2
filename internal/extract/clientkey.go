package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Obfuscation patterns for the per-request client key, tried in order.
// The embed host rotates between these per request:
//
//	0: <meta name="_gg_fb" content="{KEY}">
//	1: <!-- _is_th:{KEY} -->
//	2: <script>window._lk_db = {x: "{P1}", y: "{P2}", z: "{P3}"};</script>
//	3: <div data-dpi="{KEY}" ...></div>
//	4: <script nonce="{KEY}">
//	5: <script>window._xy_ws = "{KEY}";</script>
var clientKeyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`<meta name="_gg_fb" content="[a-zA-Z0-9]+">`),
	regexp.MustCompile(`<!--\s+_is_th:[0-9a-zA-Z]+\s+-->`),
	regexp.MustCompile(`<script>window\._lk_db\s+=\s+\{[xyz]:\s+["'][a-zA-Z0-9]+["'],\s+[xyz]:\s+["'][a-zA-Z0-9]+["'],\s+[xyz]:\s+["'][a-zA-Z0-9]+["']\};</script>`),
	regexp.MustCompile(`<div\s+data-dpi="[0-9a-zA-Z]+"\s+[^>]*></div>`),
	regexp.MustCompile(`<script nonce="[0-9a-zA-Z]+">`),
	regexp.MustCompile(`<script>window\._xy_ws = ['"\x60][0-9a-zA-Z]+['"\x60];</script>`),
}

var (
	quotedValueRe = regexp.MustCompile(`"[a-zA-Z0-9]+"`)
	commentKeyRe  = regexp.MustCompile(`:[a-zA-Z0-9]+ `)

	lkDbPartRes = []*regexp.Regexp{
		regexp.MustCompile(`x:\s+"[a-zA-Z0-9]+"`),
		regexp.MustCompile(`y:\s+"[a-zA-Z0-9]+"`),
		regexp.MustCompile(`z:\s+"[a-zA-Z0-9]+"`),
	}
)

// ExtractClientKey extracts the obfuscated client key from embed page HTML.
func ExtractClientKey(html string) (string, error) {
	var match string
	matchIdx := -1
	for i, pat := range clientKeyPatterns {
		if m := pat.FindString(html); m != "" {
			match = m
			matchIdx = i
			break
		}
	}

	if matchIdx == -1 {
		return "", fmt.Errorf("no client key obfuscation pattern matched")
	}

	switch matchIdx {
	case 1:
		// Comment pattern carries the key unquoted
		keyMatch := commentKeyRe.FindString(match)
		if keyMatch == "" {
			return "", fmt.Errorf("client key missing from comment pattern")
		}
		return strings.TrimSpace(strings.TrimPrefix(keyMatch, ":")), nil

	case 2:
		// Key split over three quoted parts, joined in x, y, z order
		var parts []string
		for _, partRe := range lkDbPartRes {
			partMatch := partRe.FindString(match)
			if partMatch == "" {
				return "", fmt.Errorf("client key part missing from lk_db pattern")
			}
			val := quotedValueRe.FindString(partMatch)
			if val == "" {
				return "", fmt.Errorf("client key part value missing from lk_db pattern")
			}
			parts = append(parts, strings.Trim(val, `"`))
		}
		return strings.Join(parts, ""), nil

	default:
		val := quotedValueRe.FindString(match)
		if val == "" {
			return "", fmt.Errorf("client key value missing")
		}
		return strings.Trim(val, `"`), nil
	}
}
