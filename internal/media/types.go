// Package media defines shared types for the flick application.
package media

// MediaType represents whether content is a movie or TV show.
type MediaType int

const (
	Movie MediaType = iota
	TV
)

func (m MediaType) String() string {
	switch m {
	case Movie:
		return "movie"
	case TV:
		return "tv"
	default:
		return "unknown"
	}
}

// ParseMediaType converts a stored string back to a MediaType.
func ParseMediaType(s string) MediaType {
	if s == "tv" {
		return TV
	}
	return Movie
}

// SearchResult represents a single search result from a provider.
type SearchResult struct {
	ID       string    // Provider-specific ID (e.g., "movie/free-the-exorcist-hd-75043")
	Title    string    // Display title
	Type     MediaType // Movie or TV
	Year     string    // Release year
	Provider string    // Name of the provider that produced the result
	URL      string    // Full URL to the content page
}

// Season represents a TV show season.
type Season struct {
	Number int
	ID     string // Provider-specific season ID
}

// Episode represents a TV show episode.
type Episode struct {
	Number int
	Title  string
	ID     string // Provider-specific episode ID
}

// Server represents a mirror server hosting an embed page.
type Server struct {
	Name string // e.g., "Vidcloud", "UpCloud"
	ID   string // Server/data-id
}

// EmbedLink pairs a mirror server with its resolved embed URL.
type EmbedLink struct {
	Server Server
	URL    string
}

// Variant is one stream option inside a decrypted source set.
type Variant struct {
	URL     string // m3u8 or direct video URL
	Quality string // e.g., "1080", "720", "auto"
}

// SourceSet is the decrypted output of one embed link: every stream
// variant plus every subtitle track the provider listed.
type SourceSet struct {
	Variants  []Variant
	Subtitles []Subtitle
}

// Stream contains the final resolved stream handed to the player.
type Stream struct {
	URL       string     // Chosen variant URL
	Quality   string     // Chosen quality label
	Subtitles []Subtitle // All available subtitle tracks
}

// Subtitle represents a subtitle track.
type Subtitle struct {
	Language string // e.g., "English"
	Label    string // Display label, e.g., "English - SDH"
	URL      string // URL to the subtitle file (usually VTT)
}

// HistoryEntry represents a single entry in the watch history.
type HistoryEntry struct {
	ID        string    // Provider content ID
	Title     string    // Display title
	Type      MediaType // Movie or TV
	Season    int       // Season number (TV only, 0 for movies)
	Episode   int       // Episode number (TV only, 0 for movies)
	Position  float64   // Last playback position in seconds
	Duration  float64   // Total duration in seconds, 0 when unknown
	WatchedAt int64     // Unix timestamp of the last playback session
}

// PlaybackResult is what a player reports back after its process exits.
type PlaybackResult struct {
	Position float64 // Final playback position in seconds
	Duration float64 // Media duration in seconds, 0 if the player could not tell
}
