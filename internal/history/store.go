// Package history persists watch progress in a local SQLite database
// and implements the resume state machine. The store is the single
// writer; readers always observe a committed snapshot (WAL mode), and
// an entry is only touched after a playback session fully reports.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"flick/internal/media"
)

const (
	// completionRatio is the position/duration ratio at or above which
	// a session counts as finished.
	completionRatio = 0.9

	// noiseFloor is the minimum position in seconds for a session to
	// leave any trace. Immediate exits never create entries.
	noiseFloor = 30.0
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	type       TEXT NOT NULL,
	season     INTEGER NOT NULL DEFAULT 0,
	episode    INTEGER NOT NULL DEFAULT 0,
	position   REAL NOT NULL DEFAULT 0,
	duration   REAL NOT NULL DEFAULT 0,
	watched_at INTEGER NOT NULL
);`

// Store is the watch-history database. Safe for concurrent use; writes
// are serialized so a resume listing never sees a partial update.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if necessary) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Session is a completed playback session being reported to the store.
type Session struct {
	Entry  media.HistoryEntry   // Identity of what was played
	Result media.PlaybackResult // Final position and duration from the player
	Layout [][]media.Episode    // Season layout for advancing, nil for movies
}

// Report applies the resume state machine to one finished session:
// below the noise floor nothing happens; past the completion threshold
// the entry is deleted (movie or final episode) or advanced to the next
// episode with position reset; otherwise position and timestamp are
// upserted.
func (s *Store) Report(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, dur := sess.Result.Position, sess.Result.Duration
	if pos < noiseFloor {
		return nil
	}

	entry := sess.Entry
	if dur > 0 && pos/dur >= completionRatio {
		if entry.Type == media.Movie {
			return s.remove(entry.ID)
		}

		nextSeason, nextEpisode, ok := NextEpisode(sess.Layout, entry.Season, entry.Episode)
		if !ok {
			// Final episode of the final season
			return s.remove(entry.ID)
		}

		entry.Season = nextSeason
		entry.Episode = nextEpisode
		entry.Position = 0
		entry.Duration = 0
		return s.upsert(entry)
	}

	entry.Position = pos
	entry.Duration = dur
	return s.upsert(entry)
}

// upsert writes an entry keyed by media identity.
func (s *Store) upsert(e media.HistoryEntry) error {
	watchedAt := e.WatchedAt
	if watchedAt == 0 {
		watchedAt = time.Now().Unix()
	}

	_, err := s.db.Exec(`
		INSERT INTO entries (id, title, type, season, episode, position, duration, watched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			season = excluded.season,
			episode = excluded.episode,
			position = excluded.position,
			duration = excluded.duration,
			watched_at = excluded.watched_at`,
		e.ID, e.Title, e.Type.String(), e.Season, e.Episode, e.Position, e.Duration, watchedAt)
	if err != nil {
		return fmt.Errorf("upserting history entry: %w", err)
	}
	return nil
}

// Resume returns all in-progress entries, most recently watched first.
func (s *Store) Resume() ([]media.HistoryEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, title, type, season, episode, position, duration, watched_at
		FROM entries ORDER BY watched_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []media.HistoryEntry
	for rows.Next() {
		var e media.HistoryEntry
		var typ string
		if err := rows.Scan(&e.ID, &e.Title, &typ, &e.Season, &e.Episode, &e.Position, &e.Duration, &e.WatchedAt); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		e.Type = media.ParseMediaType(typ)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Lookup returns the entry for a media identity, if one exists.
func (s *Store) Lookup(id string) (media.HistoryEntry, bool, error) {
	var e media.HistoryEntry
	var typ string
	err := s.db.QueryRow(`
		SELECT id, title, type, season, episode, position, duration, watched_at
		FROM entries WHERE id = ?`, id).
		Scan(&e.ID, &e.Title, &typ, &e.Season, &e.Episode, &e.Position, &e.Duration, &e.WatchedAt)
	if err == sql.ErrNoRows {
		return media.HistoryEntry{}, false, nil
	}
	if err != nil {
		return media.HistoryEntry{}, false, fmt.Errorf("looking up history entry: %w", err)
	}
	e.Type = media.ParseMediaType(typ)
	return e, true, nil
}

// Remove deletes the entry for a media identity.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(id)
}

func (s *Store) remove(id string) error {
	if _, err := s.db.Exec(`DELETE FROM entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("removing history entry: %w", err)
	}
	return nil
}

// Clear removes all entries unconditionally. Destructive by design;
// confirmation belongs to the CLI layer, not here.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM entries`); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

// FormatForDisplay creates display strings for menu selection.
func FormatForDisplay(entries []media.HistoryEntry) []string {
	items := make([]string, 0, len(entries))
	for _, e := range entries {
		var display string
		if e.Type == media.TV {
			display = fmt.Sprintf("%s S%02dE%02d", e.Title, e.Season, e.Episode)
		} else {
			display = e.Title
		}
		if e.Position > 0 && e.Duration > 0 {
			display += fmt.Sprintf(" [%.0f%%]", e.Position/e.Duration*100)
		}
		items = append(items, display)
	}
	return items
}
