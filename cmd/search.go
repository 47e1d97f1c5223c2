package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"flick/internal/config"
	"flick/internal/download"
	"flick/internal/extract"
	"flick/internal/history"
	"flick/internal/media"
	"flick/internal/player"
	"flick/internal/provider"
	"flick/internal/resolve"
	"flick/internal/subtitle"
	"flick/internal/ui"
)

// searchRun is the root command: search, resolve, play.
func searchRun(cmd *cobra.Command, args []string) error {
	if flagContinue {
		return resumeFromHistory()
	}

	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		var err error
		query, err = ui.Input("Search")
		if err != nil {
			return err
		}
	}

	res, err := newResolver().Resolve(resolve.Request{
		Query:    query,
		Server:   cfg.Server,
		Quality:  cfg.Quality,
		Language: cfg.SubsLanguage,
	}, chooser())
	if err != nil {
		return err
	}

	return playResult(res, 0)
}

// newResolver builds the resolver over the configured provider order.
func newResolver() *resolve.Resolver {
	providers := provider.Registry(cfg.Provider, cfg.Base, cfg.SflixBase)
	return resolve.New(providers, extract.New(), logger)
}

// chooser adapts the configured selection menu to the resolver.
func chooser() resolve.Chooser {
	sel := ui.New(cfg.Menu)
	return resolve.ChooserFunc(func(prompt string, items []string) (int, error) {
		return sel.Select(prompt, items)
	})
}

// streamInfo is the --json output shape.
type streamInfo struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Quality  string `json:"quality"`
	Subtitle string `json:"subtitle,omitempty"`
}

// playResult hands a resolved stream to the JSON printer, the
// downloader, or the player, then reports the session to history.
func playResult(res *resolve.Result, startPos float64) error {
	if flagJSON {
		info := streamInfo{
			Title:   res.Title,
			URL:     res.Stream.URL,
			Quality: res.Stream.Quality,
		}
		if res.Subtitle != nil {
			info.Subtitle = res.Subtitle.URL
		}
		out, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding stream info: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	// Fetch the subtitle to a temp file unless disabled
	subFile := ""
	if !flagNoSubs && res.Subtitle != nil {
		tmpDir, err := subtitle.NewTempDir()
		if err != nil {
			return err
		}
		defer tmpDir.Cleanup()

		subFile, err = tmpDir.Download(*res.Subtitle)
		if err != nil {
			logger.Warn().Err(err).Msg("subtitle download failed, playing without")
			subFile = ""
		}
	}

	if flagDownload {
		dir, err := cfg.ExpandDownloadDir()
		if err != nil {
			return err
		}
		path, err := download.Download(&res.Stream, res.Title, dir, subFile)
		if err != nil {
			return err
		}
		fmt.Println("Saved to", path)
		return nil
	}

	p := player.New(cfg.Player)
	if !p.Available() {
		return fmt.Errorf("player %q not found in PATH", p.Name())
	}

	playback, err := p.Play(&res.Stream, res.Title, startPos, subFile)
	if err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}

	if !cfg.History {
		return nil
	}
	return reportSession(res, playback)
}

// reportSession records a finished playback in the history store.
func reportSession(res *resolve.Result, playback media.PlaybackResult) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Report(history.Session{
		Entry: media.HistoryEntry{
			ID:      res.Media.ID,
			Title:   res.Media.Title,
			Type:    res.Media.Type,
			Season:  res.Season,
			Episode: res.Episode,
		},
		Result: playback,
		Layout: res.Layout,
	})
}

// openStore opens the history database at its XDG data path.
func openStore() (*history.Store, error) {
	path, err := config.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}
