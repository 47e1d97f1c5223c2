package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"flick/internal/history"
	"flick/internal/media"
	"flick/internal/provider"
	"flick/internal/resolve"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Resume watching from history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return resumeFromHistory()
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all watch history",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Clear()
	},
}

func init() {
	historyCmd.AddCommand(historyClearCmd)
}

// resumeFromHistory lists in-progress entries, re-resolves the chosen
// one at its saved season and episode, and resumes from the saved
// position.
func resumeFromHistory() error {
	store, err := openStore()
	if err != nil {
		return err
	}

	entries, err := store.Resume()
	if err != nil {
		store.Close()
		return err
	}
	store.Close()

	if len(entries) == 0 {
		fmt.Println("No watch history.")
		return nil
	}

	choose := chooser()
	idx := 0
	if len(entries) > 1 {
		idx, err = choose.Choose("Resume", history.FormatForDisplay(entries))
		if err != nil {
			return err
		}
	}
	entry := entries[idx]

	resolver := newResolver()
	res, err := resolver.ResolveCandidate(
		resumeProvider(),
		media.SearchResult{
			ID:    entry.ID,
			Title: entry.Title,
			Type:  entry.Type,
		},
		resolve.Request{
			Season:   entry.Season,
			Episode:  entry.Episode,
			Server:   cfg.Server,
			Quality:  cfg.Quality,
			Language: cfg.SubsLanguage,
		},
		choose,
	)
	if err != nil {
		return err
	}

	return playResult(res, entry.Position)
}

// resumeProvider is the provider history identities belong to: the
// first (preferred) entry in the registry.
func resumeProvider() provider.Provider {
	return provider.Registry(cfg.Provider, cfg.Base, cfg.SflixBase)[0]
}
