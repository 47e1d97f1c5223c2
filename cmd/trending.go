package cmd

import (
	"github.com/spf13/cobra"

	"flick/internal/media"
	"flick/internal/provider"
	"flick/internal/resolve"
)

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Browse trending movies and TV shows",
	RunE: func(cmd *cobra.Command, args []string) error {
		return browse(func(p provider.Provider, t media.MediaType) ([]media.SearchResult, error) {
			return p.Trending(t)
		})
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Browse recently added movies and TV shows",
	RunE: func(cmd *cobra.Command, args []string) error {
		return browse(func(p provider.Provider, t media.MediaType) ([]media.SearchResult, error) {
			return p.Recent(t)
		})
	},
}

// browse lists curated content from the preferred provider and resolves
// the chosen title like a regular search hit.
func browse(list func(provider.Provider, media.MediaType) ([]media.SearchResult, error)) error {
	choose := chooser()

	kind, err := choose.Choose("Type", []string{"Movies", "TV Shows"})
	if err != nil {
		return err
	}
	mediaType := media.Movie
	if kind == 1 {
		mediaType = media.TV
	}

	p := provider.Registry(cfg.Provider, cfg.Base, cfg.SflixBase)[0]
	results, err := list(p, mediaType)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return media.ErrNotFound
	}

	items := make([]string, len(results))
	for i, r := range results {
		items[i] = provider.FormatDisplayTitle(r)
	}
	idx, err := choose.Choose("Select", items)
	if err != nil {
		return err
	}

	res, err := newResolver().ResolveCandidate(p, results[idx], resolve.Request{
		Server:   cfg.Server,
		Quality:  cfg.Quality,
		Language: cfg.SubsLanguage,
	}, choose)
	if err != nil {
		return err
	}

	return playResult(res, 0)
}
