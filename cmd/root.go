// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"flick/internal/config"
	"flick/internal/media"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagDownload    bool
	flagDownloadDir string
	flagLanguage    string
	flagNoSubs      bool
	flagProvider    string
	flagServer      string
	flagQuality     string
	flagPlayer      string
	flagMenu        string
	flagContinue    bool
	flagJSON        bool
	flagDebug       bool
)

// cfg holds the loaded configuration (merged: defaults < config file < env < flags).
var cfg *config.Config

// logger is the process-wide logger, level-gated by cfg.Debug.
var logger zerolog.Logger

var rootCmd = &cobra.Command{
	Use:   "flick [query]",
	Short: "Stream movies and TV shows from the terminal",
	Long: `Flick is a terminal media streamer. Search for movies and TV shows,
stream them with mpv/vlc, or download with ffmpeg. Watch history tracks
your position and advances across episodes automatically.`,
	Args:              cobra.ArbitraryArgs,
	PersistentPreRunE: loadConfig,
	RunE:              searchRun,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// A cancelled selection is a normal exit path
		if errors.Is(err, media.ErrCancelled) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagDownload, "download", "d", false, "Download instead of playing")
	rootCmd.PersistentFlags().StringVar(&flagDownloadDir, "download-dir", "", "Override the configured download directory")
	rootCmd.PersistentFlags().StringVarP(&flagLanguage, "language", "l", "", "Subtitle language (default: english)")
	rootCmd.PersistentFlags().BoolVarP(&flagNoSubs, "no-subs", "n", false, "Disable subtitles")
	rootCmd.PersistentFlags().StringVarP(&flagProvider, "provider", "p", "", "Content provider: flixhq | sflix")
	rootCmd.PersistentFlags().StringVarP(&flagServer, "server", "s", "", "Preferred mirror server: Vidcloud | Upcloud")
	rootCmd.PersistentFlags().StringVarP(&flagQuality, "quality", "q", "", "Video quality: 360 | 480 | 720 | 1080")
	rootCmd.PersistentFlags().StringVar(&flagPlayer, "player", "", "Media player: mpv | vlc | iina | celluloid")
	rootCmd.PersistentFlags().StringVar(&flagMenu, "menu", "", "Selection menu: fzf | rofi | builtin")
	rootCmd.PersistentFlags().BoolVarP(&flagContinue, "continue", "c", false, "Auto-resume from history")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Output stream metadata as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(trendingCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < env < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagPlayer != "" {
		cfg.Player = flagPlayer
	}
	if flagProvider != "" {
		cfg.Provider = flagProvider
	}
	if flagServer != "" {
		cfg.Server = flagServer
	}
	if flagQuality != "" {
		cfg.Quality = flagQuality
	}
	if flagLanguage != "" {
		cfg.SubsLanguage = flagLanguage
	}
	if flagMenu != "" {
		cfg.Menu = flagMenu
	}
	if flagDownloadDir != "" {
		cfg.DownloadDir = flagDownloadDir
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := zerolog.WarnLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("flick", Version)
	},
}
