// Package config handles TOML-based configuration loading and validation.
// Config is parsed as data only; an optional env file can override
// individual fields, and CLI flags override both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Base         string `toml:"base"`          // FlixHQ domain
	SflixBase    string `toml:"sflix_base"`    // Sflix domain
	Player       string `toml:"player"`        // mpv | vlc | iina | celluloid
	Provider     string `toml:"provider"`      // Preferred site: flixhq | sflix
	Server       string `toml:"server"`        // Preferred mirror server label
	SubsLanguage string `toml:"subs_language"` // Preferred subtitle language
	Quality      string `toml:"quality"`       // 360 | 480 | 720 | 1080
	History      bool   `toml:"history"`       // Track watch history
	Menu         string `toml:"menu"`          // fzf | rofi | builtin
	ImagePreview bool   `toml:"image_preview"` // Poster previews in the menu (external concern)
	DownloadDir  string `toml:"download_dir"`
	Debug        bool   `toml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Base:         "flixhq.to",
		SflixBase:    "sflix.to",
		Player:       "mpv",
		Provider:     "flixhq",
		Server:       "Vidcloud",
		SubsLanguage: "english",
		Quality:      "1080",
		History:      true,
		Menu:         "fzf",
		ImagePreview: false,
		DownloadDir:  "~/Videos/flick",
		Debug:        false,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "flick"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "flick"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file, applies env-file overrides, and merges
// with defaults. A missing config file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("locating config: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv(filepath.Dir(path))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyEnv loads FLICK_* overrides from flick.env next to the config
// file (if present) and then from the process environment.
func (c *Config) applyEnv(dir string) {
	_ = godotenv.Load(filepath.Join(dir, "flick.env"))

	overrides := map[string]*string{
		"FLICK_PLAYER":   &c.Player,
		"FLICK_PROVIDER": &c.Provider,
		"FLICK_SERVER":   &c.Server,
		"FLICK_QUALITY":  &c.Quality,
		"FLICK_LANGUAGE": &c.SubsLanguage,
		"FLICK_MENU":     &c.Menu,
	}
	for key, field := range overrides {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}
	if v := os.Getenv("FLICK_DEBUG"); v == "1" || strings.EqualFold(v, "true") {
		c.Debug = true
	}
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	validPlayers := map[string]bool{
		"mpv": true, "vlc": true, "iina": true, "celluloid": true,
	}
	if !validPlayers[strings.ToLower(c.Player)] {
		return fmt.Errorf("unsupported player %q (valid: mpv, vlc, iina, celluloid)", c.Player)
	}

	validProviders := map[string]bool{
		"flixhq": true, "sflix": true,
	}
	if !validProviders[strings.ToLower(c.Provider)] {
		return fmt.Errorf("unsupported provider %q (valid: flixhq, sflix)", c.Provider)
	}

	validQualities := map[string]bool{
		"360": true, "480": true, "720": true, "1080": true, "": true,
	}
	if !validQualities[c.Quality] {
		return fmt.Errorf("unsupported quality %q (valid: 360, 480, 720, 1080)", c.Quality)
	}

	validMenus := map[string]bool{
		"fzf": true, "rofi": true, "builtin": true,
	}
	if !validMenus[strings.ToLower(c.Menu)] {
		return fmt.Errorf("unsupported menu %q (valid: fzf, rofi, builtin)", c.Menu)
	}

	if c.Base == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	return nil
}

// ExpandDownloadDir resolves ~ in the download directory path.
func (c *Config) ExpandDownloadDir() (string, error) {
	dir := c.DownloadDir
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return filepath.Abs(dir)
}

// HistoryPath returns the path to the history database.
func HistoryPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "flick", "history.db"), nil
}
