package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Player != "mpv" {
		t.Errorf("default player = %q, want mpv", cfg.Player)
	}
	if cfg.Quality != "1080" {
		t.Errorf("default quality = %q, want 1080", cfg.Quality)
	}
	if cfg.Provider != "flixhq" {
		t.Errorf("default provider = %q, want flixhq", cfg.Provider)
	}
	if cfg.Server != "Vidcloud" {
		t.Errorf("default server = %q, want Vidcloud", cfg.Server)
	}
	if !cfg.History {
		t.Error("default history should be true")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"invalid player", func(c *Config) { c.Player = "notepad" }, true},
		{"invalid provider", func(c *Config) { c.Provider = "netflix" }, true},
		{"invalid quality", func(c *Config) { c.Quality = "4k" }, true},
		{"invalid menu", func(c *Config) { c.Menu = "dmenu2" }, true},
		{"empty base", func(c *Config) { c.Base = "" }, true},
		{"valid vlc", func(c *Config) { c.Player = "vlc" }, false},
		{"valid sflix", func(c *Config) { c.Provider = "sflix" }, false},
		{"valid 720", func(c *Config) { c.Quality = "720" }, false},
		{"valid rofi", func(c *Config) { c.Menu = "rofi" }, false},
		{"empty quality means highest", func(c *Config) { c.Quality = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromTOML(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	appDir := filepath.Join(tmpDir, "flick")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		t.Fatal(err)
	}

	content := `
base = "example.com"
player = "vlc"
provider = "sflix"
server = "Upcloud"
quality = "720"
history = false
menu = "builtin"
`
	if err := os.WriteFile(filepath.Join(appDir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Base != "example.com" {
		t.Errorf("base = %q, want example.com", cfg.Base)
	}
	if cfg.Player != "vlc" {
		t.Errorf("player = %q, want vlc", cfg.Player)
	}
	if cfg.Provider != "sflix" {
		t.Errorf("provider = %q, want sflix", cfg.Provider)
	}
	if cfg.Server != "Upcloud" {
		t.Errorf("server = %q, want Upcloud", cfg.Server)
	}
	if cfg.Quality != "720" {
		t.Errorf("quality = %q, want 720", cfg.Quality)
	}
	if cfg.History {
		t.Error("history should be false")
	}
	if cfg.Menu != "builtin" {
		t.Errorf("menu = %q, want builtin", cfg.Menu)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should not error on missing file: %v", err)
	}
	if cfg.Player != "mpv" {
		t.Errorf("missing file should return defaults, got player = %q", cfg.Player)
	}
}

func TestLoadNoConfigDir(t *testing.T) {
	// With no XDG dir and no home the config path cannot be located;
	// Load must surface that instead of pretending defaults were read.
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should error when the config path cannot be located")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("FLICK_PLAYER", "vlc")
	t.Setenv("FLICK_QUALITY", "480")
	t.Setenv("FLICK_DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Player != "vlc" {
		t.Errorf("player = %q, want vlc from FLICK_PLAYER", cfg.Player)
	}
	if cfg.Quality != "480" {
		t.Errorf("quality = %q, want 480 from FLICK_QUALITY", cfg.Quality)
	}
	if !cfg.Debug {
		t.Error("FLICK_DEBUG=true should enable debug")
	}
}

func TestEnvFileOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	appDir := filepath.Join(tmpDir, "flick")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(appDir, "flick.env"), []byte("FLICK_SERVER=Upcloud\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server != "Upcloud" {
		t.Errorf("server = %q, want Upcloud from flick.env", cfg.Server)
	}
}

func TestExpandDownloadDir(t *testing.T) {
	cfg := Default()
	cfg.DownloadDir = "/tmp/test-downloads"

	dir, err := cfg.ExpandDownloadDir()
	if err != nil {
		t.Fatalf("ExpandDownloadDir() error: %v", err)
	}
	if dir != "/tmp/test-downloads" {
		t.Errorf("got %q, want /tmp/test-downloads", dir)
	}
}

func TestHistoryPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	path, err := HistoryPath()
	if err != nil {
		t.Fatalf("HistoryPath() error: %v", err)
	}
	if path != "/tmp/xdg-data/flick/history.db" {
		t.Errorf("got %q, want /tmp/xdg-data/flick/history.db", path)
	}
}
