package player

import (
	"fmt"
	"os"
	"os/exec"

	"flick/internal/media"
)

// VLC implements the Player interface for VLC media player.
type VLC struct{}

func (v *VLC) Name() string { return "vlc" }

func (v *VLC) Available() bool {
	_, err := exec.LookPath("vlc")
	return err == nil
}

// Play launches VLC. VLC has no IPC position tracking like mpv, so the
// result is zero and no history update happens.
func (v *VLC) Play(stream *media.Stream, title string, startPos float64, subFile string) (media.PlaybackResult, error) {
	args := []string{
		stream.URL,
		"--meta-title", title,
		"--play-and-exit",
	}

	if startPos > 0 {
		args = append(args, fmt.Sprintf("--start-time=%.0f", startPos))
	}

	if subFile != "" {
		args = append(args, "--sub-file", subFile)
	}

	cmd := exec.Command("vlc", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			// VLC exits non-zero on user close
			return media.PlaybackResult{}, nil
		}
		return media.PlaybackResult{}, fmt.Errorf("running vlc: %w", err)
	}

	return media.PlaybackResult{}, nil
}
