package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"flick/internal/media"
)

// MPV implements the Player interface for mpv. Position and duration
// are tracked over the JSON IPC socket at a randomized temp path.
type MPV struct{}

func (m *MPV) Name() string { return "mpv" }

func (m *MPV) Available() bool {
	_, err := exec.LookPath("mpv")
	return err == nil
}

// Play launches mpv and returns the final observed position and the
// media duration once the process exits.
func (m *MPV) Play(stream *media.Stream, title string, startPos float64, subFile string) (media.PlaybackResult, error) {
	// Randomized IPC socket path (prevents symlink attacks)
	socketDir, err := os.MkdirTemp("", "flick-mpv-*")
	if err != nil {
		return media.PlaybackResult{}, fmt.Errorf("creating temp dir for mpv socket: %w", err)
	}
	defer os.RemoveAll(socketDir)

	socketPath := filepath.Join(socketDir, "socket")

	args := []string{
		stream.URL,
		"--force-media-title=" + title,
		"--input-ipc-server=" + socketPath,
		"--really-quiet",
	}

	if startPos > 0 {
		args = append(args, fmt.Sprintf("--start=+%.0f", startPos))
	}

	if subFile != "" {
		args = append(args, "--sub-file="+subFile)
	} else {
		// mpv handles multiple sub tracks, but add primary only
		for _, sub := range stream.Subtitles {
			if sub.URL != "" {
				args = append(args, "--sub-file="+sub.URL)
				break
			}
		}
	}

	cmd := exec.Command("mpv", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		return media.PlaybackResult{}, fmt.Errorf("starting mpv: %w", err)
	}

	var result media.PlaybackResult
	done := make(chan struct{})
	go func() {
		defer close(done)
		result = m.track(socketPath)
	}()

	// mpv exits non-zero when the user quits mid-stream; the IPC tracker
	// has already captured whatever position it reached.
	_ = cmd.Wait()

	<-done
	return result, nil
}

// track polls mpv's IPC socket, observing the playback position and the
// media duration until the socket closes.
func (m *MPV) track(socketPath string) media.PlaybackResult {
	var result media.PlaybackResult

	// Wait for socket to appear
	for i := 0; i < 50; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return result
	}
	defer conn.Close()

	observe := func(id int, property string) {
		cmd := map[string]interface{}{
			"command":    []interface{}{"observe_property", id, property},
			"request_id": 100 + id,
		}
		data, _ := json.Marshal(cmd)
		data = append(data, '\n')
		conn.Write(data)
	}
	observe(1, "time-pos")
	observe(2, "duration")

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var event struct {
			Event string  `json:"event"`
			Name  string  `json:"name"`
			Data  float64 `json:"data"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		switch event.Name {
		case "time-pos":
			if event.Data > 0 {
				result.Position = event.Data
			}
		case "duration":
			if event.Data > 0 {
				result.Duration = event.Data
			}
		}
	}

	return result
}
