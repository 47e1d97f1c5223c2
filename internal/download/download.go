// Package download saves resolved streams to disk by remuxing the HLS
// playlist into an mkv container with ffmpeg.
package download

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"flick/internal/httputil"
	"flick/internal/media"
)

// Download remuxes a stream into <outputDir>/<title>.mkv and returns
// the written path. A non-empty subFile is muxed in as an SRT track.
// Partial files are removed when ffmpeg fails.
func Download(stream *media.Stream, title, outputDir, subFile string) (string, error) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	outputPath, err := preparePath(outputDir, title)
	if err != nil {
		return "", err
	}

	cmd := exec.Command(ffmpeg, buildArgs(stream, title, subFile, outputPath)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	quality := stream.Quality
	if quality == "" {
		quality = "auto"
	}
	fmt.Fprintf(os.Stderr, "Downloading %s (%s) to %s\n", title, quality, outputPath)

	if err := cmd.Run(); err != nil {
		os.Remove(outputPath)
		return "", fmt.Errorf("ffmpeg download failed: %w", err)
	}

	return outputPath, nil
}

// preparePath creates the output directory and returns a traversal-safe
// destination path derived from the title.
func preparePath(outputDir, title string) (string, error) {
	absDir, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	outputPath, err := httputil.SafeDownloadPath(absDir, httputil.SanitizeFilename(title)+".mkv")
	if err != nil {
		return "", fmt.Errorf("invalid output path: %w", err)
	}
	return outputPath, nil
}

// buildArgs assembles the ffmpeg invocation. Video and audio are stream
// copied, never re-encoded; mkv carries SRT, so a subtitle input gets a
// codec conversion and explicit input-to-track mapping.
func buildArgs(stream *media.Stream, title, subFile, outputPath string) []string {
	args := []string{"-y", "-i", stream.URL}

	if subFile != "" {
		args = append(args, "-i", subFile, "-c:s", "srt")
	}

	args = append(args, "-c:v", "copy", "-c:a", "copy")

	if subFile != "" {
		args = append(args, "-map", "0:v", "-map", "0:a", "-map", "1:s")
	}

	return append(args, "-metadata", "title="+title, outputPath)
}
