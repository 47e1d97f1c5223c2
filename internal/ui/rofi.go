package ui

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"flick/internal/media"
)

// Rofi selects via a rofi dmenu subprocess. With -format i rofi prints
// the selected row index directly, so items need no numbering.
type Rofi struct{}

// Select presents items through rofi and returns the selected index.
func (r *Rofi) Select(prompt string, items []string) (int, error) {
	if len(items) == 0 {
		return -1, fmt.Errorf("no items to select from")
	}

	rofiPath, err := exec.LookPath("rofi")
	if err != nil {
		return -1, fmt.Errorf("rofi not found in PATH: %w", err)
	}

	cmd := exec.Command(rofiPath,
		"-dmenu",
		"-i",
		"-p", prompt,
		"-format", "i",
	)

	cmd.Stdin = strings.NewReader(strings.Join(items, "\n"))

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		// rofi exits 1 on escape
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return -1, media.ErrCancelled
		}
		return -1, fmt.Errorf("rofi failed: %w", err)
	}

	idx, err := strconv.Atoi(strings.TrimSpace(stdout.String()))
	if err != nil {
		return -1, fmt.Errorf("parsing rofi selection: %w", err)
	}

	if idx < 0 || idx >= len(items) {
		return -1, fmt.Errorf("selection index %d out of range", idx)
	}

	return idx, nil
}
