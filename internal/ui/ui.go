// Package ui provides the selection-menu abstraction. Items are piped
// to the external menu as plain text; no shell-interpreted preview
// strings or commands carry remote data.
package ui

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"flick/internal/media"
)

// Selector presents ordered candidates and returns the chosen index.
// Cancellation returns media.ErrCancelled.
type Selector interface {
	Select(prompt string, items []string) (int, error)
}

// New creates the selector for a configured menu name. fzf and rofi
// fall back to the built-in picker when the binary is not in PATH.
func New(menu string) Selector {
	switch strings.ToLower(menu) {
	case "rofi":
		if _, err := exec.LookPath("rofi"); err == nil {
			return &Rofi{}
		}
	case "builtin":
		return &Builtin{}
	default:
		if _, err := exec.LookPath("fzf"); err == nil {
			return &FZF{}
		}
	}
	return &Builtin{}
}

// FZF selects via an fzf subprocess.
type FZF struct{}

// Select presents items through fzf and returns the selected index.
func (f *FZF) Select(prompt string, items []string) (int, error) {
	if len(items) == 0 {
		return -1, fmt.Errorf("no items to select from")
	}

	fzfPath, err := exec.LookPath("fzf")
	if err != nil {
		return -1, fmt.Errorf("fzf not found in PATH: %w", err)
	}

	// Numbered items for reliable index extraction
	var input strings.Builder
	for i, item := range items {
		fmt.Fprintf(&input, "%d\t%s\n", i, item)
	}

	cmd := exec.Command(fzfPath,
		"--prompt", prompt+" > ",
		"--height", "40%",
		"--reverse",
		"--with-nth", "2..", // Display from second field onward (hide index)
		"--delimiter", "\t",
		"--no-multi",
		"--cycle",
	)

	cmd.Stdin = strings.NewReader(input.String())
	cmd.Stderr = os.Stderr

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 130 {
			return -1, media.ErrCancelled
		}
		return -1, fmt.Errorf("fzf failed: %w", err)
	}

	selected := strings.TrimSpace(stdout.String())
	if selected == "" {
		return -1, media.ErrCancelled
	}

	parts := strings.SplitN(selected, "\t", 2)
	var idx int
	if _, err := fmt.Sscanf(parts[0], "%d", &idx); err != nil {
		return -1, fmt.Errorf("parsing selection index: %w", err)
	}

	if idx < 0 || idx >= len(items) {
		return -1, fmt.Errorf("selection index %d out of range", idx)
	}

	return idx, nil
}

// Input prompts for free-text input via fzf's --print-query, falling
// back to a plain stdin read when fzf is unavailable.
func Input(prompt string) (string, error) {
	fzfPath, err := exec.LookPath("fzf")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: ", prompt)
		var query string
		if _, err := fmt.Fscanln(os.Stdin, &query); err != nil {
			return "", media.ErrCancelled
		}
		return strings.TrimSpace(query), nil
	}

	cmd := exec.Command(fzfPath,
		"--prompt", prompt+" > ",
		"--height", "10%",
		"--reverse",
		"--print-query",
		"--no-info",
	)

	cmd.Stdin = strings.NewReader("")
	cmd.Stderr = os.Stderr

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	// fzf exits 1 when using --print-query with no match, which is expected
	_ = cmd.Run()

	query := strings.TrimSpace(strings.Split(stdout.String(), "\n")[0])
	if query == "" {
		return "", media.ErrCancelled
	}

	return query, nil
}
