package moderation

import (
	"bufio"
	"embed"
	"strings"

	"floorlink/errors"
)

//go:embed censored/*
var censoredFolder embed.FS

// LoadCensoredWords reads the embedded word lists, one term per line.
// Blank lines and #-comments are skipped.
func LoadCensoredWords() ([]string, error) {
	entries, err := censoredFolder.ReadDir("censored")
	if err != nil {
		return nil, err
	}

	var words []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		f, err := censoredFolder.Open("censored/" + entry.Name())
		if err != nil {
			return nil, err
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			words = append(words, line)
		}
		cerr := f.Close()
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		if cerr != nil {
			return nil, cerr
		}
	}

	if len(words) == 0 {
		return nil, errors.ErrEmptyWords
	}
	return words, nil
}
