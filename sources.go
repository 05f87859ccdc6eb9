package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"tubeforge/models"
)

// parseSource reads one "id[,title]" entry.
func parseSource(line string) (models.Source, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return models.Source{}, false
	}
	id, title, _ := strings.Cut(line, ",")
	return models.Source{ID: strings.TrimSpace(id), Title: strings.TrimSpace(title)}, true
}

// readSources parses a source list: one entry per line, blank lines and
// '#' comments skipped.
func readSources(r io.Reader) ([]models.Source, error) {
	var sources []models.Source
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		src, ok := parseSource(scanner.Text())
		if !ok {
			continue
		}
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		sources = append(sources, src)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sources, nil
}

// collectSources returns the sources from the list file (if any) followed by
// the ones given on the command line.
func collectSources(path string, args []string) ([]models.Source, error) {
	var sources []models.Source
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, models.NewError(models.ErrNotFound, "sources", err)
		}
		defer f.Close()
		if sources, err = readSources(f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	for _, arg := range args {
		if src, ok := parseSource(arg); ok {
			sources = append(sources, src)
		}
	}
	return sources, nil
}
