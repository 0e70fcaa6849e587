// Package taglist reads the plain-text file naming the tags to acquire.
//
// One tag per line. A leading asterisk requests a metadata-only acquisition
// for that tag: records and tag lists are stored, assets are not downloaded.
// Blank lines and lines starting with '#' are skipped.
package taglist

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Entry is one tag to acquire
type Entry struct {
	Tag      string
	OnlyInfo bool
}

// Load reads the tag list at path
func Load(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tag list: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry := Entry{Tag: line}
		if strings.HasPrefix(line, "*") {
			entry.OnlyInfo = true
			entry.Tag = strings.TrimSpace(strings.TrimPrefix(line, "*"))
			if entry.Tag == "" {
				continue
			}
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tag list: %w", err)
	}

	return entries, nil
}
