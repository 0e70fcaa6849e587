package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// ManifestName is the append-only index of acquired IDs kept next to the files
const ManifestName = "manifest.txt"

// forbiddenPathChars are replaced when a tag becomes a directory name
var forbiddenPathChars = []string{"<", ">", ":", "\"", "\\", "|", "?", "*"}

// Manager handles the on-disk acquisition records.
//
// Layout: {root}/{sanitized_tag}/{rating}/{id}_image.{ext} plus {id}_tags.txt
// and {id}_infos.json. An item is complete only when all three files exist.
type Manager struct {
	root          string
	writeManifest bool

	mu sync.Mutex // serializes manifest appends across workers
}

// NewManager creates a storage manager rooted at the given directory
func NewManager(root string, writeManifest bool) (*Manager, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{root: root, writeManifest: writeManifest}, nil
}

// Root returns the output root directory
func (m *Manager) Root() string {
	return m.root
}

// SanitizeTag makes a tag safe to use as a directory name
func SanitizeTag(tag string) string {
	for _, c := range forbiddenPathChars {
		tag = strings.ReplaceAll(tag, c, "_")
	}
	return tag
}

// TagDir returns the directory holding all ratings of one tag
func (m *Manager) TagDir(tag string) string {
	return filepath.Join(m.root, SanitizeTag(tag))
}

// RatingDir returns the directory for one (tag, rating) pair
func (m *Manager) RatingDir(tag, rating string) string {
	return filepath.Join(m.TagDir(tag), rating)
}

// EnsureDir creates the (tag, rating) directory. Concurrent workers race to
// create the same directory; "already exists" is a success, not an error.
func (m *Manager) EnsureDir(tag, rating string) (string, error) {
	dir := m.RatingDir(tag, rating)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return dir, nil
}

// AssetPath returns the path of the asset file for one post
func (m *Manager) AssetPath(tag, rating string, id int64, ext string) string {
	return filepath.Join(m.RatingDir(tag, rating), fmt.Sprintf("%d_image.%s", id, ext))
}

// TagsPath returns the path of the tag list file for one post
func (m *Manager) TagsPath(tag, rating string, id int64) string {
	return filepath.Join(m.RatingDir(tag, rating), fmt.Sprintf("%d_tags.txt", id))
}

// InfoPath returns the path of the metadata file for one post
func (m *Manager) InfoPath(tag, rating string, id int64) string {
	return filepath.Join(m.RatingDir(tag, rating), fmt.Sprintf("%d_infos.json", id))
}

// IsComplete reports whether all three files of an acquisition exist
func (m *Manager) IsComplete(tag, rating string, id int64, ext string) bool {
	for _, path := range []string{
		m.AssetPath(tag, rating, id, ext),
		m.TagsPath(tag, rating, id),
		m.InfoPath(tag, rating, id),
	} {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return true
}

// AcquiredIDs scans local storage for completed acquisitions of a tag and
// returns their identifiers. When rating is empty all rating directories are
// scanned. A missing tag directory or manifest means nothing is acquired yet,
// not an error.
func (m *Manager) AcquiredIDs(tag, rating string) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{})

	var dirs []string
	if rating != "" {
		dirs = []string{m.RatingDir(tag, rating)}
	} else {
		entries, err := os.ReadDir(m.TagDir(tag))
		if err != nil {
			if os.IsNotExist(err) {
				return ids, nil
			}
			return nil, fmt.Errorf("failed to read tag directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				dirs = append(dirs, filepath.Join(m.TagDir(tag), entry.Name()))
			}
		}
	}

	for _, dir := range dirs {
		if err := collectIDs(dir, ids); err != nil {
			return nil, err
		}
	}

	return ids, nil
}

// collectIDs merges the manifest fast path and the metadata-file scan of one
// rating directory into the set.
func collectIDs(dir string, ids map[int64]struct{}) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "_infos.json") {
			continue
		}
		idPart, _, _ := strings.Cut(entry.Name(), "_")
		id, err := strconv.ParseInt(idPart, 10, 64)
		if err != nil {
			continue // foreign file, not an acquisition record
		}
		ids[id] = struct{}{}
	}

	file, err := os.Open(filepath.Join(dir, ManifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil // manifest absent: treat as empty
		}
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			continue
		}
		ids[id] = struct{}{}
	}
	return scanner.Err()
}

// MaxID returns the largest identifier in the set, or 0 when empty
func MaxID(ids map[int64]struct{}) int64 {
	var max int64
	for id := range ids {
		if id > max {
			max = id
		}
	}
	return max
}

// SaveAsset saves the asset bytes for one post, writing to a temp file first
// and renaming so a partially-written asset never looks complete.
func (m *Manager) SaveAsset(r io.Reader, tag, rating string, id int64, ext string) error {
	if _, err := m.EnsureDir(tag, rating); err != nil {
		return err
	}

	filename := m.AssetPath(tag, rating, id, ext)
	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to save asset data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// SaveTags writes the newline-joined tag list for one post
func (m *Manager) SaveTags(tag, rating string, id int64, tags []string) error {
	if _, err := m.EnsureDir(tag, rating); err != nil {
		return err
	}

	content := strings.Join(tags, "\n")
	if err := os.WriteFile(m.TagsPath(tag, rating, id), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write tag list: %w", err)
	}
	return nil
}

// SaveInfo writes the full post record as indented JSON
func (m *Manager) SaveInfo(tag, rating string, id int64, raw json.RawMessage) error {
	if _, err := m.EnsureDir(tag, rating); err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "    "); err != nil {
		return fmt.Errorf("failed to format record: %w", err)
	}

	if err := os.WriteFile(m.InfoPath(tag, rating, id), pretty.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	return nil
}

// AppendManifest records an acquired identifier in the per-(tag, rating)
// manifest. No-op when the manifest is disabled.
func (m *Manager) AppendManifest(tag, rating string, id int64) error {
	if !m.writeManifest {
		return nil
	}

	if _, err := m.EnsureDir(tag, rating); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	file, err := os.OpenFile(filepath.Join(m.RatingDir(tag, rating), ManifestName),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	if _, err := fmt.Fprintf(file, "%d\n", id); err != nil {
		return fmt.Errorf("failed to append to manifest: %w", err)
	}
	return nil
}
