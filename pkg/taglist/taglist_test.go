package taglist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTagFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tags.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeTagFile(t, "landscape\n*character_name\n\n# a comment\nscore:>=10 -rating:e\n")

	entries, err := Load(path)
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, Entry{Tag: "landscape"}, entries[0])
	assert.Equal(t, Entry{Tag: "character_name", OnlyInfo: true}, entries[1])
	assert.Equal(t, Entry{Tag: "score:>=10 -rating:e"}, entries[2])
}

func TestLoadTrimsWhitespace(t *testing.T) {
	path := writeTagFile(t, "  spaced_tag  \n\t* metadata_tag\n")

	entries, err := Load(path)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "spaced_tag", entries[0].Tag)
	assert.Equal(t, "metadata_tag", entries[1].Tag)
	assert.True(t, entries[1].OnlyInfo)
}

func TestLoadBareAsteriskSkipped(t *testing.T) {
	path := writeTagFile(t, "*\nreal_tag\n")

	entries, err := Load(path)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "real_tag", entries[0].Tag)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeTagFile(t, "")

	entries, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
