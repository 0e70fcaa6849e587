package booru

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "boorufetch/pkg/errors"
)

func TestPostUnmarshalKeepsRaw(t *testing.T) {
	doc := `{"id":42,"file_url":"https://b.test/a.png","file_ext":"png","tag_string":"cat_ears solo","rating":"g","score":7,"uploader_id":99}`

	var post Post
	require.NoError(t, json.Unmarshal([]byte(doc), &post))

	assert.Equal(t, int64(42), post.ID)
	assert.Equal(t, "png", post.FileExt)
	assert.Equal(t, []string{"cat_ears", "solo"}, post.Tags())

	// The raw document keeps fields the struct does not model
	assert.JSONEq(t, doc, string(post.Raw()))
}

func TestPostValidate(t *testing.T) {
	valid := Post{
		ID:        1,
		FileURL:   "https://b.test/a.png",
		FileExt:   "png",
		TagString: "cat_ears",
		Rating:    "g",
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Post)
		field  string
	}{
		{"missing id", func(p *Post) { p.ID = 0 }, "id"},
		{"missing file url", func(p *Post) { p.FileURL = "" }, "file_url"},
		{"missing extension", func(p *Post) { p.FileExt = "" }, "file_ext"},
		{"missing tag string", func(p *Post) { p.TagString = "" }, "tag_string"},
		{"missing rating", func(p *Post) { p.Rating = "" }, "rating"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := valid
			tt.mutate(&post)

			err := post.Validate()
			require.Error(t, err)

			var typed *apperrors.Error
			require.ErrorAs(t, err, &typed)
			assert.Equal(t, apperrors.ErrorTypeMalformedRecord, typed.Type)
			assert.Contains(t, typed.Message, tt.field)
		})
	}
}

func TestPostAvailable(t *testing.T) {
	assert.True(t, (&Post{FileURL: "https://b.test/a.png"}).Available())
	// Deleted and restricted posts come back without a file_url
	assert.False(t, (&Post{}).Available())
}

func TestTagPostCountDistinguishesMissing(t *testing.T) {
	var withCount Tag
	require.NoError(t, json.Unmarshal([]byte(`{"name":"cat_ears","post_count":0}`), &withCount))
	require.NotNil(t, withCount.PostCount)
	assert.Equal(t, 0, *withCount.PostCount)

	var withoutCount Tag
	require.NoError(t, json.Unmarshal([]byte(`{"name":"cat_ears"}`), &withoutCount))
	assert.Nil(t, withoutCount.PostCount)
}
