package booru

import (
	"encoding/json"
	"strings"

	"boorufetch/pkg/errors"
)

// Post represents a single post returned by the board's posts endpoint.
//
// Only the fields the downloader acts on are decoded; the full response
// object is retained verbatim so the metadata file preserves whatever extra
// fields the board sent.
type Post struct {
	ID        int64  `json:"id"`
	FileURL   string `json:"file_url"`
	FileExt   string `json:"file_ext"`
	TagString string `json:"tag_string"`
	Rating    string `json:"rating"`
	Score     int    `json:"score"`
	Source    string `json:"source"`
	MD5       string `json:"md5"`

	raw json.RawMessage
}

// UnmarshalJSON decodes the typed fields and keeps the raw document
func (p *Post) UnmarshalJSON(data []byte) error {
	type alias Post
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = Post(a)
	p.raw = append(json.RawMessage(nil), data...)
	return nil
}

// Raw returns the post as it came off the wire
func (p *Post) Raw() json.RawMessage {
	return p.raw
}

// Available reports whether the board still serves the asset. Deleted,
// banned and restricted posts come back without a file_url.
func (p *Post) Available() bool {
	return p.FileURL != ""
}

// Validate checks the required fields. A record lacking any of them is
// malformed and must be discarded, not stored.
func (p *Post) Validate() error {
	switch {
	case p.ID == 0:
		return errors.Malformed("id")
	case p.FileURL == "":
		return errors.Malformed("file_url")
	case p.FileExt == "":
		return errors.Malformed("file_ext")
	case p.TagString == "":
		return errors.Malformed("tag_string")
	case p.Rating == "":
		return errors.Malformed("rating")
	}
	return nil
}

// Tags splits the whitespace-delimited tag string into individual tags
func (p *Post) Tags() []string {
	return strings.Fields(p.TagString)
}

// Tag represents one entry of the board's tag index.
//
// PostCount is a pointer so a response that omits the field can be told apart
// from a tag with zero posts.
type Tag struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	PostCount *int   `json:"post_count"`
	Category  int    `json:"category"`
}
