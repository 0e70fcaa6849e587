package booru

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the board the downloader talks to unless configured otherwise
	DefaultBaseURL = "https://danbooru.donmai.us"

	// TagsEndpoint is the tag index query path
	TagsEndpoint = "/tags.json"

	// PostsEndpoint is the paginated post search path
	PostsEndpoint = "/posts.json"

	// UsersEndpoint is the credential verification path
	UsersEndpoint = "/users.json"

	// MaxPageSize is the largest page the board serves per request
	MaxPageSize = 200
)

// PageQuery describes one posts page request
type PageQuery struct {
	// Tag is the search expression, passed through verbatim
	Tag string
	// Rating narrows the search to one content rating when non-empty
	Rating string
	// OrderByID requests oldest-first ordering by identifier
	OrderByID bool
	// MinID adds an id:>= filter when positive
	MinID int64
	// Limit is the page size
	Limit int
	// Page is the 1-based page number
	Page int
}

// PostsURL builds the page request URL by hand. Tags routinely contain
// characters that are meaningful to the board's query grammar (colons,
// parentheses, comparison operators), so the tag expression must NOT be
// URL-encoded by a generic parameter serializer.
func PostsURL(base string, q PageQuery) string {
	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString(PostsEndpoint)
	sb.WriteString("?tags=")
	sb.WriteString(q.Tag)
	if q.Rating != "" {
		sb.WriteString("+rating:")
		sb.WriteString(q.Rating)
	}
	if q.OrderByID {
		sb.WriteString("+order:id")
	}
	if q.MinID > 0 {
		fmt.Fprintf(&sb, "+id:>=%d", q.MinID)
	}
	fmt.Fprintf(&sb, "&limit=%d&page=%d", q.Limit, q.Page)
	return sb.String()
}

// TagsURL builds the tag index query for one tag name
func TagsURL(base, tag string) string {
	return fmt.Sprintf("%s%s?search[name]=%s", base, TagsEndpoint, tag)
}

// UsersURL builds the credential verification URL
func UsersURL(base string) string {
	return base + UsersEndpoint
}

// WithCredentials appends login parameters to a request URL. The credentials
// themselves are safe to escape; only the tag expression is not.
func WithCredentials(rawURL, username, apiKey string) string {
	if username == "" || apiKey == "" {
		return rawURL
	}
	sep := "&"
	if !strings.Contains(rawURL, "?") {
		sep = "?"
	}
	return rawURL + sep + "login=" + url.QueryEscape(username) + "&api_key=" + url.QueryEscape(apiKey)
}

// statusText names the status codes the board is known to return
var statusText = map[int]string{
	200: "OK",
	204: "No Content",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	410: "Gone",
	420: "Invalid Record",
	422: "Locked",
	423: "Already Exists",
	424: "Invalid Parameters",
	429: "User Throttled",
	500: "Internal Server Error",
	502: "Bad Gateway",
	503: "Service Unavailable",
}

// StatusText returns the board's name for a status code, falling back to a
// generic description for codes outside its documented set.
func StatusText(code int) string {
	if text, ok := statusText[code]; ok {
		return text
	}
	return fmt.Sprintf("status %d", code)
}
