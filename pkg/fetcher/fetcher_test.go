package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boorufetch/pkg/config"
	"boorufetch/pkg/storage"
	"boorufetch/pkg/taglist"
)

// mockBoard serves a minimal board API: a tag index, one page of posts and
// the asset files the posts point at.
type mockBoard struct {
	server    *httptest.Server
	postCount int
	pageFails map[int]int // page -> remaining failures

	mu       sync.Mutex
	requests []string
}

func newMockBoard(t *testing.T, postCount int) *mockBoard {
	t.Helper()
	b := &mockBoard{postCount: postCount, pageFails: make(map[int]int)}
	b.server = httptest.NewServer(http.HandlerFunc(b.handle))
	t.Cleanup(b.server.Close)
	return b
}

func (b *mockBoard) handle(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.requests = append(b.requests, r.URL.Path)
	b.mu.Unlock()

	switch r.URL.Path {
	case "/users.json":
		fmt.Fprint(w, `[{"id": 1, "name": "tester"}]`)

	case "/tags.json":
		if r.URL.Query().Get("search[name]") != "landscape" {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprintf(w, `[{"id": 10, "name": "landscape", "post_count": %d}]`, b.postCount)

	case "/posts.json":
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		b.mu.Lock()
		fails := b.pageFails[page]
		if fails > 0 {
			b.pageFails[page] = fails - 1
		}
		b.mu.Unlock()
		if fails > 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		start := (page-1)*limit + 1
		var posts []map[string]interface{}
		for id := start; id <= b.postCount && id < start+limit; id++ {
			posts = append(posts, map[string]interface{}{
				"id":         id,
				"file_url":   b.server.URL + fmt.Sprintf("/data/%d.jpg", id),
				"file_ext":   "jpg",
				"tag_string": "landscape sky 1girl",
				"rating":     "s",
				"score":      42,
			})
		}
		json.NewEncoder(w).Encode(posts)

	default: // asset files
		fmt.Fprintf(w, "image-bytes-%s", r.URL.Path)
	}
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Booru.BaseURL = baseURL
	cfg.Output.BaseDirectory = t.TempDir()
	cfg.Download.ConcurrentDownloads = 2
	cfg.Download.DownloadTimeout = 10 * time.Second
	cfg.RateLimit.RequestsPerMinute = 100000
	cfg.RateLimit.BurstSize = 1000
	return cfg
}

// recordingEvents captures the callback stream for assertions
type recordingEvents struct {
	mu        sync.Mutex
	started   []string
	pages     int
	items     int
	finished  []string
	summaries []*Summary
}

func (e *recordingEvents) TagStarted(tag string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = append(e.started, tag)
}

func (e *recordingEvents) PageResolved(tag string, page, pageLimit, queued int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pages++
}

func (e *recordingEvents) DownloadsStarted(tag string, queued int) {}

func (e *recordingEvents) ItemFinished(tag string, postID int64, success, skipped bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items++
}

func (e *recordingEvents) TagFinished(tag string, summary *Summary, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finished = append(e.finished, tag)
	e.summaries = append(e.summaries, summary)
}

func TestFetchTagEndToEnd(t *testing.T) {
	board := newMockBoard(t, 3)
	cfg := testConfig(t, board.server.URL)

	f, err := New(cfg)
	require.NoError(t, err)

	events := &recordingEvents{}
	f.SetEvents(events)

	summary, err := f.FetchTag(context.Background(), "landscape", FetchOptions{Limit: -1})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.RemoteCount)
	assert.Equal(t, 3, summary.Queued)
	assert.Equal(t, 3, summary.Acquired)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, summary.PagesFetched)

	store, err := storage.NewManager(cfg.Output.BaseDirectory, true)
	require.NoError(t, err)
	for id := int64(1); id <= 3; id++ {
		assert.True(t, store.IsComplete("landscape", "s", id, "jpg"),
			"post %d should be complete on disk", id)
	}

	data, err := os.ReadFile(store.AssetPath("landscape", "s", 1, "jpg"))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes-/data/1.jpg", string(data))

	assert.Equal(t, []string{"landscape"}, events.started)
	assert.Equal(t, []string{"landscape"}, events.finished)
	assert.Equal(t, 3, events.items)
}

func TestFetchTagSecondRunIsIdempotent(t *testing.T) {
	board := newMockBoard(t, 3)
	cfg := testConfig(t, board.server.URL)

	f, err := New(cfg)
	require.NoError(t, err)

	first, err := f.FetchTag(context.Background(), "landscape", FetchOptions{Limit: -1})
	require.NoError(t, err)
	assert.Equal(t, 3, first.Acquired)

	second, err := f.FetchTag(context.Background(), "landscape", FetchOptions{Limit: -1})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Acquired)
	assert.Equal(t, 0, second.Queued, "acquired posts must not be queued again")
}

func TestFetchTagOnlyInfo(t *testing.T) {
	board := newMockBoard(t, 2)
	cfg := testConfig(t, board.server.URL)

	f, err := New(cfg)
	require.NoError(t, err)

	summary, err := f.FetchTag(context.Background(), "landscape", FetchOptions{Limit: -1, OnlyInfo: true})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Acquired)

	store, err := storage.NewManager(cfg.Output.BaseDirectory, true)
	require.NoError(t, err)
	for id := int64(1); id <= 2; id++ {
		_, err := os.Stat(store.TagsPath("landscape", "s", id))
		assert.NoError(t, err, "tag list for post %d", id)
		_, err = os.Stat(store.InfoPath("landscape", "s", id))
		assert.NoError(t, err, "metadata for post %d", id)
		_, err = os.Stat(store.AssetPath("landscape", "s", id, "jpg"))
		assert.True(t, os.IsNotExist(err), "asset for post %d must not be fetched", id)
	}

	board.mu.Lock()
	defer board.mu.Unlock()
	for _, path := range board.requests {
		assert.NotContains(t, path, "/data/", "no asset request expected")
	}
}

func TestFetchTagRecoversFromPageErrors(t *testing.T) {
	board := newMockBoard(t, 3)
	board.pageFails[1] = 2 // first two attempts fail, third succeeds
	cfg := testConfig(t, board.server.URL)

	f, err := New(cfg)
	require.NoError(t, err)

	summary, err := f.FetchTag(context.Background(), "landscape", FetchOptions{Limit: -1})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Acquired)
	assert.Equal(t, 0, summary.PagesSkipped)
}

func TestFetchListContinuesAfterTagError(t *testing.T) {
	board := newMockBoard(t, 2)
	cfg := testConfig(t, board.server.URL)

	f, err := New(cfg)
	require.NoError(t, err)

	entries := []taglist.Entry{
		{Tag: "no_such_tag"}, // tag index has no entry, run fails
		{Tag: "landscape"},
	}

	// The mock board only knows "landscape"; any other tag query returns an
	// empty index, which the resolver reports as an error.
	summaries, err := f.FetchList(context.Background(), entries, FetchOptions{Limit: -1})
	require.Error(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, 2, summaries[1].Acquired, "later tags still run")
}

func TestFetchListOnlyInfoEntry(t *testing.T) {
	board := newMockBoard(t, 1)
	cfg := testConfig(t, board.server.URL)

	f, err := New(cfg)
	require.NoError(t, err)

	entries := []taglist.Entry{{Tag: "landscape", OnlyInfo: true}}
	summaries, err := f.FetchList(context.Background(), entries, FetchOptions{Limit: -1})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].Acquired)

	store, err := storage.NewManager(cfg.Output.BaseDirectory, true)
	require.NoError(t, err)
	_, statErr := os.Stat(store.AssetPath("landscape", "s", 1, "jpg"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestVerifyCredentials(t *testing.T) {
	board := newMockBoard(t, 0)
	cfg := testConfig(t, board.server.URL)

	t.Run("anonymous passes without a request", func(t *testing.T) {
		f, err := New(cfg)
		require.NoError(t, err)
		assert.NoError(t, f.VerifyCredentials(context.Background()))
	})

	t.Run("valid credentials", func(t *testing.T) {
		authed := *cfg
		authed.Booru.Username = "tester"
		authed.Booru.APIKey = "key"
		f, err := New(&authed)
		require.NoError(t, err)
		assert.NoError(t, f.VerifyCredentials(context.Background()))
	})

	t.Run("rejected credentials", func(t *testing.T) {
		deny := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer deny.Close()

		bad := testConfig(t, deny.URL)
		bad.Booru.Username = "tester"
		bad.Booru.APIKey = "wrong"
		f, err := New(bad)
		require.NoError(t, err)
		assert.Error(t, f.VerifyCredentials(context.Background()))
	})
}
