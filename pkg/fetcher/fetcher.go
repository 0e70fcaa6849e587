// Package fetcher orchestrates a full tag run: credential check, remote
// count resolution, paginated listing, and concurrent acquisition.
package fetcher

import (
	"context"
	"fmt"

	"boorufetch/internal/downloader"
	"boorufetch/pkg/booru"
	"boorufetch/pkg/config"
	"boorufetch/pkg/logger"
	"boorufetch/pkg/retriever"
	"boorufetch/pkg/storage"
	"boorufetch/pkg/taglist"
)

// Events receives progress callbacks during a run. All methods may be called
// from multiple goroutines.
type Events interface {
	TagStarted(tag string)
	PageResolved(tag string, page, pageLimit, queued int)
	DownloadsStarted(tag string, queued int)
	ItemFinished(tag string, postID int64, success, skipped bool, err error)
	TagFinished(tag string, summary *Summary, err error)
}

// NopEvents is an Events implementation that does nothing
type NopEvents struct{}

func (NopEvents) TagStarted(string)                             {}
func (NopEvents) PageResolved(string, int, int, int)            {}
func (NopEvents) DownloadsStarted(string, int)                  {}
func (NopEvents) ItemFinished(string, int64, bool, bool, error) {}
func (NopEvents) TagFinished(string, *Summary, error)           {}

// Summary reports the outcome of one tag run
type Summary struct {
	Tag          string
	RemoteCount  int
	Desired      int
	Queued       int
	Acquired     int
	Skipped      int
	Failed       int
	PagesFetched int
	PagesSkipped int
	Discarded    int
}

// Fetcher orchestrates the acquisition of tags from a board
type Fetcher struct {
	client    *booru.Client
	store     *storage.Manager
	retriever *retriever.Retriever
	config    *config.Config
	logger    logger.Logger
	events    Events
}

// New creates a new Fetcher instance
func New(cfg *config.Config) (*Fetcher, error) {
	log := logger.GetLogger()

	client := booru.NewClient(cfg.Download.DownloadTimeout, log,
		booru.WithBaseURL(cfg.Booru.BaseURL),
		booru.WithCredentialParams(cfg.Booru.Username, cfg.Booru.APIKey),
		booru.WithUserAgent(cfg.Booru.UserAgent),
		booru.WithRequestsPerMinute(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize),
	)

	store, err := storage.NewManager(cfg.Output.BaseDirectory, cfg.Output.WriteManifest)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	r := retriever.New(client, store,
		cfg.Retrieval.PageSize,
		cfg.Retrieval.SuccessiveErrorLimit,
		cfg.Retrieval.OrderByIDThreshold,
		log,
	)

	return &Fetcher{
		client:    client,
		store:     store,
		retriever: r,
		config:    cfg,
		logger:    log,
		events:    NopEvents{},
	}, nil
}

// SetEvents installs a progress listener
func (f *Fetcher) SetEvents(events Events) {
	if events != nil {
		f.events = events
	}
}

// VerifyCredentials checks the configured login against the board. Call this
// once before fetching; a rejection is fatal to the whole run.
func (f *Fetcher) VerifyCredentials(ctx context.Context) error {
	if f.config.Booru.Username == "" || f.config.Booru.APIKey == "" {
		// Anonymous access is allowed, just slower on some boards
		f.logger.Warn("No credentials configured, fetching anonymously")
		return nil
	}
	return f.client.VerifyCredentials(ctx)
}

// FetchOptions control one tag run
type FetchOptions struct {
	// Rating restricts the run to one rating level; empty means all
	Rating string
	// Limit caps the number of posts; negative derives it from the remote count
	Limit int
	// OnlyInfo stores tag lists and metadata without fetching assets
	OnlyInfo bool
}

// FetchTag runs the full acquisition pipeline for one tag
func (f *Fetcher) FetchTag(ctx context.Context, tag string, opts FetchOptions) (*Summary, error) {
	summary := &Summary{Tag: tag}
	f.events.TagStarted(tag)

	limit := opts.Limit
	if limit < 0 {
		limit = retriever.NoLimit
	}

	result, err := f.retriever.BuildWorkList(ctx, tag, retriever.Options{
		Rating: opts.Rating,
		Limit:  limit,
		OnPage: func(page, pageLimit, queued int) {
			f.events.PageResolved(tag, page, pageLimit, queued)
		},
	})
	if err != nil {
		f.events.TagFinished(tag, summary, err)
		return summary, err
	}

	summary.RemoteCount = result.RemoteCount
	summary.Desired = result.Desired
	summary.Queued = len(result.Posts)
	summary.PagesFetched = result.PagesFetched
	summary.PagesSkipped = result.PagesSkipped
	summary.Discarded = result.Discarded

	if len(result.Posts) == 0 {
		f.logger.InfoWithFields("No new posts to acquire", map[string]interface{}{
			"tag": tag,
		})
		f.events.TagFinished(tag, summary, nil)
		return summary, nil
	}

	f.events.DownloadsStarted(tag, len(result.Posts))

	pool := downloader.NewWorkerPool(
		f.config.Download.ConcurrentDownloads,
		f.client,
		f.store,
		downloader.Options{
			MaxAttempts:                 f.config.RateLimit.MaxRetries,
			DownloadTimeout:             f.config.Download.DownloadTimeout,
			ForbiddenExtensions:         f.config.Download.ForbiddenExtensions,
			ExtensionMatchCaseSensitive: f.config.Download.ExtensionMatchCaseSensitive,
		},
		f.logger,
	)
	pool.Start()

	// Consume results while submitting, so the pool never stalls on a
	// full result buffer
	done := make(chan struct{})
	go func() {
		defer close(done)
		for result := range pool.Results() {
			switch {
			case result.Skipped:
				summary.Skipped++
			case result.Success:
				summary.Acquired++
			default:
				summary.Failed++
			}
			f.events.ItemFinished(tag, result.Job.Post.ID, result.Success, result.Skipped, result.Error)
		}
	}()

	for _, post := range result.Posts {
		job := downloader.Job{Post: post, Tag: tag, OnlyInfo: opts.OnlyInfo}
		if err := pool.Submit(job); err != nil {
			f.logger.WithError(err).Warn("Job submission failed, stopping dispatch")
			break
		}
	}

	pool.Stop()
	<-done

	f.logger.InfoWithFields("Tag run finished", map[string]interface{}{
		"tag":      tag,
		"queued":   summary.Queued,
		"acquired": summary.Acquired,
		"skipped":  summary.Skipped,
		"failed":   summary.Failed,
	})

	f.events.TagFinished(tag, summary, nil)
	return summary, nil
}

// FetchList runs the pipeline for every entry of a tag list. Per-tag errors
// do not stop the list; the first error is returned after all entries ran.
func (f *Fetcher) FetchList(ctx context.Context, entries []taglist.Entry, opts FetchOptions) ([]*Summary, error) {
	var summaries []*Summary
	var firstErr error

	for _, entry := range entries {
		if ctx.Err() != nil {
			return summaries, ctx.Err()
		}

		entryOpts := opts
		entryOpts.OnlyInfo = opts.OnlyInfo || entry.OnlyInfo

		summary, err := f.FetchTag(ctx, entry.Tag, entryOpts)
		summaries = append(summaries, summary)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if err != nil {
			f.logger.WithError(err).WithField("tag", entry.Tag).Error("Tag run failed")
		}
	}

	return summaries, firstErr
}
