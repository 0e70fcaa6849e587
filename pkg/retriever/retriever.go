// Package retriever plans and executes the paginated listing of a tag's
// posts, producing a deduplicated work list of assets not yet on disk.
package retriever

import (
	"context"

	"boorufetch/pkg/booru"
	"boorufetch/pkg/errors"
	"boorufetch/pkg/logger"
	"boorufetch/pkg/storage"
)

// Index lists remote posts and tag metadata
type Index interface {
	FetchTag(ctx context.Context, tag string) (*booru.Tag, error)
	FetchPage(ctx context.Context, query booru.PageQuery) ([]booru.Post, error)
}

// Store reports which post IDs a tag already has on disk
type Store interface {
	AcquiredIDs(tag, rating string) (map[int64]struct{}, error)
}

// NoLimit requests as many posts as the remote index reports
const NoLimit = -1

// Options control a single tag run
type Options struct {
	// Rating restricts the listing to one rating level; empty means all
	Rating string

	// Limit caps the number of desired posts. NoLimit derives the count
	// from the remote index instead.
	Limit int

	// OnPage, when set, is invoked after each page is resolved
	OnPage func(page, pageLimit, queued int)
}

// Result summarizes a completed work-list build
type Result struct {
	Posts        []booru.Post
	RemoteCount  int
	Desired      int
	PagesFetched int
	PagesSkipped int
	Discarded    int
}

// Resolver answers the two questions a tag run starts with: how many posts
// the remote index knows about, and which IDs are already acquired locally.
type Resolver struct {
	index  Index
	store  Store
	logger logger.Logger
}

// NewResolver creates a resolver over the given index and store
func NewResolver(index Index, store Store, log logger.Logger) *Resolver {
	return &Resolver{index: index, store: store, logger: log}
}

// Count returns the remote post count for tag. A tag index response that
// lacks the count field is a remote error and is never retried.
func (r *Resolver) Count(ctx context.Context, tag string) (int, error) {
	entry, err := r.index.FetchTag(ctx, tag)
	if err != nil {
		return 0, err
	}
	if entry.PostCount == nil {
		return 0, errors.Remote("tag index entry for %q is missing post_count", tag)
	}
	return *entry.PostCount, nil
}

// AcquiredIDs returns the set of post IDs already stored for tag at the
// given rating level
func (r *Resolver) AcquiredIDs(tag, rating string) (map[int64]struct{}, error) {
	return r.store.AcquiredIDs(tag, rating)
}

// Retriever builds work lists by walking a tag's listing pages
type Retriever struct {
	index          Index
	resolver       *Resolver
	pageSize       int
	errorLimit     int
	orderThreshold int
	logger         logger.Logger
}

// New creates a Retriever. pageSize is the listing page size, errorLimit the
// successive-error budget before a page is skipped, and orderThreshold the
// desired-count ceiling under which the ordered min-ID filter is applied.
func New(index Index, store Store, pageSize, errorLimit, orderThreshold int, log logger.Logger) *Retriever {
	return &Retriever{
		index:          index,
		resolver:       NewResolver(index, store, log),
		pageSize:       pageSize,
		errorLimit:     errorLimit,
		orderThreshold: orderThreshold,
		logger:         log,
	}
}

// Resolver exposes the retriever's resolver for standalone queries
func (r *Retriever) Resolver() *Resolver {
	return r.resolver
}

// BuildWorkList pages through the listing for tag and returns the posts that
// should be downloaded: available, well formed, not already on disk, and not
// already queued earlier in the same run.
//
// Page failures never abort the run. Each failed request is retried against
// the same page until the successive-error budget is spent, then the page is
// skipped and pagination moves on with the counter reset.
func (r *Retriever) BuildWorkList(ctx context.Context, tag string, opts Options) (*Result, error) {
	result := &Result{}

	acquired, err := r.resolver.AcquiredIDs(tag, opts.Rating)
	if err != nil {
		return nil, err
	}

	desired := opts.Limit
	if desired == NoLimit {
		count, cerr := r.resolver.Count(ctx, tag)
		if cerr != nil {
			return nil, cerr
		}
		result.RemoteCount = count
		desired = count - len(acquired)
		if desired < 0 {
			desired = 0
		}
	}
	result.Desired = desired

	if desired == 0 {
		r.logger.InfoWithFields("Nothing to retrieve", map[string]interface{}{
			"tag":      tag,
			"acquired": len(acquired),
		})
		return result, nil
	}

	pageLimit := (desired + r.pageSize - 1) / r.pageSize

	// Under the threshold an ordered listing with a min-ID filter lets the
	// server-side page count match ours. Above it the ordered listing is
	// too expensive remotely, so pages come back in default order.
	orderByID := desired < r.orderThreshold
	var minID int64
	if orderByID && len(acquired) > 0 {
		minID = storage.MaxID(acquired) + 1
	}

	r.logger.InfoWithFields("Starting retrieval", map[string]interface{}{
		"tag":        tag,
		"desired":    desired,
		"page_limit": pageLimit,
		"order_asc":  orderByID,
		"min_id":     minID,
	})

	seen := make(map[int64]struct{})
	tracker := newPageTracker(r.errorLimit)

	for page := 1; page <= pageLimit; page++ {
		// The last page asks for exactly the remainder of the desired count
		limit := desired - (page-1)*r.pageSize
		if limit > r.pageSize {
			limit = r.pageSize
		}

		query := booru.PageQuery{
			Tag:       tag,
			Rating:    opts.Rating,
			OrderByID: orderByID,
			MinID:     minID,
			Limit:     limit,
			Page:      page,
		}

		var posts []booru.Post
		skipped := false
		for {
			fetched, ferr := r.index.FetchPage(ctx, query)
			if ferr == nil {
				posts = fetched
				break
			}
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			if tracker.Failure() == StateSkipped {
				r.logger.WarnWithFields("Page fetch failed, skipping", map[string]interface{}{
					"tag":   tag,
					"page":  page,
					"error": ferr.Error(),
				})
				skipped = true
				break
			}
			r.logger.WarnWithFields("Page fetch failed, retrying", map[string]interface{}{
				"tag":    tag,
				"page":   page,
				"errors": tracker.Errors(),
				"error":  ferr.Error(),
			})
		}
		if skipped {
			result.PagesSkipped++
			continue
		}
		tracker.Success()
		result.PagesFetched++

		// An empty page means the listing ran out early
		if len(posts) == 0 {
			r.logger.DebugWithFields("Empty page, stopping", map[string]interface{}{
				"tag":  tag,
				"page": page,
			})
			break
		}

		for _, post := range posts {
			if !post.Available() {
				result.Discarded++
				continue
			}
			if verr := post.Validate(); verr != nil {
				r.logger.DebugWithFields("Discarding malformed record", map[string]interface{}{
					"tag":   tag,
					"error": verr.Error(),
				})
				result.Discarded++
				continue
			}
			if _, ok := acquired[post.ID]; ok {
				continue
			}
			if _, ok := seen[post.ID]; ok {
				continue
			}
			seen[post.ID] = struct{}{}
			result.Posts = append(result.Posts, post)
		}

		if opts.OnPage != nil {
			opts.OnPage(page, pageLimit, len(result.Posts))
		}

		logger.LogPageProgress(tag, page, pageLimit, len(result.Posts))
	}

	return result, nil
}
