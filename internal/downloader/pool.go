package downloader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"boorufetch/pkg/booru"
	"boorufetch/pkg/logger"
	"boorufetch/pkg/retry"
)

// Job represents a single acquisition task
type Job struct {
	Post booru.Post
	Tag  string
	// OnlyInfo stores the tag list and metadata without fetching the asset
	OnlyInfo bool
}

// Result represents the outcome of an acquisition job
type Result struct {
	Job      Job
	Success  bool
	Skipped  bool
	Error    error
	Duration time.Duration
	Size     int
}

// AssetFetcher downloads asset bytes from the board's CDN
type AssetFetcher interface {
	DownloadAsset(ctx context.Context, url string) ([]byte, error)
}

// AcquisitionStore persists the asset, tag list and metadata triple
type AcquisitionStore interface {
	EnsureDir(tag, rating string) (string, error)
	IsComplete(tag, rating string, id int64, ext string) bool
	SaveAsset(r io.Reader, tag, rating string, id int64, ext string) error
	SaveTags(tag, rating string, id int64, tags []string) error
	SaveInfo(tag, rating string, id int64, raw json.RawMessage) error
	AppendManifest(tag, rating string, id int64) error
}

// Options tune the pool's per-job behavior
type Options struct {
	// MaxAttempts bounds the download retries per asset
	MaxAttempts int
	// DownloadTimeout bounds one asset fetch including retries
	DownloadTimeout time.Duration
	// ForbiddenExtensions lists file extensions that are never fetched
	ForbiddenExtensions []string
	// ExtensionMatchCaseSensitive disables the default lowercase comparison
	ExtensionMatchCaseSensitive bool
}

// WorkerPool manages concurrent acquisition workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	client      AssetFetcher
	store       AcquisitionStore
	opts        Options
	forbidden   map[string]struct{}
	logger      logger.Logger
}

// NewWorkerPool creates a new acquisition worker pool
func NewWorkerPool(
	numWorkers int,
	client AssetFetcher,
	store AcquisitionStore,
	opts Options,
	log logger.Logger,
) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}

	forbidden := make(map[string]struct{}, len(opts.ForbiddenExtensions))
	for _, ext := range opts.ForbiddenExtensions {
		if !opts.ExtensionMatchCaseSensitive {
			ext = strings.ToLower(ext)
		}
		forbidden[ext] = struct{}{}
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2), // Buffer size = 2x workers
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		client:      client,
		store:       store,
		opts:        opts,
		forbidden:   forbidden,
		logger:      log,
	}
}

// Start initializes and starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop gracefully shuts down the worker pool
func (wp *WorkerPool) Stop() {
	wp.logger.Info("Stopping worker pool...")

	// Close job queue to signal no more jobs will be added
	close(wp.jobQueue)

	// Wait for all workers to finish processing remaining jobs
	wp.wg.Wait()

	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Info("Worker pool stopped")
}

// Submit adds a new acquisition job to the queue
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		wp.logger.DebugWithFields("Job submitted to queue", map[string]interface{}{
			"post_id": job.Post.ID,
			"tag":     job.Tag,
		})
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the result channel for consuming acquisition results
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

// GetQueueSize returns the current number of jobs in the queue
func (wp *WorkerPool) GetQueueSize() int {
	return len(wp.jobQueue)
}

// worker is the main worker routine
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	wp.logger.DebugWithFields("Worker started", map[string]interface{}{
		"worker_id": id,
	})

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			wp.logger.DebugWithFields("Worker stopping - context cancelled", map[string]interface{}{
				"worker_id": id,
			})
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			wp.logger.DebugWithFields("Worker stopping - context cancelled while sending result", map[string]interface{}{
				"worker_id": id,
			})
			return
		}
	}

	wp.logger.DebugWithFields("Worker stopping - job queue closed", map[string]interface{}{
		"worker_id": id,
	})
}

// processJob handles a single acquisition job
func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}

	post := job.Post
	rating := post.Rating

	wp.logger.DebugWithFields("Worker processing job", map[string]interface{}{
		"worker_id": workerID,
		"post_id":   post.ID,
		"tag":       job.Tag,
	})

	if _, err := wp.store.EnsureDir(job.Tag, rating); err != nil {
		result.Error = fmt.Errorf("ensure directory: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	if wp.store.IsComplete(job.Tag, rating, post.ID, post.FileExt) {
		wp.logger.DebugWithFields("Post already acquired", map[string]interface{}{
			"worker_id": workerID,
			"post_id":   post.ID,
		})
		result.Success = true
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	if wp.extensionForbidden(post.FileExt) {
		wp.logger.DebugWithFields("Post skipped by extension", map[string]interface{}{
			"worker_id": workerID,
			"post_id":   post.ID,
			"extension": post.FileExt,
		})
		result.Success = true
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	if !job.OnlyInfo {
		data, err := wp.fetchAsset(post.FileURL)
		if err != nil {
			result.Error = fmt.Errorf("download failed: %w", err)
			result.Duration = time.Since(start)

			wp.logger.ErrorWithFields("Worker failed to download asset", map[string]interface{}{
				"worker_id": workerID,
				"post_id":   post.ID,
				"error":     err.Error(),
				"duration":  result.Duration,
			})

			return result
		}
		result.Size = len(data)

		if err := wp.store.SaveAsset(bytes.NewReader(data), job.Tag, rating, post.ID, post.FileExt); err != nil {
			result.Error = fmt.Errorf("save failed: %w", err)
			result.Duration = time.Since(start)

			wp.logger.ErrorWithFields("Worker failed to save asset", map[string]interface{}{
				"worker_id": workerID,
				"post_id":   post.ID,
				"error":     err.Error(),
				"size":      result.Size,
			})

			return result
		}
	}

	if err := wp.saveRecord(job); err != nil {
		result.Error = err
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("Worker failed to save record", map[string]interface{}{
			"worker_id": workerID,
			"post_id":   post.ID,
			"error":     err.Error(),
		})

		return result
	}

	result.Success = true
	result.Duration = time.Since(start)

	wp.logger.DebugWithFields("Worker completed job successfully", map[string]interface{}{
		"worker_id": workerID,
		"post_id":   post.ID,
		"size":      result.Size,
		"duration":  result.Duration,
	})

	logger.LogAcquisition(job.Tag, post.ID, true, nil)

	return result
}

// fetchAsset downloads the asset bytes with retry and a per-asset timeout
func (wp *WorkerPool) fetchAsset(url string) ([]byte, error) {
	ctx := wp.ctx
	if wp.opts.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wp.opts.DownloadTimeout)
		defer cancel()
	}

	cfg := &retry.Config{
		MaxAttempts: wp.opts.MaxAttempts,
		Backoff:     retry.DefaultExponentialBackoff(),
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      wp.logger,
	}

	return retry.DoWithResult(func() ([]byte, error) {
		return wp.client.DownloadAsset(ctx, url)
	}, cfg)
}

// saveRecord writes the tag list, the metadata file and the manifest line
func (wp *WorkerPool) saveRecord(job Job) error {
	post := job.Post
	rating := post.Rating

	if err := wp.store.SaveTags(job.Tag, rating, post.ID, post.Tags()); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}

	raw := post.Raw()
	if len(raw) == 0 {
		encoded, err := json.Marshal(&post)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		raw = encoded
	}
	if err := wp.store.SaveInfo(job.Tag, rating, post.ID, raw); err != nil {
		return fmt.Errorf("save record: %w", err)
	}

	if err := wp.store.AppendManifest(job.Tag, rating, post.ID); err != nil {
		return fmt.Errorf("append manifest: %w", err)
	}

	return nil
}

func (wp *WorkerPool) extensionForbidden(ext string) bool {
	if len(wp.forbidden) == 0 {
		return false
	}
	if !wp.opts.ExtensionMatchCaseSensitive {
		ext = strings.ToLower(ext)
	}
	_, ok := wp.forbidden[ext]
	return ok
}
