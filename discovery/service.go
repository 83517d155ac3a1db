// Package discovery drives the scraping side of the pipeline: one
// Retriever per site, a bounded pool running them, and the daily
// scheduler.
package discovery

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pevans/newsdocs/archiver"
)

var ErrRunInProgress = errors.New("a run is already in progress")

// DefaultWorkers is the number of sites scraped in parallel.
const DefaultWorkers = 2

// Job is one site's retrieval.
type Job interface {
	Retrieve(ctx context.Context) Result
}

// Service runs every site once per call to RunOnce. Runs never overlap.
type Service struct {
	jobs    []Job
	stars   archiver.StarSyncer // optional
	workers int
	logger  *slog.Logger
	running atomic.Bool
}

// NewService creates a Service. stars may be nil.
func NewService(jobs []Job, stars archiver.StarSyncer, workers int, logger *slog.Logger) *Service {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	return &Service{
		jobs:    jobs,
		stars:   stars,
		workers: workers,
		logger:  logger,
	}
}

// RunOnce syncs stars and then retrieves every site on the worker pool.
// It reports whether every site succeeded; a site whose retrieval panics
// counts as failed. A call made while another run is in flight returns
// ErrRunInProgress at once.
func (s *Service) RunOnce(ctx context.Context) (bool, error) {
	if !s.running.CompareAndSwap(false, true) {
		return false, ErrRunInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	s.logger.Info("run starting", "sites", len(s.jobs))

	if s.stars != nil {
		if err := s.stars.Sync(ctx); err != nil {
			s.logger.Error("star sync failed", "error", err)
		}
	}

	results := s.retrieveAll(ctx)

	ok := true
	for _, res := range results {
		ok = ok && res.OK
	}

	s.logger.Info("run finished", "ok", ok, "duration", time.Since(start))
	return ok, nil
}

// Running reports whether a run is in flight.
func (s *Service) Running() bool {
	return s.running.Load()
}

func (s *Service) retrieveAll(ctx context.Context) []Result {
	var (
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, s.workers)
		results   = make([]Result, len(s.jobs))
	)

	for i, job := range s.jobs {
		select {
		case <-ctx.Done():
			wg.Wait()
			return results
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-semaphore }()
			defer func() {
				if p := recover(); p != nil {
					s.logger.Error("site retrieval panicked", "job", i, "panic", p, "stack", string(debug.Stack()))
					results[i] = Result{}
				}
			}()

			results[i] = job.Retrieve(ctx)
		}()
	}

	wg.Wait()
	return results
}
