// Package exiter decides when a run is finished. It watches the counters
// the jobs report (queries completed, places found and processed, rows
// written) and cancels the run context once no more work can arrive, or
// once the configured result limit is reached.
package exiter

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Exiter interface {
	SetSeedCount(int)
	SetMaxResults(int)
	SetCancelFunc(context.CancelFunc)
	IncrSeedCompleted(int)
	IncrPlacesFound(int)
	IncrPlacesCompleted(int)
	IncrResultsWritten(int)
	ResultsWritten() int
	Run(context.Context)
}

type Option func(*exiter)

func WithLogger(l *zap.Logger) Option {
	return func(e *exiter) {
		e.log = l
	}
}

// tailInactivity bounds how long the monitor waits for the last few
// detail fetches: a job that exhausted its retries never reports
// completion, and the run must not hang on it.
const tailInactivity = 30 * time.Second

type exiter struct {
	mu sync.Mutex

	seedCount       int
	seedCompleted   int
	placesFound     int
	placesCompleted int
	resultsWritten  int
	maxResults      int
	limitReached    bool
	lastProgress    time.Time

	cancelFunc context.CancelFunc
	log        *zap.Logger
}

func New(opts ...Option) Exiter {
	ans := exiter{
		lastProgress: time.Now(),
		log:          zap.NewNop(),
	}

	for _, opt := range opts {
		opt(&ans)
	}

	return &ans
}

func (e *exiter) SetSeedCount(val int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.seedCount = val
}

func (e *exiter) SetMaxResults(val int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.maxResults = val
}

func (e *exiter) SetCancelFunc(fn context.CancelFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelFunc = fn
}

func (e *exiter) IncrSeedCompleted(val int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.seedCompleted += val
	e.lastProgress = time.Now()
}

func (e *exiter) IncrPlacesFound(val int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.placesFound += val
	e.lastProgress = time.Now()
}

func (e *exiter) IncrPlacesCompleted(val int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.placesCompleted += val
	e.lastProgress = time.Now()
}

func (e *exiter) IncrResultsWritten(val int) {
	e.mu.Lock()

	e.resultsWritten += val
	e.lastProgress = time.Now()

	limitHit := e.maxResults > 0 && e.resultsWritten >= e.maxResults && !e.limitReached
	if limitHit {
		e.limitReached = true
	}

	cancel := e.cancelFunc
	written := e.resultsWritten
	limit := e.maxResults

	e.mu.Unlock()

	if limitHit {
		e.log.Info("result limit reached, stopping run",
			zap.Int("written", written),
			zap.Int("limit", limit),
		)

		if cancel != nil {
			go cancel()
		}
	}
}

func (e *exiter) ResultsWritten() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.resultsWritten
}

func (e *exiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if e.isDone() {
				e.mu.Lock()
				cancel := e.cancelFunc
				e.mu.Unlock()

				e.log.Info("all queries processed, stopping run")

				if cancel != nil {
					cancel()
				}

				return
			}
		}
	}
}

func (e *exiter) isDone() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.maxResults > 0 && e.resultsWritten >= e.maxResults {
		return true
	}

	if e.seedCompleted < e.seedCount {
		return false
	}

	if e.placesCompleted >= e.placesFound {
		return true
	}

	// Seeds are done and only a handful of stragglers remain; give up on
	// them after a quiet period.
	return time.Since(e.lastProgress) > tailInactivity
}
