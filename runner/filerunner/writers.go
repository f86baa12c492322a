package filerunner

import (
	"context"

	"github.com/gosom/scrapemate"

	"github.com/canleads/places-scraper/exiter"
)

// NewCountingWriter wraps a result writer and reports every row it passes
// through to the exit monitor, so -max-results can stop the run.
func NewCountingWriter(wrapped scrapemate.ResultWriter, exitMonitor exiter.Exiter) scrapemate.ResultWriter {
	return &countingWriter{wrapped: wrapped, exitMonitor: exitMonitor}
}

type countingWriter struct {
	wrapped     scrapemate.ResultWriter
	exitMonitor exiter.Exiter
}

func (w *countingWriter) Run(ctx context.Context, in <-chan scrapemate.Result) error {
	counted := make(chan scrapemate.Result)
	done := make(chan error, 1)

	go func() {
		done <- w.wrapped.Run(ctx, counted)
	}()

	forward := true

	for result := range in {
		if !forward {
			continue
		}

		select {
		case counted <- result:
			if w.exitMonitor != nil {
				w.exitMonitor.IncrResultsWritten(1)
			}
		case err := <-done:
			// The wrapped writer gave up early. Keep draining so the
			// engine does not block on its results channel.
			done <- err
			forward = false
		case <-ctx.Done():
			forward = false
		}
	}

	close(counted)

	return <-done
}
