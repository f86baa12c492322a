// Package placesapp wires a scrapemate engine for Places API runs: a job
// provider, the API fetcher, the result writers and the concurrency
// level, supervised as one errgroup.
package placesapp

import (
	"context"
	"errors"
	"time"

	"github.com/gosom/scrapemate"
	parser "github.com/gosom/scrapemate/adapters/parsers/goqueryparser"
	memprovider "github.com/gosom/scrapemate/adapters/providers/memory"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	Writers []scrapemate.ResultWriter

	// Fetcher issues the actual HTTP requests (gplaces.NewFetcher in
	// production, a stub in tests).
	Fetcher scrapemate.HTTPFetcher

	// Provider defaults to the in-memory provider when nil.
	Provider scrapemate.JobProvider

	// Concurrency 1 reproduces the strictly sequential collection model;
	// higher values are safe because the deduper is synchronized.
	Concurrency int

	ExitOnInactivity time.Duration
}

type App struct {
	cfg *Config

	provider scrapemate.JobProvider
	cancel   context.CancelCauseFunc
}

func New(cfg *Config) (*App, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("placesapp: fetcher is required")
	}

	if len(cfg.Writers) == 0 {
		return nil, errors.New("placesapp: at least one writer is required")
	}

	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	return &App{cfg: cfg}, nil
}

// Start runs the engine until every seed job's tree is exhausted or ctx
// is canceled. Writer failures tear the whole run down: output that can
// no longer be persisted makes further fetching pointless.
func (app *App) Start(ctx context.Context, seedJobs ...scrapemate.IJob) error {
	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancelCause(ctx)

	app.cancel = cancel

	defer cancel(errors.New("closing app"))

	mate, err := app.getMate(ctx)
	if err != nil {
		return err
	}

	for i := range app.cfg.Writers {
		writer := app.cfg.Writers[i]

		g.Go(func() error {
			if err := writer.Run(ctx, mate.Results()); err != nil {
				cancel(err)

				return err
			}

			return nil
		})
	}

	g.Go(func() error {
		return mate.Start()
	})

	g.Go(func() error {
		for i := range seedJobs {
			if err := app.provider.Push(ctx, seedJobs[i]); err != nil {
				return err
			}
		}

		return nil
	})

	return g.Wait()
}

func (app *App) getMate(ctx context.Context) (*scrapemate.ScrapeMate, error) {
	app.provider = app.cfg.Provider
	if app.provider == nil {
		app.provider = memprovider.New()
	}

	params := []func(*scrapemate.ScrapeMate) error{
		scrapemate.WithContext(ctx, app.cancel),
		scrapemate.WithJobProvider(app.provider),
		scrapemate.WithHTTPFetcher(app.cfg.Fetcher),
		scrapemate.WithHTMLParser(parser.New()),
		scrapemate.WithConcurrency(app.cfg.Concurrency),
		scrapemate.WithExitBecauseOfInactivity(app.cfg.ExitOnInactivity),
	}

	return scrapemate.New(params...)
}
