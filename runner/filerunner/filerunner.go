package filerunner

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gosom/scrapemate"
	"github.com/gosom/scrapemate/adapters/writers/csvwriter"
	"github.com/gosom/scrapemate/adapters/writers/jsonwriter"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/canleads/places-scraper/deduper"
	"github.com/canleads/places-scraper/deduper/seencache"
	"github.com/canleads/places-scraper/exiter"
	"github.com/canleads/places-scraper/gplaces"
	"github.com/canleads/places-scraper/placesapp"
	"github.com/canleads/places-scraper/runner"
	"github.com/canleads/places-scraper/tlmt"
)

type fileRunner struct {
	cfg     *runner.Config
	input   io.Reader
	writers []scrapemate.ResultWriter
	app     *placesapp.App
	outfile *os.File
	dedup   deduper.Deduper
	exit    exiter.Exiter
	log     *zap.Logger
}

func New(cfg *runner.Config) (runner.Runner, error) {
	if cfg.RunMode != runner.RunModeFile {
		return nil, fmt.Errorf("%w: %d", runner.ErrInvalidRunMode, cfg.RunMode)
	}

	log, err := newLogger(cfg.Debug)
	if err != nil {
		return nil, err
	}

	ans := &fileRunner{
		cfg: cfg,
		log: log,
	}

	if err := ans.setInput(); err != nil {
		return nil, err
	}

	if err := ans.setDeduper(); err != nil {
		return nil, err
	}

	ans.exit = exiter.New(exiter.WithLogger(log))

	if err := ans.setWriters(); err != nil {
		return nil, err
	}

	if err := ans.setApp(); err != nil {
		return nil, err
	}

	return ans, nil
}

func (r *fileRunner) Run(ctx context.Context) (err error) {
	var seedJobs []scrapemate.IJob

	t0 := time.Now().UTC()

	defer func() {
		elapsed := time.Now().UTC().Sub(t0)
		params := map[string]any{
			"job_count": len(seedJobs),
			"duration":  elapsed.String(),
			"written":   r.exit.ResultsWritten(),
		}

		if err != nil {
			params["error"] = err.Error()
		}

		evt := tlmt.NewEvent("file_runner", params)

		_ = runner.Telemetry().Send(ctx, evt)
	}()

	seedJobs, err = runner.CreateSeedJobs(r.cfg, r.input, r.dedup, r.exit)
	if err != nil {
		return err
	}

	r.exit.SetSeedCount(len(seedJobs))
	r.exit.SetMaxResults(r.cfg.MaxResults)

	r.log.Info("starting run",
		zap.Int("queries", len(seedJobs)),
		zap.Int("concurrency", r.cfg.Concurrency),
		zap.Bool("email", r.cfg.Email),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.exit.SetCancelFunc(cancel)

	go r.exit.Run(ctx)

	if err = r.app.Start(ctx, seedJobs...); err != nil && ctx.Err() != nil {
		// The exit monitor canceled the run on purpose.
		err = nil
	}

	if err != nil {
		return err
	}

	r.log.Info("run finished", zap.Int("written", r.exit.ResultsWritten()))

	return r.uploadResults(context.WithoutCancel(ctx))
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}

	return cfg.Build()
}

func (r *fileRunner) Close(context.Context) error {
	var errs error

	if closer, ok := r.input.(io.Closer); ok && r.input != os.Stdin {
		errs = multierr.Append(errs, closer.Close())
	}

	if r.outfile != nil {
		errs = multierr.Append(errs, r.outfile.Close())
	}

	if closer, ok := r.dedup.(io.Closer); ok {
		errs = multierr.Append(errs, closer.Close())
	}

	_ = r.log.Sync()

	return errs
}

// uploadResults pushes the finished results file to S3 when both a bucket
// and credentials were configured.
func (r *fileRunner) uploadResults(ctx context.Context) error {
	if r.cfg.S3Uploader == nil || r.cfg.S3Bucket == "" || r.outfile == nil {
		return nil
	}

	if err := r.outfile.Sync(); err != nil {
		return err
	}

	f, err := os.Open(r.outfile.Name())
	if err != nil {
		return err
	}

	defer f.Close()

	key := fmt.Sprintf("results/%s-%s", time.Now().UTC().Format("20060102-150405"), filepath.Base(r.outfile.Name()))

	return r.cfg.S3Uploader.Upload(ctx, r.cfg.S3Bucket, key, f)
}

func (r *fileRunner) setInput() error {
	switch r.cfg.InputFile {
	case "":
		// Queries come from the built-in catalog.
	case "stdin":
		r.input = os.Stdin
	default:
		f, err := os.Open(r.cfg.InputFile)
		if err != nil {
			return err
		}

		r.input = f
	}

	return nil
}

func (r *fileRunner) setDeduper() error {
	if r.cfg.SeenDB == "" {
		r.dedup = deduper.New()

		return nil
	}

	dedup, err := seencache.New(r.cfg.SeenDB, seencache.WithLogger(r.log))
	if err != nil {
		return err
	}

	r.dedup = dedup

	return nil
}

func (r *fileRunner) setWriters() error {
	var resultsWriter io.Writer

	switch r.cfg.ResultsFile {
	case "stdout":
		resultsWriter = os.Stdout
	default:
		f, err := os.Create(r.cfg.ResultsFile)
		if err != nil {
			return err
		}

		r.outfile = f

		resultsWriter = r.outfile
	}

	var writer scrapemate.ResultWriter

	if r.cfg.JSON {
		writer = jsonwriter.NewJSONWriter(resultsWriter)
	} else {
		writer = csvwriter.NewCsvWriter(csv.NewWriter(resultsWriter))
	}

	r.writers = append(r.writers, NewCountingWriter(writer, r.exit))

	return nil
}

func (r *fileRunner) setApp() error {
	app, err := placesapp.New(&placesapp.Config{
		Writers:          r.writers,
		Fetcher:          gplaces.NewFetcher(r.cfg.PageSleep, r.cfg.DetailsSleep),
		Concurrency:      r.cfg.Concurrency,
		ExitOnInactivity: r.cfg.ExitOnInactivityDuration,
	})
	if err != nil {
		return err
	}

	r.app = app

	return nil
}
