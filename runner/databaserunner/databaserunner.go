package databaserunner

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	// postgres driver
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/google/uuid"
	"github.com/gosom/scrapemate"
	"go.uber.org/zap"

	"github.com/canleads/places-scraper/deduper"
	"github.com/canleads/places-scraper/exiter"
	"github.com/canleads/places-scraper/gplaces"
	"github.com/canleads/places-scraper/placesapp"
	"github.com/canleads/places-scraper/postgres"
	"github.com/canleads/places-scraper/queries"
	"github.com/canleads/places-scraper/runner"
	"github.com/canleads/places-scraper/tlmt"
)

// batchSize bounds how many queued queries a single engine run consumes
// before their status is flushed back to the database.
const batchSize = 50

type dbrunner struct {
	cfg     *runner.Config
	produce bool
	conn    *sql.DB
	repo    *postgres.QueryRepository
	log     *zap.Logger
}

func New(cfg *runner.Config) (runner.Runner, error) {
	if cfg.RunMode != runner.RunModeDatabase && cfg.RunMode != runner.RunModeDatabaseProduce {
		return nil, fmt.Errorf("%w: %d", runner.ErrInvalidRunMode, cfg.RunMode)
	}

	conn, err := openPsqlConn(cfg.Dsn)
	if err != nil {
		return nil, err
	}

	if err := postgres.CreateSchema(context.Background(), conn); err != nil {
		_ = conn.Close()

		return nil, err
	}

	log, err := zap.NewProduction()
	if err != nil {
		_ = conn.Close()

		return nil, err
	}

	ans := dbrunner{
		cfg:     cfg,
		produce: cfg.ProduceOnly,
		conn:    conn,
		repo:    postgres.NewQueryRepository(conn),
		log:     log,
	}

	return &ans, nil
}

func (d *dbrunner) Run(ctx context.Context) error {
	_ = runner.Telemetry().Send(ctx, tlmt.NewEvent("databaserunner.Run", nil))

	if d.produce {
		return d.produceSeedQueries(ctx)
	}

	return d.consume(ctx)
}

func (d *dbrunner) Close(context.Context) error {
	_ = d.log.Sync()

	if d.conn != nil {
		return d.conn.Close()
	}

	return nil
}

// produceSeedQueries enumerates the run's queries and queues them in the
// database for a later consuming run.
func (d *dbrunner) produceSeedQueries(ctx context.Context) error {
	items, err := d.collectQueries()
	if err != nil {
		return err
	}

	if err := d.repo.SaveQueries(ctx, items, d.cfg.MaxPerQuery); err != nil {
		return err
	}

	_ = runner.Telemetry().Send(ctx, tlmt.NewEvent("databaserunner.produceSeedQueries", map[string]any{
		"query_count": len(items),
	}))

	return nil
}

// consume drains queued queries in batches. Each batch runs through the
// engine once; its rows are marked done only after the batch finishes, so
// an interrupted run re-processes the batch instead of losing it.
func (d *dbrunner) consume(ctx context.Context) error {
	dedup := deduper.New()

	for {
		batch, err := d.repo.SelectPending(ctx, batchSize)
		if err != nil {
			return err
		}

		if len(batch) == 0 {
			return nil
		}

		d.log.Info("processing query batch", zap.Int("size", len(batch)))

		if err := d.runBatch(ctx, batch, dedup); err != nil {
			return err
		}

		for _, row := range batch {
			if err := d.repo.MarkDone(ctx, row.ID); err != nil {
				return err
			}
		}
	}
}

func (d *dbrunner) runBatch(ctx context.Context, batch []postgres.QueryRow, dedup deduper.Deduper) error {
	exitMonitor := exiter.New()

	var lat, lon float64

	var err error

	hasBias := d.cfg.GeoCoordinates != ""
	if hasBias {
		lat, lon, err = runner.ParseGeoBias(d.cfg.GeoCoordinates)
		if err != nil {
			return err
		}
	}

	opts := []gplaces.TextSearchJobOptions{
		gplaces.WithDeduper(dedup),
		gplaces.WithExitMonitor(exitMonitor),
	}

	if d.cfg.Email {
		opts = append(opts, gplaces.WithEmailExtraction())
	}

	if d.cfg.PageSleep > 0 {
		opts = append(opts, gplaces.WithPageSleep(d.cfg.PageSleep))
	}

	seedJobs := make([]scrapemate.IJob, 0, len(batch))

	for _, row := range batch {
		params := gplaces.SearchParams{
			Query:      row.Query,
			Lat:        lat,
			Lon:        lon,
			Radius:     d.cfg.Radius,
			HasBias:    hasBias,
			MaxResults: row.MaxResults,
		}

		seedJobs = append(seedJobs, gplaces.NewTextSearchJob(row.ID, d.cfg.APIKey, &params, opts...))
	}

	app, err := placesapp.New(&placesapp.Config{
		Writers:          []scrapemate.ResultWriter{postgres.NewResultWriter(d.conn)},
		Fetcher:          gplaces.NewFetcher(d.cfg.PageSleep, d.cfg.DetailsSleep),
		Concurrency:      d.cfg.Concurrency,
		ExitOnInactivity: d.cfg.ExitOnInactivityDuration,
	})
	if err != nil {
		return err
	}

	exitMonitor.SetSeedCount(len(seedJobs))
	exitMonitor.SetMaxResults(d.cfg.MaxResults)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	exitMonitor.SetCancelFunc(cancel)

	go exitMonitor.Run(ctx)

	if err := app.Start(ctx, seedJobs...); err != nil && ctx.Err() == nil {
		return err
	}

	return nil
}

// collectQueries reads queries from the input file when one is given,
// otherwise enumerates the built-in catalog.
func (d *dbrunner) collectQueries() ([]queries.SearchQuery, error) {
	if d.cfg.InputFile == "" {
		return queries.Enumerate(queries.Options{
			Province:             d.cfg.Province,
			MajorCitiesOnly:      d.cfg.MajorCitiesOnly,
			RuralOnly:            d.cfg.RuralOnly,
			SkipProvinceWide:     d.cfg.SkipProvinceWide,
			SkipLanguageVariants: d.cfg.SkipLanguageVariants,
			MaxPerQuery:          d.cfg.MaxPerQuery,
		})
	}

	var input io.Reader

	switch d.cfg.InputFile {
	case "stdin":
		input = os.Stdin
	default:
		f, err := os.Open(d.cfg.InputFile)
		if err != nil {
			return nil, err
		}

		defer f.Close()

		input = f
	}

	var items []queries.SearchQuery

	scanner := bufio.NewScanner(input)

	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		id := uuid.New().String()

		if before, after, ok := strings.Cut(text, "#!#"); ok {
			text = strings.TrimSpace(before)
			id = strings.TrimSpace(after)
		}

		items = append(items, queries.SearchQuery{
			ID:         id,
			Text:       text,
			MaxResults: d.cfg.MaxPerQuery,
		})
	}

	return items, scanner.Err()
}

func openPsqlConn(dsn string) (conn *sql.DB, err error) {
	conn, err = sql.Open("pgx", dsn)
	if err != nil {
		return
	}

	err = conn.Ping()
	if err != nil {
		return
	}

	conn.SetMaxOpenConns(10)

	return
}
