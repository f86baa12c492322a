package runner

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/canleads/places-scraper/s3uploader"
	"github.com/canleads/places-scraper/tlmt"
	"github.com/canleads/places-scraper/tlmt/gonoop"
	"github.com/canleads/places-scraper/tlmt/goposthog"
)

const (
	RunModeFile = iota + 1
	RunModeDatabase
	RunModeDatabaseProduce
)

var (
	ErrInvalidRunMode = errors.New("invalid run mode")
)

type Runner interface {
	Run(context.Context) error
	Close(context.Context) error
}

type S3Uploader interface {
	Upload(ctx context.Context, bucketName, key string, body io.Reader) error
}

type Config struct {
	APIKey                   string
	Concurrency              int
	InputFile                string
	ResultsFile              string
	JSON                     bool
	Debug                    bool
	Dsn                      string
	ProduceOnly              bool
	ExitOnInactivityDuration time.Duration
	Email                    bool
	GeoCoordinates           string
	Radius                   float64
	Province                 string
	MajorCitiesOnly          bool
	RuralOnly                bool
	SkipProvinceWide         bool
	SkipLanguageVariants     bool
	MaxPerQuery              int
	MaxResults               int
	PageSleep                time.Duration
	DetailsSleep             time.Duration
	SeenDB                   string
	RunMode                  int
	DisableTelemetry         bool
	AwsAccessKey             string
	AwsSecretKey             string
	AwsRegion                string
	S3Uploader               S3Uploader
	S3Bucket                 string
}

func ParseConfig() *Config {
	cfg := Config{}

	flag.StringVar(&cfg.APIKey, "api-key", "", "Places API key [falls back to PLACES_API_KEY]")
	flag.IntVar(&cfg.Concurrency, "c", 1, "sets the concurrency [default: 1, requests stay sequential]")
	flag.StringVar(&cfg.ResultsFile, "results", "stdout", "path to the results file [default: stdout]")
	flag.StringVar(&cfg.InputFile, "input", "", "path to the input file with queries (one per line) [default: built-in catalog]")
	flag.BoolVar(&cfg.Debug, "debug", false, "enable debug logging [default: false]")
	flag.StringVar(&cfg.Dsn, "dsn", "", "database connection string [only valid with database provider]")
	flag.BoolVar(&cfg.ProduceOnly, "produce", false, "produce seed queries only (requires dsn)")
	flag.DurationVar(&cfg.ExitOnInactivityDuration, "exit-on-inactivity", 0, "exit after inactivity duration (e.g., '5m')")
	flag.BoolVar(&cfg.JSON, "json", false, "produce JSON output instead of CSV")
	flag.BoolVar(&cfg.Email, "email", false, "extract emails from websites")
	flag.StringVar(&cfg.GeoCoordinates, "geo", "", "location bias for every query (e.g., '53.5461,-113.4938')")
	flag.Float64Var(&cfg.Radius, "radius", 50000, "location bias radius in meters. Default is 50000 meters")
	flag.StringVar(&cfg.Province, "province", "all", "catalog subset: alberta, quebec or all")
	flag.BoolVar(&cfg.MajorCitiesOnly, "major-cities-only", false, "only query major cities from the catalog")
	flag.BoolVar(&cfg.RuralOnly, "rural-only", false, "only query rural areas from the catalog")
	flag.BoolVar(&cfg.SkipProvinceWide, "no-province-wide", false, "skip province-wide sweep queries")
	flag.BoolVar(&cfg.SkipLanguageVariants, "skip-language-variants", false, "skip French language variant queries")
	flag.IntVar(&cfg.MaxPerQuery, "max-per-query", 180, "max results consumed per query [default: 180]")
	flag.IntVar(&cfg.MaxResults, "max-results", 0, "stop the run after this many rows are written [default: unlimited]")
	flag.DurationVar(&cfg.PageSleep, "page-sleep", 2*time.Second, "wait before using a continuation token [default: 2s]")
	flag.DurationVar(&cfg.DetailsSleep, "details-sleep", 120*time.Millisecond, "minimum interval between detail requests [default: 120ms]")
	flag.StringVar(&cfg.SeenDB, "seen-db", "", "path to a sqlite file that persists seen place ids across runs")
	flag.StringVar(&cfg.AwsAccessKey, "aws-access-key", "", "AWS access key")
	flag.StringVar(&cfg.AwsSecretKey, "aws-secret-key", "", "AWS secret key")
	flag.StringVar(&cfg.AwsRegion, "aws-region", "", "AWS region")
	flag.StringVar(&cfg.S3Bucket, "s3-bucket", "", "S3 bucket to upload the results file to")

	flag.Parse()

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("PLACES_API_KEY")
	}

	if cfg.AwsAccessKey == "" {
		cfg.AwsAccessKey = os.Getenv("MY_AWS_ACCESS_KEY")
	}

	if cfg.AwsSecretKey == "" {
		cfg.AwsSecretKey = os.Getenv("MY_AWS_SECRET_KEY")
	}

	if cfg.AwsRegion == "" {
		cfg.AwsRegion = os.Getenv("MY_AWS_REGION")
	}

	if cfg.APIKey == "" {
		panic("APIKey must be provided via -api-key or PLACES_API_KEY")
	}

	if cfg.Concurrency < 1 {
		panic("Concurrency must be greater than 0")
	}

	if cfg.MajorCitiesOnly && cfg.RuralOnly {
		panic("major-cities-only and rural-only are mutually exclusive")
	}

	if cfg.MaxPerQuery < 1 {
		panic("MaxPerQuery must be greater than 0")
	}

	if cfg.Radius <= 0 {
		panic("Radius must be greater than 0")
	}

	if cfg.Dsn == "" && cfg.ProduceOnly {
		panic("Dsn must be provided when using ProduceOnly")
	}

	if cfg.AwsAccessKey != "" && cfg.AwsSecretKey != "" && cfg.AwsRegion != "" {
		uploader, err := s3uploader.New(cfg.AwsAccessKey, cfg.AwsSecretKey, cfg.AwsRegion)
		if err != nil {
			panic(fmt.Sprintf("cannot create S3 uploader: %v", err))
		}

		cfg.S3Uploader = uploader
	}

	switch {
	case cfg.Dsn == "":
		cfg.RunMode = RunModeFile
	case cfg.ProduceOnly:
		cfg.RunMode = RunModeDatabaseProduce
	default:
		cfg.RunMode = RunModeDatabase
	}

	return &cfg
}

var (
	telemetryOnce sync.Once
	telemetry     tlmt.Telemetry
)

func Telemetry() tlmt.Telemetry {
	telemetryOnce.Do(func() {
		if os.Getenv("DISABLE_TELEMETRY") == "1" {
			telemetry = gonoop.New()

			return
		}

		key := os.Getenv("PLACES_TELEMETRY_KEY")
		if key == "" {
			telemetry = gonoop.New()

			return
		}

		val, err := goposthog.New(key, "https://eu.i.posthog.com")
		if err != nil || val == nil {
			telemetry = gonoop.New()

			return
		}

		telemetry = val
	})

	return telemetry
}

func wrapText(text string, width int) []string {
	var lines []string

	currentLine := ""
	currentWidth := 0

	for _, r := range text {
		runeWidth := runewidth.RuneWidth(r)
		if currentWidth+runeWidth > width {
			lines = append(lines, currentLine)
			currentLine = string(r)
			currentWidth = runeWidth
		} else {
			currentLine += string(r)
			currentWidth += runeWidth
		}
	}

	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return lines
}

func banner(messages []string, width int) string {
	if width <= 0 {
		var err error

		width, _, err = term.GetSize(0)
		if err != nil {
			width = 80
		}
	}

	if width < 20 {
		width = 20
	}

	contentWidth := width - 4

	var wrappedLines []string
	for _, message := range messages {
		wrappedLines = append(wrappedLines, wrapText(message, contentWidth)...)
	}

	var builder strings.Builder

	builder.WriteString("╔" + strings.Repeat("═", width-2) + "╗\n")

	for _, line := range wrappedLines {
		lineWidth := runewidth.StringWidth(line)
		paddingRight := contentWidth - lineWidth

		if paddingRight < 0 {
			paddingRight = 0
		}

		builder.WriteString(fmt.Sprintf("║ %s%s ║\n", line, strings.Repeat(" ", paddingRight)))
	}

	builder.WriteString("╚" + strings.Repeat("═", width-2) + "╝\n")

	return builder.String()
}

func Banner() {
	message1 := "📍 Places Lead Scraper"
	message2 := "Extracts business leads from the Places text-search and details endpoints into CSV, JSON or postgres."

	fmt.Fprintln(os.Stderr, banner([]string{message1, message2}, 0))
}
