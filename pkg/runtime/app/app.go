package app

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/de-tools/report-deck/pkg/pptx"
	"github.com/de-tools/report-deck/pkg/services/archive"
	"github.com/de-tools/report-deck/pkg/services/config"
	"github.com/de-tools/report-deck/pkg/services/fetch"
	"github.com/de-tools/report-deck/pkg/services/report"
)

// App holds the services shared by the web and terminal runtimes.
type App struct {
	Config    *config.Config
	Fetcher   *fetch.Fetcher
	Generator *report.Generator
	// Archiver is nil when archiving is disabled.
	Archiver *archive.Archiver
}

// Build wires the services described by cfg. AWS is only required for
// archiving; without it s3:// image sources are disabled.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := zerolog.Ctx(ctx)

	templatePath, err := config.ResolveTemplatePath(cfg.Template.Path)
	if err != nil {
		return nil, err
	}

	var fetchOpts []fetch.Option
	var s3Client *s3.Client
	awsCfg, err := config.LoadAWSConfig(ctx, cfg.Archive.Profile, cfg.Archive.Region)
	switch {
	case err == nil:
		s3Client = s3.NewFromConfig(awsCfg)
		fetchOpts = append(fetchOpts, fetch.WithObjectGetter(s3Client))
	case cfg.Archive.Enabled():
		return nil, fmt.Errorf("archiving requires AWS configuration: %w", err)
	default:
		logger.Warn().Err(err).Msg("AWS configuration unavailable, s3 image sources disabled")
	}

	fetcher := fetch.NewFetcher(fetch.Config{
		Timeout:       cfg.Fetch.Timeout,
		MaxBytes:      cfg.Fetch.MaxBytes,
		CacheTTL:      cfg.Fetch.CacheTTL,
		RatePerSecond: cfg.Fetch.RatePerSecond,
		Burst:         cfg.Fetch.Burst,
	}, fetchOpts...)

	generator := report.NewGenerator(report.Config{
		TemplatePath: templatePath,
		OutputDir:    cfg.Output.Dir,
		Image: pptx.Frame{
			Left:  pptx.Inches(cfg.Image.LeftInches),
			Top:   pptx.Inches(cfg.Image.TopInches),
			Width: pptx.Inches(cfg.Image.WidthInches),
		},
	}, fetcher)

	a := &App{
		Config:    cfg,
		Fetcher:   fetcher,
		Generator: generator,
	}
	if cfg.Archive.Enabled() {
		a.Archiver = archive.NewArchiver(s3Client, archive.Config{
			Bucket: cfg.Archive.Bucket,
			Prefix: cfg.Archive.Prefix,
		})
	}

	logger.Info().
		Str("template", templatePath).
		Bool("archive", cfg.Archive.Enabled()).
		Msg("services configured")
	return a, nil
}

// NewLogger returns the process logger at the configured level.
func NewLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
}
