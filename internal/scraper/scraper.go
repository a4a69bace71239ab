package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"blinkitparser/internal/apis/blinkit/usecases"
	"blinkitparser/internal/domain/models"
	"blinkitparser/internal/inputs"
	"blinkitparser/internal/repository"
	"blinkitparser/internal/repository/csvfile"
)

// PairScraper walks all listing pages for one location and category pair.
type PairScraper interface {
	Scrape(ctx context.Context, loc models.Location, cat models.Category, sink repository.RowSink) (usecases.PairResult, error)
}

type Options struct {
	LocationsFile  string
	CategoriesFile string
	SchemaFile     string
	OutputFile     string
	DryRun         bool
}

// Summary is what one full run produced. Pairs counts pairs that ran to
// their stop condition; pages and products scraped before an abort are
// still included.
type Summary struct {
	Pairs      int
	Pages      int
	Products   int
	PairErrors int
}

type Service struct {
	walker PairScraper
	log    *slog.Logger
}

func New(walker PairScraper, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{walker: walker, log: log}
}

// Run loads the input tables and walks the full location by category cross
// product, location-major, one pair at a time. Each pair is independent:
// its failures are absorbed into the summary, and only context cancellation
// ends the run early.
func (s *Service) Run(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary

	locs, err := inputs.ReadLocations(opts.LocationsFile)
	if err != nil {
		return sum, fmt.Errorf("load locations: %w", err)
	}
	cats, err := inputs.ReadCategories(opts.CategoriesFile)
	if err != nil {
		return sum, fmt.Errorf("load categories: %w", err)
	}
	schema, err := inputs.ReadSchema(opts.SchemaFile)
	if err != nil {
		return sum, fmt.Errorf("load schema: %w", err)
	}
	if len(schema) == 0 {
		return sum, fmt.Errorf("schema %s has no fields", opts.SchemaFile)
	}

	s.log.Info("inputs loaded",
		"locations", len(locs),
		"categories", len(cats),
		"schema_fields", len(schema),
		"pairs", len(locs)*len(cats),
	)

	if opts.DryRun {
		s.log.Info("dry run, not scraping", "output", opts.OutputFile)
		return sum, nil
	}

	repo, err := csvfile.New(opts.OutputFile, schema, s.log)
	if err != nil {
		return sum, fmt.Errorf("open output: %w", err)
	}
	defer repo.Close()

	start := time.Now()
	for _, loc := range locs {
		for _, cat := range cats {
			res, err := s.walker.Scrape(ctx, loc, cat, repo)
			sum.Pages += res.Pages
			sum.Products += res.Products
			if err != nil {
				return sum, err
			}
			sum.Pairs++
			if res.Reason == usecases.StopError {
				sum.PairErrors++
			}
		}
	}

	s.log.Info("scrape finished",
		"pairs", sum.Pairs,
		"pages", sum.Pages,
		"products", sum.Products,
		"pair_errors", sum.PairErrors,
		"took", time.Since(start).String(),
	)
	return sum, nil
}
