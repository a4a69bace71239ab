package usecases

import (
	"context"
	"log/slog"
	"time"

	"blinkitparser/internal/apis/blinkit"
	"blinkitparser/internal/apis/blinkit/endpoints"
	"blinkitparser/internal/apis/blinkit/mapper"
	"blinkitparser/internal/domain/models"
	"blinkitparser/internal/metrics"
	"blinkitparser/internal/repository"
)

// StopReason says why a pair walk ended.
type StopReason string

const (
	// StopExhausted: the server stopped handing out next_url cursors, or the
	// page cap tripped.
	StopExhausted StopReason = "exhausted"
	// StopEmptyPage: a page came back with no snippets at all.
	StopEmptyPage StopReason = "empty_page"
	// StopError: a fetch, decode or sink failure ended the pair early.
	StopError StopReason = "error"
)

type PairResult struct {
	Pages    int
	Products int
	Reason   StopReason
}

type PairProductsService struct {
	blinkit  blinkit.BlinkitService
	log      *slog.Logger
	metrics  *metrics.Registry
	pageSize int
	maxPages int
	delay    time.Duration
}

func NewPairProductsService(
	blinkitSvc blinkit.BlinkitService,
	logger *slog.Logger,
	reg *metrics.Registry,
	pageSize int,
	maxPages int,
	delay time.Duration,
) *PairProductsService {
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	if pageSize <= 0 {
		pageSize = 24
	}
	if maxPages <= 0 {
		maxPages = 500
	}
	if delay < 0 {
		delay = 0
	}

	return &PairProductsService{
		blinkit:  blinkitSvc,
		log:      logger,
		metrics:  reg,
		pageSize: pageSize,
		maxPages: maxPages,
		delay:    delay,
	}
}

// Scrape walks every listing page for one location and category pair,
// writing accepted rows to sink as they arrive. Failures end the pair, not
// the run: the returned error is non-nil only when ctx is done.
func (s *PairProductsService) Scrape(
	ctx context.Context,
	loc models.Location,
	cat models.Category,
	sink repository.RowSink,
) (PairResult, error) {
	log := s.log.With(
		"lat", loc.Latitude,
		"lon", loc.Longitude,
		"l1_category_id", cat.L1CategoryID,
		"l2_category_id", cat.L2CategoryID,
	)
	log.Info("scrape pair", "l1_category", cat.L1Category, "l2_category", cat.L2Category)

	var res PairResult
	target := endpoints.InitialListingPath(cat.L1CategoryID, cat.L2CategoryID, s.pageSize)

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if page > s.maxPages {
			log.Warn("page cap reached, stopping pair", "max_pages", s.maxPages, "products", res.Products)
			res.Reason = StopExhausted
			s.metrics.PairsCompleted.Inc()
			return res, nil
		}

		start := time.Now()
		listing, err := s.blinkit.ListingWidgets(ctx, blinkit.ListingQuery{
			Lat:        loc.Latitude,
			Lon:        loc.Longitude,
			Target:     target,
			Subsequent: page > 1,
		})
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			log.Error("page fetch failed, abandoning pair", "page", page, "error", err)
			res.Reason = StopError
			s.metrics.PairErrors.Inc()
			return res, nil
		}
		s.metrics.PageFetchSec.Observe(time.Since(start).Seconds())

		res.Pages++
		s.metrics.PagesFetched.Inc()

		if len(listing.Snippets) == 0 {
			log.Info("empty page, stopping pair", "page", page, "products", res.Products)
			res.Reason = StopEmptyPage
			s.metrics.PairsCompleted.Inc()
			return res, nil
		}

		date := time.Now().UTC().Format("2006-01-02")
		for _, snip := range listing.Snippets {
			p, ok := mapper.FromSnippet(snip, cat, date)
			if !ok {
				s.metrics.SnippetsDropped.Inc()
				continue
			}
			if err := sink.WriteRow(ctx, p); err != nil {
				if ctx.Err() != nil {
					return res, ctx.Err()
				}
				log.Error("row write failed, abandoning pair", "page", page, "error", err)
				res.Reason = StopError
				s.metrics.PairErrors.Inc()
				return res, nil
			}
			res.Products++
			s.metrics.ProductsWritten.Inc()
		}

		next := listing.Pagination.NextURL
		if next == "" {
			log.Info("pair done", "pages", res.Pages, "products", res.Products)
			res.Reason = StopExhausted
			s.metrics.PairsCompleted.Inc()
			return res, nil
		}
		target = next

		if err := sleep(ctx, s.delay); err != nil {
			return res, err
		}
	}
}

// sleep waits d unless ctx ends first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
