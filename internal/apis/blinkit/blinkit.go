package blinkit

import (
	"context"
	"log/slog"
	"net/http"

	"blinkitparser/internal/apis/blinkit/endpoints"
	"blinkitparser/internal/apis/blinkit/responses"
	"blinkitparser/internal/client"
)

type ListingPage = responses.ListingPage
type Snippet = responses.Snippet
type ListingQuery = endpoints.ListingQuery

type BlinkitService interface {
	ListingWidgets(ctx context.Context, q ListingQuery) (ListingPage, error)
}

type service struct {
	api *endpoints.Client
	log *slog.Logger
}

func New(transport client.Transport, baseURL string, logger *slog.Logger) BlinkitService {
	if baseURL == "" {
		baseURL = "https://blinkit.com"
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &service{log: logger}
	s.api = endpoints.New(transport, baseURL, s.applyDefaultHeaders)
	return s
}

// applyDefaultHeaders mimics the consumer web app; the listing endpoint
// rejects clients it does not recognize.
func (s *service) applyDefaultHeaders(req *http.Request) {
	req.Header.Set(
		"User-Agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) "+
			"AppleWebKit/537.36 (KHTML, like Gecko) "+
			"Chrome/115.0.0.0 Safari/537.36",
	)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", "https://blinkit.com/")
	req.Header.Set("Origin", "https://blinkit.com")

	req.Header.Set("app_client", "consumer_web")
	req.Header.Set("app_version", "1010101010")
	req.Header.Set("platform", "desktop_web")
}

func (s *service) ListingWidgets(ctx context.Context, q ListingQuery) (ListingPage, error) {
	return s.api.ListingWidgets(ctx, q)
}
