package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg             *prometheus.Registry
	PagesFetched    prometheus.Counter
	ProductsWritten prometheus.Counter
	SnippetsDropped prometheus.Counter
	PairsCompleted  prometheus.Counter
	PairErrors      prometheus.Counter
	PageFetchSec    prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	pages := prometheus.NewCounter(prometheus.CounterOpts{Name: "blinkit_pages_fetched_total"})
	products := prometheus.NewCounter(prometheus.CounterOpts{Name: "blinkit_products_written_total"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "blinkit_snippets_dropped_total"})
	pairs := prometheus.NewCounter(prometheus.CounterOpts{Name: "blinkit_pairs_completed_total"})
	pairErrors := prometheus.NewCounter(prometheus.CounterOpts{Name: "blinkit_pair_errors_total"})
	fetchSec := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "blinkit_page_fetch_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(pages, products, dropped, pairs, pairErrors, fetchSec)
	return &Registry{
		reg:             r,
		PagesFetched:    pages,
		ProductsWritten: products,
		SnippetsDropped: dropped,
		PairsCompleted:  pairs,
		PairErrors:      pairErrors,
		PageFetchSec:    fetchSec,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
