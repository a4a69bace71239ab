package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"
)

type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// DoerFunc adapts a bare function to the Transport interface.
type DoerFunc func(*http.Request) (*http.Response, error)

func (f DoerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

type Options struct {
	HTTPClient  *http.Client
	Retries     int           // 0 — листинг не ретраим, пара просто бросается
	Concurrency int           // ограничение одновременных запросов
	BaseDelay   time.Duration // backoff base
	MaxDelay    time.Duration // backoff max
	Logger      *slog.Logger
}

// Build layers the transport bottom-up: bare client, then retries when the
// caller asked for any, then the in-flight cap. The scraper runs with
// Retries=0 and Concurrency=1: a failed page abandons its pair, and the cap
// backs the one-request-at-a-time policy even if a future caller gets the
// walker onto goroutines.
func Build(opts Options) (Transport, error) {
	if opts.HTTPClient == nil {
		return nil, fmt.Errorf("HTTPClient is nil")
	}
	if opts.Retries < 0 {
		return nil, fmt.Errorf("Retries must be >= 0")
	}
	if opts.Concurrency < 0 {
		return nil, fmt.Errorf("Concurrency must be >= 0")
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	t := Transport(DoerFunc(opts.HTTPClient.Do))

	if opts.Retries > 0 {
		// ретраи поверх голого клиента
		t = &retrier{
			base: t,
			max:  opts.Retries,
			wait: waitPlan{base: opts.BaseDelay, limit: opts.MaxDelay},
			log:  log,
		}
	}

	if opts.Concurrency > 0 {
		// шлюз одновременности
		t = &gate{base: t, slots: make(chan struct{}, opts.Concurrency)}
	}

	return t, nil
}

// gate caps in-flight requests with a slot channel. Waiting respects the
// request context.
type gate struct {
	base  Transport
	slots chan struct{}
}

func (g *gate) Do(req *http.Request) (*http.Response, error) {
	select {
	case g.slots <- struct{}{}:
	case <-req.Context().Done():
		return nil, req.Context().Err()
	}
	defer func() { <-g.slots }()

	return g.base.Do(req)
}

// retrier re-issues a request on 429/5xx or transient network errors.
// Off by default for this tool; deployments that want it set http.retries in
// the config and accept the extra load on the listing endpoint.
type retrier struct {
	base Transport
	max  int
	wait waitPlan
	log  *slog.Logger
}

func (r *retrier) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	for try := 0; ; try++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, retry, err := r.attempt(req)
		if !retry {
			return resp, err
		}
		if try == r.max {
			return nil, err
		}

		r.log.Warn("retrying request",
			"try", try+1,
			"max_tries", r.max+1,
			"url", req.URL.String(),
			"reason", err,
		)
		if err := sleepCtx(ctx, r.wait.delay(try, resp)); err != nil {
			return nil, err
		}
	}
}

// attempt issues the request once. retry=false means the outcome is final:
// either a response the caller keeps, or an error another try will not fix.
// Bodies of retryable responses are drained here so the connection goes back
// to the pool.
func (r *retrier) attempt(req *http.Request) (resp *http.Response, retry bool, err error) {
	replay, err := replayable(req)
	if err != nil {
		return nil, false, err
	}

	resp, err = r.base.Do(replay)
	if err != nil {
		if transientErr(err) {
			return nil, true, err
		}
		return nil, false, err
	}

	if !transientStatus(resp.StatusCode) {
		return resp, false, nil
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 32*1024))
	_ = resp.Body.Close()
	return resp, true, fmt.Errorf("retryable status=%d", resp.StatusCode)
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

// transientErr treats network-level failures as retryable and everything
// else, context cancellation included, as final.
func transientErr(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// waitPlan is exponential backoff with jitter. A Retry-After served with a
// 429 wins over the computed delay.
type waitPlan struct {
	base  time.Duration
	limit time.Duration
}

func (w waitPlan) delay(try int, resp *http.Response) time.Duration {
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		if d := retryAfter(resp); d > 0 {
			return d
		}
	}

	base := w.base
	if base <= 0 {
		base = 300 * time.Millisecond
	}
	limit := w.limit
	if limit <= 0 {
		limit = 8 * time.Second
	}

	d := base << try
	if d > limit {
		d = limit
	}
	return time.Duration(float64(d) * (0.5 + rand.Float64()))
}

func retryAfter(resp *http.Response) time.Duration {
	sec, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || sec <= 0 {
		return 0
	}
	if sec > 60 {
		sec = 60
	}
	return time.Duration(sec) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// replayable clones req so a retry never reuses a spent body.
func replayable(req *http.Request) (*http.Request, error) {
	out := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return out, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("request body cannot be replayed: GetBody is nil")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("request body cannot be replayed: %w", err)
	}
	out.Body = body
	return out, nil
}
