// Package proxy picks an egress proxy per request. Listing scrapes get IP
// throttled long before they get account throttled, so deployments usually
// run the tool through a list of proxies or a rotation service.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Provider hands out the proxy address the next request should use.
type Provider interface {
	Next(ctx context.Context) (string, error)
}

type Config struct {
	Mode               string // disabled|list|rotation
	List               []string
	RotationURL        string
	RotationTTLSeconds int
	FailOpen           bool
}

// FromConfig builds a provider for the configured mode. The second return is
// the fail-open flag: with it set, a broken provider downgrades to a direct
// connection instead of failing the page fetch.
func FromConfig(cfg Config, log *slog.Logger) (Provider, bool, error) {
	if log == nil {
		log = slog.Default()
	}

	switch mode := strings.ToLower(strings.TrimSpace(cfg.Mode)); mode {
	case "", "disabled":
		return nil, cfg.FailOpen, nil

	case "list":
		p, err := newRing(cfg.List)
		if err != nil {
			return nil, cfg.FailOpen, err
		}
		log.Info("proxy enabled", "mode", mode, "count", len(p.addrs), "fail_open", cfg.FailOpen)
		return p, cfg.FailOpen, nil

	case "rotation":
		if strings.TrimSpace(cfg.RotationURL) == "" {
			return nil, cfg.FailOpen, fmt.Errorf("proxy.mode=rotation but rotation_url empty")
		}
		ttl := time.Duration(cfg.RotationTTLSeconds) * time.Second
		if ttl <= 0 {
			ttl = 10 * time.Second
		}
		log.Info("proxy enabled", "mode", mode, "rotation_url", cfg.RotationURL, "ttl", ttl.String(), "fail_open", cfg.FailOpen)
		return newRotator(cfg.RotationURL, ttl), cfg.FailOpen, nil

	default:
		return nil, cfg.FailOpen, fmt.Errorf("unknown proxy.mode=%q (expected disabled|list|rotation)", cfg.Mode)
	}
}

// FromProvider adapts a Provider into the proxy func net/http.Transport
// wants. A nil provider means direct connections.
func FromProvider(p Provider, failOpen bool, log *slog.Logger) func(*http.Request) (*url.URL, error) {
	if p == nil {
		return nil
	}
	if log == nil {
		log = slog.Default()
	}

	// при fail-open любая ошибка превращается в прямое соединение
	soften := func(err error) (*url.URL, error) {
		if failOpen {
			return nil, nil
		}
		return nil, err
	}

	return func(req *http.Request) (*url.URL, error) {
		raw, err := p.Next(req.Context())
		if err != nil {
			log.Warn("proxy provider error", "err", err)
			return soften(err)
		}

		u, err := toProxyURL(raw)
		if err != nil {
			log.Warn("proxy unusable", "proxy", raw, "err", err)
			return soften(err)
		}

		log.Debug("proxy selected", "host", u.Host)
		return u, nil
	}
}

// toProxyURL normalizes a provider answer into a URL; bare host:port gets an
// http scheme.
func toProxyURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty proxy string")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	return url.Parse(raw)
}

// ring rotates round-robin over a fixed list, so consecutive pages of one
// pair go out from different addresses.
type ring struct {
	addrs []string
	pos   atomic.Uint64
}

func newRing(list []string) (*ring, error) {
	r := &ring{addrs: make([]string, 0, len(list))}
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			r.addrs = append(r.addrs, s)
		}
	}
	if len(r.addrs) == 0 {
		return nil, fmt.Errorf("proxy list is empty")
	}
	return r, nil
}

func (r *ring) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	n := r.pos.Add(1) - 1
	return r.addrs[n%uint64(len(r.addrs))], nil
}

// rotator asks an external rotation endpoint for the current proxy and caches
// the answer for a TTL, so a slow rotation service does not add a round trip
// to every page.
type rotator struct {
	url    string
	ttl    time.Duration
	client *http.Client

	mu    sync.Mutex
	addr  string
	until time.Time
}

func newRotator(rotationURL string, ttl time.Duration) *rotator {
	return &rotator{
		url: rotationURL,
		ttl: ttl,
		// ротатор дергаем напрямую, без прокси
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: &http.Transport{Proxy: nil},
		},
	}
}

func (r *rotator) Next(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.addr != "" && time.Now().Before(r.until) {
		addr := r.addr
		r.mu.Unlock()
		return addr, nil
	}
	r.mu.Unlock()

	addr, err := r.fetch(ctx)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.addr = addr
	r.until = time.Now().Add(r.ttl)
	r.mu.Unlock()
	return addr, nil
}

func (r *rotator) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("rotation_url status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	addr := strings.TrimSpace(extractProxy(b))
	if addr == "" {
		return "", fmt.Errorf("rotation_url returned empty proxy")
	}
	return addr, nil
}

// extractProxy accepts the formats rotation services ship: a bare host:port
// line, {"proxy"|"url"|"data": "..."} or a JSON array with the proxy first.
func extractProxy(b []byte) string {
	s := strings.TrimSpace(string(b))
	if !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		return s
	}

	var v any
	if json.Unmarshal([]byte(s), &v) != nil {
		return ""
	}
	switch t := v.(type) {
	case map[string]any:
		for _, k := range []string{"proxy", "url", "data"} {
			if vs, ok := t[k].(string); ok {
				return vs
			}
		}
	case []any:
		if len(t) > 0 {
			if vs, ok := t[0].(string); ok {
				return vs
			}
		}
	}
	return ""
}
