// Package httpc builds the tuned net/http client the transport layers wrap.
package httpc

import (
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// TODO: вынести в config
const (
	dialTimeout   = 10 * time.Second
	keepAlive     = 30 * time.Second
	tlsTimeout    = 10 * time.Second
	headerTimeout = 15 * time.Second
	idleTimeout   = 90 * time.Second

	// one sequential upstream host; a handful of keep-alive connections is
	// plenty, and the page delay sits well under the idle timeout, so
	// pagination reuses one connection.
	maxIdle        = 8
	maxIdlePerHost = 4
)

// New builds the client the scraper talks to blinkit.com through; a nil
// proxyFunc means direct connections. The cookie jar stays on: the
// storefront sets session cookies on the first response and a jarless client
// looks like a fresh visitor on every page.
func New(timeout time.Duration, proxyFunc func(*http.Request) (*url.URL, error)) *http.Client {
	// тк proxyfunc возвращает ошибку,nil opt => всегда будет nil
	jar, _ := cookiejar.New(nil)

	dialer := &net.Dialer{Timeout: dialTimeout, KeepAlive: keepAlive}

	return &http.Client{
		Timeout: timeout,
		Jar:     jar,
		Transport: &http.Transport{
			Proxy:       proxyFunc,
			DialContext: dialer.DialContext,

			TLSHandshakeTimeout:   tlsTimeout,
			ResponseHeaderTimeout: headerTimeout,
			ExpectContinueTimeout: 1 * time.Second,

			MaxIdleConns:        maxIdle,
			MaxIdleConnsPerHost: maxIdlePerHost,
			IdleConnTimeout:     idleTimeout,

			ForceAttemptHTTP2: true,
		},
	}
}
