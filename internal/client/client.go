// Package client assembles the HTTP stack every upstream call goes through:
// proxy selection, the tuned net/http client, and the layered transport.
package client

import (
	"log/slog"
	"time"

	"blinkitparser/internal/client/httpc"
	"blinkitparser/internal/client/proxy"
	"blinkitparser/internal/client/transport"
)

type Transport = transport.Transport

// Options describe the stack for one scrape run. Zero Retries is the
// intended production setting: a failed page abandons its pair instead of
// hammering the listing endpoint.
type Options struct {
	Timeout time.Duration
	Retries int

	// InFlight caps simultaneous upstream requests. The scraper passes 1;
	// its loop is sequential anyway, the cap makes that a property of the
	// transport too.
	InFlight int

	Proxy proxy.Config

	BaseDelay time.Duration
	MaxDelay  time.Duration

	Logger *slog.Logger
}

func Build(opts Options) (Transport, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	pvd, failOpen, err := proxy.FromConfig(opts.Proxy, log)
	if err != nil {
		return nil, err
	}

	proxyFunc := proxy.FromProvider(pvd, failOpen, log)
	if proxyFunc == nil {
		log.Warn("proxy OFF", "mode", opts.Proxy.Mode)
	} else {
		log.Info("proxy ON", "mode", opts.Proxy.Mode, "fail_open", opts.Proxy.FailOpen)
	}

	return transport.Build(transport.Options{
		HTTPClient:  httpc.New(opts.Timeout, proxyFunc),
		Retries:     opts.Retries,
		Concurrency: opts.InFlight,
		BaseDelay:   opts.BaseDelay,
		MaxDelay:    opts.MaxDelay,
		Logger:      log,
	})
}
