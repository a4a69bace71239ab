package bootstrap

import (
	"log/slog"
	"time"

	"blinkitparser/internal/client"
	"blinkitparser/internal/client/proxy"
	"blinkitparser/internal/client/transport"
	"blinkitparser/internal/config"
)

// BuildTransport translates one config profile into the upstream HTTP stack.
// concurrency is the in-flight request ceiling; the scraper passes 1 to keep
// the sequential politeness policy enforced below the walker too.
func BuildTransport(profile *config.Config, log *slog.Logger, concurrency int) (transport.Transport, error) {
	log.Info("profile",
		"env", profile.Env,
		"base_url", profile.Blinkit.BaseURL,
		"proxy_mode", profile.Proxy.Mode,
		"proxy_list_len", len(profile.Proxy.List),
	)

	return client.Build(client.Options{
		Timeout:  time.Duration(profile.HTTP.TimeoutSeconds) * time.Second,
		Retries:  profile.HTTP.Retries,
		InFlight: concurrency,
		Proxy: proxy.Config{
			Mode:               profile.Proxy.Mode,
			List:               profile.Proxy.List,
			RotationURL:        profile.Proxy.RotationURL,
			RotationTTLSeconds: profile.Proxy.RotationTTLSeconds,
			FailOpen:           profile.Proxy.FailOpen,
		},
		Logger: log,
	})
}
