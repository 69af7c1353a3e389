package cmd

import (
	"log/slog"
	"time"

	"hn-frontpage/internal/algolia"
	"hn-frontpage/internal/config"
	"hn-frontpage/internal/redisclient"
	"hn-frontpage/internal/session"
	"hn-frontpage/internal/storage"
)

// newSession builds the fetcher and, when enabled, the redis-backed cache.
// The returned func releases the redis connection.
func newSession(cfg config.Config) (*session.Session, func(), error) {
	timeout, err := sourceTimeout(cfg)
	if err != nil {
		return nil, nil, err
	}
	client := algolia.NewClient(cfg.Source.BaseURL,
		algolia.WithTimeout(timeout),
		algolia.WithQuery(cfg.Source.Tags, cfg.Source.HitsPerPage),
	)

	if !cfg.Cache.Enabled {
		return session.New(client), func() {}, nil
	}
	ttl, err := cfg.CacheTTL()
	if err != nil {
		return nil, nil, err
	}
	rdb := redisclient.New(cfg.Redis)
	store := storage.NewRedisStore(rdb, client.Tags(), client.HitsPerPage(), ttl)
	slog.Debug("cache: enabled", "addr", cfg.Redis.Addr, "key", store.Key(), "ttl", ttl)
	return session.New(client, session.WithCache(store)), func() { _ = rdb.Close() }, nil
}

// sourceTimeout is the request timeout the client will actually use: an
// unset or zero source.timeout means the client default.
func sourceTimeout(cfg config.Config) (time.Duration, error) {
	timeout, err := cfg.SourceTimeout()
	if err != nil {
		return 0, err
	}
	if timeout <= 0 {
		return algolia.DefaultTimeout, nil
	}
	return timeout, nil
}
