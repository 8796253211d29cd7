package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/komsit37/fundwl/pkg/fw/cache"
	"github.com/komsit37/fundwl/pkg/fw/config"
	"github.com/komsit37/fundwl/pkg/fw/eastmoney"
	"github.com/komsit37/fundwl/pkg/fw/enrich"
	"github.com/komsit37/fundwl/pkg/fw/merge"
	"github.com/komsit37/fundwl/pkg/fw/names"
	"github.com/komsit37/fundwl/pkg/fw/store"
	"github.com/komsit37/fundwl/pkg/fw/tencent"
	"github.com/komsit37/fundwl/pkg/fw/transport"
	"github.com/komsit37/fundwl/pkg/fw/watchlist"
	"github.com/komsit37/fundwl/pkg/fw/yahoo"
)

const eastmoneyReferer = "https://fund.eastmoney.com/"

// app holds the wired services for one command invocation.
type app struct {
	cfg       config.Config
	store     store.Store
	history   *cache.HistoryCache
	funds     *eastmoney.Client
	refresher *enrich.Refresher
	watchlist *watchlist.Service
	indices   *enrich.Indices

	closers []io.Closer
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg}

	s, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	a.store = s
	a.closers = append(a.closers, s)

	backend, err := a.cacheBackend(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	em := transport.NewClient(transport.Options{
		Timeout:   cfg.HTTP.Timeout,
		Retries:   cfg.HTTP.Retries,
		UserAgent: cfg.HTTP.UserAgent,
		Referer:   eastmoneyReferer,
	})
	a.funds = eastmoney.NewClient(em, transport.NewJSONP(em, cfg.JSONP.Timeout), eastmoney.Endpoints{})

	qt := transport.NewClient(transport.Options{
		Timeout:   cfg.HTTP.Timeout,
		Retries:   cfg.HTTP.Retries,
		UserAgent: cfg.HTTP.UserAgent,
	})
	a.indices = &enrich.Indices{
		Batch:    tencent.NewClient(qt, "", names.NewResolver(nil)),
		Overseas: yahoo.NewService(cfg.HTTP.Timeout),
		Domestic: a.funds,
		Cache:    s,
		Delay:    cfg.Indices.Delay,
	}

	a.history = cache.New(store.NewWriteThrough(a.funds, s), backend, cfg.Cache.TTL, nil)
	m := merge.New(a.history, a.funds, nil)
	a.refresher = enrich.NewRefresher(m, a.funds, a.history, nil, cfg.Refresh.Concurrency)
	a.watchlist = watchlist.NewService(s, a.funds, a.history, a.funds, nil, cfg.Types.Delay)
	return a, nil
}

func openStore(cfg config.Store) (store.Store, error) {
	if cfg.Driver == "memory" {
		return store.NewMemory(), nil
	}
	s, err := store.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

func (a *app) cacheBackend(ctx context.Context) (cache.Backend, error) {
	switch a.cfg.Cache.Backend {
	case "", "memory":
		return cache.NewMemory(), nil
	case "redis":
		r, err := cache.DialRedis(ctx, a.cfg.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("history cache: %w", err)
		}
		a.closers = append(a.closers, r)
		return r, nil
	}
	return nil, fmt.Errorf("history cache: unknown backend %q", a.cfg.Cache.Backend)
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
