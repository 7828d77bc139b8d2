package main

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/robmcelhinney/where-your-taxes-go/internal/allocation"
	"github.com/robmcelhinney/where-your-taxes-go/internal/dataset"
	"github.com/robmcelhinney/where-your-taxes-go/internal/export"
	"github.com/robmcelhinney/where-your-taxes-go/internal/tax"
	"github.com/robmcelhinney/where-your-taxes-go/pkg/postcode"
)

// env bundles the wired application services shared by the subcommands.
type env struct {
	Dataset   *dataset.Cache
	Estimator *tax.Estimator
	Engine    *allocation.Engine
	Exporter  *export.Exporter
}

func initEnv() (*env, error) {
	var provider dataset.Provider
	switch cfg.Dataset.Source {
	case "", "embedded":
		provider = dataset.Embedded()
	case "dir":
		if cfg.Dataset.Dir == "" {
			return nil, eris.New("cmd: dataset.dir is required when dataset.source is dir")
		}
		provider = dataset.NewFileProvider(cfg.Dataset.Dir)
	case "http":
		if cfg.Dataset.URL == "" {
			return nil, eris.New("cmd: dataset.url is required when dataset.source is http")
		}
		provider = dataset.NewHTTPProvider(dataset.HTTPOptions{URL: cfg.Dataset.URL})
	default:
		return nil, eris.Errorf("cmd: unknown dataset source %q", cfg.Dataset.Source)
	}
	cache := dataset.NewCache(provider)

	lookup := postcode.NewCached(postcode.NewClient(postcode.Options{
		BaseURL:    cfg.Postcode.BaseURL,
		Timeout:    time.Duration(cfg.Postcode.TimeoutSecs) * time.Second,
		RatePerSec: cfg.Postcode.RatePerSec,
	}))

	estimator := tax.NewEstimator(lookup)
	engine := allocation.New(cache)

	return &env{
		Dataset:   cache,
		Estimator: estimator,
		Engine:    engine,
		Exporter:  export.New(estimator, engine),
	}, nil
}
