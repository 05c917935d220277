package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/japaniel/lector/pkg/annotate"
	"github.com/japaniel/lector/pkg/article"
	"github.com/japaniel/lector/pkg/config"
	"github.com/japaniel/lector/pkg/db"
	"github.com/japaniel/lector/pkg/extract"
	"github.com/japaniel/lector/pkg/fetch"
	"github.com/japaniel/lector/pkg/frequency"
	"github.com/japaniel/lector/pkg/hardword"
	"github.com/japaniel/lector/pkg/llm"
	"github.com/japaniel/lector/pkg/logger"
	"github.com/japaniel/lector/pkg/lookup"
	"github.com/japaniel/lector/pkg/mindmap"
	"github.com/japaniel/lector/pkg/nlp"
)

var errNoAPIKey = errors.New("OPENAI_API_KEY environment variable is required")

// app wires the pipeline from configuration.
type app struct {
	cfg  *config.Config
	log  *logger.Logger
	conn *sqlx.DB

	store     *db.Store
	extractor *extract.Extractor
	articles  *article.Service

	// Set only when an LLM is required.
	gateway  *llm.Client
	lookups  *lookup.Service
	mindmaps *mindmap.Service
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	return cfg, nil
}

func newApp(ctx context.Context, withLLM bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if withLLM && cfg.OpenAI.APIKey == "" {
		return nil, errNoAPIKey
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("logger.New > %w", err)
	}

	conn, err := db.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store := db.NewStore(conn)

	registry := nlp.NewRegistry()
	extractor := extract.NewExtractor()
	fetcher := fetch.New(fetch.Options{
		Timeout:      cfg.Fetch.Timeout,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		UserAgent:    cfg.Fetch.UserAgent,
	}, log)
	detector := hardword.NewDetector(registry, frequency.NewProvider(cfg.FrequencySources()), cfg.HardWords.K)
	annotator := annotate.New(registry, store, log)

	a := &app{
		cfg:       cfg,
		log:       log,
		conn:      conn,
		store:     store,
		extractor: extractor,
		articles:  article.NewService(fetcher, store, extractor, detector, annotator, log),
	}
	if withLLM {
		a.gateway = llm.NewClient(llm.Options{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Timeout: cfg.OpenAI.Timeout,
			Models:  cfg.Models(),
		}, log)
		a.lookups = lookup.NewService(store, a.gateway, llm.TierSpeed, cfg.Locale, log)
		a.mindmaps = mindmap.NewService(store, extractor, a.gateway, llm.TierSpeed, cfg.Locale, log)
	}
	return a, nil
}

func (a *app) Close() {
	if a.gateway != nil {
		_ = a.gateway.Close()
	}
	_ = a.conn.Close()
	a.log.Sync()
}
