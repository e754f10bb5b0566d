package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hreddy742/enterprise-ai-due-diligence-agent/config"
	core "github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/agent/core"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/agent/telemetry"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/memory/manager"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/memory/vectorstore"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/store"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/provider"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/tools/embedding"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/tools/web_fetch"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/tools/web_search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Version is stamped into telemetry resources.
var Version = "dev"

// Components is the explicitly owned service graph of one process.
type Components struct {
	Config       *config.Config
	Logger       *zap.SugaredLogger
	Registry     *prometheus.Registry
	Metrics      *telemetry.Metrics
	Orchestrator *core.Orchestrator
	Memory       *manager.Manager
	Index        *vectorstore.Store
	Archive      *store.Store // nil when storage.postgres.dsn is empty

	telemetry *Telemetry
	redis     redis.UniversalClient
}

// BuildOptions toggles optional parts of the graph.
type BuildOptions struct {
	WithArchive bool
}

// Build constructs every component selected by cfg. On error, anything
// already opened is released.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts BuildOptions) (_ *Components, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Components{Config: cfg, Logger: logger.Sugar(), Registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			_ = c.Close(context.Background())
		}
	}()

	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if cfg.Telemetry.Enabled {
		c.Metrics = telemetry.NewMetrics(c.Registry)
	}
	if c.telemetry, err = SetupTelemetry(ctx, cfg.Telemetry, cfg.General.ServiceName, Version); err != nil {
		return nil, err
	}

	searcher, err := newSearcher(cfg)
	if err != nil {
		return nil, err
	}
	fetcher, err := c.newFetcher(ctx, cfg)
	if err != nil {
		return nil, err
	}
	completer, err := provider.NewCompleter(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	embedder, err := provider.NewEmbedder(cfg.LLM, cfg.Memory)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	c.Index, err = vectorstore.Open(cfg.Memory.IndexDir, embedding.NewEmbedding(embedder), c.Logger)
	if err != nil {
		return nil, fmt.Errorf("open vector memory: %w", err)
	}
	c.Memory = manager.New(c.Index, c.Logger)

	c.Orchestrator = core.NewOrchestrator(searcher, fetcher, completer, c.Memory, core.Options{
		SearchParallelism: cfg.Search.Parallelism,
		FetchParallelism:  cfg.Fetch.Parallelism,
		RetrieveK:         cfg.Memory.RetrieveK,
		Logger:            c.Logger,
		Metrics:           c.Metrics,
	})

	if opts.WithArchive {
		if c.Archive, err = OpenArchive(ctx, cfg.Storage.Postgres); err != nil {
			return nil, err
		}
	}

	c.Logger.Infow("components ready",
		"llm", provider.ResolveCompleter(cfg.LLM),
		"embedder", provider.ResolveEmbedder(cfg.LLM, cfg.Memory),
		"search", cfg.Search.Provider,
		"search_enabled", cfg.Search.Enabled,
		"cache", cfg.Cache.Backend,
		"archive", c.Archive != nil,
	)
	return c, nil
}

func newSearcher(cfg *config.Config) (web_search.WebSearcher, error) {
	key := ""
	switch cfg.Search.Provider {
	case "brave":
		key = cfg.Search.BraveAPIKey
	case "serper":
		key = cfg.Search.SerperAPIKey
	}
	s, err := web_search.NewWebSearcher(web_search.Options{
		Provider:   web_search.Provider(cfg.Search.Provider),
		Enabled:    cfg.Search.Enabled,
		APIKey:     key,
		UserAgent:  cfg.Fetch.UserAgent,
		RatePerSec: cfg.Search.RatePerSec,
		Client:     &http.Client{Timeout: cfg.Search.Timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return s, nil
}

func (c *Components) newFetcher(ctx context.Context, cfg *config.Config) (*web_fetch.Fetcher, error) {
	loader, err := web_fetch.NewLoader(web_fetch.LoaderType(cfg.Fetch.Loader), cfg.Fetch.UserAgent)
	if err != nil {
		return nil, err
	}
	extractor, err := web_fetch.NewExtractor(web_fetch.ExtractorType(cfg.Fetch.Extractor))
	if err != nil {
		return nil, err
	}

	var cache web_fetch.Cache
	switch cfg.Cache.Backend {
	case "redis":
		rc := cfg.Cache.Redis
		client := redis.NewClient(&redis.Options{
			Addr:         rc.Addr(),
			Password:     rc.Password,
			DB:           rc.DB,
			DialTimeout:  rc.Timeout,
			ReadTimeout:  rc.Timeout,
			WriteTimeout: rc.Timeout,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis connection failed (%s): %w", rc.Addr(), err)
		}
		c.redis = client
		cache = web_fetch.NewRedisCache(client, rc.TTL)
	default:
		fc, err := web_fetch.NewFileCache(cfg.Cache.Dir)
		if err != nil {
			return nil, fmt.Errorf("content cache: %w", err)
		}
		cache = fc
	}

	return web_fetch.NewFetcher(loader, extractor, cache, web_fetch.Options{
		Timeout:  cfg.Fetch.Timeout,
		MinChars: cfg.Fetch.MinChars,
		MaxChars: cfg.Fetch.MaxChars,
		Policy:   cfg.Fetch.Policy,
		Logger:   c.Logger,
	}), nil
}

// Close flushes the vector index and releases every connection.
func (c *Components) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Index != nil {
		errs = append(errs, c.Index.Close())
	}
	if c.Archive != nil {
		errs = append(errs, c.Archive.Close())
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}
	errs = append(errs, c.telemetry.Shutdown(ctx))
	return errors.Join(errs...)
}
