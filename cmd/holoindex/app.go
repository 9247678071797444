package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Foundup/Foundups-Agent-sub010/internal/config"
	"github.com/Foundup/Foundups-Agent-sub010/internal/embedder"
	"github.com/Foundup/Foundups-Agent-sub010/internal/engine"
	"github.com/Foundup/Foundups-Agent-sub010/internal/indexer"
	"github.com/Foundup/Foundups-Agent-sub010/internal/kv"
	"github.com/Foundup/Foundups-Agent-sub010/internal/logger"
	"github.com/Foundup/Foundups-Agent-sub010/internal/retriever"
	"github.com/Foundup/Foundups-Agent-sub010/internal/router"
	"github.com/Foundup/Foundups-Agent-sub010/internal/routines"
	"github.com/Foundup/Foundups-Agent-sub010/internal/scorer"
	"github.com/Foundup/Foundups-Agent-sub010/internal/telemetry"
	"github.com/Foundup/Foundups-Agent-sub010/internal/vecstore"
)

// app holds the wired collaborators shared by every subcommand. One app is
// built per invocation; serve keeps it alive, the one-shot commands close it
// on return.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger

	store   vecstore.Store
	embed   embedder.Embedder
	redis   *kv.Redis
	engine  *engine.Engine
	indexer *indexer.Indexer
}

// newApp loads configuration and wires the engine to its backends. Partial
// backend availability is not an error here: the engine still bootstraps and
// degrades per collection at query time.
func newApp(ctx context.Context) (*app, error) {
	env := flagEnv
	if env == "" {
		env = config.GetEnv()
	}

	var cfg config.Config
	var err error
	if flagConfig != "" {
		var data []byte
		if data, err = os.ReadFile(flagConfig); err == nil {
			cfg, err = config.Parse(data)
		}
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", flagConfig, err)
		}
	} else if cfg, err = config.Load(env); err != nil {
		// No config file is a supported mode: local runs use the built-in
		// defaults (local embedder, sqlite under the home directory).
		cfg = config.Default()
	}

	level := flagLogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	log, lerr := logger.New(env, level)
	if lerr != nil {
		return nil, lerr
	}
	if err != nil {
		log.Warn("Config file not loaded, using defaults", zap.String("env", env), zap.Error(err))
	}

	telemetry.Register()

	emb, err := embedder.NewFromConfig(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}

	a := &app{env: env, cfg: cfg, logger: log, embed: emb}

	if cfg.Cache.Redis.Enabled {
		redis, err := kv.NewRedis(kv.Config{
			Addrs:    cfg.Cache.Redis.Addrs,
			Username: cfg.Cache.Redis.Username,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("init redis cache: %w", err)
		}
		readiness := time.Duration(cfg.Cache.Redis.ReadinessTimeoutSec) * time.Second
		if err := redis.WaitForReady(ctx, readiness); err != nil {
			// The cache is an accelerator, not a dependency.
			log.Warn("Redis cache not ready, continuing without it", zap.Error(err))
			redis.Close()
		} else {
			a.redis = redis
			a.embed = embedder.NewCachedEmbedder(emb,
				redis,
				time.Duration(cfg.Cache.Redis.TTLSec)*time.Second,
				telemetry.EmbeddingCacheTotal,
				log)
		}
	}

	store, err := vecstore.New(ctx, cfg.Store, a.embed.Dimension())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init vector store: %w", err)
	}
	a.store = store

	sc := scorer.New(cfg.Retrieval.MinSimilarity, cfg.Retrieval.PriorityWeights)

	routineOpts := routines.Options{OversizedLines: cfg.Corpus.OversizedLines}
	if cfg.Research.Endpoint != "" {
		routineOpts.Research = routines.NewResearch(cfg.Research.Endpoint,
			time.Duration(cfg.Research.TimeoutSec)*time.Second, log)
	}

	a.engine = engine.New(engine.Options{
		Retriever: retriever.New(store, a.embed, sc, log),
		Router:    router.New(routines.NewRegistry(routineOpts), cfg.Routing.Routines, log),
		Store:     store,
		Embedder:  a.embed,
		Logger:    log,
		CacheSize: cfg.Retrieval.CacheSize,
		CacheTTL:  time.Duration(cfg.Retrieval.CacheTTLSec) * time.Second,
	})
	if err := a.engine.Bootstrap(); err != nil {
		a.Close()
		return nil, fmt.Errorf("bootstrap engine: %w", err)
	}

	a.indexer = indexer.New(store, a.embed, cfg.Corpus, log)
	return a, nil
}

// Close releases backend handles in reverse dependency order.
func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("Failed to close vector store", zap.Error(err))
		}
	}
	if a.embed != nil {
		_ = a.embed.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	_ = a.logger.Sync()
}
