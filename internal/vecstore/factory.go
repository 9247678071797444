package vecstore

import (
	"context"
	"fmt"
	"time"

	"github.com/Foundup/Foundups-Agent-sub010/internal/config"
)

// New builds the configured store backend. dimension must match the embedding
// provider's output length.
func New(ctx context.Context, cfg config.StoreConfig, dimension int) (Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.SQLite.Path)
	case "qdrant":
		return NewQdrantStore(ctx, QdrantConfig{
			URL:              cfg.Qdrant.URL,
			APIKey:           cfg.Qdrant.APIKey,
			CollectionPrefix: cfg.Qdrant.CollectionPrefix,
			Dimension:        dimension,
			Timeout:          time.Duration(cfg.Qdrant.TimeoutSec) * time.Second,
		})
	case "memory":
		return NewMemoryStore(dimension), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
