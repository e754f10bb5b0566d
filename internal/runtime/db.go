package runtime

import (
	"context"
	"fmt"

	"github.com/hreddy742/enterprise-ai-due-diligence-agent/config"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/store"
)

// OpenArchive connects to the report archive and applies pending
// migrations. It returns nil, nil when no DSN is configured.
func OpenArchive(ctx context.Context, cfg config.PostgresConfig) (*store.Store, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if err := store.Migrate(cfg.DSN, "up", 0); err != nil {
		return nil, fmt.Errorf("migrate report archive: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	st, err := store.NewWithDSN(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open report archive: %w", err)
	}
	return st, nil
}
