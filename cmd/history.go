// File: cmd/history.go
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecap/api/schemas"
	"github.com/xkilldash9x/pagecap/internal/config"
	"github.com/xkilldash9x/pagecap/internal/observability"
	"github.com/xkilldash9x/pagecap/internal/store"
)

// historyReader lists recorded invocations.
type historyReader interface {
	RecentCaptures(ctx context.Context, limit int) ([]schemas.CaptureRecord, error)
}

// historyProvider opens the capture history. The abstraction lets tests
// inject a reader instead of a live database connection.
type historyProvider interface {
	// Create returns a reader, a cleanup function to release resources, and an
	// error if the history is unavailable.
	Create(ctx context.Context, cfg *config.Config) (historyReader, func(), error)
}

// defaultHistoryProvider connects to PostgreSQL.
type defaultHistoryProvider struct{}

// NewHistoryProvider creates the production history provider.
func NewHistoryProvider() historyProvider {
	return &defaultHistoryProvider{}
}

func (p *defaultHistoryProvider) Create(ctx context.Context, cfg *config.Config) (historyReader, func(), error) {
	logger := observability.GetLogger()
	if cfg.Database.URL == "" {
		return nil, nil, fmt.Errorf("database URL is not configured (PAGECAP_DATABASE_URL)")
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	history, err := store.New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to initialize capture history: %w", err)
	}

	cleanup := func() {
		pool.Close()
		logger.Debug("Database connection pool closed (via history cleanup).")
	}
	return history, cleanup, nil
}

// newHistoryCmd creates the `history` command.
func newHistoryCmd(provider historyProvider) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent capture invocations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runHistory(ctx, cmd.OutOrStdout(), observability.GetLogger(), cfg, limit, provider)
		},
	}

	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of invocations to list")
	historyCmd.Flags().String("database-url", "", "PostgreSQL URL for capture history")
	return historyCmd
}

func runHistory(ctx context.Context, out io.Writer, logger *zap.Logger, cfg *config.Config, limit int, provider historyProvider) error {
	if limit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", limit)
	}

	reader, cleanup, err := provider.Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open capture history: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	records, err := reader.RecentCaptures(ctx, limit)
	if err != nil {
		return err
	}
	logger.Debug("Capture history loaded.", zap.Int("records", len(records)))

	if records == nil {
		records = []schemas.CaptureRecord{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
