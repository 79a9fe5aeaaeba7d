package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"geomentor/internal/gateway/config"
	"geomentor/internal/gateway/repository/history"
	"geomentor/internal/gateway/repository/testbank"
)

type gatewayStores struct {
	history  history.Store
	testbank testbank.Store
	closers  []func() error
}

func initStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*gatewayStores, error) {
	out := &gatewayStores{}

	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		pg, err := history.OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open history db: %w", err)
		}
		out.history = pg
		out.closers = append(out.closers, pg.Close)
		logger.Info("history store: postgres")
	} else {
		mem, err := history.NewMemoryStore(cfg.SessionCacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to init history store: %w", err)
		}
		out.history = mem
		logger.Info("history store: memory", slog.Int("sessions", cfg.SessionCacheSize))
	}

	if cfg.TestBank.Enabled() {
		s3, err := testbank.NewS3Store(testbank.S3Config{
			Endpoint:  cfg.TestBank.Endpoint,
			Region:    cfg.TestBank.Region,
			AccessKey: cfg.TestBank.AccessKey,
			SecretKey: cfg.TestBank.SecretKey,
			Bucket:    cfg.TestBank.Bucket,
			UseSSL:    cfg.TestBank.UseSSL,
		})
		if err != nil {
			for _, c := range out.closers {
				_ = c()
			}
			return nil, fmt.Errorf("failed to initialize test bank: %w", err)
		}
		out.testbank = s3
		logger.Info("test bank: s3", slog.String("bucket", cfg.TestBank.Bucket), slog.String("endpoint", cfg.TestBank.Endpoint))
	} else {
		out.testbank = testbank.NewMemoryStore()
		logger.Info("test bank: memory")
	}
	return out, nil
}
