// Package app wires configured backends into a market service.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"dex-markets/internal/config"
	"dex-markets/internal/dex"
	"dex-markets/internal/ledger"
	"dex-markets/internal/observability"
	"dex-markets/internal/storage"
	chstore "dex-markets/internal/storage/clickhouse"
	"dex-markets/internal/storage/memory"
	"dex-markets/internal/storage/migrations"
	pgstore "dex-markets/internal/storage/postgres"
	redisstore "dex-markets/internal/storage/redis"
)

// Bootstrap holds the opened backends. Close releases them.
type Bootstrap struct {
	Ledger ledger.Ledger
	Assets storage.AssetInfoStore // nil when no metadata store is configured

	cfg     *config.Config
	logger  *zap.Logger
	pgPools map[string]*pgstore.Pool
	closers []func()
}

// Open connects the ledger backend and the metadata store named by cfg.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Bootstrap, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bootstrap{cfg: cfg, logger: logger, pgPools: make(map[string]*pgstore.Pool)}

	if err := b.openLedger(ctx); err != nil {
		b.Close()
		return nil, err
	}
	if err := b.openMetadata(ctx); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// Service builds the market service over the opened backends.
func (b *Bootstrap) Service(metrics *observability.Metrics) *dex.Service {
	opts := []dex.ServiceOption{dex.WithMetrics(metrics)}
	if b.Assets != nil {
		opts = append(opts, dex.WithAssetInfoStore(b.Assets))
	}
	return dex.NewService(b.Ledger, b.cfg.DexOptions(), b.logger, opts...)
}

// Close releases every opened connection in reverse order.
func (b *Bootstrap) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

func (b *Bootstrap) openLedger(ctx context.Context) error {
	lc := b.cfg.Ledger
	switch lc.Backend {
	case config.LedgerRPC:
		opts := []ledger.ClientOption{
			ledger.WithTimeout(lc.Timeout),
			ledger.WithMaxRetries(lc.MaxRetries),
			ledger.WithSupplyMethod(lc.SupplyMethod),
			ledger.WithLogger(b.logger),
		}
		if lc.Username != "" {
			opts = append(opts, ledger.WithBasicAuth(lc.Username, lc.Password))
		}
		b.Ledger = ledger.NewRPCClient(lc.Endpoint, opts...)

	case config.LedgerPostgres:
		pool, err := b.postgresPool(ctx, lc.PostgresDSN)
		if err != nil {
			return err
		}
		b.Ledger = ledger.NewPostgresLedger(pool.Pool)

	case config.LedgerClickhouse:
		var (
			conn *chstore.Conn
			err  error
		)
		if lc.Migrate {
			conn, err = migrations.RunClickhouseMigrations(ctx, lc.ClickhouseDSN)
		} else {
			conn, err = chstore.NewConn(ctx, lc.ClickhouseDSN)
		}
		if err != nil {
			return fmt.Errorf("connect clickhouse ledger: %w", err)
		}
		b.closers = append(b.closers, func() { _ = conn.Close() })
		b.Ledger = ledger.NewClickHouseLedger(conn.Conn)

	default:
		return fmt.Errorf("unknown ledger backend %q", lc.Backend)
	}

	b.logger.Info("ledger backend ready", zap.String("backend", lc.Backend))
	return nil
}

func (b *Bootstrap) openMetadata(ctx context.Context) error {
	mc := b.cfg.Metadata
	switch mc.Backend {
	case "", config.MetadataNone:
		return nil
	case config.MetadataMemory:
		b.Assets = memory.NewAssetInfoStore()
	case config.MetadataPostgres:
		pool, err := b.postgresPool(ctx, b.cfg.MetadataDSN())
		if err != nil {
			return err
		}
		b.Assets = pgstore.NewAssetInfoStore(pool)
	case config.MetadataRedis:
		rdb, err := redisstore.Connect(ctx, mc.RedisAddr, mc.RedisPassword, mc.RedisDB)
		if err != nil {
			return fmt.Errorf("connect metadata store: %w", err)
		}
		b.closers = append(b.closers, func() { _ = rdb.Close() })
		b.Assets = redisstore.NewAssetInfoStore(rdb)
	default:
		return fmt.Errorf("unknown metadata backend %q", mc.Backend)
	}

	if mc.SeedFile != "" {
		n, err := seedAssetInfo(ctx, b.Assets, mc.SeedFile)
		if err != nil {
			return err
		}
		b.logger.Info("metadata seeded", zap.String("file", mc.SeedFile), zap.Int("assets", n))
	}

	b.logger.Info("metadata store ready", zap.String("backend", mc.Backend))
	return nil
}

// postgresPool opens one pool per DSN, so the ledger mirror and the metadata
// store share a pool when they live in the same database.
func (b *Bootstrap) postgresPool(ctx context.Context, dsn string) (*pgstore.Pool, error) {
	if pool, ok := b.pgPools[dsn]; ok {
		return pool, nil
	}

	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, pool.Close)

	if b.cfg.Ledger.Migrate {
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
	}
	b.pgPools[dsn] = pool
	return pool, nil
}
