package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"dex-markets/internal/domain"
	"dex-markets/internal/storage"
)

// AssetInfoStore implements storage.AssetInfoStore using PostgreSQL.
type AssetInfoStore struct {
	pool *Pool
}

// NewAssetInfoStore creates a new AssetInfoStore.
func NewAssetInfoStore(pool *Pool) *AssetInfoStore {
	return &AssetInfoStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AssetInfoStore = (*AssetInfoStore)(nil)

// Upsert inserts or replaces metadata for an asset. created_at is kept on update.
func (s *AssetInfoStore) Upsert(ctx context.Context, info *domain.AssetInfo) error {
	if info == nil || info.Asset == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO asset_extended_info (asset, info_data)
		VALUES ($1, $2)
		ON CONFLICT (asset) DO UPDATE SET info_data = EXCLUDED.info_data
	`

	if _, err := s.pool.Exec(ctx, query, info.Asset, info.InfoData); err != nil {
		return fmt.Errorf("upsert asset info: %w", err)
	}
	return nil
}

// GetByAsset retrieves metadata by asset. Returns ErrNotFound if not exists.
func (s *AssetInfoStore) GetByAsset(ctx context.Context, asset string) (*domain.AssetInfo, error) {
	query := `
		SELECT asset, info_data, created_at
		FROM asset_extended_info
		WHERE asset = $1
	`

	info, err := scanAssetInfo(s.pool.QueryRow(ctx, query, asset))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get asset info: %w", err)
	}
	return info, nil
}

// FindAssets retrieves metadata for every known asset, ordered by asset.
func (s *AssetInfoStore) FindAssets(ctx context.Context, assets []string) ([]*domain.AssetInfo, error) {
	if len(assets) == 0 {
		return nil, nil
	}

	query := `
		SELECT asset, info_data, created_at
		FROM asset_extended_info
		WHERE asset = ANY($1)
		ORDER BY asset
	`

	rows, err := s.pool.Query(ctx, query, assets)
	if err != nil {
		return nil, fmt.Errorf("find asset infos: %w", err)
	}
	defer rows.Close()

	var result []*domain.AssetInfo
	for rows.Next() {
		info, err := scanAssetInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset info: %w", err)
		}
		result = append(result, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate asset infos: %w", err)
	}
	return result, nil
}

// scanAssetInfo scans a single row into AssetInfo.
func scanAssetInfo(row pgx.Row) (*domain.AssetInfo, error) {
	var info domain.AssetInfo
	if err := row.Scan(&info.Asset, &info.InfoData, &info.CreatedAt); err != nil {
		return nil, err
	}
	return &info, nil
}
