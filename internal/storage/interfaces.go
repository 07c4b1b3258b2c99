package storage

import (
	"context"

	"dex-markets/internal/domain"
)

// AssetInfoStore provides access to asset_extended_info storage.
type AssetInfoStore interface {
	// Upsert inserts or replaces metadata for an asset.
	Upsert(ctx context.Context, info *domain.AssetInfo) error

	// GetByAsset retrieves metadata for one asset. Returns ErrNotFound if not exists.
	GetByAsset(ctx context.Context, asset string) (*domain.AssetInfo, error)

	// FindAssets retrieves metadata for every known asset in assets, ordered by asset.
	// Unknown assets are skipped.
	FindAssets(ctx context.Context, assets []string) ([]*domain.AssetInfo, error)
}
