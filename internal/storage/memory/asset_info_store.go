package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"dex-markets/internal/domain"
	"dex-markets/internal/storage"
)

// AssetInfoStore is an in-memory implementation of storage.AssetInfoStore.
type AssetInfoStore struct {
	mu      sync.RWMutex
	byAsset map[string]*domain.AssetInfo
}

// NewAssetInfoStore creates a new in-memory asset metadata store.
func NewAssetInfoStore() *AssetInfoStore {
	return &AssetInfoStore{
		byAsset: make(map[string]*domain.AssetInfo),
	}
}

// Upsert inserts or replaces metadata for an asset.
func (s *AssetInfoStore) Upsert(_ context.Context, info *domain.AssetInfo) error {
	if info == nil || info.Asset == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := copyInfo(info)
	if prev, ok := s.byAsset[info.Asset]; ok {
		c.CreatedAt = prev.CreatedAt
	} else if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().UnixMilli()
	}
	s.byAsset[info.Asset] = c
	return nil
}

// GetByAsset retrieves metadata by asset. Returns ErrNotFound if not exists.
func (s *AssetInfoStore) GetByAsset(_ context.Context, asset string) (*domain.AssetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.byAsset[asset]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyInfo(info), nil
}

// FindAssets retrieves metadata for every known asset, ordered by asset.
func (s *AssetInfoStore) FindAssets(_ context.Context, assets []string) ([]*domain.AssetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool, len(assets))
	var result []*domain.AssetInfo
	for _, a := range assets {
		if seen[a] {
			continue
		}
		seen[a] = true
		if info, ok := s.byAsset[a]; ok {
			result = append(result, copyInfo(info))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Asset < result[j].Asset
	})
	return result, nil
}

// copyInfo copies the record and the top level of its blob.
func copyInfo(info *domain.AssetInfo) *domain.AssetInfo {
	c := *info
	if info.InfoData != nil {
		c.InfoData = make(map[string]any, len(info.InfoData))
		for k, v := range info.InfoData {
			c.InfoData[k] = v
		}
	}
	return &c
}

var _ storage.AssetInfoStore = (*AssetInfoStore)(nil)
