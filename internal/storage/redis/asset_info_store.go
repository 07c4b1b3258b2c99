// Package redis implements storage.AssetInfoStore on Redis hashes.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"dex-markets/internal/domain"
	"dex-markets/internal/storage"
)

const (
	fieldInfoData  = "info_data"
	fieldCreatedAt = "created_at"
)

// AssetInfoStore keeps one hash per asset under asset_info:<asset>.
type AssetInfoStore struct {
	rdb *redis.Client
}

// Connect creates a client and pings the server.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewAssetInfoStore creates a store on an existing client.
func NewAssetInfoStore(rdb *redis.Client) *AssetInfoStore {
	return &AssetInfoStore{rdb: rdb}
}

var _ storage.AssetInfoStore = (*AssetInfoStore)(nil)

func assetKey(asset string) string { return "asset_info:" + asset }

// Upsert replaces info_data; created_at is only written once.
func (s *AssetInfoStore) Upsert(ctx context.Context, info *domain.AssetInfo) error {
	if info == nil || info.Asset == "" {
		return storage.ErrInvalidInput
	}

	blob, err := json.Marshal(info.InfoData)
	if err != nil {
		return fmt.Errorf("encode info_data: %w", err)
	}
	createdAt := info.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().UnixMilli()
	}

	key := assetKey(info.Asset)
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSetNX(ctx, key, fieldCreatedAt, createdAt)
		p.HSet(ctx, key, fieldInfoData, blob)
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert asset info: %w", err)
	}
	return nil
}

// GetByAsset retrieves metadata by asset. Returns ErrNotFound if not exists.
func (s *AssetInfoStore) GetByAsset(ctx context.Context, asset string) (*domain.AssetInfo, error) {
	fields, err := s.rdb.HGetAll(ctx, assetKey(asset)).Result()
	if err != nil {
		return nil, fmt.Errorf("get asset info: %w", err)
	}
	if len(fields) == 0 {
		return nil, storage.ErrNotFound
	}
	return decodeInfo(asset, fields)
}

// FindAssets fetches every requested hash in one pipeline.
func (s *AssetInfoStore) FindAssets(ctx context.Context, assets []string) ([]*domain.AssetInfo, error) {
	seen := make(map[string]bool, len(assets))
	var unique []string
	for _, a := range assets {
		if !seen[a] {
			seen[a] = true
			unique = append(unique, a)
		}
	}
	if len(unique) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(unique))
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, a := range unique {
			cmds[i] = p.HGetAll(ctx, assetKey(a))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("find asset info: %w", err)
	}

	var result []*domain.AssetInfo
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		info, err := decodeInfo(unique[i], fields)
		if err != nil {
			return nil, err
		}
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Asset < result[j].Asset
	})
	return result, nil
}

func decodeInfo(asset string, fields map[string]string) (*domain.AssetInfo, error) {
	info := &domain.AssetInfo{Asset: asset}
	if raw, ok := fields[fieldInfoData]; ok && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &info.InfoData); err != nil {
			return nil, fmt.Errorf("decode info_data for %s: %w", asset, err)
		}
	}
	if raw, ok := fields[fieldCreatedAt]; ok {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode created_at for %s: %w", asset, err)
		}
		info.CreatedAt = ts
	}
	return info, nil
}
