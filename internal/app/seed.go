package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"dex-markets/internal/domain"
	"dex-markets/internal/storage"
)

// assetSeed is one entry of a metadata seed file, for example
// {asset: FOO, info_data: {valid_image: true}}.
type assetSeed struct {
	Asset    string         `yaml:"asset"`
	InfoData map[string]any `yaml:"info_data"`
}

// seedAssetInfo upserts every entry of the YAML file at path into store and
// returns the number of entries written.
func seedAssetInfo(ctx context.Context, store storage.AssetInfoStore, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read metadata seed: %w", err)
	}

	var seeds []assetSeed
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return 0, fmt.Errorf("parse metadata seed %s: %w", path, err)
	}

	now := time.Now().UnixMilli()
	for i, sd := range seeds {
		info := &domain.AssetInfo{Asset: sd.Asset, InfoData: sd.InfoData, CreatedAt: now}
		if err := store.Upsert(ctx, info); err != nil {
			return i, fmt.Errorf("seed asset %q: %w", sd.Asset, err)
		}
	}
	return len(seeds), nil
}
