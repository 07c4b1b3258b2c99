package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-markets/internal/config"
	"dex-markets/internal/ledger"
	"dex-markets/internal/storage"
	"dex-markets/internal/storage/memory"
)

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestOpen_RPCWithMemoryMetadata(t *testing.T) {
	cfg := config.Default()
	cfg.Metadata.Backend = config.MetadataMemory
	cfg.Ledger.Username = "rpc"
	cfg.Ledger.Password = "secret"

	b, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &ledger.RPCClient{}, b.Ledger)
	assert.IsType(t, &memory.AssetInfoStore{}, b.Assets)
	assert.Equal(t, ledger.SQLite, b.Ledger.Dialect())

	svc := b.Service(nil)
	require.NotNil(t, svc)
	assert.Equal(t, "SHP", svc.Options().Reserves.Primary)
}

func TestOpen_NoMetadata(t *testing.T) {
	b, err := Open(context.Background(), config.Default(), nil)
	require.NoError(t, err)
	defer b.Close()

	assert.Nil(t, b.Assets)
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Ledger.Backend = "mongo"

	_, err := Open(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, `unknown ledger backend "mongo"`)
}

func TestOpen_UnreachableRedis(t *testing.T) {
	cfg := config.Default()
	cfg.Metadata.Backend = config.MetadataRedis
	cfg.Metadata.RedisAddr = "127.0.0.1:1"

	_, err := Open(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "connect metadata store")
}

func TestOpen_SeedsMemoryMetadata(t *testing.T) {
	cfg := config.Default()
	cfg.Metadata.Backend = config.MetadataMemory
	cfg.Metadata.SeedFile = writeSeed(t, `
- asset: FOO
  info_data:
    valid_image: true
    website: https://foo.example
- asset: BAR
  info_data:
    valid_image: false
`)

	b, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	foo, err := b.Assets.GetByAsset(ctx, "FOO")
	require.NoError(t, err)
	assert.True(t, foo.HasValidImage())
	assert.Equal(t, "https://foo.example", foo.InfoData["website"])
	assert.NotZero(t, foo.CreatedAt)

	bar, err := b.Assets.GetByAsset(ctx, "BAR")
	require.NoError(t, err)
	assert.False(t, bar.HasValidImage())

	_, err = b.Assets.GetByAsset(ctx, "BAZ")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOpen_InvalidSeed(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "malformed yaml", body: "- asset: [FOO", want: "parse metadata seed"},
		{name: "missing asset", body: "- info_data: {valid_image: true}", want: `seed asset ""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Metadata.Backend = config.MetadataMemory
			cfg.Metadata.SeedFile = writeSeed(t, tt.body)

			_, err := Open(context.Background(), cfg, nil)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestOpen_MissingSeedFile(t *testing.T) {
	cfg := config.Default()
	cfg.Metadata.Backend = config.MetadataMemory
	cfg.Metadata.SeedFile = filepath.Join(t.TempDir(), "absent.yaml")

	_, err := Open(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "read metadata seed")
}
