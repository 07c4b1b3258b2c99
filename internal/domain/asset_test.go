package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairKey_OrderIndependent(t *testing.T) {
	assert.Equal(t, "BAR/FOO", PairKey("BAR", "FOO"))
	assert.Equal(t, "BAR/FOO", PairKey("FOO", "BAR"))
}

func TestSplitPairKey(t *testing.T) {
	a, b, ok := SplitPairKey("BAR/FOO")
	assert.True(t, ok)
	assert.Equal(t, "BAR", a)
	assert.Equal(t, "FOO", b)

	for _, bad := range []string{"", "BAR", "/FOO", "BAR/"} {
		_, _, ok := SplitPairKey(bad)
		assert.False(t, ok, bad)
	}
}

func TestAssetsToPair(t *testing.T) {
	r := DefaultReserves()

	tests := []struct {
		a1, a2 string
		want   Pair
	}{
		{"FOO", "SCH", Pair{Base: "FOO", Quote: "SCH"}},
		{"SCH", "FOO", Pair{Base: "FOO", Quote: "SCH"}},
		{"SHP", "SCH", Pair{Base: "SHP", Quote: "SCH"}},
		{"SCH", "SHP", Pair{Base: "SHP", Quote: "SCH"}},
		{"FOO", "SHP", Pair{Base: "FOO", Quote: "SHP"}},
		{"SHP", "AAA", Pair{Base: "AAA", Quote: "SHP"}},
		{"FOO", "BAR", Pair{Base: "BAR", Quote: "FOO"}},
		{"BAR", "FOO", Pair{Base: "BAR", Quote: "FOO"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.AssetsToPair(tt.a1, tt.a2), "%s/%s", tt.a1, tt.a2)
	}
}

func TestReserves_Keys(t *testing.T) {
	r := Reserves{Primary: "XCP", Secondary: "BTC"}
	assert.Equal(t, "XCP/BTC", r.PrimaryPairKey())
	assert.Equal(t, "BTC/XCP", r.PrimaryPairSortedKey())
	assert.Equal(t, Pair{Base: "XCP", Quote: "BTC"}, r.PrimaryPair())
	assert.True(t, r.IsReserve("BTC"))
	assert.False(t, r.IsReserve("FOO"))
}

func TestMovePrimaryFirst(t *testing.T) {
	isC := func(s string) bool { return s == "c" }

	assert.Equal(t, []string{"c", "a", "b", "d"}, MovePrimaryFirst([]string{"a", "b", "c", "d"}, isC))
	assert.Equal(t, []string{"c", "a"}, MovePrimaryFirst([]string{"c", "a"}, isC))
	assert.Equal(t, []string{"a", "b"}, MovePrimaryFirst([]string{"a", "b"}, isC))
	assert.Empty(t, MovePrimaryFirst([]string{}, isC))
}

func TestAssetInfo_HasValidImage(t *testing.T) {
	var nilInfo *AssetInfo
	assert.False(t, nilInfo.HasValidImage())
	assert.False(t, (&AssetInfo{Asset: "FOO"}).HasValidImage())
	assert.False(t, (&AssetInfo{Asset: "FOO", InfoData: map[string]any{"valid_image": "yes"}}).HasValidImage())
	assert.True(t, (&AssetInfo{Asset: "FOO", InfoData: map[string]any{"valid_image": true}}).HasValidImage())
}
