package domain

// AssetInfo is extended, off-chain asset metadata.
// Corresponds to asset_extended_info table in PostgreSQL.
type AssetInfo struct {
	Asset     string         // asset identifier (PK)
	InfoData  map[string]any // free-form metadata blob (nullable)
	CreatedAt int64          // record creation timestamp (ms)
}

// HasValidImage reports whether info_data.valid_image is true.
func (a *AssetInfo) HasValidImage() bool {
	if a == nil || a.InfoData == nil {
		return false
	}
	v, ok := a.InfoData["valid_image"].(bool)
	return ok && v
}
