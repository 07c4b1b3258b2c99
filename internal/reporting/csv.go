package reporting

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"

	"dex-markets/internal/domain"
)

var csvHeader = []string{
	"pos", "base_asset", "quote_asset", "price", "trend", "progression",
	"price_24h", "volume", "supply", "divisible", "market_cap", "with_image",
}

// RenderCSV renders the market list as CSV string.
func RenderCSV(markets []domain.Market) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, m := range markets {
		row := []string{
			strconv.Itoa(m.Pos),
			m.BaseAsset,
			m.QuoteAsset,
			m.Price,
			strconv.Itoa(m.Trend),
			m.Progression,
			m.Price24h,
			strconv.FormatInt(m.Volume, 10),
			strconv.FormatInt(m.Supply, 10),
			strconv.FormatBool(m.Divisible),
			m.MarketCap,
			strconv.FormatBool(m.WithImage),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderJSON renders the whole report as indented JSON.
func RenderJSON(r *Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
