package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Market Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Reserves: %s / %s\n\n", r.Primary, r.Secondary))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Pairs | %d |\n", r.Summary.TotalPairs))
	sb.WriteString(fmt.Sprintf("| Traded (24h) | %d |\n", r.Summary.ActivePairs))
	sb.WriteString(fmt.Sprintf("| Rising | %d |\n", r.Summary.RisingPairs))
	sb.WriteString(fmt.Sprintf("| Falling | %d |\n", r.Summary.FallingPairs))
	sb.WriteString(fmt.Sprintf("| With image | %d |\n", r.Summary.WithImage))
	sb.WriteString("\n")

	if len(r.Summary.VolumeByQuote) > 0 {
		sb.WriteString("### Volume by Quote (24h)\n\n")
		sb.WriteString("| Quote | Pairs | Volume |\n")
		sb.WriteString("|-------|-------|--------|\n")
		for _, qv := range r.Summary.VolumeByQuote {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d |\n", qv.Quote, qv.Pairs, qv.Volume))
		}
		sb.WriteString("\n")
	}

	// Markets
	sb.WriteString("## Markets\n\n")
	if len(r.Markets) == 0 {
		sb.WriteString("No markets available.\n")
		return sb.String()
	}
	sb.WriteString("| # | Pair | Price | Trend | Change | Price 24h | Volume | Supply | Market Cap |\n")
	sb.WriteString("|---|------|-------|-------|--------|-----------|--------|--------|------------|\n")
	for _, m := range r.Markets {
		sb.WriteString(fmt.Sprintf("| %d | %s/%s | %s | %s | %s%% | %s | %d | %d | %s |\n",
			m.Pos, m.BaseAsset, m.QuoteAsset, m.Price, trendSymbol(m.Trend),
			m.Progression, m.Price24h, m.Volume, m.Supply, m.MarketCap))
	}

	return sb.String()
}

func trendSymbol(trend int) string {
	switch {
	case trend > 0:
		return "up"
	case trend < 0:
		return "down"
	default:
		return "flat"
	}
}
