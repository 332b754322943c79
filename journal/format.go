package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTrades renders records as an aligned text table for the CLI.
func FormatTrades(recs []TradeRecord) string {
	if len(recs) == 0 {
		return "no trades"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-19s  %-6s  %-5s  %5s  %10s  %6s  %s\n",
		"time", "symbol", "side", "qty", "price", "trail%", "note")
	for _, r := range recs {
		fmt.Fprintf(&b, "%-19s  %-6s  %-5s  %5d  %10.2f  %6.2f  %s\n",
			r.Time.Local().Format("2006-01-02 15:04:05"),
			r.Symbol, r.Side, r.Qty, r.Price, r.TrailPercent, r.Note)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatTrade renders a single record.
func FormatTrade(r TradeRecord) string {
	return fmt.Sprintf("%s  %s %s %d @ %.2f (trail %.2f%%) %s  [%s]",
		r.Time.Format(time.RFC3339), r.Symbol, r.Side, r.Qty, r.Price,
		r.TrailPercent, r.Note, r.ID)
}
