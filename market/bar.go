// Package market holds the core market-data types shared across the bot.
package market

import "time"

// Bar represents one daily OHLCV record for a symbol.
// Bars are immutable once fetched and ordered chronologically.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Closes extracts the close prices from a bar sequence, preserving order.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
