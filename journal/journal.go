// Package journal records the bot's entries and exits for later review.
package journal

import "time"

// Side distinguishes entry buys from exit sells in the record log.
type Side string

const (
	Entry Side = "entry"
	Exit  Side = "exit"
)

// TradeRecord is one journaled fill.
type TradeRecord struct {
	ID           string
	Symbol       string
	Side         Side
	Qty          int
	Price        float64
	TrailPercent float64
	Time         time.Time
	Note         string
}

// Journal persists trade records. Implementations must be safe for the
// single-writer use the bot makes of them.
type Journal interface {
	Record(TradeRecord) error
	Close() error
}

// Noop discards all records. Used when journaling is disabled.
type Noop struct{}

func (Noop) Record(TradeRecord) error { return nil }
func (Noop) Close() error             { return nil }
