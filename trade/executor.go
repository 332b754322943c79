// Package trade runs the entry order lifecycle: refuse-if-held, size, submit,
// await the fill, and attach the trailing stop.
package trade

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/rustyeddy/trendbot/broker"
	"github.com/rustyeddy/trendbot/journal"
	"github.com/rustyeddy/trendbot/pkg/id"
	"github.com/rustyeddy/trendbot/risk"
)

// Business failures of an entry attempt. The loop logs these and moves on to
// the next iteration; they never trigger the catch-all backoff.
var (
	// ErrFillTimeout means the entry order did not fill within the wait
	// window. The order is left outstanding at the brokerage.
	ErrFillTimeout = errors.New("trade: fill wait timed out")

	// ErrOrderFailed means the entry order reached a terminal state other
	// than filled (canceled, expired, rejected).
	ErrOrderFailed = errors.New("trade: order failed")
)

// Position is the bot's record of a confirmed entry.
type Position struct {
	Symbol       string
	Qty          int
	EntryPrice   float64 // average fill price, not the requested price
	EntryTime    time.Time
	TrailPercent float64
}

// Config tunes the executor.
type Config struct {
	RiskFraction float64       // share of buying power per entry
	TrailPercent float64       // trailing stop distance in percent
	FillWait     time.Duration // how long to wait for the entry fill
	PollInterval time.Duration // fill poll cadence
}

// DefaultConfig mirrors the production settings: 5% of buying power, 5%
// trail, 60s fill wait polled once a second.
func DefaultConfig() Config {
	return Config{
		RiskFraction: risk.DefaultFraction,
		TrailPercent: 5,
		FillWait:     60 * time.Second,
		PollInterval: time.Second,
	}
}

// Executor submits entries against a broker and journals the results.
type Executor struct {
	broker  broker.Broker
	journal journal.Journal
	cfg     Config
	now     func() time.Time
}

func NewExecutor(b broker.Broker, j journal.Journal, cfg Config) *Executor {
	if cfg.FillWait <= 0 {
		cfg.FillWait = 60 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.RiskFraction <= 0 {
		cfg.RiskFraction = risk.DefaultFraction
	}
	if j == nil {
		j = journal.Noop{}
	}
	return &Executor{broker: b, journal: j, cfg: cfg, now: time.Now}
}

// OpenPosition runs one entry attempt for the symbol.
//
// Returns (nil, nil) when the brokerage already holds the symbol — a no-op,
// not an error. Returns ErrFillTimeout or ErrOrderFailed (wrapped) when the
// attempt is abandoned on the order path. Any other error is an unexpected
// fault for the caller's backoff handling.
//
// If the entry fills but the trailing stop cannot be submitted, the position
// is still recorded and returned; the gap is loud in the log.
func (e *Executor) OpenPosition(ctx context.Context, symbol string) (*Position, error) {
	pos, err := e.broker.GetPosition(ctx, symbol)
	if err != nil && !errors.Is(err, broker.ErrNoPosition) {
		return nil, fmt.Errorf("check position: %w", err)
	}
	if err == nil && pos.Qty > 0 {
		log.Printf("[INFO] %s: already holding %d shares, skipping entry", symbol, pos.Qty)
		return nil, nil
	}

	last, err := e.broker.GetLatestTrade(ctx, symbol)
	if err != nil {
		// No stale-price sizing: a failed quote fails the whole attempt.
		return nil, fmt.Errorf("latest trade: %w", err)
	}
	acct, err := e.broker.GetAccount(ctx)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	qty := risk.Shares(acct.BuyingPower, last.Price, e.cfg.RiskFraction)

	entry, err := e.broker.SubmitOrder(ctx, broker.OrderRequest{
		Symbol:        symbol,
		Qty:           qty,
		Side:          broker.Buy,
		Type:          broker.Market,
		TimeInForce:   broker.GTC,
		ClientOrderID: id.New(),
	})
	if err != nil {
		return nil, fmt.Errorf("submit entry: %w", err)
	}
	log.Printf("[INFO] %s: submitted market buy %d (order %s)", symbol, qty, entry.ID)

	filled, err := e.awaitFill(ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] %s: entry filled %d @ %.2f", symbol, filled.FilledQty, filled.FilledAvgPrice)

	position := &Position{
		Symbol:       symbol,
		Qty:          qty,
		EntryPrice:   filled.FilledAvgPrice,
		EntryTime:    e.now(),
		TrailPercent: e.cfg.TrailPercent,
	}

	stop, err := e.broker.SubmitOrder(ctx, broker.OrderRequest{
		Symbol:        symbol,
		Qty:           qty,
		Side:          broker.Sell,
		Type:          broker.TrailingStop,
		TimeInForce:   broker.GTC,
		TrailPercent:  e.cfg.TrailPercent,
		ClientOrderID: id.New(),
	})
	if err != nil {
		log.Printf("[ERROR] %s: trailing stop submit failed, position of %d shares is UNPROTECTED: %v",
			symbol, qty, err)
	} else {
		log.Printf("[INFO] %s: trailing stop sell %d @ trail %.2f%% (order %s)",
			symbol, qty, e.cfg.TrailPercent, stop.ID)
	}

	rec := journal.TradeRecord{
		ID:           id.New(),
		Symbol:       symbol,
		Side:         journal.Entry,
		Qty:          qty,
		Price:        filled.FilledAvgPrice,
		TrailPercent: e.cfg.TrailPercent,
		Time:         position.EntryTime,
		Note:         "momentum entry",
	}
	if err := e.journal.Record(rec); err != nil {
		log.Printf("[WARN] journal entry record failed: %v", err)
	}

	return position, nil
}

// awaitFill polls the order until it fills, fails, or the wait window runs
// out. Context cancellation aborts the wait immediately.
func (e *Executor) awaitFill(ctx context.Context, orderID string) (broker.Order, error) {
	deadline := e.now().Add(e.cfg.FillWait)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return broker.Order{}, ctx.Err()
		case <-ticker.C:
		}

		order, err := e.broker.GetOrder(ctx, orderID)
		if err != nil {
			// Transient poll failure: keep trying until the deadline.
			log.Printf("[WARN] poll order %s: %v", orderID, err)
		} else {
			if order.Status == broker.StatusFilled {
				return order, nil
			}
			if order.Status.Failed() {
				return broker.Order{}, fmt.Errorf("%w: order %s status %s", ErrOrderFailed, orderID, order.Status)
			}
		}

		if e.now().After(deadline) {
			return broker.Order{}, fmt.Errorf("%w: order %s still open after %s", ErrFillTimeout, orderID, e.cfg.FillWait)
		}
	}
}
