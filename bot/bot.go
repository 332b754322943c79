// Package bot runs the strategy loop: poll bars, evaluate the entry signal,
// open positions through the executor, and report P&L while holding.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/rustyeddy/trendbot/broker"
	"github.com/rustyeddy/trendbot/indicators"
	"github.com/rustyeddy/trendbot/journal"
	"github.com/rustyeddy/trendbot/pkg/id"
	"github.com/rustyeddy/trendbot/strategy"
	"github.com/rustyeddy/trendbot/trade"
)

// Config tunes the strategy loop.
type Config struct {
	Symbol        string
	CheckInterval time.Duration
	HistoryDays   int // bar fetch window
	MinBars       int // below this the iteration is abandoned
	RSIThreshold  float64
	Indicators    indicators.Config

	// Backoffs after recoverable failures.
	DataBackoff  time.Duration // missing/insufficient bars
	PriceBackoff time.Duration // missing latest price
	ErrorBackoff time.Duration // catch-all iteration failure
}

// DefaultConfig returns the production loop settings.
func DefaultConfig(symbol string) Config {
	return Config{
		Symbol:        symbol,
		CheckInterval: 5 * time.Minute,
		HistoryDays:   100,
		MinBars:       20,
		RSIThreshold:  50,
		Indicators:    indicators.DefaultConfig(),
		DataBackoff:   5 * time.Minute,
		PriceBackoff:  time.Minute,
		ErrorBackoff:  5 * time.Minute,
	}
}

// Bot owns the loop and the tracked-positions state. The map has a single
// writer (the loop goroutine); a concurrent redesign must serialize access.
type Bot struct {
	broker    broker.Broker
	exec      *trade.Executor
	journal   journal.Journal
	cfg       Config
	positions map[string]*trade.Position
	now       func() time.Time
}

func New(b broker.Broker, exec *trade.Executor, j journal.Journal, cfg Config) *Bot {
	if j == nil {
		j = journal.Noop{}
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 5 * time.Minute
	}
	if cfg.DataBackoff <= 0 {
		cfg.DataBackoff = 5 * time.Minute
	}
	if cfg.PriceBackoff <= 0 {
		cfg.PriceBackoff = time.Minute
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = 5 * time.Minute
	}
	if cfg.MinBars <= 0 {
		cfg.MinBars = 20
	}
	return &Bot{
		broker:    b,
		exec:      exec,
		journal:   j,
		cfg:       cfg,
		positions: make(map[string]*trade.Position),
		now:       time.Now,
	}
}

// Run loops until the context is canceled. Iteration failures are logged and
// backed off; only cancellation ends the loop.
func (b *Bot) Run(ctx context.Context) error {
	log.Printf("[INFO] starting loop for %s, interval %s", b.cfg.Symbol, b.cfg.CheckInterval)

	for {
		if ctx.Err() != nil {
			log.Printf("[INFO] stopping")
			return nil
		}

		wait, err := b.step(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("[INFO] stopping")
				return nil
			}
			log.Printf("[ERROR] iteration failed: %v (backing off %s)", err, b.cfg.ErrorBackoff)
			wait = b.cfg.ErrorBackoff
		}

		if !sleep(ctx, wait) {
			log.Printf("[INFO] stopping")
			return nil
		}
	}
}

// step runs one iteration and returns how long to sleep before the next.
func (b *Bot) step(ctx context.Context) (time.Duration, error) {
	symbol := b.cfg.Symbol

	clock, err := b.broker.GetClock(ctx)
	if err != nil {
		return 0, fmt.Errorf("get clock: %w", err)
	}
	if !clock.IsOpen {
		untilOpen := clock.NextOpen.Sub(clock.Timestamp)
		wait := b.cfg.CheckInterval
		if untilOpen > 0 && untilOpen < wait {
			wait = untilOpen
		}
		log.Printf("[INFO] market closed, next open %s, sleeping %s",
			clock.NextOpen.Format(time.RFC3339), wait)
		return wait, nil
	}

	end := b.now()
	bars, err := b.broker.GetBars(ctx, broker.BarsRequest{
		Symbol: symbol,
		Start:  end.AddDate(0, 0, -b.cfg.HistoryDays),
		End:    end,
		Limit:  b.cfg.HistoryDays,
	})
	if err != nil {
		log.Printf("[WARN] fetch bars: %v, retrying in %s", err, b.cfg.DataBackoff)
		return b.cfg.DataBackoff, nil
	}
	if len(bars) < b.cfg.MinBars {
		log.Printf("[WARN] only %d bars (<%d), retrying in %s", len(bars), b.cfg.MinBars, b.cfg.DataBackoff)
		return b.cfg.DataBackoff, nil
	}

	last, err := b.broker.GetLatestTrade(ctx, symbol)
	if err != nil {
		log.Printf("[WARN] latest trade: %v, retrying in %s", err, b.cfg.PriceBackoff)
		return b.cfg.PriceBackoff, nil
	}

	held, err := b.heldQty(ctx, symbol)
	if err != nil {
		return 0, err
	}

	if held == 0 {
		b.reconcile(symbol, last.Price)

		set := indicators.Compute(bars, b.cfg.Indicators)
		dec := strategy.EvaluateSet(set, b.cfg.RSIThreshold)
		log.Printf("[INFO] %s signal: %s", symbol, dec.Reason())

		if dec.Enter {
			log.Printf("[INFO] %s: entry signal, opening position", symbol)
			if err := b.open(ctx, symbol); err != nil {
				return 0, err
			}
		} else {
			log.Printf("[INFO] %s: no entry signal", symbol)
		}
		return b.cfg.CheckInterval, nil
	}

	b.report(symbol, held, last.Price)
	return b.cfg.CheckInterval, nil
}

func (b *Bot) heldQty(ctx context.Context, symbol string) (int, error) {
	pos, err := b.broker.GetPosition(ctx, symbol)
	if errors.Is(err, broker.ErrNoPosition) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get position: %w", err)
	}

	// An untracked brokerage position means the process restarted while
	// holding; adopt it so P&L reporting has an entry price.
	if pos.Qty > 0 {
		if _, ok := b.positions[symbol]; !ok {
			log.Printf("[WARN] %s: adopting untracked position of %d @ %.2f", symbol, pos.Qty, pos.AvgEntry)
			b.positions[symbol] = &trade.Position{
				Symbol:     symbol,
				Qty:        pos.Qty,
				EntryPrice: pos.AvgEntry,
				EntryTime:  b.now(),
			}
		}
	}
	return pos.Qty, nil
}

// open runs one entry attempt. Order-path business failures (timeout,
// rejection) are logged and absorbed; the next iteration re-evaluates.
func (b *Bot) open(ctx context.Context, symbol string) error {
	pos, err := b.exec.OpenPosition(ctx, symbol)
	if errors.Is(err, trade.ErrFillTimeout) || errors.Is(err, trade.ErrOrderFailed) {
		log.Printf("[WARN] %s: entry abandoned: %v", symbol, err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("open position: %w", err)
	}
	if pos != nil {
		b.positions[symbol] = pos
	}
	return nil
}

// reconcile drops a tracked position the brokerage no longer holds: the
// trailing stop is assumed to have filled. The exit is journaled at the
// current price so the record log stays coherent across the stop.
func (b *Bot) reconcile(symbol string, currentPrice float64) {
	pos, ok := b.positions[symbol]
	if !ok {
		return
	}

	log.Printf("[INFO] %s: brokerage reports flat, assuming trailing stop filled (entry %.2f)",
		symbol, pos.EntryPrice)
	delete(b.positions, symbol)

	rec := journal.TradeRecord{
		ID:           id.New(),
		Symbol:       symbol,
		Side:         journal.Exit,
		Qty:          pos.Qty,
		Price:        currentPrice,
		TrailPercent: pos.TrailPercent,
		Time:         b.now(),
		Note:         "trailing stop assumed filled",
	}
	if err := b.journal.Record(rec); err != nil {
		log.Printf("[WARN] journal exit record failed: %v", err)
	}
}

func (b *Bot) report(symbol string, qty int, currentPrice float64) {
	pos, ok := b.positions[symbol]
	if !ok {
		log.Printf("[INFO] %s: holding %d shares (entry unknown)", symbol, qty)
		return
	}

	pl := (currentPrice - pos.EntryPrice) * float64(qty)
	pct := 0.0
	if pos.EntryPrice > 0 {
		pct = (currentPrice/pos.EntryPrice - 1) * 100
	}
	age := b.now().Sub(pos.EntryTime).Round(time.Minute)
	log.Printf("[INFO] %s: holding %d @ %.2f, now %.2f, P&L %+.2f (%+.2f%%), age %s",
		symbol, qty, pos.EntryPrice, currentPrice, pl, pct, age)
}

// Positions returns a snapshot of the tracked positions. Test hook; the loop
// itself is the only writer.
func (b *Bot) Positions() map[string]trade.Position {
	out := make(map[string]trade.Position, len(b.positions))
	for k, v := range b.positions {
		out[k] = *v
	}
	return out
}

// sleep blocks for d or until ctx is canceled. Returns false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
