// Package broker defines the brokerage contract the bot trades through.
// Any adapter (live REST client, test fake) implements Broker; the decision
// logic never sees a concrete API shape.
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/trendbot/market"
)

// ErrNoPosition is returned by GetPosition when no position exists for the
// symbol. Callers treat it as a flat (zero) position, not a failure.
var ErrNoPosition = errors.New("broker: no position")

// Account is the trading account summary.
type Account struct {
	ID          string
	Status      string
	Currency    string
	BuyingPower float64
}

// Clock reports the market session state.
type Clock struct {
	Timestamp time.Time
	IsOpen    bool
	NextOpen  time.Time
	NextClose time.Time
}

// Trade is the latest trade print for a symbol.
type Trade struct {
	Symbol string
	Price  float64
	Time   time.Time
}

// Position is an open brokerage position.
type Position struct {
	Symbol      string
	Qty         int
	AvgEntry    float64
	MarketValue float64
}

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

type OrderType string

const (
	Market       OrderType = "market"
	TrailingStop OrderType = "trailing_stop"
)

type TimeInForce string

const (
	Day TimeInForce = "day"
	GTC TimeInForce = "gtc"
)

type OrderStatus string

const (
	StatusNew             OrderStatus = "new"
	StatusAccepted        OrderStatus = "accepted"
	StatusPartiallyFilled OrderStatus = "partially_filled"
	StatusFilled          OrderStatus = "filled"
	StatusCanceled        OrderStatus = "canceled"
	StatusExpired         OrderStatus = "expired"
	StatusRejected        OrderStatus = "rejected"
)

// Terminal reports whether the order reached a state it cannot leave.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusFilled, StatusCanceled, StatusExpired, StatusRejected:
		return true
	}
	return false
}

// Failed reports whether the order terminated without filling.
func (s OrderStatus) Failed() bool {
	return s.Terminal() && s != StatusFilled
}

// OrderRequest describes an order to submit. TrailPercent is only meaningful
// for trailing-stop sells.
type OrderRequest struct {
	Symbol        string
	Qty           int
	Side          Side
	Type          OrderType
	TimeInForce   TimeInForce
	TrailPercent  float64
	ClientOrderID string
}

// Order is the brokerage's view of a submitted order.
type Order struct {
	ID             string
	ClientOrderID  string
	Symbol         string
	Qty            int
	Side           Side
	Type           OrderType
	Status         OrderStatus
	FilledQty      int
	FilledAvgPrice float64
	SubmittedAt    time.Time
	FilledAt       time.Time
}

// BarsRequest selects a window of daily bars.
type BarsRequest struct {
	Symbol string
	Start  time.Time
	End    time.Time
	Limit  int
}

// Broker is the seven-operation contract the strategy depends on.
type Broker interface {
	GetAccount(ctx context.Context) (Account, error)
	GetClock(ctx context.Context) (Clock, error)
	GetLatestTrade(ctx context.Context, symbol string) (Trade, error)
	GetBars(ctx context.Context, req BarsRequest) ([]market.Bar, error)
	GetPosition(ctx context.Context, symbol string) (Position, error)
	SubmitOrder(ctx context.Context, req OrderRequest) (Order, error)
	GetOrder(ctx context.Context, id string) (Order, error)
}
