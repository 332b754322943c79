package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rustyeddy/trendbot/broker"
	"github.com/rustyeddy/trendbot/journal"
	"github.com/rustyeddy/trendbot/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBroker is a scriptable broker for executor tests.
type mockBroker struct {
	position    broker.Position
	positionErr error
	trade       broker.Trade
	tradeErr    error
	account     broker.Account

	submitted    []broker.OrderRequest
	submitErr    error
	stopErr      error
	orderStatus  []broker.OrderStatus // consumed one per GetOrder poll
	filledPrice  float64
	getOrderErrs int
	polls        int
}

func (m *mockBroker) GetAccount(ctx context.Context) (broker.Account, error) {
	return m.account, nil
}

func (m *mockBroker) GetClock(ctx context.Context) (broker.Clock, error) {
	return broker.Clock{IsOpen: true}, nil
}

func (m *mockBroker) GetLatestTrade(ctx context.Context, symbol string) (broker.Trade, error) {
	if m.tradeErr != nil {
		return broker.Trade{}, m.tradeErr
	}
	return m.trade, nil
}

func (m *mockBroker) GetBars(ctx context.Context, req broker.BarsRequest) ([]market.Bar, error) {
	return nil, nil
}

func (m *mockBroker) GetPosition(ctx context.Context, symbol string) (broker.Position, error) {
	if m.positionErr != nil {
		return broker.Position{}, m.positionErr
	}
	return m.position, nil
}

func (m *mockBroker) SubmitOrder(ctx context.Context, req broker.OrderRequest) (broker.Order, error) {
	if req.Type == broker.TrailingStop && m.stopErr != nil {
		return broker.Order{}, m.stopErr
	}
	if m.submitErr != nil {
		return broker.Order{}, m.submitErr
	}
	m.submitted = append(m.submitted, req)
	return broker.Order{
		ID:     "order-" + string(req.Side),
		Symbol: req.Symbol,
		Qty:    req.Qty,
		Side:   req.Side,
		Type:   req.Type,
		Status: broker.StatusAccepted,
	}, nil
}

func (m *mockBroker) GetOrder(ctx context.Context, id string) (broker.Order, error) {
	m.polls++
	if m.getOrderErrs > 0 {
		m.getOrderErrs--
		return broker.Order{}, errors.New("transient")
	}
	status := broker.StatusAccepted
	if len(m.orderStatus) > 0 {
		status = m.orderStatus[0]
		m.orderStatus = m.orderStatus[1:]
	}
	o := broker.Order{ID: id, Status: status}
	if status == broker.StatusFilled {
		o.FilledQty = 4
		o.FilledAvgPrice = m.filledPrice
	}
	return o, nil
}

func testConfig() Config {
	return Config{
		RiskFraction: 0.05,
		TrailPercent: 5,
		FillWait:     200 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
	}
}

func flatBroker() *mockBroker {
	return &mockBroker{
		positionErr: broker.ErrNoPosition,
		trade:       broker.Trade{Symbol: "AAPL", Price: 120},
		account:     broker.Account{Status: "ACTIVE", BuyingPower: 10000},
		filledPrice: 120.50,
	}
}

func TestOpenPosition_RefusesWhenAlreadyHolding(t *testing.T) {
	mock := flatBroker()
	mock.positionErr = nil
	mock.position = broker.Position{Symbol: "AAPL", Qty: 3}

	exec := NewExecutor(mock, nil, testConfig())
	pos, err := exec.OpenPosition(context.Background(), "AAPL")

	require.NoError(t, err)
	assert.Nil(t, pos, "holding a position is a no-op, not an error")
	assert.Empty(t, mock.submitted, "no order may be submitted while positioned")
}

func TestOpenPosition_FillThenTrailingStop(t *testing.T) {
	mock := flatBroker()
	// Two pending polls before the fill arrives.
	mock.orderStatus = []broker.OrderStatus{broker.StatusAccepted, broker.StatusAccepted, broker.StatusFilled}

	exec := NewExecutor(mock, nil, testConfig())
	pos, err := exec.OpenPosition(context.Background(), "AAPL")

	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, "AAPL", pos.Symbol)
	assert.Equal(t, 4, pos.Qty) // floor(10000*0.05/120)
	assert.InDelta(t, 120.50, pos.EntryPrice, 1e-9)
	assert.InDelta(t, 5, pos.TrailPercent, 1e-9)

	require.Len(t, mock.submitted, 2)
	entry, stop := mock.submitted[0], mock.submitted[1]
	assert.Equal(t, broker.Buy, entry.Side)
	assert.Equal(t, broker.Market, entry.Type)
	assert.Equal(t, broker.GTC, entry.TimeInForce)
	assert.Equal(t, 4, entry.Qty)
	assert.NotEmpty(t, entry.ClientOrderID)

	assert.Equal(t, broker.Sell, stop.Side)
	assert.Equal(t, broker.TrailingStop, stop.Type)
	assert.Equal(t, broker.GTC, stop.TimeInForce)
	assert.Equal(t, 4, stop.Qty)
	assert.InDelta(t, 5, stop.TrailPercent, 1e-9)
}

func TestOpenPosition_FillTimeout(t *testing.T) {
	mock := flatBroker()
	// Never fills: every poll reports accepted.

	exec := NewExecutor(mock, nil, testConfig())
	pos, err := exec.OpenPosition(context.Background(), "AAPL")

	require.ErrorIs(t, err, ErrFillTimeout)
	assert.Nil(t, pos)
	require.Len(t, mock.submitted, 1, "no trailing stop after a timed-out entry")
	assert.Equal(t, broker.Buy, mock.submitted[0].Side)
}

func TestOpenPosition_OrderRejected(t *testing.T) {
	mock := flatBroker()
	mock.orderStatus = []broker.OrderStatus{broker.StatusRejected}

	exec := NewExecutor(mock, nil, testConfig())
	pos, err := exec.OpenPosition(context.Background(), "AAPL")

	require.ErrorIs(t, err, ErrOrderFailed)
	assert.Nil(t, pos)
	require.Len(t, mock.submitted, 1)
}

func TestOpenPosition_QuoteFailureAbortsAttempt(t *testing.T) {
	mock := flatBroker()
	mock.tradeErr = errors.New("quote feed down")

	exec := NewExecutor(mock, nil, testConfig())
	pos, err := exec.OpenPosition(context.Background(), "AAPL")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrFillTimeout)
	assert.Nil(t, pos)
	assert.Empty(t, mock.submitted, "no sizing from a failed quote")
}

func TestOpenPosition_StopFailureKeepsPosition(t *testing.T) {
	mock := flatBroker()
	mock.orderStatus = []broker.OrderStatus{broker.StatusFilled}
	mock.stopErr = errors.New("stop rejected")

	exec := NewExecutor(mock, nil, testConfig())
	pos, err := exec.OpenPosition(context.Background(), "AAPL")

	require.NoError(t, err)
	require.NotNil(t, pos, "filled entry is recorded even when the stop fails")
	require.Len(t, mock.submitted, 1)
}

func TestOpenPosition_SurvivesTransientPollErrors(t *testing.T) {
	mock := flatBroker()
	mock.getOrderErrs = 2
	mock.orderStatus = []broker.OrderStatus{broker.StatusFilled}

	exec := NewExecutor(mock, nil, testConfig())
	pos, err := exec.OpenPosition(context.Background(), "AAPL")

	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.GreaterOrEqual(t, mock.polls, 3)
}

func TestOpenPosition_ContextCancelAbortsWait(t *testing.T) {
	mock := flatBroker()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	exec := NewExecutor(mock, nil, testConfig())
	_, err := exec.OpenPosition(ctx, "AAPL")
	require.ErrorIs(t, err, context.Canceled)
}

func TestOpenPosition_JournalsEntry(t *testing.T) {
	mock := flatBroker()
	mock.orderStatus = []broker.OrderStatus{broker.StatusFilled}

	rec := &recordingJournal{}
	exec := NewExecutor(mock, rec, testConfig())
	_, err := exec.OpenPosition(context.Background(), "AAPL")

	require.NoError(t, err)
	require.Len(t, rec.records, 1)
	assert.Equal(t, journal.Entry, rec.records[0].Side)
	assert.Equal(t, 4, rec.records[0].Qty)
	assert.InDelta(t, 120.50, rec.records[0].Price, 1e-9)
}

type recordingJournal struct {
	records []journal.TradeRecord
}

func (r *recordingJournal) Record(t journal.TradeRecord) error {
	r.records = append(r.records, t)
	return nil
}

func (r *recordingJournal) Close() error { return nil }
