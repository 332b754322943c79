// Package alpaca implements broker.Broker against the Alpaca trading REST
// API (v2). The bot runs against the paper endpoint unless configured live.
package alpaca

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/trendbot/broker"
)

const (
	// PaperURL is Alpaca's paper-trading environment.
	PaperURL = "https://paper-api.alpaca.markets"
	// LiveURL is Alpaca's live trading environment.
	LiveURL = "https://api.alpaca.markets"
	// DataURL serves market data (bars, latest trades) for both environments.
	DataURL = "https://data.alpaca.markets"
)

// Client talks to the Alpaca REST API. The exported fields exist so tests can
// point it at an httptest server.
//
// Client implements broker.Broker.
type Client struct {
	BaseURL string
	DataURL string
	Key     string
	Secret  string
	HTTP    *http.Client
}

var _ broker.Broker = (*Client)(nil)

// NewClient builds a client with production endpoints and a 30s HTTP timeout.
func NewClient(key, secret string, paper bool) *Client {
	baseURL := LiveURL
	if paper {
		baseURL = PaperURL
	}

	return &Client{
		BaseURL: baseURL,
		DataURL: DataURL,
		Key:     key,
		Secret:  secret,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError carries the status and body excerpt of a non-2xx response.
func apiError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
	return fmt.Errorf("alpaca %s: http %d: %s", op, resp.StatusCode, strings.TrimSpace(string(b)))
}

func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("APCA-API-KEY-ID", c.Key)
	req.Header.Set("APCA-API-SECRET-KEY", c.Secret)
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(req.URL.Path, resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var errNotFound = errors.New("alpaca: not found")

type accountResp struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Currency    string `json:"currency"`
	BuyingPower string `json:"buying_power"`
}

// GetAccount returns account status and buying power.
func (c *Client) GetAccount(ctx context.Context) (broker.Account, error) {
	var ar accountResp
	if err := c.get(ctx, c.BaseURL+"/v2/account", &ar); err != nil {
		return broker.Account{}, fmt.Errorf("get account: %w", err)
	}

	bp, err := parseFloat(ar.BuyingPower)
	if err != nil {
		return broker.Account{}, fmt.Errorf("parse buying power: %w", err)
	}

	return broker.Account{
		ID:          ar.ID,
		Status:      ar.Status,
		Currency:    ar.Currency,
		BuyingPower: bp,
	}, nil
}

type clockResp struct {
	Timestamp time.Time `json:"timestamp"`
	IsOpen    bool      `json:"is_open"`
	NextOpen  time.Time `json:"next_open"`
	NextClose time.Time `json:"next_close"`
}

// GetClock returns the market session clock.
func (c *Client) GetClock(ctx context.Context) (broker.Clock, error) {
	var cr clockResp
	if err := c.get(ctx, c.BaseURL+"/v2/clock", &cr); err != nil {
		return broker.Clock{}, fmt.Errorf("get clock: %w", err)
	}
	return broker.Clock{
		Timestamp: cr.Timestamp,
		IsOpen:    cr.IsOpen,
		NextOpen:  cr.NextOpen,
		NextClose: cr.NextClose,
	}, nil
}

type latestTradeResp struct {
	Symbol string `json:"symbol"`
	Trade  struct {
		Price float64   `json:"p"`
		Time  time.Time `json:"t"`
	} `json:"trade"`
}

// GetLatestTrade returns the most recent trade print for the symbol.
func (c *Client) GetLatestTrade(ctx context.Context, symbol string) (broker.Trade, error) {
	url := fmt.Sprintf("%s/v2/stocks/%s/trades/latest", c.DataURL, symbol)
	var tr latestTradeResp
	if err := c.get(ctx, url, &tr); err != nil {
		return broker.Trade{}, fmt.Errorf("latest trade %s: %w", symbol, err)
	}
	return broker.Trade{
		Symbol: symbol,
		Price:  tr.Trade.Price,
		Time:   tr.Trade.Time,
	}, nil
}

type positionResp struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	AvgEntryPrice string `json:"avg_entry_price"`
	MarketValue   string `json:"market_value"`
}

// GetPosition returns the open position for the symbol. A 404 from the API
// maps to broker.ErrNoPosition, which callers treat as flat.
func (c *Client) GetPosition(ctx context.Context, symbol string) (broker.Position, error) {
	var pr positionResp
	err := c.get(ctx, c.BaseURL+"/v2/positions/"+symbol, &pr)
	if errors.Is(err, errNotFound) {
		return broker.Position{}, broker.ErrNoPosition
	}
	if err != nil {
		return broker.Position{}, fmt.Errorf("get position %s: %w", symbol, err)
	}

	qty, err := strconv.Atoi(pr.Qty)
	if err != nil {
		return broker.Position{}, fmt.Errorf("parse position qty: %w", err)
	}
	avg, err := parseFloat(pr.AvgEntryPrice)
	if err != nil {
		return broker.Position{}, fmt.Errorf("parse avg entry: %w", err)
	}
	mv, err := parseFloat(pr.MarketValue)
	if err != nil {
		return broker.Position{}, fmt.Errorf("parse market value: %w", err)
	}

	return broker.Position{
		Symbol:      pr.Symbol,
		Qty:         qty,
		AvgEntry:    avg,
		MarketValue: mv,
	}, nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
