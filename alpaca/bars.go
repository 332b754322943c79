package alpaca

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rustyeddy/trendbot/broker"
	"github.com/rustyeddy/trendbot/market"
)

type apiBar struct {
	Time   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume float64   `json:"v"`
}

type barsResp struct {
	Symbol        string   `json:"symbol"`
	Bars          []apiBar `json:"bars"`
	NextPageToken *string  `json:"next_page_token"`
}

// GetBars fetches daily bars for the requested window, following pagination
// until the window or the limit is exhausted. Bars come back oldest first.
func (c *Client) GetBars(ctx context.Context, req broker.BarsRequest) ([]market.Bar, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("get bars: symbol is required")
	}

	params := url.Values{}
	params.Set("timeframe", "1Day")
	params.Set("adjustment", "raw")
	if !req.Start.IsZero() {
		params.Set("start", req.Start.UTC().Format(time.RFC3339))
	}
	if !req.End.IsZero() {
		params.Set("end", req.End.UTC().Format(time.RFC3339))
	}
	if req.Limit > 0 {
		params.Set("limit", strconv.Itoa(req.Limit))
	}

	var bars []market.Bar
	pageToken := ""
	for {
		if pageToken != "" {
			params.Set("page_token", pageToken)
		}
		apiURL := fmt.Sprintf("%s/v2/stocks/%s/bars?%s", c.DataURL, req.Symbol, params.Encode())

		var br barsResp
		if err := c.get(ctx, apiURL, &br); err != nil {
			return nil, fmt.Errorf("get bars %s: %w", req.Symbol, err)
		}

		for _, b := range br.Bars {
			bars = append(bars, market.Bar{
				Time:   b.Time,
				Open:   b.Open,
				High:   b.High,
				Low:    b.Low,
				Close:  b.Close,
				Volume: b.Volume,
			})
		}

		if br.NextPageToken == nil || *br.NextPageToken == "" {
			break
		}
		if req.Limit > 0 && len(bars) >= req.Limit {
			bars = bars[:req.Limit]
			break
		}
		pageToken = *br.NextPageToken
	}

	return bars, nil
}
