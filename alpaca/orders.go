package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rustyeddy/trendbot/broker"
)

type orderBody struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	TrailPercent  string `json:"trail_percent,omitempty"`
	ClientOrderID string `json:"client_order_id,omitempty"`
}

type orderResp struct {
	ID             string     `json:"id"`
	ClientOrderID  string     `json:"client_order_id"`
	Symbol         string     `json:"symbol"`
	Qty            string     `json:"qty"`
	Side           string     `json:"side"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	FilledQty      string     `json:"filled_qty"`
	FilledAvgPrice *string    `json:"filled_avg_price"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	FilledAt       *time.Time `json:"filled_at"`
}

func (r orderResp) toOrder() (broker.Order, error) {
	o := broker.Order{
		ID:            r.ID,
		ClientOrderID: r.ClientOrderID,
		Symbol:        r.Symbol,
		Side:          broker.Side(r.Side),
		Type:          broker.OrderType(r.Type),
		Status:        broker.OrderStatus(r.Status),
		SubmittedAt:   r.SubmittedAt,
	}

	var err error
	if o.Qty, err = strconv.Atoi(r.Qty); err != nil {
		return broker.Order{}, fmt.Errorf("parse order qty: %w", err)
	}
	if r.FilledQty != "" {
		if o.FilledQty, err = strconv.Atoi(r.FilledQty); err != nil {
			return broker.Order{}, fmt.Errorf("parse filled qty: %w", err)
		}
	}
	if r.FilledAvgPrice != nil {
		if o.FilledAvgPrice, err = parseFloat(*r.FilledAvgPrice); err != nil {
			return broker.Order{}, fmt.Errorf("parse filled avg price: %w", err)
		}
	}
	if r.FilledAt != nil {
		o.FilledAt = *r.FilledAt
	}
	return o, nil
}

// SubmitOrder places an order and returns the brokerage's initial view of it.
func (c *Client) SubmitOrder(ctx context.Context, req broker.OrderRequest) (broker.Order, error) {
	body := orderBody{
		Symbol:        req.Symbol,
		Qty:           strconv.Itoa(req.Qty),
		Side:          string(req.Side),
		Type:          string(req.Type),
		TimeInForce:   string(req.TimeInForce),
		ClientOrderID: req.ClientOrderID,
	}
	if req.Type == broker.TrailingStop {
		body.TrailPercent = strconv.FormatFloat(req.TrailPercent, 'f', -1, 64)
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return broker.Order{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v2/orders", bytes.NewReader(buf))
	if err != nil {
		return broker.Order{}, err
	}

	var or orderResp
	if err := c.do(httpReq, &or); err != nil {
		return broker.Order{}, fmt.Errorf("submit order %s %s: %w", req.Side, req.Symbol, err)
	}
	return or.toOrder()
}

// GetOrder fetches the current status of a submitted order.
func (c *Client) GetOrder(ctx context.Context, id string) (broker.Order, error) {
	var or orderResp
	if err := c.get(ctx, c.BaseURL+"/v2/orders/"+id, &or); err != nil {
		return broker.Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return or.toOrder()
}
