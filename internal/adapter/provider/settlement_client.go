package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ramphq/rampcore/internal/domain"
	"github.com/ramphq/rampcore/internal/usecase"
)

// Client implements usecase.SettlementProvider against the offramp
// provider's HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient constructs a provider client with sane defaults.
func NewClient(baseURL, apiKey string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// createOrderRequest is the wire shape of an order creation call. Amounts
// travel as decimal strings, never floats.
type createOrderRequest struct {
	UserID    string `json:"user_id"`
	USDAmount string `json:"usd_amount"`
	Token     string `json:"token"`
	Network   string `json:"network"`
}

type settlementPayload struct {
	Amount string `json:"amount"`
	Rate   string `json:"rate"`
}

type orderPayload struct {
	OrderID     string              `json:"order_id"`
	Status      string              `json:"status"`
	Amount      string              `json:"amount,omitempty"`
	Rate        string              `json:"rate,omitempty"`
	TxHash      string              `json:"tx_hash,omitempty"`
	Settlements []settlementPayload `json:"settlements,omitempty"`
}

type ratePayload struct {
	Token string `json:"token"`
	Rate  string `json:"rate"`
}

// CreateOrder opens a settlement order with the provider.
func (c *Client) CreateOrder(ctx context.Context, params usecase.CreateOrderParams) (*usecase.ProviderOrder, error) {
	body := createOrderRequest{
		UserID:    params.UserID,
		USDAmount: params.USDAmount.String(),
		Token:     params.Token,
		Network:   params.Network,
	}

	var payload orderPayload
	if err := c.do(ctx, http.MethodPost, "/v1/orders", body, &payload); err != nil {
		return nil, err
	}

	return payloadToOrder(payload)
}

// GetOrderStatus fetches the provider's current view of an order.
func (c *Client) GetOrderStatus(ctx context.Context, orderID string) (*usecase.ProviderOrder, error) {
	var payload orderPayload
	if err := c.do(ctx, http.MethodGet, "/v1/orders/"+orderID, nil, &payload); err != nil {
		return nil, err
	}

	return payloadToOrder(payload)
}

// Quote fetches the provider's indicative fiat rate for a token.
func (c *Client) Quote(ctx context.Context, token string) (decimal.Decimal, error) {
	var payload ratePayload
	if err := c.do(ctx, http.MethodGet, "/v1/rates/"+token, nil, &payload); err != nil {
		return decimal.Zero, err
	}

	rate, err := decimal.NewFromString(payload.Rate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: provider returned %q", domain.ErrRateUnavailable, payload.Rate)
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: provider returned %s", domain.ErrRateUnavailable, rate)
	}

	return rate, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.logger.Warn().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("provider request failed")
		return fmt.Errorf("provider %s %s failed: status=%d", method, path, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func payloadToOrder(payload orderPayload) (*usecase.ProviderOrder, error) {
	order := &usecase.ProviderOrder{
		OrderID: payload.OrderID,
		Status:  mapStatus(payload.Status),
		TxHash:  payload.TxHash,
	}

	if payload.Amount != "" {
		amount, err := decimal.NewFromString(payload.Amount)
		if err != nil {
			return nil, fmt.Errorf("provider order %s has bad amount %q", payload.OrderID, payload.Amount)
		}
		order.Amount = amount
	}

	if payload.Rate != "" {
		rate, err := decimal.NewFromString(payload.Rate)
		if err != nil {
			return nil, fmt.Errorf("provider order %s has bad rate %q", payload.OrderID, payload.Rate)
		}
		order.Rate = rate
	}

	for _, s := range payload.Settlements {
		amount, err := decimal.NewFromString(s.Amount)
		if err != nil {
			return nil, fmt.Errorf("provider order %s has bad settlement amount %q", payload.OrderID, s.Amount)
		}
		rate, err := decimal.NewFromString(s.Rate)
		if err != nil {
			return nil, fmt.Errorf("provider order %s has bad settlement rate %q", payload.OrderID, s.Rate)
		}
		order.Settlements = append(order.Settlements, domain.Settlement{Amount: amount, Rate: rate})
	}

	return order, nil
}

// mapStatus normalizes the provider's status vocabulary onto the local one.
// Unknown statuses pass through untouched so the poll loop can surface them.
func mapStatus(status string) domain.OrderStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "pending", "created", "awaiting_deposit":
		return domain.OrderStatusPending
	case "processing", "confirming":
		return domain.OrderStatusProcessing
	case "fulfilled", "paid_out":
		return domain.OrderStatusFulfilled
	case "validated":
		return domain.OrderStatusValidated
	case "settled", "completed":
		return domain.OrderStatusSettled
	case "refunded":
		return domain.OrderStatusRefunded
	case "failed", "expired":
		return domain.OrderStatusFailed
	}

	return domain.OrderStatus(status)
}
