// Package payment is a client for the Crypto Pay invoice API.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"tattoo-market/internal/models"
	"tattoo-market/internal/util"
)

const (
	DefaultBaseURL = "https://pay.crypt.bot/api"
	tokenHeader    = "Crypto-Pay-API-Token"
)

// InvoiceStatus is the gateway's view of an invoice, collapsed to what callers act on
type InvoiceStatus string

// Invoice statuses
const (
	StatusPaid   InvoiceStatus = "paid"
	StatusUnpaid InvoiceStatus = "unpaid"
	StatusOther  InvoiceStatus = "other"
)

// Invoice is a created invoice
type Invoice struct {
	ID     int64
	PayURL string
}

// Client issues and polls invoices. It holds no per-call state.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new payment gateway client
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     util.GetLogger(),
	}
}

type apiResponse struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

type createInvoiceRequest struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

type invoiceResult struct {
	InvoiceID     int64  `json:"invoice_id"`
	Status        string `json:"status"`
	PayURL        string `json:"pay_url"`
	BotInvoiceURL string `json:"bot_invoice_url"`
}

type invoicesResult struct {
	Items []invoiceResult `json:"items"`
}

// CreateInvoice issues an invoice for amount of asset
func (c *Client) CreateInvoice(ctx context.Context, asset, amount string) (*Invoice, error) {
	ctx, span := util.StartSpan(ctx, "PaymentClient.CreateInvoice")
	defer span.End()

	body, err := json.Marshal(createInvoiceRequest{Asset: asset, Amount: amount})
	if err != nil {
		return nil, err
	}

	var result invoiceResult
	if err := c.call(ctx, http.MethodPost, "createInvoice", nil, body, &result); err != nil {
		util.RecordError(span, err)
		return nil, err
	}

	payURL := result.PayURL
	if payURL == "" {
		payURL = result.BotInvoiceURL
	}

	c.logger.Info("invoice created",
		zap.Int64("invoice_id", result.InvoiceID),
		zap.String("asset", asset),
		zap.String("amount", amount))

	return &Invoice{ID: result.InvoiceID, PayURL: payURL}, nil
}

// GetInvoiceStatus polls a single invoice
func (c *Client) GetInvoiceStatus(ctx context.Context, invoiceID int64) (InvoiceStatus, error) {
	ctx, span := util.StartSpan(ctx, "PaymentClient.GetInvoiceStatus", attribute.Int64("invoice_id", invoiceID))
	defer span.End()

	params := url.Values{}
	params.Set("invoice_ids", strconv.FormatInt(invoiceID, 10))

	var result invoicesResult
	if err := c.call(ctx, http.MethodGet, "getInvoices", params, nil, &result); err != nil {
		util.RecordError(span, err)
		return "", err
	}

	for _, item := range result.Items {
		if item.InvoiceID == invoiceID {
			return classify(item.Status), nil
		}
	}
	return StatusOther, nil
}

func classify(status string) InvoiceStatus {
	switch status {
	case "paid":
		return StatusPaid
	case "active":
		return StatusUnpaid
	default:
		return StatusOther
	}
}

func (c *Client) call(ctx context.Context, method, path string, params url.Values, body []byte, out interface{}) error {
	start := time.Now()
	defer func() {
		util.PaymentGatewayLatency.WithLabelValues(path).Observe(time.Since(start).Seconds())
	}()

	endpoint := c.baseURL + "/" + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrPaymentGatewayUnavailable, err)
	}
	req.Header.Set(tokenHeader, c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("payment gateway request failed", zap.String("method", path), zap.Error(err))
		return fmt.Errorf("%w: %v", models.ErrPaymentGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("payment gateway returned non-200",
			zap.String("method", path),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: %s returned %d", models.ErrPaymentGatewayUnavailable, path, resp.StatusCode)
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: decode %s: %v", models.ErrPaymentGatewayUnavailable, path, err)
	}
	if !envelope.OK {
		name := "unknown"
		if envelope.Error != nil {
			name = envelope.Error.Name
		}
		return fmt.Errorf("%w: %s: %s", models.ErrPaymentGatewayUnavailable, path, name)
	}

	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("%w: decode %s result: %v", models.ErrPaymentGatewayUnavailable, path, err)
	}
	return nil
}
