package nowpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

const defaultBaseURL = "https://api-sandbox.nowpayments.io/v1"

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreateRequest is the outbound order submitted to the gateway.
type CreateRequest struct {
	PriceAmount      float64 `json:"price_amount"`
	PriceCurrency    string  `json:"price_currency"`
	PayCurrency      string  `json:"pay_currency"`
	OrderID          string  `json:"order_id"`
	OrderDescription string  `json:"order_description"`
	IPNCallbackURL   string  `json:"ipn_callback_url"`
	SuccessURL       string  `json:"success_url"`
	CancelURL        string  `json:"cancel_url"`
}

// UpstreamError carries the gateway's HTTP status and whatever diagnostic the
// response body offered, so handlers can pass both through.
type UpstreamError struct {
	StatusCode int
	Message    string
	Body       Document
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("nowpayments http %d: %s", e.StatusCode, e.Message)
}

// CreatePayment submits an order and returns the raw response document. The
// caller normalizes it; the shape is not trusted here.
func (c *Client) CreatePayment(ctx context.Context, in CreateRequest) (Document, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, errors.Wrap(err, "marshal payment request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	var doc Document
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, errors.Wrapf(err, "decode response (http %d, %q)", resp.StatusCode, snippet(raw, 200))
		}
	}

	if resp.StatusCode/100 != 2 {
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(doc),
			Body:       doc,
		}
	}
	return doc, nil
}

// PaymentStatus looks a payment up by id. The standard path is tried first;
// some deployments only answer the query-parameter form, so that is the
// fallback.
func (c *Client) PaymentStatus(ctx context.Context, paymentID string) (Document, error) {
	doc, err := c.getStatus(ctx, c.baseURL+"/payment/"+url.PathEscape(paymentID))
	if err == nil {
		return doc, nil
	}

	doc, err2 := c.getStatus(ctx, c.baseURL+"/payment?paymentId="+url.QueryEscape(paymentID))
	if err2 == nil {
		return doc, nil
	}
	return nil, err2
}

func (c *Client) getStatus(ctx context.Context, u string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	if resp.StatusCode/100 != 2 {
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("status lookup failed: %s", snippet(raw, 400)),
		}
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	return doc, nil
}

func upstreamMessage(doc Document) string {
	for _, k := range []string{"message", "error", "description"} {
		if s, ok := doc[k].(string); ok && s != "" {
			return s
		}
	}
	return "payment creation failed"
}

func snippet(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
