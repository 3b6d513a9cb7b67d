package httpapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/HenryEmmanuel06/dfsworldwide/internal/integrations/nowpay"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/models"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/services/payments"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// Fakes for driving the real payments service through the handler.

type stubGateway struct {
	in  nowpay.CreateRequest
	out nowpay.Document
	err error
}

func (g *stubGateway) CreatePayment(ctx context.Context, in nowpay.CreateRequest) (nowpay.Document, error) {
	g.in = in
	return g.out, g.err
}

func (g *stubGateway) PaymentStatus(ctx context.Context, paymentID string) (nowpay.Document, error) {
	return g.out, g.err
}

type stubRepo struct {
	createErr error
}

func (r *stubRepo) CreatePayment(ctx context.Context, p *models.Payment) error { return r.createErr }
func (r *stubRepo) ApplyIPN(ctx context.Context, paymentID, status string, receivedAt time.Time, ipnData []byte) error {
	return nil
}
func (r *stubRepo) GetTrackingByID(ctx context.Context, trackingID string) (*models.Tracking, error) {
	return nil, errors.New("not used")
}

func paymentCreateHandler(gw *stubGateway, repo *stubRepo) http.Handler {
	svc := payments.New(gw, repo, nil, nil, "secret", "payments.status")
	return newTestAPI(nil, nil, svc, nil, nil)
}

func TestPaymentCreate_EndToEnd(t *testing.T) {
	gw := &stubGateway{out: nowpay.Document{
		"pay_url":      "https://pay/1",
		"id":           "abc",
		"pay_amount":   0.002,
		"pay_currency": "btc",
	}}
	h := paymentCreateHandler(gw, &stubRepo{})

	body := `{"trackingId":"DFS-1","currency":"BTC","amount":100,"currencyType":"USD"}`
	w, out := doJSON(t, h, http.MethodPost, "/api/payment-create", body, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, out["success"])
	require.Equal(t, "abc", out["paymentId"])
	require.Equal(t, "https://pay/1", out["paymentUrl"])
	require.Equal(t, 0.002, out["payAmount"])
	require.Equal(t, "btc", out["payCurrency"])
	require.Equal(t, true, out["persisted"])

	require.Equal(t, float64(100), gw.in.PriceAmount)
	require.Equal(t, "usd", gw.in.PriceCurrency)
	require.Equal(t, "btc", gw.in.PayCurrency)
	require.Equal(t, "https://dfs.example/api/payment-ipn", gw.in.IPNCallbackURL)
}

func TestPaymentCreate_InsertFailureStillSucceeds(t *testing.T) {
	gw := &stubGateway{out: nowpay.Document{
		"pay_url": "https://pay/1", "id": "abc",
	}}
	h := paymentCreateHandler(gw, &stubRepo{createErr: errors.New("db down")})

	body := `{"trackingId":"DFS-1","currency":"BTC","amount":100,"currencyType":"USD"}`
	w, out := doJSON(t, h, http.MethodPost, "/api/payment-create", body, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, out["success"])
	require.Equal(t, false, out["persisted"])
	require.Contains(t, out["warning"], "db down")
}

func TestPaymentCreate_BadCurrency(t *testing.T) {
	h := paymentCreateHandler(&stubGateway{}, &stubRepo{})

	body := `{"trackingId":"DFS-1","currency":"DOGE","amount":100}`
	w, _ := doJSON(t, h, http.MethodPost, "/api/payment-create", body, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentCreate_UpstreamStatusPassedThrough(t *testing.T) {
	gw := &stubGateway{err: &nowpay.UpstreamError{StatusCode: 403, Message: "Invalid api key"}}
	h := paymentCreateHandler(gw, &stubRepo{})

	body := `{"trackingId":"DFS-1","currency":"BTC","amount":100}`
	w, out := doJSON(t, h, http.MethodPost, "/api/payment-create", body, nil)
	require.Equal(t, 403, w.Code)
	require.Equal(t, "Invalid api key", out["error"])
}

func TestPaymentCreate_ForwardedHostWinsOverConfig(t *testing.T) {
	gw := &stubGateway{out: nowpay.Document{"pay_url": "https://pay/1", "id": "abc"}}
	h := paymentCreateHandler(gw, &stubRepo{})

	header := http.Header{}
	header.Set("X-Forwarded-Host", "dfsworldwide.com")
	header.Set("X-Forwarded-Proto", "https")

	body := `{"trackingId":"DFS-1","currency":"BTC","amount":100}`
	w, _ := doJSON(t, h, http.MethodPost, "/api/payment-create", body, header)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "https://dfsworldwide.com/api/payment-ipn", gw.in.IPNCallbackURL)
}
