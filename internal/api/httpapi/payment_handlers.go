package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/HenryEmmanuel06/dfsworldwide/internal/integrations/nowpay"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/services/payments"
	"github.com/pkg/errors"
)

type paymentCreateRequest struct {
	TrackingID   string  `json:"trackingId"`
	Currency     string  `json:"currency"`
	Amount       float64 `json:"amount"`
	CurrencyType string  `json:"currencyType"`
}

func (a *API) handlePaymentCreate(w http.ResponseWriter, r *http.Request) {
	var req paymentCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	res, err := a.payments.Create(r.Context(), payments.CreateInput{
		TrackingID:   req.TrackingID,
		Currency:     req.Currency,
		Amount:       req.Amount,
		CurrencyType: req.CurrencyType,
		BaseURL:      a.requestBaseURL(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrMissingTrackingID),
			errors.Is(err, payments.ErrUnsupportedCurrency),
			errors.Is(err, payments.ErrInvalidAmount):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, nowpay.ErrIncompleteResponse):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			var ue *nowpay.UpstreamError
			if errors.As(err, &ue) {
				writeJSON(w, ue.StatusCode, map[string]any{
					"error":   ue.Message,
					"details": ue.Body,
				})
				return
			}
			slog.Error("payment create failed", "err", err)
			writeError(w, http.StatusBadGateway, "Payment service unavailable")
		}
		return
	}

	out := map[string]any{
		"success":        true,
		"payment":        res.Payment,
		"paymentId":      res.PaymentID,
		"paymentUrl":     res.PaymentURL,
		"payAmount":      res.PayAmount,
		"payCurrency":    res.PayCurrency,
		"walletAddress":  res.WalletAddress,
		"expirationTime": res.ExpirationTime.Format(time.RFC3339),
		"rawResponse":    res.RawResponse,
		"persisted":      res.Persisted,
	}
	if res.Warning != "" {
		out["warning"] = res.Warning
	}
	writeJSON(w, http.StatusOK, out)
}

// requestBaseURL reconstructs the public origin the request arrived on, so
// callback and redirect URLs point back at the right deployment. Proxy
// headers win, then the Origin header, then the configured site origin.
func (a *API) requestBaseURL(r *http.Request) string {
	if host := r.Header.Get("X-Forwarded-Host"); host != "" {
		proto := r.Header.Get("X-Forwarded-Proto")
		if proto == "" {
			proto = "https"
		}
		return proto + "://" + host
	}
	if origin := r.Header.Get("Origin"); origin != "" {
		return origin
	}
	return a.opts.SiteBaseURL
}

func (a *API) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	paymentID := r.URL.Query().Get("paymentId")
	if paymentID == "" {
		writeError(w, http.StatusBadRequest, "Missing paymentId parameter")
		return
	}

	status, doc, err := a.payments.Status(r.Context(), paymentID)
	if err != nil {
		var ue *nowpay.UpstreamError
		if errors.As(err, &ue) {
			writeJSON(w, ue.StatusCode, map[string]any{
				"error":   "Status lookup failed",
				"details": ue.Message,
			})
			return
		}
		slog.Error("payment status failed", "payment_id", paymentID, "err", err)
		writeError(w, http.StatusBadGateway, "Payment service unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"payment_status": status,
		"raw":            doc,
	})
}

func (a *API) handlePaymentIPN(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unreadable body")
		return
	}

	if err := a.payments.HandleIPN(r.Context(), body, r.Header); err != nil {
		slog.Warn("ipn rejected", "err", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
