package httpapi

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/HenryEmmanuel06/dfsworldwide/internal/models"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/services/shipments"
	"github.com/pkg/errors"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type trackingCreateRequest struct {
	From                string `json:"from"`
	To                  string `json:"to"`
	Port1               string `json:"port1"`
	Port2               string `json:"port2"`
	Port3               string `json:"port3"`
	Port4               string `json:"port4"`
	Status              string `json:"status"`
	StatusMessage       string `json:"status_message"`
	RecipientName       string `json:"recipient_name"`
	RecipientAddress    string `json:"recipient_address"`
	RecipientEmail      string `json:"recipient_email"`
	SenderFullname      string `json:"sender_fullname"`
	ShipmentDescription string `json:"shipment_description"`
	DeliveryDate        string `json:"delivery_date"`
}

func (a *API) handleTrackingCreate(w http.ResponseWriter, r *http.Request) {
	u, err := a.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if a.opts.AdminEmail == "" || !strings.EqualFold(u.Email, a.opts.AdminEmail) {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}

	var req trackingCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	missing := missingTrackingFields(req)
	if len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Missing required fields",
			"missing": missing,
		})
		return
	}
	if !emailRe.MatchString(req.RecipientEmail) {
		writeError(w, http.StatusBadRequest, "Invalid recipient_email")
		return
	}
	delivery, err := parseDeliveryDate(req.DeliveryDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid delivery_date")
		return
	}

	res, err := a.shipments.CreateTracking(r.Context(), models.TrackingCreateInput{
		CreatedBy:           u.ID,
		FromLocation:        req.From,
		ToLocation:          req.To,
		Port1:               req.Port1,
		Port2:               req.Port2,
		Port3:               req.Port3,
		Port4:               req.Port4,
		Status:              req.Status,
		StatusMessage:       req.StatusMessage,
		RecipientName:       req.RecipientName,
		RecipientAddress:    req.RecipientAddress,
		RecipientEmail:      req.RecipientEmail,
		SenderFullname:      req.SenderFullname,
		ShipmentDescription: req.ShipmentDescription,
		DeliveryDate:        delivery,
	})
	if err != nil {
		slog.Error("tracking create failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Could not create tracking")
		return
	}

	out := map[string]any{
		"tracking_id": res.TrackingID,
		"persisted":   res.Persisted,
	}
	if res.Warning != "" {
		out["warning"] = res.Warning
	}
	writeJSON(w, http.StatusOK, out)
}

func missingTrackingFields(req trackingCreateRequest) []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"from", req.From},
		{"to", req.To},
		{"port1", req.Port1},
		{"port2", req.Port2},
		{"port3", req.Port3},
		{"port4", req.Port4},
		{"status", req.Status},
		{"status_message", req.StatusMessage},
		{"recipient_name", req.RecipientName},
		{"recipient_address", req.RecipientAddress},
		{"recipient_email", req.RecipientEmail},
		{"delivery_date", req.DeliveryDate},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func parseDeliveryDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unparseable date %q", s)
}

func (a *API) handleTrackingGet(w http.ResponseWriter, r *http.Request) {
	tid := r.URL.Query().Get("tid")
	if tid == "" {
		tid = r.URL.Query().Get("id")
	}
	if strings.TrimSpace(tid) == "" {
		writeError(w, http.StatusBadRequest, "Missing tid parameter")
		return
	}

	if a.limiter != nil && a.opts.LookupRateLimitPerMinute > 0 {
		key := "lookup:" + clientIP(r)
		ok, _, err := a.limiter.Allow(r.Context(), key, a.opts.LookupRateLimitPerMinute, time.Minute)
		if err != nil {
			slog.Error("rate limiter failed, allowing request", "err", err)
		} else if !ok {
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
	}

	t, st, err := a.shipments.GetTracking(r.Context(), tid)
	if errors.Is(err, shipments.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Tracking ID not found")
		return
	}
	if err != nil {
		slog.Error("tracking lookup failed", "tid", tid, "err", err)
		writeError(w, http.StatusInternalServerError, "Lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tracking": t,
		"stage":    st,
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
