// Package httpapi exposes the JSON endpoints consumed by the marketing site.
// Handlers stay thin: validate input, call a service, shape the response.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/HenryEmmanuel06/dfsworldwide/internal/integrations/nowpay"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/integrations/supabase"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/models"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/services/payments"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/services/shipments"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/stage"
	"github.com/go-chi/chi/v5"
)

type Auth interface {
	SignUp(ctx context.Context, email, password string) (json.RawMessage, error)
	GetUser(ctx context.Context, token string) (supabase.User, error)
}

type Shipments interface {
	CreateTracking(ctx context.Context, in models.TrackingCreateInput) (shipments.CreateResult, error)
	GetTracking(ctx context.Context, trackingID string) (*models.Tracking, stage.Stage, error)
}

type Payments interface {
	Create(ctx context.Context, in payments.CreateInput) (payments.CreateResult, error)
	Status(ctx context.Context, paymentID string) (string, nowpay.Document, error)
	HandleIPN(ctx context.Context, body []byte, header http.Header) error
}

type Profiles interface {
	CreateUserProfile(ctx context.Context, p *models.UserProfile) error
}

// RateLimiter is the fixed-window counter guarding the public lookup.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type Options struct {
	AdminEmail string
	// SiteBaseURL is the fallback origin when a request carries no
	// forwarded-host headers.
	SiteBaseURL string

	LookupRateLimitPerMinute int64
}

type API struct {
	auth      Auth
	shipments Shipments
	payments  Payments
	profiles  Profiles
	limiter   RateLimiter
	opts      Options
}

func New(auth Auth, sh Shipments, pay Payments, profiles Profiles, limiter RateLimiter, opts Options) *API {
	return &API{
		auth:      auth,
		shipments: sh,
		payments:  pay,
		profiles:  profiles,
		limiter:   limiter,
		opts:      opts,
	}
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/api/signup", a.handleSignup)
	r.Get("/api/user", a.handleUser)
	r.Post("/api/tracking", a.handleTrackingCreate)
	r.Get("/api/tracking-get", a.handleTrackingGet)
	r.Post("/api/payment-create", a.handlePaymentCreate)
	r.Get("/api/payment-status", a.handlePaymentStatus)
	r.Post("/api/payment-ipn", a.handlePaymentIPN)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
