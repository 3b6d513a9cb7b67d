package shipments

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/HenryEmmanuel06/dfsworldwide/internal/cache"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/mail"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/models"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/stage"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/storage/pgstore"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/trackid"
	"github.com/pkg/errors"
)

// ErrNotFound mirrors the storage sentinel so handlers need not import the
// storage package.
var ErrNotFound = pgstore.ErrNotFound

type Repository interface {
	CreateTracking(ctx context.Context, trackingID string, in models.TrackingCreateInput) (*models.Tracking, error)
	GetTrackingByID(ctx context.Context, trackingID string) (*models.Tracking, error)
}

type Mailer interface {
	Send(m mail.Message) error
}

type Service struct {
	repo        Repository
	cache       cache.BytesCache
	mailer      Mailer
	siteBaseURL string
	currentTTL  time.Duration
}

func New(repo Repository, c cache.BytesCache, mailer Mailer, siteBaseURL string, currentTTL time.Duration) *Service {
	return &Service{
		repo:        repo,
		cache:       c,
		mailer:      mailer,
		siteBaseURL: strings.TrimRight(siteBaseURL, "/"),
		currentTTL:  currentTTL,
	}
}

// CreateResult reflects the degradation contract: a failed insert does not
// fail the request, it comes back as persisted=false with the reason.
type CreateResult struct {
	TrackingID string
	Tracking   *models.Tracking
	Persisted  bool
	Warning    string
}

// CreateTracking generates the tracking ID, persists the record and fires the
// notification email. Only the generation itself is fatal; persistence and
// email degrade.
func (s *Service) CreateTracking(ctx context.Context, in models.TrackingCreateInput) (CreateResult, error) {
	if in.DeliveryDate.IsZero() {
		return CreateResult{}, errors.New("delivery_date is required")
	}

	now := time.Now()
	id := trackid.New(now)

	res := CreateResult{TrackingID: id, Persisted: true}

	t, err := s.repo.CreateTracking(ctx, id, in)
	if err != nil {
		slog.Error("tracking insert failed", "tracking_id", id, "err", err)
		res.Persisted = false
		res.Warning = err.Error()
		rec := modelFromInput(id, in, now)
		t = &rec
	}
	res.Tracking = t

	s.notifyRecipient(t)

	return res, nil
}

// GetTracking serves the public lookup: cache-aside on the lowercased ID, with
// the progress stage computed fresh on every read.
func (s *Service) GetTracking(ctx context.Context, trackingID string) (*models.Tracking, stage.Stage, error) {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return nil, stage.Stage{}, errors.New("tracking id is required")
	}

	var t *models.Tracking

	key := currentKey(trackingID)
	if s.cache != nil && s.currentTTL > 0 {
		if b, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var cached models.Tracking
			if json.Unmarshal(b, &cached) == nil {
				t = &cached
			}
		}
	}

	if t == nil {
		var err error
		t, err = s.repo.GetTrackingByID(ctx, trackingID)
		if err != nil {
			return nil, stage.Stage{}, err
		}
		if s.cache != nil && s.currentTTL > 0 {
			b, _ := json.Marshal(t)
			_ = s.cache.Set(ctx, key, b, s.currentTTL)
		}
	}

	st := stage.Compute(stageInput(t), time.Now())
	return t, st, nil
}

func (s *Service) notifyRecipient(t *models.Tracking) {
	if s.mailer == nil || t.RecipientEmail == "" {
		return
	}
	link := s.siteBaseURL + "/tracking?tid=" + t.TrackingID
	msg := mail.Message{
		To:      t.RecipientEmail,
		Subject: "Your shipment " + t.TrackingID,
		Text: fmt.Sprintf(
			"Hello %s,\n\nA shipment from %s to %s has been registered for you.\nTracking ID: %s\n\nFollow it here: %s\n",
			t.RecipientName, t.FromLocation, t.ToLocation, t.TrackingID, link,
		),
		HTML: fmt.Sprintf(
			`<p>Hello %s,</p><p>A shipment from %s to %s has been registered for you.</p><p>Tracking ID: <b>%s</b></p><p><a href="%s">Track your shipment</a></p>`,
			t.RecipientName, t.FromLocation, t.ToLocation, t.TrackingID, link,
		),
	}
	if err := s.mailer.Send(msg); err != nil {
		slog.Error("notification email failed", "tracking_id", t.TrackingID, "err", err)
	}
}

func stageInput(t *models.Tracking) stage.Input {
	in := stage.Input{
		TrackingID:    t.TrackingID,
		Status:        t.Status,
		StatusMessage: t.StatusMessage,
	}
	if !t.CreatedAt.IsZero() {
		c := t.CreatedAt
		in.CreatedAt = &c
	}
	if !t.DeliveryDate.IsZero() {
		d := t.DeliveryDate
		in.DeliveryDate = &d
	}
	return in
}

func modelFromInput(id string, in models.TrackingCreateInput, now time.Time) models.Tracking {
	return models.Tracking{
		TrackingID:          id,
		CreatedBy:           in.CreatedBy,
		FromLocation:        in.FromLocation,
		ToLocation:          in.ToLocation,
		Port1:               in.Port1,
		Port2:               in.Port2,
		Port3:               in.Port3,
		Port4:               in.Port4,
		Status:              in.Status,
		StatusMessage:       in.StatusMessage,
		RecipientName:       in.RecipientName,
		RecipientAddress:    in.RecipientAddress,
		RecipientEmail:      in.RecipientEmail,
		SenderFullname:      in.SenderFullname,
		ShipmentDescription: in.ShipmentDescription,
		DeliveryDate:        in.DeliveryDate,
		CreatedAt:           now,
	}
}

func currentKey(trackingID string) string {
	return "tracking:" + strings.ToLower(trackingID) + ":current"
}
