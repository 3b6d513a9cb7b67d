package pgstore

import (
	"context"
	"time"

	"github.com/HenryEmmanuel06/dfsworldwide/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

func (s *Storage) CreateTracking(ctx context.Context, trackingID string, in models.TrackingCreateInput) (*models.Tracking, error) {
	var createdAt time.Time
	err := s.db.QueryRow(ctx, `
INSERT INTO tracking (
  tracking_id, created_by,
  from_location, to_location,
  port1, port2, port3, port4,
  status, status_message,
  recipient_name, recipient_address, recipient_email,
  sender_fullname, shipment_description,
  delivery_date
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
RETURNING created_at
`,
		trackingID, in.CreatedBy,
		in.FromLocation, in.ToLocation,
		in.Port1, in.Port2, in.Port3, in.Port4,
		in.Status, in.StatusMessage,
		in.RecipientName, in.RecipientAddress, in.RecipientEmail,
		in.SenderFullname, in.ShipmentDescription,
		in.DeliveryDate,
	).Scan(&createdAt)
	if err != nil {
		return nil, errors.Wrap(err, "insert tracking")
	}

	return &models.Tracking{
		TrackingID:          trackingID,
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
		CreatedAt:           createdAt,
	}, nil
}

// GetTrackingByID matches case-insensitively: the public lookup form accepts
// IDs however the recipient typed them.
func (s *Storage) GetTrackingByID(ctx context.Context, trackingID string) (*models.Tracking, error) {
	var t models.Tracking
	err := s.db.QueryRow(ctx, `
SELECT
  tracking_id, created_by,
  from_location, to_location,
  port1, port2, port3, port4,
  status, status_message,
  recipient_name, recipient_address, recipient_email,
  sender_fullname, shipment_description,
  delivery_date, created_at
FROM tracking
WHERE LOWER(tracking_id) = LOWER($1)
`, trackingID).Scan(
		&t.TrackingID, &t.CreatedBy,
		&t.FromLocation, &t.ToLocation,
		&t.Port1, &t.Port2, &t.Port3, &t.Port4,
		&t.Status, &t.StatusMessage,
		&t.RecipientName, &t.RecipientAddress, &t.RecipientEmail,
		&t.SenderFullname, &t.ShipmentDescription,
		&t.DeliveryDate, &t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select tracking")
	}
	return &t, nil
}
