package pgstore

import (
	"context"
	"time"

	"github.com/HenryEmmanuel06/dfsworldwide/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

func (s *Storage) CreatePayment(ctx context.Context, p *models.Payment) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO payments (
  payment_id, order_id, tracking_id,
  price_amount, price_currency,
  pay_amount, pay_currency,
  wallet_address, payment_status, payment_url,
  expiration_time, raw_response
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		p.PaymentID, p.OrderID, p.TrackingID,
		p.PriceAmount, p.PriceCurrency,
		p.PayAmount, p.PayCurrency,
		p.WalletAddress, p.PaymentStatus, p.PaymentURL,
		p.ExpirationTime, p.RawResponse,
	)
	return errors.Wrap(err, "insert payment")
}

// ApplyIPN records a gateway status callback against the payment row. The row
// may be missing when the original best-effort insert failed; that is not an
// error here, the update simply has nowhere to land.
func (s *Storage) ApplyIPN(ctx context.Context, paymentID, status string, receivedAt time.Time, ipnData []byte) error {
	_, err := s.db.Exec(ctx, `
UPDATE payments
SET payment_status = $2,
    ipn_received = TRUE,
    ipn_received_at = $3,
    ipn_data = $4
WHERE payment_id = $1
`, paymentID, status, receivedAt, ipnData)
	return errors.Wrap(err, "apply ipn")
}

func (s *Storage) GetPaymentByID(ctx context.Context, paymentID string) (*models.Payment, error) {
	var p models.Payment
	err := s.db.QueryRow(ctx, `
SELECT
  payment_id, order_id, tracking_id,
  price_amount, price_currency,
  pay_amount, pay_currency,
  wallet_address, payment_status, payment_url,
  expiration_time, ipn_received, ipn_received_at,
  created_at
FROM payments
WHERE payment_id = $1
`, paymentID).Scan(
		&p.PaymentID, &p.OrderID, &p.TrackingID,
		&p.PriceAmount, &p.PriceCurrency,
		&p.PayAmount, &p.PayCurrency,
		&p.WalletAddress, &p.PaymentStatus, &p.PaymentURL,
		&p.ExpirationTime, &p.IPNReceived, &p.IPNReceivedAt,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select payment")
	}
	return &p, nil
}
