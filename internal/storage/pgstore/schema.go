package pgstore

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS tracking (
  id BIGSERIAL PRIMARY KEY,
  tracking_id TEXT NOT NULL UNIQUE,
  created_by TEXT NOT NULL,
  from_location TEXT NOT NULL,
  to_location TEXT NOT NULL,
  port1 TEXT NOT NULL,
  port2 TEXT NOT NULL,
  port3 TEXT NOT NULL,
  port4 TEXT NOT NULL,
  status TEXT NOT NULL,
  status_message TEXT NOT NULL,
  recipient_name TEXT NOT NULL,
  recipient_address TEXT NOT NULL,
  recipient_email TEXT NOT NULL,
  sender_fullname TEXT NOT NULL DEFAULT '',
  shipment_description TEXT NOT NULL DEFAULT '',
  delivery_date TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_tracking_id_lower ON tracking(LOWER(tracking_id))`,
		`
CREATE TABLE IF NOT EXISTS payments (
  id BIGSERIAL PRIMARY KEY,
  payment_id VARCHAR(255) NOT NULL UNIQUE,
  order_id VARCHAR(255) NOT NULL,
  tracking_id TEXT NOT NULL,
  price_amount DECIMAL(20, 8) NOT NULL,
  price_currency VARCHAR(10) NOT NULL DEFAULT 'usd',
  pay_amount DECIMAL(20, 8) NULL,
  pay_currency VARCHAR(10) NOT NULL,
  wallet_address VARCHAR(255) NULL,
  payment_status VARCHAR(50) NOT NULL DEFAULT 'waiting',
  payment_url TEXT NULL,
  expiration_time TIMESTAMPTZ NULL,
  raw_response JSONB NULL,
  ipn_received BOOLEAN NOT NULL DEFAULT FALSE,
  ipn_received_at TIMESTAMPTZ NULL,
  ipn_data JSONB NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_tracking_id ON payments(tracking_id)`,
		`
CREATE TABLE IF NOT EXISTS users_info (
  id BIGSERIAL PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  state TEXT NOT NULL DEFAULT '',
  country TEXT NOT NULL DEFAULT '',
  street TEXT NOT NULL DEFAULT '',
  house_number TEXT NOT NULL DEFAULT '',
  full_address TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
