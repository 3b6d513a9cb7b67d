package messages

import (
	"encoding/json"
	"time"
)

// PaymentStatusChanged is published by the IPN handler after signature
// verification and consumed by the API process, which applies the transition
// to the payments table. EventID makes redelivery detectable downstream.
type PaymentStatusChanged struct {
	EventID    string `json:"event_id"`
	PaymentID  string `json:"payment_id"`
	OrderID    string `json:"order_id"`
	TrackingID string `json:"tracking_id,omitempty"`

	Status string `json:"status"`

	PayAmount   *float64 `json:"pay_amount,omitempty"`
	PayCurrency string   `json:"pay_currency,omitempty"`

	ReceivedAt time.Time `json:"received_at"`

	// Raw IPN body as received from the gateway, stored alongside the status.
	IPN json.RawMessage `json:"ipn,omitempty"`
}
