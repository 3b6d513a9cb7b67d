package models

import "time"

// Payment statuses as reported by the gateway.
const (
	PaymentStatusWaiting       = "waiting"
	PaymentStatusConfirming    = "confirming"
	PaymentStatusConfirmed     = "confirmed"
	PaymentStatusSending       = "sending"
	PaymentStatusPartiallyPaid = "partially_paid"
	PaymentStatusFinished      = "finished"
	PaymentStatusFailed        = "failed"
	PaymentStatusRefunded      = "refunded"
	PaymentStatusExpired       = "expired"
)

// Payment is one payment attempt tied to a tracking record. The order_id
// always has the form tracking-{trackingID}-{unixMillis}.
type Payment struct {
	PaymentID      string     `json:"payment_id"`
	OrderID        string     `json:"order_id"`
	TrackingID     string     `json:"tracking_id"`
	PriceAmount    float64    `json:"price_amount"`
	PriceCurrency  string     `json:"price_currency"`
	PayAmount      *float64   `json:"pay_amount,omitempty"`
	PayCurrency    string     `json:"pay_currency"`
	WalletAddress  *string    `json:"wallet_address,omitempty"`
	PaymentStatus  string     `json:"payment_status"`
	PaymentURL     *string    `json:"payment_url,omitempty"`
	ExpirationTime *time.Time `json:"expiration_time,omitempty"`
	RawResponse    []byte     `json:"-"`
	IPNReceived    bool       `json:"ipn_received"`
	IPNReceivedAt  *time.Time `json:"ipn_received_at,omitempty"`
	IPNData        []byte     `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
}
