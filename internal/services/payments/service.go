package payments

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/HenryEmmanuel06/dfsworldwide/internal/broker/messages"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/integrations/nowpay"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/mail"
	"github.com/HenryEmmanuel06/dfsworldwide/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Gateway is the payment provider surface the service needs.
type Gateway interface {
	CreatePayment(ctx context.Context, in nowpay.CreateRequest) (nowpay.Document, error)
	PaymentStatus(ctx context.Context, paymentID string) (nowpay.Document, error)
}

type Repository interface {
	CreatePayment(ctx context.Context, p *models.Payment) error
	ApplyIPN(ctx context.Context, paymentID, status string, receivedAt time.Time, ipnData []byte) error
	GetTrackingByID(ctx context.Context, trackingID string) (*models.Tracking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type Mailer interface {
	Send(m mail.Message) error
}

// Currencies accepted for the pay_currency side of an order.
var allowedCurrencies = map[string]bool{
	"btc": true,
	"eth": true,
	"bnb": true,
}

var (
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrMissingTrackingID   = errors.New("tracking id is required")
)

type Service struct {
	gw        Gateway
	repo      Repository
	producer  Producer
	mailer    Mailer
	ipnSecret string
	topic     string
}

func New(gw Gateway, repo Repository, producer Producer, mailer Mailer, ipnSecret, topic string) *Service {
	return &Service{
		gw:        gw,
		repo:      repo,
		producer:  producer,
		mailer:    mailer,
		ipnSecret: ipnSecret,
		topic:     topic,
	}
}

type CreateInput struct {
	TrackingID string
	Currency   string
	Amount     float64
	// CurrencyType is the fiat side of the order, defaulting to usd.
	CurrencyType string
	// BaseURL is the public origin the callback and redirect URLs are built
	// from, e.g. https://dfsworldwide.example.
	BaseURL string
}

// CreateResult mirrors the shape handed back to the frontend: the envelope of
// the gateway response plus the normalized fields, and the untouched raw
// response for diagnostics.
type CreateResult struct {
	Payment        nowpay.Document
	PaymentID      string
	PaymentURL     string
	PayAmount      *float64
	PayCurrency    string
	WalletAddress  string
	ExpirationTime time.Time
	RawResponse    nowpay.Document
	OrderID        string
	Persisted      bool
	Warning        string
}

// Create submits an order to the gateway and records the attempt. Gateway
// failures are fatal; the local insert degrades to persisted=false.
func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	in.TrackingID = strings.TrimSpace(in.TrackingID)
	if in.TrackingID == "" {
		return CreateResult{}, ErrMissingTrackingID
	}
	cur := strings.ToLower(strings.TrimSpace(in.Currency))
	if !allowedCurrencies[cur] {
		return CreateResult{}, ErrUnsupportedCurrency
	}
	if in.Amount <= 0 {
		return CreateResult{}, ErrInvalidAmount
	}
	priceCur := strings.ToLower(strings.TrimSpace(in.CurrencyType))
	if priceCur == "" {
		priceCur = "usd"
	}

	now := time.Now()
	orderID := nowpay.BuildOrderID(in.TrackingID, now)
	base := strings.TrimRight(in.BaseURL, "/")

	doc, err := s.gw.CreatePayment(ctx, nowpay.CreateRequest{
		PriceAmount:      in.Amount,
		PriceCurrency:    priceCur,
		PayCurrency:      cur,
		OrderID:          orderID,
		OrderDescription: "Shipment charge for " + in.TrackingID,
		IPNCallbackURL:   base + "/api/payment-ipn",
		SuccessURL:       base + "/tracking?tid=" + in.TrackingID + "&payment=success",
		CancelURL:        base + "/tracking?tid=" + in.TrackingID + "&payment=cancelled",
	})
	if err != nil {
		return CreateResult{}, err
	}

	norm, err := nowpay.Normalize(doc, cur, now)
	if err != nil {
		return CreateResult{}, err
	}

	res := CreateResult{
		Payment:        doc.Envelope(),
		PaymentID:      norm.PaymentID,
		PaymentURL:     norm.PaymentURL,
		PayAmount:      norm.PayAmount,
		PayCurrency:    norm.PayCurrency,
		WalletAddress:  norm.WalletAddress,
		ExpirationTime: norm.ExpirationTime,
		RawResponse:    doc,
		OrderID:        orderID,
		Persisted:      true,
	}

	if err := s.persist(ctx, in, priceCur, norm, orderID, doc); err != nil {
		slog.Error("payment insert failed", "payment_id", norm.PaymentID, "err", err)
		res.Persisted = false
		res.Warning = err.Error()
	}

	return res, nil
}

func (s *Service) persist(ctx context.Context, in CreateInput, priceCur string, norm nowpay.NormalizedPayment, orderID string, doc nowpay.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "marshal raw response")
	}

	p := models.Payment{
		PaymentID:     norm.PaymentID,
		OrderID:       orderID,
		TrackingID:    in.TrackingID,
		PriceAmount:   in.Amount,
		PriceCurrency: priceCur,
		PayAmount:     norm.PayAmount,
		PayCurrency:   norm.PayCurrency,
		PaymentStatus: models.PaymentStatusWaiting,
		RawResponse:   raw,
	}
	if norm.WalletAddress != "" {
		p.WalletAddress = &norm.WalletAddress
	}
	if norm.PaymentURL != "" {
		p.PaymentURL = &norm.PaymentURL
	}
	if !norm.ExpirationTime.IsZero() {
		t := norm.ExpirationTime
		p.ExpirationTime = &t
	}
	return s.repo.CreatePayment(ctx, &p)
}

// Status asks the gateway for the current payment status and returns both the
// extracted status string and the raw document.
func (s *Service) Status(ctx context.Context, paymentID string) (string, nowpay.Document, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return "", nil, errors.New("payment id is required")
	}
	doc, err := s.gw.PaymentStatus(ctx, paymentID)
	if err != nil {
		return "", nil, err
	}
	return nowpay.ExtractStatus(doc), doc, nil
}

// HandleIPN verifies the callback signature over the exact received bytes and
// hands the status change to the broker. The gateway is acked as soon as the
// event is accepted; applying it to the payments table happens in the
// consumer. If the publish itself fails the update is applied inline so the
// callback is never lost.
func (s *Service) HandleIPN(ctx context.Context, body []byte, header http.Header) error {
	if err := nowpay.VerifySignature(body, header, s.ipnSecret); err != nil {
		return err
	}

	var doc nowpay.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return errors.Wrap(err, "decode ipn body")
	}

	paymentID := doc.String("payment_id", "id", "paymentId")
	orderID := doc.String("order_id", "orderId")
	status := nowpay.ExtractStatus(doc)
	if paymentID == "" || status == "" {
		return errors.New("ipn missing payment_id or status")
	}

	msg := messages.PaymentStatusChanged{
		EventID:     uuid.NewString(),
		PaymentID:   paymentID,
		OrderID:     orderID,
		Status:      status,
		PayAmount:   doc.Number("pay_amount", "actually_paid", "amount"),
		PayCurrency: doc.String("pay_currency", "currency"),
		ReceivedAt:  time.Now().UTC(),
		IPN:         json.RawMessage(body),
	}
	if tid, ok := nowpay.ExtractTrackingID(orderID); ok {
		msg.TrackingID = tid
	}

	value, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal status event")
	}

	if s.producer != nil {
		if err := s.producer.Publish(ctx, s.topic, []byte(paymentID), value); err == nil {
			return nil
		} else {
			slog.Error("status event publish failed, applying inline", "payment_id", paymentID, "err", err)
		}
	}

	s.ApplyStatusUpdate(ctx, msg)
	return nil
}

// ApplyStatusUpdate lands a status change on the payments table and, once the
// payment finishes, notifies the recipient. Runs in the broker consumer.
func (s *Service) ApplyStatusUpdate(ctx context.Context, msg messages.PaymentStatusChanged) {
	if err := s.repo.ApplyIPN(ctx, msg.PaymentID, msg.Status, msg.ReceivedAt, msg.IPN); err != nil {
		slog.Error("apply status update failed", "payment_id", msg.PaymentID, "err", err)
		return
	}
	slog.Info("payment status updated", "payment_id", msg.PaymentID, "status", msg.Status)

	if msg.Status == models.PaymentStatusFinished && msg.TrackingID != "" {
		s.notifyPaid(ctx, msg)
	}
}

func (s *Service) notifyPaid(ctx context.Context, msg messages.PaymentStatusChanged) {
	if s.mailer == nil {
		return
	}
	t, err := s.repo.GetTrackingByID(ctx, msg.TrackingID)
	if err != nil || t.RecipientEmail == "" {
		return
	}
	m := mail.Message{
		To:      t.RecipientEmail,
		Subject: "Payment received for " + t.TrackingID,
		Text:    "Hello " + t.RecipientName + ",\n\nWe received the payment for shipment " + t.TrackingID + ". It will continue to its destination as scheduled.\n",
	}
	if err := s.mailer.Send(m); err != nil {
		slog.Error("payment email failed", "tracking_id", t.TrackingID, "err", err)
	}
}
