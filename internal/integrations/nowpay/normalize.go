package nowpay

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Document is an upstream JSON payload as decoded by encoding/json. The
// gateway's response shape is not guaranteed, so extraction works over the
// loose form instead of a fixed schema.
type Document map[string]any

// ErrIncompleteResponse is returned when the gateway response carries neither
// a wallet address nor a payment URL under any known alias. Nothing useful can
// be shown to the payer in that case, so the operation fails hard.
var ErrIncompleteResponse = errors.New("payment details not received from payment service")

// NormalizedPayment is the canonical record extracted from a create-payment
// response.
type NormalizedPayment struct {
	PaymentID      string
	PaymentURL     string
	PayAmount      *float64
	PayCurrency    string
	WalletAddress  string
	ExpirationTime time.Time
}

// Alias lists per canonical field, probed in order. Keep explicit: every alias
// here has been observed from some deployment of the gateway.
var (
	urlAliases = []string{
		"pay_url", "invoice_url", "payment_url", "url",
		"invoiceUrl", "payUrl", "link", "checkout_url", "checkoutUrl",
	}
	idAliases       = []string{"payment_id", "id", "paymentId", "invoice_id"}
	amountAliases   = []string{"pay_amount", "amount", "price_amount"}
	currencyAliases = []string{"pay_currency", "currency", "payCurrency"}
	addressAliases  = []string{"payment_address", "pay_address", "address", "wallet_address"}
	expiryAliases   = []string{
		"expiration_estimate_at", "expires_at", "expiration_at",
		"expires_at_iso", "expiration_estimate", "expires",
	}
	statusAliases = []string{"payment_status", "status", "state", "paymentStatus"}
)

// Envelope returns the nested payment object when the payload wraps it under
// result/data/response, falling back to the flat payload itself.
func (d Document) Envelope() Document {
	for _, key := range []string{"result", "data", "response"} {
		if inner, ok := d[key].(map[string]any); ok {
			return Document(inner)
		}
	}
	return d
}

// Normalize extracts the canonical payment record from a create-payment
// response. sentCurrency is the pay currency from the outbound request, used
// when the response does not echo one back. now anchors the synthesized
// default expiration.
func Normalize(doc Document, sentCurrency string, now time.Time) (NormalizedPayment, error) {
	inner := doc.Envelope()

	p := NormalizedPayment{
		PaymentID:     probeString(inner, doc, idAliases),
		PaymentURL:    probeString(inner, doc, urlAliases),
		PayAmount:     probeNumber(inner, doc, amountAliases),
		PayCurrency:   probeString(inner, doc, currencyAliases),
		WalletAddress: probeString(inner, doc, addressAliases),
	}
	if p.PayCurrency == "" {
		p.PayCurrency = sentCurrency
	}
	if p.WalletAddress == "" && p.PaymentURL == "" {
		return NormalizedPayment{}, ErrIncompleteResponse
	}

	if raw := probeAny(inner, doc, expiryAliases); raw != nil {
		if t, ok := parseExpiration(raw); ok {
			p.ExpirationTime = t
		}
	}
	if p.ExpirationTime.IsZero() {
		p.ExpirationTime = now.Add(30 * time.Minute)
	}

	return p, nil
}

// ExtractStatus pulls the payment status out of a status-lookup response.
func ExtractStatus(doc Document) string {
	return probeString(doc.Envelope(), doc, statusAliases)
}

// String returns the first present value among keys, stringified. Numeric ids
// come back as their decimal form.
func (d Document) String(keys ...string) string {
	return probeString(d, d, keys)
}

// Number returns the first present numeric value among keys; digit strings
// count.
func (d Document) Number(keys ...string) *float64 {
	return probeNumber(d, d, keys)
}

// probeAny tries the aliases on the envelope first and then on the flat
// payload; the flat fallback covers responses whose nested envelope exists but
// is missing the field.
func probeAny(inner, flat Document, aliases []string) any {
	for _, docs := range [2]Document{inner, flat} {
		for _, k := range aliases {
			if v, ok := docs[k]; ok && v != nil {
				return v
			}
		}
	}
	return nil
}

func probeString(inner, flat Document, aliases []string) string {
	v := probeAny(inner, flat, aliases)
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

func probeNumber(inner, flat Document, aliases []string) *float64 {
	switch v := probeAny(inner, flat, aliases).(type) {
	case float64:
		return &v
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return &f
		}
	}
	return nil
}

// parseExpiration accepts ISO-8601 strings and unix timestamps in seconds or
// milliseconds; integers below 10^10 are seconds.
func parseExpiration(v any) (time.Time, bool) {
	switch x := v.(type) {
	case string:
		x = strings.TrimSpace(x)
		if t, err := time.Parse(time.RFC3339, x); err == nil {
			return t, true
		}
		if n, err := strconv.ParseInt(x, 10, 64); err == nil {
			return unixTime(n), true
		}
	case float64:
		return unixTime(int64(x)), true
	}
	return time.Time{}, false
}

func unixTime(n int64) time.Time {
	if n < 10_000_000_000 {
		return time.Unix(n, 0).UTC()
	}
	return time.UnixMilli(n).UTC()
}
