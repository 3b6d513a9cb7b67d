package nowpay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func docFromJSON(t *testing.T, s string) Document {
	t.Helper()
	var d Document
	require.NoError(t, json.Unmarshal([]byte(s), &d))
	return d
}

func TestNormalize_NestedResult(t *testing.T) {
	doc := docFromJSON(t, `{"result":{"pay_url":"X","id":"1","amount":5,"currency":"btc","pay_address":"addr"}}`)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p, err := Normalize(doc, "eth", now)
	require.NoError(t, err)
	require.Equal(t, "X", p.PaymentURL)
	require.Equal(t, "1", p.PaymentID)
	require.NotNil(t, p.PayAmount)
	require.Equal(t, 5.0, *p.PayAmount)
	require.Equal(t, "btc", p.PayCurrency)
	require.Equal(t, "addr", p.WalletAddress)
}

func TestNormalize_FlatPayload(t *testing.T) {
	doc := docFromJSON(t, `{"payment_id":"abc","invoice_url":"https://pay/1","pay_amount":0.002,"pay_currency":"btc"}`)

	p, err := Normalize(doc, "btc", time.Now())
	require.NoError(t, err)
	require.Equal(t, "abc", p.PaymentID)
	require.Equal(t, "https://pay/1", p.PaymentURL)
	require.Equal(t, 0.002, *p.PayAmount)
}

func TestNormalize_FlatFallbackWhenEnvelopeSparse(t *testing.T) {
	// The nested envelope exists but is missing the URL; the flat payload has it.
	doc := docFromJSON(t, `{"result":{"id":"7"},"pay_url":"https://pay/7"}`)

	p, err := Normalize(doc, "bnb", time.Now())
	require.NoError(t, err)
	require.Equal(t, "7", p.PaymentID)
	require.Equal(t, "https://pay/7", p.PaymentURL)
	require.Equal(t, "bnb", p.PayCurrency) // fell back to the sent currency
}

func TestNormalize_NumericPaymentID(t *testing.T) {
	doc := docFromJSON(t, `{"id":4455, "pay_url":"u"}`)

	p, err := Normalize(doc, "btc", time.Now())
	require.NoError(t, err)
	require.Equal(t, "4455", p.PaymentID)
}

func TestNormalize_AmountAsString(t *testing.T) {
	doc := docFromJSON(t, `{"pay_url":"u","pay_amount":"0.5"}`)

	p, err := Normalize(doc, "btc", time.Now())
	require.NoError(t, err)
	require.Equal(t, 0.5, *p.PayAmount)
}

func TestNormalize_NoWalletNoURL(t *testing.T) {
	doc := docFromJSON(t, `{"result":{"id":"1","amount":5}}`)

	_, err := Normalize(doc, "btc", time.Now())
	require.ErrorIs(t, err, ErrIncompleteResponse)
}

func TestNormalize_ExpirationVariants(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	want := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		body string
	}{
		{"iso", `{"pay_url":"u","expires_at":"2025-06-01T10:30:00Z"}`},
		{"unix seconds", `{"pay_url":"u","expiration_at":1748773800}`},
		{"unix millis", `{"pay_url":"u","expiration_estimate_at":1748773800000}`},
		{"digit string seconds", `{"pay_url":"u","expires":"1748773800"}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p, err := Normalize(docFromJSON(t, c.body), "btc", now)
			require.NoError(t, err)
			require.True(t, p.ExpirationTime.Equal(want), "got %s", p.ExpirationTime)
		})
	}
}

func TestNormalize_DefaultExpiration(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p, err := Normalize(docFromJSON(t, `{"pay_url":"u"}`), "btc", now)
	require.NoError(t, err)
	require.Equal(t, now.Add(30*time.Minute), p.ExpirationTime)
}

func TestNormalize_EveryURLAlias(t *testing.T) {
	for _, alias := range urlAliases {
		doc := Document{alias: "https://pay/x"}
		p, err := Normalize(doc, "btc", time.Now())
		require.NoError(t, err, alias)
		require.Equal(t, "https://pay/x", p.PaymentURL, alias)
	}
}

func TestNormalize_EveryAddressAlias(t *testing.T) {
	for _, alias := range addressAliases {
		doc := Document{alias: "bc1qxyz"}
		p, err := Normalize(doc, "btc", time.Now())
		require.NoError(t, err, alias)
		require.Equal(t, "bc1qxyz", p.WalletAddress, alias)
	}
}

func TestExtractStatus(t *testing.T) {
	require.Equal(t, "finished", ExtractStatus(docFromJSON(t, `{"payment_status":"finished"}`)))
	require.Equal(t, "waiting", ExtractStatus(docFromJSON(t, `{"result":{"status":"waiting"}}`)))
	require.Equal(t, "confirming", ExtractStatus(docFromJSON(t, `{"data":{"state":"confirming"}}`)))
	require.Equal(t, "", ExtractStatus(docFromJSON(t, `{"foo":"bar"}`)))
}
