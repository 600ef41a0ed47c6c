package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const stripeWebhookSecret = "whsec_test"

func newTestStripe(t *testing.T, mux *http.ServeMux) *Stripe {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return newStripe("sk_test_123", stripeWebhookSecret, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})
}

func intentHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestStripeVerifyStatuses(t *testing.T) {
	cases := []struct {
		name string
		body string
		want Status
	}{
		{
			name: "recém-criado aguardando cartão",
			body: `{"id":"pi_1","object":"payment_intent","amount":22000,"currency":"xof","status":"requires_payment_method","metadata":{"reference":"bk-7-1"}}`,
			want: StatusPending,
		},
		{
			name: "tentativa recusada",
			body: `{"id":"pi_1","object":"payment_intent","amount":22000,"currency":"xof","status":"requires_payment_method","last_payment_error":{"code":"card_declined","message":"Your card was declined."},"metadata":{"reference":"bk-7-1"}}`,
			want: StatusFailed,
		},
		{
			name: "em processamento",
			body: `{"id":"pi_1","object":"payment_intent","amount":22000,"currency":"xof","status":"processing","metadata":{"reference":"bk-7-1"}}`,
			want: StatusPending,
		},
		{
			name: "pago",
			body: `{"id":"pi_1","object":"payment_intent","amount":22000,"currency":"xof","status":"succeeded","metadata":{"reference":"bk-7-1"}}`,
			want: StatusPaid,
		},
		{
			name: "cancelado",
			body: `{"id":"pi_1","object":"payment_intent","amount":22000,"currency":"xof","status":"canceled","metadata":{"reference":"bk-7-1"}}`,
			want: StatusFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/v1/payment_intents/pi_1", intentHandler(tc.body))
			s := newTestStripe(t, mux)

			res, err := s.Verify(context.Background(), Notification{ProviderRef: "pi_1"})
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Status)
			assert.Equal(t, "bk-7-1", res.Reference)
			assert.Equal(t, int64(22000), res.Amount)
			assert.Equal(t, "XOF", res.Currency)
		})
	}
}

func TestStripeVerifyFallsBackToNotificationReference(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/payment_intents/pi_2", intentHandler(
		`{"id":"pi_2","object":"payment_intent","amount":5000,"currency":"xof","status":"succeeded"}`,
	))
	s := newTestStripe(t, mux)

	res, err := s.Verify(context.Background(), Notification{ProviderRef: "pi_2", Reference: "bk-9-1"})
	require.NoError(t, err)
	assert.Equal(t, "bk-9-1", res.Reference)
}

func TestStripeVerifyProviderError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/payment_intents/pi_404", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such payment_intent"}}`))
	})
	s := newTestStripe(t, mux)

	_, err := s.Verify(context.Background(), Notification{ProviderRef: "pi_404"})
	assert.Error(t, err)
}

func signedStripeRequest(t *testing.T, payload, secret string) *http.Request {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	return req
}

func TestStripeParseNotification(t *testing.T) {
	s := newTestStripe(t, http.NewServeMux())

	payload := `{"id":"evt_1","object":"event","type":"payment_intent.succeeded","api_version":"2023-10-16","data":{"object":{"id":"pi_1","object":"payment_intent","metadata":{"reference":"bk-7-1"}}}}`
	n, err := s.ParseNotification(signedStripeRequest(t, payload, stripeWebhookSecret))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", n.EventID)
	assert.Equal(t, "pi_1", n.ProviderRef)
	assert.Equal(t, "bk-7-1", n.Reference)
}

func TestStripeParseNotificationBadSignature(t *testing.T) {
	s := newTestStripe(t, http.NewServeMux())

	payload := `{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`
	_, err := s.ParseNotification(signedStripeRequest(t, payload, "whsec_other"))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(payload))
	_, err = s.ParseNotification(req)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripeParseNotificationIgnoresOtherEvents(t *testing.T) {
	s := newTestStripe(t, http.NewServeMux())

	payload := `{"id":"evt_2","object":"event","type":"charge.refunded","api_version":"2023-10-16","data":{"object":{"id":"ch_1","object":"charge"}}}`
	_, err := s.ParseNotification(signedStripeRequest(t, payload, stripeWebhookSecret))
	assert.ErrorIs(t, err, ErrIgnoredEvent)
}

func TestStripeRefundUsesIdempotencyKey(t *testing.T) {
	var key, intent, amount string
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/refunds", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		key = r.Header.Get("Idempotency-Key")
		intent = r.PostForm.Get("payment_intent")
		amount = r.PostForm.Get("amount")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"re_1","object":"refund","status":"succeeded"}`))
	})
	s := newTestStripe(t, mux)

	err := s.Refund(context.Background(), RefundRequest{
		Reference:   "rf-bk-7",
		ProviderRef: "pi_1",
		Amount:      22000,
	})
	require.NoError(t, err)
	assert.Equal(t, "rf-rf-bk-7", key)
	assert.Equal(t, "pi_1", intent)
	assert.Equal(t, "22000", amount)
}

func TestStripeTransfer(t *testing.T) {
	var key, dest string
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/transfers", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		key = r.Header.Get("Idempotency-Key")
		dest = r.PostForm.Get("destination")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"tr_1","object":"transfer"}`))
	})
	s := newTestStripe(t, mux)

	id, err := s.Transfer(context.Background(), TransferRequest{
		Reference: "po-3-1",
		Amount:    20000,
		Currency:  "XOF",
		AccountID: "acct_123",
	})
	require.NoError(t, err)
	assert.Equal(t, "tr_1", id)
	assert.Equal(t, "tr-po-3-1", key)
	assert.Equal(t, "acct_123", dest)
}

func TestStripeTransferWithoutAccount(t *testing.T) {
	s := newTestStripe(t, http.NewServeMux())

	_, err := s.Transfer(context.Background(), TransferRequest{Reference: "po-3-1", Amount: 20000, Currency: "XOF"})
	assert.ErrorIs(t, err, ErrMissingRecipient)
}
