package payment

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payDunyaServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/checkout-invoice/create", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mk", r.Header.Get("PAYDUNYA-MASTER-KEY"))
		var body struct {
			CustomData map[string]string `json:"custom_data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "bk-9-2", body.CustomData["reference"])
		w.Write([]byte(`{"response_code":"00","response_text":"https://paydunya.com/checkout/invoice/inv-1","token":"inv-1"}`))
	})
	mux.HandleFunc("/checkout-invoice/confirm/inv-1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response_code":"00","status":"completed","invoice":{"total_amount":"5500"},"custom_data":{"reference":"bk-9-2"}}`))
	})
	mux.HandleFunc("/disburse/get-invoice", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "mtn-ci", body["withdraw_mode"])
		assert.Equal(t, "0512345678", body["account_alias"])
		w.Write([]byte(`{"response_code":"00","disburse_token":"dt-1"}`))
	})
	mux.HandleFunc("/disburse/submit-invoice", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response_code":"00","transaction_id":"PD-77"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestPayDunya(srv *httptest.Server) *PayDunya {
	return NewPayDunya(PayDunyaConfig{MasterKey: "mk", PrivateKey: "pk", Token: "tk", BaseURL: srv.URL})
}

func TestPayDunyaCheckoutAndVerify(t *testing.T) {
	pd := newTestPayDunya(payDunyaServer(t))
	ctx := context.Background()

	out, err := pd.CreateCheckout(ctx, CheckoutRequest{Reference: "bk-9-2", Amount: 5500, Currency: "XOF"})
	require.NoError(t, err)
	assert.Equal(t, "inv-1", out.ProviderRef)
	assert.Contains(t, out.CheckoutURL, "inv-1")

	res, err := pd.Verify(ctx, Notification{ProviderRef: "inv-1"})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, res.Status)
	assert.Equal(t, "bk-9-2", res.Reference)
	assert.Equal(t, int64(5500), res.Amount)
}

func TestPayDunyaNotificationHash(t *testing.T) {
	pd := NewPayDunya(PayDunyaConfig{MasterKey: "mk"})
	sum := sha512.Sum512([]byte("mk"))

	form := url.Values{
		"data[hash]":                   {hex.EncodeToString(sum[:])},
		"data[invoice][token]":         {"inv-1"},
		"data[custom_data][reference]": {"bk-9-2"},
	}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paydunya", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	n, err := pd.ParseNotification(req)
	require.NoError(t, err)
	assert.Equal(t, "inv-1", n.ProviderRef)
	assert.Equal(t, "bk-9-2", n.Reference)

	form.Set("data[hash]", "nope")
	bad := httptest.NewRequest(http.MethodPost, "/webhooks/paydunya", strings.NewReader(form.Encode()))
	bad.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, err = pd.ParseNotification(bad)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestPayDunyaTransferPicksOperator(t *testing.T) {
	pd := newTestPayDunya(payDunyaServer(t))

	id, err := pd.Transfer(context.Background(), TransferRequest{Reference: "po-1", Amount: 4500, Phone: "+225 05 12 34 56 78"})
	require.NoError(t, err)
	assert.Equal(t, "PD-77", id)

	_, err = pd.Transfer(context.Background(), TransferRequest{Reference: "po-2", Amount: 4500, Phone: "+225 27 22 00 00 00"})
	assert.ErrorIs(t, err, ErrMissingRecipient)
}
