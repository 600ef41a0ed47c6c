package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
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

func cinetPayServer(t *testing.T, status string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/v2/payment", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "site-1", body["site_id"])
		assert.Equal(t, "bk-7-1", body["transaction_id"])
		assert.Equal(t, "+2250712345678", body["customer_phone_number"])

		w.Write([]byte(`{"code":"201","message":"CREATED","data":{"payment_token":"tok-1","payment_url":"https://checkout.cinetpay.com/p/tok-1"}}`))
	})
	mux.HandleFunc("/v2/payment/check", func(w http.ResponseWriter, r *http.Request) {
		code := "00"
		if status != "ACCEPTED" {
			code = "627"
		}
		w.Write([]byte(`{"code":"` + code + `","message":"x","data":{"amount":"11000","currency":"XOF","status":"` + status + `","operator_id":"OP-9"}}`))
	})
	mux.HandleFunc("/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "secret-pass", r.PostForm.Get("password"))
		w.Write([]byte(`{"code":0,"message":"OPERATION_SUCCES","data":{"token":"jwt-1"}}`))
	})
	mux.HandleFunc("/v1/transfer/contact", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "jwt-1", r.URL.Query().Get("token"))
		w.Write([]byte(`{"code":0,"message":"OPERATION_SUCCES","data":[[{"status":"success"}]]}`))
	})
	mux.HandleFunc("/v1/transfer/money/send/contact", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.PostForm.Get("data"), `"phone":"0712345678"`)
		w.Write([]byte(`{"code":0,"message":"OPERATION_SUCCES","data":[[{"transaction_id":"TR-55"}]]}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestCinetPay(srv *httptest.Server, secret string) *CinetPay {
	return NewCinetPay(CinetPayConfig{
		APIKey:           "key",
		SiteID:           "site-1",
		SecretKey:        secret,
		TransferPassword: "secret-pass",
		CheckoutBaseURL:  srv.URL + "/v2",
		TransferBaseURL:  srv.URL + "/v1",
	})
}

func TestCinetPayCheckout(t *testing.T) {
	cp := newTestCinetPay(cinetPayServer(t, "ACCEPTED"), "")

	out, err := cp.CreateCheckout(context.Background(), CheckoutRequest{
		Reference:     "bk-7-1",
		Amount:        11000,
		Currency:      "XOF",
		CustomerPhone: "07 12 34 56 78",
	})

	require.NoError(t, err)
	assert.Equal(t, "tok-1", out.ProviderRef)
	assert.Equal(t, "https://checkout.cinetpay.com/p/tok-1", out.CheckoutURL)
}

func TestCinetPayVerifyStatuses(t *testing.T) {
	cases := map[string]Status{
		"ACCEPTED": StatusPaid,
		"REFUSED":  StatusFailed,
		"PENDING":  StatusPending,
	}
	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			cp := newTestCinetPay(cinetPayServer(t, raw), "")

			res, err := cp.Verify(context.Background(), Notification{Reference: "bk-7-1"})

			require.NoError(t, err)
			assert.Equal(t, want, res.Status)
			assert.Equal(t, int64(11000), res.Amount)
			assert.Equal(t, "bk-7-1", res.Reference)
		})
	}
}

func TestCinetPayNotificationToken(t *testing.T) {
	cp := newTestCinetPay(cinetPayServer(t, "ACCEPTED"), "s3cr3t")

	form := url.Values{"cpm_site_id": {"site-1"}, "cpm_trans_id": {"bk-7-1"}, "cpm_amount": {"11000"}}
	mac := hmac.New(sha256.New, []byte("s3cr3t"))
	mac.Write([]byte("site-1bk-7-111000"))
	token := hex.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/cinetpay", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("x-token", token)

	n, err := cp.ParseNotification(req)
	require.NoError(t, err)
	assert.Equal(t, "bk-7-1", n.Reference)
	assert.Empty(t, n.EventID)

	bad := httptest.NewRequest(http.MethodPost, "/webhooks/cinetpay", strings.NewReader(form.Encode()))
	bad.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	bad.Header.Set("x-token", "deadbeef")

	_, err = cp.ParseNotification(bad)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCinetPayTransfer(t *testing.T) {
	cp := newTestCinetPay(cinetPayServer(t, "ACCEPTED"), "")

	id, err := cp.Transfer(context.Background(), TransferRequest{
		Reference: "po-3",
		Amount:    9000,
		Currency:  "XOF",
		Phone:     "+2250712345678",
		Name:      "Kouassi",
	})

	require.NoError(t, err)
	assert.Equal(t, "TR-55", id)
}

func TestCinetPayRefundNeedsPhone(t *testing.T) {
	cp := newTestCinetPay(cinetPayServer(t, "ACCEPTED"), "")

	err := cp.Refund(context.Background(), RefundRequest{Reference: "bk-1", Amount: 100})
	assert.ErrorIs(t, err, ErrMissingRecipient)
}
