package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/BruksfildServices01/field-booking/internal/phone"
)

const (
	cinetPayCheckoutURL = "https://api-checkout.cinetpay.com/v2"
	cinetPayTransferURL = "https://client.cinetpay.com/v1"
)

type CinetPayConfig struct {
	APIKey           string
	SiteID           string
	SecretKey        string
	TransferPassword string

	CheckoutBaseURL string
	TransferBaseURL string
}

type CinetPay struct {
	cfg  CinetPayConfig
	http *http.Client

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewCinetPay(cfg CinetPayConfig) *CinetPay {
	if cfg.CheckoutBaseURL == "" {
		cfg.CheckoutBaseURL = cinetPayCheckoutURL
	}
	if cfg.TransferBaseURL == "" {
		cfg.TransferBaseURL = cinetPayTransferURL
	}
	cfg.CheckoutBaseURL = strings.TrimRight(cfg.CheckoutBaseURL, "/")
	cfg.TransferBaseURL = strings.TrimRight(cfg.TransferBaseURL, "/")
	return &CinetPay{cfg: cfg, http: newHTTPClient()}
}

func (c *CinetPay) Name() string { return "cinetpay" }

type cinetPayEnvelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *CinetPay) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	body := map[string]any{
		"apikey":         c.cfg.APIKey,
		"site_id":        c.cfg.SiteID,
		"transaction_id": req.Reference,
		"amount":         req.Amount,
		"currency":       req.Currency,
		"description":    req.Description,
		"notify_url":     req.NotifyURL,
		"return_url":     req.ReturnURL,
		"channels":       "ALL",
		"lang":           "fr",
	}
	if req.CustomerName != "" {
		body["customer_name"] = req.CustomerName
	}
	if n, err := phone.Normalize(req.CustomerPhone); err == nil {
		body["customer_phone_number"] = n
	}

	var env cinetPayEnvelope
	if err := doJSON(ctx, c.http, http.MethodPost, c.cfg.CheckoutBaseURL+"/payment", nil, body, &env); err != nil {
		return nil, fmt.Errorf("cinetpay checkout: %w", err)
	}
	if env.Code != "201" {
		return nil, fmt.Errorf("cinetpay checkout: code=%s message=%s", env.Code, env.Message)
	}

	var data struct {
		PaymentToken string `json:"payment_token"`
		PaymentURL   string `json:"payment_url"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("cinetpay checkout: decode data: %w", err)
	}

	return &Checkout{ProviderRef: data.PaymentToken, CheckoutURL: data.PaymentURL}, nil
}

func (c *CinetPay) Verify(ctx context.Context, n Notification) (*Result, error) {
	body := map[string]string{
		"apikey":         c.cfg.APIKey,
		"site_id":        c.cfg.SiteID,
		"transaction_id": n.Reference,
	}

	var env cinetPayEnvelope
	if err := doJSON(ctx, c.http, http.MethodPost, c.cfg.CheckoutBaseURL+"/payment/check", nil, body, &env); err != nil {
		return nil, fmt.Errorf("cinetpay verify: %w", err)
	}

	var data struct {
		Amount     json.Number `json:"amount"`
		Currency   string      `json:"currency"`
		Status     string      `json:"status"`
		OperatorID string      `json:"operator_id"`
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("cinetpay verify: decode data: %w", err)
		}
	}

	amount, _ := data.Amount.Int64()
	res := &Result{
		Reference:   n.Reference,
		ProviderRef: data.OperatorID,
		Amount:      amount,
		Currency:    data.Currency,
		RawStatus:   data.Status,
		Status:      cinetPayStatus(env.Code, data.Status),
	}
	return res, nil
}

func cinetPayStatus(code, status string) Status {
	switch strings.ToUpper(status) {
	case "ACCEPTED":
		if code == "00" {
			return StatusPaid
		}
	case "REFUSED", "CANCELED", "CANCELLED":
		return StatusFailed
	}
	return StatusPending
}

// campos na ordem exigida pelo cálculo do x-token
var cinetPayTokenFields = []string{
	"cpm_site_id", "cpm_trans_id", "cpm_trans_date", "cpm_amount", "cpm_currency",
	"signature", "payment_method", "cel_phone_num", "cpm_phone_prefixe",
	"cpm_language", "cpm_version", "cpm_payment_config", "cpm_page_action",
	"cpm_custom", "cpm_designation", "cpm_error_message",
}

func (c *CinetPay) ParseNotification(r *http.Request) (*Notification, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("cinetpay notification: %w", err)
	}
	transID := r.PostForm.Get("cpm_trans_id")
	if transID == "" {
		return nil, fmt.Errorf("cinetpay notification: missing cpm_trans_id")
	}
	if site := r.PostForm.Get("cpm_site_id"); c.cfg.SiteID != "" && site != c.cfg.SiteID {
		return nil, ErrInvalidSignature
	}

	if c.cfg.SecretKey != "" {
		if !c.validToken(r.PostForm, r.Header.Get("x-token")) {
			return nil, ErrInvalidSignature
		}
	}

	return &Notification{Reference: transID}, nil
}

func (c *CinetPay) validToken(form url.Values, token string) bool {
	if token == "" {
		return false
	}
	var sb strings.Builder
	for _, f := range cinetPayTokenFields {
		sb.WriteString(form.Get(f))
	}
	mac := hmac.New(sha256.New, []byte(c.cfg.SecretKey))
	mac.Write([]byte(sb.String()))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(token)))
}

// Refund: o CinetPay não estorna cobranças; devolvemos por transferência ao pagador.
func (c *CinetPay) Refund(ctx context.Context, req RefundRequest) error {
	if req.Phone == "" {
		return ErrMissingRecipient
	}
	_, err := c.Transfer(ctx, TransferRequest{
		Reference:   "rf-" + req.Reference,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Phone:       req.Phone,
		Name:        "Client",
		Description: req.Reason,
	})
	return err
}

type cinetPayTransferEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *CinetPay) authToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExp) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("apikey", c.cfg.APIKey)
	form.Set("password", c.cfg.TransferPassword)

	var env cinetPayTransferEnvelope
	if err := doForm(ctx, c.http, c.cfg.TransferBaseURL+"/auth/login", form, &env); err != nil {
		return "", fmt.Errorf("cinetpay login: %w", err)
	}
	if env.Code != 0 {
		return "", fmt.Errorf("cinetpay login: code=%d message=%s", env.Code, env.Message)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		return "", fmt.Errorf("cinetpay login: missing token")
	}

	c.token = data.Token
	// o token vale 5 minutos
	c.tokenExp = time.Now().Add(4 * time.Minute)
	return c.token, nil
}

func (c *CinetPay) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	if req.Phone == "" {
		return "", ErrMissingRecipient
	}
	token, err := c.authToken(ctx)
	if err != nil {
		return "", err
	}

	national, err := phone.National(req.Phone)
	if err != nil {
		return "", ErrMissingRecipient
	}
	contact, _ := json.Marshal([]map[string]string{{
		"prefix":  "225",
		"phone":   national,
		"name":    req.Name,
		"surname": req.Name,
		"email":   national + "@noreply.local",
	}})
	form := url.Values{"data": {string(contact)}}

	var env cinetPayTransferEnvelope
	endpoint := fmt.Sprintf("%s/transfer/contact?token=%s&lang=fr", c.cfg.TransferBaseURL, url.QueryEscape(token))
	// contato já cadastrado volta como erro por item e é ignorado
	if err := doForm(ctx, c.http, endpoint, form, &env); err != nil {
		return "", fmt.Errorf("cinetpay add contact: %w", err)
	}

	send, _ := json.Marshal([]map[string]any{{
		"prefix":                "225",
		"phone":                 national,
		"amount":                req.Amount,
		"client_transaction_id": req.Reference,
	}})
	form = url.Values{"data": {string(send)}}

	env = cinetPayTransferEnvelope{}
	endpoint = fmt.Sprintf("%s/transfer/money/send/contact?token=%s&lang=fr", c.cfg.TransferBaseURL, url.QueryEscape(token))
	if err := doForm(ctx, c.http, endpoint, form, &env); err != nil {
		return "", fmt.Errorf("cinetpay transfer: %w", err)
	}
	if env.Code != 0 {
		return "", fmt.Errorf("cinetpay transfer: code=%d message=%s", env.Code, env.Message)
	}

	var data [][]struct {
		TransactionID string `json:"transaction_id"`
	}
	if err := json.Unmarshal(env.Data, &data); err == nil && len(data) > 0 && len(data[0]) > 0 {
		return data[0][0].TransactionID, nil
	}
	return req.Reference, nil
}

var _ Gateway = (*CinetPay)(nil)
var _ Transferer = (*CinetPay)(nil)
