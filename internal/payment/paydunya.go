package payment

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/BruksfildServices01/field-booking/internal/phone"
)

const (
	payDunyaLiveURL    = "https://app.paydunya.com/api/v1"
	payDunyaSandboxURL = "https://app.paydunya.com/sandbox-api/v1"
)

type PayDunyaConfig struct {
	MasterKey  string
	PrivateKey string
	Token      string
	Sandbox    bool
	StoreName  string
	BaseURL    string
}

type PayDunya struct {
	cfg  PayDunyaConfig
	http *http.Client
}

func NewPayDunya(cfg PayDunyaConfig) *PayDunya {
	if cfg.BaseURL == "" {
		cfg.BaseURL = payDunyaLiveURL
		if cfg.Sandbox {
			cfg.BaseURL = payDunyaSandboxURL
		}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.StoreName == "" {
		cfg.StoreName = "Terrains"
	}
	return &PayDunya{cfg: cfg, http: newHTTPClient()}
}

func (p *PayDunya) Name() string { return "paydunya" }

func (p *PayDunya) headers() map[string]string {
	return map[string]string{
		"PAYDUNYA-MASTER-KEY":  p.cfg.MasterKey,
		"PAYDUNYA-PRIVATE-KEY": p.cfg.PrivateKey,
		"PAYDUNYA-TOKEN":       p.cfg.Token,
	}
}

type payDunyaResponse struct {
	ResponseCode string `json:"response_code"`
	ResponseText string `json:"response_text"`
	Description  string `json:"description"`
	Token        string `json:"token"`
}

func (p *PayDunya) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	body := map[string]any{
		"invoice": map[string]any{
			"total_amount": req.Amount,
			"description":  req.Description,
		},
		"store": map[string]any{"name": p.cfg.StoreName},
		"actions": map[string]any{
			"cancel_url":   req.ReturnURL,
			"return_url":   req.ReturnURL,
			"callback_url": req.NotifyURL,
		},
		"custom_data": map[string]any{"reference": req.Reference},
	}

	var resp payDunyaResponse
	if err := doJSON(ctx, p.http, http.MethodPost, p.cfg.BaseURL+"/checkout-invoice/create", p.headers(), body, &resp); err != nil {
		return nil, fmt.Errorf("paydunya checkout: %w", err)
	}
	if resp.ResponseCode != "00" {
		return nil, fmt.Errorf("paydunya checkout: code=%s text=%s", resp.ResponseCode, resp.ResponseText)
	}

	// em sucesso response_text traz a URL de pagamento
	return &Checkout{ProviderRef: resp.Token, CheckoutURL: resp.ResponseText}, nil
}

func (p *PayDunya) Verify(ctx context.Context, n Notification) (*Result, error) {
	if n.ProviderRef == "" {
		return nil, fmt.Errorf("paydunya verify: missing invoice token")
	}

	var resp struct {
		ResponseCode string `json:"response_code"`
		ResponseText string `json:"response_text"`
		Status       string `json:"status"`
		Invoice      struct {
			TotalAmount json.Number `json:"total_amount"`
		} `json:"invoice"`
		CustomData struct {
			Reference string `json:"reference"`
		} `json:"custom_data"`
	}
	url := fmt.Sprintf("%s/checkout-invoice/confirm/%s", p.cfg.BaseURL, n.ProviderRef)
	if err := doJSON(ctx, p.http, http.MethodGet, url, p.headers(), nil, &resp); err != nil {
		return nil, fmt.Errorf("paydunya verify: %w", err)
	}

	amount, _ := resp.Invoice.TotalAmount.Int64()
	ref := resp.CustomData.Reference
	if ref == "" {
		ref = n.Reference
	}

	return &Result{
		Reference:   ref,
		ProviderRef: n.ProviderRef,
		Amount:      amount,
		Currency:    "XOF",
		RawStatus:   resp.Status,
		Status:      payDunyaStatus(resp.ResponseCode, resp.Status),
	}, nil
}

func payDunyaStatus(code, status string) Status {
	if code != "00" {
		return StatusPending
	}
	switch strings.ToLower(status) {
	case "completed":
		return StatusPaid
	case "cancelled", "failed":
		return StatusFailed
	}
	return StatusPending
}

// ParseNotification valida o IPN: data[hash] = sha512(master key).
func (p *PayDunya) ParseNotification(r *http.Request) (*Notification, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("paydunya notification: %w", err)
	}

	sum := sha512.Sum512([]byte(p.cfg.MasterKey))
	expected := hex.EncodeToString(sum[:])
	got := strings.ToLower(r.PostForm.Get("data[hash]"))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
		return nil, ErrInvalidSignature
	}

	token := r.PostForm.Get("data[invoice][token]")
	if token == "" {
		return nil, fmt.Errorf("paydunya notification: missing invoice token")
	}

	return &Notification{
		Reference:   r.PostForm.Get("data[custom_data][reference]"),
		ProviderRef: token,
	}, nil
}

// Refund: sem estorno nativo, devolve por disbursement ao pagador.
func (p *PayDunya) Refund(ctx context.Context, req RefundRequest) error {
	if req.Phone == "" {
		return ErrMissingRecipient
	}
	_, err := p.Transfer(ctx, TransferRequest{
		Reference: "rf-" + req.Reference,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Phone:     req.Phone,
	})
	return err
}

func withdrawMode(op phone.Operator) string {
	switch op {
	case phone.Orange:
		return "orange-money-ci"
	case phone.MTN:
		return "mtn-ci"
	case phone.Moov:
		return "moov-ci"
	}
	return ""
}

func (p *PayDunya) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	national, err := phone.National(req.Phone)
	if err != nil {
		return "", ErrMissingRecipient
	}
	op, _ := phone.OperatorOf(national)
	mode := withdrawMode(op)
	if mode == "" || !phone.IsMobile(national) {
		return "", ErrMissingRecipient
	}

	var inv struct {
		ResponseCode  string `json:"response_code"`
		ResponseText  string `json:"response_text"`
		DisburseToken string `json:"disburse_token"`
	}
	body := map[string]any{
		"account_alias": national,
		"amount":        req.Amount,
		"withdraw_mode": mode,
	}
	if err := doJSON(ctx, p.http, http.MethodPost, p.cfg.BaseURL+"/disburse/get-invoice", p.headers(), body, &inv); err != nil {
		return "", fmt.Errorf("paydunya disburse invoice: %w", err)
	}
	if inv.ResponseCode != "00" {
		return "", fmt.Errorf("paydunya disburse invoice: code=%s text=%s", inv.ResponseCode, inv.ResponseText)
	}

	var sub struct {
		ResponseCode  string `json:"response_code"`
		ResponseText  string `json:"response_text"`
		TransactionID string `json:"transaction_id"`
	}
	body = map[string]any{
		"disburse_invoice": inv.DisburseToken,
		"disburse_id":      req.Reference,
	}
	if err := doJSON(ctx, p.http, http.MethodPost, p.cfg.BaseURL+"/disburse/submit-invoice", p.headers(), body, &sub); err != nil {
		return "", fmt.Errorf("paydunya disburse submit: %w", err)
	}
	if sub.ResponseCode != "00" {
		return "", fmt.Errorf("paydunya disburse submit: code=%s text=%s", sub.ResponseCode, sub.ResponseText)
	}
	return sub.TransactionID, nil
}

var _ Gateway = (*PayDunya)(nil)
var _ Transferer = (*PayDunya)(nil)
