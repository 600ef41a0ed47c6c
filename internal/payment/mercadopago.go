package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/mercadopago/sdk-go/pkg/config"
	mppayment "github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/mercadopago/sdk-go/pkg/refund"
)

type MercadoPago struct {
	preferences preference.Client
	payments    mppayment.Client
	refunds     refund.Client
}

func NewMercadoPago(accessToken string, opts ...config.Option) (*MercadoPago, error) {
	cfg, err := config.New(accessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}
	return &MercadoPago{
		preferences: preference.NewClient(cfg),
		payments:    mppayment.NewClient(cfg),
		refunds:     refund.NewClient(cfg),
	}, nil
}

func (m *MercadoPago) Name() string { return "mercadopago" }

func (m *MercadoPago) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	pref := preference.Request{
		Items: []preference.ItemRequest{{
			Title:      req.Description,
			Quantity:   1,
			UnitPrice:  float64(req.Amount),
			CurrencyID: req.Currency,
		}},
		ExternalReference: req.Reference,
		NotificationURL:   req.NotifyURL,
		BackURLs: &preference.BackURLsRequest{
			Success: req.ReturnURL,
			Pending: req.ReturnURL,
			Failure: req.ReturnURL,
		},
	}

	res, err := m.preferences.Create(ctx, pref)
	if err != nil {
		return nil, fmt.Errorf("mercadopago preference: %w", err)
	}
	return &Checkout{ProviderRef: res.ID, CheckoutURL: res.InitPoint}, nil
}

// Verify espera em ProviderRef o id do pagamento vindo da notificação.
func (m *MercadoPago) Verify(ctx context.Context, n Notification) (*Result, error) {
	id, err := strconv.Atoi(n.ProviderRef)
	if err != nil {
		return nil, fmt.Errorf("mercadopago verify: invalid payment id %q", n.ProviderRef)
	}

	p, err := m.payments.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("mercadopago get payment: %w", err)
	}

	return &Result{
		Reference:   p.ExternalReference,
		ProviderRef: strconv.Itoa(p.ID),
		Amount:      int64(math.Round(p.TransactionAmount)),
		Currency:    p.CurrencyID,
		RawStatus:   p.Status,
		Status:      mercadoPagoStatus(p.Status),
	}, nil
}

func mercadoPagoStatus(st string) Status {
	switch st {
	case "approved":
		return StatusPaid
	case "rejected", "cancelled", "refunded", "charged_back":
		return StatusFailed
	}
	return StatusPending
}

// ParseNotification aceita o formato webhook (JSON) e o IPN (query string).
func (m *MercadoPago) ParseNotification(r *http.Request) (*Notification, error) {
	q := r.URL.Query()
	topic := q.Get("type")
	if topic == "" {
		topic = q.Get("topic")
	}
	id := q.Get("data.id")
	if id == "" {
		id = q.Get("id")
	}

	var body struct {
		ID   json.Number `json:"id"`
		Type string      `json:"type"`
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<16)); err == nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err == nil {
			if body.Type != "" {
				topic = body.Type
			}
			if body.Data.ID != "" {
				id = body.Data.ID
			}
		}
	}

	if topic != "" && !strings.EqualFold(topic, "payment") {
		return nil, ErrIgnoredEvent
	}
	if id == "" {
		return nil, fmt.Errorf("mercadopago notification: missing payment id")
	}

	n := &Notification{ProviderRef: id}
	if body.ID != "" {
		n.EventID = "mp-" + body.ID.String()
	}
	return n, nil
}

func (m *MercadoPago) Refund(ctx context.Context, req RefundRequest) error {
	id, err := strconv.Atoi(req.ProviderRef)
	if err != nil {
		return fmt.Errorf("mercadopago refund: invalid payment id %q", req.ProviderRef)
	}
	if _, err := m.refunds.Create(ctx, id); err != nil {
		return fmt.Errorf("mercadopago refund: %w", err)
	}
	return nil
}

var _ Gateway = (*MercadoPago)(nil)
