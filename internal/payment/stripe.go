package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type Stripe struct {
	api           *client.API
	webhookSecret string
}

func NewStripe(secretKey, webhookSecret string) *Stripe {
	return newStripe(secretKey, webhookSecret, nil)
}

// newStripe com backends nil usa a API pública da Stripe.
func newStripe(secretKey, webhookSecret string, backends *stripe.Backends) *Stripe {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &Stripe{api: api, webhookSecret: webhookSecret}
}

func (s *Stripe) Name() string { return "stripe" }

func (s *Stripe) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Description: stripe.String(req.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx
	params.AddMetadata("reference", req.Reference)
	params.SetIdempotencyKey("pi-" + req.Reference)

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe payment intent: %w", err)
	}
	return &Checkout{ProviderRef: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (s *Stripe) Verify(ctx context.Context, n Notification) (*Result, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.Get(n.ProviderRef, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get payment intent: %w", err)
	}

	ref := pi.Metadata["reference"]
	if ref == "" {
		ref = n.Reference
	}

	return &Result{
		Reference:   ref,
		ProviderRef: pi.ID,
		Amount:      pi.Amount,
		Currency:    strings.ToUpper(string(pi.Currency)),
		RawStatus:   string(pi.Status),
		Status:      stripeStatus(pi),
	}, nil
}

func stripeStatus(pi *stripe.PaymentIntent) Status {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return StatusPaid
	case stripe.PaymentIntentStatusCanceled:
		return StatusFailed
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		// intent recém-criado também nasce aqui; só é falha com tentativa recusada
		if pi.LastPaymentError != nil {
			return StatusFailed
		}
	}
	return StatusPending
}

func (s *Stripe) ParseNotification(r *http.Request) (*Notification, error) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("stripe webhook: %w", err)
	}

	ev, err := webhook.ConstructEventWithOptions(
		payload,
		r.Header.Get("Stripe-Signature"),
		s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, ErrInvalidSignature
	}

	switch ev.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed", "payment_intent.canceled":
	default:
		return nil, ErrIgnoredEvent
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("stripe webhook: decode intent: %w", err)
	}

	return &Notification{
		EventID:     ev.ID,
		Reference:   pi.Metadata["reference"],
		ProviderRef: pi.ID,
	}, nil
}

func (s *Stripe) Refund(ctx context.Context, req RefundRequest) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.ProviderRef),
	}
	if req.Amount > 0 {
		params.Amount = stripe.Int64(req.Amount)
	}
	params.Context = ctx
	params.SetIdempotencyKey("rf-" + req.Reference)

	if _, err := s.api.Refunds.New(params); err != nil {
		return fmt.Errorf("stripe refund: %w", err)
	}
	return nil
}

// Transfer exige uma conta Stripe Connect do dono (AccountID).
func (s *Stripe) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	if req.AccountID == "" {
		return "", ErrMissingRecipient
	}
	params := &stripe.TransferParams{
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Destination: stripe.String(req.AccountID),
		Description: stripe.String(req.Description),
	}
	params.Context = ctx
	params.SetIdempotencyKey("tr-" + req.Reference)

	tr, err := s.api.Transfers.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe transfer: %w", err)
	}
	return tr.ID, nil
}

var _ Gateway = (*Stripe)(nil)
var _ Transferer = (*Stripe)(nil)
