// Package payment integra os gateways de pagamento (cartão e mobile money).
package payment

import (
	"context"
	"errors"
	"net/http"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

var (
	ErrUnknownProvider = errors.New("payment: unknown provider")
	// ErrIgnoredEvent: notificação válida mas irrelevante (ex.: outro tipo de evento Stripe).
	ErrIgnoredEvent     = errors.New("payment: event ignored")
	ErrInvalidSignature = errors.New("payment: invalid notification signature")
	ErrMissingRecipient = errors.New("payment: missing transfer recipient")
)

type CheckoutRequest struct {
	Reference   string
	Amount      int64
	Currency    string
	Description string

	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	ReturnURL string
	NotifyURL string
}

type Checkout struct {
	ProviderRef  string `json:"provider_ref"`
	CheckoutURL  string `json:"checkout_url,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// Notification é o que um webhook traz antes da verificação.
type Notification struct {
	EventID     string
	Reference   string
	ProviderRef string
}

// Result é o estado confirmado junto ao provedor.
type Result struct {
	Reference   string
	ProviderRef string
	Status      Status
	Amount      int64
	Currency    string
	RawStatus   string
}

type RefundRequest struct {
	Reference   string
	ProviderRef string
	Amount      int64
	Currency    string
	Phone       string
	Reason      string
}

type TransferRequest struct {
	Reference   string
	Amount      int64
	Currency    string
	Phone       string
	AccountID   string
	Name        string
	Description string
}

type Gateway interface {
	Name() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	// Verify consulta o provedor; nunca confiar só no corpo do webhook.
	Verify(ctx context.Context, n Notification) (*Result, error)
	Refund(ctx context.Context, req RefundRequest) error
	ParseNotification(r *http.Request) (*Notification, error)
}

// Transferer envia o repasse ao dono.
type Transferer interface {
	Transfer(ctx context.Context, req TransferRequest) (string, error)
}
