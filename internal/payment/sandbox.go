package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Sandbox é o gateway de desenvolvimento: nada sai da máquina.
// O resultado de cada referência é definido por Settle (ou pelo webhook /api/webhooks/sandbox).
// Nunca registrar em produção.
type Sandbox struct {
	mu        sync.Mutex
	checkouts map[string]CheckoutRequest
	results   map[string]Result
	Refunds   []RefundRequest
	Transfers []TransferRequest

	FailCheckout bool
	FailRefund   bool
	FailTransfer bool
}

func NewSandbox() *Sandbox {
	return &Sandbox{
		checkouts: map[string]CheckoutRequest{},
		results:   map[string]Result{},
	}
}

func (s *Sandbox) Name() string { return "sandbox" }

func (s *Sandbox) CreateCheckout(_ context.Context, req CheckoutRequest) (*Checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCheckout {
		return nil, errors.New("sandbox: checkout refused")
	}
	s.checkouts[req.Reference] = req
	return &Checkout{
		ProviderRef: "sb-" + req.Reference,
		CheckoutURL: fmt.Sprintf("%s?sandbox=%s", req.ReturnURL, req.Reference),
	}, nil
}

// Settle define o resultado que Verify devolverá; amount 0 usa o valor do checkout.
func (s *Sandbox) Settle(reference string, status Status, amount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req := s.checkouts[reference]
	if amount == 0 {
		amount = req.Amount
	}
	s.results[reference] = Result{
		Reference:   reference,
		ProviderRef: "sb-" + reference,
		Status:      status,
		Amount:      amount,
		Currency:    req.Currency,
		RawStatus:   string(status),
	}
}

func (s *Sandbox) Verify(_ context.Context, n Notification) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res, ok := s.results[n.Reference]; ok {
		return &res, nil
	}
	if _, ok := s.checkouts[n.Reference]; !ok {
		return nil, fmt.Errorf("sandbox: unknown reference %q", n.Reference)
	}
	return &Result{Reference: n.Reference, Status: StatusPending, RawStatus: "pending"}, nil
}

func (s *Sandbox) Refund(_ context.Context, req RefundRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailRefund {
		return errors.New("sandbox: refund refused")
	}
	s.Refunds = append(s.Refunds, req)
	return nil
}

func (s *Sandbox) Transfer(_ context.Context, req TransferRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailTransfer {
		return "", errors.New("sandbox: transfer refused")
	}
	s.Transfers = append(s.Transfers, req)
	return "sbt-" + req.Reference, nil
}

// ParseNotification aceita {"reference","status","amount"} e já liquida a referência.
func (s *Sandbox) ParseNotification(r *http.Request) (*Notification, error) {
	var body struct {
		Reference string `json:"reference"`
		Status    Status `json:"status"`
		Amount    int64  `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("sandbox: decode: %w", err)
	}
	if body.Reference == "" {
		return nil, ErrIgnoredEvent
	}
	if body.Status == StatusPaid || body.Status == StatusFailed {
		s.Settle(body.Reference, body.Status, body.Amount)
	}
	return &Notification{Reference: body.Reference}, nil
}

func (s *Sandbox) RefundCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Refunds)
}

func (s *Sandbox) TransferCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Transfers)
}
