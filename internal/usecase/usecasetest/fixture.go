// Package usecasetest monta um ambiente completo em memória para os testes dos use cases.
package usecasetest

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/field-booking/internal/audit"
	"github.com/BruksfildServices01/field-booking/internal/events"
	"github.com/BruksfildServices01/field-booking/internal/infra/memory"
	"github.com/BruksfildServices01/field-booking/internal/jobs"
	"github.com/BruksfildServices01/field-booking/internal/lock"
	"github.com/BruksfildServices01/field-booking/internal/models"
	"github.com/BruksfildServices01/field-booking/internal/payment"
	bookinguc "github.com/BruksfildServices01/field-booking/internal/usecase/booking"
)

// T0 é o "agora" inicial de todos os cenários.
var T0 = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

type Fixture struct {
	Repo    *memory.BookingRepository
	Gateway *payment.Sandbox
	Deps    bookinguc.Deps

	Owner *models.User
	User  *models.User
	Other *models.User
	Field *models.Field
	Slot  *models.FieldAvailability

	now time.Time
}

// New cria dono, dois jogadores, um terreno aprovado (net 20000 XOF) e um slot daqui a 48h.
func New(t *testing.T) *Fixture {
	t.Helper()

	f := &Fixture{
		Repo:    memory.NewBookingRepository(),
		Gateway: payment.NewSandbox(),
		now:     T0,
	}
	f.Repo.Now = f.Now

	f.Owner = f.Repo.AddUser(models.User{
		Name: "Kouassi", Email: "owner@terrain.ci", Role: models.RoleOwner,
		Phone: "+2250700000001", PayoutChannel: models.PayoutChannelMobileMoney,
	})
	f.User = f.Repo.AddUser(models.User{Name: "Awa", Email: "awa@terrain.ci", Role: models.RoleUser, Phone: "+2250500000002"})
	f.Other = f.Repo.AddUser(models.User{Name: "Yao", Email: "yao@terrain.ci", Role: models.RoleUser, Phone: "+2250100000003"})

	f.Field = f.Repo.AddField(models.Field{
		OwnerID:     f.Owner.ID,
		Name:        "Terrain Cocody",
		City:        "Abidjan",
		Timezone:    "Africa/Abidjan",
		NetPrice:    20000,
		PublicPrice: 22000,
		Active:      true,
		Approved:    true,
	})
	f.Slot = f.AddSlot(48 * time.Hour)

	f.Deps = bookinguc.Deps{
		Repo:     f.Repo,
		Locker:   lock.NoopLocker{},
		Audit:    audit.Nop,
		Events:   events.NewLogPublisher(zap.NewNop()),
		Jobs:     jobs.NoopScheduler{},
		Gateways: payment.NewRegistry(f.Gateway),
		Policy: bookinguc.Policy{
			Currency:              "XOF",
			CommissionRate:        0.10,
			DefaultDepositPercent: 30,
			SlotLockTTL:           5 * time.Second,
			ApprovalTTL:           12 * time.Hour,
			PaymentWindow:         30 * time.Minute,
			EscrowReleaseDelay:    24 * time.Hour,
			RefundCutoff:          24 * time.Hour,
			CagnotteHoldPercent:   50,
			CagnotteTTL:           48 * time.Hour,
			PayoutMaxAttempts:     5,
			PayoutProvider:        "sandbox",
			PublicBaseURL:         "http://localhost:8080",
		},
		Log: zap.NewNop(),
		Now: f.Now,
	}
	return f
}

func (f *Fixture) Now() time.Time { return f.now }

// Advance move o relógio compartilhado por repositório e use cases.
func (f *Fixture) Advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *Fixture) SetNow(t time.Time) { f.now = t }

// AddSlot cria um slot de 1h no terreno, começando em T0 + in.
func (f *Fixture) AddSlot(in time.Duration) *models.FieldAvailability {
	start := T0.Add(in)
	return f.Repo.AddSlot(models.FieldAvailability{
		FieldID:     f.Field.ID,
		Date:        time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		StartTime:   start.Format("15:04"),
		EndTime:     start.Add(time.Hour).Format("15:04"),
		StartsAt:    start,
		EndsAt:      start.Add(time.Hour),
		IsAvailable: true,
	})
}

// Payment devolve o pagamento pela referência (falha o teste se não existir).
func (f *Fixture) Payment(t *testing.T, ref string) models.Payment {
	t.Helper()
	for _, p := range f.Repo.Payments() {
		if p.Reference == ref {
			return p
		}
	}
	t.Fatalf("payment %s not found", ref)
	return models.Payment{}
}
