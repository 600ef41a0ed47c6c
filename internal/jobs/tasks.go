// Package jobs define as tarefas assíncronas (asynq) e o agendador usado pelos use cases.
package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeBookingExpire   = "booking:expire"
	TypeCagnotteExpire  = "cagnotte:expire"
	TypePayoutRelease   = "payout:release"
	TypeAutomationSweep = "automation:sweep"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

type EntityPayload struct {
	ID uint `json:"id"`
}

func newEntityTask(typ string, id uint, at time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(EntityPayload{ID: id})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(typ, b)
	opts := []asynq.Option{
		asynq.ProcessAt(at),
		// mesmo prazo só é enfileirado uma vez
		asynq.TaskID(fmt.Sprintf("%s:%d:%d", typ, id, at.Unix())),
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(5),
	}
	return task, opts, nil
}

func NewBookingExpireTask(bookingID uint, at time.Time) (*asynq.Task, []asynq.Option, error) {
	return newEntityTask(TypeBookingExpire, bookingID, at)
}

func NewCagnotteExpireTask(cagnotteID uint, at time.Time) (*asynq.Task, []asynq.Option, error) {
	return newEntityTask(TypeCagnotteExpire, cagnotteID, at)
}

func NewPayoutReleaseTask(payoutID uint, at time.Time) (*asynq.Task, []asynq.Option, error) {
	return newEntityTask(TypePayoutRelease, payoutID, at)
}

func NewAutomationSweepTask() *asynq.Task {
	return asynq.NewTask(TypeAutomationSweep, nil)
}

func ParseEntity(task *asynq.Task) (EntityPayload, error) {
	var p EntityPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("%s payload: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	return p, nil
}
