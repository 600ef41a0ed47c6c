// Package notify transforma eventos de domínio em SMS.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/field-booking/internal/phone"
)

type SMSSender interface {
	Send(ctx context.Context, to, text string) error
}

// LogSender só registra o SMS; nenhum provedor de SMS está integrado.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, to, text string) error {
	formatted, err := phone.Format(to)
	if err != nil {
		formatted = to
	}
	s.log.Info("sms", zap.String("to", formatted), zap.String("text", text))
	return nil
}
