package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/httpresp"
	"github.com/BruksfildServices01/field-booking/internal/middleware"
	"github.com/BruksfildServices01/field-booking/internal/payment"
	paymentuc "github.com/BruksfildServices01/field-booking/internal/usecase/payment"
)

type PaymentHandler struct {
	gateways *payment.Registry
	apply    *paymentuc.ApplyPaymentResult
	sync     *paymentuc.SyncPayment
	log      *zap.Logger
}

func NewPaymentHandler(gateways *payment.Registry, apply *paymentuc.ApplyPaymentResult, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		gateways: gateways,
		apply:    apply,
		sync:     paymentuc.NewSyncPayment(apply),
		log:      log,
	}
}

// Webhook recebe a notificação do provedor. O corpo só identifica o pagamento;
// o estado vem sempre da consulta ao provedor.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	provider := c.Param("provider")

	gw, err := h.gateways.Get(provider)
	if err != nil {
		httperr.FromError(c, httperr.ErrBusiness("unsupported_provider"))
		return
	}

	n, err := gw.ParseNotification(c.Request)
	switch {
	case errors.Is(err, payment.ErrIgnoredEvent):
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	case errors.Is(err, payment.ErrInvalidSignature):
		h.log.Warn("webhook signature rejected", zap.String("provider", provider))
		httperr.Unauthorized(c, "invalid_signature", "Signature invalide.")
		return
	case err != nil:
		httperr.BadRequest(c, "invalid_request", httperr.MessageFor("invalid_request"))
		return
	}

	applied, err := h.apply.Execute(c.Request.Context(), provider, *n)
	if err != nil {
		code := httperr.CodeOf(err)
		if code == "booking_busy" || code == "cagnotte_busy" {
			// 409 faz o provedor reenviar
			httperr.FromError(c, err)
			return
		}
		if code != "" {
			// referência desconhecida etc.: confirmar para o provedor parar de reenviar
			h.log.Warn("webhook not applied",
				zap.String("provider", provider),
				zap.String("reference", n.Reference),
				zap.String("code", code),
			)
			c.JSON(http.StatusOK, gin.H{"status": "ignored", "reason": code})
			return
		}

		h.log.Error("webhook failed",
			zap.String("provider", provider),
			zap.String("reference", n.Reference),
			zap.Error(err),
		)
		httperr.Internal(c, "internal_error", httperr.MessageFor("internal_error"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "applied": applied})
}

// Sync é chamado pelo app ao voltar do checkout.
func (h *PaymentHandler) Sync(c *gin.Context) {
	p, err := h.sync.Execute(c.Request.Context(), middleware.UserID(c), c.Param("reference"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, p)
}
