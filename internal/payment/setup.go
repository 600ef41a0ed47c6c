package payment

import (
	"go.uber.org/zap"

	"github.com/BruksfildServices01/field-booking/internal/config"
)

// FromConfig registra só os provedores com credenciais. O sandbox confirma
// pagamentos sem provedor real e só entra com PAYMENT_SANDBOX=true fora de produção.
func FromConfig(cfg *config.Config, log *zap.Logger) *Registry {
	r := NewRegistry()

	if cfg.StripeSecretKey != "" {
		r.Register(NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret))
	}
	if cfg.CinetPayAPIKey != "" && cfg.CinetPaySiteID != "" {
		r.Register(NewCinetPay(CinetPayConfig{
			APIKey:           cfg.CinetPayAPIKey,
			SiteID:           cfg.CinetPaySiteID,
			SecretKey:        cfg.CinetPaySecretKey,
			TransferPassword: cfg.CinetPayTransferPassword,
		}))
	}
	if cfg.PayDunyaMasterKey != "" {
		r.Register(NewPayDunya(PayDunyaConfig{
			MasterKey:  cfg.PayDunyaMasterKey,
			PrivateKey: cfg.PayDunyaPrivateKey,
			Token:      cfg.PayDunyaToken,
			Sandbox:    cfg.PayDunyaSandbox,
			StoreName:  "Terrains",
		}))
	}
	if cfg.MercadoPagoAccessToken != "" {
		mp, err := NewMercadoPago(cfg.MercadoPagoAccessToken)
		if err != nil {
			log.Error("mercadopago disabled", zap.Error(err))
		} else {
			r.Register(mp)
		}
	}
	switch {
	case cfg.PaymentSandbox && cfg.IsProduction():
		log.Error("PAYMENT_SANDBOX ignored in production")
	case cfg.PaymentSandbox:
		log.Warn("SANDBOX PAYMENTS ENABLED: anyone can confirm bookings through /api/webhooks/sandbox",
			zap.String("env", cfg.Env),
		)
		r.Register(NewSandbox())
	}

	log.Info("payment providers", zap.Strings("providers", r.Names()))
	return r
}
