package httperr

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type HTTPError struct {
	Success bool   `json:"success"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, HTTPError{
		Success: false,
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c *gin.Context, code, message string) {
	Write(c, http.StatusForbidden, code, message)
}

func Conflict(c *gin.Context, code, message string) {
	Write(c, http.StatusConflict, code, message)
}

// ======================================================
// Mapeamento de erros de negócio
// ======================================================

var conflictCodes = map[string]bool{
	"slot_unavailable":    true,
	"slot_on_hold":        true,
	"slot_busy":           true,
	"already_exists":      true,
	"promo_exhausted":     true,
	"cagnotte_exists":     true,
	"exceeds_target":      true,
	"payment_pending":     true,
	"booking_busy":        true,
	"cagnotte_busy":       true,
	"payout_already_sent": true,
	"automation_running":  true,
}

var messages = map[string]string{
	"invalid_request":        "Données invalides.",
	"forbidden":              "Accès refusé.",
	"unauthorized":           "Authentification requise.",
	"not_found":              "Ressource introuvable.",
	"already_exists":         "Cette ressource existe déjà.",
	"invalid_transition":     "Action impossible dans l'état actuel de la réservation.",
	"invalid_state":          "Action impossible dans l'état actuel.",
	"slot_not_found":         "Créneau introuvable.",
	"slot_unavailable":       "Ce créneau n'est plus disponible.",
	"slot_on_hold":           "Ce créneau est temporairement réservé par un autre utilisateur.",
	"slot_busy":              "Ce créneau est en cours de réservation, réessayez dans un instant.",
	"slot_in_past":           "Ce créneau est déjà passé.",
	"field_not_found":        "Terrain introuvable.",
	"field_unavailable":      "Ce terrain n'est pas disponible à la réservation.",
	"no_schedule":            "Aucun horaire n'est défini pour ce terrain.",
	"booking_not_found":      "Réservation introuvable.",
	"own_field":              "Vous ne pouvez pas réserver votre propre terrain.",
	"booking_expired":        "Cette réservation a expiré.",
	"booking_busy":           "Cette réservation est en cours de traitement, réessayez dans un instant.",
	"too_early":              "Le match n'est pas encore terminé.",
	"invalid_status":         "Statut invalide.",
	"invalid_date_range":     "Période invalide.",
	"invalid_date":           "Date invalide.",
	"invalid_payment_mode":   "Mode de paiement invalide.",
	"invalid_price":          "Prix invalide.",
	"payment_window_closed":  "Le délai de paiement est dépassé.",
	"payment_not_found":      "Paiement introuvable.",
	"payment_pending":        "Un paiement est déjà en cours.",
	"unsupported_provider":   "Moyen de paiement non disponible.",
	"gateway_error":          "Le prestataire de paiement est indisponible.",
	"refund_failed":          "Le remboursement a échoué, veuillez réessayer.",
	"promo_not_found":        "Code promo introuvable.",
	"promo_inactive":         "Ce code promo n'est plus actif.",
	"promo_not_started":      "Ce code promo n'est pas encore valable.",
	"promo_expired":          "Ce code promo a expiré.",
	"promo_not_applicable":   "Ce code promo ne s'applique pas à ce terrain.",
	"promo_wrong_day":        "Ce code promo n'est pas valable ce jour-là.",
	"promo_wrong_time":       "Ce code promo n'est pas valable sur ce créneau.",
	"promo_min_amount":       "Le montant minimum pour ce code promo n'est pas atteint.",
	"promo_exhausted":        "Ce code promo a atteint sa limite d'utilisation.",
	"promo_user_limit":       "Vous avez déjà utilisé ce code promo.",
	"cagnotte_not_found":     "Cagnotte introuvable.",
	"cagnotte_exists":        "Une cagnotte est déjà ouverte pour ce créneau.",
	"cagnotte_closed":        "Cette cagnotte n'accepte plus de participations.",
	"cagnotte_booking":       "Cette réservation est gérée par une cagnotte.",
	"cagnotte_busy":          "Cette cagnotte est en cours de traitement, réessayez dans un instant.",
	"contribution_not_found": "Participation introuvable.",
	"exceeds_target":         "Le montant dépasse le reste à collecter.",
	"invalid_amount":         "Montant invalide.",
	"too_late":               "Il est trop tard pour cette opération.",
	"conversation_not_found": "Conversation introuvable.",
	"invalid_message":        "Le message doit contenir entre 1 et 2000 caractères.",
	"invalid_phone":          "Numéro de téléphone invalide.",
	"invalid_role":           "Rôle invalide.",
	"payout_not_found":       "Versement introuvable.",
	"payout_already_sent":    "Le versement au propriétaire a déjà été effectué.",
	"invalid_credentials":    "Email ou mot de passe incorrect.",
	"email_taken":            "Cet email est déjà utilisé.",
	"invalid_image":          "Image invalide (JPEG, PNG ou WebP, 8 Mo maximum).",
	"storage_unavailable":    "Le stockage des photos n'est pas configuré.",
	"too_many_requests":      "Trop de requêtes, réessayez plus tard.",
	"automation_running":     "Un traitement automatique est déjà en cours.",
	"internal_error":         "Erreur interne, veuillez réessayer.",
}

// StatusFor devolve o status HTTP de um código de negócio.
func StatusFor(code string) int {
	switch {
	case code == "forbidden":
		return http.StatusForbidden
	case code == "unauthorized":
		return http.StatusUnauthorized
	case code == "not_found" || strings.HasSuffix(code, "_not_found"):
		return http.StatusNotFound
	case conflictCodes[code]:
		return http.StatusConflict
	case code == "invalid_transition" || code == "invalid_state":
		return http.StatusUnprocessableEntity
	case code == "gateway_error" || code == "refund_failed":
		return http.StatusBadGateway
	case code == "too_many_requests":
		return http.StatusTooManyRequests
	case code == "storage_unavailable":
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func MessageFor(code string) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return "Requête invalide."
}

// FromError responde qualquer erro vindo de use case / repositório.
func FromError(c *gin.Context, err error) {
	var be BusinessError
	switch {
	case errors.As(err, &be):
		Write(c, StatusFor(be.Code), be.Code, MessageFor(be.Code))
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "not_found", MessageFor("not_found"))
	case IsUniqueViolation(err):
		Conflict(c, "already_exists", MessageFor("already_exists"))
	case IsExclusionConflict(err):
		Conflict(c, "slot_unavailable", MessageFor("slot_unavailable"))
	default:
		zap.L().Error("unhandled error",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		Internal(c, "internal_error", MessageFor("internal_error"))
	}
}
