package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/field-booking/internal/bootstrap"
	"github.com/BruksfildServices01/field-booking/internal/config"
	"github.com/BruksfildServices01/field-booking/internal/handlers"
	infraRepo "github.com/BruksfildServices01/field-booking/internal/infra/repository"
	"github.com/BruksfildServices01/field-booking/internal/middleware"
	"github.com/BruksfildServices01/field-booking/internal/models"
	"github.com/BruksfildServices01/field-booking/internal/storage"
	"github.com/BruksfildServices01/field-booking/internal/timezone"
	chatuc "github.com/BruksfildServices01/field-booking/internal/usecase/chat"
	fielduc "github.com/BruksfildServices01/field-booking/internal/usecase/field"
	paymentuc "github.com/BruksfildServices01/field-booking/internal/usecase/payment"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, infra *bootstrap.Infra) {

	// ======================================================
	// 🌍 MIDDLEWARE GLOBAL
	// ======================================================
	limiter := infra.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(cfg.RateLimitPerMin, infra.Log)
	}

	r.Use(middleware.Recovery(infra.Log))
	r.Use(middleware.RequestLogger(infra.Log))
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// sem bucket, as fotos são servidas da memória (só desenvolvimento)
	if mem, ok := infra.Storage.(*storage.MemoryStorage); ok {
		r.GET("/media/*key", func(c *gin.Context) {
			body, found := mem.Get(strings.TrimPrefix(c.Param("key"), "/"))
			if !found {
				c.Status(http.StatusNotFound)
				return
			}
			c.Data(http.StatusOK, "image/webp", body)
		})
	}

	// ======================================================
	// 🔧 INFRA (SINGLETONS)
	// ======================================================
	fieldRepo := infraRepo.NewFieldGormRepository(db)
	chatRepo := infraRepo.NewChatGormRepository(db)

	deps := infra.BookingDeps(db, cfg)

	// ======================================================
	// 🧠 USE CASES
	// ======================================================
	searchFieldsUC := fielduc.NewSearchFields(fieldRepo, timezone.Now)
	listFieldSlotsUC := fielduc.NewListFieldSlots(fieldRepo, timezone.Now)
	generateSlotsUC := fielduc.NewGenerateSlots(fieldRepo)

	applyPaymentUC := paymentuc.NewApplyPaymentResult(deps)
	chatService := chatuc.NewService(chatRepo, timezone.Now)

	// ======================================================
	// 🧩 HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, cfg)
	meHandler := handlers.NewMeHandler(db)

	fieldHandler := handlers.NewFieldHandler(fieldRepo, searchFieldsUC, listFieldSlotsUC)
	ownerFieldHandler := handlers.NewOwnerFieldHandler(
		db,
		cfg.CommissionRate,
		generateSlotsUC,
		infra.Storage,
		infra.Audit,
		infra.Log,
	)

	bookingHandler := handlers.NewBookingHandler(deps, cfg.Timezone)
	paymentHandler := handlers.NewPaymentHandler(infra.Gateways, applyPaymentUC, infra.Log)
	cagnotteHandler := handlers.NewCagnotteHandler(db, deps)
	promoHandler := handlers.NewPromoHandler(db, deps)
	chatHandler := handlers.NewChatHandler(chatService)
	payoutHandler := handlers.NewPayoutHandler(db)

	adminHandler := handlers.NewAdminHandler(db, deps)
	auditLogsHandler := handlers.NewAuditLogsHandler(db)

	// ======================================================
	// 🌐 API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// 🔐 AUTH
		// ------------------------------
		authAPI := api.Group("/auth")
		authAPI.Use(limiter.Middleware())
		{
			authAPI.POST("/register", authHandler.Register)
			authAPI.POST("/login", authHandler.Login)
		}

		// ------------------------------
		// 💳 WEBHOOKS
		// ------------------------------
		api.POST("/webhooks/:provider", limiter.Middleware(), paymentHandler.Webhook)

		// ------------------------------
		// 🌐 API PÚBLICA
		// ------------------------------
		publicAPI := api.Group("/")
		publicAPI.Use(limiter.Middleware(), middleware.OptionalAuth(cfg))
		{
			publicAPI.GET("/fields", fieldHandler.Search)
			publicAPI.GET("/fields/:id", fieldHandler.Get)
			publicAPI.GET("/fields/:id/slots", fieldHandler.Slots)
			publicAPI.GET("/cagnottes/:id", cagnotteHandler.Get)
		}

		// ------------------------------
		// 🔐 API PRIVADA
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/me", meHandler.GetMe)
			secured.PATCH("/me", meHandler.UpdateMe)

			secured.POST("/promo-codes/validate", promoHandler.Validate)

			// ------------------------------
			// BOOKINGS
			// ------------------------------
			secured.POST("/bookings", bookingHandler.Create)
			secured.GET("/bookings", bookingHandler.ListMine)
			secured.GET("/bookings/:id", bookingHandler.Get)
			secured.POST("/bookings/:id/pay", bookingHandler.Pay)
			secured.POST("/bookings/:id/cancel", bookingHandler.Cancel)
			secured.GET("/payments/:reference", paymentHandler.Sync)

			// ------------------------------
			// CAGNOTTES
			// ------------------------------
			secured.GET("/cagnottes", cagnotteHandler.ListMine)
			secured.POST("/cagnottes", cagnotteHandler.Create)
			secured.POST("/cagnottes/:id/contribute", cagnotteHandler.Contribute)
			secured.POST("/cagnottes/:id/cancel", cagnotteHandler.Cancel)

			// ------------------------------
			// CHAT
			// ------------------------------
			secured.POST("/bookings/:id/conversation", chatHandler.Open)
			secured.GET("/conversations", chatHandler.List)
			secured.GET("/conversations/:id/messages", chatHandler.Messages)
			secured.POST("/conversations/:id/messages", chatHandler.Send)
			secured.POST("/conversations/:id/read", chatHandler.MarkRead)
		}

		// ------------------------------
		// 🏟️ DONO
		// ------------------------------
		owner := api.Group("/owner")
		owner.Use(middleware.AuthMiddleware(cfg), middleware.RefreshRoles(db), middleware.RequireRole(models.RoleOwner))
		{
			owner.GET("/fields", ownerFieldHandler.List)
			owner.POST("/fields", ownerFieldHandler.Create)
			owner.PATCH("/fields/:id", ownerFieldHandler.Update)

			owner.GET("/fields/:id/schedule", ownerFieldHandler.GetSchedule)
			owner.PUT("/fields/:id/schedule", ownerFieldHandler.UpdateSchedule)

			owner.GET("/fields/:id/slots", ownerFieldHandler.ListSlots)
			owner.POST("/fields/:id/slots/generate", ownerFieldHandler.GenerateSlots)
			owner.PATCH("/slots/:id", ownerFieldHandler.UpdateSlot)

			owner.POST("/fields/:id/photos", ownerFieldHandler.UploadPhoto)
			owner.DELETE("/fields/:id/photos/:photoId", ownerFieldHandler.DeletePhoto)

			owner.GET("/bookings", bookingHandler.OwnerList)
			owner.POST("/bookings/:id/approve", bookingHandler.Approve)
			owner.POST("/bookings/:id/reject", bookingHandler.Reject)
			owner.POST("/bookings/:id/confirm", bookingHandler.Confirm)
			owner.POST("/bookings/:id/cancel", bookingHandler.OwnerCancel)
			owner.GET("/dashboard", bookingHandler.Dashboard)

			owner.GET("/promo-codes", promoHandler.List)
			owner.POST("/promo-codes", promoHandler.Create)
			owner.PUT("/promo-codes/:id", promoHandler.Update)
			owner.DELETE("/promo-codes/:id", promoHandler.Deactivate)

			owner.GET("/payouts", payoutHandler.List)
		}

		// ------------------------------
		// 🛡️ ADMIN
		// ------------------------------
		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(cfg), middleware.RefreshRoles(db), middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/fields/pending", adminHandler.PendingFields)
			admin.POST("/fields/:id/approve", adminHandler.ApproveField)
			admin.POST("/fields/:id/reject", adminHandler.RejectField)

			admin.GET("/users", adminHandler.Users)
			admin.POST("/users/:id/roles", adminHandler.GrantRole)
			admin.DELETE("/users/:id/roles/:role", adminHandler.RevokeRole)

			admin.GET("/payouts", adminHandler.Payouts)
			admin.POST("/payouts/:id/release", adminHandler.ReleasePayout)

			admin.GET("/audit-logs", auditLogsHandler.List)
			admin.POST("/automation/run", adminHandler.RunAutomation)
		}
	}
}
