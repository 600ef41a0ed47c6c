package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/field-booking/internal/config"
	"github.com/BruksfildServices01/field-booking/internal/db/dbtest"
	"github.com/BruksfildServices01/field-booking/internal/handlers"
	"github.com/BruksfildServices01/field-booking/internal/infra/repository"
	"github.com/BruksfildServices01/field-booking/internal/middleware"
	"github.com/BruksfildServices01/field-booking/internal/models"
	"github.com/BruksfildServices01/field-booking/internal/storage"
	fielduc "github.com/BruksfildServices01/field-booking/internal/usecase/field"
	"github.com/BruksfildServices01/field-booking/internal/usecase/usecasetest"
)

const mediaURL = "http://media.test"

// backoffice: rotas de dono e admin que falam gorm direto, sobre SQLite.
type backoffice struct {
	db     *gorm.DB
	cfg    *config.Config
	store  *storage.MemoryStorage
	router *gin.Engine

	root   *models.User // super_admin concedido, papel principal user
	admin  *models.User
	owner  *models.User
	rival  *models.User
	player *models.User
}

func newBackoffice(t *testing.T) *backoffice {
	t.Helper()

	db := dbtest.Open(t)
	deps := usecasetest.New(t).Deps
	cfg := &config.Config{JWTSecret: "test-secret", CommissionRate: 0.10}
	store := storage.NewMemoryStorage(mediaURL)

	adminHandler := handlers.NewAdminHandler(db, deps)
	promoHandler := handlers.NewPromoHandler(db, deps)
	ownerFieldHandler := handlers.NewOwnerFieldHandler(
		db,
		cfg.CommissionRate,
		fielduc.NewGenerateSlots(repository.NewFieldGormRepository(db)),
		store,
		deps.Audit,
		zap.NewNop(),
	)

	r := gin.New()
	api := r.Group("/api")

	owner := api.Group("/owner")
	owner.Use(middleware.AuthMiddleware(cfg), middleware.RefreshRoles(db), middleware.RequireRole(models.RoleOwner))
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
	owner.GET("/promo-codes", promoHandler.List)
	owner.POST("/promo-codes", promoHandler.Create)
	owner.PUT("/promo-codes/:id", promoHandler.Update)
	owner.DELETE("/promo-codes/:id", promoHandler.Deactivate)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RefreshRoles(db), middleware.RequireRole(models.RoleAdmin))
	admin.GET("/fields/pending", adminHandler.PendingFields)
	admin.POST("/fields/:id/approve", adminHandler.ApproveField)
	admin.POST("/fields/:id/reject", adminHandler.RejectField)
	admin.GET("/users", adminHandler.Users)
	admin.POST("/users/:id/roles", adminHandler.GrantRole)
	admin.DELETE("/users/:id/roles/:role", adminHandler.RevokeRole)

	b := &backoffice{db: db, cfg: cfg, store: store, router: r}
	b.root = b.user(t, "Root", models.RoleUser, models.RoleSuperAdmin)
	b.admin = b.user(t, "Admin", models.RoleUser, models.RoleAdmin)
	b.owner = b.user(t, "Kouassi", models.RoleOwner)
	b.rival = b.user(t, "Traoré", models.RoleOwner)
	b.player = b.user(t, "Awa", models.RoleUser)
	return b
}

func (b *backoffice) user(t *testing.T, name, role string, granted ...string) *models.User {
	t.Helper()
	u := &models.User{
		Name:         name,
		Email:        strings.ToLower(name) + "@terrain.ci",
		PasswordHash: "x",
		Role:         role,
	}
	for _, g := range granted {
		u.Roles = append(u.Roles, models.UserRole{Role: g})
	}
	require.NoError(t, b.db.Create(u).Error)
	return u
}

func (b *backoffice) send(t *testing.T, req *http.Request, as *models.User) *httptest.ResponseRecorder {
	t.Helper()
	if as != nil {
		tok, err := middleware.NewToken(b.cfg.JWTSecret, as, 24*time.Hour, time.Now())
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	b.router.ServeHTTP(w, req)
	return w
}

func (b *backoffice) do(t *testing.T, method, path string, body any, as *models.User) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return b.send(t, req, as)
}

func (b *backoffice) createField(t *testing.T, as *models.User, name string) models.Field {
	t.Helper()
	w := b.do(t, http.MethodPost, "/api/owner/fields", gin.H{
		"name":      name,
		"sport":     " Football ",
		"city":      "Abidjan",
		"net_price": 20000,
	}, as)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return data[models.Field](t, w)
}

type rolesView struct {
	User  models.User `json:"user"`
	Roles []string    `json:"roles"`
}

// ======================================================
// ADMIN: PAPÉIS
// ======================================================

func TestAdminGrantRole(t *testing.T) {
	b := newBackoffice(t)
	path := fmt.Sprintf("/api/admin/users/%d/roles", b.player.ID)

	w := b.do(t, http.MethodPost, path, gin.H{"role": models.RoleOwner}, b.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.ElementsMatch(t, []string{"user", "owner"}, data[rolesView](t, w).Roles)

	// admin comum não cria outros admins
	w = b.do(t, http.MethodPost, path, gin.H{"role": models.RoleAdmin}, b.admin)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", errorCode(t, w))

	w = b.do(t, http.MethodPost, path, gin.H{"role": models.RoleSuperAdmin}, b.admin)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = b.do(t, http.MethodPost, path, gin.H{"role": models.RoleAdmin}, b.root)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.ElementsMatch(t, []string{"user", "owner", "admin"}, data[rolesView](t, w).Roles)

	// conceder de novo não duplica
	w = b.do(t, http.MethodPost, path, gin.H{"role": models.RoleAdmin}, b.root)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var n int64
	require.NoError(t, b.db.Model(&models.UserRole{}).Where("user_id = ? AND role = ?", b.player.ID, models.RoleAdmin).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	var grant models.UserRole
	require.NoError(t, b.db.Where("user_id = ? AND role = ?", b.player.ID, models.RoleOwner).First(&grant).Error)
	require.NotNil(t, grant.GrantedBy)
	assert.Equal(t, b.admin.ID, *grant.GrantedBy)
}

func TestAdminGrantRoleRejections(t *testing.T) {
	b := newBackoffice(t)

	w := b.do(t, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/roles", b.player.ID), gin.H{"role": "king"}, b.root)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_role", errorCode(t, w))

	w = b.do(t, http.MethodPost, "/api/admin/users/999/roles", gin.H{"role": models.RoleOwner}, b.root)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user_not_found", errorCode(t, w))

	w = b.do(t, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/roles", b.player.ID), gin.H{}, b.root)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// dono não entra no admin
	w = b.do(t, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/roles", b.player.ID), gin.H{"role": models.RoleOwner}, b.owner)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminRevokeRole(t *testing.T) {
	b := newBackoffice(t)

	// admin comum não revoga admin
	w := b.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d/roles/admin", b.admin.ID), nil, b.admin)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// papel principal não sai
	w = b.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d/roles/owner", b.owner.ID), nil, b.root)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_role", errorCode(t, w))

	// ninguém tira o próprio super_admin
	w = b.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d/roles/super_admin", b.root.ID), nil, b.root)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = b.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d/roles/admin", b.admin.ID), nil, b.root)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"user"}, data[rolesView](t, w).Roles)
}

func TestRevokedAdminLosesAccessImmediately(t *testing.T) {
	b := newBackoffice(t)

	// o token emitido agora carrega "admin" por 24h
	tok, err := middleware.NewToken(b.cfg.JWTSecret, b.admin, 24*time.Hour, time.Now())
	require.NoError(t, err)
	list := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		b.router.ServeHTTP(w, req)
		return w.Code
	}
	require.Equal(t, http.StatusOK, list())

	w := b.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d/roles/admin", b.admin.ID), nil, b.root)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, http.StatusForbidden, list())
}

func TestAdminUsersFilters(t *testing.T) {
	b := newBackoffice(t)

	w := b.do(t, http.MethodGet, "/api/admin/users?role=owner", nil, b.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page struct {
		Total int64         `json:"total"`
		Data  []models.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(2), page.Total)

	w = b.do(t, http.MethodGet, "/api/admin/users?role=admin", nil, b.admin)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, b.admin.ID, page.Data[0].ID)

	w = b.do(t, http.MethodGet, "/api/admin/users?q=AWA", nil, b.admin)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, b.player.ID, page.Data[0].ID)
}

// ======================================================
// ADMIN: APROVAÇÃO DE TERRENOS
// ======================================================

func TestAdminFieldReview(t *testing.T) {
	b := newBackoffice(t)

	good := b.createField(t, b.owner, "Terrain Cocody")
	bad := b.createField(t, b.owner, "Terrain Fantôme")
	assert.False(t, good.Approved)

	w := b.do(t, http.MethodGet, "/api/admin/fields/pending", nil, b.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, data[[]models.Field](t, w), 2)

	w = b.do(t, http.MethodPost, fmt.Sprintf("/api/admin/fields/%d/approve", good.ID), nil, b.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	approved := data[models.Field](t, w)
	assert.True(t, approved.Approved)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, b.admin.ID, *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)

	// recusa exige motivo
	w = b.do(t, http.MethodPost, fmt.Sprintf("/api/admin/fields/%d/reject", bad.ID), gin.H{}, b.admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", errorCode(t, w))

	w = b.do(t, http.MethodPost, fmt.Sprintf("/api/admin/fields/%d/reject", bad.ID), gin.H{"reason": "  Photos floues  "}, b.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rejected := data[models.Field](t, w)
	assert.False(t, rejected.Approved)
	assert.Equal(t, "Photos floues", rejected.RejectionReason)

	w = b.do(t, http.MethodGet, "/api/admin/fields/pending", nil, b.admin)
	assert.Empty(t, data[[]models.Field](t, w))

	var stored models.Field
	require.NoError(t, b.db.First(&stored, good.ID).Error)
	assert.True(t, stored.Approved)

	w = b.do(t, http.MethodPost, "/api/admin/fields/999/approve", nil, b.admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "field_not_found", errorCode(t, w))

	w = b.do(t, http.MethodPost, fmt.Sprintf("/api/admin/fields/%d/approve", bad.ID), nil, b.owner)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// ======================================================
// DONO: CÓDIGOS PROMO
// ======================================================

func TestOwnerPromoCodes(t *testing.T) {
	b := newBackoffice(t)
	mine := b.createField(t, b.owner, "Terrain Cocody")
	theirs := b.createField(t, b.rival, "Terrain Yopougon")

	w := b.do(t, http.MethodPost, "/api/owner/promo-codes", gin.H{
		"code": " ete10 ", "discount_type": "percent", "discount_value": 10, "field_ids": []uint{mine.ID},
	}, b.owner)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	pc := data[models.PromoCode](t, w)
	assert.Equal(t, "ETE10", pc.Code)
	assert.True(t, pc.Active)
	assert.Equal(t, []uint{mine.ID}, []uint(pc.FieldIDs))
	assert.Equal(t, b.owner.ID, pc.OwnerID)

	// terreno de outro dono
	w = b.do(t, http.MethodPost, "/api/owner/promo-codes", gin.H{
		"code": "VOLE", "discount_type": "fixed", "discount_value": 1000, "field_ids": []uint{theirs.ID},
	}, b.owner)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "field_not_found", errorCode(t, w))

	w = b.do(t, http.MethodPost, "/api/owner/promo-codes", gin.H{
		"code": "TROP", "discount_type": "percent", "discount_value": 150,
	}, b.owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", errorCode(t, w))

	w = b.do(t, http.MethodGet, "/api/owner/promo-codes", nil, b.owner)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, data[[]models.PromoCode](t, w), 1)

	w = b.do(t, http.MethodGet, "/api/owner/promo-codes", nil, b.rival)
	assert.Empty(t, data[[]models.PromoCode](t, w))

	path := fmt.Sprintf("/api/owner/promo-codes/%d", pc.ID)
	update := gin.H{"code": "ETE15", "discount_type": "percent", "discount_value": 15, "weekdays": []int{6, 0}}

	w = b.do(t, http.MethodPut, path, update, b.rival)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "promo_not_found", errorCode(t, w))

	w = b.do(t, http.MethodPut, path, update, b.owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := data[models.PromoCode](t, w)
	assert.Equal(t, "ETE15", updated.Code)
	assert.Equal(t, int64(15), updated.DiscountValue)
	assert.Equal(t, []int{6, 0}, []int(updated.Weekdays))

	w = b.do(t, http.MethodDelete, path, nil, b.rival)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = b.do(t, http.MethodDelete, path, nil, b.owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, data[models.PromoCode](t, w).Active)

	var stored models.PromoCode
	require.NoError(t, b.db.First(&stored, pc.ID).Error)
	assert.False(t, stored.Active)
	assert.Equal(t, "ETE15", stored.Code)

	w = b.do(t, http.MethodPost, "/api/owner/promo-codes", gin.H{
		"code": "JOUEUR", "discount_type": "fixed", "discount_value": 500,
	}, b.player)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// ======================================================
// DONO: TERRENOS, GRADE, SLOTS E FOTOS
// ======================================================

func TestOwnerFieldCreateAndUpdate(t *testing.T) {
	b := newBackoffice(t)

	f := b.createField(t, b.owner, "Terrain Cocody")
	assert.Equal(t, b.owner.ID, f.OwnerID)
	assert.Equal(t, "football", f.Sport)
	assert.Equal(t, "Africa/Abidjan", f.Timezone)
	assert.Equal(t, int64(20000), f.NetPrice)
	assert.Equal(t, int64(22000), f.PublicPrice)
	assert.True(t, f.Active)
	assert.False(t, f.Approved)

	w := b.do(t, http.MethodPost, "/api/owner/fields", gin.H{"name": "Sans ville", "sport": "football", "net_price": 1000}, b.owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = b.do(t, http.MethodPost, "/api/owner/fields", gin.H{
		"name": "Ailleurs", "sport": "football", "city": "Abidjan", "net_price": 1000, "timezone": "Mars/Olympus",
	}, b.owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := fmt.Sprintf("/api/owner/fields/%d", f.ID)

	w = b.do(t, http.MethodPatch, path, gin.H{"name": "Volé"}, b.rival)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "field_not_found", errorCode(t, w))

	w = b.do(t, http.MethodPatch, path, gin.H{"net_price": 30000, "deposit_percent": 40}, b.owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := data[models.Field](t, w)
	assert.Equal(t, int64(30000), got.NetPrice)
	assert.Equal(t, int64(33000), got.PublicPrice)
	assert.Equal(t, 40, got.DepositPercent)
	assert.Equal(t, "Terrain Cocody", got.Name)

	w = b.do(t, http.MethodPatch, path, gin.H{"net_price": 0}, b.owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_price", errorCode(t, w))

	w = b.do(t, http.MethodPatch, path, gin.H{"name": "  "}, b.owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = b.do(t, http.MethodGet, "/api/owner/fields", nil, b.owner)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, data[[]models.Field](t, w), 1)

	w = b.do(t, http.MethodGet, "/api/owner/fields", nil, b.rival)
	assert.Empty(t, data[[]models.Field](t, w))
}

func TestOwnerScheduleAndSlots(t *testing.T) {
	b := newBackoffice(t)
	f := b.createField(t, b.owner, "Terrain Cocody")
	base := fmt.Sprintf("/api/owner/fields/%d", f.ID)

	// sem grade não há o que gerar
	w := b.do(t, http.MethodPost, base+"/slots/generate", gin.H{"from": "2026-06-01", "to": "2026-06-14"}, b.owner)
	assert.Equal(t, "no_schedule", errorCode(t, w))

	monday := gin.H{"weekday": 1, "active": true, "open_time": "08:00", "close_time": "10:00", "slot_minutes": 60}

	w = b.do(t, http.MethodPut, base+"/schedule", gin.H{"days": []gin.H{monday, monday}}, b.owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = b.do(t, http.MethodPut, base+"/schedule", gin.H{"days": []gin.H{
		{"weekday": 2, "active": true, "open_time": "10:00", "close_time": "08:00", "slot_minutes": 60},
	}}, b.owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = b.do(t, http.MethodPut, base+"/schedule", gin.H{"days": []gin.H{
		monday,
		{"weekday": 0, "active": false},
	}}, b.owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = b.do(t, http.MethodPut, base+"/schedule", gin.H{"days": []gin.H{monday}}, b.rival)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = b.do(t, http.MethodGet, base+"/schedule", nil, b.owner)
	require.Equal(t, http.StatusOK, w.Code)
	days := data[[]models.FieldSchedule](t, w)
	require.Len(t, days, 2)
	assert.Equal(t, 0, days[0].Weekday)
	assert.Equal(t, 60, days[0].SlotMinutes)
	assert.Equal(t, "08:00", days[1].OpenTime)

	// 2026-06-01 e 2026-06-08 são segundas: 2 dias x 2 slots
	gen := gin.H{"from": "2026-06-01", "to": "2026-06-14"}
	w = b.do(t, http.MethodPost, base+"/slots/generate", gen, b.owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"created":4}`, string(mustData(t, w)))

	w = b.do(t, http.MethodPost, base+"/slots/generate", gen, b.owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"created":0}`, string(mustData(t, w)))

	w = b.do(t, http.MethodPost, base+"/slots/generate", gin.H{"from": "01/06/2026", "to": "2026-06-14"}, b.owner)
	assert.Equal(t, "invalid_date", errorCode(t, w))

	w = b.do(t, http.MethodGet, base+"/slots?from=2026-06-01&to=2026-06-14", nil, b.owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	slots := data[[]models.FieldAvailability](t, w)
	require.Len(t, slots, 4)
	assert.Equal(t, "08:00", slots[0].StartTime)

	w = b.do(t, http.MethodGet, base+"/slots?from=2026-06-14&to=2026-06-01", nil, b.owner)
	assert.Equal(t, "invalid_date_range", errorCode(t, w))

	slotPath := fmt.Sprintf("/api/owner/slots/%d", slots[0].ID)

	w = b.do(t, http.MethodPatch, slotPath, gin.H{"is_available": false}, b.rival)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "slot_not_found", errorCode(t, w))

	w = b.do(t, http.MethodPatch, slotPath, gin.H{"price_override": 0}, b.owner)
	assert.Equal(t, "invalid_price", errorCode(t, w))

	w = b.do(t, http.MethodPatch, slotPath, gin.H{"is_available": false, "price_override": 25000}, b.owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	slot := data[models.FieldAvailability](t, w)
	assert.False(t, slot.IsAvailable)
	require.NotNil(t, slot.PriceOverride)
	assert.Equal(t, int64(25000), *slot.PriceOverride)

	w = b.do(t, http.MethodPatch, slotPath, gin.H{"clear_price": true}, b.owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, data[models.FieldAvailability](t, w).PriceOverride)
}

func mustData(t *testing.T, w *httptest.ResponseRecorder) json.RawMessage {
	t.Helper()
	return data[json.RawMessage](t, w)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 5 {
		img.Set(x, h/2, color.RGBA{G: 160, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (b *backoffice) upload(t *testing.T, path, field string, content []byte, as *models.User) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if content != nil {
		part, err := mw.CreateFormFile(field, "terrain.png")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return b.send(t, req, as)
}

func TestOwnerFieldPhotos(t *testing.T) {
	b := newBackoffice(t)
	f := b.createField(t, b.owner, "Terrain Cocody")
	path := fmt.Sprintf("/api/owner/fields/%d/photos", f.ID)

	w := b.upload(t, path, "photo", pngBytes(t, 64, 48), b.owner)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	photo := data[models.FieldPhoto](t, w)
	assert.Equal(t, f.ID, photo.FieldID)
	assert.Equal(t, 64, photo.Width)
	assert.Equal(t, 48, photo.Height)
	assert.Equal(t, 0, photo.Position)

	prefix := fmt.Sprintf("%s/fields/%d/", mediaURL, f.ID)
	require.True(t, strings.HasPrefix(photo.URL, prefix), photo.URL)
	assert.True(t, strings.HasSuffix(photo.URL, ".webp"))
	key := strings.TrimPrefix(photo.URL, mediaURL+"/")
	_, stored := b.store.Get(key)
	assert.True(t, stored)

	w = b.upload(t, path, "photo", []byte("pas une image"), b.owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_image", errorCode(t, w))

	w = b.upload(t, path, "image", pngBytes(t, 10, 10), b.owner)
	assert.Equal(t, "invalid_image", errorCode(t, w))

	w = b.upload(t, path, "photo", pngBytes(t, 10, 10), b.rival)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = b.do(t, http.MethodGet, "/api/owner/fields", nil, b.owner)
	fields := data[[]models.Field](t, w)
	require.Len(t, fields, 1)
	assert.Len(t, fields[0].Photos, 1)

	del := fmt.Sprintf("%s/%d", path, photo.ID)
	w = b.do(t, http.MethodDelete, del, nil, b.rival)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = b.do(t, http.MethodDelete, del, nil, b.owner)
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, stored = b.store.Get(key)
	assert.False(t, stored)

	var n int64
	require.NoError(t, b.db.Model(&models.FieldPhoto{}).Where("field_id = ?", f.ID).Count(&n).Error)
	assert.Zero(t, n)
}

func TestOwnerFieldPhotoLimit(t *testing.T) {
	b := newBackoffice(t)
	f := b.createField(t, b.owner, "Terrain Cocody")

	for i := 0; i < 10; i++ {
		require.NoError(t, b.db.Create(&models.FieldPhoto{
			FieldID: f.ID, ObjectKey: fmt.Sprintf("k%d", i), URL: fmt.Sprintf("%s/k%d", mediaURL, i), Position: i,
		}).Error)
	}

	w := b.upload(t, fmt.Sprintf("/api/owner/fields/%d/photos", f.ID), "photo", pngBytes(t, 10, 10), b.owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", errorCode(t, w))
}
