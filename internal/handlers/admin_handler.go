package handlers

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/field-booking/internal/audit"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/httpresp"
	"github.com/BruksfildServices01/field-booking/internal/lock"
	"github.com/BruksfildServices01/field-booking/internal/middleware"
	"github.com/BruksfildServices01/field-booking/internal/models"
	"github.com/BruksfildServices01/field-booking/internal/usecase/automation"
	bookinguc "github.com/BruksfildServices01/field-booking/internal/usecase/booking"
)

var grantableRoles = []string{
	models.RoleUser,
	models.RoleOwner,
	models.RoleAdmin,
	models.RoleSuperAdmin,
}

// ======================================================
// HANDLER
// ======================================================

type AdminHandler struct {
	db         *gorm.DB
	automation *automation.ProcessAutomationTasks
	payouts    *bookinguc.ReleasePayout
	locker     lock.Locker
	audit      audit.Recorder
	log        *zap.Logger
	clock      func() time.Time
}

func NewAdminHandler(db *gorm.DB, deps bookinguc.Deps) *AdminHandler {
	return &AdminHandler{
		db:         db,
		automation: automation.NewProcessAutomationTasks(deps),
		payouts:    bookinguc.NewReleasePayout(deps),
		locker:     deps.Locker,
		audit:      deps.Audit,
		log:        deps.Log,
		clock:      deps.Clock,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type RejectFieldRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

type GrantRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ======================================================
// FIELDS
// ======================================================

func (h *AdminHandler) PendingFields(c *gin.Context) {
	var fields []models.Field
	if err := h.db.
		Preload("Photos").
		Where("approved = ? AND rejection_reason = ''", false).
		Order("created_at ASC").
		Find(&fields).Error; err != nil {

		httperr.FromError(c, err)
		return
	}
	httpresp.List(c, fields)
}

func (h *AdminHandler) loadField(c *gin.Context) (*models.Field, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}
	var f models.Field
	if err := h.db.First(&f, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.FromError(c, httperr.ErrBusiness("field_not_found"))
			return nil, false
		}
		httperr.FromError(c, err)
		return nil, false
	}
	return &f, true
}

func (h *AdminHandler) ApproveField(c *gin.Context) {
	f, ok := h.loadField(c)
	if !ok {
		return
	}

	adminID := middleware.UserID(c)
	now := h.clock()
	f.Approved = true
	f.ApprovedBy = &adminID
	f.ApprovedAt = &now
	f.RejectionReason = ""

	if err := h.db.Save(f).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	writeAudit(h.audit, c, "field_approved", "field", f.ID, nil)
	httpresp.OK(c, f)
}

func (h *AdminHandler) RejectField(c *gin.Context) {
	f, ok := h.loadField(c)
	if !ok {
		return
	}

	var req RejectFieldRequest
	if !bindJSON(c, &req) {
		return
	}

	f.Approved = false
	f.ApprovedBy = nil
	f.ApprovedAt = nil
	f.RejectionReason = strings.TrimSpace(req.Reason)

	if err := h.db.Save(f).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	writeAudit(h.audit, c, "field_rejected", "field", f.ID, gin.H{"reason": f.RejectionReason})
	httpresp.OK(c, f)
}

// ======================================================
// USERS & ROLES
// ======================================================

func (h *AdminHandler) Users(c *gin.Context) {
	page, limit, offset := pagination(c, 50, 200)

	q := h.db.Model(&models.User{})
	if s := strings.TrimSpace(c.Query("q")); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", like, like, like)
	}
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ? OR id IN (?)", role,
			h.db.Model(&models.UserRole{}).Select("user_id").Where("role = ?", role))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	var users []models.User
	if err := q.
		Preload("Roles").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error; err != nil {

		httperr.FromError(c, err)
		return
	}

	httpresp.Page(c, users, page, limit, total)
}

// só super_admin mexe em papéis administrativos
func (h *AdminHandler) canManage(c *gin.Context, role string) bool {
	if !slices.Contains(grantableRoles, role) {
		httperr.FromError(c, httperr.ErrBusiness("invalid_role"))
		return false
	}
	if (role == models.RoleAdmin || role == models.RoleSuperAdmin) && !middleware.HasRole(c, models.RoleSuperAdmin) {
		httperr.FromError(c, httperr.ErrBusiness("forbidden"))
		return false
	}
	return true
}

func (h *AdminHandler) loadUser(c *gin.Context) (*models.User, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}
	var u models.User
	if err := h.db.Preload("Roles").First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "user_not_found", "Utilisateur introuvable.")
			return nil, false
		}
		httperr.FromError(c, err)
		return nil, false
	}
	return &u, true
}

func (h *AdminHandler) GrantRole(c *gin.Context) {
	u, ok := h.loadUser(c)
	if !ok {
		return
	}

	var req GrantRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	if !h.canManage(c, req.Role) {
		return
	}

	adminID := middleware.UserID(c)
	row := models.UserRole{UserID: u.ID, Role: req.Role, GrantedBy: &adminID}
	if err := h.db.
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error; err != nil {

		httperr.FromError(c, err)
		return
	}

	writeAudit(h.audit, c, "role_granted", "user", u.ID, gin.H{"role": req.Role})

	h.db.Preload("Roles").First(u, u.ID)
	httpresp.OK(c, gin.H{"user": u, "roles": u.RoleNames()})
}

func (h *AdminHandler) RevokeRole(c *gin.Context) {
	u, ok := h.loadUser(c)
	if !ok {
		return
	}

	role := c.Param("role")
	if !h.canManage(c, role) {
		return
	}
	// o papel principal vem do cadastro e não é revogável
	if role == u.Role {
		httperr.FromError(c, httperr.ErrBusiness("invalid_role"))
		return
	}
	if u.ID == middleware.UserID(c) && role == models.RoleSuperAdmin {
		httperr.FromError(c, httperr.ErrBusiness("forbidden"))
		return
	}

	if err := h.db.
		Where("user_id = ? AND role = ?", u.ID, role).
		Delete(&models.UserRole{}).Error; err != nil {

		httperr.FromError(c, err)
		return
	}

	writeAudit(h.audit, c, "role_revoked", "user", u.ID, gin.H{"role": role})

	h.db.Preload("Roles").First(u, u.ID)
	httpresp.OK(c, gin.H{"user": u, "roles": u.RoleNames()})
}

// ======================================================
// PAYOUTS & AUTOMATION
// ======================================================

func (h *AdminHandler) Payouts(c *gin.Context) {
	page, limit, offset := pagination(c, 50, 200)

	q := h.db.Model(&models.Payout{})
	if s := c.Query("status"); s != "" {
		q = q.Where("status = ?", s)
	}
	if owner := queryUint(c, "owner_id"); owner != 0 {
		q = q.Where("owner_id = ?", owner)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	var out []models.Payout
	if err := q.Order("release_at DESC").Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.Page(c, out, page, limit, total)
}

// ReleasePayout força uma tentativa agora (repasses falhos ou vencidos).
func (h *AdminHandler) ReleasePayout(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	sent, err := h.payouts.Execute(c.Request.Context(), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	var po models.Payout
	if err := h.db.First(&po, id).Error; err != nil {
		httperr.FromError(c, err)
		return
	}

	writeAudit(h.audit, c, "payout_release_requested", "payout", id, gin.H{"sent": sent})
	httpresp.OK(c, gin.H{"sent": sent, "payout": po})
}

func (h *AdminHandler) RunAutomation(c *gin.Context) {
	ctx := c.Request.Context()

	release, err := h.locker.Acquire(ctx, automation.SweepLockKey, automation.SweepLockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		httperr.FromError(c, httperr.ErrBusiness("automation_running"))
		return
	}
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	defer release()

	rep, err := h.automation.Execute(ctx)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	h.log.Info("automation run by admin", zap.Uint("admin_id", middleware.UserID(c)), zap.Int("errors", rep.Errors))
	writeAudit(h.audit, c, "automation_run", "system", 0, rep)
	httpresp.OK(c, rep)
}
