package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/httpresp"
	"github.com/BruksfildServices01/field-booking/internal/middleware"
	"github.com/BruksfildServices01/field-booking/internal/models"
	bookinguc "github.com/BruksfildServices01/field-booking/internal/usecase/booking"
	cagnotteuc "github.com/BruksfildServices01/field-booking/internal/usecase/cagnotte"
)

type CagnotteHandler struct {
	db         *gorm.DB
	create     *cagnotteuc.CreateCagnotte
	contribute *cagnotteuc.Contribute
	get        *cagnotteuc.GetCagnotte
	close      *cagnotteuc.CloseCagnotte
}

func NewCagnotteHandler(db *gorm.DB, deps bookinguc.Deps) *CagnotteHandler {
	return &CagnotteHandler{
		db:         db,
		create:     cagnotteuc.NewCreateCagnotte(deps),
		contribute: cagnotteuc.NewContribute(deps),
		get:        cagnotteuc.NewGetCagnotte(deps),
		close:      cagnotteuc.NewCloseCagnotte(deps),
	}
}

type CreateCagnotteRequest struct {
	SlotID uint   `json:"slot_id" binding:"required"`
	Title  string `json:"title" binding:"max=120"`
}

type ContributeRequest struct {
	Amount    int64  `json:"amount" binding:"required,min=1"`
	Provider  string `json:"provider" binding:"required"`
	ReturnURL string `json:"return_url"`
}

func (h *CagnotteHandler) Create(c *gin.Context) {
	var req CreateCagnotteRequest
	if !bindJSON(c, &req) {
		return
	}

	out, err := h.create.Execute(c.Request.Context(), cagnotteuc.CreateCagnotteInput{
		OrganizerID: middleware.UserID(c),
		SlotID:      req.SlotID,
		Title:       req.Title,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.Created(c, out)
}

// Get é público: quem tem o link pode acompanhar e contribuir.
func (h *CagnotteHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	out, err := h.get.Execute(c.Request.Context(), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, out)
}

func (h *CagnotteHandler) Contribute(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req ContributeRequest
	if !bindJSON(c, &req) {
		return
	}

	out, err := h.contribute.Execute(c.Request.Context(), cagnotteuc.ContributeInput{
		UserID:     middleware.UserID(c),
		CagnotteID: id,
		Amount:     req.Amount,
		Provider:   req.Provider,
		ReturnURL:  req.ReturnURL,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.Created(c, out)
}

func (h *CagnotteHandler) Cancel(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	out, err := h.close.Cancel(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, out)
}

// ListMine: cagnottes que o usuário organizou ou em que contribuiu.
func (h *CagnotteHandler) ListMine(c *gin.Context) {
	userID := middleware.UserID(c)

	var out []models.Cagnotte
	if err := h.db.
		Where("organizer_id = ? OR id IN (?)", userID,
			h.db.Model(&models.CagnotteContribution{}).Select("cagnotte_id").Where("user_id = ?", userID)).
		Order("created_at DESC").
		Limit(100).
		Find(&out).Error; err != nil {

		httperr.FromError(c, err)
		return
	}

	httpresp.List(c, out)
}
