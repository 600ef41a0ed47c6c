package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	bookingdomain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	"github.com/BruksfildServices01/field-booking/internal/dto"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/httpresp"
	"github.com/BruksfildServices01/field-booking/internal/middleware"
	"github.com/BruksfildServices01/field-booking/internal/timezone"
	bookinguc "github.com/BruksfildServices01/field-booking/internal/usecase/booking"
)

// ======================================================
// HANDLER
// ======================================================

type BookingHandler struct {
	create    *bookinguc.CreateBooking
	pay       *bookinguc.InitiatePayment
	cancel    *bookinguc.CancelBooking
	get       *bookinguc.GetBooking
	list      *bookinguc.ListBookings
	approve   *bookinguc.ApproveBooking
	reject    *bookinguc.RejectBooking
	confirm   *bookinguc.ConfirmBookingByOwner
	dashboard *bookinguc.OwnerDashboard
	timezone  string
}

func NewBookingHandler(deps bookinguc.Deps, tz string) *BookingHandler {
	return &BookingHandler{
		create:    bookinguc.NewCreateBooking(deps),
		pay:       bookinguc.NewInitiatePayment(deps),
		cancel:    bookinguc.NewCancelBooking(deps),
		get:       bookinguc.NewGetBooking(deps.Repo),
		list:      bookinguc.NewListBookings(deps.Repo),
		approve:   bookinguc.NewApproveBooking(deps),
		reject:    bookinguc.NewRejectBooking(deps),
		confirm:   bookinguc.NewConfirmBookingByOwner(deps),
		dashboard: bookinguc.NewOwnerDashboard(deps.Repo),
		timezone:  tz,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateBookingRequest struct {
	SlotID      uint   `json:"slot_id" binding:"required"`
	PaymentMode string `json:"payment_mode"`
	PromoCode   string `json:"promo_code"`
}

type PayBookingRequest struct {
	Provider  string `json:"provider" binding:"required"`
	ReturnURL string `json:"return_url"`
}

type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

// corpo opcional: cancelar/recusar sem motivo é válido
func bindReason(c *gin.Context) (string, bool) {
	if c.Request.ContentLength == 0 {
		return "", true
	}
	var req ReasonRequest
	if !bindJSON(c, &req) {
		return "", false
	}
	return req.Reason, true
}

// ======================================================
// USER
// ======================================================

func (h *BookingHandler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.create.Execute(c.Request.Context(), bookinguc.CreateBookingInput{
		UserID:      middleware.UserID(c),
		SlotID:      req.SlotID,
		PaymentMode: req.PaymentMode,
		PromoCode:   req.PromoCode,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.Created(c, b)
}

func (h *BookingHandler) ListMine(c *gin.Context) {
	h.listWith(c, bookingdomain.Filter{UserID: middleware.UserID(c)})
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	b, err := h.get.Execute(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, b)
}

func (h *BookingHandler) Pay(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req PayBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	out, err := h.pay.Execute(c.Request.Context(), bookinguc.InitiatePaymentInput{
		UserID:    middleware.UserID(c),
		BookingID: id,
		Provider:  req.Provider,
		ReturnURL: req.ReturnURL,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.Created(c, out)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	h.cancelAs(c, false)
}

// ======================================================
// OWNER
// ======================================================

func (h *BookingHandler) OwnerList(c *gin.Context) {
	h.listWith(c, bookingdomain.Filter{
		OwnerID: middleware.UserID(c),
		FieldID: queryUint(c, "field_id"),
	})
}

func (h *BookingHandler) Approve(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	b, err := h.approve.Execute(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, b)
}

func (h *BookingHandler) Reject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	reason, ok := bindReason(c)
	if !ok {
		return
	}

	b, err := h.reject.Execute(c.Request.Context(), middleware.UserID(c), id, reason)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, b)
}

func (h *BookingHandler) Confirm(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	b, err := h.confirm.Execute(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, b)
}

func (h *BookingHandler) OwnerCancel(c *gin.Context) {
	h.cancelAs(c, true)
}

// Dashboard agrega o mês corrente quando from/to não vêm na query.
func (h *BookingHandler) Dashboard(c *gin.Context) {
	loc := timezone.Location(h.timezone)

	var from, to time.Time
	if c.Query("from") == "" && c.Query("to") == "" {
		now := timezone.NowIn(h.timezone)
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		to = from.AddDate(0, 1, 0)
	} else {
		var ok bool
		from, to, ok = parseRange(loc, c.Query("from"), c.Query("to"))
		if !ok {
			httperr.FromError(c, httperr.ErrBusiness("invalid_date_range"))
			return
		}
	}

	stats, err := h.dashboard.Execute(c.Request.Context(), middleware.UserID(c), from, to)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, gin.H{
		"from":  from.Format("2006-01-02"),
		"to":    to.AddDate(0, 0, -1).Format("2006-01-02"),
		"stats": stats,
	})
}

// ======================================================
// HELPERS
// ======================================================

func (h *BookingHandler) cancelAs(c *gin.Context, byOwner bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	reason, ok := bindReason(c)
	if !ok {
		return
	}

	b, err := h.cancel.Execute(c.Request.Context(), bookinguc.CancelBookingInput{
		ActorID:   middleware.UserID(c),
		BookingID: id,
		ByOwner:   byOwner,
		Reason:    reason,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, b)
}

func (h *BookingHandler) listWith(c *gin.Context, f bookingdomain.Filter) {
	page, limit, _ := pagination(c, 20, 100)
	f.Page, f.Limit = page, limit
	f.Status = c.Query("status")

	if c.Query("from") != "" || c.Query("to") != "" {
		from, to, ok := parseRange(timezone.Location(h.timezone), c.Query("from"), c.Query("to"))
		if !ok {
			httperr.FromError(c, httperr.ErrBusiness("invalid_date_range"))
			return
		}
		f.From, f.To = &from, &to
	}

	rows, total, err := h.list.Execute(c.Request.Context(), f)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.Page(c, dto.BookingList(rows), page, limit, total)
}
