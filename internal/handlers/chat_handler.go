package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/httpresp"
	"github.com/BruksfildServices01/field-booking/internal/middleware"
	chatuc "github.com/BruksfildServices01/field-booking/internal/usecase/chat"
)

type ChatHandler struct {
	chat *chatuc.Service
}

func NewChatHandler(chat *chatuc.Service) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// Open abre (ou reabre) a conversa da reserva.
func (h *ChatHandler) Open(c *gin.Context) {
	bookingID, ok := idParam(c, "id")
	if !ok {
		return
	}

	conv, err := h.chat.Open(c.Request.Context(), middleware.UserID(c), bookingID)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, conv)
}

func (h *ChatHandler) List(c *gin.Context) {
	out, err := h.chat.Conversations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.List(c, out)
}

// Messages pagina do mais novo para o mais antigo via ?before=<id>.
func (h *ChatHandler) Messages(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	_, limit, _ := pagination(c, 50, 100)

	out, err := h.chat.Messages(c.Request.Context(), middleware.UserID(c), id, queryUint(c, "before"), limit)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.List(c, out)
}

func (h *ChatHandler) Send(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.chat.Send(c.Request.Context(), middleware.UserID(c), id, req.Body)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.Created(c, msg)
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.chat.MarkRead(c.Request.Context(), middleware.UserID(c), id); err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, gin.H{"status": "ok"})
}
