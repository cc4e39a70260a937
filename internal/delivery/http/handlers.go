package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ilindan-dev/mail-dispatcher/internal/domain/model"
	repo "github.com/ilindan-dev/mail-dispatcher/internal/domain/repository"
	"github.com/ilindan-dev/mail-dispatcher/internal/notifiers"
	"github.com/ilindan-dev/mail-dispatcher/internal/service"
	"github.com/ilindan-dev/mail-dispatcher/internal/templates"
	"github.com/rs/zerolog"
)

type Handlers struct {
	dispatcher *service.Dispatcher
	logger     zerolog.Logger
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(dispatcher *service.Dispatcher, logger *zerolog.Logger) *Handlers {
	return &Handlers{
		dispatcher: dispatcher,
		logger:     logger.With().Str("layer", "http_handler").Logger(),
	}
}

// RegisterRoutes sets up the routing for the notification API.
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/notifications", h.DispatchNotification)
		api.GET("/notifications/:id", h.GetReceiptByID)
	}
}

// DispatchNotification renders and delivers a notification synchronously.
func (h *Handlers) DispatchNotification(c *gin.Context) {
	var req DispatchNotificationRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	receipt, err := h.dispatcher.Dispatch(c.Request.Context(), model.NotificationRequest{
		To:       req.To,
		Subject:  req.Subject,
		Template: req.Template,
		Context:  req.Context,
		Tags:     req.Tags,
	})
	if err != nil {
		c.JSON(statusForDispatchError(err), ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, toReceiptResponse(receipt))
}

// GetReceiptByID handles the HTTP request to retrieve a delivery receipt.
func (h *Handlers) GetReceiptByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid receipt ID format"})
		return
	}

	receipt, err := h.dispatcher.GetReceipt(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		h.logger.Error().Err(err).Stringer("id", id).Msg("failed to get receipt by id")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to retrieve receipt"})
		return
	}

	c.JSON(http.StatusOK, toReceiptResponse(receipt))
}

// statusForDispatchError maps the dispatch error taxonomy onto HTTP status codes.
func statusForDispatchError(err error) int {
	switch {
	case errors.Is(err, templates.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, templates.ErrTemplateSyntax),
		errors.Is(err, templates.ErrTemplateRender),
		errors.Is(err, templates.ErrTemplateReadFailure):
		return http.StatusUnprocessableEntity
	case errors.Is(err, notifiers.ErrTransportDelivery):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// toReceiptResponse is a helper function to map the domain model to the DTO.
func toReceiptResponse(r *model.DeliveryReceipt) ReceiptResponse {
	resp := ReceiptResponse{
		ID:        r.ID,
		To:        r.To,
		Subject:   r.Subject,
		Template:  r.Template,
		Tags:      r.Tags,
		Transport: r.Transport,
		Status:    string(r.Status),
		Error:     r.Error,
		CreatedAt: r.CreatedAt,
	}
	if json.Valid(r.Envelope) {
		resp.Envelope = json.RawMessage(r.Envelope)
	}
	return resp
}
