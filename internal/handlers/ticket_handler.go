// Package handlers contains the HTTP layer: request binding, the JSON surface
// of the ticket service, and consistent error mapping.
package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"civicreport/internal/config"
	"civicreport/internal/models"
	"civicreport/internal/observability"
	"civicreport/internal/serviceinterfaces"
)

// SubmitTicketRequest is the JSON body of POST /v1/tickets. The photo arrives
// base64 encoded; coordinates are optional as a pair.
type SubmitTicketRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category" binding:"required,issuecategory"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	ImageBase64 string   `json:"image_base64"`
}

// SubmitTicketResponse is the JSON response of POST /v1/tickets.
type SubmitTicketResponse struct {
	Ticket     models.Ticket `json:"ticket"`
	WasteLabel string        `json:"waste_label"`
}

// TicketHandler handles the ticket lifecycle endpoints.
type TicketHandler struct {
	ticketService serviceinterfaces.TicketService
	config        *config.Config
	logger        *observability.Logger
}

// NewTicketHandler creates a TicketHandler.
func NewTicketHandler(ticketService serviceinterfaces.TicketService, cfg *config.Config, logger *observability.Logger) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		config:        cfg,
		logger:        logger,
	}
}

// SubmitTicket handles POST /v1/tickets
func (h *TicketHandler) SubmitTicket(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_ticket")
	defer span.End()

	var req SubmitTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "request body", "", err.Error())
		return
	}

	var image []byte
	if req.ImageBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			HandleValidationError(c, "image_base64", "", "not valid base64")
			return
		}
		if int64(len(decoded)) > h.config.Server.MaxImageBytes {
			HandleValidationError(c, "image_base64", "", "image exceeds the maximum allowed size")
			return
		}
		image = decoded
	}

	result, err := h.ticketService.SubmitTicket(ctx, serviceinterfaces.SubmitTicketRequest{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Image:       image,
	})
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SubmitTicketResponse{
		Ticket:     result.Ticket,
		WasteLabel: result.WasteLabel,
	})
}

// ListTickets handles GET /v1/tickets
func (h *TicketHandler) ListTickets(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_tickets")
	defer span.End()

	tickets, err := h.ticketService.ListTickets(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

// GetTicket handles GET /v1/tickets/:id
func (h *TicketHandler) GetTicket(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_ticket")
	defer span.End()

	ticket, err := h.ticketService.GetTicket(ctx, c.Param("id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// ListForTriage handles GET /v1/triage
func (h *TicketHandler) ListForTriage(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_for_triage")
	defer span.End()

	view, err := h.ticketService.ListForTriage(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ResolveTicket handles POST /v1/tickets/:id/resolve
func (h *TicketHandler) ResolveTicket(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "resolve_ticket")
	defer span.End()

	ticket, err := h.ticketService.ResolveTicket(ctx, c.Param("id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}
