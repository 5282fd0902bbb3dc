// Package serviceinterfaces defines service interfaces for dependency injection and testing.
package serviceinterfaces

import (
	"context"

	"civicreport/internal/models"
)

// SubmitTicketRequest carries a citizen's issue report into the ticket service.
// Latitude and Longitude are optional as a pair; Image is the raw photo bytes
// or nil when no photo was attached.
type SubmitTicketRequest struct {
	Name        string
	Description string
	Category    string
	Latitude    *float64
	Longitude   *float64
	Image       []byte
}

// SubmitTicketResult is the outcome of a submission. WasteLabel is the image
// classification shown to the citizen at submit time; it is not persisted on
// the ticket.
type SubmitTicketResult struct {
	Ticket     models.Ticket
	WasteLabel string
}

// TriageView is what the authority sees: every open ticket, plus the subset
// that has been open longer than the overdue threshold.
type TriageView struct {
	Open    []models.Ticket `json:"open"`
	Overdue []models.Ticket `json:"overdue"`
}

// TicketService defines the interface for the ticket lifecycle
type TicketService interface {
	// SubmitTicket validates, enriches and persists a new issue report
	SubmitTicket(ctx context.Context, req SubmitTicketRequest) (*SubmitTicketResult, error)

	// GetTicket returns a single ticket by its id
	GetTicket(ctx context.Context, id string) (*models.Ticket, error)

	// ListTickets returns every valid ticket in submission order
	ListTickets(ctx context.Context) ([]models.Ticket, error)

	// ListForTriage returns the open tickets and the overdue subset
	ListForTriage(ctx context.Context) (*TriageView, error)

	// ResolveTicket transitions an open ticket to resolved
	ResolveTicket(ctx context.Context, id string) (*models.Ticket, error)
}
