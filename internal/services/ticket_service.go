package services

import (
	"context"
	"time"

	"civicreport/internal/config"
	"civicreport/internal/models"
	"civicreport/internal/observability"
	"civicreport/internal/serviceinterfaces"
	"civicreport/internal/store"
	contextutils "civicreport/internal/utils"

	"github.com/google/uuid"
)

// TicketService owns the ticket lifecycle: submission with classification and
// geocoding enrichment, triage listing, and resolution.
type TicketService struct {
	config          *config.Config
	store           *store.TicketStore
	wasteClassifier serviceinterfaces.WasteClassifier
	issueClassifier serviceinterfaces.IssueClassifier
	geocoder        serviceinterfaces.Geocoder
	logger          *observability.Logger
	// now is swappable for overdue boundary tests
	now func() time.Time
}

// Ensure TicketService implements the TicketService interface
var _ serviceinterfaces.TicketService = (*TicketService)(nil)

// NewTicketService creates the ticket service with its collaborators.
func NewTicketService(
	cfg *config.Config,
	ticketStore *store.TicketStore,
	wasteClassifier serviceinterfaces.WasteClassifier,
	issueClassifier serviceinterfaces.IssueClassifier,
	geocoder serviceinterfaces.Geocoder,
	logger *observability.Logger,
) *TicketService {
	return &TicketService{
		config:          cfg,
		store:           ticketStore,
		wasteClassifier: wasteClassifier,
		issueClassifier: issueClassifier,
		geocoder:        geocoder,
		logger:          logger,
		now:             time.Now,
	}
}

// SubmitTicket validates the report, runs both classifiers and the geocoder
// (all best effort), and appends the resulting ticket. Enrichment failures
// never block a submission; only validation and storage errors do.
func (s *TicketService) SubmitTicket(ctx context.Context, req serviceinterfaces.SubmitTicketRequest) (result0 *serviceinterfaces.SubmitTicketResult, err error) {
	ctx, span := observability.TraceTicketFunction(ctx, "submit_ticket")
	defer observability.FinishSpan(span, &err)

	if err := validateSubmission(req); err != nil {
		return nil, err
	}

	wasteLabel := s.wasteClassifier.ClassifyImage(ctx, req.Image)
	suggested := s.issueClassifier.SuggestCategory(ctx, req.Description)

	location := models.GeoLocation{Address: models.GeoUnknownLocation}
	if req.Latitude != nil && req.Longitude != nil {
		location = s.geocoder.ReverseGeocode(ctx, *req.Latitude, *req.Longitude)
	}

	ticket := models.Ticket{
		ID:                uuid.NewString(),
		Name:              req.Name,
		Description:       req.Description,
		Category:          req.Category,
		SuggestedCategory: suggested,
		GeoLocation:       location,
		Date:              s.now().Format(contextutils.ISO8601Layout),
		Status:            models.TicketStatusOpen,
	}

	if err := s.store.AppendOne(ctx, &ticket); err != nil {
		return nil, contextutils.WrapError(err, "failed to persist submitted ticket")
	}

	s.logger.Info(ctx, "Ticket submitted", map[string]interface{}{
		"ticket_id":          ticket.ID,
		"category":           ticket.Category,
		"suggested_category": ticket.SuggestedCategory,
	})

	return &serviceinterfaces.SubmitTicketResult{Ticket: ticket, WasteLabel: wasteLabel}, nil
}

// GetTicket returns the ticket with the given id.
func (s *TicketService) GetTicket(ctx context.Context, id string) (result0 *models.Ticket, err error) {
	ctx, span := observability.TraceTicketFunction(ctx, "get_ticket", observability.AttributeTicketID(id))
	defer observability.FinishSpan(span, &err)

	tickets, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		if tickets[i].ID == id {
			return &tickets[i], nil
		}
	}
	return nil, contextutils.WrapErrorf(contextutils.ErrTicketNotFound, "no ticket with id %s", id)
}

// ListTickets returns every valid ticket in submission order.
func (s *TicketService) ListTickets(ctx context.Context) (result0 []models.Ticket, err error) {
	ctx, span := observability.TraceTicketFunction(ctx, "list_tickets")
	defer observability.FinishSpan(span, &err)

	return s.store.Load(ctx)
}

// ListForTriage returns the open tickets and, of those, the ones open strictly
// longer than the overdue threshold. A ticket whose date no longer parses is
// logged and left out of the overdue set rather than failing the whole scan.
func (s *TicketService) ListForTriage(ctx context.Context) (result0 *serviceinterfaces.TriageView, err error) {
	ctx, span := observability.TraceTicketFunction(ctx, "list_for_triage")
	defer observability.FinishSpan(span, &err)

	tickets, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	view := &serviceinterfaces.TriageView{
		Open:    []models.Ticket{},
		Overdue: []models.Ticket{},
	}
	now := s.now()
	threshold := s.config.Triage.OverdueThresholdDays

	for _, ticket := range tickets {
		if !ticket.IsOpen() {
			continue
		}
		view.Open = append(view.Open, ticket)

		age, err := ticket.AgeDays(now)
		if err != nil {
			s.logger.Warn(ctx, "Skipping ticket with unparseable date in overdue scan", map[string]interface{}{
				"ticket_id": ticket.ID,
				"date":      ticket.Date,
			})
			continue
		}
		if age > threshold {
			view.Overdue = append(view.Overdue, ticket)
		}
	}

	span.SetAttributes(
		observability.AttributeTicketCount(len(view.Open)),
	)
	return view, nil
}

// ResolveTicket transitions the ticket with the given id from Open to
// Resolved. The read-modify-write runs inside the store's writer boundary so a
// concurrent submission cannot be lost.
func (s *TicketService) ResolveTicket(ctx context.Context, id string) (result0 *models.Ticket, err error) {
	ctx, span := observability.TraceTicketFunction(ctx, "resolve_ticket", observability.AttributeTicketID(id))
	defer observability.FinishSpan(span, &err)

	var resolved *models.Ticket
	err = s.store.Mutate(ctx, func(tickets []models.Ticket) ([]models.Ticket, error) {
		for i := range tickets {
			if tickets[i].ID != id {
				continue
			}
			if !tickets[i].IsOpen() {
				return nil, contextutils.WrapErrorf(contextutils.ErrTicketNotOpen, "ticket %s is %s", id, tickets[i].Status)
			}
			tickets[i].Status = models.TicketStatusResolved
			copied := tickets[i]
			resolved = &copied
			return tickets, nil
		}
		return nil, contextutils.WrapErrorf(contextutils.ErrTicketNotFound, "no ticket with id %s", id)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Ticket resolved", map[string]interface{}{"ticket_id": id})
	return resolved, nil
}

// validateSubmission checks the citizen-supplied fields. Coordinates are
// optional but only as a pair.
func validateSubmission(req serviceinterfaces.SubmitTicketRequest) error {
	if !contextutils.IsValidName(req.Name) {
		return contextutils.WrapErrorf(contextutils.ErrMissingRequired, "name is required")
	}
	if !models.IsValidCategory(req.Category) {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown category %q", req.Category)
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "latitude and longitude must be provided together")
	}
	if req.Latitude != nil && !contextutils.IsValidCoordinate(*req.Latitude, *req.Longitude) {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "coordinates out of range")
	}
	return nil
}
