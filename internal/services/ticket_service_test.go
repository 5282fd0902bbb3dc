package services

import (
	"context"
	"os"
	"testing"
	"time"

	"civicreport/internal/config"
	"civicreport/internal/models"
	"civicreport/internal/observability"
	"civicreport/internal/serviceinterfaces"
	"civicreport/internal/store"
	contextutils "civicreport/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWasteClassifier struct {
	label  string
	called bool
}

func (f *fakeWasteClassifier) ClassifyImage(_ context.Context, image []byte) string {
	f.called = true
	if len(image) == 0 {
		return models.ClassificationNotSpecified
	}
	return f.label
}

type fakeIssueClassifier struct {
	label string
}

func (f *fakeIssueClassifier) SuggestCategory(_ context.Context, _ string) string {
	return f.label
}

type fakeGeocoder struct {
	address string
	called  bool
}

func (f *fakeGeocoder) ReverseGeocode(_ context.Context, lat, lon float64) models.GeoLocation {
	f.called = true
	return models.GeoLocation{Lat: &lat, Lon: &lon, Address: f.address}
}

type ticketServiceFixture struct {
	cfg      *config.Config
	service  *TicketService
	store    *store.TicketStore
	waste    *fakeWasteClassifier
	issue    *fakeIssueClassifier
	geocoder *fakeGeocoder
}

func newTicketServiceFixture(t *testing.T) *ticketServiceFixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.Storage = config.StorageConfig{Dir: t.TempDir(), File: "issue_tickets.csv"}
	cfg.Triage = config.TriageConfig{OverdueThresholdDays: 7}

	logger := observability.NewLogger(&config.OpenTelemetryConfig{})
	ticketStore := store.NewTicketStore(&cfg.Storage, logger)

	waste := &fakeWasteClassifier{label: "plastic bottle"}
	issue := &fakeIssueClassifier{label: "Road Management"}
	geocoder := &fakeGeocoder{address: "1 Main Street, Springfield"}

	return &ticketServiceFixture{
		cfg:      cfg,
		service:  NewTicketService(cfg, ticketStore, waste, issue, geocoder, logger),
		store:    ticketStore,
		waste:    waste,
		issue:    issue,
		geocoder: geocoder,
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestTicketService_SubmitTicket(t *testing.T) {
	fx := newTicketServiceFixture(t)
	ctx := context.Background()

	result, err := fx.service.SubmitTicket(ctx, serviceinterfaces.SubmitTicketRequest{
		Name:        "Asha",
		Description: "Deep pothole near the school entrance",
		Category:    "Road Management",
		Latitude:    floatPtr(12.97),
		Longitude:   floatPtr(77.59),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Ticket.ID)
	assert.Equal(t, "Asha", result.Ticket.Name)
	assert.Equal(t, "Road Management", result.Ticket.Category)
	assert.Equal(t, "Road Management", result.Ticket.SuggestedCategory)
	assert.Equal(t, models.TicketStatusOpen, result.Ticket.Status)
	assert.Equal(t, "1 Main Street, Springfield", result.Ticket.GeoLocation.Address)
	assert.Equal(t, models.ClassificationNotSpecified, result.WasteLabel, "no photo attached")
	assert.True(t, fx.geocoder.called)

	_, err = contextutils.ParseISO8601(result.Ticket.Date)
	assert.NoError(t, err)

	// The ticket must be durable, not just returned
	persisted, err := fx.store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, result.Ticket, persisted[0])
}

func TestTicketService_SubmitTicket_WithPhoto(t *testing.T) {
	fx := newTicketServiceFixture(t)

	result, err := fx.service.SubmitTicket(context.Background(), serviceinterfaces.SubmitTicketRequest{
		Name:        "Ravi",
		Description: "Bottles dumped by the canal",
		Category:    "Garbage Collection",
		Image:       []byte("fake-jpeg-bytes"),
	})
	require.NoError(t, err)

	assert.Equal(t, "plastic bottle", result.WasteLabel)
	assert.True(t, fx.waste.called)
	// The waste label is shown to the citizen but never stored on the ticket
	persisted, err := fx.store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, persisted, 1)
}

func TestTicketService_SubmitTicket_NoCoordinates(t *testing.T) {
	fx := newTicketServiceFixture(t)

	result, err := fx.service.SubmitTicket(context.Background(), serviceinterfaces.SubmitTicketRequest{
		Name:        "Mina",
		Description: "Streetlight out",
		Category:    "Other",
	})
	require.NoError(t, err)

	assert.Equal(t, models.GeoUnknownLocation, result.Ticket.GeoLocation.Address)
	assert.Nil(t, result.Ticket.GeoLocation.Lat)
	assert.False(t, fx.geocoder.called, "geocoder must not be called without coordinates")
}

func TestTicketService_SubmitTicket_Validation(t *testing.T) {
	fx := newTicketServiceFixture(t)

	tests := []struct {
		name     string
		req      serviceinterfaces.SubmitTicketRequest
		wantCode *contextutils.AppError
	}{
		{
			name:     "missing name",
			req:      serviceinterfaces.SubmitTicketRequest{Name: "  ", Category: "Other"},
			wantCode: contextutils.ErrMissingRequired,
		},
		{
			name:     "unknown category",
			req:      serviceinterfaces.SubmitTicketRequest{Name: "Asha", Category: "Potholes"},
			wantCode: contextutils.ErrInvalidInput,
		},
		{
			name: "latitude without longitude",
			req: serviceinterfaces.SubmitTicketRequest{
				Name: "Asha", Category: "Other", Latitude: floatPtr(12.97),
			},
			wantCode: contextutils.ErrInvalidInput,
		},
		{
			name: "coordinates out of range",
			req: serviceinterfaces.SubmitTicketRequest{
				Name: "Asha", Category: "Other", Latitude: floatPtr(123), Longitude: floatPtr(456),
			},
			wantCode: contextutils.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.service.SubmitTicket(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, contextutils.IsError(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestTicketService_GetTicket(t *testing.T) {
	fx := newTicketServiceFixture(t)
	ctx := context.Background()

	result, err := fx.service.SubmitTicket(ctx, serviceinterfaces.SubmitTicketRequest{
		Name: "Asha", Description: "Pothole", Category: "Road Management",
	})
	require.NoError(t, err)

	ticket, err := fx.service.GetTicket(ctx, result.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Ticket, *ticket)

	_, err = fx.service.GetTicket(ctx, "no-such-id")
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrTicketNotFound))
}

func TestTicketService_ListForTriage(t *testing.T) {
	fx := newTicketServiceFixture(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.Local)
	fx.service.now = func() time.Time { return now }

	seed := func(id string, age time.Duration, status models.TicketStatus) {
		require.NoError(t, fx.store.AppendOne(ctx, &models.Ticket{
			ID:     id,
			Name:   "Asha",
			Date:   now.Add(-age).Format(contextutils.ISO8601Layout),
			Status: status,
		}))
	}

	seed("fresh", 24*time.Hour, models.TicketStatusOpen)
	seed("at-threshold", 7*24*time.Hour, models.TicketStatusOpen)          // exactly 7 days: not overdue
	seed("just-under-8", 7*24*time.Hour+time.Hour, models.TicketStatusOpen) // floors to 7: not overdue
	seed("overdue", 8*24*time.Hour, models.TicketStatusOpen)
	seed("resolved-old", 30*24*time.Hour, models.TicketStatusResolved)

	view, err := fx.service.ListForTriage(ctx)
	require.NoError(t, err)

	openIDs := make([]string, 0, len(view.Open))
	for _, ticket := range view.Open {
		openIDs = append(openIDs, ticket.ID)
	}
	assert.Equal(t, []string{"fresh", "at-threshold", "just-under-8", "overdue"}, openIDs)

	require.Len(t, view.Overdue, 1)
	assert.Equal(t, "overdue", view.Overdue[0].ID)
}

func TestTicketService_ListForTriage_NonUTCHost(t *testing.T) {
	// The strict floor-days boundary must hold for wall-clock dates regardless
	// of the host zone's UTC offset
	restore := time.Local
	time.Local = time.FixedZone("UTC-8", -8*60*60)
	t.Cleanup(func() { time.Local = restore })

	fx := newTicketServiceFixture(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.Local)
	fx.service.now = func() time.Time { return now }

	seed := func(id string, age time.Duration) {
		require.NoError(t, fx.store.AppendOne(ctx, &models.Ticket{
			ID:     id,
			Name:   "Asha",
			Date:   now.Add(-age).Format(contextutils.ISO8601Layout),
			Status: models.TicketStatusOpen,
		}))
	}

	seed("aging", 7*24*time.Hour+20*time.Hour) // floors to 7: not overdue
	seed("late", 8*24*time.Hour+time.Hour)

	view, err := fx.service.ListForTriage(ctx)
	require.NoError(t, err)
	require.Len(t, view.Overdue, 1)
	assert.Equal(t, "late", view.Overdue[0].ID)
}

func TestTicketService_ListForTriage_Empty(t *testing.T) {
	fx := newTicketServiceFixture(t)

	view, err := fx.service.ListForTriage(context.Background())
	require.NoError(t, err)
	assert.Empty(t, view.Open)
	assert.Empty(t, view.Overdue)
}

func TestTicketService_ResolveTicket(t *testing.T) {
	fx := newTicketServiceFixture(t)
	ctx := context.Background()

	result, err := fx.service.SubmitTicket(ctx, serviceinterfaces.SubmitTicketRequest{
		Name: "Asha", Description: "Pothole", Category: "Road Management",
	})
	require.NoError(t, err)

	resolved, err := fx.service.ResolveTicket(ctx, result.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusResolved, resolved.Status)

	// Durable, not just in-memory
	reloaded, err := fx.service.GetTicket(ctx, result.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusResolved, reloaded.Status)

	// Resolving again is a state error: Open -> Resolved is the only transition
	_, err = fx.service.ResolveTicket(ctx, result.Ticket.ID)
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrTicketNotOpen))
}

func TestTicketService_ResolveLegacyTicket(t *testing.T) {
	fx := newTicketServiceFixture(t)
	ctx := context.Background()

	// Row written before the id column existed
	raw := "name,description,category,suggested_category,geo_location,date,status\n" +
		"Asha,Pothole,Road Management,Road Management,Unknown location,2024-06-01T10:30:00,Open\n"
	require.NoError(t, os.WriteFile(fx.cfg.Storage.Path(), []byte(raw), 0o644))

	tickets, err := fx.service.ListTickets(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	require.NotEmpty(t, tickets[0].ID)

	// The listed id must address the same ticket on the resolve reload
	resolved, err := fx.service.ResolveTicket(ctx, tickets[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusResolved, resolved.Status)

	// The rewrite persists the derived id
	reloaded, err := fx.service.GetTicket(ctx, tickets[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusResolved, reloaded.Status)
}

func TestTicketService_ResolveTicket_NotFound(t *testing.T) {
	fx := newTicketServiceFixture(t)

	_, err := fx.service.ResolveTicket(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrTicketNotFound))
}
