package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"civicreport/internal/config"
	"civicreport/internal/models"
	"civicreport/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*TicketStore, *config.StorageConfig) {
	t.Helper()
	cfg := &config.StorageConfig{
		Dir:  t.TempDir(),
		File: "issue_tickets.csv",
	}
	logger := observability.NewLogger(&config.OpenTelemetryConfig{})
	return NewTicketStore(cfg, logger), cfg
}

func testTicket(id, name string) models.Ticket {
	return models.Ticket{
		ID:                id,
		Name:              name,
		Description:       "Streetlight out on Elm St",
		Category:          "Other",
		SuggestedCategory: "Road Management",
		GeoLocation:       models.ParseGeoLocation("Unknown location"),
		Date:              "2024-06-01T10:30:00",
		Status:            models.TicketStatusOpen,
	}
}

func TestTicketStore_LoadMissingFile(t *testing.T) {
	store, _ := newTestStore(t)

	tickets, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestTicketStore_AppendAndLoadRoundTrip(t *testing.T) {
	store, cfg := newTestStore(t)
	ctx := context.Background()

	first := testTicket("id-1", "Asha")
	second := testTicket("id-2", "Ravi")
	second.Description = "Overflowing bin, near the park"
	second.Category = "Garbage Collection"

	require.NoError(t, store.AppendOne(ctx, &first))
	require.NoError(t, store.AppendOne(ctx, &second))

	tickets, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, first, tickets[0])
	assert.Equal(t, second, tickets[1])

	// Header written exactly once
	data, err := os.ReadFile(cfg.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "id,name,description,category,suggested_category,geo_location,date,status\n")
}

func TestTicketStore_LoadSkipsInvalidRows(t *testing.T) {
	store, cfg := newTestStore(t)
	ctx := context.Background()

	raw := "id,name,description,category,suggested_category,geo_location,date,status\n" +
		"id-1,Asha,Pothole,Road Management,Road Management,Unknown location,2024-06-01T10:30:00,Open\n" +
		"id-2,,No reporter name,Other,Other,Unknown location,2024-06-02T10:30:00,Open\n" +
		"id-3,Ravi,Bad date,Other,Other,Unknown location,not-a-date,Open\n" +
		"id-4,Mina,Trailing valid row,Other,Other,Unknown location,2024-06-03T10:30:00,Resolved\n"
	require.NoError(t, os.WriteFile(cfg.Path(), []byte(raw), 0o644))

	tickets, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, "id-1", tickets[0].ID)
	assert.Equal(t, "id-4", tickets[1].ID)
	assert.Equal(t, models.TicketStatusResolved, tickets[1].Status)
}

func TestTicketStore_LoadLegacyRowsWithoutID(t *testing.T) {
	store, cfg := newTestStore(t)

	raw := "name,description,category,suggested_category,geo_location,date,status\n" +
		"Asha,Pothole,Road Management,Road Management,Unknown location,2024-06-01T10:30:00,Open\n"
	require.NoError(t, os.WriteFile(cfg.Path(), []byte(raw), 0o644))

	tickets, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.NotEmpty(t, tickets[0].ID, "legacy rows get a transient id")
	assert.Equal(t, "Asha", tickets[0].Name)

	// The derived id must not change between loads, or callers could list a
	// legacy ticket and then never address it again
	again, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, tickets[0].ID, again[0].ID)
}

func TestTicketStore_ReplaceAll(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendOne(ctx, &models.Ticket{
		ID: "old", Name: "Old", Date: "2024-01-01T00:00:00", Status: models.TicketStatusOpen,
	}))

	replacement := []models.Ticket{testTicket("new-1", "Asha")}
	require.NoError(t, store.ReplaceAll(ctx, replacement))

	tickets, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "new-1", tickets[0].ID)
}

func TestTicketStore_Mutate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	ticket := testTicket("id-1", "Asha")
	require.NoError(t, store.AppendOne(ctx, &ticket))

	err := store.Mutate(ctx, func(tickets []models.Ticket) ([]models.Ticket, error) {
		require.Len(t, tickets, 1)
		tickets[0].Status = models.TicketStatusResolved
		return tickets, nil
	})
	require.NoError(t, err)

	tickets, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, models.TicketStatusResolved, tickets[0].Status)
}

func TestTicketStore_MutateErrorLeavesTableUntouched(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	ticket := testTicket("id-1", "Asha")
	require.NoError(t, store.AppendOne(ctx, &ticket))

	err := store.Mutate(ctx, func(tickets []models.Ticket) ([]models.Ticket, error) {
		return nil, assert.AnError
	})
	require.Error(t, err)

	tickets, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, models.TicketStatusOpen, tickets[0].Status)
}

func TestTicketStore_QuotedFieldsSurvive(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	ticket := testTicket("id-1", "Asha")
	ticket.Description = "Pothole, deep one\nnear \"the\" school"

	require.NoError(t, store.AppendOne(ctx, &ticket))

	tickets, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, ticket.Description, tickets[0].Description)
}

func TestTicketStore_PathHelper(t *testing.T) {
	cfg := &config.StorageConfig{Dir: "/tmp/x", File: "t.csv"}
	assert.Equal(t, filepath.Join("/tmp/x", "t.csv"), cfg.Path())
}
