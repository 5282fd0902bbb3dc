// Package store implements the flat-file ticket table. The whole table lives
// in a single CSV file (header row + one row per ticket); reads load the full
// table, mutations rewrite it. A process-wide mutex makes every
// load-mutate-persist sequence atomic with respect to other store calls in
// this process; cross-process writers are only detected, not coordinated.
package store

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"civicreport/internal/config"
	"civicreport/internal/models"
	"civicreport/internal/observability"
	contextutils "civicreport/internal/utils"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// tableHeader is the persisted column order. The id column is the stable
// ticket identity; the remaining columns match the original table layout.
var tableHeader = []string{"id", "name", "description", "category", "suggested_category", "geo_location", "date", "status"}

// TicketStore is the CSV-backed ticket table.
type TicketStore struct {
	cfg    *config.StorageConfig
	logger *observability.Logger

	// mu is the single-writer boundary: every load/append/rewrite holds it.
	mu sync.Mutex
	// lastSelfWrite lets the watcher tell our own writes from external ones.
	lastSelfWrite time.Time

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewTicketStore creates a TicketStore for the configured backing file.
func NewTicketStore(cfg *config.StorageConfig, logger *observability.Logger) *TicketStore {
	if cfg == nil {
		panic("NewTicketStore: cfg is nil")
	}
	if logger == nil {
		panic("NewTicketStore: logger is nil")
	}
	return &TicketStore{cfg: cfg, logger: logger}
}

// Load reads the entire table, skipping invalid records, and returns the valid
// tickets in file order. A missing or empty backing file yields an empty slice.
func (s *TicketStore) Load(ctx context.Context) (result0 []models.Ticket, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "load")
	defer observability.FinishSpan(span, &err)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

// AppendOne serializes the ticket's location to its string form and appends a
// single row, creating the storage directory and header if absent.
func (s *TicketStore) AppendOne(ctx context.Context, ticket *models.Ticket) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "append_one", observability.AttributeTicketID(ticket.ID))
	defer observability.FinishSpan(span, &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureDir(); err != nil {
		return err
	}

	needHeader := true
	if info, err := os.Stat(s.cfg.Path()); err == nil && info.Size() > 0 {
		needHeader = false
	}

	f, err := os.OpenFile(s.cfg.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return contextutils.WrapError(err, "failed to open ticket table for append")
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = contextutils.WrapError(closeErr, "failed to close ticket table")
		}
	}()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(tableHeader); err != nil {
			return contextutils.WrapError(err, "failed to write table header")
		}
	}
	if err := w.Write(toRecord(ticket)); err != nil {
		return contextutils.WrapError(err, "failed to write ticket row")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return contextutils.WrapErrorf(contextutils.ErrStorageWrite, "failed to flush ticket row: %w", err)
	}

	s.lastSelfWrite = time.Now()
	s.logger.Debug(ctx, "Appended ticket", map[string]interface{}{"ticket_id": ticket.ID, "path": s.cfg.Path()})
	return nil
}

// ReplaceAll overwrites the entire table with the given tickets.
func (s *TicketStore) ReplaceAll(ctx context.Context, tickets []models.Ticket) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "replace_all", observability.AttributeTicketCount(len(tickets)))
	defer observability.FinishSpan(span, &err)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceAllLocked(ctx, tickets)
}

// Mutate runs fn over the freshly loaded table and persists its result, all
// inside the single-writer boundary. If fn returns an error nothing is
// persisted.
func (s *TicketStore) Mutate(ctx context.Context, fn func([]models.Ticket) ([]models.Ticket, error)) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "mutate")
	defer observability.FinishSpan(span, &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.loadLocked(ctx)
	if err != nil {
		return err
	}
	mutated, err := fn(tickets)
	if err != nil {
		return err
	}
	return s.replaceAllLocked(ctx, mutated)
}

// StartWatcher begins logging external modifications of the backing file.
// The design assumes a single active writer; the watcher makes violations of
// that assumption visible instead of silent.
func (s *TicketStore) StartWatcher(ctx context.Context) error {
	if err := s.ensureDir(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return contextutils.WrapError(err, "failed to create storage watcher")
	}
	if err := watcher.Add(s.cfg.Dir); err != nil {
		_ = watcher.Close()
		return contextutils.WrapErrorf(err, "failed to watch storage directory %s", s.cfg.Dir)
	}

	s.watcher = watcher
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.cfg.Path() || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				s.mu.Lock()
				selfWrite := time.Since(s.lastSelfWrite) < time.Second
				s.mu.Unlock()
				if !selfWrite {
					s.logger.Warn(ctx, "Ticket table modified by another process", map[string]interface{}{
						"path": event.Name,
						"op":   event.Op.String(),
					})
				}
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn(ctx, "Storage watcher error", map[string]interface{}{"error": watchErr.Error()})
			}
		}
	}()

	return nil
}

// Close stops the watcher if one is running.
func (s *TicketStore) Close() error {
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	<-s.done
	s.watcher = nil
	return err
}

func (s *TicketStore) ensureDir() error {
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return contextutils.WrapErrorf(err, "failed to create storage directory %s", s.cfg.Dir)
	}
	return nil
}

func (s *TicketStore) loadLocked(ctx context.Context) ([]models.Ticket, error) {
	f, err := os.Open(s.cfg.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Ticket{}, nil
		}
		return nil, contextutils.WrapErrorf(contextutils.ErrStorageRead, "failed to open ticket table: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return []models.Ticket{}, nil
		}
		return nil, contextutils.WrapErrorf(contextutils.ErrStorageRead, "failed to read table header: %w", err)
	}
	columns := indexColumns(header)

	tickets := []models.Ticket{}
	skipped := 0
	row := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			// Malformed row: skip it, keep reading
			skipped++
			continue
		}

		ticket, ok := fromRecord(record, columns, row)
		if !ok || !ticket.IsValid() {
			skipped++
			continue
		}
		tickets = append(tickets, ticket)
	}

	if skipped > 0 {
		s.logger.Debug(ctx, "Skipped invalid ticket rows on load", map[string]interface{}{
			"skipped": skipped,
			"loaded":  len(tickets),
		})
	}
	return tickets, nil
}

func (s *TicketStore) replaceAllLocked(ctx context.Context, tickets []models.Ticket) error {
	if err := s.ensureDir(); err != nil {
		return err
	}

	f, err := os.Create(s.cfg.Path())
	if err != nil {
		return contextutils.WrapErrorf(contextutils.ErrStorageWrite, "failed to rewrite ticket table: %w", err)
	}

	w := csv.NewWriter(f)
	writeErr := w.Write(tableHeader)
	for i := range tickets {
		if writeErr != nil {
			break
		}
		writeErr = w.Write(toRecord(&tickets[i]))
	}
	w.Flush()
	if writeErr == nil {
		writeErr = w.Error()
	}

	if closeErr := f.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		return contextutils.WrapErrorf(contextutils.ErrStorageWrite, "failed to rewrite ticket table: %w", writeErr)
	}

	s.lastSelfWrite = time.Now()
	s.logger.Debug(ctx, "Rewrote ticket table", map[string]interface{}{"tickets": len(tickets)})
	return nil
}

// indexColumns maps column names from the header row to their positions,
// tolerating tables written before the id column existed.
func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}
	return columns
}

func fieldAt(record []string, columns map[string]int, name string) (string, bool) {
	idx, ok := columns[name]
	if !ok || idx >= len(record) {
		return "", false
	}
	return record[idx], true
}

func fromRecord(record []string, columns map[string]int, row int) (models.Ticket, bool) {
	name, okName := fieldAt(record, columns, "name")
	date, okDate := fieldAt(record, columns, "date")
	if !okName || !okDate {
		return models.Ticket{}, false
	}

	description, _ := fieldAt(record, columns, "description")
	category, _ := fieldAt(record, columns, "category")
	suggested, _ := fieldAt(record, columns, "suggested_category")
	geo, _ := fieldAt(record, columns, "geo_location")
	status, _ := fieldAt(record, columns, "status")

	id, _ := fieldAt(record, columns, "id")
	if id == "" {
		// Legacy row without a stable id: derive one from the row itself so
		// every load of an unchanged file hands callers the same id. The
		// first table rewrite persists it.
		id = legacyRowID(row, record)
	}

	return models.Ticket{
		ID:                id,
		Name:              name,
		Description:       description,
		Category:          category,
		SuggestedCategory: suggested,
		GeoLocation:       models.ParseGeoLocation(geo),
		Date:              date,
		Status:            models.TicketStatus(status),
	}, true
}

// legacyRowID deterministically names a row written before the id column
// existed, keyed on the row's position and content.
func legacyRowID(row int, record []string) string {
	seed := strconv.Itoa(row) + "|" + strings.Join(record, "\x1f")
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

func toRecord(t *models.Ticket) []string {
	return []string{
		t.ID,
		t.Name,
		t.Description,
		t.Category,
		t.SuggestedCategory,
		t.GeoLocation.String(),
		t.Date,
		string(t.Status),
	}
}
