// Package models contains the persisted entities of the civic report application.
package models

import (
	"encoding/json"
	"strings"
	"time"

	contextutils "civicreport/internal/utils"
)

// TicketStatus is the lifecycle state of a ticket. The only legal transition
// is Open -> Resolved; tickets are never reopened or deleted.
type TicketStatus string

const (
	// TicketStatusOpen is the state every ticket is created in.
	TicketStatusOpen TicketStatus = "Open"
	// TicketStatusResolved is the terminal state set by the authority.
	TicketStatusResolved TicketStatus = "Resolved"
)

// Issue categories offered to citizens. "Other" is the catch-all.
var IssueCategories = []string{
	"Water Management",
	"Garbage Collection",
	"Road Management",
	"Other",
}

// IsValidCategory reports whether category is one of the offered issue categories.
func IsValidCategory(category string) bool {
	for _, c := range IssueCategories {
		if c == category {
			return true
		}
	}
	return false
}

// GeoLocation is the structured location of a report. At rest it is a single
// JSON string column; Lat/Lon are nil when the citizen did not share
// coordinates.
type GeoLocation struct {
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	Address string   `json:"address"`
}

// String serializes the location to its at-rest form.
func (g GeoLocation) String() string {
	data, err := json.Marshal(g)
	if err != nil {
		// Marshal of this struct cannot fail; keep the column non-empty anyway
		return `{"lat":null,"lon":null,"address":""}`
	}
	return string(data)
}

// ParseGeoLocation parses the at-rest string form of a location. Unparseable
// values degrade to an address-only location holding the raw string, so legacy
// rows written by other tooling still load.
func ParseGeoLocation(value string) GeoLocation {
	var g GeoLocation
	if err := json.Unmarshal([]byte(value), &g); err != nil {
		return GeoLocation{Address: value}
	}
	return g
}

// Ticket is the sole persisted entity: one citizen-submitted issue report.
type Ticket struct {
	// ID is a stable unique identifier assigned at creation. All lookups and
	// mutations are keyed by it.
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Description       string      `json:"description"`
	Category          string      `json:"category"`
	SuggestedCategory string      `json:"suggested_category"`
	GeoLocation       GeoLocation `json:"geo_location"`
	// Date is the ISO-8601 submission timestamp, stored as written.
	Date   string       `json:"date"`
	Status TicketStatus `json:"status"`
}

// IsValid reports whether a loaded record is usable: the date must parse as
// ISO-8601 and the name must be non-empty. Invalid records are dropped
// silently on load, never repaired.
func (t *Ticket) IsValid() bool {
	if strings.TrimSpace(t.Name) == "" {
		return false
	}
	_, err := contextutils.ParseISO8601(t.Date)
	return err == nil
}

// IsOpen reports whether the ticket is awaiting resolution.
func (t *Ticket) IsOpen() bool {
	return t.Status == TicketStatusOpen
}

// ReportedAt parses the submission timestamp.
func (t *Ticket) ReportedAt() (time.Time, error) {
	return contextutils.ParseISO8601(t.Date)
}

// AgeDays returns the whole days elapsed since submission, floored the way
// the overdue boundary is defined.
func (t *Ticket) AgeDays(now time.Time) (int, error) {
	reported, err := t.ReportedAt()
	if err != nil {
		return 0, err
	}
	return int(now.Sub(reported).Hours() / 24), nil
}
