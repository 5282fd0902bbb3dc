package serviceinterfaces

import (
	"context"

	"civicreport/internal/models"
)

// Geocoder resolves coordinates into a human-readable location.
type Geocoder interface {
	// ReverseGeocode returns the location for the given coordinates. Lookup
	// failures are folded into the returned GeoLocation's address sentinel
	// rather than surfaced as errors
	ReverseGeocode(ctx context.Context, lat, lon float64) models.GeoLocation
}
