package models

// Classification sentinels. These are stored and displayed verbatim, so their
// exact spelling is part of the table format.
const (
	// ClassificationNotSpecified is used when no photo was attached.
	ClassificationNotSpecified = "Not Specified"
	// ClassificationError is used when a model call fails for any reason.
	ClassificationError = "Error in Classification"
)

// Geocoding sentinels, stored as the address of an otherwise empty location.
const (
	// GeoUnknownLocation is used when no coordinates were provided or the
	// geocoder found no address for them.
	GeoUnknownLocation = "Unknown location"
	// GeoTimeout is used when the geocoding call exceeded its deadline.
	GeoTimeout = "Geolocation service timed out"
	// GeoFetchError is used for any other geocoding failure.
	GeoFetchError = "Error fetching location"
)
