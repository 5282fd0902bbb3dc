package config

import "time"

// Defaults preserved from the original deployment.
const (
	// DefaultServerPort is the HTTP API port.
	DefaultServerPort = "8080"

	// DefaultStorageDir is the writable directory holding the ticket table.
	DefaultStorageDir = "./data"
	// DefaultStorageFile is the flat ticket table file name.
	DefaultStorageFile = "issue_tickets.csv"

	// DefaultOverdueThresholdDays is the strict overdue boundary: open tickets
	// older than this many whole days are overdue.
	DefaultOverdueThresholdDays = 7
	// DefaultScanInterval is how often the worker re-runs the overdue scan.
	DefaultScanInterval = 15 * time.Minute

	// DefaultClassifierEndpoint is the hosted inference API.
	DefaultClassifierEndpoint = "https://api-inference.huggingface.co"
	// DefaultImageModel classifies the submitted photo into a waste category.
	DefaultImageModel = "microsoft/resnet-50"
	// DefaultTextModel classifies the issue description.
	DefaultTextModel = "distilbert-base-uncased"
	// DefaultClassifierTimeout bounds a single classification call.
	DefaultClassifierTimeout = 30 * time.Second

	// DefaultGeocoderEndpoint is the public Nominatim instance.
	DefaultGeocoderEndpoint = "https://nominatim.openstreetmap.org"
	// DefaultGeocoderUserAgent identifies this service to Nominatim.
	DefaultGeocoderUserAgent = "geoapi"
	// DefaultGeocoderTimeout bounds a single reverse lookup.
	DefaultGeocoderTimeout = 10 * time.Second

	// DefaultMaxImageBytes bounds the optional submitted photo (8 MiB).
	DefaultMaxImageBytes = 8 << 20
)
