package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"civicreport/internal/config"
	"civicreport/internal/models"
	"civicreport/internal/observability"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// GeocodingService resolves coordinates to addresses through a
// Nominatim-compatible reverse geocoding endpoint. Like classification,
// lookups are best effort: failures become sentinel addresses, never errors.
type GeocodingService struct {
	config     *config.GeocoderConfig
	httpClient *http.Client
	logger     *observability.Logger
}

// NewGeocodingService creates a geocoder against the configured endpoint.
func NewGeocodingService(cfg *config.GeocoderConfig, logger *observability.Logger) *GeocodingService {
	return &GeocodingService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout.Std(),
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
			),
		},
		logger: logger,
	}
}

// reverseResponse is the subset of the Nominatim reverse response we read.
type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// ReverseGeocode looks up the address for the coordinates. The coordinates are
// always kept on the result; only the address degrades on failure.
func (s *GeocodingService) ReverseGeocode(ctx context.Context, lat, lon float64) models.GeoLocation {
	ctx, span := observability.TraceGeocoderFunction(ctx, "reverse_geocode")
	defer span.End()

	location := models.GeoLocation{Lat: &lat, Lon: &lon}

	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%f", lat))
	query.Set("lon", fmt.Sprintf("%f", lon))
	query.Set("format", "json")

	endpoint := fmt.Sprintf("%s/reverse?%s", s.config.Endpoint, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		s.logger.Warn(ctx, "Failed to create reverse geocode request", map[string]interface{}{"error": err.Error()})
		location.Address = models.GeoFetchError
		return location
	}
	// Nominatim's usage policy requires an identifying user agent
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			s.logger.Warn(ctx, "Reverse geocode timed out", map[string]interface{}{
				"timeout": s.config.Timeout.Std().String(),
			})
			location.Address = models.GeoTimeout
			return location
		}
		s.logger.Warn(ctx, "Reverse geocode request failed", map[string]interface{}{"error": err.Error()})
		location.Address = models.GeoFetchError
		return location
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn(ctx, "Reverse geocode returned unexpected status", map[string]interface{}{"status": resp.StatusCode})
		location.Address = models.GeoFetchError
		return location
	}

	var decoded reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		s.logger.Warn(ctx, "Failed to decode reverse geocode response", map[string]interface{}{"error": err.Error()})
		location.Address = models.GeoFetchError
		return location
	}

	if decoded.Error != "" || decoded.DisplayName == "" {
		location.Address = models.GeoUnknownLocation
		return location
	}

	location.Address = decoded.DisplayName
	return location
}

// isTimeout distinguishes deadline expiry from other transport failures.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
