// Package config handles application configuration loading from environment variables.
package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	contextutils "civicreport/internal/utils"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "10s" decode directly.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err == nil {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return contextutils.WrapErrorf(contextutils.ErrInvalidFormat, "invalid duration %q: %w", raw, err)
		}
		*d = Duration(parsed)
		return nil
	}

	// Bare integers are nanoseconds, matching time.Duration's zero-config form
	var n int64
	if err := value.Decode(&n); err != nil {
		return contextutils.WrapError(err, "invalid duration value")
	}
	*d = Duration(n)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig `json:"server" yaml:"server"`

	// Flat-file ticket storage
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Triage / overdue detection
	Triage TriageConfig `json:"triage" yaml:"triage"`

	// External classification provider
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier"`

	// Reverse geocoding provider
	Geocoder GeocoderConfig `json:"geocoder" yaml:"geocoder"`

	// OpenTelemetry Configuration
	OpenTelemetry OpenTelemetryConfig `json:"open_telemetry" yaml:"open_telemetry"`

	// Email Configuration
	Email EmailConfig `json:"email" yaml:"email"`

	// Internal fields
	IsTest bool `json:"is_test" yaml:"is_test"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port        string   `json:"port" yaml:"port"`
	Debug       bool     `json:"debug" yaml:"debug"`
	LogLevel    string   `json:"log_level" yaml:"log_level"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`
	// MaxImageBytes bounds the optional submitted photo. Images larger than
	// this are rejected before the classifier is called.
	MaxImageBytes int64 `json:"max_image_bytes" yaml:"max_image_bytes"`
}

// StorageConfig represents the flat-file ticket store configuration
type StorageConfig struct {
	// Dir is the writable directory holding the ticket table.
	Dir string `json:"dir" yaml:"dir"`
	// File is the table file name inside Dir.
	File string `json:"file" yaml:"file"`
	// WatchExternalWrites enables the fsnotify watcher that logs when another
	// process modifies the backing file.
	WatchExternalWrites bool `json:"watch_external_writes" yaml:"watch_external_writes"`
}

// Path returns the full path of the ticket table file.
func (s *StorageConfig) Path() string {
	return filepath.Join(s.Dir, s.File)
}

// TriageConfig represents overdue-detection configuration
type TriageConfig struct {
	// OverdueThresholdDays is the strict floor-days boundary: a ticket is
	// overdue when its age in whole days exceeds this value.
	OverdueThresholdDays int `json:"overdue_threshold_days" yaml:"overdue_threshold_days"`
	// ScanInterval is how often the worker re-runs the overdue scan.
	ScanInterval Duration `json:"scan_interval" yaml:"scan_interval"`
}

// ClassifierConfig represents the external image/text classification provider
type ClassifierConfig struct {
	// Endpoint is the inference API base URL, e.g. "https://api-inference.huggingface.co".
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	// ImageModel classifies the optional submitted photo.
	ImageModel string `json:"image_model" yaml:"image_model"`
	// TextModel classifies the issue description.
	TextModel string `json:"text_model" yaml:"text_model"`
	// APIToken is sent as a bearer token when non-empty.
	APIToken string   `json:"api_token" yaml:"api_token"`
	Timeout  Duration `json:"timeout" yaml:"timeout"`
}

// GeocoderConfig represents the reverse-geocoding provider
type GeocoderConfig struct {
	// Endpoint is the Nominatim-compatible base URL.
	Endpoint  string   `json:"endpoint" yaml:"endpoint"`
	UserAgent string   `json:"user_agent" yaml:"user_agent"`
	Timeout   Duration `json:"timeout" yaml:"timeout"`
}

// OpenTelemetryConfig holds all OpenTelemetry-related configuration
type OpenTelemetryConfig struct {
	Endpoint       string            `json:"endpoint" yaml:"endpoint"`               // Default: "http://localhost:4317"
	Protocol       string            `json:"protocol" yaml:"protocol"`               // "grpc" or "http", default: "grpc"
	Insecure       bool              `json:"insecure" yaml:"insecure"`               // Default: true (for localhost)
	Headers        map[string]string `json:"headers" yaml:"headers"`                 // For authenticated endpoints
	ServiceName    string            `json:"service_name" yaml:"service_name"`       // Default: "civicreport-server" or "civicreport-worker"
	ServiceVersion string            `json:"service_version" yaml:"service_version"` // From version package
	EnableTracing  bool              `json:"enable_tracing" yaml:"enable_tracing"`   // Default: true
	EnableMetrics  bool              `json:"enable_metrics" yaml:"enable_metrics"`   // Default: true
	EnableLogging  bool              `json:"enable_logging" yaml:"enable_logging"`   // Default: true
	SamplingRate   float64           `json:"sampling_rate" yaml:"sampling_rate"`     // Default: 1.0 (100%)
}

// EmailConfig represents email/SMTP configuration
type EmailConfig struct {
	SMTP          SMTPConfig          `json:"smtp" yaml:"smtp"`
	OverdueDigest OverdueDigestConfig `json:"overdue_digest" yaml:"overdue_digest"`
	Enabled       bool                `json:"enabled" yaml:"enabled"`
}

// SMTPConfig represents SMTP server configuration
type SMTPConfig struct {
	Host        string `json:"host" yaml:"host"`
	Port        int    `json:"port" yaml:"port"`
	Username    string `json:"username" yaml:"username"`
	Password    string `json:"password" yaml:"password"`
	FromAddress string `json:"from_address" yaml:"from_address"`
	FromName    string `json:"from_name" yaml:"from_name"`
}

// OverdueDigestConfig represents the overdue ticket digest email configuration
type OverdueDigestConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Recipient is the authority inbox the digest is sent to.
	Recipient string `json:"recipient" yaml:"recipient"`
}

// NewConfig loads configuration from YAML file first, then overrides with environment variables
func NewConfig() (result0 *Config, err error) {
	config, err := loadConfigWithOverrides()
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config: %w", err)
	}

	config.applyDefaults()
	config.overrideFromEnv()

	return config, nil
}

// applyDefaults fills unset fields with the values the original deployment used.
func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.MaxImageBytes == 0 {
		c.Server.MaxImageBytes = DefaultMaxImageBytes
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = DefaultStorageDir
	}
	if c.Storage.File == "" {
		c.Storage.File = DefaultStorageFile
	}
	if c.Triage.OverdueThresholdDays == 0 {
		c.Triage.OverdueThresholdDays = DefaultOverdueThresholdDays
	}
	if c.Triage.ScanInterval == 0 {
		c.Triage.ScanInterval = Duration(DefaultScanInterval)
	}
	if c.Classifier.Endpoint == "" {
		c.Classifier.Endpoint = DefaultClassifierEndpoint
	}
	if c.Classifier.ImageModel == "" {
		c.Classifier.ImageModel = DefaultImageModel
	}
	if c.Classifier.TextModel == "" {
		c.Classifier.TextModel = DefaultTextModel
	}
	if c.Classifier.Timeout == 0 {
		c.Classifier.Timeout = Duration(DefaultClassifierTimeout)
	}
	if c.Geocoder.Endpoint == "" {
		c.Geocoder.Endpoint = DefaultGeocoderEndpoint
	}
	if c.Geocoder.UserAgent == "" {
		c.Geocoder.UserAgent = DefaultGeocoderUserAgent
	}
	if c.Geocoder.Timeout == 0 {
		c.Geocoder.Timeout = Duration(DefaultGeocoderTimeout)
	}
}

// overrideFromEnv overrides config values with environment variables using reflection
func (c *Config) overrideFromEnv() {
	overrideStructFromEnvWithPrefix(c, "")
}

// overrideStructFromEnvWithPrefix recursively overrides struct fields with environment variables
func overrideStructFromEnvWithPrefix(v interface{}, prefix string) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		// Skip unexported fields
		if !field.CanSet() {
			continue
		}

		// Get the yaml tag for the field
		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		yamlTag = strings.Split(yamlTag, ",")[0]

		// Convert yaml tag to environment variable name
		envKey := strings.ToUpper(strings.ReplaceAll(yamlTag, "-", "_"))
		if prefix != "" {
			envKey = prefix + "_" + envKey
		}

		switch field.Kind() {
		case reflect.String:
			if envVal := os.Getenv(envKey); envVal != "" {
				field.SetString(envVal)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if envVal := os.Getenv(envKey); envVal != "" {
				// Duration fields accept "90s" style values
				if field.Type() == reflect.TypeOf(Duration(0)) || field.Type() == reflect.TypeOf(time.Duration(0)) {
					if d, err := time.ParseDuration(envVal); err == nil {
						field.SetInt(int64(d))
					}
					continue
				}
				if intVal, err := strconv.ParseInt(envVal, 10, 64); err == nil {
					field.SetInt(intVal)
				}
			}
		case reflect.Float32, reflect.Float64:
			if envVal := os.Getenv(envKey); envVal != "" {
				if floatVal, err := strconv.ParseFloat(envVal, 64); err == nil {
					field.SetFloat(floatVal)
				}
			}
		case reflect.Bool:
			if envVal := os.Getenv(envKey); envVal != "" {
				if boolVal, err := strconv.ParseBool(envVal); err == nil {
					field.SetBool(boolVal)
				}
			}
		case reflect.Slice:
			if envVal := os.Getenv(envKey); envVal != "" {
				if field.Type().Elem().Kind() == reflect.String {
					slice := strings.Split(envVal, ",")
					field.Set(reflect.ValueOf(slice))
				}
			}
		case reflect.Struct:
			if field.CanAddr() {
				fieldPrefix := strings.ToUpper(strings.ReplaceAll(yamlTag, "-", "_"))
				if prefix != "" {
					fieldPrefix = prefix + "_" + fieldPrefix
				}
				overrideStructFromEnvWithPrefix(field.Addr().Interface(), fieldPrefix)
			}
		case reflect.Ptr:
			if !field.IsNil() && field.Elem().Kind() == reflect.Struct {
				fieldPrefix := strings.ToUpper(strings.ReplaceAll(yamlTag, "-", "_"))
				if prefix != "" {
					fieldPrefix = prefix + "_" + fieldPrefix
				}
				overrideStructFromEnvWithPrefix(field.Interface(), fieldPrefix)
			}
		}
	}
}

// loadConfigWithOverrides loads the config file with potential local overrides
func loadConfigWithOverrides() (result0 *Config, err error) {
	// Try to load from environment variable first
	if envPath := os.Getenv("CIVICREPORT_CONFIG_FILE"); envPath != "" {
		config, err := loadConfigFromFile(envPath)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config from %s: %w", envPath, err)
		}
		return config, nil
	}

	// If no environment variable is set, try default config.yaml
	config, err := loadConfigFromFile("config.yaml")
	if err != nil {
		if os.IsNotExist(err) {
			// No file at all: defaults plus environment are enough to run
			return &Config{}, nil
		}
		return nil, err
	}
	return config, nil
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (result0 *Config, err error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(yamlFile, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
