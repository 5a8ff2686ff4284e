package observability

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Config is the tracing section of the server configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string // development, staging, production
	TracingEnabled bool
	OTLPEndpoint   string
	OTLPHeaders    map[string]string
	SamplingRate   float64 // 0.0 - 1.0
	PIILevel       string  // none|hashed|full

	TraceBatchTimeout time.Duration
	ResourceAttrs     []attribute.KeyValue
}

// DefaultConfig leaves tracing off and points at a local collector.
func DefaultConfig(serviceName string) Config {
	return Config{
		ServiceName:       serviceName,
		ServiceVersion:    "unknown",
		Environment:       "development",
		TracingEnabled:    false,
		OTLPEndpoint:      "otel-collector:4318",
		SamplingRate:      1.0,
		PIILevel:          "hashed",
		TraceBatchTimeout: 5 * time.Second,
	}
}
