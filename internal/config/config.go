package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the process configuration, loaded from the environment.
type Config struct {
	Port        string `envconfig:"PORT" default:"8086"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// JWTSecret signs the bearer tokens issued by the marketplace auth service.
	JWTSecret        string        `envconfig:"JWT_SECRET"`
	HandshakeTimeout time.Duration `envconfig:"HANDSHAKE_TIMEOUT" default:"5s"`

	AMQPURL          string `envconfig:"AMQP_URL"`
	WSEventsExchange string `envconfig:"WS_EVENTS_EXCHANGE" default:"realtime_ws_events"`
	AuditExchange    string `envconfig:"AUDIT_EXCHANGE" default:"audit_events"`
	AuditRoutingKey  string `envconfig:"AUDIT_ROUTING_KEY" default:"audit.realtime"`

	// InternalAPIToken guards the REST surface used by the CRUD service.
	InternalAPIToken string `envconfig:"INTERNAL_API_TOKEN"`

	DebugEndpoints bool `envconfig:"DEBUG_ENDPOINTS" default:"false"`
	TracingEnabled bool `envconfig:"TRACING_ENABLED" default:"false"`
}

// Load reads and validates the configuration.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}
