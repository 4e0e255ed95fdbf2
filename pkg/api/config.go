package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/chatwerk/cyclequota/pkg/cyclequota"
)

// Config holds configuration for the Usage API handler.
type Config struct {
	// Gate is the quota gate instance (required).
	Gate *cyclequota.Gate

	// GetTenantID extracts the tenant ID from the HTTP request (required).
	// Same pattern as middleware/http.
	GetTenantID func(*http.Request) string

	// GetConfig loads the tenant's cycle config (required).
	GetConfig func(ctx context.Context, tenantID string) (cyclequota.CycleConfig, error)

	// OnError handles errors (auth, internal, etc.).
	// If nil, uses default error handling.
	OnError func(http.ResponseWriter, *http.Request, error)
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Gate == nil {
		return fmt.Errorf("gate is required")
	}
	if c.GetTenantID == nil {
		return fmt.Errorf("getTenantID is required")
	}
	if c.GetConfig == nil {
		return fmt.Errorf("getConfig is required")
	}
	return nil
}

// NewHandler creates a new Usage API handler with the given configuration.
func NewHandler(config Config) (*Handler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Handler{
		config: config,
	}, nil
}

// Helper functions for common tenant ID extraction patterns

// FromHeader returns a GetTenantID function that reads a header.
func FromHeader(headerName string) func(*http.Request) string {
	return func(r *http.Request) string {
		return r.Header.Get(headerName)
	}
}

// FromContext returns a GetTenantID function that reads the request context.
// Uses the same context key pattern as middleware/http.
func FromContext(key interface{}) func(*http.Request) string {
	return func(r *http.Request) string {
		if tenantID, ok := r.Context().Value(key).(string); ok {
			return tenantID
		}
		return ""
	}
}
