// Package http provides HTTP middleware for cycle-quota enforcement.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/chatwerk/cyclequota/pkg/cyclequota"
)

// TenantExtractor extracts the tenant ID from an HTTP request.
// Return empty string if the request is not authenticated.
type TenantExtractor func(r *http.Request) string

// ConfigSource loads the tenant's cycle configuration, typically from the
// tenant record.
type ConfigSource func(ctx context.Context, tenantID string) (cyclequota.CycleConfig, error)

// Config holds middleware configuration.
type Config struct {
	// Gate is the quota gate instance (required).
	Gate *cyclequota.Gate

	// GetTenantID extracts the tenant ID from the request (required).
	GetTenantID TenantExtractor

	// GetConfig loads the tenant's cycle config (required).
	GetConfig ConfigSource

	// OnDenied is called when the quota check denies.
	// If nil, responds 429 with the decision as JSON.
	OnDenied func(w http.ResponseWriter, r *http.Request, decision *cyclequota.Decision)

	// OnUnauthorized is called when no tenant ID can be extracted.
	// If nil, responds 401 Unauthorized.
	OnUnauthorized func(w http.ResponseWriter, r *http.Request)

	// OnError is called when config loading or the check itself errors.
	// If nil, responds 500 Internal Server Error.
	OnError func(w http.ResponseWriter, r *http.Request, err error)
}

// Middleware creates an HTTP middleware that enforces cycle quotas. Allowed
// requests pass through with X-Quota-* headers describing the current cycle;
// denied requests get a 429 carrying the structured decision payload.
//
// The check is read-only. Handlers record the usage event themselves after
// the gated action succeeds.
func Middleware(config Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := config.GetTenantID(r)
			if tenantID == "" {
				if config.OnUnauthorized != nil {
					config.OnUnauthorized(w, r)
				} else {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
				}
				return
			}

			ctx := r.Context()
			cycleCfg, err := config.GetConfig(ctx, tenantID)
			if err != nil {
				config.fail(w, r, err)
				return
			}

			decision, err := config.Gate.Check(ctx, tenantID, cycleCfg)
			if err != nil {
				config.fail(w, r, err)
				return
			}

			SetQuotaHeaders(w.Header(), decision)

			if !decision.Allowed {
				if config.OnDenied != nil {
					config.OnDenied(w, r, decision)
				} else {
					WriteDenied(w, decision)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HandlerFunc creates an HTTP middleware that enforces cycle quotas
// (HandlerFunc version).
func HandlerFunc(config Config) func(http.HandlerFunc) http.HandlerFunc {
	middleware := Middleware(config)
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			middleware(next).ServeHTTP(w, r)
		}
	}
}

func (c Config) fail(w http.ResponseWriter, r *http.Request, err error) {
	if c.OnError != nil {
		c.OnError(w, r, err)
	} else {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// SetQuotaHeaders writes the X-Quota-* response headers for a decision.
// Limit and Remaining are omitted for unlimited tenants.
func SetQuotaHeaders(h http.Header, decision *cyclequota.Decision) {
	if decision.UsageLimit != nil {
		h.Set("X-Quota-Limit", strconv.Itoa(*decision.UsageLimit))
	}
	if decision.Remaining != nil {
		h.Set("X-Quota-Remaining", strconv.Itoa(*decision.Remaining))
	}
	h.Set("X-Quota-Reset", decision.Cycle.NextReset.UTC().Format(time.RFC3339))
}

// WriteDenied writes the default 429 response with the decision as JSON.
func WriteDenied(w http.ResponseWriter, decision *cyclequota.Decision) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(decision)
}

// Common extractors for convenience

// HeaderTenant returns a TenantExtractor that reads a request header,
// e.g. "X-Tenant-ID".
func HeaderTenant(name string) TenantExtractor {
	return func(r *http.Request) string {
		return r.Header.Get(name)
	}
}

// StaticConfig returns a ConfigSource that serves the same cycle config for
// every tenant. Useful when all tenants share one plan.
func StaticConfig(cfg cyclequota.CycleConfig) ConfigSource {
	return func(context.Context, string) (cyclequota.CycleConfig, error) {
		return cfg, nil
	}
}
