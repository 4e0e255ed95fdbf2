// Package echo provides Echo middleware for cycle-quota enforcement.
package echo

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/chatwerk/cyclequota/pkg/cyclequota"
)

// TenantExtractor extracts the tenant ID from an Echo context.
// Return empty string if the request is not authenticated.
type TenantExtractor func(c echo.Context) string

// ConfigSource loads the tenant's cycle configuration.
type ConfigSource func(ctx context.Context, tenantID string) (cyclequota.CycleConfig, error)

// Config holds middleware configuration.
type Config struct {
	// Gate is the quota gate instance (required).
	Gate *cyclequota.Gate

	// GetTenantID extracts the tenant ID from the context (required).
	GetTenantID TenantExtractor

	// GetConfig loads the tenant's cycle config (required).
	GetConfig ConfigSource

	// DeniedStatusCode is the HTTP status code for denied checks.
	// Default: 429 (Too Many Requests)
	DeniedStatusCode int

	// OnDenied is called when the quota check denies.
	// If nil, responds DeniedStatusCode with the decision as JSON.
	OnDenied func(c echo.Context, decision *cyclequota.Decision) error

	// OnUnauthorized is called when no tenant ID can be extracted.
	// If nil, returns 401 Unauthorized.
	OnUnauthorized func(c echo.Context) error

	// OnError is called when config loading or the check itself errors.
	// If nil, returns 500 Internal Server Error.
	OnError func(c echo.Context, err error) error
}

// Middleware creates an Echo middleware that enforces cycle quotas.
func Middleware(cfg Config) echo.MiddlewareFunc {
	if cfg.Gate == nil {
		panic("cyclequota/echo: Config.Gate is required")
	}
	if cfg.GetTenantID == nil {
		panic("cyclequota/echo: Config.GetTenantID is required")
	}
	if cfg.GetConfig == nil {
		panic("cyclequota/echo: Config.GetConfig is required")
	}
	if cfg.DeniedStatusCode == 0 {
		cfg.DeniedStatusCode = http.StatusTooManyRequests
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenantID := cfg.GetTenantID(c)
			if tenantID == "" {
				if cfg.OnUnauthorized != nil {
					return cfg.OnUnauthorized(c)
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}

			ctx := c.Request().Context()
			cycleCfg, err := cfg.GetConfig(ctx, tenantID)
			if err != nil {
				return cfg.fail(c, err)
			}

			decision, err := cfg.Gate.Check(ctx, tenantID, cycleCfg)
			if err != nil {
				return cfg.fail(c, err)
			}

			setQuotaHeaders(c, decision)

			if !decision.Allowed {
				if cfg.OnDenied != nil {
					return cfg.OnDenied(c, decision)
				}
				return c.JSON(cfg.DeniedStatusCode, decision)
			}

			return next(c)
		}
	}
}

func (c Config) fail(ec echo.Context, err error) error {
	if c.OnError != nil {
		return c.OnError(ec, err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

func setQuotaHeaders(c echo.Context, decision *cyclequota.Decision) {
	h := c.Response().Header()
	if decision.UsageLimit != nil {
		h.Set("X-Quota-Limit", strconv.Itoa(*decision.UsageLimit))
	}
	if decision.Remaining != nil {
		h.Set("X-Quota-Remaining", strconv.Itoa(*decision.Remaining))
	}
	h.Set("X-Quota-Reset", decision.Cycle.NextReset.UTC().Format(time.RFC3339))
}

// Common extractors for convenience

// HeaderTenant returns a TenantExtractor that reads a request header.
func HeaderTenant(name string) TenantExtractor {
	return func(c echo.Context) string {
		return c.Request().Header.Get(name)
	}
}

// ContextTenant returns a TenantExtractor that reads a value set by an
// earlier auth middleware via c.Set.
func ContextTenant(key string) TenantExtractor {
	return func(c echo.Context) string {
		if s, ok := c.Get(key).(string); ok {
			return s
		}
		return ""
	}
}

// StaticConfig returns a ConfigSource that serves the same cycle config for
// every tenant.
func StaticConfig(cfg cyclequota.CycleConfig) ConfigSource {
	return func(context.Context, string) (cyclequota.CycleConfig, error) {
		return cfg, nil
	}
}
