// Package gin provides Gin middleware for cycle-quota enforcement.
package gin

import (
	"context"
	"net/http"
	"strconv"
	"time"

	gongin "github.com/gin-gonic/gin"

	"github.com/chatwerk/cyclequota/pkg/cyclequota"
)

// TenantExtractor extracts the tenant ID from a Gin context.
// Return empty string if the request is not authenticated.
type TenantExtractor func(c *gongin.Context) string

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
	OnDenied func(c *gongin.Context, decision *cyclequota.Decision)

	// OnUnauthorized is called when no tenant ID can be extracted.
	// If nil, returns 401 Unauthorized.
	OnUnauthorized func(c *gongin.Context)

	// OnError is called when config loading or the check itself errors.
	// If nil, returns 500 Internal Server Error.
	OnError func(c *gongin.Context, err error)
}

// Middleware creates a Gin middleware that enforces cycle quotas.
func Middleware(cfg Config) gongin.HandlerFunc {
	// Validate required configuration at startup (fail fast)
	if cfg.Gate == nil {
		panic("cyclequota/gin: Config.Gate is required")
	}
	if cfg.GetTenantID == nil {
		panic("cyclequota/gin: Config.GetTenantID is required")
	}
	if cfg.GetConfig == nil {
		panic("cyclequota/gin: Config.GetConfig is required")
	}
	if cfg.DeniedStatusCode == 0 {
		cfg.DeniedStatusCode = http.StatusTooManyRequests
	}

	return func(c *gongin.Context) {
		tenantID := cfg.GetTenantID(c)
		if tenantID == "" {
			if cfg.OnUnauthorized != nil {
				cfg.OnUnauthorized(c)
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gongin.H{"error": "unauthorized"})
			}
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		cycleCfg, err := cfg.GetConfig(ctx, tenantID)
		if err != nil {
			cfg.fail(c, err)
			return
		}

		decision, err := cfg.Gate.Check(ctx, tenantID, cycleCfg)
		if err != nil {
			cfg.fail(c, err)
			return
		}

		setQuotaHeaders(c, decision)

		if !decision.Allowed {
			if cfg.OnDenied != nil {
				cfg.OnDenied(c, decision)
			} else {
				c.JSON(cfg.DeniedStatusCode, decision)
			}
			c.Abort()
			return
		}

		c.Next()
	}
}

func (c Config) fail(gc *gongin.Context, err error) {
	if c.OnError != nil {
		c.OnError(gc, err)
	} else {
		gc.AbortWithStatusJSON(http.StatusInternalServerError, gongin.H{"error": "internal error"})
	}
	gc.Abort()
}

func setQuotaHeaders(c *gongin.Context, decision *cyclequota.Decision) {
	if decision.UsageLimit != nil {
		c.Header("X-Quota-Limit", strconv.Itoa(*decision.UsageLimit))
	}
	if decision.Remaining != nil {
		c.Header("X-Quota-Remaining", strconv.Itoa(*decision.Remaining))
	}
	c.Header("X-Quota-Reset", decision.Cycle.NextReset.UTC().Format(time.RFC3339))
}

// Common extractors for convenience

// HeaderTenant returns a TenantExtractor that reads a request header.
func HeaderTenant(name string) TenantExtractor {
	return func(c *gongin.Context) string {
		return c.GetHeader(name)
	}
}

// ContextTenant returns a TenantExtractor that reads a value set by an
// earlier auth middleware via c.Set.
func ContextTenant(key string) TenantExtractor {
	return func(c *gongin.Context) string {
		if v, ok := c.Get(key); ok {
			if s, ok := v.(string); ok {
				return s
			}
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
