// Package fiber provides Fiber middleware for cycle-quota enforcement.
package fiber

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/chatwerk/cyclequota/pkg/cyclequota"
)

// TenantExtractor extracts the tenant ID from a Fiber context.
// Return empty string if the request is not authenticated.
type TenantExtractor func(c *fiber.Ctx) string

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
	OnDenied func(c *fiber.Ctx, decision *cyclequota.Decision) error

	// OnUnauthorized is called when no tenant ID can be extracted.
	// If nil, returns 401 Unauthorized.
	OnUnauthorized func(c *fiber.Ctx) error

	// OnError is called when config loading or the check itself errors.
	// If nil, returns 500 Internal Server Error.
	OnError func(c *fiber.Ctx, err error) error
}

// Middleware creates a Fiber middleware that enforces cycle quotas.
func Middleware(cfg Config) fiber.Handler {
	if cfg.Gate == nil {
		panic("cyclequota/fiber: Config.Gate is required")
	}
	if cfg.GetTenantID == nil {
		panic("cyclequota/fiber: Config.GetTenantID is required")
	}
	if cfg.GetConfig == nil {
		panic("cyclequota/fiber: Config.GetConfig is required")
	}
	if cfg.DeniedStatusCode == 0 {
		cfg.DeniedStatusCode = fiber.StatusTooManyRequests
	}

	return func(c *fiber.Ctx) error {
		tenantID := cfg.GetTenantID(c)
		if tenantID == "" {
			if cfg.OnUnauthorized != nil {
				return cfg.OnUnauthorized(c)
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}

		ctx := c.UserContext()
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
			return c.Status(cfg.DeniedStatusCode).JSON(decision)
		}

		return c.Next()
	}
}

func (c Config) fail(fc *fiber.Ctx, err error) error {
	if c.OnError != nil {
		return c.OnError(fc, err)
	}
	return fc.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

func setQuotaHeaders(c *fiber.Ctx, decision *cyclequota.Decision) {
	if decision.UsageLimit != nil {
		c.Set("X-Quota-Limit", strconv.Itoa(*decision.UsageLimit))
	}
	if decision.Remaining != nil {
		c.Set("X-Quota-Remaining", strconv.Itoa(*decision.Remaining))
	}
	c.Set("X-Quota-Reset", decision.Cycle.NextReset.UTC().Format(time.RFC3339))
}

// Common extractors for convenience

// HeaderTenant returns a TenantExtractor that reads a request header.
func HeaderTenant(name string) TenantExtractor {
	return func(c *fiber.Ctx) string {
		return c.Get(name)
	}
}

// LocalsTenant returns a TenantExtractor that reads a value stored in
// c.Locals by an earlier auth middleware.
func LocalsTenant(key string) TenantExtractor {
	return func(c *fiber.Ctx) string {
		if s, ok := c.Locals(key).(string); ok {
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
