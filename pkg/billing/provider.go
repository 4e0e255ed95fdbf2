// Package billing connects subscription providers to tenant cycle
// configuration. A provider listens for subscription lifecycle events and
// keeps each tenant's billing-cycle anchor, duration and usage limit in sync
// with the subscription.
package billing

import (
	"context"
	"net/http"

	"github.com/chatwerk/cyclequota/pkg/cyclequota"
)

// Provider is the generic interface that any billing backend must implement.
type Provider interface {
	// Name returns the provider name (e.g. "stripe")
	Name() string

	// WebhookHandler returns the HTTP handler that processes real-time
	// subscription events. The implementation handles validation, parsing,
	// and cycle store updates internally.
	WebhookHandler() http.Handler

	// SyncTenant forces a synchronization of the tenant's cycle config from
	// the provider. Used for reconciliation jobs and support tooling.
	// Returns the resulting config.
	SyncTenant(ctx context.Context, tenantID string) (*cyclequota.CycleConfig, error)
}

// CycleStore persists per-tenant cycle configurations. storage/firestore
// implements it; applications with their own tenant records supply an
// adapter.
type CycleStore interface {
	// GetCycleConfig returns the tenant's stored config, or
	// cyclequota.ErrConfigNotFound.
	GetCycleConfig(ctx context.Context, tenantID string) (*cyclequota.CycleConfig, error)

	// SetCycleConfig stores the tenant's config.
	SetCycleConfig(ctx context.Context, tenantID string, cfg cyclequota.CycleConfig) error
}
