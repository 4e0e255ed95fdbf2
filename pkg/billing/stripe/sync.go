package stripe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/chatwerk/cyclequota/pkg/billing"
	"github.com/chatwerk/cyclequota/pkg/cyclequota"
)

// SyncTenant implements billing.Provider. It reconciles the tenant's cycle
// config against the subscriptions Stripe currently reports, for nightly
// reconciliation jobs and support tooling. The existing cycle anchor is
// preserved when the plan is unchanged.
func (p *Provider) SyncTenant(ctx context.Context, tenantID string) (*cyclequota.CycleConfig, error) {
	startTime := time.Now()

	customerID, err := p.searchCustomerByMetadata(ctx, tenantID)
	if err != nil {
		if errors.Is(err, billing.ErrTenantNotFound) {
			// Tenant has no Stripe customer: drop to the default plan.
			return p.syncToDefaultPlan(ctx, tenantID, startTime)
		}
		p.metrics.RecordTenantSync(providerName, "error")
		p.metrics.RecordTenantSyncDuration(providerName, time.Since(startTime))
		return nil, err
	}

	return p.syncCustomer(ctx, customerID, tenantID, startTime)
}

// searchCustomerByMetadata finds the tenant's customer via the Stripe Search
// API (eventually consistent, ~500ms).
func (p *Provider) searchCustomerByMetadata(ctx context.Context, tenantID string) (string, error) {
	params := &stripe.CustomerSearchParams{}
	params.Query = fmt.Sprintf("metadata['%s']:'%s'", tenantMetadataKey, tenantID)

	for cust, err := range p.stripeClient.V1Customers.Search(ctx, params) {
		if err != nil {
			return "", fmt.Errorf("stripe search error: %w", err)
		}
		// Search can return partial matches, verify exactly
		if cust.Metadata != nil && cust.Metadata[tenantMetadataKey] == tenantID {
			return cust.ID, nil
		}
	}

	return "", billing.ErrTenantNotFound
}

func (p *Provider) syncCustomer(ctx context.Context, customerID, tenantID string, startTime time.Time) (*cyclequota.CycleConfig, error) {
	params := &stripe.SubscriptionListParams{}
	params.Customer = stripe.String(customerID)
	params.Status = stripe.String(subscriptionStatusActive)

	var best *billing.Plan
	var oldestCreated int64

	for sub, err := range p.stripeClient.V1Subscriptions.List(ctx, params) {
		if err != nil {
			p.metrics.RecordAPICall(providerName, "/subscriptions/list", "error")
			p.metrics.RecordTenantSync(providerName, "error")
			p.metrics.RecordTenantSyncDuration(providerName, time.Since(startTime))
			return nil, fmt.Errorf("failed to list subscriptions: %w", err)
		}
		if sub.Status != subscriptionStatusActive {
			continue
		}
		plan, err := p.extractPlan(sub)
		if err != nil {
			continue
		}
		if best == nil || morePlan(plan, *best) {
			candidate := plan
			best = &candidate
		}
		if oldestCreated == 0 || sub.Created < oldestCreated {
			oldestCreated = sub.Created
		}
	}

	p.metrics.RecordAPICall(providerName, "/subscriptions/list", "200")
	p.metrics.RecordAPICallDuration(providerName, "/subscriptions/list", time.Since(startTime))

	if best == nil {
		// No active mapped subscription
		return p.syncToDefaultPlan(ctx, tenantID, startTime)
	}

	existing, err := p.store.GetCycleConfig(ctx, tenantID)
	if err != nil && !errors.Is(err, cyclequota.ErrConfigNotFound) {
		p.metrics.RecordTenantSync(providerName, "error")
		p.metrics.RecordTenantSyncDuration(providerName, time.Since(startTime))
		return nil, err
	}

	cfg := planConfig(*best)
	switch {
	case existing != nil && samePlan(*existing, *best):
		cfg.StartDate = existing.StartDate
	case oldestCreated > 0:
		cfg = cfg.ResetToNow(time.Unix(oldestCreated, 0).UTC())
	default:
		cfg = cfg.ResetToNow(time.Now().UTC())
	}

	if err := p.store.SetCycleConfig(ctx, tenantID, cfg); err != nil {
		p.metrics.RecordTenantSync(providerName, "error")
		p.metrics.RecordTenantSyncDuration(providerName, time.Since(startTime))
		return nil, fmt.Errorf("failed to store cycle config: %w", err)
	}

	p.metrics.RecordTenantSync(providerName, "success")
	p.metrics.RecordTenantSyncDuration(providerName, time.Since(startTime))
	return &cfg, nil
}

func (p *Provider) syncToDefaultPlan(ctx context.Context, tenantID string, startTime time.Time) (*cyclequota.CycleConfig, error) {
	cfg := planConfig(p.defaultPlan)
	if err := p.store.SetCycleConfig(ctx, tenantID, cfg); err != nil {
		p.metrics.RecordTenantSync(providerName, "error")
		p.metrics.RecordTenantSyncDuration(providerName, time.Since(startTime))
		return nil, fmt.Errorf("failed to store cycle config: %w", err)
	}

	p.metrics.RecordTenantSync(providerName, "success")
	p.metrics.RecordTenantSyncDuration(providerName, time.Since(startTime))
	return &cfg, nil
}
