package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/chatwerk/cyclequota/pkg/billing"
	"github.com/chatwerk/cyclequota/pkg/billing/internal"
	"github.com/chatwerk/cyclequota/pkg/cyclequota"
)

const maxWebhookBody = 256 * 1024

// handleWebhook processes incoming Stripe webhook events
func (p *Provider) handleWebhook(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	setSecurityHeaders(w)

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if len(p.webhookSecret) == 0 {
		http.Error(w, "webhook not configured", http.StatusServiceUnavailable)
		return
	}

	body, err := internal.ReadBodyStrict(w, r, maxWebhookBody)
	if err != nil {
		if errors.Is(err, internal.ErrPayloadTooLarge) {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			p.metrics.RecordWebhookError(providerName, "payload_too_large")
		} else {
			http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
			p.metrics.RecordWebhookError(providerName, "invalid_payload")
		}
		return
	}

	sig := r.Header.Get("Stripe-Signature")
	event, err := stripe.ConstructEvent(body, sig, string(p.webhookSecret))
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		p.metrics.RecordWebhookError(providerName, "auth_failed")
		return
	}

	eventType := string(event.Type)
	if eventType == "" {
		eventType = "UNKNOWN"
	}

	if err := p.processWebhookEvent(r.Context(), &event); err != nil {
		http.Error(w, "failed to process webhook", http.StatusInternalServerError)
		p.metrics.RecordWebhookEvent(providerName, eventType, "error")
		p.metrics.RecordWebhookError(providerName, "processing_error")
		p.metrics.RecordWebhookProcessingDuration(providerName, eventType, time.Since(startTime))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))

	p.metrics.RecordWebhookEvent(providerName, eventType, "success")
	p.metrics.RecordWebhookProcessingDuration(providerName, eventType, time.Since(startTime))
}

func (p *Provider) processWebhookEvent(ctx context.Context, event *stripe.Event) error {
	eventTimestamp := time.Unix(event.Created, 0).UTC()

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		return p.handleSubscriptionChanged(ctx, event, eventTimestamp)
	case "customer.subscription.deleted":
		return p.handleSubscriptionDeleted(ctx, event)
	default:
		// Unknown event type - ignore silently
		return nil
	}
}

// handleSubscriptionChanged moves the tenant onto the plan granted by the
// subscription. A plan change mid-period resets the cycle anchor to the event
// day, restarting numbering with a fresh full-length cycle; renewals and
// no-op updates keep the existing anchor.
func (p *Provider) handleSubscriptionChanged(ctx context.Context, event *stripe.Event, eventTimestamp time.Time) error {
	var subscription stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		return fmt.Errorf("%w: %v", billing.ErrInvalidWebhookPayload, err)
	}

	tenantID, err := p.extractTenantID(ctx, &subscription)
	if err != nil {
		return err
	}

	if subscription.Status != subscriptionStatusActive {
		// Inactive subscriptions (incomplete, past_due, canceled) don't
		// change the tenant's plan; deletion is handled separately.
		return nil
	}

	plan, err := p.extractPlan(&subscription)
	if err != nil {
		return err
	}

	existing, err := p.store.GetCycleConfig(ctx, tenantID)
	if err != nil && !errors.Is(err, cyclequota.ErrConfigNotFound) {
		return fmt.Errorf("failed to load cycle config for %s: %w", tenantID, err)
	}

	cfg := planConfig(plan)
	switch {
	case existing == nil:
		// First subscription: anchor at the subscription start day.
		anchor := eventTimestamp
		if subscription.Created > 0 {
			anchor = time.Unix(subscription.Created, 0).UTC()
		}
		cfg = cfg.ResetToNow(anchor)
		p.metrics.RecordCycleReset(providerName, "subscription_created")
	case samePlan(*existing, plan):
		// Renewal or unrelated update: keep the anchor.
		cfg.StartDate = existing.StartDate
	default:
		// Mid-period plan change: fresh full-length cycle from the event day.
		cfg = cfg.ResetToNow(eventTimestamp)
		p.metrics.RecordCycleReset(providerName, "plan_changed")
	}

	if err := p.store.SetCycleConfig(ctx, tenantID, cfg); err != nil {
		return fmt.Errorf("failed to store cycle config for %s: %w", tenantID, err)
	}
	return nil
}

// handleSubscriptionDeleted drops the tenant to the default plan with
// calendar-month cycles.
func (p *Provider) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) error {
	var subscription stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		return fmt.Errorf("%w: %v", billing.ErrInvalidWebhookPayload, err)
	}

	tenantID, err := p.extractTenantID(ctx, &subscription)
	if err != nil {
		return err
	}

	cfg := planConfig(p.defaultPlan)
	if err := p.store.SetCycleConfig(ctx, tenantID, cfg); err != nil {
		return fmt.Errorf("failed to store cycle config for %s: %w", tenantID, err)
	}
	p.metrics.RecordCycleReset(providerName, "subscription_deleted")
	return nil
}

// extractTenantID reads tenant_id from subscription metadata, then customer
// metadata, then the optional resolver.
func (p *Provider) extractTenantID(ctx context.Context, sub *stripe.Subscription) (string, error) {
	if sub.Metadata != nil {
		if tenantID := sub.Metadata[tenantMetadataKey]; tenantID != "" {
			return tenantID, nil
		}
	}

	if sub.Customer != nil {
		cust, err := p.stripeClient.V1Customers.Retrieve(ctx, sub.Customer.ID, nil)
		if err == nil && cust.Metadata != nil {
			if tenantID := cust.Metadata[tenantMetadataKey]; tenantID != "" {
				return tenantID, nil
			}
		}

		if p.tenantResolver != nil {
			tenantID, err := p.tenantResolver(ctx, sub.Customer.ID)
			if err == nil && tenantID != "" {
				return tenantID, nil
			}
		}
	}

	return "", fmt.Errorf("%w: metadata.%s missing on subscription %s",
		billing.ErrTenantNotFound, tenantMetadataKey, sub.ID)
}

// extractPlan resolves the subscription's items to a single plan. With
// multiple mapped prices the most generous wins: unlimited beats any limit,
// then higher limits, then longer cycles.
func (p *Provider) extractPlan(sub *stripe.Subscription) (billing.Plan, error) {
	var best *billing.Plan

	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item.Price == nil {
				continue
			}
			plan, ok := p.MapPriceToPlan(item.Price.ID)
			if !ok {
				continue
			}
			if best == nil || morePlan(plan, *best) {
				candidate := plan
				best = &candidate
			}
		}
	}

	if best == nil {
		return billing.Plan{}, fmt.Errorf("%w: subscription %s", billing.ErrPlanNotConfigured, sub.ID)
	}
	return *best, nil
}

// morePlan reports whether a grants more quota than b.
func morePlan(a, b billing.Plan) bool {
	if (a.UsageLimit == nil) != (b.UsageLimit == nil) {
		return a.UsageLimit == nil
	}
	if a.UsageLimit != nil && *a.UsageLimit != *b.UsageLimit {
		return *a.UsageLimit > *b.UsageLimit
	}
	return a.Duration > b.Duration
}

func samePlan(cfg cyclequota.CycleConfig, plan billing.Plan) bool {
	if cfg.Duration != plan.Duration {
		return false
	}
	if (cfg.UsageLimit == nil) != (plan.UsageLimit == nil) {
		return false
	}
	return cfg.UsageLimit == nil || *cfg.UsageLimit == *plan.UsageLimit
}

// planConfig builds the cycle config a plan grants, without an anchor.
func planConfig(plan billing.Plan) cyclequota.CycleConfig {
	return cyclequota.CycleConfig{
		Duration:   plan.Duration,
		UsageLimit: plan.UsageLimit,
	}
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
