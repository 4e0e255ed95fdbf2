// Package stripe implements the billing.Provider interface for Stripe.
// Subscription lifecycle events move the tenant's cycle anchor and plan;
// quota checks themselves never talk to Stripe.
package stripe

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/chatwerk/cyclequota/pkg/billing"
)

const (
	providerName             = "stripe"
	defaultHTTPTimeout       = 10 * time.Second
	subscriptionStatusActive = "active"
	tenantMetadataKey        = "tenant_id"
)

// Config extends billing.Config with Stripe-specific options.
type Config struct {
	billing.Config // Base config (Store, PriceMapping, etc.)

	// Stripe-specific
	StripeAPIKey        string
	StripeWebhookSecret string

	// TenantResolver optionally maps a Stripe customer ID to a tenant ID
	// when subscription metadata lacks tenant_id. If nil, only metadata is
	// consulted.
	TenantResolver func(ctx context.Context, customerID string) (string, error)
}

// Provider implements the billing.Provider interface for Stripe.
type Provider struct {
	store          billing.CycleStore
	config         Config
	httpClient     *http.Client
	priceMapping   map[string]billing.Plan // Price ID -> Plan
	defaultPlan    billing.Plan
	webhookSecret  []byte
	stripeClient   *stripe.Client
	tenantResolver func(ctx context.Context, customerID string) (string, error)
	metrics        billing.Metrics
}

// NewProvider creates a new Stripe billing provider.
func NewProvider(config Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(config.StripeAPIKey)
	if apiKey == "" {
		return nil, billing.ErrProviderNotConfigured
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: defaultHTTPTimeout,
		}
	}

	// Price IDs are matched case-insensitively
	priceMapping := make(map[string]billing.Plan, len(config.PriceMapping))
	for id, plan := range config.PriceMapping {
		priceMapping[strings.ToLower(id)] = plan
	}

	metrics := config.Metrics
	if metrics == nil {
		metrics = &billing.NoopMetrics{}
	}

	return &Provider{
		store:          config.Store,
		config:         config,
		httpClient:     httpClient,
		priceMapping:   priceMapping,
		defaultPlan:    config.DefaultPlan,
		webhookSecret:  []byte(strings.TrimSpace(config.StripeWebhookSecret)),
		stripeClient:   stripe.NewClient(apiKey),
		tenantResolver: config.TenantResolver,
		metrics:        metrics,
	}, nil
}

// Name implements billing.Provider.
func (p *Provider) Name() string {
	return providerName
}

// WebhookHandler implements billing.Provider.
func (p *Provider) WebhookHandler() http.Handler {
	return http.HandlerFunc(p.handleWebhook)
}

// MapPriceToPlan resolves a Stripe price ID to its configured plan.
func (p *Provider) MapPriceToPlan(priceID string) (billing.Plan, bool) {
	plan, ok := p.priceMapping[strings.ToLower(priceID)]
	return plan, ok
}
