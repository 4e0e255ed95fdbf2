package billing

import "errors"

var (
	// ErrProviderNotConfigured is returned when a provider is not properly configured
	ErrProviderNotConfigured = errors.New("billing provider not configured")

	// ErrInvalidWebhookSignature is returned when webhook signature validation fails
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")

	// ErrInvalidWebhookPayload is returned when webhook payload cannot be parsed
	ErrInvalidWebhookPayload = errors.New("invalid webhook payload")

	// ErrTenantNotFound is returned when a tenant cannot be found in the provider's system
	ErrTenantNotFound = errors.New("tenant not found in billing provider")

	// ErrPlanNotConfigured is returned when a price has no entry in the plan mapping
	ErrPlanNotConfigured = errors.New("plan not configured in price mapping")
)
