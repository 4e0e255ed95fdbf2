// Package firestore provides a Firestore implementation of the
// cyclequota.UsageCounter interface plus per-tenant cycle config storage.
//
// Usage events are stored as individual documents and counted with a
// server-side COUNT aggregation, so reads never download event payloads.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/chatwerk/cyclequota/pkg/cyclequota"
)

// Store implements cyclequota.UsageCounter using Google Cloud Firestore.
type Store struct {
	client           *firestore.Client
	usageCollection  string
	configCollection string
}

// Config holds Firestore storage configuration.
type Config struct {
	// UsageCollection is the Firestore collection for usage events
	// Default: "usage_events"
	UsageCollection string

	// ConfigCollection is the Firestore collection for tenant cycle configs
	// Default: "cycle_configs"
	ConfigCollection string
}

// New creates a new Firestore storage adapter.
func New(client *firestore.Client, config Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client is required")
	}

	if config.UsageCollection == "" {
		config.UsageCollection = "usage_events"
	}
	if config.ConfigCollection == "" {
		config.ConfigCollection = "cycle_configs"
	}

	return &Store{
		client:           client,
		usageCollection:  config.UsageCollection,
		configCollection: config.ConfigCollection,
	}, nil
}

// Record stores a usage event document for the tenant.
func (s *Store) Record(ctx context.Context, tenantID string, at time.Time) error {
	if tenantID == "" {
		return fmt.Errorf("tenant id is required")
	}

	_, _, err := s.client.Collection(s.usageCollection).Add(ctx, map[string]interface{}{
		"tenantId":  tenantID,
		"createdAt": at.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to record usage event: %w", err)
	}
	return nil
}

// Count implements cyclequota.UsageCounter using a COUNT aggregation over the
// inclusive range.
func (s *Store) Count(ctx context.Context, tenantID string, start, end time.Time) (int, error) {
	query := s.client.Collection(s.usageCollection).
		Where("tenantId", "==", tenantID).
		Where("createdAt", ">=", start.UTC()).
		Where("createdAt", "<=", end.UTC())

	result, err := query.NewAggregationQuery().WithCount("total").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count usage events: %w", err)
	}

	value, ok := result["total"]
	if !ok {
		return 0, fmt.Errorf("aggregation result missing count")
	}
	count, ok := value.(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected aggregation value type %T", value)
	}
	return int(count.GetIntegerValue()), nil
}

// GetCycleConfig loads the tenant's stored cycle configuration. Returns
// cyclequota.ErrConfigNotFound when no document exists.
func (s *Store) GetCycleConfig(ctx context.Context, tenantID string) (*cyclequota.CycleConfig, error) {
	snap, err := s.client.Collection(s.configCollection).Doc(tenantID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, cyclequota.ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to get cycle config: %w", err)
	}
	if !snap.Exists() {
		return nil, cyclequota.ErrConfigNotFound
	}

	data := snap.Data()
	cfg := &cyclequota.CycleConfig{}

	if months, ok := data["durationMonths"].(int64); ok {
		cfg.Duration = cyclequota.CycleDuration(months)
	}
	if start, ok := data["startDate"].(time.Time); ok && !start.IsZero() {
		cfg.StartDate = &start
	}
	if limit, ok := data["usageLimit"].(int64); ok {
		l := int(limit)
		cfg.UsageLimit = &l
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("stored cycle config invalid: %w", err)
	}
	return cfg, nil
}

// SetCycleConfig stores the tenant's cycle configuration. Billing webhooks
// call this when a subscription anchor or plan changes.
func (s *Store) SetCycleConfig(ctx context.Context, tenantID string, cfg cyclequota.CycleConfig) error {
	if tenantID == "" {
		return fmt.Errorf("tenant id is required")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid cycle config: %w", err)
	}

	// Nil fields are deleted, not skipped: a plan downgrade that drops the
	// custom anchor must clear any previously stored startDate.
	data := map[string]interface{}{
		"durationMonths": int64(cfg.Duration),
		"updatedAt":      time.Now().UTC(),
		"startDate":      firestore.Delete,
		"usageLimit":     firestore.Delete,
	}
	if cfg.StartDate != nil {
		data["startDate"] = cfg.StartDate.UTC()
	}
	if cfg.UsageLimit != nil {
		data["usageLimit"] = int64(*cfg.UsageLimit)
	}

	_, err := s.client.Collection(s.configCollection).Doc(tenantID).Set(ctx, data, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to set cycle config: %w", err)
	}
	return nil
}
