package api

import "github.com/chatwerk/cyclequota/pkg/cyclequota"

// UsageResponse is the complete quota standing of a tenant. The Quota field
// carries the full decision payload; the text fields are pre-localized for
// direct display in settings UIs.
type UsageResponse struct {
	TenantID      string               `json:"tenantId"`
	Quota         *cyclequota.Decision `json:"quota"`
	PeriodText    string               `json:"periodText"`    // e.g. "quarterly cycle"
	NextResetText string               `json:"nextResetText"` // e.g. "April 15, 2025"
}

// DurationOptionsResponse lists the selectable cycle durations for a
// settings UI.
type DurationOptionsResponse struct {
	Options []cyclequota.DurationOption `json:"options"`
}

// ErrorResponse is the JSON body of a failed API request.
type ErrorResponse struct {
	Error string `json:"error"`
}
