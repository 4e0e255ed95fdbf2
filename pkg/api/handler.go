// Package api provides read-only HTTP endpoints for quota inspection:
// the tenant's current cycle standing and the selectable cycle durations.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/text/language"

	"github.com/chatwerk/cyclequota/pkg/cyclequota"
)

const maxTenantIDLen = 255

// Handler provides HTTP endpoints for quota inspection.
type Handler struct {
	config Config
}

// GetUsage returns the tenant's current quota standing as JSON. The response
// carries the full decision payload plus display strings localized from the
// Accept-Language header.
func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID := h.config.GetTenantID(r)
	if tenantID == "" {
		h.handleError(w, r, fmt.Errorf("tenant ID not found"), http.StatusUnauthorized)
		return
	}
	if len(tenantID) > maxTenantIDLen {
		h.handleError(w, r, fmt.Errorf("invalid tenant ID format"), http.StatusBadRequest)
		return
	}

	cycleCfg, err := h.config.GetConfig(ctx, tenantID)
	if err != nil {
		h.handleError(w, r, fmt.Errorf("failed to load cycle config: %w", err), http.StatusInternalServerError)
		return
	}

	decision, err := h.config.Gate.Check(ctx, tenantID, cycleCfg)
	if err != nil {
		h.handleError(w, r, fmt.Errorf("quota check failed: %w", err), http.StatusInternalServerError)
		return
	}

	locale := requestLocale(r)
	response := UsageResponse{
		TenantID:      tenantID,
		Quota:         decision,
		PeriodText:    cyclequota.PeriodText(decision.Cycle.Duration, locale),
		NextResetText: cyclequota.FormatResetDate(decision.Cycle.NextReset, locale),
	}

	writeJSON(w, http.StatusOK, response)
}

// GetDurationOptions returns the selectable cycle durations with labels in
// the request's language.
func (h *Handler) GetDurationOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, DurationOptionsResponse{
		Options: cyclequota.DurationOptions(requestLocale(r)),
	})
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error, status int) {
	if h.config.OnError != nil {
		h.config.OnError(w, r, err)
		return
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLocale resolves the response language from the Accept-Language
// header, falling back to English.
func requestLocale(r *http.Request) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return language.English
	}
	return cyclequota.MatchLocale(tags[0])
}
