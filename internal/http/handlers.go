package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bilancio/internal/analytics"
	"bilancio/internal/core"
	"bilancio/internal/reconcile"
)

// AnalyticsService is what the handlers need from the analytics layer.
type AnalyticsService interface {
	GetStats(ctx context.Context, subjectID string, year, month int, forceSync bool, authToken string) (core.Stats, error)
	GetTrends(ctx context.Context, subjectID string, year int, period core.Granularity) (analytics.TrendReport, error)
	GetForecast(ctx context.Context, subjectID string) (core.ForecastResult, error)
	RecalculateAll(ctx context.Context, subjectID string, year int) (analytics.Recalculation, error)
	Sync(ctx context.Context, subjectID, authToken string) (reconcile.Result, error)
	GetSyncStatus(ctx context.Context, subjectID string) (analytics.SyncStatus, error)
}

// SyncRequestPublisher hands a sync off to the queue instead of running it
// inline. Optional; without one every sync is synchronous.
type SyncRequestPublisher interface {
	PublishSyncRequest(ctx context.Context, subjectID, authToken string) error
}

// GET /api/analytics/stats?year=&month=&forceSync=
// Month zero (or absent with period=yearly) selects the whole year.
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	subjectID, _ := SubjectIDFromContext(r.Context())
	year, month := parseYearMonth(r)
	forceSync := parseBool(r, "forceSync")

	stats, err := s.service.GetStats(r.Context(), subjectID, year, month, forceSync, AuthTokenFromContext(r.Context()))
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, stats)
}

// GET /api/analytics/trends?year=&period=
func (s *Server) handleGetTrends(w http.ResponseWriter, r *http.Request) {
	subjectID, _ := SubjectIDFromContext(r.Context())

	year := time.Now().Year()
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	period := core.Monthly
	if v := strings.TrimSpace(r.URL.Query().Get("period")); v != "" {
		period = core.Granularity(v)
	}

	report, err := s.service.GetTrends(r.Context(), subjectID, year, period)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, report)
}

// GET /api/analytics/forecast
func (s *Server) handleGetForecast(w http.ResponseWriter, r *http.Request) {
	subjectID, _ := SubjectIDFromContext(r.Context())

	forecast, err := s.service.GetForecast(r.Context(), subjectID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, forecast)
}

// POST /api/analytics/sync?async=
// With async and a configured queue the request is enqueued for the worker;
// otherwise reconciliation runs inline and returns its counts.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	subjectID, _ := SubjectIDFromContext(r.Context())
	authToken := AuthTokenFromContext(r.Context())

	if parseBool(r, "async") && s.publisher != nil {
		if err := s.publisher.PublishSyncRequest(r.Context(), subjectID, authToken); err != nil {
			sendDomainError(w, r, err)
			return
		}
		sendJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
		return
	}

	res, err := s.service.Sync(r.Context(), subjectID, authToken)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, res)
}

// GET /api/analytics/sync/status
func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	subjectID, _ := SubjectIDFromContext(r.Context())

	status, err := s.service.GetSyncStatus(r.Context(), subjectID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, status)
}

// POST /api/analytics/recalculate?year=
func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	subjectID, _ := SubjectIDFromContext(r.Context())

	year := time.Now().Year()
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}

	recalc, err := s.service.RecalculateAll(r.Context(), subjectID, year)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, recalc)
}

// GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseYearMonth extracts year and month from query parameters. Year
// defaults to the current year. Month defaults to the current month;
// month=0 or period=yearly asks for the whole year.
func parseYearMonth(r *http.Request) (year, month int) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}
	if r.URL.Query().Get("period") == string(core.Yearly) {
		month = 0
	}
	return year, month
}

func parseBool(r *http.Request, key string) bool {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	return v == "true" || v == "1"
}
