package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/cache"
	"bilancio/internal/clock"
	"bilancio/internal/core"
	"bilancio/internal/reconcile"
)

// recalcConcurrency bounds how many monthly aggregates RecalculateAll
// computes in parallel against the store.
const recalcConcurrency = 4

// Syncer triggers a reconciliation run, typically the reconcile.Reconciler.
type Syncer interface {
	Sync(ctx context.Context, subjectID, authToken string) (reconcile.Result, error)
}

type (
	// TrendReport is the answer to a trends request: either the twelve
	// month slots of one year or a net balance per year over three years.
	TrendReport struct {
		Period  core.Granularity   `json:"period"`
		Year    int                `json:"year"`
		Monthly []core.MonthSlot   `json:"monthly,omitempty"`
		Yearly  map[int]core.Money `json:"yearly,omitempty"`
	}

	// Recalculation is a full refresh of one subject-year.
	Recalculation struct {
		Yearly  core.Aggregate   `json:"yearly"`
		Monthly []core.Aggregate `json:"monthly"`
	}

	// SyncStatus summarizes the local copy's sync bookkeeping.
	SyncStatus struct {
		TransactionCount int        `json:"transactionCount"`
		LastSyncAt       *time.Time `json:"lastSyncAt,omitempty"`
		ProfileSynced    bool       `json:"profileSynced"`
	}
)

// Service is the engine's exposed operation surface. All computation is a
// pure function of the store contents plus the injected clock; the only
// side effect on the read path is cache population.
type Service struct {
	store  StoreAdapter
	agg    *Aggregator
	cache  cache.Store
	syncer Syncer
	clock  clock.Clock
}

// NewService wires the service. syncer may be nil when no external source
// is configured; forceSync then quietly degrades to a cache refresh.
func NewService(store StoreAdapter, cacheStore cache.Store, syncer Syncer, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.System()
	}
	return &Service{
		store:  store,
		agg:    NewAggregator(store),
		cache:  cacheStore,
		syncer: syncer,
		clock:  clk,
	}
}

// GetStats answers "stats for period P". Month zero means the whole year.
// When forceSync is set the reconciler runs first and the cache freshness
// check is bypassed.
func (s *Service) GetStats(ctx context.Context, subjectID string, year, month int, forceSync bool, authToken string) (core.Stats, error) {
	key, err := buildKey(subjectID, year, month)
	if err != nil {
		return core.Stats{}, err
	}

	if forceSync && s.syncer != nil {
		if _, err := s.syncer.Sync(ctx, subjectID, authToken); err != nil {
			return core.Stats{}, fmt.Errorf("forced sync: %w", err)
		}
	}

	computeCurrent := func(ctx context.Context) (core.Aggregate, error) {
		return s.agg.Aggregate(ctx, key)
	}

	var (
		entry     cache.Entry
		fromCache bool
	)
	if forceSync {
		entry, err = s.cache.Refresh(ctx, key, computeCurrent)
	} else {
		entry, fromCache, err = s.cache.GetOrCompute(ctx, key, computeCurrent)
	}
	if err != nil {
		return core.Stats{}, err
	}

	prevKey := key.Previous()
	prevEntry, _, err := s.cache.GetOrCompute(ctx, prevKey, func(ctx context.Context) (core.Aggregate, error) {
		return s.agg.Aggregate(ctx, prevKey)
	})
	if err != nil {
		return core.Stats{}, fmt.Errorf("previous period %s: %w", prevKey, err)
	}

	return core.Stats{
		Aggregate:    entry.Aggregate,
		Trends:       Trend(entry.Aggregate, prevEntry.Aggregate),
		FromCache:    fromCache,
		CalculatedAt: entry.ComputedAt,
	}, nil
}

// GetTrends returns chart-oriented trend data: the year's monthly slots,
// or net balances for the last three years.
func (s *Service) GetTrends(ctx context.Context, subjectID string, year int, period core.Granularity) (TrendReport, error) {
	if period != core.Monthly && period != core.Yearly {
		return TrendReport{}, fmt.Errorf("%w: period %q", core.ErrInvalidPeriod, period)
	}

	report := TrendReport{Period: period, Year: year}

	if period == core.Monthly {
		entry, _, err := s.yearly(ctx, subjectID, year)
		if err != nil {
			return TrendReport{}, err
		}
		report.Monthly = entry.Aggregate.MonthlyBreakdown
		return report, nil
	}

	report.Yearly = make(map[int]core.Money, 3)
	for y := year - 2; y <= year; y++ {
		entry, _, err := s.yearly(ctx, subjectID, y)
		if err != nil {
			return TrendReport{}, err
		}
		report.Yearly[y] = entry.Aggregate.NetBalance
	}
	return report, nil
}

// GetForecast predicts the next period from the last six months of
// completed transactions. Never fails on an empty window.
func (s *Service) GetForecast(ctx context.Context, subjectID string) (core.ForecastResult, error) {
	if subjectID == "" {
		return core.ForecastResult{}, core.ErrEmptySubject
	}
	now := s.clock.Now().UTC()
	from := now.AddDate(0, -ForecastWindowMonths, 0)

	window, err := s.store.Find(ctx, subjectID, from, now, core.StatusCompleted)
	if err != nil {
		return core.ForecastResult{}, fmt.Errorf("find forecast window: %w", err)
	}
	return Forecast(window), nil
}

// RecalculateAll force-refreshes the yearly aggregate and all twelve
// monthly aggregates of a subject-year, repopulating the cache.
func (s *Service) RecalculateAll(ctx context.Context, subjectID string, year int) (Recalculation, error) {
	yearKey := core.YearlyKey(subjectID, year)
	if err := yearKey.Validate(); err != nil {
		return Recalculation{}, err
	}

	monthly := make([]core.Aggregate, 12)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recalcConcurrency)
	for m := 1; m <= 12; m++ {
		m := m
		g.Go(func() error {
			key := core.MonthlyKey(subjectID, year, m)
			entry, err := s.cache.Refresh(gctx, key, func(ctx context.Context) (core.Aggregate, error) {
				return s.agg.Aggregate(ctx, key)
			})
			if err != nil {
				return err
			}
			monthly[m-1] = entry.Aggregate
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Recalculation{}, err
	}

	yearEntry, err := s.cache.Refresh(ctx, yearKey, func(ctx context.Context) (core.Aggregate, error) {
		return s.agg.Aggregate(ctx, yearKey)
	})
	if err != nil {
		return Recalculation{}, err
	}

	return Recalculation{Yearly: yearEntry.Aggregate, Monthly: monthly}, nil
}

// Sync runs the reconciler for a subject.
func (s *Service) Sync(ctx context.Context, subjectID, authToken string) (reconcile.Result, error) {
	if s.syncer == nil {
		return reconcile.Result{}, fmt.Errorf("no external source configured")
	}
	return s.syncer.Sync(ctx, subjectID, authToken)
}

// GetSyncStatus reports how much of the subject's data has been synced
// and when the last sync wrote anything.
func (s *Service) GetSyncStatus(ctx context.Context, subjectID string) (SyncStatus, error) {
	count, err := s.store.CountBySubject(ctx, subjectID)
	if err != nil {
		return SyncStatus{}, fmt.Errorf("count transactions: %w", err)
	}

	status := SyncStatus{TransactionCount: count}

	last, err := s.store.MostRecentSyncedAt(ctx, subjectID)
	if err != nil {
		return SyncStatus{}, fmt.Errorf("last synced at: %w", err)
	}
	if !last.IsZero() {
		status.LastSyncAt = &last
	}

	switch _, err := s.store.GetProfile(ctx, subjectID); {
	case err == nil:
		status.ProfileSynced = true
	case !errors.Is(err, core.ErrNotFound):
		return SyncStatus{}, fmt.Errorf("get profile: %w", err)
	}
	return status, nil
}

func (s *Service) yearly(ctx context.Context, subjectID string, year int) (cache.Entry, bool, error) {
	key := core.YearlyKey(subjectID, year)
	if err := key.Validate(); err != nil {
		return cache.Entry{}, false, err
	}
	return s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (core.Aggregate, error) {
		return s.agg.Aggregate(ctx, key)
	})
}

func buildKey(subjectID string, year, month int) (core.PeriodKey, error) {
	var key core.PeriodKey
	if month == 0 {
		key = core.YearlyKey(subjectID, year)
	} else {
		key = core.MonthlyKey(subjectID, year, month)
	}
	if err := key.Validate(); err != nil {
		return core.PeriodKey{}, err
	}
	return key, nil
}
