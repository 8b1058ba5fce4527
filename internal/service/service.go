package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hgpartners/ledger-analytics/internal/cache"
	"github.com/hgpartners/ledger-analytics/internal/config"
	"github.com/hgpartners/ledger-analytics/internal/ledger"
	"github.com/hgpartners/ledger-analytics/internal/models"
	"github.com/hgpartners/ledger-analytics/internal/quality"
	"github.com/hgpartners/ledger-analytics/internal/repository"
)

// LedgerStore is the read-only surface of the ledger store the orchestrator
// depends on. The concrete implementation is the Postgres repository; tests
// substitute fakes.
type LedgerStore interface {
	ResolveScope(ctx context.Context, staffID int64) (models.Scope, error)
	ListTransactions(ctx context.Context, scope models.Scope, from, to time.Time) ([]models.Transaction, error)
	StreamTransactionsBefore(ctx context.Context, scope models.Scope, before time.Time, fn func(models.Transaction)) error
	ListPartitionMappings(ctx context.Context) (map[string]models.PartitionMapping, error)
}

// resolutionTargets maps a requested chart resolution to a downsample point
// budget.
var resolutionTargets = map[string]int{
	"high":     365,
	"standard": 120,
	"low":      60,
}

// Service orchestrates the aggregation pipeline: scope resolution, cache
// lookup, parallel ledger reads, the per-partition computation and the
// response assembly.
type Service struct {
	repo    LedgerStore
	cache   cache.Cache
	quality *quality.Recorder
	log     *logrus.Logger
	config  *config.Config
	group   singleflight.Group
	now     func() time.Time
}

// NewService initializes a new service
func NewService(repo LedgerStore, c cache.Cache, rec *quality.Recorder, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		repo:    repo,
		cache:   c,
		quality: rec,
		log:     log,
		config:  cfg,
		now:     time.Now,
	}
}

// AnalyticsRequest carries the caller's query parameters. Either an explicit
// date window or a fiscal year may be given; omitting both selects the
// current fiscal year to date.
type AnalyticsRequest struct {
	RequestID  string
	StaffID    int64
	From       time.Time
	To         time.Time
	FiscalYear int
	Resolution string
	Base       string
	Partitions []string
}

// GetWIPAnalytics resolves the caller's scope and returns the WIP analytics
// payload for the requested window, from cache when possible. Concurrent
// requests for the same key collapse into a single computation.
func (s *Service) GetWIPAnalytics(ctx context.Context, req AnalyticsRequest) (*models.AnalyticsResponse, error) {
	window, target, base, err := s.resolveRequest(&req)
	if err != nil {
		return nil, err
	}

	scope, err := s.resolveScope(ctx, req.StaffID)
	if err != nil {
		return nil, err
	}

	key := s.cacheKey(scope, window, req)
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		if payload, ok := s.cache.Get(key); ok {
			var resp models.AnalyticsResponse
			if err := json.Unmarshal(payload, &resp); err == nil {
				return &resp, nil
			}
			// Corrupt entry degrades to a recompute.
			s.cache.Invalidate(key)
		}

		resp, err := s.compute(ctx, scope, window, target, base, req)
		if err != nil {
			return nil, err
		}
		if payload, err := json.Marshal(resp); err == nil {
			s.cache.Set(key, payload, s.ttlFor(window))
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.WithField("key", key).Debug("collapsed concurrent analytics request")
	}
	return v.(*models.AnalyticsResponse), nil
}

// InvalidateAnalytics drops the cached payload for one query shape, for ops
// use after ledger backfills.
func (s *Service) InvalidateAnalytics(ctx context.Context, req AnalyticsRequest) error {
	window, _, _, err := s.resolveRequest(&req)
	if err != nil {
		return err
	}
	scope, err := s.resolveScope(ctx, req.StaffID)
	if err != nil {
		return err
	}
	key := s.cacheKey(scope, window, req)
	s.cache.Invalidate(key)
	s.log.WithField("key", key).Info("analytics cache entry invalidated")
	return nil
}

func (s *Service) resolveScope(ctx context.Context, staffID int64) (models.Scope, error) {
	scope, err := s.repo.ResolveScope(ctx, staffID)
	if errors.Is(err, repository.ErrScopeNotFound) {
		return models.Scope{}, scopeUnresolved(err)
	}
	if err != nil {
		return models.Scope{}, upstreamFailed(err)
	}
	return scope, nil
}

// compute runs one full aggregation: fan-out reads, then the sequential
// pipeline per partition view, partition views themselves in parallel.
func (s *Service) compute(ctx context.Context, scope models.Scope, window models.Window, target int, base ledger.BaseMetric, req AnalyticsRequest) (*models.AnalyticsResponse, error) {
	// The trailing-12 calculation needs history before the visible window;
	// fetching it here is what keeps early-window ratios from truncating.
	lookbackFrom := models.ResolutionMonth.Truncate(window.From).AddDate(0, -(ledger.TrailingSpan - 1), 0)

	fetchCtx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
	defer cancel()

	var (
		txs      []models.Transaction
		opening  = ledger.NewOpeningAccumulator()
		mappings map[string]models.PartitionMapping
	)
	g, gctx := errgroup.WithContext(fetchCtx)
	g.Go(func() error {
		var err error
		txs, err = s.repo.ListTransactions(gctx, scope, lookbackFrom, window.To)
		return err
	})
	g.Go(func() error {
		return s.repo.StreamTransactionsBefore(gctx, scope, lookbackFrom, opening.Add)
	})
	g.Go(func() error {
		var err error
		mappings, err = s.repo.ListPartitionMappings(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		// Partial ledger data would silently corrupt the running balance, so
		// any failed or timed-out read aborts the whole request.
		return nil, upstreamFailed(err)
	}

	var windowTxs []models.Transaction
	for _, tx := range txs {
		if !tx.Date.Before(window.From) {
			windowTxs = append(windowTxs, tx)
		}
	}

	partitions := ledger.Partitions(windowTxs, mappings)
	if len(req.Partitions) > 0 {
		partitions = intersect(partitions, req.Partitions)
	}

	resp := &models.AnalyticsResponse{
		Window:     window,
		Partitions: make([]models.PartitionResult, len(partitions)),
	}
	names := partitionNames(mappings)

	// Each view's pipeline is order-dependent internally but independent of
	// the other views.
	var wg sync.WaitGroup
	wg.Add(1 + len(partitions))
	var dropped map[string]int
	go func() {
		defer wg.Done()
		resp.Overall, dropped = s.buildView("", opening, txs, windowTxs, window, lookbackFrom, target, base, mappings)
	}()
	for i, p := range partitions {
		go func(i int, p string) {
			defer wg.Done()
			result, _ := s.buildView(p, opening, txs, windowTxs, window, lookbackFrom, target, base, mappings)
			resp.Partitions[i] = models.PartitionResult{
				Code:        p,
				DisplayName: names[p],
				Result:      result,
			}
		}(i, p)
	}
	wg.Wait()

	// Count dropped codes once, from the overall view's monthly pass: it sees
	// every transaction, the per-partition passes would double count.
	for code, n := range opening.Uncategorized() {
		dropped[code] += n
	}
	s.quality.Record(req.RequestID, dropped)

	return resp, nil
}

// buildView runs the sequential pipeline for one partition view (empty view
// = overall): monthly series for lockup, daily series for charting. The
// second return is the monthly pass's uncategorized tally; only the overall
// view's tally is a complete count.
func (s *Service) buildView(view string, opening *ledger.OpeningAccumulator, txs, windowTxs []models.Transaction, window models.Window, lookbackFrom time.Time, target int, base ledger.BaseMetric, mappings map[string]models.PartitionMapping) (models.SeriesResult, map[string]int) {
	openNet := opening.Net()
	if view != "" {
		openNet = opening.PartitionOpening(view, mappings)
	}

	monthlyAgg := ledger.Aggregate(txs, models.ResolutionMonth, view, mappings)
	monthly := ledger.BuildSeries(openNet, monthlyAgg.Buckets, lookbackFrom, window.To, models.ResolutionMonth)
	lockup := ledger.TrailingLockup(monthly, models.ResolutionMonth.Truncate(window.From), base)

	dailyOpening := openNet.Add(ledger.NetBefore(txs, window.From, view, mappings))
	dailyAgg := ledger.Aggregate(windowTxs, models.ResolutionDay, view, mappings)
	daily := ledger.BuildSeries(dailyOpening, dailyAgg.Buckets, window.From, window.To, models.ResolutionDay)

	return models.SeriesResult{
		Points:  ledger.Downsample(daily, target),
		Lockup:  lockup,
		Summary: ledger.Summarize(dailyOpening, daily),
	}, monthlyAgg.Uncategorized
}

// resolveRequest validates the request and resolves the reporting window,
// downsample target and base metric. Defaults: current fiscal year to date,
// standard resolution, net-revenue base.
func (s *Service) resolveRequest(req *AnalyticsRequest) (models.Window, int, ledger.BaseMetric, error) {
	if req.Resolution == "" {
		req.Resolution = "standard"
	}
	target, ok := resolutionTargets[req.Resolution]
	if !ok {
		return models.Window{}, 0, 0, badRequest(fmt.Sprintf("unknown resolution %q", req.Resolution))
	}

	if req.Base == "" {
		req.Base = "revenue"
	}
	var base ledger.BaseMetric
	switch req.Base {
	case "revenue":
		base = ledger.BaseNetRevenue
	case "billings":
		base = ledger.BaseNetBillings
	default:
		return models.Window{}, 0, 0, badRequest(fmt.Sprintf("unknown base metric %q", req.Base))
	}

	var window models.Window
	switch {
	case req.FiscalYear != 0:
		if !req.From.IsZero() || !req.To.IsZero() {
			return models.Window{}, 0, 0, badRequest("fiscal_year and from/to are mutually exclusive")
		}
		window = s.fiscalWindow(req.FiscalYear)
	case !req.From.IsZero() && !req.To.IsZero():
		window = models.Window{
			From: models.ResolutionDay.Truncate(req.From),
			To:   models.ResolutionDay.Truncate(req.To),
		}
	case req.From.IsZero() && req.To.IsZero():
		now := s.now().UTC()
		fy := now.Year()
		if now.Month() >= s.config.FiscalYearStartMonth && s.config.FiscalYearStartMonth != time.January {
			fy++
		}
		window = s.fiscalWindow(fy)
		if today := models.ResolutionDay.Truncate(now); today.Before(window.To) {
			window.To = today
		}
	default:
		return models.Window{}, 0, 0, badRequest("from and to must be given together")
	}
	if window.To.Before(window.From) {
		return models.Window{}, 0, 0, badRequest("window end precedes window start")
	}
	return window, target, base, nil
}

// fiscalWindow returns the window of one fiscal year. With a July start,
// fiscal year N runs 1 July N-1 through 30 June N.
func (s *Service) fiscalWindow(fy int) models.Window {
	start := s.config.FiscalYearStartMonth
	year := fy
	if start != time.January {
		year = fy - 1
	}
	from := time.Date(year, start, 1, 0, 0, 0, 0, time.UTC)
	return models.Window{From: from, To: from.AddDate(1, 0, -1)}
}

// ttlFor picks the cache TTL: windows ending before the current month are
// closed and immutable, the current period is not.
func (s *Service) ttlFor(window models.Window) time.Duration {
	currentMonth := models.ResolutionMonth.Truncate(s.now())
	if window.To.Before(currentMonth) {
		return s.config.ClosedPeriodTTL
	}
	return s.config.OpenPeriodTTL
}

func (s *Service) cacheKey(scope models.Scope, window models.Window, req AnalyticsRequest) string {
	parts := append([]string(nil), req.Partitions...)
	sort.Strings(parts)
	return fmt.Sprintf("wip:v1:%s:%s:%s:%s:%s:%s",
		scope.Key(),
		window.From.Format("2006-01-02"),
		window.To.Format("2006-01-02"),
		req.Resolution,
		req.Base,
		strings.Join(parts, ","),
	)
}

// partitionNames builds the display-name lookup per master service line.
func partitionNames(mappings map[string]models.PartitionMapping) map[string]string {
	names := map[string]string{models.UnknownPartition: "Unmapped"}
	lines := make([]string, 0, len(mappings))
	for line := range mappings {
		lines = append(lines, line)
	}
	sort.Strings(lines)
	for _, line := range lines {
		m := mappings[line]
		if _, ok := names[m.MasterCode]; !ok {
			names[m.MasterCode] = m.DisplayName
		}
	}
	return names
}

func intersect(present, requested []string) []string {
	want := make(map[string]struct{}, len(requested))
	for _, p := range requested {
		want[p] = struct{}{}
	}
	var out []string
	for _, p := range present {
		if _, ok := want[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
