package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"sosstock/internal/domain"
	"sosstock/internal/dto"
	"sosstock/internal/infra"
	"sosstock/internal/metrics"
	"sosstock/internal/model"
	"sosstock/internal/repository"

	"github.com/rs/zerolog/log"
)

const dashboardCacheKey = "dashboard:summary"

var _ Cache = (*infra.RedisCache)(nil)

// Cache stores serialized read models. Get returns infra.ErrCacheMiss for
// absent keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// DashboardInvalidator is notified by every write that changes a dashboard
// figure.
type DashboardInvalidator interface {
	InvalidateDashboard(ctx context.Context)
}

type DashboardService interface {
	DashboardInvalidator
	// Get builds the dashboard. search keeps locations whose name, or the
	// name of a product they hold, contains it (case-insensitive).
	Get(ctx context.Context, search string) (*dto.DashboardResponse, error)
}

type dashboardService struct {
	locations repository.LocationRepository
	inventory repository.InventoryRepository
	reports   repository.ReportRepository
	cache     Cache
	ttl       time.Duration
	metrics   *metrics.Metrics
}

func NewDashboardService(
	locations repository.LocationRepository,
	inventory repository.InventoryRepository,
	reports repository.ReportRepository,
	cache Cache,
	ttl time.Duration,
	m *metrics.Metrics,
) DashboardService {
	return &dashboardService{locations: locations, inventory: inventory, reports: reports, cache: cache, ttl: ttl, metrics: m}
}

// NewDashboardInvalidator drops the cached dashboard for writers that live
// outside the request graph, such as the alert feed.
func NewDashboardInvalidator(cache Cache) DashboardInvalidator {
	return &dashboardService{cache: cache}
}

// Get serves the unfiltered dashboard from the cache when possible.
// Searches are always computed.
func (s *dashboardService) Get(ctx context.Context, search string) (*dto.DashboardResponse, error) {
	search = strings.TrimSpace(search)
	if search != "" || s.cache == nil {
		return s.compute(ctx, search)
	}

	raw, err := s.cache.Get(ctx, dashboardCacheKey)
	switch {
	case err == nil:
		var resp dto.DashboardResponse
		if jerr := json.Unmarshal(raw, &resp); jerr == nil {
			s.metrics.DashboardCache("hit")
			return &resp, nil
		}
	case !errors.Is(err, infra.ErrCacheMiss):
		log.Warn().Err(err).Msg("dashboard: cache read failed")
	}
	s.metrics.DashboardCache("miss")

	resp, err := s.compute(ctx, "")
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(resp); err == nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, raw, s.ttl); err != nil {
			log.Warn().Err(err).Msg("dashboard: cache write failed")
		}
	}
	return resp, nil
}

func (s *dashboardService) compute(ctx context.Context, search string) (*dto.DashboardResponse, error) {
	locs, err := s.locations.List(ctx, true)
	if err != nil {
		return nil, err
	}
	items, err := s.inventory.ListStock(ctx, nil)
	if err != nil {
		return nil, err
	}
	counts, err := s.reports.DashboardCounts(ctx)
	if err != nil {
		return nil, err
	}

	if search != "" {
		locs = matchLocations(locs, items, search)
	}
	summaries, lines := locationSummaries(locs, items)
	totals := domain.Totals(lines)
	return &dto.DashboardResponse{
		Locations:            summaries,
		TotalItems:           totals.TotalItems,
		ItemsToOrder:         totals.ItemsToOrder,
		LocationsCount:       len(summaries),
		EstimatedOrderValue:  counts.EstimatedOrderValue,
		PendingOrdersCount:   counts.PendingOrders,
		ExpiredProductsCount: counts.ExpiredProducts,
		CriticalAlertsCount:  counts.CriticalAlerts,
	}, nil
}

// matchLocations keeps locations whose own name or any held product name
// contains search.
func matchLocations(locs []model.Location, items []model.InventoryItem, search string) []model.Location {
	needle := strings.ToLower(search)
	hit := make(map[string]bool)
	for _, it := range items {
		if it.Product != nil && strings.Contains(strings.ToLower(it.Product.Name), needle) {
			hit[it.LocationID.String()] = true
		}
	}
	out := make([]model.Location, 0, len(locs))
	for _, l := range locs {
		if hit[l.ID.String()] || strings.Contains(strings.ToLower(l.Name), needle) {
			out = append(out, l)
		}
	}
	return out
}

func (s *dashboardService) InvalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, dashboardCacheKey); err != nil {
		log.Warn().Err(err).Msg("dashboard: cache invalidation failed")
	}
}
