// Package service orchestrates route planning: cache-aside lookup keyed by
// network generation, A* search on miss, and breakdown accounting for the
// returned path.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nvuppala/route-planner-service/internal/cache"
	"github.com/nvuppala/route-planner-service/internal/models"
	"github.com/nvuppala/route-planner-service/internal/network"
	"github.com/nvuppala/route-planner-service/internal/observability"
	"github.com/nvuppala/route-planner-service/internal/planner"
)

// RoutingService implements the route-planning business logic on top of the
// shared road network.
type RoutingService struct {
	net          *network.RoadNetwork
	cache        cache.Cache
	cacheBackend string
	ttl          time.Duration
}

// NewRoutingService creates a RoutingService. cache may be nil to disable
// route caching. cacheBackend labels cache-hit metrics (in_memory, memcached).
func NewRoutingService(net *network.RoadNetwork, c cache.Cache, cacheBackend string, ttl time.Duration) *RoutingService {
	return &RoutingService{
		net:          net,
		cache:        c,
		cacheBackend: cacheBackend,
		ttl:          ttl,
	}
}

// loggerFromContext extracts a zap.Logger from request context if present.
// Returns nil if logger is not found or context is invalid.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// Cities returns the known city names in sorted order.
func (s *RoutingService) Cities() []string {
	return s.net.Cities()
}

// CityCoordinates returns the coordinates of every known city.
func (s *RoutingService) CityCoordinates() map[string]models.Coordinate {
	return s.net.CityCoordinates()
}

// PlanRoute computes the cheapest route from start to goal on the current
// network state. Results are cached keyed by the network generation, so a
// weather sweep invalidates prior entries by changing the key. Returns
// planner.ErrUnknownCity or planner.ErrRouteNotFound on failure.
func (s *RoutingService) PlanRoute(ctx context.Context, start, goal string) (models.RouteResult, error) {
	start = strings.TrimSpace(start)
	goal = strings.TrimSpace(goal)
	logger := loggerFromContext(ctx)

	if !s.net.HasCity(start) || !s.net.HasCity(goal) {
		observability.RouteRequestsTotal.WithLabelValues("unknown_city").Inc()
		return models.RouteResult{}, planner.ErrUnknownCity
	}

	key := fmt.Sprintf("%s|%s|g%d", start, goal, s.net.Generation())
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			if logger != nil {
				logger.Warn("route cache get failed", zap.String("key", key), zap.Error(err))
			}
		} else if ok {
			observability.RouteCacheHitsTotal.WithLabelValues(s.cacheBackend).Inc()
			observability.RouteRequestsTotal.WithLabelValues(outcomeFor(cached.Path)).Inc()
			if logger != nil {
				logger.Debug("route cache hit", zap.String("key", key))
			}
			return cached, nil
		}
	}

	searchStart := time.Now()
	res, err := planner.FindRoute(s.net, start, goal)
	observability.RouteSearchDuration.Observe(time.Since(searchStart).Seconds())
	if err != nil {
		observability.RouteRequestsTotal.WithLabelValues("not_found").Inc()
		if logger != nil {
			logger.Info("no route between cities",
				zap.String("start", start), zap.String("goal", goal))
		}
		return models.RouteResult{}, err
	}
	observability.RouteSearchExpandedNodes.Observe(float64(res.ExpandedNodes))

	breakdown, err := planner.Breakdown(s.net, res.Path)
	if err != nil {
		// The graph changed between search and accounting; treat as not found
		// rather than serving a half-built result.
		observability.RouteRequestsTotal.WithLabelValues("not_found").Inc()
		return models.RouteResult{}, planner.ErrRouteNotFound
	}

	result := models.RouteResult{Path: res.Path, Breakdown: breakdown}
	observability.RouteRequestsTotal.WithLabelValues(outcomeFor(result.Path)).Inc()

	if s.cache != nil {
		if setErr := s.cache.Set(ctx, key, result, s.ttl); setErr != nil && logger != nil {
			logger.Warn("route cache set failed", zap.String("key", key), zap.Error(setErr))
		}
	}

	if logger != nil {
		logger.Debug("route planned",
			zap.String("start", start),
			zap.String("goal", goal),
			zap.Int("hops", len(result.Path)-1),
			zap.Int("expandedNodes", res.ExpandedNodes),
			zap.Float64("totalTimeMin", breakdown.EstimatedTotalTimeMin),
		)
	}
	return result, nil
}

// outcomeFor labels a successful plan: a single-city path is trivial.
func outcomeFor(path []string) string {
	if len(path) <= 1 {
		return "trivial"
	}
	return "found"
}
