package weather

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nvuppala/route-planner-service/internal/health"
	"github.com/nvuppala/route-planner-service/internal/models"
	"github.com/nvuppala/route-planner-service/internal/network"
	"github.com/nvuppala/route-planner-service/internal/observability"
)

// Ingestor runs weather ingestion sweeps: for every known city it queries the
// provider and applies the returned delay/risk to all edges touching that
// city. Sweeps are serialized; route queries keep reading the network while a
// sweep is in flight, since per-city updates are atomic inside the network.
type Ingestor struct {
	mu       sync.Mutex
	net      *network.RoadNetwork
	provider Provider
	tracker  *health.ProviderTracker
	logger   *zap.Logger
	sampler  *sampler
}

// NewIngestor builds an Ingestor. seed pins the fallback sampling for tests.
func NewIngestor(net *network.RoadNetwork, provider Provider, tracker *health.ProviderTracker, logger *zap.Logger, seed int64) *Ingestor {
	return &Ingestor{
		net:      net,
		provider: provider,
		tracker:  tracker,
		logger:   logger,
		sampler:  newSampler(seed),
	}
}

// Sweep performs one full-network ingestion pass and returns the per-city
// summary. Provider failures never abort the sweep: the failing city gets the
// conservative fallback observation, is recorded as a provider failure, and
// the pass continues. The summary risk is rounded for reporting; the full
// value is what lands on the edges.
func (ing *Ingestor) Sweep(ctx context.Context) map[string]models.WeatherReport {
	ing.mu.Lock()
	defer ing.mu.Unlock()

	start := time.Now()
	summary := make(map[string]models.WeatherReport)

	for _, city := range ing.net.Cities() {
		coord, ok := ing.net.Coordinate(city)
		if !ok {
			continue
		}

		obs, err := ing.provider.Fetch(ctx, coord)
		if err != nil {
			obs = fallbackObservation(ing.sampler)
			observability.WeatherFallbacksTotal.Inc()
			ing.tracker.RecordFailure()
			ing.logger.Warn("weather provider failed, using fallback",
				zap.String("city", city),
				zap.Error(err))
		} else {
			ing.tracker.RecordSuccess()
		}

		ing.net.ApplyWeather(city, obs.DelayMin, obs.Risk)
		summary[city] = models.WeatherReport{
			Condition: obs.Condition,
			DelayMin:  obs.DelayMin,
			Risk:      round2(obs.Risk),
		}
	}

	observability.WeatherSweepsTotal.Inc()
	observability.WeatherSweepDuration.Observe(time.Since(start).Seconds())
	ing.logger.Info("weather sweep complete",
		zap.Int("cities", len(summary)),
		zap.Duration("duration", time.Since(start)))
	return summary
}
