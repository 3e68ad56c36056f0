package weather

import (
	"context"
	"math/rand"
	"sync"

	"github.com/nvuppala/route-planner-service/internal/models"
)

// Observation is what the weather collaborator returns for one coordinate:
// a condition label plus the delay and risk the condition maps to.
type Observation struct {
	Condition string
	DelayMin  float64
	Risk      float64
}

// Provider abstracts the weather lookup collaborator. Implementations must
// treat failures as errors; the ingestion sweep owns the fallback policy.
type Provider interface {
	Fetch(ctx context.Context, coord models.Coordinate) (Observation, error)
}

// sampler draws delay/risk values within a condition profile's ranges.
// All nondeterminism in this package flows through it, so tests pin a seed.
type sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newSampler(seed int64) *sampler {
	return &sampler{rng: rand.New(rand.NewSource(seed))}
}

func (s *sampler) sample(p conditionProfile) (delayMin, risk float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delayMin = float64(p.minDelayMin + s.rng.Intn(p.maxDelayMin-p.minDelayMin+1))
	risk = p.minRisk + s.rng.Float64()*(p.maxRisk-p.minRisk)
	return delayMin, round2(risk)
}

func (s *sampler) pick(options []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return options[s.rng.Intn(len(options))]
}

// FallbackProvider is the no-credential weather source: it invents a
// plausible condition and samples its delay/risk profile. It backs the
// service when no API key is configured and never fails.
type FallbackProvider struct {
	sampler *sampler
}

// fallbackConditions are the categories the no-credential path rotates through.
var fallbackConditions = []string{"Clear", "Clouds", "Rain", "Drizzle", "Thunderstorm", "Mist", "Fog"}

// NewFallbackProvider creates a FallbackProvider seeded for reproducibility.
func NewFallbackProvider(seed int64) *FallbackProvider {
	return &FallbackProvider{sampler: newSampler(seed)}
}

// Fetch implements Provider. It ignores the coordinate and never errors.
func (p *FallbackProvider) Fetch(ctx context.Context, coord models.Coordinate) (Observation, error) {
	condition := p.sampler.pick(fallbackConditions)
	delay, risk := p.sampler.sample(profileFor(condition))
	return Observation{Condition: condition, DelayMin: delay, Risk: risk}, nil
}
