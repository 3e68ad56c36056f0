package weather

import (
	"context"
	"testing"

	"github.com/nvuppala/route-planner-service/internal/models"
)

var testCoord = models.Coordinate{Lat: 17.3850, Lon: 78.4867}

// TestProfileFor verifies the category table, including normalization and the
// fair-weather default for unknown categories.
func TestProfileFor(t *testing.T) {
	tests := []struct {
		category string
		want     conditionProfile
	}{
		{category: "Tornado", want: profileExtreme},
		{category: "Squall", want: profileExtreme},
		{category: "Extreme", want: profileExtreme},
		{category: "Thunderstorm", want: profileStorm},
		{category: "Rain", want: profileStorm},
		{category: "rain", want: profileStorm},
		{category: "  RAIN  ", want: profileStorm},
		{category: "Drizzle", want: profileHazy},
		{category: "Mist", want: profileHazy},
		{category: "Fog", want: profileHazy},
		{category: "Haze", want: profileHazy},
		{category: "Smoke", want: profileHazy},
		{category: "Snow", want: profileSnow},
		{category: "Clear", want: profileFair},
		{category: "Clouds", want: profileFair},
		{category: "", want: profileFair},
		{category: "Plasma", want: profileFair},
	}

	for _, tc := range tests {
		t.Run("category "+tc.category, func(t *testing.T) {
			if got := profileFor(tc.category); got != tc.want {
				t.Fatalf("profileFor(%q) = %+v, want %+v", tc.category, got, tc.want)
			}
		})
	}
}

// TestSampler_WithinProfileRanges verifies sampled values respect the
// profile's bounds, whole-minute delays, and two-decimal risk.
func TestSampler_WithinProfileRanges(t *testing.T) {
	s := newSampler(42)
	for i := 0; i < 1000; i++ {
		delay, risk := s.sample(profileStorm)
		if delay < 10 || delay > 20 {
			t.Fatalf("delay %f outside [10, 20]", delay)
		}
		if delay != float64(int(delay)) {
			t.Fatalf("delay %f is not a whole minute", delay)
		}
		if risk < 1.08 || risk > 1.12 {
			t.Fatalf("risk %f outside [1.08, 1.12]", risk)
		}
	}
}

// TestFallbackObservation verifies the degraded value uses the cloudy profile
// under the "Unknown" label.
func TestFallbackObservation(t *testing.T) {
	s := newSampler(1)
	for i := 0; i < 100; i++ {
		obs := fallbackObservation(s)
		if obs.Condition != "Unknown" {
			t.Fatalf("condition = %q, want Unknown", obs.Condition)
		}
		if obs.DelayMin < 0 || obs.DelayMin > 3 {
			t.Fatalf("fallback delay %f outside fair range [0, 3]", obs.DelayMin)
		}
		if obs.Risk < 1.00 || obs.Risk > 1.02 {
			t.Fatalf("fallback risk %f outside fair range [1.00, 1.02]", obs.Risk)
		}
	}
}

// TestFallbackProvider_Deterministic verifies two providers with the same seed
// produce the same observation sequence.
func TestFallbackProvider_Deterministic(t *testing.T) {
	a := NewFallbackProvider(7)
	b := NewFallbackProvider(7)
	for i := 0; i < 50; i++ {
		obsA, errA := a.Fetch(context.Background(), testCoord)
		obsB, errB := b.Fetch(context.Background(), testCoord)
		if errA != nil || errB != nil {
			t.Fatalf("fallback provider errored: %v, %v", errA, errB)
		}
		if obsA != obsB {
			t.Fatalf("iteration %d: %+v != %+v", i, obsA, obsB)
		}
	}
}
