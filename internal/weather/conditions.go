package weather

import (
	"math"
	"strings"
)

// conditionProfile is the delay/risk range a weather category maps to.
// Delays are whole minutes; risk is a multiplier on delay-inclusive time.
type conditionProfile struct {
	minDelayMin int
	maxDelayMin int
	minRisk     float64
	maxRisk     float64
}

var (
	profileExtreme = conditionProfile{25, 30, 1.15, 1.30}
	profileStorm   = conditionProfile{10, 20, 1.08, 1.12}
	profileHazy    = conditionProfile{5, 10, 1.03, 1.06}
	profileSnow    = conditionProfile{10, 20, 1.07, 1.12}
	profileFair    = conditionProfile{0, 3, 1.00, 1.02}
)

// profileFor maps a weather category (the OpenWeatherMap "main" field) to its
// delay/risk profile. Unrecognized categories count as fair weather.
func profileFor(category string) conditionProfile {
	switch normalizeCategory(category) {
	case "Extreme", "Squall", "Tornado":
		return profileExtreme
	case "Thunderstorm", "Rain":
		return profileStorm
	case "Drizzle", "Mist", "Fog", "Haze", "Smoke":
		return profileHazy
	case "Snow":
		return profileSnow
	default:
		return profileFair
	}
}

// fallbackCategory is the conservative profile substituted for a city when
// the provider is unavailable or returns a malformed payload.
const fallbackCategory = "Clouds"

// fallbackObservation builds the degraded per-city value: the cloudy profile
// with an "Unknown" condition label so callers can tell it apart.
func fallbackObservation(s *sampler) Observation {
	delay, risk := s.sample(profileFor(fallbackCategory))
	return Observation{Condition: "Unknown", DelayMin: delay, Risk: risk}
}

// normalizeCategory title-cases a trimmed category so lookups tolerate the
// casing variance seen in provider payloads.
func normalizeCategory(category string) string {
	c := strings.TrimSpace(category)
	if c == "" {
		return ""
	}
	return strings.ToUpper(c[:1]) + strings.ToLower(c[1:])
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
