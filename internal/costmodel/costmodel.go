package costmodel

import (
	"github.com/nvuppala/route-planner-service/internal/geo"
	"github.com/nvuppala/route-planner-service/internal/models"
)

const (
	// AverageSpeedKmh is the assumed free-flow driving speed.
	AverageSpeedKmh = 80.0

	// SpeedKmPerMin converts edge distances to base travel minutes.
	SpeedKmPerMin = AverageSpeedKmh / 60.0
)

// EdgeCost converts a directed edge's raw attributes into estimated traversal
// minutes: base time from distance, plus traffic and weather delays, all
// scaled by the risk multiplier. This is the edge weight the search
// accumulates, kept at full floating-point precision.
func EdgeCost(e models.EdgeAttributes) float64 {
	base := e.DistanceKm / SpeedKmPerMin
	withDelays := base + e.TrafficMin + e.WeatherMin
	return withDelays * e.Risk
}

// Heuristic estimates remaining minutes between two coordinates as the
// great-circle distance at free-flow speed. Callers that need a bound on
// real edge weights scale it by the network's heuristic scale, because
// datasets may record road distances shorter than the great-circle distance
// between the declared coordinates.
func Heuristic(a, b models.Coordinate) float64 {
	return geo.HaversineKm(a, b) / SpeedKmPerMin
}
