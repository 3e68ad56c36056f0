package planner

import (
	"fmt"
	"math"

	"github.com/nvuppala/route-planner-service/internal/costmodel"
	"github.com/nvuppala/route-planner-service/internal/models"
	"github.com/nvuppala/route-planner-service/internal/network"
)

// Breakdown walks a found path and recomputes per-leg and aggregate metrics
// for reporting: distance, traffic and weather delays, risk-induced extra
// minutes (time with risk minus time with delays only), and total estimated
// time. Totals accumulate at full precision; rounding to two decimals (three
// for risk) happens only here, at the reporting boundary. A single-city path
// yields an all-zero breakdown with no legs.
//
// A path returned by the planner only traverses edges that existed at search
// time, so a missing edge means the graph changed out from under us and is
// reported as an error rather than a panic.
func Breakdown(net *network.RoadNetwork, path []string) (models.RouteBreakdown, error) {
	var totalDistance, totalTraffic, totalWeather, riskExtra, totalTime float64
	legs := make([]models.Leg, 0, max(len(path)-1, 0))

	for i := 0; i+1 < len(path); i++ {
		from, to := path[i], path[i+1]
		edge, ok := net.EdgeAttributes(from, to)
		if !ok {
			return models.RouteBreakdown{}, fmt.Errorf("edge %s -> %s vanished from network", from, to)
		}

		base := edge.DistanceKm / costmodel.SpeedKmPerMin
		withDelays := base + edge.TrafficMin + edge.WeatherMin
		withRisk := withDelays * edge.Risk

		totalDistance += edge.DistanceKm
		totalTraffic += edge.TrafficMin
		totalWeather += edge.WeatherMin
		riskExtra += withRisk - withDelays
		totalTime += withRisk

		legs = append(legs, models.Leg{
			From:             from,
			To:               to,
			DistanceKm:       round2(edge.DistanceKm),
			TrafficMin:       round2(edge.TrafficMin),
			WeatherMin:       round2(edge.WeatherMin),
			Risk:             round3(edge.Risk),
			EstimatedTimeMin: round2(withRisk),
		})
	}

	return models.RouteBreakdown{
		TotalDistanceKm:       round2(totalDistance),
		TotalTrafficMin:       round2(totalTraffic),
		TotalWeatherMin:       round2(totalWeather),
		RiskExtraTimeMin:      round2(riskExtra),
		EstimatedTotalTimeMin: round2(totalTime),
		Legs:                  legs,
	}, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
