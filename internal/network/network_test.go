package network

import (
	"math"
	"sync"
	"testing"

	"github.com/nvuppala/route-planner-service/internal/geo"
	"github.com/nvuppala/route-planner-service/internal/models"
)

func twoCityDataset() *Dataset {
	return &Dataset{
		Cities: map[string]models.Coordinate{
			"Hyderabad": {Lat: 17.3850, Lon: 78.4867},
			"Medak":     {Lat: 17.7500, Lon: 78.2790},
			"Siddipet":  {Lat: 18.1000, Lon: 78.8500},
		},
		Roads: map[string]map[string]models.EdgeAttributes{
			"Hyderabad": {
				"Medak": {DistanceKm: 70, TrafficMin: 15, Risk: 1.03},
			},
			"Medak": {
				"Hyderabad": {DistanceKm: 70, TrafficMin: 12, Risk: 1.03},
			},
		},
	}
}

// TestHeuristicScale verifies the admissibility factor: 1 when every road is
// at least as long as the great-circle distance, the smallest road-to-straight
// ratio when an edge is recorded shorter than that.
func TestHeuristicScale(t *testing.T) {
	net := New(twoCityDataset())
	if got := net.HeuristicScale(); got != 1.0 {
		t.Fatalf("HeuristicScale() = %f, want 1", got)
	}

	ds := twoCityDataset()
	straight := geo.HaversineKm(ds.Cities["Hyderabad"], ds.Cities["Medak"])
	short := straight / 2
	ds.Roads["Hyderabad"]["Medak"] = models.EdgeAttributes{DistanceKm: short, TrafficMin: 15, Risk: 1.03}
	net = New(ds)
	want := short / straight
	if got := net.HeuristicScale(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("HeuristicScale() = %f, want %f", got, want)
	}
}

// TestCities_SortedAlphabetically verifies Cities returns a stable ordered set.
func TestCities_SortedAlphabetically(t *testing.T) {
	net := New(twoCityDataset())
	got := net.Cities()
	want := []string{"Hyderabad", "Medak", "Siddipet"}
	if len(got) != len(want) {
		t.Fatalf("Cities() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Cities() = %v, want %v", got, want)
		}
	}
}

// TestNeighbors verifies adjacency reads: known city with edges, known city
// without outgoing edges (empty map, not an error), unknown city.
func TestNeighbors(t *testing.T) {
	net := New(twoCityDataset())

	edges, ok := net.Neighbors("Hyderabad")
	if !ok || len(edges) != 1 {
		t.Fatalf("Neighbors(Hyderabad) = %v, %v", edges, ok)
	}

	edges, ok = net.Neighbors("Siddipet")
	if !ok {
		t.Fatal("Neighbors(Siddipet) not ok for a known city")
	}
	if len(edges) != 0 {
		t.Fatalf("Neighbors(Siddipet) = %v, want empty", edges)
	}

	if _, ok := net.Neighbors("Atlantis"); ok {
		t.Fatal("Neighbors(Atlantis) ok for unknown city")
	}
}

// TestNeighbors_ReturnsCopy verifies mutating the returned map does not leak
// into the live graph.
func TestNeighbors_ReturnsCopy(t *testing.T) {
	net := New(twoCityDataset())
	edges, _ := net.Neighbors("Hyderabad")
	edges["Medak"] = models.EdgeAttributes{DistanceKm: 1}

	attrs, _ := net.EdgeAttributes("Hyderabad", "Medak")
	if attrs.DistanceKm != 70 {
		t.Fatalf("graph mutated through Neighbors copy: %+v", attrs)
	}
}

// TestApplyWeather_UpdatesBothDirections verifies forward and reverse edges
// carry identical weather_min/risk after an update, while distance and
// traffic stay untouched on pre-existing edges.
func TestApplyWeather_UpdatesBothDirections(t *testing.T) {
	net := New(twoCityDataset())

	if !net.ApplyWeather("Hyderabad", 12, 1.08) {
		t.Fatal("ApplyWeather returned false for known city")
	}

	forward, _ := net.EdgeAttributes("Hyderabad", "Medak")
	reverse, _ := net.EdgeAttributes("Medak", "Hyderabad")

	if forward.WeatherMin != 12 || forward.Risk != 1.08 {
		t.Fatalf("forward edge = %+v", forward)
	}
	if reverse.WeatherMin != 12 || reverse.Risk != 1.08 {
		t.Fatalf("reverse edge = %+v", reverse)
	}
	// The asymmetric traffic estimates survive; only weather fields sync.
	if forward.TrafficMin != 15 || reverse.TrafficMin != 12 {
		t.Fatalf("traffic mutated: forward %.1f, reverse %.1f", forward.TrafficMin, reverse.TrafficMin)
	}
	if forward.DistanceKm != 70 || reverse.DistanceKm != 70 {
		t.Fatalf("distance mutated: forward %.1f, reverse %.1f", forward.DistanceKm, reverse.DistanceKm)
	}
}

// TestApplyWeather_CreatesMissingReverseEdge verifies the lazily created
// reverse edge mirrors distance_km and traffic_min from the forward edge as
// they were immediately before the update.
func TestApplyWeather_CreatesMissingReverseEdge(t *testing.T) {
	ds := twoCityDataset()
	ds.Roads["Hyderabad"]["Siddipet"] = models.EdgeAttributes{DistanceKm: 100, TrafficMin: 14, WeatherMin: 1, Risk: 1.04}
	net := New(ds)

	if _, ok := net.EdgeAttributes("Siddipet", "Hyderabad"); ok {
		t.Fatal("reverse edge exists before update")
	}

	net.ApplyWeather("Hyderabad", 8, 1.05)

	reverse, ok := net.EdgeAttributes("Siddipet", "Hyderabad")
	if !ok {
		t.Fatal("reverse edge not created")
	}
	if reverse.DistanceKm != 100 || reverse.TrafficMin != 14 {
		t.Fatalf("mirrored attributes = %+v, want distance 100 traffic 14", reverse)
	}
	if reverse.WeatherMin != 8 || reverse.Risk != 1.05 {
		t.Fatalf("reverse weather fields = %+v", reverse)
	}
}

// TestApplyWeather_DoesNotOverwriteExistingTraffic verifies traffic_min is
// mirrored only on edge creation, never onto an edge that already exists.
func TestApplyWeather_DoesNotOverwriteExistingTraffic(t *testing.T) {
	net := New(twoCityDataset())
	net.ApplyWeather("Hyderabad", 5, 1.02)
	net.ApplyWeather("Hyderabad", 7, 1.04)

	reverse, _ := net.EdgeAttributes("Medak", "Hyderabad")
	if reverse.TrafficMin != 12 {
		t.Fatalf("reverse traffic = %.1f after repeat updates, want 12", reverse.TrafficMin)
	}
	if reverse.WeatherMin != 7 || reverse.Risk != 1.04 {
		t.Fatalf("reverse weather fields = %+v", reverse)
	}
}

// TestApplyWeather_UnknownCity verifies the graph is untouched for an unknown city.
func TestApplyWeather_UnknownCity(t *testing.T) {
	net := New(twoCityDataset())
	gen := net.Generation()
	if net.ApplyWeather("Atlantis", 5, 1.1) {
		t.Fatal("ApplyWeather(Atlantis) = true")
	}
	if net.Generation() != gen {
		t.Fatal("generation bumped for unknown city")
	}
}

// TestGeneration_BumpsPerUpdate verifies every successful ApplyWeather
// invalidates cached routes through the generation counter.
func TestGeneration_BumpsPerUpdate(t *testing.T) {
	net := New(twoCityDataset())
	before := net.Generation()
	net.ApplyWeather("Hyderabad", 1, 1.01)
	net.ApplyWeather("Medak", 2, 1.02)
	if got := net.Generation(); got != before+2 {
		t.Fatalf("Generation() = %d, want %d", got, before+2)
	}
}

// TestConcurrentReadersAndWriter exercises parallel route-style reads against
// in-place weather mutation; run with -race.
func TestConcurrentReadersAndWriter(t *testing.T) {
	net := New(twoCityDataset())
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				if edges, ok := net.Neighbors("Hyderabad"); ok {
					for to := range edges {
						net.EdgeAttributes("Hyderabad", to)
					}
				}
				net.Cities()
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 500; j++ {
			net.ApplyWeather("Hyderabad", float64(j%10), 1.0+float64(j%5)/100)
		}
	}()

	wg.Wait()
}
