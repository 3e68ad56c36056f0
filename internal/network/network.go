package network

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/nvuppala/route-planner-service/internal/geo"
	"github.com/nvuppala/route-planner-service/internal/models"
)

// RoadNetwork is the in-memory directed weighted graph keyed by city name.
// Route planning reads it concurrently; weather ingestion mutates it in place.
// A single RWMutex guards the adjacency: each ApplyWeather call (one city's
// forward and reverse edges, including lazy reverse-edge creation) is one
// write section, so readers observe a city's edge pair either fully before
// or fully after an update. Readers never need a snapshot across the whole
// ingestion sweep.
type RoadNetwork struct {
	mu     sync.RWMutex
	cities map[string]models.Coordinate
	adj    map[string]map[string]models.EdgeAttributes

	// generation increments on every mutation; cached route results are
	// keyed by it so they never outlive a weather update.
	generation atomic.Uint64

	// heuristicScale is the smallest ratio of recorded road distance to
	// great-circle distance over the loaded edges, capped at 1. Scaling the
	// straight-line estimate by it keeps the estimate a lower bound on real
	// travel minutes even where the dataset records roads shorter than the
	// great-circle distance between the declared coordinates. Weather updates
	// never change distances (reverse edges mirror the forward distance), so
	// the value is fixed at construction.
	heuristicScale float64
}

// New builds a RoadNetwork from a validated dataset. The dataset maps are
// deep-copied so the loader's data cannot alias live graph state.
func New(ds *Dataset) *RoadNetwork {
	n := &RoadNetwork{
		cities: make(map[string]models.Coordinate, len(ds.Cities)),
		adj:    make(map[string]map[string]models.EdgeAttributes, len(ds.Cities)),
	}
	for name, coord := range ds.Cities {
		n.cities[name] = coord
		n.adj[name] = make(map[string]models.EdgeAttributes)
	}
	for from, neighbors := range ds.Roads {
		for to, attrs := range neighbors {
			if attrs.Risk == 0 {
				attrs.Risk = 1.0
			}
			n.adj[from][to] = attrs
		}
	}
	n.heuristicScale = computeHeuristicScale(n.cities, n.adj)
	return n
}

func computeHeuristicScale(cities map[string]models.Coordinate, adj map[string]map[string]models.EdgeAttributes) float64 {
	scale := 1.0
	for from, edges := range adj {
		fromCoord, ok := cities[from]
		if !ok {
			continue
		}
		for to, attrs := range edges {
			toCoord, ok := cities[to]
			if !ok {
				continue
			}
			straight := geo.HaversineKm(fromCoord, toCoord)
			if straight <= 0 {
				continue
			}
			if ratio := attrs.DistanceKm / straight; ratio < scale {
				scale = ratio
			}
		}
	}
	return scale
}

// HeuristicScale returns the admissibility factor for straight-line route
// estimates on this network.
func (n *RoadNetwork) HeuristicScale() float64 {
	return n.heuristicScale
}

// HasCity reports whether the city is part of the loaded network.
func (n *RoadNetwork) HasCity(city string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.cities[city]
	return ok
}

// Coordinate returns the coordinate of a known city.
func (n *RoadNetwork) Coordinate(city string) (models.Coordinate, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	coord, ok := n.cities[city]
	return coord, ok
}

// Cities returns all known city names in alphabetical order.
func (n *RoadNetwork) Cities() []string {
	n.mu.RLock()
	names := make([]string, 0, len(n.cities))
	for name := range n.cities {
		names = append(names, name)
	}
	n.mu.RUnlock()
	sort.Strings(names)
	return names
}

// CityCoordinates returns a copy of the city -> coordinate mapping.
func (n *RoadNetwork) CityCoordinates() map[string]models.Coordinate {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[string]models.Coordinate, len(n.cities))
	for name, coord := range n.cities {
		out[name] = coord
	}
	return out
}

// Neighbors returns a copy of the outgoing adjacency of a city. A known city
// with no outgoing edges yields an empty map; an unknown city yields ok=false.
func (n *RoadNetwork) Neighbors(city string) (map[string]models.EdgeAttributes, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	edges, ok := n.adj[city]
	if !ok {
		return nil, false
	}
	out := make(map[string]models.EdgeAttributes, len(edges))
	for to, attrs := range edges {
		out[to] = attrs
	}
	return out, true
}

// EdgeAttributes returns the attributes of the directed edge from -> to.
func (n *RoadNetwork) EdgeAttributes(from, to string) (models.EdgeAttributes, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	edges, ok := n.adj[from]
	if !ok {
		return models.EdgeAttributes{}, false
	}
	attrs, ok := edges[to]
	return attrs, ok
}

// Generation returns the current mutation counter.
func (n *RoadNetwork) Generation() uint64 {
	return n.generation.Load()
}

// ApplyWeather sets the weather delay and risk multiplier on every edge
// touching the city. For each neighbor the forward edge is updated, a missing
// reverse edge is created by mirroring distance_km and traffic_min from the
// forward edge (mirroring happens only on creation, never on an existing
// edge), and the reverse edge gets the same weather_min/risk. The whole
// per-city update runs under one write lock. Returns false for an unknown
// city without touching the graph.
func (n *RoadNetwork) ApplyWeather(city string, delayMin, risk float64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	edges, ok := n.adj[city]
	if !ok {
		return false
	}

	for neighbor, forward := range edges {
		forward.WeatherMin = delayMin
		forward.Risk = risk
		edges[neighbor] = forward

		reverseEdges := n.adj[neighbor]
		if reverseEdges == nil {
			reverseEdges = make(map[string]models.EdgeAttributes)
			n.adj[neighbor] = reverseEdges
		}
		reverse, exists := reverseEdges[city]
		if !exists {
			reverse = models.EdgeAttributes{
				DistanceKm: forward.DistanceKm,
				TrafficMin: forward.TrafficMin,
			}
		}
		reverse.WeatherMin = delayMin
		reverse.Risk = risk
		reverseEdges[city] = reverse
	}

	n.generation.Add(1)
	return true
}
