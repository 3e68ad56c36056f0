package planner

import (
	"container/heap"
	"errors"

	"github.com/nvuppala/route-planner-service/internal/costmodel"
	"github.com/nvuppala/route-planner-service/internal/network"
)

// ErrUnknownCity is returned when a route endpoint is not in the network.
var ErrUnknownCity = errors.New("unknown city")

// ErrRouteNotFound is returned when no path connects the two endpoints.
var ErrRouteNotFound = errors.New("no route found")

// pqItem is one frontier entry: a city with its accumulated cost g and
// priority f = g + heuristic. seq breaks f ties in insertion order so the
// search output is deterministic.
type pqItem struct {
	city string
	g    float64
	f    float64
	seq  int
}

type frontier []pqItem

func (q frontier) Len() int { return len(q) }
func (q frontier) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].seq < q[j].seq
}
func (q frontier) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *frontier) Push(x any) {
	*q = append(*q, x.(pqItem))
}

func (q *frontier) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Result carries a found path together with the cost and exploration stats
// the search accumulated, so callers can cross-check reporting against it.
type Result struct {
	Path          []string
	TotalCostMin  float64
	ExpandedNodes int
}

// FindRoute runs an A* best-first search from start to goal over the road
// network, weighting edges with the cost model. start == goal short-circuits
// to a single-city path without searching. Returns ErrUnknownCity when either
// endpoint is outside the network and ErrRouteNotFound when the frontier is
// exhausted before reaching the goal.
func FindRoute(net *network.RoadNetwork, start, goal string) (Result, error) {
	if !net.HasCity(start) || !net.HasCity(goal) {
		return Result{}, ErrUnknownCity
	}
	if start == goal {
		return Result{Path: []string{start}}, nil
	}

	goalCoord, _ := net.Coordinate(goal)
	scale := net.HeuristicScale()
	h := func(city string) float64 {
		coord, _ := net.Coordinate(city)
		return scale * costmodel.Heuristic(coord, goalCoord)
	}
	return findRoute(net, start, goal, h)
}

// findRoute is the search core with an injectable heuristic. Tests pass a
// zero heuristic to obtain Dijkstra ground truth for admissibility checks.
func findRoute(net *network.RoadNetwork, start, goal string, h func(city string) float64) (Result, error) {
	gScore := map[string]float64{start: 0}
	cameFrom := make(map[string]string)
	expanded := 0
	seq := 0

	open := &frontier{}
	heap.Push(open, pqItem{city: start, g: 0, f: h(start)})

	for open.Len() > 0 {
		current := heap.Pop(open).(pqItem)

		// A stale entry: the city was re-pushed with a better g after this
		// one was enqueued.
		if current.g > gScore[current.city] {
			continue
		}

		if current.city == goal {
			return Result{
				Path:          reconstructPath(cameFrom, current.city),
				TotalCostMin:  current.g,
				ExpandedNodes: expanded,
			}, nil
		}
		expanded++

		neighbors, _ := net.Neighbors(current.city)
		for neighbor, attrs := range neighbors {
			tentative := current.g + costmodel.EdgeCost(attrs)
			if best, seen := gScore[neighbor]; seen && tentative >= best {
				continue
			}
			gScore[neighbor] = tentative
			cameFrom[neighbor] = current.city
			seq++
			heap.Push(open, pqItem{
				city: neighbor,
				g:    tentative,
				f:    tentative + h(neighbor),
				seq:  seq,
			})
		}
	}

	return Result{}, ErrRouteNotFound
}

// reconstructPath walks predecessor links back from the goal.
func reconstructPath(cameFrom map[string]string, goal string) []string {
	path := []string{goal}
	for {
		prev, ok := cameFrom[path[len(path)-1]]
		if !ok {
			break
		}
		path = append(path, prev)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// zeroHeuristic degrades A* to Dijkstra. Used as the admissibility baseline.
func zeroHeuristic(string) float64 { return 0 }
