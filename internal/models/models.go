package models

// Coordinate is a WGS84 point in degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// City is a route endpoint. Immutable after the dataset is loaded.
type City struct {
	Name       string
	Coordinate Coordinate
}

// EdgeAttributes holds the raw cost inputs of one directed road segment.
// DistanceKm is static; WeatherMin and Risk are mutated by weather ingestion.
// TrafficMin would be mutated by a traffic feed, which this service does not
// consume, so it only changes when a missing reverse edge is mirrored.
type EdgeAttributes struct {
	DistanceKm float64 `yaml:"distance_km"`
	TrafficMin float64 `yaml:"traffic_min"`
	WeatherMin float64 `yaml:"weather_min"`
	Risk       float64 `yaml:"risk"`
}

// Leg is the reporting view of a single edge traversal. Values are rounded
// for presentation (two decimals, three for risk).
type Leg struct {
	From             string  `json:"from"`
	To               string  `json:"to"`
	DistanceKm       float64 `json:"distance_km"`
	TrafficMin       float64 `json:"traffic_min"`
	WeatherMin       float64 `json:"weather_min"`
	Risk             float64 `json:"risk"`
	EstimatedTimeMin float64 `json:"estimated_time_min"`
}

// RouteBreakdown is the itemized accounting of a found path. Totals are
// accumulated at full precision and rounded once when the breakdown is built.
type RouteBreakdown struct {
	TotalDistanceKm       float64 `json:"total_distance_km"`
	TotalTrafficMin       float64 `json:"total_traffic_min"`
	TotalWeatherMin       float64 `json:"total_weather_min"`
	RiskExtraTimeMin      float64 `json:"risk_extra_time_min"`
	EstimatedTotalTimeMin float64 `json:"estimated_total_time_min"`
	Legs                  []Leg   `json:"legs"`
}

// RouteResult is the response payload for a planned route.
type RouteResult struct {
	Path      []string       `json:"path"`
	Breakdown RouteBreakdown `json:"breakdown"`
}

// WeatherReport is the per-city summary returned by a weather ingestion sweep.
type WeatherReport struct {
	Condition string  `json:"condition"`
	DelayMin  float64 `json:"delay_min"`
	Risk      float64 `json:"risk"`
}
