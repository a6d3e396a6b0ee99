package routing

type directionsResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Routes  []directionsRoute `json:"routes"`
}

type directionsRoute struct {
	Distance float64           `json:"distance"`
	Duration float64           `json:"duration"`
	Geometry geoJSONLineString `json:"geometry"`
	Legs     []directionsLeg   `json:"legs"`
}

type geoJSONLineString struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

type directionsLeg struct {
	Distance   float64              `json:"distance"`
	Duration   float64              `json:"duration"`
	Annotation directionsAnnotation `json:"annotation"`
}

// Parallel per-segment arrays, keyed by segment index within the leg.
type directionsAnnotation struct {
	Speed      []float64       `json:"speed"`
	Congestion []string        `json:"congestion"`
	Maxspeed   []maxspeedEntry `json:"maxspeed"`
}

// Maxspeed entries are either a posted limit with a unit or unknown.
type maxspeedEntry struct {
	Speed   *float64 `json:"speed"`
	Unit    string   `json:"unit"`
	Unknown bool     `json:"unknown"`
}
