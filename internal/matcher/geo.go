package matcher

import "math"

const earthRadiusMeters = 6371000

// ProximityLevel is a discrete, ordered bucket a raw distance classifies into.
type ProximityLevel string

const (
	ProximityUnknown          ProximityLevel = "unknown"
	ProximitySameAddress      ProximityLevel = "same_address"
	ProximitySameBuilding     ProximityLevel = "same_building"
	ProximitySameBlock        ProximityLevel = "same_block"
	ProximitySameStreet       ProximityLevel = "same_street"
	ProximityWalkingDistance  ProximityLevel = "walking_distance"
	ProximitySameNeighborhood ProximityLevel = "same_neighborhood"
	ProximityDifferentArea    ProximityLevel = "different_area"
)

// proximityOrder indexes tiers from closest to farthest. Unknown sorts last.
var proximityOrder = map[ProximityLevel]int{
	ProximitySameAddress:      0,
	ProximitySameBuilding:     1,
	ProximitySameBlock:        2,
	ProximitySameStreet:       3,
	ProximityWalkingDistance:  4,
	ProximitySameNeighborhood: 5,
	ProximityDifferentArea:    6,
	ProximityUnknown:          7,
}

func (p ProximityLevel) known() bool {
	_, ok := proximityOrder[p]
	return ok
}

// Index returns the tier's position in the closest-to-farthest ordering.
func (p ProximityLevel) Index() int {
	return proximityOrder[p]
}

// HaversineMeters computes the great-circle distance between two coordinate
// pairs in meters. Inputs are degrees. The function is pure and symmetric;
// callers are responsible for not passing absent coordinates.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// validCoordinate reports whether a latitude/longitude pair is inside the
// valid degree ranges.
func validCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ClassifyProximity maps a distance in meters onto a tier. Band ceilings are
// inclusive: exactly 10m is still same_address under the default bands.
func ClassifyProximity(bands []ProximityBand, meters float64) ProximityLevel {
	for _, b := range bands {
		if meters <= b.MaxMeters {
			return b.Level
		}
	}
	return ProximityDifferentArea
}

// geographicSimilarity converts a distance to a [0,1] score with an
// exponential decay: 1.0 at 0m, near zero by ~2km at the default decay.
func geographicSimilarity(meters, decayMeters float64) float64 {
	return math.Exp(-meters / decayMeters)
}
