package geo

import "math"

// EarthRadiusKm is the mean earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// DefaultRoadFactor scales great-circle distance to an approximate road
// distance. Calibrated for the Kocaeli road network.
const DefaultRoadFactor = 1.35

// Haversine returns the great-circle distance in kilometers between two
// coordinates.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// RoadDistance approximates the road distance in kilometers between two
// coordinates as great-circle distance scaled by factor.
func RoadDistance(lat1, lng1, lat2, lng2, factor float64) float64 {
	if factor <= 0 {
		factor = DefaultRoadFactor
	}
	return Haversine(lat1, lng1, lat2, lng2) * factor
}
