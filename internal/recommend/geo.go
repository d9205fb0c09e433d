package recommend

import "math"

// DefaultRadiusKm is used when a geo filter has a center but no radius.
const DefaultRadiusKm = 10.0

const earthRadiusKm = 6371.0

// GeoFilter restricts recommendations to places within RadiusKm of a center
// point. The filter is advisory: one missing coordinate disables it entirely
// rather than failing the request.
type GeoFilter struct {
	Latitude  *float64
	Longitude *float64
	RadiusKm  float64
}

// complete reports whether the filter has a usable center.
func (g *GeoFilter) complete() bool {
	return g != nil && g.Latitude != nil && g.Longitude != nil
}

func (g *GeoFilter) radius() float64 {
	if g.RadiusKm > 0 {
		return g.RadiusKm
	}
	return DefaultRadiusKm
}

// haversineKm computes the great-circle distance in kilometers between two
// points on a spherical Earth.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dlat := (lat2 - lat1) * math.Pi / 180
	dlon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Asin(math.Sqrt(a))
	return earthRadiusKm * c
}
