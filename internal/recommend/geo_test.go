package recommend

import (
	"math"
	"testing"
)

func TestHaversineKm_SamePointIsZero(t *testing.T) {
	if d := haversineKm(37.5563, 126.9239, 37.5563, 126.9239); d != 0 {
		t.Errorf("expected 0, got %v", d)
	}
}

func TestHaversineKm_KnownDistance(t *testing.T) {
	// 홍대 to 강남 is roughly 11 km.
	d := haversineKm(37.5563, 126.9239, 37.4979, 127.0276)
	if d < 10 || d > 13 {
		t.Errorf("expected roughly 11km, got %v", d)
	}
}

func TestHaversineKm_Symmetric(t *testing.T) {
	a := haversineKm(37.5563, 126.9239, 37.4979, 127.0276)
	b := haversineKm(37.4979, 127.0276, 37.5563, 126.9239)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", a, b)
	}
}

func TestGeoFilterComplete(t *testing.T) {
	lat, lon := 37.5, 127.0

	var nilFilter *GeoFilter
	if nilFilter.complete() {
		t.Error("nil filter must not be complete")
	}
	if (&GeoFilter{Latitude: &lat}).complete() {
		t.Error("filter without longitude must not be complete")
	}
	if !(&GeoFilter{Latitude: &lat, Longitude: &lon}).complete() {
		t.Error("filter with both coordinates must be complete")
	}
}

func TestGeoFilterRadiusDefaults(t *testing.T) {
	if r := (&GeoFilter{}).radius(); r != DefaultRadiusKm {
		t.Errorf("expected default radius %v, got %v", DefaultRadiusKm, r)
	}
	if r := (&GeoFilter{RadiusKm: 3}).radius(); r != 3 {
		t.Errorf("expected 3, got %v", r)
	}
}
