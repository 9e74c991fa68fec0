package geo

import (
	"math"
	"testing"
)

func TestBoundingBoxValidate(t *testing.T) {
	tests := []struct {
		name    string
		bbox    BoundingBox
		wantErr bool
	}{
		{"Valid", BoundingBox{MinLon: -122.5, MinLat: 37.7, MaxLon: -122.4, MaxLat: 37.8}, false},
		{"Swapped Longitude", BoundingBox{MinLon: -122.4, MinLat: 37.7, MaxLon: -122.5, MaxLat: 37.8}, true},
		{"Swapped Latitude", BoundingBox{MinLon: -122.5, MinLat: 37.8, MaxLon: -122.4, MaxLat: 37.7}, true},
		{"Zero Width", BoundingBox{MinLon: -122.5, MinLat: 37.7, MaxLon: -122.5, MaxLat: 37.8}, true},
		{"Longitude Out Of Range", BoundingBox{MinLon: -190, MinLat: 37.7, MaxLon: -122.4, MaxLat: 37.8}, true},
		{"Latitude Out Of Range", BoundingBox{MinLon: -122.5, MinLat: 37.7, MaxLon: -122.4, MaxLat: 95}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bbox.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAreaKm2(t *testing.T) {
	// Roughly 0.1° × 0.1° near San Francisco: about 11 km × 8.8 km.
	bbox := BoundingBox{MinLon: -122.5, MinLat: 37.7, MaxLon: -122.4, MaxLat: 37.8}

	area := bbox.AreaKm2()
	if area < 90 || area > 105 {
		t.Errorf("AreaKm2() = %g, want between 90 and 105", area)
	}
}

func TestAreaGrowsWithBox(t *testing.T) {
	base := BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 0.1, MaxLat: 0.1}
	prev := 0.0
	for i := 1; i <= 5; i++ {
		b := base
		b.MaxLon = base.MinLon + 0.1*float64(i)
		b.MaxLat = base.MinLat + 0.1*float64(i)
		area := b.AreaKm2()
		if area <= prev {
			t.Fatalf("area %g not increasing at step %d (prev %g)", area, i, prev)
		}
		prev = area
	}
}

func TestMetersPerDegreeLonShrinksWithLatitude(t *testing.T) {
	equator := BoundingBox{MinLon: 0, MinLat: -0.05, MaxLon: 1, MaxLat: 0.05}
	north := BoundingBox{MinLon: 0, MinLat: 59.95, MaxLon: 1, MaxLat: 60.05}

	if equator.MetersPerDegreeLon() <= north.MetersPerDegreeLon() {
		t.Error("longitude scale should shrink toward the poles")
	}
	// cos(60°) = 0.5
	want := MetersPerDegreeLonEquator * 0.5
	if got := north.MetersPerDegreeLon(); math.Abs(got-want) > 100 {
		t.Errorf("MetersPerDegreeLon() at 60° = %g, want about %g", got, want)
	}
}
