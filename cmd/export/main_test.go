package main

import "testing"

func TestParseBBox(t *testing.T) {
	bbox, err := parseBBox("14.0, 50.0, 14.1, 50.1")
	if err != nil {
		t.Fatalf("parseBBox() error = %v", err)
	}
	if bbox.MinLon != 14.0 || bbox.MinLat != 50.0 || bbox.MaxLon != 14.1 || bbox.MaxLat != 50.1 {
		t.Errorf("parseBBox() = %+v", bbox)
	}

	for _, bad := range []string{
		"",
		"14.0,50.0,14.1",
		"a,b,c,d",
		"14.1,50.0,14.0,50.1", // swapped longitudes
	} {
		if _, err := parseBBox(bad); err == nil {
			t.Errorf("parseBBox(%q) accepted invalid input", bad)
		}
	}
}
