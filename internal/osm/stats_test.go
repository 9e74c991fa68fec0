package osm

import "testing"

func TestStatistics(t *testing.T) {
	fc := &FeatureCollection{
		Ways: []Way{
			{ID: 1, Tags: Tags{"highway": "residential"}},
			{ID: 2, Tags: Tags{"highway": "residential"}},
			{ID: 3, Tags: Tags{"highway": "primary"}},
			{ID: 4, Tags: Tags{"building": "yes"}},
			{ID: 5, Tags: Tags{"natural": "water"}},
			{ID: 6, Tags: Tags{"waterway": "stream"}},
		},
		Nodes: []Node{
			{ID: 7, Tags: Tags{"amenity": "bench"}},
			{ID: 8},
		},
	}

	counts := Statistics(fc)
	want := map[string]int{
		"highway:residential": 2,
		"highway:primary":     1,
		"building":            1,
		"water":               2,
		"poi":                 1,
	}
	for k, v := range want {
		if counts[k] != v {
			t.Errorf("counts[%q] = %d, want %d", k, counts[k], v)
		}
	}
}
