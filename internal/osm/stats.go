package osm

// Statistics counts fetched features by category for export diagnostics.
func Statistics(fc *FeatureCollection) map[string]int {
	counts := make(map[string]int)

	for _, w := range fc.Ways {
		if t, ok := w.Tags["highway"]; ok {
			counts["highway:"+t]++
		}
		if _, ok := w.Tags["building"]; ok {
			counts["building"]++
		}
		if _, ok := w.Tags["railway"]; ok {
			counts["railway"]++
		}
		if _, ok := w.Tags["waterway"]; ok || w.Tags["natural"] == "water" {
			counts["water"]++
		}
	}

	for _, n := range fc.Nodes {
		if _, ok := n.Tags["amenity"]; ok {
			counts["poi"]++
		}
	}

	return counts
}
