package osm

import (
	"fmt"
	"strings"
	"time"

	"github.com/mkungen89/rterrain/internal/geo"
)

// BuildQuery renders an Overpass QL query selecting the enabled categories
// inside the box. Geometry is requested inline (out geom) so way vertices
// arrive without a second lookup.
func BuildQuery(bbox geo.BoundingBox, filters Filters, timeout time.Duration) string {
	box := fmt.Sprintf("%g,%g,%g,%g", bbox.MinLat, bbox.MinLon, bbox.MaxLat, bbox.MaxLon)

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", int(timeout.Seconds()))

	if filters.Roads {
		fmt.Fprintf(&b, "  way[\"highway\"](%s);\n", box)
	}
	if filters.Buildings {
		fmt.Fprintf(&b, "  way[\"building\"](%s);\n", box)
		fmt.Fprintf(&b, "  relation[\"building\"](%s);\n", box)
	}
	if filters.Railways {
		fmt.Fprintf(&b, "  way[\"railway\"](%s);\n", box)
	}
	if filters.PowerLines {
		fmt.Fprintf(&b, "  way[\"power\"=\"line\"](%s);\n", box)
		fmt.Fprintf(&b, "  node[\"power\"=\"tower\"](%s);\n", box)
		fmt.Fprintf(&b, "  node[\"power\"=\"pole\"](%s);\n", box)
	}
	if filters.Water {
		fmt.Fprintf(&b, "  way[\"natural\"=\"water\"](%s);\n", box)
		fmt.Fprintf(&b, "  way[\"waterway\"](%s);\n", box)
		fmt.Fprintf(&b, "  relation[\"natural\"=\"water\"](%s);\n", box)
	}
	if filters.POI {
		fmt.Fprintf(&b, "  node[\"amenity\"](%s);\n", box)
		fmt.Fprintf(&b, "  way[\"amenity\"](%s);\n", box)
	}
	if filters.StreetFurniture {
		fmt.Fprintf(&b, "  node[\"highway\"=\"street_lamp\"](%s);\n", box)
		fmt.Fprintf(&b, "  node[\"amenity\"=\"bench\"](%s);\n", box)
		fmt.Fprintf(&b, "  node[\"amenity\"=\"waste_basket\"](%s);\n", box)
		fmt.Fprintf(&b, "  node[\"highway\"=\"traffic_signals\"](%s);\n", box)
	}
	if filters.Landuse {
		fmt.Fprintf(&b, "  way[\"landuse\"](%s);\n", box)
		fmt.Fprintf(&b, "  relation[\"landuse\"](%s);\n", box)
	}
	if filters.Natural {
		fmt.Fprintf(&b, "  way[\"natural\"](%s);\n", box)
		fmt.Fprintf(&b, "  relation[\"natural\"](%s);\n", box)
	}
	if filters.Barriers {
		fmt.Fprintf(&b, "  way[\"barrier\"](%s);\n", box)
		fmt.Fprintf(&b, "  node[\"barrier\"](%s);\n", box)
	}

	b.WriteString(");\nout geom;")
	return b.String()
}
