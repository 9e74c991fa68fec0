// Package osm fetches vector map features from an Overpass-compatible query
// service, splitting oversized requests into a chunk grid and merging the
// deduplicated results.
package osm

// Tags is a free-form OSM key/value tag set.
type Tags map[string]string

// LatLon is a geodetic vertex.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Node is an OSM point element.
type Node struct {
	Tags Tags    `json:"tags,omitempty"`
	ID   int64   `json:"id"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Way is an OSM polyline or ring with inlined vertex geometry.
type Way struct {
	Tags     Tags     `json:"tags,omitempty"`
	NodeIDs  []int64  `json:"nodes,omitempty"`
	Geometry []LatLon `json:"geometry"`
	ID       int64    `json:"id"`

	// PossiblySplit marks ways whose endpoint touches an interior chunk
	// seam; such ways may be fragments of one continuous feature.
	PossiblySplit bool `json:"possibly_split,omitempty"`
}

// Member is one entry of a relation.
type Member struct {
	Type string `json:"type"`
	Role string `json:"role,omitempty"`
	Ref  int64  `json:"ref"`
}

// Relation groups nodes and ways into a composite feature.
type Relation struct {
	Tags    Tags     `json:"tags,omitempty"`
	Members []Member `json:"members,omitempty"`
	ID      int64    `json:"id"`
}

// FeatureCollection holds the merged result of one fetch.
// IDs are unique within each element list.
type FeatureCollection struct {
	Nodes     []Node     `json:"nodes"`
	Ways      []Way      `json:"ways"`
	Relations []Relation `json:"relations"`
}

// Len returns the total element count.
func (fc *FeatureCollection) Len() int {
	return len(fc.Nodes) + len(fc.Ways) + len(fc.Relations)
}

// Merge appends another collection, dropping elements whose id was already
// seen. First occurrence wins, so merging the same chunk twice is a no-op.
func (fc *FeatureCollection) Merge(other *FeatureCollection) {
	seenNodes := make(map[int64]struct{}, len(fc.Nodes))
	for _, n := range fc.Nodes {
		seenNodes[n.ID] = struct{}{}
	}
	for _, n := range other.Nodes {
		if _, ok := seenNodes[n.ID]; ok {
			continue
		}
		seenNodes[n.ID] = struct{}{}
		fc.Nodes = append(fc.Nodes, n)
	}

	seenWays := make(map[int64]struct{}, len(fc.Ways))
	for _, w := range fc.Ways {
		seenWays[w.ID] = struct{}{}
	}
	for _, w := range other.Ways {
		if _, ok := seenWays[w.ID]; ok {
			continue
		}
		seenWays[w.ID] = struct{}{}
		fc.Ways = append(fc.Ways, w)
	}

	seenRels := make(map[int64]struct{}, len(fc.Relations))
	for _, r := range fc.Relations {
		seenRels[r.ID] = struct{}{}
	}
	for _, r := range other.Relations {
		if _, ok := seenRels[r.ID]; ok {
			continue
		}
		seenRels[r.ID] = struct{}{}
		fc.Relations = append(fc.Relations, r)
	}
}

// Filters selects which feature categories a fetch should request.
type Filters struct {
	Roads           bool `yaml:"roads" long:"roads" description:"Fetch roads"`
	Buildings       bool `yaml:"buildings" long:"buildings" description:"Fetch buildings"`
	Railways        bool `yaml:"railways" long:"railways" description:"Fetch railways"`
	PowerLines      bool `yaml:"power_lines" long:"power-lines" description:"Fetch power lines and towers"`
	Water           bool `yaml:"water" long:"water" description:"Fetch water features"`
	POI             bool `yaml:"poi" long:"poi" description:"Fetch points of interest"`
	StreetFurniture bool `yaml:"street_furniture" long:"street-furniture" description:"Fetch street furniture"`
	Landuse         bool `yaml:"landuse" long:"landuse" description:"Fetch land use areas"`
	Natural         bool `yaml:"natural" long:"natural" description:"Fetch natural features"`
	Barriers        bool `yaml:"barriers" long:"barriers" description:"Fetch barriers and fences"`
}

// Enabled reports whether at least one category is selected.
func (f Filters) Enabled() bool {
	for _, on := range f.categories() {
		if on {
			return true
		}
	}
	return false
}

// categories maps density-table keys to the filter switches.
func (f Filters) categories() map[string]bool {
	return map[string]bool{
		"roads":            f.Roads,
		"buildings":        f.Buildings,
		"railways":         f.Railways,
		"power_lines":      f.PowerLines,
		"water":            f.Water,
		"poi":              f.POI,
		"street_furniture": f.StreetFurniture,
		"landuse":          f.Landuse,
		"natural":          f.Natural,
		"barriers":         f.Barriers,
	}
}
