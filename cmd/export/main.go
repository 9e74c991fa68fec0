package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mkungen89/rterrain/internal/config"
	"github.com/mkungen89/rterrain/internal/geo"
	"github.com/mkungen89/rterrain/internal/imagery"
	"github.com/mkungen89/rterrain/internal/logger"
	"github.com/mkungen89/rterrain/internal/material"
	"github.com/mkungen89/rterrain/internal/osm"
	"github.com/mkungen89/rterrain/internal/rtpack"
	"github.com/mkungen89/rterrain/internal/scene"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger  logger.Logger `group:"Logger options"`
	Filters osm.Filters   `group:"Feature filters"`

	ConfigFile string  `short:"c" long:"config"     env:"CONFIG_FILE" description:"Path to configuration file"`
	BBox       string  `short:"b" long:"bbox"       required:"true"   description:"Bounding box as minLon,minLat,maxLon,maxLat"`
	Heightmap  string  `short:"H" long:"heightmap"  required:"true"   description:"Path to 16-bit grayscale heightmap PNG"`
	MinElev    float64 `long:"min-elevation"        default:"0"       description:"Elevation of heightmap value 0 (meters)"`
	MaxElev    float64 `long:"max-elevation"        default:"1000"    description:"Elevation of heightmap value 65535 (meters)"`
	Imagery    string  `short:"i" long:"imagery"    description:"Base imagery source (file path or URL)"`
	Quality    float32 `long:"imagery-quality"      default:"85"      description:"WebP quality for embedded imagery"`
	Materials  bool    `short:"m" long:"materials"  description:"Classify and embed material weight masks"`
	Resolution float64 `short:"r" long:"resolution" default:"30"      description:"Heightmap sample spacing in meters"`
	Name       string  `short:"n" long:"name"       default:"Unnamed" description:"Project name"`
	Location   string  `long:"location"             description:"Human-readable location"`
	Output     string  `short:"o" long:"output"     default:"terrain.rterrain" description:"Output package path"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg := config.Default()
	if opts.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigFile); err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
	}

	bbox, err := parseBBox(opts.BBox)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid bounding box")
	}

	raster, err := geo.LoadHeightRasterPNG(opts.Heightmap, opts.MinElev, opts.MaxElev)
	if err != nil {
		log.Fatal().Err(err).Str("path", opts.Heightmap).Msg("Failed to load heightmap")
	}
	if filled := raster.FillNoData(); filled > 0 {
		log.Info().Int("samples", filled).Msg("Filled no-data holes in heightmap")
	}

	client := &http.Client{
		Transport: &http.Transport{
			TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
		Timeout: cfg.Fetch.Timeout.Std() + 15*time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := osm.NewClient(client, cfg.Fetch)
	features, warnings, err := fetcher.Fetch(ctx, bbox, opts.Filters)
	if err != nil {
		log.Fatal().Err(err).Msg("Feature fetch failed")
	}
	for _, w := range warnings {
		log.Warn().Str("warning", w.String()).Msg("Partial fetch failure")
	}
	for category, count := range osm.Statistics(features) {
		log.Debug().Str("category", category).Int("count", count).Msg("Fetched features")
	}

	origin := geo.Vec3{X: cfg.Geometry.OriginX, Y: cfg.Geometry.OriginY, Z: cfg.Geometry.OriginZ}
	tr := geo.NewTransformer(bbox, raster, cfg.Geometry.UnitScale, origin)

	builder := scene.NewBuilder(tr, cfg.Geometry)
	built, summary := builder.Build(features)

	minElev, maxElev := raster.MinMax()
	meta := rtpack.Metadata{
		Created: time.Now().Format(time.RFC3339),
		Project: rtpack.ProjectInfo{
			Name:     opts.Name,
			Location: opts.Location,
			BBox:     bbox,
			AreaKm2:  bbox.AreaKm2(),
		},
		Terrain: rtpack.TerrainInfo{
			CoordinateSystem: "WGS84",
			HeightmapSize:    []int{raster.Rows, raster.Cols},
			ResolutionM:      opts.Resolution,
			MinElevation:     minElev,
			MaxElevation:     maxElev,
		},
		Content: map[string]int{
			"buildings": summary.Buildings,
			"paths":     summary.Paths,
			"cables":    summary.Cables,
			"areas":     summary.Areas,
			"points":    summary.Points,
			"dropped":   summary.Dropped,
		},
	}

	writer := rtpack.NewWriter(meta)
	if err := writer.AddNumeric(rtpack.BlockHeightmap, []int{raster.Rows, raster.Cols}, raster.Data); err != nil {
		log.Fatal().Err(err).Msg("Failed to add heightmap block")
	}

	if opts.Imagery != "" {
		img, err := imagery.Load(client, opts.Imagery)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load base imagery")
		}
		encoded, err := imagery.EncodeWebP(img, opts.Quality)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to encode base imagery")
		}
		if err := writer.AddBinary(rtpack.BlockImagery, encoded); err != nil {
			log.Fatal().Err(err).Msg("Failed to add imagery block")
		}
	}

	if opts.Materials {
		masks := material.Classify(raster, material.DefaultParams(opts.Resolution))
		for _, m := range masks {
			name := rtpack.MaterialPrefix + m.Name
			if err := writer.AddNumeric(name, []int{raster.Rows, raster.Cols}, m.Data); err != nil {
				log.Fatal().Err(err).Str("block", name).Msg("Failed to add material block")
			}
		}
	}

	if err := writer.AddJSON(rtpack.BlockScene, built); err != nil {
		log.Fatal().Err(err).Msg("Failed to add scene block")
	}
	if err := writer.AddJSON(rtpack.BlockSummary, summary); err != nil {
		log.Fatal().Err(err).Msg("Failed to add summary block")
	}

	if err := writer.WriteFile(opts.Output); err != nil {
		log.Fatal().Err(err).Msg("Failed to write package")
	}

	log.Info().
		Str("output", opts.Output).
		Int("failed_chunks", len(warnings)).
		Msg("Export finished successfully")
}

func parseBBox(s string) (geo.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geo.BoundingBox{}, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}

	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geo.BoundingBox{}, fmt.Errorf("value %q: %w", p, err)
		}
		vals[i] = v
	}

	bbox := geo.BoundingBox{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}
	return bbox, bbox.Validate()
}
