package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mkungen89/rterrain/internal/config"
	"github.com/mkungen89/rterrain/internal/geo"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// Client fetches map features from an Overpass-compatible endpoint.
// Chunk requests run sequentially with a mandatory delay between them;
// independent Fetch calls may run concurrently.
type Client struct {
	http *http.Client
	cfg  config.Fetch
}

// NewClient creates a fetcher with the given HTTP client and settings.
func NewClient(httpClient *http.Client, cfg config.Fetch) *Client {
	return &Client{http: httpClient, cfg: cfg}
}

// Fetch acquires all enabled feature categories for the box, splitting into
// a chunk grid when the node estimate exceeds the server cap. Chunks that
// exhaust their retries become warnings; an error is returned only when the
// input is invalid or every chunk failed.
func (c *Client) Fetch(ctx context.Context, bbox geo.BoundingBox, filters Filters) (*FeatureCollection, []ChunkWarning, error) {
	if err := bbox.Validate(); err != nil {
		return nil, nil, &ValidationError{Reason: err.Error()}
	}
	if !filters.Enabled() {
		return nil, nil, &ValidationError{Reason: "no feature categories enabled"}
	}

	estimate := EstimateNodeCount(bbox, filters, c.cfg.Densities, c.cfg.SafetyScale)
	chunks := CreateChunks(bbox, estimate, c.cfg.NodeLimit)

	log.Info().
		Float64("area_km2", bbox.AreaKm2()).
		Int("estimated_nodes", estimate).
		Int("chunks", len(chunks)).
		Msg("Fetching map features")

	merged := &FeatureCollection{}
	var warnings []ChunkWarning
	succeeded := 0

	for i, chunk := range chunks {
		if i > 0 {
			// Fair-use delay between successive chunk requests.
			select {
			case <-time.After(c.cfg.RateDelay.Std()):
			case <-ctx.Done():
				return nil, warnings, ctx.Err()
			}
		}

		part, err := c.fetchChunk(ctx, chunk, filters)
		if err != nil {
			if ctx.Err() != nil {
				return nil, warnings, ctx.Err()
			}
			log.Warn().Err(err).Int("chunk", i+1).Int("total", len(chunks)).Msg("Chunk failed, continuing")
			warnings = append(warnings, ChunkWarning{Err: err, Chunk: i + 1, Total: len(chunks)})
			continue
		}

		log.Debug().
			Int("chunk", i+1).
			Int("nodes", len(part.Nodes)).
			Int("ways", len(part.Ways)).
			Int("relations", len(part.Relations)).
			Msg("Chunk fetched")

		merged.Merge(part)
		succeeded++
	}

	if succeeded == 0 {
		return nil, warnings, &QueryError{Warnings: warnings, Chunks: len(chunks)}
	}

	markPossiblySplit(merged, bbox, chunks)

	log.Info().
		Int("nodes", len(merged.Nodes)).
		Int("ways", len(merged.Ways)).
		Int("relations", len(merged.Relations)).
		Int("failed_chunks", len(warnings)).
		Msg("Map features fetched")

	return merged, warnings, nil
}

// fetchChunk queries one sub-box with exponential-backoff retries.
func (c *Client) fetchChunk(ctx context.Context, bbox geo.BoundingBox, filters Filters) (*FeatureCollection, error) {
	query := BuildQuery(bbox, filters, c.cfg.Timeout.Std())

	var result *FeatureCollection
	op := func() error {
		fc, err := c.post(ctx, query)
		if err != nil {
			return err
		}
		result = fc
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.RetryDelay.Std()
	bo.Multiplier = 2
	bo.RandomizationFactor = 0

	attempts := c.cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx))
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, query string) (*FeatureCollection, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("query service status %d", resp.StatusCode)
	}

	var raw overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return raw.collection(), nil
}

// Internal structures for JSON parsing
type overpassElement struct {
	Tags     Tags     `json:"tags"`
	Type     string   `json:"type"`
	NodeIDs  []int64  `json:"nodes"`
	Geometry []LatLon `json:"geometry"`
	Members  []Member `json:"members"`
	ID       int64    `json:"id"`
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

func (r *overpassResponse) collection() *FeatureCollection {
	fc := &FeatureCollection{}
	for _, el := range r.Elements {
		switch el.Type {
		case "node":
			fc.Nodes = append(fc.Nodes, Node{ID: el.ID, Lat: el.Lat, Lon: el.Lon, Tags: el.Tags})
		case "way":
			fc.Ways = append(fc.Ways, Way{ID: el.ID, NodeIDs: el.NodeIDs, Geometry: el.Geometry, Tags: el.Tags})
		case "relation":
			fc.Relations = append(fc.Relations, Relation{ID: el.ID, Members: el.Members, Tags: el.Tags})
		}
	}
	return fc
}
