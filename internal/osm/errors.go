package osm

import "fmt"

// ValidationError reports malformed input rejected before any network I/O.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid fetch request: " + e.Reason
}

// ChunkWarning records one chunk that exhausted its retry budget.
// The fetch continues with the remaining chunks.
type ChunkWarning struct {
	Err   error
	Chunk int
	Total int
}

func (w ChunkWarning) String() string {
	return fmt.Sprintf("chunk %d/%d failed: %v", w.Chunk, w.Total, w.Err)
}

// QueryError is returned only when every chunk of a fetch failed.
type QueryError struct {
	Warnings []ChunkWarning
	Chunks   int
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("all %d chunks failed, no map data fetched", e.Chunks)
}
