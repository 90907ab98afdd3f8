// Package cache stores woven hierarchies and rendered artifacts between runs.
//
// # Backends
//
//   - [FileCache]: entries as JSON files under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance
//   - [NullCache]: never stores anything (--no-cache)
//
// # Keys
//
// Keys are derived by a [Keyer] from a content hash of the inputs plus every
// option that changes the result, so a changed cutoff or partition file
// never hits a stale entry:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.HierarchyKey(cache.Hash(input), cache.HierarchyKeyOpts{Cutoff: 0.8})
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the entry for key and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// HierarchyKey names a woven hierarchy document.
	HierarchyKey(inputHash string, opts HierarchyKeyOpts) string

	// ArtifactKey names a rendered artifact of a hierarchy document.
	ArtifactKey(documentHash string, opts ArtifactKeyOpts) string
}

// HierarchyKeyOpts holds everything besides the partition file that
// changes a woven hierarchy.
type HierarchyKeyOpts struct {
	Format                  string    `json:"format"`
	TerminalsHash           string    `json:"terminals_hash,omitempty"`
	AssumeLevels            bool      `json:"assume_levels,omitempty"`
	LevelKeys               []float64 `json:"level_keys,omitempty"`
	Cutoff                  float64   `json:"cutoff"`
	PercentageEdges         float64   `json:"percentage_edges"`
	PercentageTerminalEdges float64   `json:"percentage_terminal_edges"`
	StrictSingleBranch      bool      `json:"strict_single_branch,omitempty"`
	Additional              []string  `json:"additional,omitempty"`
	Replace                 bool      `json:"replace,omitempty"`
}

// ArtifactKeyOpts holds the rendering options of an artifact.
type ArtifactKeyOpts struct {
	Format        string  `json:"format"`
	Scale         float64 `json:"scale,omitempty"`
	Detailed      bool    `json:"detailed,omitempty"`
	Weights       bool    `json:"weights,omitempty"`
	RankByDepth   bool    `json:"rank_by_depth,omitempty"`
	HideTerminals bool    `json:"hide_terminals,omitempty"`
}

// DefaultKeyer hashes the inputs and options into "<kind>:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HierarchyKey implements Keyer.
func (DefaultKeyer) HierarchyKey(inputHash string, opts HierarchyKeyOpts) string {
	return hashKey("hierarchy", inputHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(documentHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", documentHash, opts)
}
