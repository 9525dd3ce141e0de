package config

import "time"

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Graph constraints
	MaxNodesPerGraph int
	MaxEdgesPerGraph int

	// Temporal index settings.
	// HistoryLimit bounds how many prior attribute payloads are retained
	// per entity: 0 keeps none, N > 0 keeps the N most recent versions,
	// -1 keeps everything.
	HistoryLimit int

	// Traversal settings
	DefaultMaxDepth int

	// Memory dynamics
	BaselineMemoryStrength time.Duration
	MaxMemoryStrength      time.Duration
	DefaultEdgeStrength    float64
	EdgeDecayRatePerHour   float64
	PruneThreshold         float64
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxNodesPerGraph: 10000,
		MaxEdgesPerGraph: 50000,

		HistoryLimit: 16,

		// 0 means unbounded search
		DefaultMaxDepth: 0,

		BaselineMemoryStrength: time.Hour,
		MaxMemoryStrength:      7 * 24 * time.Hour,
		DefaultEdgeStrength:    1.0,
		EdgeDecayRatePerHour:   0.35,
		PruneThreshold:         0.1,
	}
}
