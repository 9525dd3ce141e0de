package entities

import (
	"math"
	"time"

	"dialograph/domain/core/valueobjects"
	pkgerrors "dialograph/pkg/errors"
)

// Memory strength bounds. Strength is the S in the Ebbinghaus retention
// curve retention(t) = exp(-t/S); the cap keeps heavily reinforced
// memories from becoming immortal.
const (
	MinMemoryStrength = time.Second
	MaxMemoryStrength = 7 * 24 * time.Hour

	// Confidence recovery applied on each reinforcement
	confidenceRecovery = 0.05
)

// Node is the main entity representing a unit of relational knowledge:
// a dialogue turn, a belief, or a memory.
//
// Conceptual separation:
//   - confidence: epistemic reliability, does NOT decay with time
//   - availability: memory accessibility (Ebbinghaus forgetting curve)
//   - memory strength: controls forgetting speed, grows with reinforcement
type Node struct {
	// Private fields ensure encapsulation
	id             valueobjects.NodeID
	nodeType       string
	data           valueobjects.Attributes
	confidence     float64
	memoryStrength time.Duration
	maxStrength    time.Duration
	persistent     bool
	createdAt      time.Time
	updatedAt      time.Time
	lastAccessed   time.Time
}

// NodeOption customizes node construction
type NodeOption func(*Node)

// WithConfidence sets the initial epistemic confidence, clamped to [0, 1]
func WithConfidence(confidence float64) NodeOption {
	return func(n *Node) {
		n.confidence = clamp01(confidence)
	}
}

// WithPersistent marks the node as exempt from forgetting
func WithPersistent() NodeOption {
	return func(n *Node) {
		n.persistent = true
	}
}

// WithMemoryStrength sets the initial forgetting time constant
func WithMemoryStrength(strength time.Duration) NodeOption {
	return func(n *Node) {
		if strength < MinMemoryStrength {
			strength = MinMemoryStrength
		}
		n.memoryStrength = strength
	}
}

// WithMemoryStrengthCap bounds how far reinforcement can grow the
// forgetting time constant
func WithMemoryStrengthCap(limit time.Duration) NodeOption {
	return func(n *Node) {
		if limit >= MinMemoryStrength {
			n.maxStrength = limit
		}
	}
}

// NewNode creates a new node stamped at the given creation time.
// The attribute payload is deep-copied; the node owns its data exclusively.
func NewNode(id valueobjects.NodeID, nodeType string, data valueobjects.Attributes, now time.Time, opts ...NodeOption) (*Node, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidation("node id cannot be empty")
	}
	if nodeType == "" {
		return nil, pkgerrors.NewValidation("node type cannot be empty")
	}

	node := &Node{
		id:             id,
		nodeType:       nodeType,
		data:           data.Clone(),
		confidence:     1.0,
		memoryStrength: time.Hour,
		maxStrength:    MaxMemoryStrength,
		createdAt:      now,
		updatedAt:      now,
		lastAccessed:   now,
	}

	for _, opt := range opts {
		opt(node)
	}

	return node, nil
}

// ReconstructNode recreates a node from exported data with preserved
// timestamps. Unlike NewNode it performs no stamping.
func ReconstructNode(
	id valueobjects.NodeID,
	nodeType string,
	data valueobjects.Attributes,
	confidence float64,
	memoryStrength time.Duration,
	persistent bool,
	createdAt, updatedAt, lastAccessed time.Time,
) (*Node, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidation("node id cannot be empty")
	}
	if nodeType == "" {
		return nil, pkgerrors.NewValidation("node type cannot be empty")
	}
	if memoryStrength < MinMemoryStrength {
		memoryStrength = MinMemoryStrength
	}

	return &Node{
		id:             id,
		nodeType:       nodeType,
		data:           data.Clone(),
		confidence:     clamp01(confidence),
		memoryStrength: memoryStrength,
		maxStrength:    MaxMemoryStrength,
		persistent:     persistent,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
		lastAccessed:   lastAccessed,
	}, nil
}

// ID returns the node's unique identifier
func (n *Node) ID() valueobjects.NodeID {
	return n.id
}

// Type returns the node's semantic label ("intent", "belief", ...)
func (n *Node) Type() string {
	return n.nodeType
}

// Data returns a deep copy of the node's attribute payload
func (n *Node) Data() valueobjects.Attributes {
	return n.data.Clone()
}

// Confidence returns the epistemic reliability in [0, 1]
func (n *Node) Confidence() float64 {
	return n.confidence
}

// MemoryStrength returns the forgetting time constant
func (n *Node) MemoryStrength() time.Duration {
	return n.memoryStrength
}

// Persistent reports whether the node is exempt from forgetting
func (n *Node) Persistent() bool {
	return n.persistent
}

// CreatedAt returns when the node was created
func (n *Node) CreatedAt() time.Time {
	return n.createdAt
}

// UpdatedAt returns when the node's payload was last replaced
func (n *Node) UpdatedAt() time.Time {
	return n.updatedAt
}

// LastAccessed returns when the node was last retrieved or reinforced
func (n *Node) LastAccessed() time.Time {
	return n.lastAccessed
}

// ReplaceData replaces the attribute payload wholesale and advances the
// update timestamp. The previous payload is returned so the caller can
// record it in the revision history.
func (n *Node) ReplaceData(data valueobjects.Attributes, now time.Time) valueobjects.Attributes {
	previous := n.data
	n.data = data.Clone()
	n.updatedAt = now
	return previous
}

// Availability computes memory accessibility at the given instant using
// the Ebbinghaus forgetting curve: retention(t) = exp(-t/S) with t the
// time since last access and S the memory strength. Persistent nodes are
// always fully available.
func (n *Node) Availability(now time.Time) float64 {
	if n.persistent {
		return 1.0
	}

	elapsed := now.Sub(n.lastAccessed)
	if elapsed < 0 {
		elapsed = 0
	}

	strength := n.memoryStrength
	if strength < MinMemoryStrength {
		strength = MinMemoryStrength
	}

	return math.Exp(-elapsed.Seconds() / strength.Seconds())
}

// MarkAccessed resets the forgetting timer without reinforcing
func (n *Node) MarkAccessed(now time.Time) {
	n.lastAccessed = now
}

// Reinforce applies spaced repetition: the forgetting timer resets,
// memory strength grows sublinearly so future forgetting is slower, and
// confidence recovers slightly.
func (n *Node) Reinforce(amount float64, now time.Time) {
	n.lastAccessed = now

	if amount < 0 {
		amount = 0
	}
	limit := n.maxStrength
	if limit < MinMemoryStrength {
		limit = MaxMemoryStrength
	}
	grown := time.Duration(float64(n.memoryStrength) * (1.0 + amount))
	if grown > limit {
		grown = limit
	}
	n.memoryStrength = grown

	n.confidence = clamp01(n.confidence + confidenceRecovery)
}

// RetrievalScore combines belief reliability with memory availability
func (n *Node) RetrievalScore(now time.Time) float64 {
	return n.confidence * n.Availability(now)
}

// Clone returns an independent deep copy of the node
func (n *Node) Clone() *Node {
	clone := *n
	clone.data = n.data.Clone()
	return &clone
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
