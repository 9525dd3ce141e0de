package entities

import (
	"math"
	"time"

	"dialograph/domain/core/valueobjects"
	pkgerrors "dialograph/pkg/errors"
)

// Importance weighting. Strength dominates, recency of use and emotional
// charge modulate.
const (
	importanceStrengthWeight = 0.5
	importanceRecencyWeight  = 0.3
	importanceEmotionWeight  = 0.2

	// Recency time constant for the importance score
	recencyHorizon = 24 * time.Hour

	// Edges with noticeable emotional charge survive pruning
	pruneEmotionGuard = 0.25
)

// emotionValence maps emotion kinds to a sign. Unknown kinds count as
// positive.
var emotionValence = map[string]float64{
	"happy":      1,
	"joy":        1,
	"relief":     1,
	"excited":    1,
	"sad":        -1,
	"angry":      -1,
	"fear":       -1,
	"frustrated": -1,
}

// Edge is a directed, typed relation between two nodes. Multiple edges
// may connect the same ordered endpoint pair; they are distinguished by
// identifier and relation.
type Edge struct {
	id              valueobjects.EdgeID
	sourceID        valueobjects.NodeID
	targetID        valueobjects.NodeID
	relation        string
	data            valueobjects.Attributes
	strength        float64
	emotionalCharge float64
	createdAt       time.Time
	updatedAt       time.Time
	lastUsed        time.Time
}

// EdgeOption customizes edge construction
type EdgeOption func(*Edge)

// WithStrength sets the initial relation strength, clamped to [0, 1]
func WithStrength(strength float64) EdgeOption {
	return func(e *Edge) {
		e.strength = clamp01(strength)
	}
}

// NewEdge creates a new edge stamped at the given creation time.
// Endpoint existence is the edge store's concern, not the entity's.
func NewEdge(
	id valueobjects.EdgeID,
	sourceID, targetID valueobjects.NodeID,
	relation string,
	data valueobjects.Attributes,
	now time.Time,
	opts ...EdgeOption,
) (*Edge, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidation("edge id cannot be empty")
	}
	if sourceID.IsZero() || targetID.IsZero() {
		return nil, pkgerrors.NewValidation("edge endpoints cannot be empty")
	}
	if relation == "" {
		return nil, pkgerrors.NewValidation("edge relation cannot be empty")
	}

	edge := &Edge{
		id:        id,
		sourceID:  sourceID,
		targetID:  targetID,
		relation:  relation,
		data:      data.Clone(),
		strength:  1.0,
		createdAt: now,
		updatedAt: now,
		lastUsed:  now,
	}

	for _, opt := range opts {
		opt(edge)
	}

	return edge, nil
}

// ReconstructEdge recreates an edge from exported data with preserved
// timestamps
func ReconstructEdge(
	id valueobjects.EdgeID,
	sourceID, targetID valueobjects.NodeID,
	relation string,
	data valueobjects.Attributes,
	strength, emotionalCharge float64,
	createdAt, updatedAt, lastUsed time.Time,
) (*Edge, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidation("edge id cannot be empty")
	}
	if sourceID.IsZero() || targetID.IsZero() {
		return nil, pkgerrors.NewValidation("edge endpoints cannot be empty")
	}
	if relation == "" {
		return nil, pkgerrors.NewValidation("edge relation cannot be empty")
	}

	return &Edge{
		id:              id,
		sourceID:        sourceID,
		targetID:        targetID,
		relation:        relation,
		data:            data.Clone(),
		strength:        clamp01(strength),
		emotionalCharge: clampSigned(emotionalCharge),
		createdAt:       createdAt,
		updatedAt:       updatedAt,
		lastUsed:        lastUsed,
	}, nil
}

// ID returns the edge's unique identifier
func (e *Edge) ID() valueobjects.EdgeID {
	return e.id
}

// SourceID returns the identifier of the edge's source node
func (e *Edge) SourceID() valueobjects.NodeID {
	return e.sourceID
}

// TargetID returns the identifier of the edge's target node
func (e *Edge) TargetID() valueobjects.NodeID {
	return e.targetID
}

// Relation returns the edge's relation label ("elicits", "contradicts", ...)
func (e *Edge) Relation() string {
	return e.relation
}

// Data returns a deep copy of the edge's attribute payload
func (e *Edge) Data() valueobjects.Attributes {
	return e.data.Clone()
}

// Strength returns the relation strength in [0, 1]
func (e *Edge) Strength() float64 {
	return e.strength
}

// EmotionalCharge returns the accumulated emotional charge in [-1, 1]
func (e *Edge) EmotionalCharge() float64 {
	return e.emotionalCharge
}

// CreatedAt returns when the edge was created
func (e *Edge) CreatedAt() time.Time {
	return e.createdAt
}

// UpdatedAt returns when the edge's payload was last replaced
func (e *Edge) UpdatedAt() time.Time {
	return e.updatedAt
}

// LastUsed returns when the edge was last traversed or reinforced
func (e *Edge) LastUsed() time.Time {
	return e.lastUsed
}

// ReplaceData replaces the attribute payload wholesale and advances the
// update timestamp. The previous payload is returned for the revision
// history.
func (e *Edge) ReplaceData(data valueobjects.Attributes, now time.Time) valueobjects.Attributes {
	previous := e.data
	e.data = data.Clone()
	e.updatedAt = now
	return previous
}

// Touch updates the usage timestamp when the edge is traversed
func (e *Edge) Touch(now time.Time) {
	e.lastUsed = now
}

// Decay weakens the relation exponentially over the elapsed interval.
// ratePerHour is the decay constant; strength never goes negative.
func (e *Edge) Decay(elapsed time.Duration, ratePerHour float64) {
	if elapsed <= 0 || ratePerHour <= 0 {
		return
	}
	e.strength = clamp01(e.strength * math.Exp(-ratePerHour*elapsed.Hours()))
}

// Reinforce strengthens the relation after successful use
func (e *Edge) Reinforce(amount float64, now time.Time) {
	if amount < 0 {
		amount = 0
	}
	e.strength = clamp01(e.strength + amount)
	e.lastUsed = now
}

// RegisterEmotion accumulates emotional charge from an interaction
// outcome. Positive emotions push the charge up, negative ones down;
// the result stays in [-1, 1].
func (e *Edge) RegisterEmotion(kind string, intensity float64) {
	if intensity < 0 {
		intensity = 0
	}
	valence, ok := emotionValence[kind]
	if !ok {
		valence = 1
	}
	e.emotionalCharge = clampSigned(e.emotionalCharge + valence*intensity)
}

// ImportanceScore ranks the edge for retrieval: a composite of strength,
// recency of use, and absolute emotional charge.
func (e *Edge) ImportanceScore(now time.Time) float64 {
	elapsed := now.Sub(e.lastUsed)
	if elapsed < 0 {
		elapsed = 0
	}
	recency := math.Exp(-elapsed.Seconds() / recencyHorizon.Seconds())

	return importanceStrengthWeight*e.strength +
		importanceRecencyWeight*recency +
		importanceEmotionWeight*math.Abs(e.emotionalCharge)
}

// ShouldPrune reports whether the edge has decayed below the threshold
// and carries no protective emotional charge
func (e *Edge) ShouldPrune(threshold float64) bool {
	return e.strength < threshold && math.Abs(e.emotionalCharge) < pruneEmotionGuard
}

// Clone returns an independent deep copy of the edge
func (e *Edge) Clone() *Edge {
	clone := *e
	clone.data = e.data.Clone()
	return &clone
}

func clampSigned(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
