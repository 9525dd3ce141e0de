package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dialograph/domain/core/valueobjects"
)

func mustEdge(t *testing.T, id string, opts ...EdgeOption) *Edge {
	t.Helper()
	edgeID, err := valueobjects.NewEdgeIDFromString(id)
	require.NoError(t, err)

	edge, err := NewEdge(edgeID,
		mustNodeID(t, "stress"), mustNodeID(t, "meditation"),
		"elicits", nil, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), opts...)
	require.NoError(t, err)
	return edge
}

func TestNewEdge(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	edgeID, err := valueobjects.NewEdgeIDFromString("e1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		source   string
		target   string
		relation string
		wantErr  bool
	}{
		{name: "valid edge", source: "stress", target: "meditation", relation: "elicits"},
		{name: "empty relation", source: "stress", target: "meditation", relation: "", wantErr: true},
		{name: "self loop allowed", source: "stress", target: "stress", relation: "reinforces"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edge, err := NewEdge(edgeID,
				mustNodeID(t, tt.source), mustNodeID(t, tt.target),
				tt.relation, nil, now)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "e1", edge.ID().String())
			assert.Equal(t, tt.source, edge.SourceID().String())
			assert.Equal(t, tt.target, edge.TargetID().String())
			assert.Equal(t, tt.relation, edge.Relation())
			assert.Equal(t, 1.0, edge.Strength())
			assert.Equal(t, now, edge.CreatedAt())
		})
	}
}

func TestNewEdgeEmptyEndpoints(t *testing.T) {
	edgeID, err := valueobjects.NewEdgeIDFromString("e1")
	require.NoError(t, err)

	_, err = NewEdge(edgeID, valueobjects.NodeID{}, mustNodeID(t, "b"), "elicits", nil, time.Now())
	assert.Error(t, err)
}

func TestEdgeWithStrength(t *testing.T) {
	edge := mustEdge(t, "e1", WithStrength(0.7))
	assert.Equal(t, 0.7, edge.Strength())

	clamped := mustEdge(t, "e2", WithStrength(1.8))
	assert.Equal(t, 1.0, clamped.Strength())
}

func TestEdgeTouch(t *testing.T) {
	edge := mustEdge(t, "e1")
	at := edge.CreatedAt().Add(time.Hour)

	edge.Touch(at)
	assert.Equal(t, at, edge.LastUsed())
}

func TestEdgeDecay(t *testing.T) {
	edge := mustEdge(t, "e1", WithStrength(0.7))

	edge.Decay(2*time.Hour, 0.35)
	assert.InDelta(t, 0.3476, edge.Strength(), 1e-3)

	// Zero elapsed or zero rate is a no-op
	before := edge.Strength()
	edge.Decay(0, 0.35)
	edge.Decay(time.Hour, 0)
	assert.Equal(t, before, edge.Strength())
}

func TestEdgeReinforce(t *testing.T) {
	edge := mustEdge(t, "e1", WithStrength(0.7))
	at := edge.CreatedAt().Add(time.Minute)

	edge.Reinforce(0.2, at)
	assert.InDelta(t, 0.9, edge.Strength(), 1e-9)
	assert.Equal(t, at, edge.LastUsed())

	// Strength is capped at 1
	edge.Reinforce(0.5, at)
	assert.Equal(t, 1.0, edge.Strength())
}

func TestEdgeRegisterEmotion(t *testing.T) {
	edge := mustEdge(t, "e1")

	edge.RegisterEmotion("happy", 0.6)
	assert.InDelta(t, 0.6, edge.EmotionalCharge(), 1e-9)

	edge.RegisterEmotion("angry", 0.8)
	assert.InDelta(t, -0.2, edge.EmotionalCharge(), 1e-9)

	// Charge saturates at the bounds
	edge.RegisterEmotion("fear", 5.0)
	assert.Equal(t, -1.0, edge.EmotionalCharge())

	// Unknown kinds count as positive
	edge.RegisterEmotion("nostalgic", 0.5)
	assert.InDelta(t, -0.5, edge.EmotionalCharge(), 1e-9)
}

func TestEdgeImportanceScore(t *testing.T) {
	edge := mustEdge(t, "e1", WithStrength(0.8))
	now := edge.CreatedAt()

	// Freshly used edge: full recency
	fresh := edge.ImportanceScore(now)
	assert.InDelta(t, 0.5*0.8+0.3, fresh, 1e-9)

	// Importance drops as the edge goes unused
	stale := edge.ImportanceScore(now.Add(48 * time.Hour))
	assert.Less(t, stale, fresh)

	// Emotional charge raises importance
	edge.RegisterEmotion("happy", 1.0)
	charged := edge.ImportanceScore(now)
	assert.InDelta(t, fresh+0.2, charged, 1e-9)
}

func TestEdgeShouldPrune(t *testing.T) {
	weak := mustEdge(t, "e1", WithStrength(0.05))
	assert.True(t, weak.ShouldPrune(0.1))

	strong := mustEdge(t, "e2", WithStrength(0.9))
	assert.False(t, strong.ShouldPrune(0.1))

	// Emotionally charged edges survive even when weak
	charged := mustEdge(t, "e3", WithStrength(0.05))
	charged.RegisterEmotion("happy", 0.9)
	assert.False(t, charged.ShouldPrune(0.1))
}

func TestEdgeReplaceData(t *testing.T) {
	edge := mustEdge(t, "e1")
	at := edge.CreatedAt().Add(time.Minute)

	previous := edge.ReplaceData(valueobjects.Attributes{
		"note": valueobjects.String("observed in session 3"),
	}, at)

	assert.Empty(t, previous)
	assert.Equal(t, at, edge.UpdatedAt())

	note, ok := edge.Data()["note"].AsString()
	assert.True(t, ok)
	assert.Equal(t, "observed in session 3", note)
}

func TestReconstructEdge(t *testing.T) {
	created := time.Date(2024, 11, 2, 9, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	used := created.Add(90 * time.Minute)

	edgeID, err := valueobjects.NewEdgeIDFromString("e7")
	require.NoError(t, err)

	edge, err := ReconstructEdge(edgeID,
		mustNodeID(t, "a"), mustNodeID(t, "b"), "supports",
		valueobjects.Attributes{"w": valueobjects.Number(2)},
		0.4, -0.3,
		created, updated, used)
	require.NoError(t, err)

	assert.Equal(t, 0.4, edge.Strength())
	assert.Equal(t, -0.3, edge.EmotionalCharge())
	assert.Equal(t, created, edge.CreatedAt())
	assert.Equal(t, updated, edge.UpdatedAt())
	assert.Equal(t, used, edge.LastUsed())
}
