package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dialograph/domain/core/aggregates"
	"dialograph/domain/core/entities"
	"dialograph/domain/core/valueobjects"
	pkgerrors "dialograph/pkg/errors"
)

var anchor = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return anchor }

func mustNodeID(t *testing.T, s string) valueobjects.NodeID {
	t.Helper()
	id, err := valueobjects.NewNodeIDFromString(s)
	require.NoError(t, err)
	return id
}

func mustEdgeID(t *testing.T, s string) valueobjects.EdgeID {
	t.Helper()
	id, err := valueobjects.NewEdgeIDFromString(s)
	require.NoError(t, err)
	return id
}

func TestRecallNeighborsRanking(t *testing.T) {
	g := aggregates.NewGraph(aggregates.WithClock(fixedClock))

	_, err := g.AddNode(mustNodeID(t, "stress"), "problem", nil)
	require.NoError(t, err)
	_, err = g.AddNode(mustNodeID(t, "meditation"), "strategy", nil)
	require.NoError(t, err)
	_, err = g.AddNode(mustNodeID(t, "faded"), "memory", nil, entities.WithConfidence(0.2))
	require.NoError(t, err)

	_, err = g.AddEdge(mustEdgeID(t, "strong"), mustNodeID(t, "stress"), mustNodeID(t, "meditation"),
		"elicits", nil, entities.WithStrength(0.9))
	require.NoError(t, err)
	_, err = g.AddEdge(mustEdgeID(t, "weak"), mustNodeID(t, "stress"), mustNodeID(t, "faded"),
		"elicits", nil, entities.WithStrength(0.2))
	require.NoError(t, err)

	svc := NewRetrievalService(WithRetrievalClock(fixedClock))

	got, err := svc.RecallNeighbors(g, mustNodeID(t, "stress"), aggregates.DirectionOutgoing, "", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "meditation", got[0].Node.ID().String())
	assert.Equal(t, "faded", got[1].Node.ID().String())
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestRecallNeighborsLimitAndFilter(t *testing.T) {
	g := aggregates.NewGraph(aggregates.WithClock(fixedClock))
	for _, id := range []string{"focus", "n1", "n2", "n3"} {
		_, err := g.AddNode(mustNodeID(t, id), "turn", nil)
		require.NoError(t, err)
	}
	_, err := g.AddEdge(mustEdgeID(t, "e1"), mustNodeID(t, "focus"), mustNodeID(t, "n1"), "elicits", nil)
	require.NoError(t, err)
	_, err = g.AddEdge(mustEdgeID(t, "e2"), mustNodeID(t, "focus"), mustNodeID(t, "n2"), "supports", nil)
	require.NoError(t, err)
	_, err = g.AddEdge(mustEdgeID(t, "e3"), mustNodeID(t, "n3"), mustNodeID(t, "focus"), "elicits", nil)
	require.NoError(t, err)

	svc := NewRetrievalService(WithRetrievalClock(fixedClock))

	got, err := svc.RecallNeighbors(g, mustNodeID(t, "focus"), aggregates.DirectionBoth, "", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	filtered, err := svc.RecallNeighbors(g, mustNodeID(t, "focus"), aggregates.DirectionBoth, "supports", 0)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "n2", filtered[0].Node.ID().String())

	incoming, err := svc.RecallNeighbors(g, mustNodeID(t, "focus"), aggregates.DirectionIncoming, "", 0)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, "n3", incoming[0].Node.ID().String())
}

func TestRecallNeighborsParallelEdges(t *testing.T) {
	g := aggregates.NewGraph(aggregates.WithClock(fixedClock))
	_, err := g.AddNode(mustNodeID(t, "a"), "turn", nil)
	require.NoError(t, err)
	_, err = g.AddNode(mustNodeID(t, "b"), "turn", nil)
	require.NoError(t, err)
	_, err = g.AddEdge(mustEdgeID(t, "e1"), mustNodeID(t, "a"), mustNodeID(t, "b"), "elicits", nil)
	require.NoError(t, err)
	_, err = g.AddEdge(mustEdgeID(t, "e2"), mustNodeID(t, "a"), mustNodeID(t, "b"), "supports", nil)
	require.NoError(t, err)

	svc := NewRetrievalService(WithRetrievalClock(fixedClock))

	got, err := svc.RecallNeighbors(g, mustNodeID(t, "a"), aggregates.DirectionOutgoing, "", 0)
	require.NoError(t, err)
	// Each parallel edge is an independent candidate; equal scores
	// fall back to edge-id order
	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].Edge.ID().String())
	assert.Equal(t, "e2", got[1].Edge.ID().String())
}

func TestRecallNeighborsSelfLoopScoredOnce(t *testing.T) {
	g := aggregates.NewGraph(aggregates.WithClock(fixedClock))
	_, err := g.AddNode(mustNodeID(t, "a"), "turn", nil)
	require.NoError(t, err)
	_, err = g.AddEdge(mustEdgeID(t, "loop"), mustNodeID(t, "a"), mustNodeID(t, "a"), "reinforces", nil)
	require.NoError(t, err)

	svc := NewRetrievalService(WithRetrievalClock(fixedClock))

	got, err := svc.RecallNeighbors(g, mustNodeID(t, "a"), aggregates.DirectionBoth, "", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRecallNeighborsUnknownFocus(t *testing.T) {
	g := aggregates.NewGraph(aggregates.WithClock(fixedClock))
	svc := NewRetrievalService(WithRetrievalClock(fixedClock))

	_, err := svc.RecallNeighbors(g, mustNodeID(t, "ghost"), aggregates.DirectionOutgoing, "", 0)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestRecallTop(t *testing.T) {
	g := aggregates.NewGraph(aggregates.WithClock(fixedClock))
	_, err := g.AddNode(mustNodeID(t, "sure"), "belief", nil, entities.WithConfidence(1.0))
	require.NoError(t, err)
	_, err = g.AddNode(mustNodeID(t, "shaky"), "belief", nil, entities.WithConfidence(0.3))
	require.NoError(t, err)
	_, err = g.AddNode(mustNodeID(t, "middling"), "belief", nil, entities.WithConfidence(0.6))
	require.NoError(t, err)

	svc := NewRetrievalService(WithRetrievalClock(fixedClock))

	got := svc.RecallTop(g, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "sure", got[0].Node.ID().String())
	assert.Equal(t, "middling", got[1].Node.ID().String())

	all := svc.RecallTop(g, 0)
	assert.Len(t, all, 3)
}

func TestMarkRecalled(t *testing.T) {
	g := aggregates.NewGraph(aggregates.WithClock(fixedClock))
	_, err := g.AddNode(mustNodeID(t, "a"), "memory", nil, entities.WithConfidence(0.5))
	require.NoError(t, err)
	_, err = g.AddNode(mustNodeID(t, "b"), "memory", nil)
	require.NoError(t, err)
	_, err = g.AddEdge(mustEdgeID(t, "e1"), mustNodeID(t, "a"), mustNodeID(t, "b"), "elicits", nil,
		entities.WithStrength(0.4))
	require.NoError(t, err)

	svc := NewRetrievalService(WithRetrievalClock(fixedClock))
	got, err := svc.RecallNeighbors(g, mustNodeID(t, "a"), aggregates.DirectionOutgoing, "", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)

	require.NoError(t, svc.MarkRecalled(g, got[0], 0.2))

	edge, err := g.GetEdge(mustEdgeID(t, "e1"))
	require.NoError(t, err)
	assert.InDelta(t, 0.6, edge.Strength(), 1e-9)

	node, err := g.GetNode(mustNodeID(t, "b"))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, node.Confidence(), 1e-9)
}
