package aggregates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dialograph/domain/config"
	"dialograph/domain/core/valueobjects"
)

func TestAsOfBeforeFirstInsertion(t *testing.T) {
	g, clock := newTestGraph()
	before := clock.current
	addNode(t, g, "a", "turn")

	snap := g.AsOf(before)
	assert.Equal(t, 0, snap.NodeCount())
	assert.Equal(t, 0, snap.EdgeCount())
}

func TestAsOfReflectsMembershipAtInstant(t *testing.T) {
	g, _ := newTestGraph()
	first := addNode(t, g, "a", "turn")
	addNode(t, g, "b", "turn")
	edge := addEdge(t, g, "e1", "a", "b", "elicits")
	third := addNode(t, g, "c", "turn")

	// At the instant of the second node, the edge and third node are
	// still in the future
	snap := g.AsOf(edge.CreatedAt().Add(-time.Millisecond))
	assert.Equal(t, 2, snap.NodeCount())
	assert.Equal(t, 0, snap.EdgeCount())

	// Exactly at an insertion instant the entity is included
	snap = g.AsOf(first.CreatedAt())
	require.Equal(t, 1, snap.NodeCount())
	assert.Equal(t, "a", snap.Nodes[0].ID)

	// At the latest instant everything is visible
	snap = g.AsOf(third.CreatedAt())
	assert.Equal(t, 3, snap.NodeCount())
	assert.Equal(t, 1, snap.EdgeCount())
}

func TestAsOfIncludesSinceDeletedEntities(t *testing.T) {
	g, _ := newTestGraph()
	addNode(t, g, "a", "turn")
	addNode(t, g, "b", "turn")
	edge := addEdge(t, g, "e1", "a", "b", "elicits")
	existedAtInstant := edge.CreatedAt()

	require.NoError(t, g.RemoveNode(nodeID(t, "a"), true))
	assert.Equal(t, 1, g.NodeCount())

	// The past is immutable: the deleted node and edge still show at
	// the earlier instant
	snap := g.AsOf(existedAtInstant)
	assert.Equal(t, 2, snap.NodeCount())
	require.Equal(t, 1, snap.EdgeCount())
	assert.Equal(t, "e1", snap.Edges[0].ID)
}

func TestAsOfResolvesPayloadRevisions(t *testing.T) {
	g, _ := newTestGraph()
	node := addNode(t, g, "a", "belief")
	created := node.CreatedAt()

	updated, err := g.UpdateNode(nodeID(t, "a"), valueobjects.Attributes{
		"value": valueobjects.String("second"),
	})
	require.NoError(t, err)
	firstUpdateAt := updated.UpdatedAt()
	_, err = g.UpdateNode(nodeID(t, "a"), valueobjects.Attributes{
		"value": valueobjects.String("third"),
	})
	require.NoError(t, err)

	// Before the first update: the original payload
	snap := g.AsOf(created)
	require.Equal(t, 1, snap.NodeCount())
	value, _ := snap.Nodes[0].Data["value"].AsString()
	assert.Equal(t, "payload of a", value)

	// Between the two updates: the intermediate payload
	snap = g.AsOf(firstUpdateAt)
	value, _ = snap.Nodes[0].Data["value"].AsString()
	assert.Equal(t, "second", value)

	// Now: the current payload
	snap = g.AsOf(g.now())
	value, _ = snap.Nodes[0].Data["value"].AsString()
	assert.Equal(t, "third", value)
}

func TestAsOfHistoryLimitZeroKeepsNoRevisions(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.HistoryLimit = 0
	clock := newTestClock()
	g := NewGraph(WithDomainConfig(cfg), WithClock(clock.Now))

	node, err := g.AddNode(nodeID(t, "a"), "belief", valueobjects.Attributes{
		"value": valueobjects.String("first"),
	})
	require.NoError(t, err)
	created := node.CreatedAt()

	_, err = g.UpdateNode(nodeID(t, "a"), valueobjects.Attributes{
		"value": valueobjects.String("second"),
	})
	require.NoError(t, err)

	// Without retained revisions the query degrades to the current
	// payload
	snap := g.AsOf(created)
	require.Equal(t, 1, snap.NodeCount())
	value, _ := snap.Nodes[0].Data["value"].AsString()
	assert.Equal(t, "second", value)
}

func TestChangedWithin(t *testing.T) {
	g, clock := newTestGraph()
	start := clock.current

	addNode(t, g, "a", "turn")
	addNode(t, g, "b", "turn")
	edge := addEdge(t, g, "e1", "a", "b", "elicits")
	_, err := g.UpdateNode(nodeID(t, "a"), valueobjects.Attributes{
		"value": valueobjects.String("revised"),
	})
	require.NoError(t, err)
	require.NoError(t, g.RemoveEdge(edgeID(t, "e1")))
	end := clock.current

	changes := g.ChangedWithin(start, end)
	require.Len(t, changes, 5)

	type entry struct {
		entity EntityKind
		id     string
		kind   ChangeKind
	}
	var got []entry
	for _, c := range changes {
		got = append(got, entry{entity: c.Entity, id: c.ID, kind: c.Kind})
	}
	assert.Equal(t, []entry{
		{entity: EntityNode, id: "a", kind: ChangeCreated},
		{entity: EntityNode, id: "b", kind: ChangeCreated},
		{entity: EntityEdge, id: "e1", kind: ChangeCreated},
		{entity: EntityNode, id: "a", kind: ChangeUpdated},
		{entity: EntityEdge, id: "e1", kind: ChangeDeleted},
	}, got)

	// Timestamps are non-decreasing
	for i := 1; i < len(changes); i++ {
		assert.False(t, changes[i].At.Before(changes[i-1].At))
	}

	// A window past the last change is empty
	assert.Empty(t, g.ChangedWithin(end.Add(time.Minute), end.Add(time.Hour)))

	// The window is inclusive on both ends
	narrow := g.ChangedWithin(edge.CreatedAt(), edge.CreatedAt())
	require.Len(t, narrow, 1)
	assert.Equal(t, "e1", narrow[0].ID)
	assert.Equal(t, ChangeCreated, narrow[0].Kind)
}

func TestChangedWithinInvertedWindow(t *testing.T) {
	g, clock := newTestGraph()
	addNode(t, g, "a", "turn")
	now := clock.current

	assert.Empty(t, g.ChangedWithin(now, now.Add(-time.Hour)))
}
