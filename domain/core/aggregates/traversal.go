package aggregates

import (
	"dialograph/domain/core/valueobjects"
	pkgerrors "dialograph/pkg/errors"
)

// Direction selects which incident edges a neighbor query follows
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionBoth     Direction = "both"
)

// Neighbors returns the identifiers of nodes adjacent to the given node
// via edges matching the optional relation filter (empty string matches
// every relation). The result carries one entry per matching edge, so a
// neighbor connected by two parallel edges appears twice; callers
// wanting distinct neighbors de-duplicate themselves. The sequence is
// recomputed on every call, outgoing edges first for DirectionBoth,
// each side in insertion order.
func (g *Graph) Neighbors(id valueobjects.NodeID, direction Direction, relation string) ([]valueobjects.NodeID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, exists := g.nodes[id]; !exists {
		return nil, pkgerrors.NewNotFound("node", id.String())
	}

	var neighbors []valueobjects.NodeID

	if direction == DirectionOutgoing || direction == DirectionBoth {
		for _, edgeID := range g.adjacency.outgoingOf(id) {
			edge := g.mustEdge(edgeID)
			if relation == "" || edge.Relation() == relation {
				neighbors = append(neighbors, edge.TargetID())
			}
		}
	}

	if direction == DirectionIncoming || direction == DirectionBoth {
		for _, edgeID := range g.adjacency.incomingOf(id) {
			edge := g.mustEdge(edgeID)
			if relation == "" || edge.Relation() == relation {
				neighbors = append(neighbors, edge.SourceID())
			}
		}
	}

	return neighbors, nil
}

// PathExists reports whether the target is reachable from the source by
// following edge direction, within maxDepth hops. A non-positive
// maxDepth falls back to the configured default depth; a zero default
// means unbounded.
func (g *Graph) PathExists(sourceID, targetID valueobjects.NodeID, maxDepth int) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, exists := g.nodes[sourceID]; !exists {
		return false, pkgerrors.NewNotFound("node", sourceID.String())
	}
	if _, exists := g.nodes[targetID]; !exists {
		return false, pkgerrors.NewNotFound("node", targetID.String())
	}

	if maxDepth <= 0 {
		maxDepth = g.cfg.DefaultMaxDepth
	}

	_, found := g.bfs(sourceID, targetID, maxDepth)
	return found, nil
}

// ShortestPath returns the edge-id sequence of a minimum-hop directed
// path from source to target. Among equally short paths the
// first-discovered wins, which by BFS frontier order means the one using
// the earliest-inserted edges. Fails with a no-path error when the
// target is unreachable.
func (g *Graph) ShortestPath(sourceID, targetID valueobjects.NodeID) ([]valueobjects.EdgeID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, exists := g.nodes[sourceID]; !exists {
		return nil, pkgerrors.NewNotFound("node", sourceID.String())
	}
	if _, exists := g.nodes[targetID]; !exists {
		return nil, pkgerrors.NewNotFound("node", targetID.String())
	}

	path, found := g.bfs(sourceID, targetID, 0)
	if !found {
		return nil, pkgerrors.NewNoPathFound(sourceID.String(), targetID.String())
	}
	return path, nil
}

// bfs runs a breadth-first search over the adjacency index, respecting
// edge direction. It returns the discovered edge-id path and whether the
// target was reached. maxDepth <= 0 means unbounded. Caller holds at
// least the read lock.
func (g *Graph) bfs(sourceID, targetID valueobjects.NodeID, maxDepth int) ([]valueobjects.EdgeID, bool) {
	if sourceID.Equals(targetID) {
		return []valueobjects.EdgeID{}, true
	}

	visited := map[valueobjects.NodeID]bool{sourceID: true}
	parent := make(map[valueobjects.NodeID]hop)
	frontier := []valueobjects.NodeID{sourceID}
	depth := 0

	for len(frontier) > 0 {
		if maxDepth > 0 && depth >= maxDepth {
			return nil, false
		}
		depth++

		var next []valueobjects.NodeID
		for _, current := range frontier {
			for _, edgeID := range g.adjacency.outgoingOf(current) {
				neighbor := g.mustEdge(edgeID).TargetID()
				if visited[neighbor] {
					continue
				}
				visited[neighbor] = true
				parent[neighbor] = hop{from: current, via: edgeID}

				if neighbor.Equals(targetID) {
					return reconstructPath(parent, sourceID, targetID), true
				}
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	return nil, false
}

// hop records how a node was first discovered during BFS
type hop struct {
	from valueobjects.NodeID
	via  valueobjects.EdgeID
}

func reconstructPath(parent map[valueobjects.NodeID]hop, sourceID, targetID valueobjects.NodeID) []valueobjects.EdgeID {
	var reversed []valueobjects.EdgeID
	for at := targetID; !at.Equals(sourceID); {
		h := parent[at]
		reversed = append(reversed, h.via)
		at = h.from
	}

	path := make([]valueobjects.EdgeID, len(reversed))
	for i, edgeID := range reversed {
		path[len(path)-1-i] = edgeID
	}
	return path
}

// Subgraph extracts the snapshot of the sub-multigraph within k outgoing
// hops of the seed nodes: every reached node plus every edge whose both
// endpoints were reached. Unknown seeds are skipped.
func (g *Graph) Subgraph(seeds []valueobjects.NodeID, k int) *Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	reached := make(map[valueobjects.NodeID]bool)
	frontier := make([]valueobjects.NodeID, 0, len(seeds))
	for _, seed := range seeds {
		if _, exists := g.nodes[seed]; exists && !reached[seed] {
			reached[seed] = true
			frontier = append(frontier, seed)
		}
	}

	for depth := 0; depth < k && len(frontier) > 0; depth++ {
		var next []valueobjects.NodeID
		for _, current := range frontier {
			for _, edgeID := range g.adjacency.outgoingOf(current) {
				neighbor := g.mustEdge(edgeID).TargetID()
				if !reached[neighbor] {
					reached[neighbor] = true
					next = append(next, neighbor)
				}
			}
		}
		frontier = next
	}

	snap := &Snapshot{TakenAt: g.now(), Version: g.version}
	for _, id := range g.nodeOrder {
		if reached[id] {
			snap.Nodes = append(snap.Nodes, viewOfNode(g.nodes[id]))
		}
	}
	for _, id := range g.edgeOrder {
		edge := g.edges[id]
		if reached[edge.SourceID()] && reached[edge.TargetID()] {
			snap.Edges = append(snap.Edges, viewOfEdge(edge))
		}
	}

	return snap
}
