package aggregates

import (
	"fmt"

	"dialograph/domain/core/valueobjects"
)

// adjacencyIndex maintains per-node outgoing and incoming edge-id lists
// in insertion order. It is updated in the same critical section as the
// edge store; the traversal code assumes it is never stale.
type adjacencyIndex struct {
	outgoing map[valueobjects.NodeID][]valueobjects.EdgeID
	incoming map[valueobjects.NodeID][]valueobjects.EdgeID
}

func newAdjacencyIndex() *adjacencyIndex {
	return &adjacencyIndex{
		outgoing: make(map[valueobjects.NodeID][]valueobjects.EdgeID),
		incoming: make(map[valueobjects.NodeID][]valueobjects.EdgeID),
	}
}

// register records an edge under both of its endpoints
func (a *adjacencyIndex) register(edgeID valueobjects.EdgeID, sourceID, targetID valueobjects.NodeID) {
	a.outgoing[sourceID] = append(a.outgoing[sourceID], edgeID)
	a.incoming[targetID] = append(a.incoming[targetID], edgeID)
}

// deregister removes an edge from both endpoint lists. A missing entry
// means the index diverged from the edge store, which is a programming
// fault, not a user error.
func (a *adjacencyIndex) deregister(edgeID valueobjects.EdgeID, sourceID, targetID valueobjects.NodeID) {
	var ok bool
	a.outgoing[sourceID], ok = removeEdgeID(a.outgoing[sourceID], edgeID)
	if !ok {
		panic(fmt.Sprintf("adjacency index: edge %s missing from outgoing list of %s", edgeID, sourceID))
	}
	a.incoming[targetID], ok = removeEdgeID(a.incoming[targetID], edgeID)
	if !ok {
		panic(fmt.Sprintf("adjacency index: edge %s missing from incoming list of %s", edgeID, targetID))
	}

	if len(a.outgoing[sourceID]) == 0 {
		delete(a.outgoing, sourceID)
	}
	if len(a.incoming[targetID]) == 0 {
		delete(a.incoming, targetID)
	}
}

// outgoingOf returns the node's outgoing edge ids in insertion order.
// The returned slice is the index's own storage; callers must not hold
// or mutate it.
func (a *adjacencyIndex) outgoingOf(nodeID valueobjects.NodeID) []valueobjects.EdgeID {
	return a.outgoing[nodeID]
}

// incomingOf returns the node's incoming edge ids in insertion order
func (a *adjacencyIndex) incomingOf(nodeID valueobjects.NodeID) []valueobjects.EdgeID {
	return a.incoming[nodeID]
}

// incidentEdges returns the distinct edge ids touching the node, outgoing
// first, then incoming, each list in insertion order. Self-loops appear
// once.
func (a *adjacencyIndex) incidentEdges(nodeID valueobjects.NodeID) []valueobjects.EdgeID {
	out := a.outgoing[nodeID]
	in := a.incoming[nodeID]

	seen := make(map[valueobjects.EdgeID]struct{}, len(out)+len(in))
	edges := make([]valueobjects.EdgeID, 0, len(out)+len(in))
	for _, id := range out {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			edges = append(edges, id)
		}
	}
	for _, id := range in {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			edges = append(edges, id)
		}
	}
	return edges
}

func removeEdgeID(list []valueobjects.EdgeID, edgeID valueobjects.EdgeID) ([]valueobjects.EdgeID, bool) {
	for i, id := range list {
		if id.Equals(edgeID) {
			return append(list[:i], list[i+1:]...), true
		}
	}
	return list, false
}
