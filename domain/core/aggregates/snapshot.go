package aggregates

import (
	"time"

	"dialograph/domain/core/entities"
	"dialograph/domain/core/valueobjects"
)

// NodeView is a fully-copied, immutable view of one node. External
// collaborators (renderer, visualization server, exporter) read views
// and can never reach back into graph state through them.
type NodeView struct {
	ID             string                  `json:"node_id"`
	Type           string                  `json:"node_type"`
	Data           valueobjects.Attributes `json:"data,omitempty"`
	Confidence     float64                 `json:"confidence"`
	MemoryStrength time.Duration           `json:"memory_strength"`
	Persistent     bool                    `json:"persistent"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
	LastAccessed   time.Time               `json:"last_accessed"`
}

// EdgeView is a fully-copied, immutable view of one edge
type EdgeView struct {
	ID              string                  `json:"edge_id"`
	SourceID        string                  `json:"source_node_id"`
	TargetID        string                  `json:"target_node_id"`
	Relation        string                  `json:"relation"`
	Data            valueobjects.Attributes `json:"data,omitempty"`
	Strength        float64                 `json:"strength"`
	EmotionalCharge float64                 `json:"emotional_charge"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
	LastUsed        time.Time               `json:"last_used"`
}

// Snapshot is an isolated copy of the graph's node and edge state, in
// insertion order. Mutations to the live graph after the snapshot is
// taken never show through.
type Snapshot struct {
	TakenAt time.Time  `json:"taken_at"`
	Version int        `json:"version"`
	Nodes   []NodeView `json:"nodes"`
	Edges   []EdgeView `json:"edges"`
}

// NodeCount returns the number of nodes in the snapshot
func (s *Snapshot) NodeCount() int {
	return len(s.Nodes)
}

// EdgeCount returns the number of edges in the snapshot
func (s *Snapshot) EdgeCount() int {
	return len(s.Edges)
}

func viewOfNode(node *entities.Node) NodeView {
	return NodeView{
		ID:             node.ID().String(),
		Type:           node.Type(),
		Data:           node.Data(),
		Confidence:     node.Confidence(),
		MemoryStrength: node.MemoryStrength(),
		Persistent:     node.Persistent(),
		CreatedAt:      node.CreatedAt(),
		UpdatedAt:      node.UpdatedAt(),
		LastAccessed:   node.LastAccessed(),
	}
}

func viewOfEdge(edge *entities.Edge) EdgeView {
	return EdgeView{
		ID:              edge.ID().String(),
		SourceID:        edge.SourceID().String(),
		TargetID:        edge.TargetID().String(),
		Relation:        edge.Relation(),
		Data:            edge.Data(),
		Strength:        edge.Strength(),
		EmotionalCharge: edge.EmotionalCharge(),
		CreatedAt:       edge.CreatedAt(),
		UpdatedAt:       edge.UpdatedAt(),
		LastUsed:        edge.LastUsed(),
	}
}

func cloneNodeView(v NodeView) NodeView {
	v.Data = v.Data.Clone()
	return v
}

func cloneEdgeView(v EdgeView) EdgeView {
	v.Data = v.Data.Clone()
	return v
}
