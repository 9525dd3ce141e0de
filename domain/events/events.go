package events

import (
	"time"
)

// Event type constants
const (
	EventTypeNodeAdded   = "graph.node_added"
	EventTypeNodeUpdated = "graph.node_updated"
	EventTypeNodeRemoved = "graph.node_removed"
	EventTypeEdgeAdded   = "graph.edge_added"
	EventTypeEdgeUpdated = "graph.edge_updated"
	EventTypeEdgeRemoved = "graph.edge_removed"
	EventTypeEdgesPruned = "graph.edges_pruned"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// NodeAdded is raised when a node is added to the graph
type NodeAdded struct {
	BaseEvent
	NodeID   string `json:"node_id"`
	NodeType string `json:"node_type"`
}

// NodeUpdated is raised when a node's attribute payload is replaced
type NodeUpdated struct {
	BaseEvent
	NodeID string `json:"node_id"`
}

// NodeRemoved is raised when a node is removed from the graph
type NodeRemoved struct {
	BaseEvent
	NodeID        string `json:"node_id"`
	CascadedEdges int    `json:"cascaded_edges"`
}

// EdgeAdded is raised when an edge is added to the graph
type EdgeAdded struct {
	BaseEvent
	EdgeID   string `json:"edge_id"`
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Relation string `json:"relation"`
}

// EdgeUpdated is raised when an edge's attribute payload is replaced
type EdgeUpdated struct {
	BaseEvent
	EdgeID string `json:"edge_id"`
}

// EdgeRemoved is raised when an edge is removed from the graph
type EdgeRemoved struct {
	BaseEvent
	EdgeID string `json:"edge_id"`
}

// EdgesPruned is raised when a maintenance sweep drops weak edges
type EdgesPruned struct {
	BaseEvent
	Pruned int `json:"pruned"`
}
