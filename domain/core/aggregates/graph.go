package aggregates

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"dialograph/domain/config"
	"dialograph/domain/core/entities"
	"dialograph/domain/core/valueobjects"
	"dialograph/domain/events"
	pkgerrors "dialograph/pkg/errors"
)

// GraphID represents a unique graph identifier
type GraphID string

// NewGraphID creates a new random GraphID
func NewGraphID() GraphID {
	return GraphID(uuid.New().String())
}

// String returns the string representation
func (id GraphID) String() string {
	return string(id)
}

// Graph is the aggregate root for the dialograph: a time-aware directed
// multigraph of dialogue turns, beliefs, and memories. All public
// operations go through it so referential integrity, multi-edge
// semantics, adjacency consistency, and temporal provenance are enforced
// in one place.
//
// Concurrency: mutations serialize behind an exclusive lock; read and
// snapshot operations take a shared lock. A snapshot therefore always
// reflects a consistent, non-torn state. Operations that hand out nodes
// or edges return copies taken under the lock, so callers can inspect
// them freely while writers keep mutating the live graph.
type Graph struct {
	mu sync.RWMutex

	id      GraphID
	cfg     *config.DomainConfig
	now     func() time.Time
	version int

	// Node and edge stores, keyed by identifier, with insertion order
	// preserved for deterministic iteration
	nodes     map[valueobjects.NodeID]*entities.Node
	nodeOrder []valueobjects.NodeID
	edges     map[valueobjects.EdgeID]*entities.Edge
	edgeOrder []valueobjects.EdgeID

	adjacency *adjacencyIndex
	temporal  *temporalIndex

	// Monotonic counter backing auto-generated edge ids
	edgeSeq int

	events []events.DomainEvent
}

// GraphOption customizes graph construction
type GraphOption func(*Graph)

// WithDomainConfig overrides the default domain configuration
func WithDomainConfig(cfg *config.DomainConfig) GraphOption {
	return func(g *Graph) {
		if cfg != nil {
			g.cfg = cfg
		}
	}
}

// WithClock overrides the time source. Intended for deterministic tests
// and replay; production graphs use time.Now.
func WithClock(now func() time.Time) GraphOption {
	return func(g *Graph) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGraph creates an empty graph aggregate
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		id:        NewGraphID(),
		cfg:       config.DefaultDomainConfig(),
		now:       time.Now,
		version:   1,
		nodes:     make(map[valueobjects.NodeID]*entities.Node),
		edges:     make(map[valueobjects.EdgeID]*entities.Edge),
		adjacency: newAdjacencyIndex(),
		events:    []events.DomainEvent{},
	}

	for _, opt := range opts {
		opt(g)
	}

	g.temporal = newTemporalIndex(g.cfg.HistoryLimit)
	return g
}

// ID returns the graph's unique identifier
func (g *Graph) ID() GraphID {
	return g.id
}

// Version returns the graph version, incremented on every mutation
func (g *Graph) Version() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

// Config returns the graph's domain configuration
func (g *Graph) Config() *config.DomainConfig {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cfg
}

// ----------------------------------------------------------------------
// Node store
// ----------------------------------------------------------------------

// AddNode creates a node and adds it to the graph. A zero id gets a
// random UUID allocated. Identifiers are never reused within the graph's
// lifetime: an id that belonged to a deleted node still fails with a
// duplicate-identifier error.
func (g *Graph) AddNode(id valueobjects.NodeID, nodeType string, data valueobjects.Attributes, opts ...entities.NodeOption) (*entities.Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id.IsZero() {
		id = valueobjects.NewNodeID()
	}

	if _, used := g.temporal.nodes[id]; used {
		return nil, pkgerrors.NewDuplicateIdentifier("node", id.String())
	}
	if len(g.nodes) >= g.cfg.MaxNodesPerGraph {
		return nil, pkgerrors.NewValidation(fmt.Sprintf("maximum nodes reached: %d", g.cfg.MaxNodesPerGraph))
	}

	// Configured defaults apply first so caller options win
	opts = append([]entities.NodeOption{
		entities.WithMemoryStrength(g.cfg.BaselineMemoryStrength),
		entities.WithMemoryStrengthCap(g.cfg.MaxMemoryStrength),
	}, opts...)

	now := g.now()
	node, err := entities.NewNode(id, nodeType, data, now, opts...)
	if err != nil {
		return nil, err
	}

	g.nodes[id] = node
	g.nodeOrder = append(g.nodeOrder, id)
	g.temporal.recordNodeCreated(id, now)
	g.version++

	g.addEvent(events.NodeAdded{
		BaseEvent: g.baseEvent(events.EventTypeNodeAdded, now),
		NodeID:    id.String(),
		NodeType:  nodeType,
	})

	return node.Clone(), nil
}

// GetNode retrieves a copy of a node by id
func (g *Graph) GetNode(id valueobjects.NodeID) (*entities.Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, exists := g.nodes[id]
	if !exists {
		return nil, pkgerrors.NewNotFound("node", id.String())
	}
	return node.Clone(), nil
}

// HasNode checks if a node exists in the graph without error
func (g *Graph) HasNode(id valueobjects.NodeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, exists := g.nodes[id]
	return exists
}

// UpdateNode replaces a node's attribute payload wholesale and advances
// its update timestamp. The superseded payload goes into the revision
// history.
func (g *Graph) UpdateNode(id valueobjects.NodeID, data valueobjects.Attributes) (*entities.Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, exists := g.nodes[id]
	if !exists {
		return nil, pkgerrors.NewNotFound("node", id.String())
	}

	now := g.now()
	prior := node.ReplaceData(data, now)
	g.temporal.recordNodeUpdated(id, now, prior)
	g.version++

	g.addEvent(events.NodeUpdated{
		BaseEvent: g.baseEvent(events.EventTypeNodeUpdated, now),
		NodeID:    id.String(),
	})

	return node.Clone(), nil
}

// ReinforceNode applies spaced repetition to a node
func (g *Graph) ReinforceNode(id valueobjects.NodeID, amount float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, exists := g.nodes[id]
	if !exists {
		return pkgerrors.NewNotFound("node", id.String())
	}

	node.Reinforce(amount, g.now())
	return nil
}

// RemoveNode removes a node. The cascade flag is a required, explicit
// choice: with cascade every edge where the node is source or target is
// removed too; without it the call fails when any such edge exists and
// leaves the graph untouched.
func (g *Graph) RemoveNode(id valueobjects.NodeID, cascade bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, exists := g.nodes[id]
	if !exists {
		return pkgerrors.NewNotFound("node", id.String())
	}

	incident := g.adjacency.incidentEdges(id)
	if !cascade && len(incident) > 0 {
		return pkgerrors.NewDanglingEdgeConflict(id.String(), len(incident))
	}

	now := g.now()
	for _, edgeID := range incident {
		g.removeEdgeLocked(edgeID, now)
	}

	g.temporal.recordNodeDeleted(id, now, viewOfNode(node))
	delete(g.nodes, id)
	g.nodeOrder = removeNodeID(g.nodeOrder, id)
	g.version++

	g.addEvent(events.NodeRemoved{
		BaseEvent:     g.baseEvent(events.EventTypeNodeRemoved, now),
		NodeID:        id.String(),
		CascadedEdges: len(incident),
	})

	return nil
}

// Nodes returns copies of all nodes in insertion order
func (g *Graph) Nodes() []*entities.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make([]*entities.Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		nodes = append(nodes, g.nodes[id].Clone())
	}
	return nodes
}

// NodeCount returns the number of live nodes
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// ----------------------------------------------------------------------
// Edge store
// ----------------------------------------------------------------------

// AddEdge creates a directed edge between two existing nodes. A zero id
// is allocated from the graph's monotonic counter ("e1", "e2", ...).
// Multiple edges between the same ordered endpoint pair are allowed.
// On failure nothing is registered anywhere, including the adjacency
// index.
func (g *Graph) AddEdge(id valueobjects.EdgeID, sourceID, targetID valueobjects.NodeID, relation string, data valueobjects.Attributes, opts ...entities.EdgeOption) (*entities.Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[sourceID]; !exists {
		return nil, pkgerrors.NewUnknownEndpoint("source", sourceID.String())
	}
	if _, exists := g.nodes[targetID]; !exists {
		return nil, pkgerrors.NewUnknownEndpoint("target", targetID.String())
	}
	if relation == "" {
		return nil, pkgerrors.NewValidation("edge relation cannot be empty")
	}

	if id.IsZero() {
		id = g.nextEdgeID()
	} else if _, used := g.temporal.edges[id]; used {
		return nil, pkgerrors.NewDuplicateIdentifier("edge", id.String())
	}

	if len(g.edges) >= g.cfg.MaxEdgesPerGraph {
		return nil, pkgerrors.NewValidation(fmt.Sprintf("maximum edges reached: %d", g.cfg.MaxEdgesPerGraph))
	}

	// Configured default strength applies first so caller options win
	opts = append([]entities.EdgeOption{
		entities.WithStrength(g.cfg.DefaultEdgeStrength),
	}, opts...)

	now := g.now()
	edge, err := entities.NewEdge(id, sourceID, targetID, relation, data, now, opts...)
	if err != nil {
		return nil, err
	}

	g.edges[id] = edge
	g.edgeOrder = append(g.edgeOrder, id)
	g.adjacency.register(id, sourceID, targetID)
	g.temporal.recordEdgeCreated(id, now)
	g.version++

	g.addEvent(events.EdgeAdded{
		BaseEvent: g.baseEvent(events.EventTypeEdgeAdded, now),
		EdgeID:    id.String(),
		SourceID:  sourceID.String(),
		TargetID:  targetID.String(),
		Relation:  relation,
	})

	return edge.Clone(), nil
}

// GetEdge retrieves a copy of an edge by id
func (g *Graph) GetEdge(id valueobjects.EdgeID) (*entities.Edge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edge, exists := g.edges[id]
	if !exists {
		return nil, pkgerrors.NewNotFound("edge", id.String())
	}
	return edge.Clone(), nil
}

// UpdateEdge replaces an edge's attribute payload wholesale
func (g *Graph) UpdateEdge(id valueobjects.EdgeID, data valueobjects.Attributes) (*entities.Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	edge, exists := g.edges[id]
	if !exists {
		return nil, pkgerrors.NewNotFound("edge", id.String())
	}

	now := g.now()
	prior := edge.ReplaceData(data, now)
	g.temporal.recordEdgeUpdated(id, now, prior)
	g.version++

	g.addEvent(events.EdgeUpdated{
		BaseEvent: g.baseEvent(events.EventTypeEdgeUpdated, now),
		EdgeID:    id.String(),
	})

	return edge.Clone(), nil
}

// RemoveEdge removes an edge and deregisters it from the adjacency index
func (g *Graph) RemoveEdge(id valueobjects.EdgeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.edges[id]; !exists {
		return pkgerrors.NewNotFound("edge", id.String())
	}

	g.removeEdgeLocked(id, g.now())
	g.version++
	return nil
}

// TouchEdge marks an edge as used at the current instant
func (g *Graph) TouchEdge(id valueobjects.EdgeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	edge, exists := g.edges[id]
	if !exists {
		return pkgerrors.NewNotFound("edge", id.String())
	}

	edge.Touch(g.now())
	return nil
}

// ReinforceEdge strengthens an edge after successful use
func (g *Graph) ReinforceEdge(id valueobjects.EdgeID, amount float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	edge, exists := g.edges[id]
	if !exists {
		return pkgerrors.NewNotFound("edge", id.String())
	}

	edge.Reinforce(amount, g.now())
	return nil
}

// RegisterEdgeEmotion records an interaction outcome on an edge
func (g *Graph) RegisterEdgeEmotion(id valueobjects.EdgeID, kind string, intensity float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	edge, exists := g.edges[id]
	if !exists {
		return pkgerrors.NewNotFound("edge", id.String())
	}

	edge.RegisterEmotion(kind, intensity)
	return nil
}

// Edges returns copies of all edges in insertion order
func (g *Graph) Edges() []*entities.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := make([]*entities.Edge, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		edges = append(edges, g.edges[id].Clone())
	}
	return edges
}

// EdgeCount returns the number of live edges
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// EdgesBetween returns every edge sharing the exact directed endpoint
// pair, in insertion order. This is the defining multigraph query; the
// result is empty when either node is unknown.
func (g *Graph) EdgesBetween(sourceID, targetID valueobjects.NodeID) []*entities.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var matches []*entities.Edge
	for _, edgeID := range g.adjacency.outgoingOf(sourceID) {
		edge := g.mustEdge(edgeID)
		if edge.TargetID().Equals(targetID) {
			matches = append(matches, edge.Clone())
		}
	}
	return matches
}

// OutgoingEdges returns copies of the node's outgoing edges in insertion
// order
func (g *Graph) OutgoingEdges(id valueobjects.NodeID) ([]*entities.Edge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, exists := g.nodes[id]; !exists {
		return nil, pkgerrors.NewNotFound("node", id.String())
	}

	ids := g.adjacency.outgoingOf(id)
	edges := make([]*entities.Edge, 0, len(ids))
	for _, edgeID := range ids {
		edges = append(edges, g.mustEdge(edgeID).Clone())
	}
	return edges, nil
}

// IncomingEdges returns copies of the node's incoming edges in insertion
// order
func (g *Graph) IncomingEdges(id valueobjects.NodeID) ([]*entities.Edge, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, exists := g.nodes[id]; !exists {
		return nil, pkgerrors.NewNotFound("node", id.String())
	}

	ids := g.adjacency.incomingOf(id)
	edges := make([]*entities.Edge, 0, len(ids))
	for _, edgeID := range ids {
		edges = append(edges, g.mustEdge(edgeID).Clone())
	}
	return edges, nil
}

// ----------------------------------------------------------------------
// Snapshots and temporal queries
// ----------------------------------------------------------------------

// Snapshot produces a fully-copied view of the current node and edge
// state in insertion order. Subsequent mutations of the live graph never
// retroactively affect an already-taken snapshot.
func (g *Graph) Snapshot() *Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snap := &Snapshot{
		TakenAt: g.now(),
		Version: g.version,
		Nodes:   make([]NodeView, 0, len(g.nodeOrder)),
		Edges:   make([]EdgeView, 0, len(g.edgeOrder)),
	}

	for _, id := range g.nodeOrder {
		snap.Nodes = append(snap.Nodes, viewOfNode(g.nodes[id]))
	}
	for _, id := range g.edgeOrder {
		snap.Edges = append(snap.Edges, viewOfEdge(g.edges[id]))
	}

	return snap
}

// AsOf produces the sub-multigraph that existed at the given instant:
// entities created at or before it and not yet deleted. Attribute
// payloads are resolved against the retained revision history, so an
// entity updated after the instant shows its payload as of then (within
// the configured history bound).
func (g *Graph) AsOf(at time.Time) *Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snap := &Snapshot{TakenAt: at, Version: g.version}

	for _, id := range g.temporal.nodeOrder {
		rec := g.temporal.nodes[id]
		if !existedAt(rec.createdAt, rec.deletedAt, at) {
			continue
		}

		var view NodeView
		if node, alive := g.nodes[id]; alive {
			view = viewOfNode(node)
		} else {
			view = cloneNodeView(*rec.final)
		}

		data, since := dataAsOf(rec.versions, rec.createdAt, at, view.Data)
		view.Data = data.Clone()
		view.UpdatedAt = since
		snap.Nodes = append(snap.Nodes, view)
	}

	for _, id := range g.temporal.edgeOrder {
		rec := g.temporal.edges[id]
		if !existedAt(rec.createdAt, rec.deletedAt, at) {
			continue
		}

		var view EdgeView
		if edge, alive := g.edges[id]; alive {
			view = viewOfEdge(edge)
		} else {
			view = cloneEdgeView(*rec.final)
		}

		data, since := dataAsOf(rec.versions, rec.createdAt, at, view.Data)
		view.Data = data.Clone()
		view.UpdatedAt = since
		snap.Edges = append(snap.Edges, view)
	}

	return snap
}

// ChangedWithin returns every creation, update, and deletion whose
// timestamp falls in [from, to], ordered by timestamp with identifier
// string as tie-break.
func (g *Graph) ChangedWithin(from, to time.Time) []Change {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.temporal.changedWithin(from, to)
}

// ----------------------------------------------------------------------
// Reconstruction (used by the exporter for lossless import)
// ----------------------------------------------------------------------

// LoadNode adds a node from an exported view, preserving its timestamps.
// Unlike AddNode this performs no stamping, but duplicate-identifier
// rules still hold.
func (g *Graph) LoadNode(view NodeView) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := valueobjects.NewNodeIDFromString(view.ID)
	if err != nil {
		return pkgerrors.NewValidation(err.Error())
	}
	if _, used := g.temporal.nodes[id]; used {
		return pkgerrors.NewDuplicateIdentifier("node", view.ID)
	}

	node, err := entities.ReconstructNode(
		id, view.Type, view.Data,
		view.Confidence, view.MemoryStrength, view.Persistent,
		view.CreatedAt, view.UpdatedAt, view.LastAccessed,
	)
	if err != nil {
		return err
	}

	g.nodes[id] = node
	g.nodeOrder = append(g.nodeOrder, id)
	g.temporal.recordNodeCreated(id, view.CreatedAt)
	g.temporal.nodes[id].updatedAt = view.UpdatedAt
	g.version++

	return nil
}

// LoadEdge adds an edge from an exported view, preserving its
// timestamps. Both endpoints must already be loaded.
func (g *Graph) LoadEdge(view EdgeView) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := valueobjects.NewEdgeIDFromString(view.ID)
	if err != nil {
		return pkgerrors.NewValidation(err.Error())
	}
	sourceID, err := valueobjects.NewNodeIDFromString(view.SourceID)
	if err != nil {
		return pkgerrors.NewValidation(err.Error())
	}
	targetID, err := valueobjects.NewNodeIDFromString(view.TargetID)
	if err != nil {
		return pkgerrors.NewValidation(err.Error())
	}

	if _, exists := g.nodes[sourceID]; !exists {
		return pkgerrors.NewUnknownEndpoint("source", view.SourceID)
	}
	if _, exists := g.nodes[targetID]; !exists {
		return pkgerrors.NewUnknownEndpoint("target", view.TargetID)
	}
	if _, used := g.temporal.edges[id]; used {
		return pkgerrors.NewDuplicateIdentifier("edge", view.ID)
	}

	edge, err := entities.ReconstructEdge(
		id, sourceID, targetID, view.Relation, view.Data,
		view.Strength, view.EmotionalCharge,
		view.CreatedAt, view.UpdatedAt, view.LastUsed,
	)
	if err != nil {
		return err
	}

	g.edges[id] = edge
	g.edgeOrder = append(g.edgeOrder, id)
	g.adjacency.register(id, sourceID, targetID)
	g.temporal.recordEdgeCreated(id, view.CreatedAt)
	g.temporal.edges[id].updatedAt = view.UpdatedAt
	g.version++

	return nil
}

// ----------------------------------------------------------------------
// Maintenance
// ----------------------------------------------------------------------

// Statistics summarizes the graph for maintenance and monitoring
type Statistics struct {
	NodeCount         int     `json:"node_count"`
	EdgeCount         int     `json:"edge_count"`
	AvgEdgeStrength   float64 `json:"avg_edge_strength"`
	WeakEdges         int     `json:"weak_edges"`
	AvgNodeConfidence float64 `json:"avg_node_confidence"`
}

// Statistics computes summary statistics over the live graph
func (g *Graph) Statistics() Statistics {
	g.mu.RLock()
	defer g.mu.RUnlock()

	stats := Statistics{
		NodeCount: len(g.nodes),
		EdgeCount: len(g.edges),
	}

	for _, node := range g.nodes {
		stats.AvgNodeConfidence += node.Confidence()
	}
	if stats.NodeCount > 0 {
		stats.AvgNodeConfidence /= float64(stats.NodeCount)
	}

	for _, edge := range g.edges {
		stats.AvgEdgeStrength += edge.Strength()
		if edge.ShouldPrune(g.cfg.PruneThreshold) {
			stats.WeakEdges++
		}
	}
	if stats.EdgeCount > 0 {
		stats.AvgEdgeStrength /= float64(stats.EdgeCount)
	}

	return stats
}

// SetMemoryTuning replaces the decay rate and prune threshold at
// runtime. The graph switches to a private config copy, so the struct
// the caller constructed it with stays untouched. Out-of-range values
// leave the corresponding setting as it was.
func (g *Graph) SetMemoryTuning(decayRatePerHour, pruneThreshold float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	next := *g.cfg
	if decayRatePerHour >= 0 {
		next.EdgeDecayRatePerHour = decayRatePerHour
	}
	if pruneThreshold >= 0 && pruneThreshold <= 1 {
		next.PruneThreshold = pruneThreshold
	}
	g.cfg = &next
}

// DecayEdges weakens every edge for the elapsed interval using the
// configured decay rate. Returns the number of edges touched.
func (g *Graph) DecayEdges(elapsed time.Duration) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, edge := range g.edges {
		edge.Decay(elapsed, g.cfg.EdgeDecayRatePerHour)
	}
	return len(g.edges)
}

// PruneWeakEdges removes every edge that has decayed below the threshold
// and carries no protective emotional charge. A non-positive threshold
// falls back to the configured default. Returns the number removed.
func (g *Graph) PruneWeakEdges(threshold float64) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	if threshold <= 0 {
		threshold = g.cfg.PruneThreshold
	}

	var doomed []valueobjects.EdgeID
	for _, id := range g.edgeOrder {
		if g.edges[id].ShouldPrune(threshold) {
			doomed = append(doomed, id)
		}
	}

	now := g.now()
	for _, id := range doomed {
		g.removeEdgeLocked(id, now)
	}

	if len(doomed) > 0 {
		g.version++
		g.addEvent(events.EdgesPruned{
			BaseEvent: g.baseEvent(events.EventTypeEdgesPruned, now),
			Pruned:    len(doomed),
		})
	}

	return len(doomed)
}

// Validate ensures graph invariants. A failure here indicates a
// programming fault in the engine, not caller misuse.
func (g *Graph) Validate() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for id, edge := range g.edges {
		if _, exists := g.nodes[edge.SourceID()]; !exists {
			return pkgerrors.NewInternal(fmt.Sprintf("edge %s references missing source node %s", id, edge.SourceID()), nil)
		}
		if _, exists := g.nodes[edge.TargetID()]; !exists {
			return pkgerrors.NewInternal(fmt.Sprintf("edge %s references missing target node %s", id, edge.TargetID()), nil)
		}
	}

	if len(g.nodeOrder) != len(g.nodes) {
		return pkgerrors.NewInternal("node order diverged from node store", nil)
	}
	if len(g.edgeOrder) != len(g.edges) {
		return pkgerrors.NewInternal("edge order diverged from edge store", nil)
	}

	return nil
}

// ----------------------------------------------------------------------
// Domain events
// ----------------------------------------------------------------------

// GetUncommittedEvents returns all uncommitted domain events
func (g *Graph) GetUncommittedEvents() []events.DomainEvent {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]events.DomainEvent, len(g.events))
	copy(out, g.events)
	return out
}

// MarkEventsAsCommitted clears all uncommitted events
func (g *Graph) MarkEventsAsCommitted() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = g.events[:0]
}

// ----------------------------------------------------------------------
// Private helpers (callers hold the write lock)
// ----------------------------------------------------------------------

func (g *Graph) addEvent(event events.DomainEvent) {
	g.events = append(g.events, event)
}

func (g *Graph) baseEvent(eventType string, at time.Time) events.BaseEvent {
	return events.BaseEvent{
		AggregateID: g.id.String(),
		EventType:   eventType,
		Timestamp:   at,
		Version:     g.version,
	}
}

// nextEdgeID allocates from the monotonic counter, skipping ids the
// caller already claimed explicitly
func (g *Graph) nextEdgeID() valueobjects.EdgeID {
	for {
		g.edgeSeq++
		id, _ := valueobjects.NewEdgeIDFromString(fmt.Sprintf("e%d", g.edgeSeq))
		if _, used := g.temporal.edges[id]; !used {
			return id
		}
	}
}

func (g *Graph) removeEdgeLocked(id valueobjects.EdgeID, at time.Time) {
	edge := g.mustEdge(id)

	g.temporal.recordEdgeDeleted(id, at, viewOfEdge(edge))
	g.adjacency.deregister(id, edge.SourceID(), edge.TargetID())
	delete(g.edges, id)
	g.edgeOrder, _ = removeEdgeID(g.edgeOrder, id)

	g.addEvent(events.EdgeRemoved{
		BaseEvent: g.baseEvent(events.EventTypeEdgeRemoved, at),
		EdgeID:    id.String(),
	})
}

// mustEdge resolves an edge id coming from the adjacency index or edge
// order. Absence is an invariant breach.
func (g *Graph) mustEdge(id valueobjects.EdgeID) *entities.Edge {
	edge, exists := g.edges[id]
	if !exists {
		panic(fmt.Sprintf("edge store: indexed edge %s missing", id))
	}
	return edge
}

func removeNodeID(list []valueobjects.NodeID, id valueobjects.NodeID) []valueobjects.NodeID {
	for i, candidate := range list {
		if candidate.Equals(id) {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
