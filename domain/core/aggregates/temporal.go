package aggregates

import (
	"sort"
	"time"

	"dialograph/domain/core/valueobjects"
)

// ChangeKind classifies an entry in the change log
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// EntityKind distinguishes node changes from edge changes
type EntityKind string

const (
	EntityNode EntityKind = "node"
	EntityEdge EntityKind = "edge"
)

// Change is one entry produced by ChangedWithin
type Change struct {
	Entity EntityKind `json:"entity"`
	ID     string     `json:"id"`
	Kind   ChangeKind `json:"kind"`
	At     time.Time  `json:"at"`
}

// dataVersion is a superseded attribute payload. replacedAt is the
// instant the payload stopped being current.
type dataVersion struct {
	replacedAt time.Time
	data       valueobjects.Attributes
}

type nodeRecord struct {
	createdAt time.Time
	updatedAt time.Time
	deletedAt time.Time // zero while the node is alive
	versions  []dataVersion
	final     *NodeView // captured at deletion
}

type edgeRecord struct {
	createdAt time.Time
	updatedAt time.Time
	deletedAt time.Time
	versions  []dataVersion
	final     *EdgeView
}

// temporalIndex records per-entity provenance: creation, update, and
// deletion timestamps plus a bounded revision history of prior attribute
// payloads. It answers point-in-time and window queries without scanning
// entity payloads.
type temporalIndex struct {
	// historyLimit bounds retained prior payloads per entity:
	// 0 none, N > 0 the N most recent, -1 unbounded.
	historyLimit int

	nodes     map[valueobjects.NodeID]*nodeRecord
	nodeOrder []valueobjects.NodeID
	edges     map[valueobjects.EdgeID]*edgeRecord
	edgeOrder []valueobjects.EdgeID
}

func newTemporalIndex(historyLimit int) *temporalIndex {
	return &temporalIndex{
		historyLimit: historyLimit,
		nodes:        make(map[valueobjects.NodeID]*nodeRecord),
		edges:        make(map[valueobjects.EdgeID]*edgeRecord),
	}
}

func (t *temporalIndex) recordNodeCreated(id valueobjects.NodeID, at time.Time) {
	t.nodes[id] = &nodeRecord{createdAt: at, updatedAt: at}
	t.nodeOrder = append(t.nodeOrder, id)
}

func (t *temporalIndex) recordNodeUpdated(id valueobjects.NodeID, at time.Time, prior valueobjects.Attributes) {
	rec := t.nodes[id]
	rec.versions = t.appendVersion(rec.versions, dataVersion{replacedAt: at, data: prior})
	rec.updatedAt = at
}

func (t *temporalIndex) recordNodeDeleted(id valueobjects.NodeID, at time.Time, final NodeView) {
	rec := t.nodes[id]
	rec.deletedAt = at
	rec.final = &final
}

func (t *temporalIndex) recordEdgeCreated(id valueobjects.EdgeID, at time.Time) {
	t.edges[id] = &edgeRecord{createdAt: at, updatedAt: at}
	t.edgeOrder = append(t.edgeOrder, id)
}

func (t *temporalIndex) recordEdgeUpdated(id valueobjects.EdgeID, at time.Time, prior valueobjects.Attributes) {
	rec := t.edges[id]
	rec.versions = t.appendVersion(rec.versions, dataVersion{replacedAt: at, data: prior})
	rec.updatedAt = at
}

func (t *temporalIndex) recordEdgeDeleted(id valueobjects.EdgeID, at time.Time, final EdgeView) {
	rec := t.edges[id]
	rec.deletedAt = at
	rec.final = &final
}

func (t *temporalIndex) appendVersion(versions []dataVersion, v dataVersion) []dataVersion {
	if t.historyLimit == 0 {
		return nil
	}
	versions = append(versions, v)
	if t.historyLimit > 0 && len(versions) > t.historyLimit {
		versions = versions[len(versions)-t.historyLimit:]
	}
	return versions
}

// existedAt reports whether an entity with the given record existed at
// the instant: created at or before it, and not yet deleted.
func existedAt(createdAt, deletedAt, at time.Time) bool {
	if createdAt.After(at) {
		return false
	}
	return deletedAt.IsZero() || deletedAt.After(at)
}

// dataAsOf resolves the payload that was current at the instant, walking
// the retained revision history. current is the entity's present (or
// final) payload. The second return is when that payload became current;
// it degrades to the creation time when history was trimmed.
func dataAsOf(versions []dataVersion, createdAt, at time.Time, current valueobjects.Attributes) (valueobjects.Attributes, time.Time) {
	since := createdAt
	for _, v := range versions {
		if v.replacedAt.After(at) {
			return v.data, since
		}
		since = v.replacedAt
	}
	return current, since
}

// changedWithin collects every creation, update, and deletion whose
// timestamp falls in [from, to], ordered by timestamp with identifier
// string as the deterministic tie-break.
func (t *temporalIndex) changedWithin(from, to time.Time) []Change {
	var changes []Change

	inWindow := func(at time.Time) bool {
		return !at.Before(from) && !at.After(to)
	}

	for _, id := range t.nodeOrder {
		rec := t.nodes[id]
		if inWindow(rec.createdAt) {
			changes = append(changes, Change{Entity: EntityNode, ID: id.String(), Kind: ChangeCreated, At: rec.createdAt})
		}
		if !rec.updatedAt.Equal(rec.createdAt) && inWindow(rec.updatedAt) {
			changes = append(changes, Change{Entity: EntityNode, ID: id.String(), Kind: ChangeUpdated, At: rec.updatedAt})
		}
		if !rec.deletedAt.IsZero() && inWindow(rec.deletedAt) {
			changes = append(changes, Change{Entity: EntityNode, ID: id.String(), Kind: ChangeDeleted, At: rec.deletedAt})
		}
	}

	for _, id := range t.edgeOrder {
		rec := t.edges[id]
		if inWindow(rec.createdAt) {
			changes = append(changes, Change{Entity: EntityEdge, ID: id.String(), Kind: ChangeCreated, At: rec.createdAt})
		}
		if !rec.updatedAt.Equal(rec.createdAt) && inWindow(rec.updatedAt) {
			changes = append(changes, Change{Entity: EntityEdge, ID: id.String(), Kind: ChangeUpdated, At: rec.updatedAt})
		}
		if !rec.deletedAt.IsZero() && inWindow(rec.deletedAt) {
			changes = append(changes, Change{Entity: EntityEdge, ID: id.String(), Kind: ChangeDeleted, At: rec.deletedAt})
		}
	}

	sort.SliceStable(changes, func(i, j int) bool {
		if !changes[i].At.Equal(changes[j].At) {
			return changes[i].At.Before(changes[j].At)
		}
		return changes[i].ID < changes[j].ID
	})

	return changes
}
