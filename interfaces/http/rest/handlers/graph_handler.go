package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"dialograph/domain/core/aggregates"
	"dialograph/domain/core/entities"
	"dialograph/domain/core/valueobjects"
	"dialograph/domain/services"
	"dialograph/infrastructure/export"
	"dialograph/infrastructure/render"
	pkgerrors "dialograph/pkg/errors"
	"dialograph/pkg/observability"
)

// ChangeNotifier pushes refresh hints to connected visualization
// clients after a mutation
type ChangeNotifier interface {
	NotifyGraphChanged(version int)
}

// GraphHandler serves the graph engine over HTTP: snapshot and temporal
// reads, node and edge mutations, traversal queries, ranked recall, the
// HTML visualization, and the JSON export.
type GraphHandler struct {
	graph     *aggregates.Graph
	retrieval *services.RetrievalService
	renderer  *render.Renderer
	exporter  *export.Exporter
	metrics   *observability.Collector
	notifier  ChangeNotifier
	logger    *zap.Logger

	renderingDisabled atomic.Bool
}

// NewGraphHandler creates a new graph handler. notifier may be nil when
// WebSocket support is disabled.
func NewGraphHandler(
	graph *aggregates.Graph,
	retrieval *services.RetrievalService,
	renderer *render.Renderer,
	exporter *export.Exporter,
	metrics *observability.Collector,
	notifier ChangeNotifier,
	logger *zap.Logger,
) *GraphHandler {
	return &GraphHandler{
		graph:     graph,
		retrieval: retrieval,
		renderer:  renderer,
		exporter:  exporter,
		metrics:   metrics,
		notifier:  notifier,
		logger:    logger,
	}
}

// ----------------------------------------------------------------------
// Requests and responses
// ----------------------------------------------------------------------

// CreateNodeRequest represents the request body for creating a node
type CreateNodeRequest struct {
	NodeID         string                  `json:"node_id,omitempty"`
	NodeType       string                  `json:"node_type"`
	Data           valueobjects.Attributes `json:"data,omitempty"`
	Confidence     *float64                `json:"confidence,omitempty"`
	Persistent     bool                    `json:"persistent,omitempty"`
	MemoryStrength *string                 `json:"memory_strength,omitempty"`
}

// UpdateNodeRequest carries the replacement attribute payload
type UpdateNodeRequest struct {
	Data valueobjects.Attributes `json:"data"`
}

// CreateEdgeRequest represents the request body for creating an edge
type CreateEdgeRequest struct {
	EdgeID   string                  `json:"edge_id,omitempty"`
	SourceID string                  `json:"source_node_id"`
	TargetID string                  `json:"target_node_id"`
	Relation string                  `json:"relation"`
	Data     valueobjects.Attributes `json:"data,omitempty"`
	Strength *float64                `json:"strength,omitempty"`
}

type neighborResponse struct {
	NodeID string  `json:"node_id"`
	EdgeID string  `json:"edge_id,omitempty"`
	Score  float64 `json:"score,omitempty"`
}

type pathResponse struct {
	Exists bool     `json:"exists"`
	Edges  []string `json:"edges,omitempty"`
}

// ----------------------------------------------------------------------
// Reads
// ----------------------------------------------------------------------

// GetSnapshot handles GET /api/v1/graph
func (h *GraphHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.graph.Snapshot())
}

// GetStats handles GET /api/v1/graph/stats
func (h *GraphHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.graph.Statistics())
}

// GetAsOf handles GET /api/v1/graph/as-of?at=RFC3339
func (h *GraphHandler) GetAsOf(w http.ResponseWriter, r *http.Request) {
	at, err := time.Parse(time.RFC3339Nano, r.URL.Query().Get("at"))
	if err != nil {
		h.respondError(w, pkgerrors.NewValidation("query parameter 'at' must be an RFC 3339 timestamp"))
		return
	}
	h.respondJSON(w, http.StatusOK, h.graph.AsOf(at))
}

// GetChanges handles GET /api/v1/graph/changes?from=&to=
func (h *GraphHandler) GetChanges(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(time.RFC3339Nano, r.URL.Query().Get("from"))
	if err != nil {
		h.respondError(w, pkgerrors.NewValidation("query parameter 'from' must be an RFC 3339 timestamp"))
		return
	}
	to, err := time.Parse(time.RFC3339Nano, r.URL.Query().Get("to"))
	if err != nil {
		h.respondError(w, pkgerrors.NewValidation("query parameter 'to' must be an RFC 3339 timestamp"))
		return
	}
	h.respondJSON(w, http.StatusOK, h.graph.ChangedWithin(from, to))
}

// SetRenderingEnabled toggles the visualization endpoint at runtime
func (h *GraphHandler) SetRenderingEnabled(enabled bool) {
	h.renderingDisabled.Store(!enabled)
}

// GetVisualization handles GET / with the rendered HTML page
func (h *GraphHandler) GetVisualization(w http.ResponseWriter, r *http.Request) {
	if h.renderingDisabled.Load() {
		h.respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "visualization is disabled",
		})
		return
	}

	html, err := h.renderer.Render(h.graph.Snapshot())
	if err != nil {
		h.respondError(w, pkgerrors.NewInternal("failed to render visualization", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

// GetExport handles GET /api/v1/graph/export
func (h *GraphHandler) GetExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="dialograph.json"`)
	if err := h.exporter.Export(h.graph.Snapshot(), w); err != nil {
		h.logger.Error("Failed to stream export", zap.Error(err))
	}
}

// ----------------------------------------------------------------------
// Node operations
// ----------------------------------------------------------------------

// CreateNode handles POST /api/v1/nodes
func (h *GraphHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, pkgerrors.NewValidation("invalid request body: "+err.Error()))
		return
	}

	var id valueobjects.NodeID
	if req.NodeID != "" {
		parsed, err := valueobjects.NewNodeIDFromString(req.NodeID)
		if err != nil {
			h.respondError(w, pkgerrors.NewValidation(err.Error()))
			return
		}
		id = parsed
	}

	var opts []entities.NodeOption
	if req.Confidence != nil {
		opts = append(opts, entities.WithConfidence(*req.Confidence))
	}
	if req.Persistent {
		opts = append(opts, entities.WithPersistent())
	}
	if req.MemoryStrength != nil {
		strength, err := time.ParseDuration(*req.MemoryStrength)
		if err != nil {
			h.respondError(w, pkgerrors.NewValidation("memory_strength must be a duration string"))
			return
		}
		opts = append(opts, entities.WithMemoryStrength(strength))
	}

	node, err := h.graph.AddNode(id, req.NodeType, req.Data, opts...)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.metrics.NodesCreated.Inc()
	h.notifyChanged()
	h.respondJSON(w, http.StatusCreated, nodeView(node))
}

// GetNode handles GET /api/v1/nodes/{nodeID}
func (h *GraphHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewNodeIDFromString(chi.URLParam(r, "nodeID"))
	if err != nil {
		h.respondError(w, pkgerrors.NewValidation(err.Error()))
		return
	}

	node, err := h.graph.GetNode(id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, nodeView(node))
}

// UpdateNode handles PUT /api/v1/nodes/{nodeID}
func (h *GraphHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewNodeIDFromString(chi.URLParam(r, "nodeID"))
	if err != nil {
		h.respondError(w, pkgerrors.NewValidation(err.Error()))
		return
	}

	var req UpdateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, pkgerrors.NewValidation("invalid request body: "+err.Error()))
		return
	}

	node, err := h.graph.UpdateNode(id, req.Data)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.notifyChanged()
	h.respondJSON(w, http.StatusOK, nodeView(node))
}

// DeleteNode handles DELETE /api/v1/nodes/{nodeID}?cascade=true. The
// cascade choice is explicit; it defaults to false so dangling-edge
// conflicts surface rather than silently dropping edges.
func (h *GraphHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewNodeIDFromString(chi.URLParam(r, "nodeID"))
	if err != nil {
		h.respondError(w, pkgerrors.NewValidation(err.Error()))
		return
	}

	cascade := r.URL.Query().Get("cascade") == "true"
	if err := h.graph.RemoveNode(id, cascade); err != nil {
		h.respondError(w, err)
		return
	}

	h.metrics.NodesRemoved.Inc()
	h.notifyChanged()
	w.WriteHeader(http.StatusNoContent)
}

// ----------------------------------------------------------------------
// Edge operations
// ----------------------------------------------------------------------

// CreateEdge handles POST /api/v1/edges
func (h *GraphHandler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var req CreateEdgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, pkgerrors.NewValidation("invalid request body: "+err.Error()))
		return
	}

	var id valueobjects.EdgeID
	if req.EdgeID != "" {
		parsed, err := valueobjects.NewEdgeIDFromString(req.EdgeID)
		if err != nil {
			h.respondError(w, pkgerrors.NewValidation(err.Error()))
			return
		}
		id = parsed
	}
	sourceID, err := valueobjects.NewNodeIDFromString(req.SourceID)
	if err != nil {
		h.respondError(w, pkgerrors.NewValidation("source_node_id is required"))
		return
	}
	targetID, err := valueobjects.NewNodeIDFromString(req.TargetID)
	if err != nil {
		h.respondError(w, pkgerrors.NewValidation("target_node_id is required"))
		return
	}

	var opts []entities.EdgeOption
	if req.Strength != nil {
		opts = append(opts, entities.WithStrength(*req.Strength))
	}

	edge, err := h.graph.AddEdge(id, sourceID, targetID, req.Relation, req.Data, opts...)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.metrics.EdgesCreated.Inc()
	h.notifyChanged()
	h.respondJSON(w, http.StatusCreated, edgeView(edge))
}

// GetEdge handles GET /api/v1/edges/{edgeID}
func (h *GraphHandler) GetEdge(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewEdgeIDFromString(chi.URLParam(r, "edgeID"))
	if err != nil {
		h.respondError(w, pkgerrors.NewValidation(err.Error()))
		return
	}

	edge, err := h.graph.GetEdge(id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, edgeView(edge))
}

// DeleteEdge handles DELETE /api/v1/edges/{edgeID}
func (h *GraphHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewEdgeIDFromString(chi.URLParam(r, "edgeID"))
	if err != nil {
		h.respondError(w, pkgerrors.NewValidation(err.Error()))
		return
	}

	if err := h.graph.RemoveEdge(id); err != nil {
		h.respondError(w, err)
		return
	}

	h.metrics.EdgesRemoved.Inc()
	h.notifyChanged()
	w.WriteHeader(http.StatusNoContent)
}

// ----------------------------------------------------------------------
// Traversal and recall
// ----------------------------------------------------------------------

// GetNeighbors handles GET /api/v1/nodes/{nodeID}/neighbors
func (h *GraphHandler) GetNeighbors(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewNodeIDFromString(chi.URLParam(r, "nodeID"))
	if err != nil {
		h.respondError(w, pkgerrors.NewValidation(err.Error()))
		return
	}

	direction := aggregates.Direction(r.URL.Query().Get("direction"))
	if direction == "" {
		direction = aggregates.DirectionOutgoing
	}

	start := time.Now()
	neighbors, err := h.graph.Neighbors(id, direction, r.URL.Query().Get("relation"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.metrics.ObserveTraversal("neighbors", time.Since(start))

	out := make([]neighborResponse, 0, len(neighbors))
	for _, n := range neighbors {
		out = append(out, neighborResponse{NodeID: n.String()})
	}
	h.respondJSON(w, http.StatusOK, out)
}

// GetRecall handles GET /api/v1/nodes/{nodeID}/recall?limit=N with
// score-ranked neighbors
func (h *GraphHandler) GetRecall(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewNodeIDFromString(chi.URLParam(r, "nodeID"))
	if err != nil {
		h.respondError(w, pkgerrors.NewValidation(err.Error()))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			h.respondError(w, pkgerrors.NewValidation("limit must be an integer"))
			return
		}
	}

	start := time.Now()
	ranked, err := h.retrieval.RecallNeighbors(h.graph, id, aggregates.DirectionBoth, r.URL.Query().Get("relation"), limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.metrics.ObserveTraversal("recall", time.Since(start))

	out := make([]neighborResponse, 0, len(ranked))
	for _, cand := range ranked {
		out = append(out, neighborResponse{
			NodeID: cand.Node.ID().String(),
			EdgeID: cand.Edge.ID().String(),
			Score:  cand.Score,
		})
	}
	h.respondJSON(w, http.StatusOK, out)
}

// GetShortestPath handles GET /api/v1/paths?source=&target=&max_depth=
func (h *GraphHandler) GetShortestPath(w http.ResponseWriter, r *http.Request) {
	sourceID, err := valueobjects.NewNodeIDFromString(r.URL.Query().Get("source"))
	if err != nil {
		h.respondError(w, pkgerrors.NewValidation("query parameter 'source' is required"))
		return
	}
	targetID, err := valueobjects.NewNodeIDFromString(r.URL.Query().Get("target"))
	if err != nil {
		h.respondError(w, pkgerrors.NewValidation("query parameter 'target' is required"))
		return
	}

	// With max_depth the caller asks a reachability question; without
	// it they get the shortest path itself
	if raw := r.URL.Query().Get("max_depth"); raw != "" {
		maxDepth, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(w, pkgerrors.NewValidation("max_depth must be an integer"))
			return
		}

		start := time.Now()
		exists, err := h.graph.PathExists(sourceID, targetID, maxDepth)
		if err != nil {
			h.respondError(w, err)
			return
		}
		h.metrics.ObserveTraversal("path_exists", time.Since(start))
		h.respondJSON(w, http.StatusOK, pathResponse{Exists: exists})
		return
	}

	start := time.Now()
	path, err := h.graph.ShortestPath(sourceID, targetID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.metrics.ObserveTraversal("shortest_path", time.Since(start))

	edges := make([]string, 0, len(path))
	for _, edgeID := range path {
		edges = append(edges, edgeID.String())
	}
	h.respondJSON(w, http.StatusOK, pathResponse{Exists: true, Edges: edges})
}

// ----------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------

func (h *GraphHandler) notifyChanged() {
	if h.notifier != nil {
		h.notifier.NotifyGraphChanged(h.graph.Version())
	}
}

func nodeView(node *entities.Node) map[string]interface{} {
	return map[string]interface{}{
		"node_id":         node.ID().String(),
		"node_type":       node.Type(),
		"data":            node.Data(),
		"confidence":      node.Confidence(),
		"persistent":      node.Persistent(),
		"memory_strength": node.MemoryStrength().String(),
		"created_at":      node.CreatedAt(),
		"updated_at":      node.UpdatedAt(),
	}
}

func edgeView(edge *entities.Edge) map[string]interface{} {
	return map[string]interface{}{
		"edge_id":          edge.ID().String(),
		"source_node_id":   edge.SourceID().String(),
		"target_node_id":   edge.TargetID().String(),
		"relation":         edge.Relation(),
		"data":             edge.Data(),
		"strength":         edge.Strength(),
		"emotional_charge": edge.EmotionalCharge(),
		"created_at":       edge.CreatedAt(),
	}
}

// respondError maps engine error kinds onto HTTP status codes
func (h *GraphHandler) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case pkgerrors.IsValidation(err):
		status = http.StatusBadRequest
	case pkgerrors.IsNotFound(err), pkgerrors.IsNoPathFound(err):
		status = http.StatusNotFound
	case pkgerrors.IsDuplicateIdentifier(err), pkgerrors.IsDanglingEdgeConflict(err):
		status = http.StatusConflict
	case pkgerrors.IsUnknownEndpoint(err):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.Error(err))
	}

	h.respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": err.Error(),
		"code":    status,
	})
}

func (h *GraphHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
