package services

import (
	"sort"
	"time"

	"dialograph/domain/core/aggregates"
	"dialograph/domain/core/entities"
	"dialograph/domain/core/valueobjects"
	pkgerrors "dialograph/pkg/errors"
)

// ScoredNeighbor is one retrieval candidate: a node reached over a
// specific edge from the focus node, with the combined score that ranked
// it.
type ScoredNeighbor struct {
	Node  *entities.Node
	Edge  *entities.Edge
	Score float64
}

// RetrievalService ranks graph neighborhoods for recall. The score
// blends the node's own retrievability (confidence times availability)
// with the importance of the edge that leads to it, so a weakly
// connected but vivid memory and a strongly connected faded one compete
// on equal terms.
type RetrievalService struct {
	now func() time.Time
}

// RetrievalOption customizes the service
type RetrievalOption func(*RetrievalService)

// WithRetrievalClock overrides the time source for deterministic scoring
func WithRetrievalClock(now func() time.Time) RetrievalOption {
	return func(s *RetrievalService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRetrievalService creates a new retrieval service
func NewRetrievalService(opts ...RetrievalOption) *RetrievalService {
	s := &RetrievalService{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecallNeighbors returns up to limit neighbors of the focus node,
// highest score first, following edges in the given direction with an
// optional relation filter. Parallel edges produce independent
// candidates. Ties break on edge identifier so the ordering is
// deterministic. A non-positive limit means all candidates.
func (s *RetrievalService) RecallNeighbors(
	graph *aggregates.Graph,
	focus valueobjects.NodeID,
	direction aggregates.Direction,
	relation string,
	limit int,
) ([]ScoredNeighbor, error) {
	now := s.now()

	var edges []*entities.Edge
	switch direction {
	case aggregates.DirectionOutgoing:
		outgoing, err := graph.OutgoingEdges(focus)
		if err != nil {
			return nil, err
		}
		edges = outgoing
	case aggregates.DirectionIncoming:
		incoming, err := graph.IncomingEdges(focus)
		if err != nil {
			return nil, err
		}
		edges = incoming
	case aggregates.DirectionBoth:
		outgoing, err := graph.OutgoingEdges(focus)
		if err != nil {
			return nil, err
		}
		incoming, err := graph.IncomingEdges(focus)
		if err != nil {
			return nil, err
		}
		edges = append(outgoing, incoming...)
	default:
		return nil, pkgerrors.NewValidation("unknown traversal direction: " + string(direction))
	}

	candidates := make([]ScoredNeighbor, 0, len(edges))
	seenLoop := make(map[valueobjects.EdgeID]bool)
	for _, edge := range edges {
		if relation != "" && edge.Relation() != relation {
			continue
		}

		// A self-loop shows up on both sides for DirectionBoth;
		// score it once
		if seenLoop[edge.ID()] {
			continue
		}
		seenLoop[edge.ID()] = true

		farID := edge.TargetID()
		if farID.Equals(focus) && !edge.SourceID().Equals(focus) {
			farID = edge.SourceID()
		}

		node, err := graph.GetNode(farID)
		if err != nil {
			return nil, err
		}

		candidates = append(candidates, ScoredNeighbor{
			Node:  node,
			Edge:  edge,
			Score: node.RetrievalScore(now) * edge.ImportanceScore(now),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Edge.ID().String() < candidates[j].Edge.ID().String()
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// ScoredNode is one result of a whole-graph recall ranking
type ScoredNode struct {
	Node  *entities.Node
	Score float64
}

// RecallTop returns up to limit nodes across the whole graph ranked by
// retrieval score, highest first, with node identifier as tie-break.
// A non-positive limit means all nodes.
func (s *RetrievalService) RecallTop(graph *aggregates.Graph, limit int) []ScoredNode {
	now := s.now()

	nodes := graph.Nodes()
	scored := make([]ScoredNode, 0, len(nodes))
	for _, node := range nodes {
		scored = append(scored, ScoredNode{
			Node:  node,
			Score: node.RetrievalScore(now),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Node.ID().String() < scored[j].Node.ID().String()
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// MarkRecalled records a successful recall: the node's memory is
// reinforced and the edge that led to it is touched and strengthened.
func (s *RetrievalService) MarkRecalled(graph *aggregates.Graph, neighbor ScoredNeighbor, reinforcement float64) error {
	if err := graph.ReinforceNode(neighbor.Node.ID(), reinforcement); err != nil {
		return err
	}
	return graph.ReinforceEdge(neighbor.Edge.ID(), reinforcement)
}
