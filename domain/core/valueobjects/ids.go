package valueobjects

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// NodeID is a value object representing a unique node identifier.
// Node identifiers are caller-chosen opaque strings ("stress",
// "exam_anxiety"); a random UUID is allocated when the caller omits one.
type NodeID struct {
	value string
}

// NewNodeID creates a new random NodeID
func NewNodeID() NodeID {
	return NodeID{value: uuid.New().String()}
}

// NewNodeIDFromString creates a NodeID from an existing string
func NewNodeIDFromString(id string) (NodeID, error) {
	if id == "" {
		return NodeID{}, errors.New("node ID cannot be empty")
	}
	return NodeID{value: id}, nil
}

// String returns the string representation of the NodeID
func (id NodeID) String() string {
	return id.value
}

// Equals checks if two NodeIDs are equal
func (id NodeID) Equals(other NodeID) bool {
	return id.value == other.value
}

// IsZero checks if the NodeID is the zero value
func (id NodeID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id NodeID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *NodeID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return errors.New("node ID must be a JSON string")
	}
	id.value = value
	return nil
}

// EdgeID is a value object representing a unique edge identifier.
// When the caller omits one, the graph allocates ids from a monotonic
// per-graph counter ("e1", "e2", ...) so that insertion order is
// reproducible across runs.
type EdgeID struct {
	value string
}

// NewEdgeIDFromString creates an EdgeID from an existing string
func NewEdgeIDFromString(id string) (EdgeID, error) {
	if id == "" {
		return EdgeID{}, errors.New("edge ID cannot be empty")
	}
	return EdgeID{value: id}, nil
}

// String returns the string representation of the EdgeID
func (id EdgeID) String() string {
	return id.value
}

// Equals checks if two EdgeIDs are equal
func (id EdgeID) Equals(other EdgeID) bool {
	return id.value == other.value
}

// IsZero checks if the EdgeID is the zero value
func (id EdgeID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id EdgeID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *EdgeID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return errors.New("edge ID must be a JSON string")
	}
	id.value = value
	return nil
}
