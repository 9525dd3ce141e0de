package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNodeID(t *testing.T) {
	a := NewNodeID()
	b := NewNodeID()

	assert.False(t, a.IsZero())
	assert.NotEqual(t, a.String(), b.String())
}

func TestNewNodeIDFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "plain label", input: "stress"},
		{name: "uuid form", input: "123e4567-e89b-12d3-a456-426614174000"},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewNodeIDFromString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, id.String())
		})
	}
}

func TestNodeIDEquality(t *testing.T) {
	a, err := NewNodeIDFromString("stress")
	require.NoError(t, err)
	b, err := NewNodeIDFromString("stress")
	require.NoError(t, err)
	c, err := NewNodeIDFromString("meditation")
	require.NoError(t, err)

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}

func TestEdgeIDFromString(t *testing.T) {
	id, err := NewEdgeIDFromString("e1")
	require.NoError(t, err)
	assert.Equal(t, "e1", id.String())
	assert.False(t, id.IsZero())

	_, err = NewEdgeIDFromString("")
	assert.Error(t, err)
}

func TestIDJSONRoundTrip(t *testing.T) {
	nodeID, err := NewNodeIDFromString("belief-1")
	require.NoError(t, err)

	raw, err := json.Marshal(nodeID)
	require.NoError(t, err)
	assert.Equal(t, `"belief-1"`, string(raw))

	var decoded NodeID
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, nodeID.Equals(decoded))

	edgeID, err := NewEdgeIDFromString("e42")
	require.NoError(t, err)

	raw, err = json.Marshal(edgeID)
	require.NoError(t, err)

	var decodedEdge EdgeID
	require.NoError(t, json.Unmarshal(raw, &decodedEdge))
	assert.True(t, edgeID.Equals(decodedEdge))
}

func TestIDJSONEscaping(t *testing.T) {
	nodeID, err := NewNodeIDFromString(`turn "quoted" with \backslash`)
	require.NoError(t, err)

	raw, err := json.Marshal(nodeID)
	require.NoError(t, err)
	require.True(t, json.Valid(raw))

	var decoded NodeID
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, nodeID.Equals(decoded))

	edgeID, err := NewEdgeIDFromString(`e"1`)
	require.NoError(t, err)

	raw, err = json.Marshal(edgeID)
	require.NoError(t, err)
	require.True(t, json.Valid(raw))

	var decodedEdge EdgeID
	require.NoError(t, json.Unmarshal(raw, &decodedEdge))
	assert.True(t, edgeID.Equals(decodedEdge))

	// A non-string document is rejected rather than copied verbatim
	var rejected NodeID
	assert.Error(t, json.Unmarshal([]byte(`42`), &rejected))
}
