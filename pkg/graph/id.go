package graph

import (
	"crypto/sha256"
	"encoding/hex"
)

// NodeID is a content-addressed identifier for graph nodes, derived from
// the node's path in the design script (e.g. "defpart/rotor-blade").
type NodeID string

// ZeroID is the empty NodeID.
const ZeroID NodeID = ""

// NewNodeID derives a stable NodeID from path.
func NewNodeID(path string) NodeID {
	sum := sha256.Sum256([]byte(path))
	return NodeID(hex.EncodeToString(sum[:]))
}

// IsZero reports whether id is unset.
func (id NodeID) IsZero() bool {
	return id == ZeroID
}

// Short returns the first 8 hex digits, for messages.
func (id NodeID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

func (id NodeID) String() string {
	return string(id)
}
