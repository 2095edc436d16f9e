package model

import "time"

// NodeKind classifies a discourse node
type NodeKind string

const (
	KindThesis       NodeKind = "thesis"
	KindAntithesis   NodeKind = "antithesis"
	KindQuintessence NodeKind = "quintessence"
	KindPerspective  NodeKind = "perspective"
)

// Node is one entry of the discourse forest. Nodes are never mutated after
// creation; ChildIDs is filled in by the session when a node is read.
type Node struct {
	ID          string      `json:"id"`
	Kind        NodeKind    `json:"kind"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	Category    Category    `json:"category"`
	Level       int         `json:"level"`                 // Depth in the expansion tree
	ParentID    string      `json:"parent_id,omitempty"`   // Empty for roots and quintessence nodes
	ChildIDs    []string    `json:"child_ids,omitempty"`   // Derived from ParentID links
	Perspective Perspective `json:"perspective,omitempty"` // Set for perspective nodes
	SourceIDs   []string    `json:"source_ids,omitempty"`  // Every contributor of a quintessence
	Provider    ProviderID  `json:"provider,omitempty"`    // Empty when fallback text was used
	CreatedAt   time.Time   `json:"created_at"`
}

// IsFallback reports whether the node content came from the fallback generator
func (n Node) IsFallback() bool {
	return n.Provider == ""
}

// Snapshot is a read-only copy of a session
type Snapshot struct {
	Idea           string         `json:"idea"`
	Classification Classification `json:"classification"`
	Nodes          []Node         `json:"nodes"` // Creation order
	SelectedID     string         `json:"selected_id,omitempty"`
	InFlight       bool           `json:"in_flight"`
}

// Roots returns the nodes without a parent, in creation order
func (s Snapshot) Roots() []Node {
	var roots []Node
	for _, n := range s.Nodes {
		if n.ParentID == "" {
			roots = append(roots, n)
		}
	}
	return roots
}

// Lookup returns the node with the given id
func (s Snapshot) Lookup(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
