// Package render exports a session snapshot as JSON, Markdown or HTML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/ppiankov/weitblick/internal/model"
)

// Format names an export format
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// Write renders the snapshot in the given format
func Write(w io.Writer, format Format, snap model.Snapshot) error {
	switch format {
	case FormatJSON:
		return JSON(w, snap)
	case FormatMarkdown:
		return Markdown(w, snap)
	case FormatHTML:
		return HTML(w, snap)
	default:
		return fmt.Errorf("unknown export format: %s (supported: json, md, html)", format)
	}
}

// JSON writes the snapshot as indented JSON
func JSON(w io.Writer, snap model.Snapshot) error {
	return encodeJSON(w, snap)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// forest orders a snapshot for nested output
type forest struct {
	snap     model.Snapshot
	children map[string][]model.Node
}

func newForest(snap model.Snapshot) *forest {
	f := &forest{snap: snap, children: make(map[string][]model.Node)}
	for _, n := range snap.Nodes {
		if n.ParentID != "" {
			f.children[n.ParentID] = append(f.children[n.ParentID], n)
		}
	}
	return f
}

// roots returns parentless nodes grouped by level, creation order within a level
func (f *forest) roots() []model.Node {
	roots := f.snap.Roots()
	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].Level < roots[j].Level
	})
	return roots
}

// titleOf returns a display title for a node id
func (f *forest) titleOf(id string) string {
	if n, ok := f.snap.Lookup(id); ok {
		return n.Title
	}
	return id
}

func sourceLabel(n model.Node) string {
	if n.IsFallback() {
		return "fallback"
	}
	return n.Provider.Label()
}
