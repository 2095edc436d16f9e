package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/weitblick/internal/model"
)

// Markdown writes the snapshot as a nested Markdown document
func Markdown(w io.Writer, snap model.Snapshot) error {
	bw := bufio.NewWriter(w)
	f := newForest(snap)

	fmt.Fprintf(bw, "# Weitblick\n\n")
	fmt.Fprintf(bw, "> %s\n\n", strings.ReplaceAll(strings.TrimSpace(snap.Idea), "\n", "\n> "))
	fmt.Fprintf(bw, "- Language: %s\n", snap.Classification.Language)
	fmt.Fprintf(bw, "- Level: %s\n", snap.Classification.Level)
	fmt.Fprintf(bw, "- Category: %s\n\n", snap.Classification.Category)

	for _, n := range f.roots() {
		writeMarkdownNode(bw, f, n, 2)
	}

	return bw.Flush()
}

func writeMarkdownNode(w *bufio.Writer, f *forest, n model.Node, depth int) {
	if depth > 6 {
		depth = 6
	}
	fmt.Fprintf(w, "%s %s (level %d, %s)\n\n", strings.Repeat("#", depth), n.Title, n.Level, sourceLabel(n))
	fmt.Fprintf(w, "%s\n\n", strings.TrimSpace(n.Content))

	if len(n.SourceIDs) > 0 {
		titles := make([]string, 0, len(n.SourceIDs))
		for _, id := range n.SourceIDs {
			titles = append(titles, f.titleOf(id))
		}
		fmt.Fprintf(w, "_Sources: %s_\n\n", strings.Join(titles, ", "))
	}

	for _, child := range f.children[n.ID] {
		writeMarkdownNode(w, f, child, depth+1)
	}
}
