package render

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ppiankov/weitblick/internal/model"
)

// HTML writes the snapshot as a standalone HTML page. All model text goes
// into text nodes, so html.Render escapes it.
func HTML(w io.Writer, snap model.Snapshot) error {
	f := newForest(snap)

	body := element(atom.Body)
	body.AppendChild(elementText(atom.H1, "Weitblick"))
	body.AppendChild(elementText(atom.Blockquote, strings.TrimSpace(snap.Idea)))

	meta := element(atom.Ul)
	meta.AppendChild(elementText(atom.Li, fmt.Sprintf("Language: %s", snap.Classification.Language)))
	meta.AppendChild(elementText(atom.Li, fmt.Sprintf("Level: %s", snap.Classification.Level)))
	meta.AppendChild(elementText(atom.Li, fmt.Sprintf("Category: %s", snap.Classification.Category)))
	body.AppendChild(meta)

	for _, n := range f.roots() {
		body.AppendChild(htmlNode(f, n))
	}

	return renderPage(w, "Weitblick", body)
}

// renderPage wraps body in a document with a title and serializes it
func renderPage(w io.Writer, title string, body *html.Node) error {
	head := element(atom.Head)
	charset := element(atom.Meta)
	charset.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	head.AppendChild(charset)
	head.AppendChild(elementText(atom.Title, title))

	root := element(atom.Html)
	root.AppendChild(head)
	root.AppendChild(body)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(root)

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func htmlNode(f *forest, n model.Node) *html.Node {
	section := element(atom.Section)
	section.Attr = []html.Attribute{
		{Key: "id", Val: "node-" + n.ID},
		{Key: "class", Val: "node " + string(n.Kind)},
	}

	section.AppendChild(elementText(atom.H2, n.Title))
	section.AppendChild(elementText(atom.Small, fmt.Sprintf("level %d, %s", n.Level, sourceLabel(n))))

	for _, para := range strings.Split(strings.TrimSpace(n.Content), "\n\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}
		section.AppendChild(elementText(atom.P, para))
	}

	if len(n.SourceIDs) > 0 {
		list := element(atom.Ul)
		list.Attr = []html.Attribute{{Key: "class", Val: "sources"}}
		for _, id := range n.SourceIDs {
			item := element(atom.Li)
			link := elementText(atom.A, f.titleOf(id))
			link.Attr = []html.Attribute{{Key: "href", Val: "#node-" + id}}
			item.AppendChild(link)
			list.AppendChild(item)
		}
		section.AppendChild(list)
	}

	for _, child := range f.children[n.ID] {
		section.AppendChild(htmlNode(f, child))
	}
	return section
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func elementText(a atom.Atom, text string) *html.Node {
	n := element(a)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}
