package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ppiankov/weitblick/internal/model"
)

// GuideLabels are the section headings of a guided exploration
type GuideLabels struct {
	Progress      string // Format with current phase, phase count and percent
	Answer        string
	Analysis      string
	Perspectives  string
	Opportunities string
	Risks         string
}

var guideLabels = map[model.Language]GuideLabels{
	model.LanguageGerman: {
		Progress:      "Phase %d von %d • %d%% abgeschlossen",
		Answer:        "Antwort",
		Analysis:      "Analyse",
		Perspectives:  "Perspektiven-Analyse",
		Opportunities: "Chancen",
		Risks:         "Riffe & Untiefen",
	},
	model.LanguageEnglish: {
		Progress:      "Phase %d of %d • %d%% complete",
		Answer:        "Answer",
		Analysis:      "Analysis",
		Perspectives:  "Perspective analysis",
		Opportunities: "Opportunities",
		Risks:         "Reefs & shallows",
	},
}

// LabelsFor returns the guide headings for a language, German by default
func LabelsFor(language model.Language) GuideLabels {
	if l, ok := guideLabels[language]; ok {
		return l
	}
	return guideLabels[model.LanguageGerman]
}

// WriteGuide renders a guided exploration in the given format
func WriteGuide(w io.Writer, format Format, snap model.GuideSnapshot) error {
	switch format {
	case FormatJSON:
		return encodeJSON(w, snap)
	case FormatMarkdown:
		return GuideMarkdown(w, snap)
	case FormatHTML:
		return GuideHTML(w, snap)
	default:
		return fmt.Errorf("unknown export format: %s (supported: json, md, html)", format)
	}
}

// GuideMarkdown writes the answered phases as a Markdown document
func GuideMarkdown(w io.Writer, snap model.GuideSnapshot) error {
	bw := bufio.NewWriter(w)
	labels := LabelsFor(snap.Classification.Language)

	fmt.Fprintf(bw, "# Weitblickgenerator\n\n")
	fmt.Fprintf(bw, "> %s\n\n", strings.ReplaceAll(strings.TrimSpace(snap.Idea), "\n", "\n> "))
	fmt.Fprintf(bw, "%s\n\n", ProgressLine(snap))

	for _, a := range snap.Analyses {
		fmt.Fprintf(bw, "## %d. %s\n\n", a.Phase+1, a.Title)
		fmt.Fprintf(bw, "_%s_\n\n", a.Question)
		fmt.Fprintf(bw, "**%s:** %s\n\n", labels.Answer, strings.TrimSpace(a.Answer))
		fmt.Fprintf(bw, "**%s** (%s)\n\n%s\n\n", labels.Analysis, analysisSource(a), strings.TrimSpace(a.Analysis))
		writeMarkdownList(bw, labels.Perspectives, a.Perspectives)
		writeMarkdownList(bw, labels.Opportunities, a.Opportunities)
		writeMarkdownList(bw, labels.Risks, a.Risks)
	}

	return bw.Flush()
}

func writeMarkdownList(w *bufio.Writer, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "### %s\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(w, "- %s\n", item)
	}
	fmt.Fprintln(w)
}

// GuideHTML writes the answered phases as a standalone HTML page
func GuideHTML(w io.Writer, snap model.GuideSnapshot) error {
	labels := LabelsFor(snap.Classification.Language)

	body := element(atom.Body)
	body.AppendChild(elementText(atom.H1, "Weitblickgenerator"))
	body.AppendChild(elementText(atom.Blockquote, strings.TrimSpace(snap.Idea)))
	body.AppendChild(elementText(atom.P, ProgressLine(snap)))

	for _, a := range snap.Analyses {
		section := element(atom.Section)
		section.Attr = []html.Attribute{{Key: "class", Val: "phase"}}
		section.AppendChild(elementText(atom.H2, fmt.Sprintf("%d. %s", a.Phase+1, a.Title)))
		section.AppendChild(elementText(atom.Em, a.Question))
		section.AppendChild(elementText(atom.P, fmt.Sprintf("%s: %s", labels.Answer, strings.TrimSpace(a.Answer))))
		section.AppendChild(elementText(atom.Small, fmt.Sprintf("%s (%s)", labels.Analysis, analysisSource(a))))
		section.AppendChild(elementText(atom.P, strings.TrimSpace(a.Analysis)))
		appendHTMLList(section, labels.Perspectives, a.Perspectives)
		appendHTMLList(section, labels.Opportunities, a.Opportunities)
		appendHTMLList(section, labels.Risks, a.Risks)
		body.AppendChild(section)
	}

	return renderPage(w, "Weitblickgenerator", body)
}

func appendHTMLList(parent *html.Node, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	parent.AppendChild(elementText(atom.H3, heading))
	list := element(atom.Ul)
	for _, item := range items {
		list.AppendChild(elementText(atom.Li, item))
	}
	parent.AppendChild(list)
}

// ProgressLine describes the phase awaiting an answer and the share done
func ProgressLine(snap model.GuideSnapshot) string {
	phase := len(snap.Analyses) + 1
	if phase > len(model.Phases) {
		phase = len(model.Phases)
	}
	return fmt.Sprintf(LabelsFor(snap.Classification.Language).Progress, phase, len(model.Phases), snap.Progress())
}

func analysisSource(a model.PhaseAnalysis) string {
	if a.IsFallback() {
		return "fallback"
	}
	return a.Provider.Label()
}
