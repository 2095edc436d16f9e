package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/weitblick/internal/discourse"
	"github.com/ppiankov/weitblick/internal/model"
	"github.com/ppiankov/weitblick/internal/render"
)

var (
	exploreJSON      string
	exploreMD        string
	exploreHTML      string
	exploreStrategy  string
	exploreStructure string
)

// exploreCmd represents the explore command
var exploreCmd = &cobra.Command{
	Use:   "explore [idea]",
	Short: "Explore an idea interactively",
	Long: `Explore starts an interactive session. The idea is classified and
analysed from five perspectives; any node can then be selected and
expanded one level deeper, and each level can be condensed into a
quintessence.

Commands inside the session:
  start <idea>     begin a new exploration
  nodes            list all nodes
  show <n>         print node n in full
  select <n>       select node n
  forward          expand the selected node
  quint [level]    generate the quintessence of a level
  export <file>    write the session (.json, .md or .html)
  reset            discard the session
  help             show this help
  quit             leave

Example:
  weitblick explore "Bewusstsein ist relational" --md session.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExplore,
}

func init() {
	rootCmd.AddCommand(exploreCmd)

	exploreCmd.Flags().StringVar(&exploreJSON, "json", "", "write the final session as JSON")
	exploreCmd.Flags().StringVar(&exploreMD, "md", "", "write the final session as Markdown")
	exploreCmd.Flags().StringVar(&exploreHTML, "html", "", "write the final session as HTML")
	exploreCmd.Flags().StringVar(&exploreStrategy, "strategy", "", "layer strategy (separate, shared)")
	exploreCmd.Flags().StringVar(&exploreStructure, "structure", "", "layer structure (perspectives, dialectic)")
}

func runExplore(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	analysis := a.cfg.Analysis
	if exploreStrategy != "" {
		analysis.Strategy = exploreStrategy
	}
	if exploreStructure != "" {
		analysis.Structure = exploreStructure
	}
	check := *a.cfg
	check.Analysis = analysis
	if err := check.Validate(); err != nil {
		return err
	}

	ex := newExplorer(a.newSession(analysis), cmd.InOrStdin(), cmd.OutOrStdout())

	if len(args) == 1 {
		ex.exec(cmd.Context(), "start "+args[0])
	}
	if err := ex.run(cmd.Context()); err != nil {
		return err
	}

	exports := map[render.Format]string{
		render.FormatJSON:     exploreJSON,
		render.FormatMarkdown: exploreMD,
		render.FormatHTML:     exploreHTML,
	}
	for _, format := range []render.Format{render.FormatJSON, render.FormatMarkdown, render.FormatHTML} {
		if path := exports[format]; path != "" {
			if err := writeExport(path, format, ex.session.Snapshot()); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", path)
		}
	}
	return nil
}

// explorer is the line-oriented front end of a discourse session
type explorer struct {
	session *discourse.Session
	in      io.Reader
	out     io.Writer
}

func newExplorer(session *discourse.Session, in io.Reader, out io.Writer) *explorer {
	return &explorer{session: session, in: in, out: out}
}

// run reads commands until quit, end of input or cancellation
func (e *explorer) run(ctx context.Context) error {
	scanner := bufio.NewScanner(e.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	e.prompt()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if !e.exec(ctx, scanner.Text()) {
			return nil
		}
		e.prompt()
	}
	return scanner.Err()
}

func (e *explorer) prompt() {
	fmt.Fprint(e.out, "weitblick> ")
}

// exec runs one command line and reports whether to continue
func (e *explorer) exec(ctx context.Context, line string) bool {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	var err error
	switch strings.ToLower(verb) {
	case "":
	case "start":
		err = e.start(ctx, rest)
	case "nodes", "ls":
		e.list()
	case "show":
		err = e.show(rest)
	case "select":
		err = e.selectNode(rest)
	case "forward":
		err = e.forward(ctx)
	case "quint":
		err = e.quintessence(ctx, rest)
	case "export":
		err = e.export(rest)
	case "reset":
		err = e.session.Reset()
		if err == nil {
			fmt.Fprintln(e.out, "Session reset.")
		}
	case "help", "?":
		fmt.Fprintln(e.out, "Commands: start <idea>, nodes, show <n>, select <n>, forward, quint [level], export <file>, reset, help, quit")
	case "quit", "exit", "q":
		return false
	default:
		err = fmt.Errorf("unknown command: %s (try 'help')", verb)
	}

	if err != nil {
		fmt.Fprintf(e.out, "Error: %v\n", err)
	}
	return true
}

func (e *explorer) start(ctx context.Context, idea string) error {
	if idea == "" {
		return discourse.ErrEmptyIdea
	}
	// A new idea replaces the current exploration
	if e.session.Idea() != "" {
		if err := e.session.Reset(); err != nil {
			return err
		}
	}

	fmt.Fprintln(e.out, "Analysing...")
	layer, err := e.session.Start(ctx, idea)
	if err != nil {
		return err
	}

	cls := e.session.Classification()
	fmt.Fprintf(e.out, "Classification: %s / %s / %s\n", cls.Language, cls.Level, cls.Category)
	e.printLayer(layer)
	return nil
}

func (e *explorer) forward(ctx context.Context) error {
	fmt.Fprintln(e.out, "Thinking forward...")
	layer, err := e.session.ThinkForward(ctx)
	if err != nil {
		return err
	}
	e.printLayer(layer)
	return nil
}

func (e *explorer) quintessence(ctx context.Context, arg string) error {
	level := 0
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid level: %s", arg)
		}
		level = n
	} else if sel, ok := e.session.Selected(); ok {
		level = sel.Level
	}

	fmt.Fprintf(e.out, "Condensing level %d...\n", level)
	node, err := e.session.GenerateQuintessence(ctx, level)
	if err != nil {
		return err
	}
	e.printLayer([]model.Node{node})
	return nil
}

func (e *explorer) list() {
	nodes := e.session.Nodes()
	if len(nodes) == 0 {
		fmt.Fprintln(e.out, "No nodes yet. Use 'start <idea>'.")
		return
	}

	numbers := numbering(nodes)
	selected, _ := e.session.Selected()
	for i, n := range nodes {
		mark := " "
		if n.ID == selected.ID {
			mark = "*"
		}
		parent := ""
		if n.ParentID != "" {
			parent = fmt.Sprintf(" <- %d", numbers[n.ParentID])
		}
		fmt.Fprintf(e.out, "%s[%d] L%d %s (%s)%s\n", mark, i+1, n.Level, n.Title, source(n), parent)
	}
}

func (e *explorer) show(arg string) error {
	n, err := e.lookup(arg)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s (level %d, %s)\n\n%s\n", n.Title, n.Level, source(n), n.Content)
	return nil
}

func (e *explorer) selectNode(arg string) error {
	n, err := e.lookup(arg)
	if err != nil {
		return err
	}
	if err := e.session.Select(n.ID); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Selected %s (level %d).\n", n.Title, n.Level)
	return nil
}

func (e *explorer) export(path string) error {
	if path == "" {
		return errors.New("usage: export <file.json|file.md|file.html>")
	}
	format, err := formatFor(path)
	if err != nil {
		return err
	}
	if err := writeExport(path, format, e.session.Snapshot()); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "✓ Wrote %s\n", path)
	return nil
}

// lookup resolves a 1-based node number from the 'nodes' listing
func (e *explorer) lookup(arg string) (model.Node, error) {
	nodes := e.session.Nodes()
	i, err := strconv.Atoi(arg)
	if err != nil || i < 1 || i > len(nodes) {
		return model.Node{}, fmt.Errorf("no node %q (see 'nodes')", arg)
	}
	return nodes[i-1], nil
}

func (e *explorer) printLayer(layer []model.Node) {
	numbers := numbering(e.session.Nodes())
	for _, n := range layer {
		fmt.Fprintf(e.out, "\n[%d] %s (%s)\n%s\n", numbers[n.ID], n.Title, source(n), n.Content)
	}
	fmt.Fprintln(e.out)
}

func numbering(nodes []model.Node) map[string]int {
	numbers := make(map[string]int, len(nodes))
	for i, n := range nodes {
		numbers[n.ID] = i + 1
	}
	return numbers
}

func source(n model.Node) string {
	if n.IsFallback() {
		return "fallback"
	}
	return n.Provider.Label()
}

func formatFor(path string) (render.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return render.FormatJSON, nil
	case ".md", ".markdown":
		return render.FormatMarkdown, nil
	case ".html", ".htm":
		return render.FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown export format for %s (use .json, .md or .html)", path)
	}
}

func writeExport(path string, format render.Format, snap model.Snapshot) error {
	return createExport(path, func(w io.Writer) error {
		return render.Write(w, format, snap)
	})
}

// createExport creates path and hands it to write
func createExport(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close export: %w", closeErr)
		}
	}()

	return write(f)
}
