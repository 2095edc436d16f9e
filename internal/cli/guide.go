package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/weitblick/internal/discourse"
	"github.com/ppiankov/weitblick/internal/model"
	"github.com/ppiankov/weitblick/internal/render"
)

var (
	guideJSON string
	guideMD   string
	guideHTML string
)

// guideCmd represents the guide command
var guideCmd = &cobra.Command{
	Use:   "guide [idea]",
	Short: "Walk an idea through the four guided phases",
	Long: `Guide asks four questions about an idea, one per phase:
  1. Kernhypothese           the axiom the idea rests on
  2. Direkte Problemlösung   the problem it solves directly
  3. Kaskade der Möglichkeiten  what becomes possible afterwards
  4. Resilienz-Prüfung       risks, misuse and the ethical core

Every answer is analysed by the first usable provider, or by static text
when none is configured, and annotated with perspectives, opportunities
and risks.

Type /reset to start over with a new idea and /quit to leave.

Example:
  weitblick guide "Bewusstsein ist relational" --md guide.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGuide,
}

func init() {
	rootCmd.AddCommand(guideCmd)

	guideCmd.Flags().StringVar(&guideJSON, "json", "", "write the answered phases as JSON")
	guideCmd.Flags().StringVar(&guideMD, "md", "", "write the answered phases as Markdown")
	guideCmd.Flags().StringVar(&guideHTML, "html", "", "write the answered phases as HTML")
}

func runGuide(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	guide := a.newGuide()
	runner := newGuideRunner(guide, cmd.InOrStdin(), cmd.OutOrStdout())

	idea := ""
	if len(args) == 1 {
		idea = args[0]
	}
	if err := runner.run(cmd.Context(), idea); err != nil {
		return err
	}

	exports := map[render.Format]string{
		render.FormatJSON:     guideJSON,
		render.FormatMarkdown: guideMD,
		render.FormatHTML:     guideHTML,
	}
	for _, format := range []render.Format{render.FormatJSON, render.FormatMarkdown, render.FormatHTML} {
		if path := exports[format]; path != "" {
			snap := guide.Snapshot()
			err = createExport(path, func(w io.Writer) error {
				return render.WriteGuide(w, format, snap)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", path)
		}
	}
	return nil
}

// guideRunner asks the phase questions on a line-oriented terminal
type guideRunner struct {
	guide *discourse.Guide
	in    io.Reader
	out   io.Writer
}

func newGuideRunner(guide *discourse.Guide, in io.Reader, out io.Writer) *guideRunner {
	return &guideRunner{guide: guide, in: in, out: out}
}

// run reads the idea and one answer per phase until every phase is
// answered, the input ends, /quit is typed or ctx is cancelled
func (r *guideRunner) run(ctx context.Context, idea string) error {
	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if strings.TrimSpace(idea) != "" {
		if err := r.start(idea); err != nil {
			return err
		}
	} else {
		fmt.Fprint(r.out, "Idee / idea: ")
	}

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(line) {
		case "/quit", "/exit":
			return nil
		case "/reset":
			if err := r.guide.Reset(); err != nil {
				fmt.Fprintf(r.out, "Error: %v\n", err)
				continue
			}
			fmt.Fprint(r.out, "Idee / idea: ")
			continue
		}

		if r.guide.Snapshot().Idea == "" {
			if err := r.start(line); err != nil {
				fmt.Fprintf(r.out, "Error: %v\n", err)
				fmt.Fprint(r.out, "Idee / idea: ")
			}
			continue
		}

		done, err := r.answer(ctx, line)
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			fmt.Fprint(r.out, "> ")
			continue
		}
		if done {
			return nil
		}
	}
	return scanner.Err()
}

func (r *guideRunner) start(idea string) error {
	if err := r.guide.Start(idea); err != nil {
		return err
	}
	snap := r.guide.Snapshot()
	cls := snap.Classification
	fmt.Fprintf(r.out, "Classification: %s / %s / %s\n", cls.Language, cls.Level, cls.Category)
	r.ask()
	return nil
}

// answer records one answer and reports whether the last phase is done
func (r *guideRunner) answer(ctx context.Context, line string) (bool, error) {
	if line == "" {
		return false, discourse.ErrEmptyAnswer
	}
	language := r.guide.Snapshot().Classification.Language
	if language == model.LanguageEnglish {
		fmt.Fprintln(r.out, "Analysing...")
	} else {
		fmt.Fprintln(r.out, "Analysiere...")
	}

	a, err := r.guide.Answer(ctx, line)
	if err != nil {
		return false, err
	}
	r.printAnalysis(a, language)

	if r.guide.Complete() {
		if language == model.LanguageEnglish {
			fmt.Fprintln(r.out, "Analysis complete.")
		} else {
			fmt.Fprintln(r.out, "Analyse abgeschlossen.")
		}
		return true, nil
	}
	r.ask()
	return false, nil
}

func (r *guideRunner) ask() {
	_, phase, err := r.guide.Current()
	if err != nil {
		return
	}
	snap := r.guide.Snapshot()

	language := snap.Classification.Language
	fmt.Fprintf(r.out, "\n%s\n", render.ProgressLine(snap))
	fmt.Fprintf(r.out, "%s (%s)\n", phase.TitleIn(language), phase.DescriptionIn(language))
	fmt.Fprintf(r.out, "%s\n> ", phase.QuestionIn(language))
}

func (r *guideRunner) printAnalysis(a model.PhaseAnalysis, language model.Language) {
	labels := render.LabelsFor(language)

	source := "fallback"
	if !a.IsFallback() {
		source = a.Provider.Label()
	}
	fmt.Fprintf(r.out, "\n%s (%s)\n%s\n", labels.Analysis, source, a.Analysis)

	for _, section := range []struct {
		heading string
		items   []string
	}{
		{labels.Perspectives, a.Perspectives},
		{labels.Opportunities, a.Opportunities},
		{labels.Risks, a.Risks},
	} {
		if len(section.items) == 0 {
			continue
		}
		fmt.Fprintf(r.out, "%s:\n", section.heading)
		for _, item := range section.items {
			fmt.Fprintf(r.out, "  - %s\n", item)
		}
	}
}
