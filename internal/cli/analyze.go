package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/weitblick/internal/classify"
	"github.com/ppiankov/weitblick/internal/fallback"
	"github.com/ppiankov/weitblick/internal/fanout"
	"github.com/ppiankov/weitblick/internal/model"
	"github.com/ppiankov/weitblick/internal/prompt"
)

var (
	analyzePerspective string
	analyzeTask        string
	analyzeRefresh     bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <text>",
	Short: "Run one analysis against every configured provider",
	Long: `Analyze classifies the text, builds one prompt and sends it to every
provider that has an API key. Each provider's outcome is listed, followed
by the text the selection policy picks (first usable provider in the
order gemini, openai, anthropic, deepseek) or static fallback text.

Example:
  weitblick analyze "Bewusstsein ist relational" --perspective Hegel
  weitblick analyze "Freedom is an illusion" --task antithesis
  weitblick analyze "Freedom is an illusion" --refresh`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzePerspective, "perspective", "p", string(model.PerspectiveKant), "perspective (Kant, Heidegger, Hegel, Nagarjuna, Wissenschaft)")
	analyzeCmd.Flags().StringVar(&analyzeTask, "task", "", "task instead of a perspective (thesis, antithesis, quintessence)")
	analyzeCmd.Flags().BoolVar(&analyzeRefresh, "refresh", false, "drop cached responses for this prompt before calling the providers")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	text := strings.Join(args, " ")
	cls := classify.Classify(text)

	persona, kind, perspective, err := resolvePersona(analyzePerspective, analyzeTask)
	if err != nil {
		return err
	}

	creds, err := a.credentials.Load()
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	req := fanout.Request{
		Text:     text,
		Persona:  persona,
		Level:    cls.Level,
		Language: cls.Language,
	}
	if analyzeRefresh {
		if err := a.orchestrator.Invalidate(req); err != nil {
			return fmt.Errorf("refresh cache: %w", err)
		}
	}
	results, err := a.orchestrator.AnalyzeWithAll(cmd.Context(), req, creds)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Classification: %s / %s / %s\n\n", cls.Language, cls.Level, cls.Category)

	if len(results) == 0 {
		fmt.Fprintf(out, "No provider configured (see 'weitblick keys set').\n\n")
	}
	for _, id := range model.AllProviders {
		outcome, ok := results[id]
		if !ok {
			continue
		}
		mark := "✓"
		if !outcome.Usable() {
			mark = "✗"
		}
		cached := ""
		if outcome.Cached {
			cached = " (cached)"
		}
		fmt.Fprintf(out, "%s %s%s\n%s\n\n", mark, id.Label(), cached, outcome.Text)
	}

	if id, text, ok := results.First(); ok {
		fmt.Fprintf(out, "Selected: %s\n%s\n", id.Label(), text)
		return nil
	}

	fmt.Fprintf(out, "Selected: fallback\n%s\n", fallback.Text(kind, perspective, text, cls.Language, cls.Level))
	return nil
}

// resolvePersona maps the perspective and task flags to a prompt persona
func resolvePersona(perspective, task string) (string, model.NodeKind, model.Perspective, error) {
	switch strings.ToLower(task) {
	case "":
	case prompt.TaskThesis:
		return prompt.TaskThesis, model.KindThesis, "", nil
	case prompt.TaskAntithesis:
		return prompt.TaskAntithesis, model.KindAntithesis, "", nil
	case prompt.TaskQuintessence:
		return prompt.TaskQuintessence, model.KindQuintessence, "", nil
	default:
		return "", "", "", fmt.Errorf("unknown task: %s (supported: thesis, antithesis, quintessence)", task)
	}

	for _, p := range model.AllPerspectives {
		if strings.EqualFold(string(p), perspective) {
			return string(p), model.KindPerspective, p, nil
		}
	}
	return "", "", "", fmt.Errorf("unknown perspective: %s (supported: Kant, Heidegger, Hegel, Nagarjuna, Wissenschaft)", perspective)
}
