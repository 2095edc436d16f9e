package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/ppiankov/weitblick/internal/model"
	"github.com/ppiankov/weitblick/internal/render"
	"github.com/ppiankov/weitblick/internal/worker"
)

var (
	batchConcurrency int
	outputDir        string
	batchTimeout     time.Duration
	batchQuint       bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Explore many ideas from a file in parallel",
	Long: `Batch explores every idea of a file (one per line) without interaction:
- Empty lines and lines starting with # are skipped, duplicates removed
- Each idea gets its own session and level-0 layer
- Ideas run in parallel with a configurable worker count
- A JSON and a Markdown export is written per idea

Example:
  weitblick batch ideas.txt
  weitblick batch ideas.txt --concurrency 2 --output-dir ./weitblick-sessions --quint`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 2, "number of ideas explored at once")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./weitblick-sessions", "output directory for session exports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchQuint, "quint", false, "also generate the level-0 quintessence")
}

// ideaResult is the outcome of exploring one idea
type ideaResult struct {
	index int
	idea  string
	snap  model.Snapshot
	err   error
}

// GetError returns the exploration error, if any
func (r *ideaResult) GetError() error {
	return r.err
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ideas, err := ReadIdeas(file)
	if err != nil {
		return fmt.Errorf("read ideas: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Ideas:        %d\n", len(ideas))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", batchConcurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	jobs := make([]worker.Job, 0, len(ideas))
	for i, idea := range ideas {
		jobs = append(jobs, worker.Func(func(ctx context.Context) worker.Result {
			return a.exploreIdea(ctx, i, idea, batchQuint)
		}))
	}

	raw := worker.RunAll(ctx, batchConcurrency, jobs)
	results := make([]*ideaResult, 0, len(raw))
	for _, r := range raw {
		results = append(results, r.(*ideaResult))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })

	successCount := 0
	failureCount := 0
	for _, result := range results {
		if result.err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.idea, result.err)
			continue
		}

		slug := fmt.Sprintf("%02d-%s", result.index+1, sanitizeFilename(result.idea))
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := writeExport(jsonPath, render.FormatJSON, result.snap); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.idea, err)
			continue
		}
		if err := writeExport(mdPath, render.FormatMarkdown, result.snap); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.idea, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (%d nodes, %d from providers)\n", result.idea, len(result.snap.Nodes), providerNodes(result.snap))
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d ideas\n", len(ideas))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", len(ideas)-successCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 || len(results) < len(ideas) {
		return fmt.Errorf("%d of %d ideas failed", len(ideas)-successCount, len(ideas))
	}
	return nil
}

// exploreIdea runs one non-interactive session
func (a *app) exploreIdea(ctx context.Context, index int, idea string, quint bool) *ideaResult {
	session := a.newSession(a.cfg.Analysis)
	result := &ideaResult{index: index, idea: idea}

	if _, err := session.Start(ctx, idea); err != nil {
		result.err = err
		return result
	}
	if quint {
		if _, err := session.GenerateQuintessence(ctx, 0); err != nil {
			result.err = err
			return result
		}
	}

	result.snap = session.Snapshot()
	return result
}

func providerNodes(snap model.Snapshot) int {
	count := 0
	for _, n := range snap.Nodes {
		if !n.IsFallback() {
			count++
		}
	}
	return count
}

// ReadIdeas reads ideas from a file (one per line)
func ReadIdeas(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var ideas []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Deduplicate ideas
		if !seen[line] {
			seen[line] = true
			ideas = append(ideas, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return ideas, nil
}

// maxSlugRunes bounds the idea part of export file names
const maxSlugRunes = 40

// sanitizeFilename turns an idea into a short, portable file name part
func sanitizeFilename(s string) string {
	var b strings.Builder
	dash := false
	count := 0
	for _, r := range strings.ToLower(s) {
		if count >= maxSlugRunes {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			count++
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
			count++
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "idea"
	}
	return slug
}
