package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/weitblick/internal/classify"
)

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <text>",
	Short: "Classify a text by language, level and category",
	Long: `Classify runs the local, offline classifier on a text and prints the
detected language, sophistication level and topic category.

Example:
  weitblick classify "Bewusstsein ist relational"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cls := classify.Classify(strings.Join(args, " "))

		data, err := yaml.Marshal(cls)
		if err != nil {
			return fmt.Errorf("error marshaling classification: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
