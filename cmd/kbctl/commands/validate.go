package commands

import (
	"fmt"
	"os"

	chefCore "recipe-synthesizer/internal/core/chef"
	"recipe-synthesizer/internal/core/knowledge"

	"github.com/spf13/cobra"
)

var validateStrict bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load a data directory and report data defects",
	Long: `Loads every fragment of the data directory the same way the server does.
Fatal problems (no ingredients, no recipes, no phrase bank, unparsable files)
exit non-zero. Data defects such as unknown trigger keys or placeholders are
printed as warnings.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "exit non-zero when there are warnings")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	files, err := knowledge.SortedNames(os.DirFS(dataDir))
	if err != nil {
		return fmt.Errorf("read data dir: %w", err)
	}
	for _, f := range files {
		fmt.Fprintf(out, "  fragment %s\n", f)
	}

	svc, report, err := chefCore.Load(dataDir, nil)
	if err != nil {
		return err
	}

	stats := svc.KnowledgeBase().Stats()
	fmt.Fprintf(out, "ingredients: %d, recipes: %d, terms: %d, cuisines: %d, categories: %d\n",
		stats.Ingredients, stats.Recipes, stats.Terms, stats.Cuisines, stats.Categories)

	for _, w := range report.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	if len(report.Warnings) == 0 {
		fmt.Fprintln(out, "ok")
		return nil
	}
	if validateStrict {
		return fmt.Errorf("%d warnings", len(report.Warnings))
	}
	return nil
}
