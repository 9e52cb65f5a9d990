package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"recipe-synthesizer/internal/client"
	chefCore "recipe-synthesizer/internal/core/chef"
	"recipe-synthesizer/internal/pkg/common"

	"github.com/spf13/cobra"
)

var (
	askServer  string
	askTimeout time.Duration
	askPick    int
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Ask the synthesizer for a recipe",
	Long: `Synthesizes a recipe for a free-form query. Without --server the data
directory is loaded locally; with --server the query is sent to a running API.
When the answer is a list of options, --pick resolves one of them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askServer, "server", "", "base URL of a running API server")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 10*time.Second, "request timeout for --server")
	askCmd.Flags().IntVar(&askPick, "pick", -1, "resolve the given option (0-based) when options are returned")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the raw response as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	if askServer != "" {
		return askRemote(cmd.Context(), cmd.OutOrStdout(), query)
	}
	return askLocal(cmd.OutOrStdout(), query)
}

func askLocal(out io.Writer, query string) error {
	svc, _, err := chefCore.Load(dataDir, nil)
	if err != nil {
		return err
	}

	resp := svc.Synthesize(query)
	if resp.Kind == chefCore.KindOptions && askPick >= 0 {
		if askPick >= len(resp.Options) {
			return fmt.Errorf("option %d out of range, %d available", askPick, len(resp.Options))
		}
		recipe, ok := svc.FindByID(resp.Options[askPick].RecipeID)
		if !ok {
			return fmt.Errorf("recipe %q not found", resp.Options[askPick].RecipeID)
		}
		return printAssembled(out, svc.Assemble(recipe))
	}
	return printResponse(out, resp, "")
}

func askRemote(ctx context.Context, out io.Writer, query string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c := client.New(askServer, askTimeout)

	res, err := c.Synthesize(ctx, query)
	if err != nil {
		return err
	}
	if res.Kind == chefCore.KindOptions && askPick >= 0 && res.Ticket != "" {
		assembled, err := c.Resolve(ctx, res.Ticket, askPick)
		if err != nil {
			return err
		}
		return printAssembled(out, *assembled)
	}
	if askJSON {
		return printJSON(out, res)
	}
	return printResponse(out, res.Response, res.Ticket)
}

func printJSON(out io.Writer, v interface{}) error {
	s, err := common.ToJSON(v)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, s)
	return nil
}

func printResponse(out io.Writer, resp chefCore.Response, ticket string) error {
	if askJSON {
		return printJSON(out, resp)
	}
	fmt.Fprintln(out, resp.Text)
	if resp.Kind == chefCore.KindOptions {
		fmt.Fprintln(out)
		for i, o := range resp.Options {
			fmt.Fprintf(out, "[%d] %s (%s), missing: %s\n", i, o.Title, o.RecipeID, strings.Join(o.MissingNames, ", "))
		}
		if ticket != "" {
			fmt.Fprintf(out, "ticket: %s\n", ticket)
		}
	}
	printTerms(out, resp.FoundTerms)
	return nil
}

func printAssembled(out io.Writer, a chefCore.Assembled) error {
	if askJSON {
		return printJSON(out, a)
	}
	fmt.Fprintln(out, a.Text)
	printTerms(out, a.FoundTerms)
	return nil
}

func printTerms(out io.Writer, terms []string) {
	if len(terms) > 0 {
		fmt.Fprintf(out, "\nterms: %s\n", strings.Join(terms, ", "))
	}
}
