package commands

import (
	"fmt"
	"time"

	"recipe-synthesizer/internal/client"
	chefCore "recipe-synthesizer/internal/core/chef"

	"github.com/spf13/cobra"
)

var cuisinesCmd = &cobra.Command{
	Use:   "cuisines",
	Short: "List the cuisines present in the knowledge base",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			cuisines []string
			err      error
		)
		if askServer != "" {
			cuisines, err = client.New(askServer, askTimeout).Cuisines(cmd.Context())
		} else {
			var svc *chefCore.Service
			svc, _, err = chefCore.Load(dataDir, nil)
			if err == nil {
				cuisines = svc.ListCuisines()
			}
		}
		if err != nil {
			return err
		}
		for _, c := range cuisines {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}
		return nil
	},
}

func init() {
	cuisinesCmd.Flags().StringVar(&askServer, "server", "", "base URL of a running API server")
	cuisinesCmd.Flags().DurationVar(&askTimeout, "timeout", 10*time.Second, "request timeout for --server")
	rootCmd.AddCommand(cuisinesCmd)
}
