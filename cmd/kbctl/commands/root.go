// Package commands 實作 kbctl：檢查知識庫資料並在本機或透過 API 試問。
package commands

import (
	"os"

	"recipe-synthesizer/internal/pkg/common"

	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "kbctl",
	Short: "Recipe knowledge base tool",
	Long: `kbctl validates knowledge base data directories and asks the recipe
synthesizer questions, either locally against a data directory or through a
running API server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		common.InitConsoleLogger(logLevel)
		return nil
	},
}

func init() {
	defaultDir := os.Getenv("DATA_DIR")
	if defaultDir == "" {
		defaultDir = "data"
	}
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", defaultDir, "knowledge base data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
