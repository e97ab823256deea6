package cmd

import (
	"github.com/spf13/cobra"

	"github.com/10spoon/ppomppurelaymonitor/internal/utils"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full scrape → analyze → notify pipeline once",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Scrape and analyze degrade to partial results; something is
		// always recorded. Only the notify stage decides the exit code.
		if err := runScrape(); err != nil {
			utils.Log.Errorf("scrape stage failed: %v", err)
		}
		if err := runAnalyze(cmd, 0, 0, ""); err != nil {
			utils.Log.Errorf("analyze stage failed: %v", err)
		}
		return runNotify()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
