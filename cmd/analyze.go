package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/10spoon/ppomppurelaymonitor/internal/utils"
	"github.com/10spoon/ppomppurelaymonitor/pkg/analysis"
	"github.com/10spoon/ppomppurelaymonitor/pkg/scrapelog"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the LLM trend analysis over the recent scrape corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		recent, _ := cmd.Flags().GetInt("recent")
		hours, _ := cmd.Flags().GetInt("hours")
		mode, _ := cmd.Flags().GetString("mode")
		return runAnalyze(cmd, recent, hours, mode)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().Int("recent", 0, "Aggregate the last N scrape snapshots (default: analysis.recent_scrapes)")
	analyzeCmd.Flags().Int("hours", 0, "Aggregate snapshots collected within the last N hours instead of counting snapshots")
	analyzeCmd.Flags().String("mode", "", "Model strategy: compare (all models) or fallback (first success wins)")
}

func runAnalyze(cmd *cobra.Command, recent, hours int, mode string) error {
	logs := scrapelog.NewStore(logsDir())

	var posts []scrapelog.Post
	var err error
	if hours > 0 {
		posts, err = logs.AggregateSince(time.Duration(hours) * time.Hour)
	} else {
		if recent <= 0 {
			recent = viper.GetInt("analysis.recent_scrapes")
		}
		posts, err = logs.AggregateRecent(recent)
	}
	if err != nil {
		return err
	}
	utils.Log.Infof("aggregated %d posts for analysis", len(posts))

	orch := newOrchestrator(mode)
	path, err := orch.Run(cmd.Context(), analysis.NewStore(analysisDir()), posts)
	if err != nil {
		return err
	}
	utils.Log.Infof("analysis saved to %s", path)
	return nil
}

// newOrchestrator wires the orchestrator from config. A missing API key
// leaves the caller nil so the run records an error entry instead of
// attempting network calls.
func newOrchestrator(mode string) *analysis.Orchestrator {
	orch := analysis.NewOrchestrator(nil)

	if or := analysis.NewOpenRouter(viper.GetString("openrouter.api_key")); or != nil {
		orch.Caller = or
		orch.Lister = or
	}
	if models := viper.GetStringSlice("openrouter.models"); len(models) > 0 {
		orch.Models = models
	}

	if mode == "" {
		mode = viper.GetString("analysis.mode")
	}
	switch mode {
	case "", string(analysis.ModeCompare):
		orch.Mode = analysis.ModeCompare
	case string(analysis.ModeFallback):
		orch.Mode = analysis.ModeFallback
	default:
		utils.Log.Warnf("unknown analysis mode %q, using %s", mode, analysis.ModeCompare)
		orch.Mode = analysis.ModeCompare
	}
	return orch
}
