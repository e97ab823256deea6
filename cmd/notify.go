package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/10spoon/ppomppurelaymonitor/internal/utils"
	"github.com/10spoon/ppomppurelaymonitor/pkg/analysis"
	"github.com/10spoon/ppomppurelaymonitor/pkg/notify"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send today's latest analysis to the Telegram chat",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNotify()
	},
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}

// runNotify is the only stage whose failure flips the process exit status:
// the run is fatal exactly when not a single result could be delivered in
// full.
func runNotify() error {
	entry, err := analysis.NewStore(analysisDir()).Latest()
	if err != nil {
		return err
	}
	if entry == nil {
		utils.Log.Info("no analysis entry for today, nothing to send")
		return nil
	}

	messages := notify.BuildMessages(entry)
	sender := notify.NewTelegram(
		viper.GetString("telegram.bot_token"),
		viper.GetString("telegram.chat_id"),
	)

	report := notify.Deliver(sender, messages)
	if !report.OK() {
		return fmt.Errorf("notification failed: 0/%d results delivered", report.Total)
	}
	return nil
}
