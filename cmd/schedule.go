package cmd

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/10spoon/ppomppurelaymonitor/internal/utils"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Keep running: scrape periodically, analyze and notify once a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSchedule(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command) error {
	c := cron.New(cron.WithLocation(utils.KST))

	every := viper.GetInt("schedule.scrape_every_hours")
	if every < 1 {
		every = 4
	}
	if _, err := c.AddFunc(fmt.Sprintf("0 */%d * * *", every), func() {
		if err := runScrape(); err != nil {
			utils.Log.Errorf("scheduled scrape failed: %v", err)
		}
	}); err != nil {
		return err
	}

	notifyAt, err := time.Parse("15:04", viper.GetString("schedule.notify_at"))
	if err != nil {
		return fmt.Errorf("invalid schedule.notify_at: %w", err)
	}
	if _, err := c.AddFunc(fmt.Sprintf("%d %d * * *", notifyAt.Minute(), notifyAt.Hour()), func() {
		if err := runAnalyze(cmd, 0, 0, ""); err != nil {
			utils.Log.Errorf("scheduled analyze failed: %v", err)
		}
		if err := runNotify(); err != nil {
			// The scheduler keeps running; a failed delivery only fails
			// one-shot runs.
			utils.Log.Errorf("scheduled notify failed: %v", err)
		}
	}); err != nil {
		return err
	}

	utils.Log.Infof("scheduler started: scrape every %dh, analyze+notify daily at %s KST",
		every, notifyAt.Format("15:04"))
	c.Run()
	return nil
}
