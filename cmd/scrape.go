package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/10spoon/ppomppurelaymonitor/internal/utils"
	"github.com/10spoon/ppomppurelaymonitor/pkg/board"
	"github.com/10spoon/ppomppurelaymonitor/pkg/scrapelog"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape the relay board and append the new posts to today's log",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape()
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape() error {
	fetcher := board.NewFetcher(viper.GetString("board.url"))
	raw, err := fetcher.Fetch()
	if err != nil {
		return err
	}

	store := scrapelog.NewStore(logsDir())
	latest, err := store.LatestSnapshot()
	if err != nil {
		return err
	}

	fresh := scrapelog.NewPosts(raw, latest)
	utils.Log.Infof("collected %d posts (%d new)", len(raw), len(fresh))

	path, err := store.AppendSnapshot(fresh, len(raw))
	if err != nil {
		return err
	}
	utils.Log.Infof("snapshot saved to %s", path)

	for i, p := range fresh {
		if i == 5 {
			break
		}
		utils.Log.Infof("  - %s", p.Title)
	}
	return nil
}
