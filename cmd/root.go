package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/10spoon/ppomppurelaymonitor/internal/utils"
	"github.com/10spoon/ppomppurelaymonitor/pkg/board"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ppomon",
	Short: "Scrapes the ppomppu relay board, analyzes deal trends with LLMs and posts them to Telegram.",
	Long: `ppomon periodically collects the ppomppu relay (referral) board, keeps an
append-only per-day log of new posts, asks one or more OpenRouter models for a
trend analysis and an SNS snippet, and delivers the results to a Telegram chat.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ppomon.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("datadir", "", "Directory holding the logs/ and analysis/ day files (default: ./data)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".ppomon")
		viper.SetConfigType("yaml")
	}

	// OPENROUTER_API_KEY, TELEGRAM_BOT_TOKEN, TELEGRAM_CHAT_ID etc. map onto
	// the dotted config keys.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			home, _ := homedir.Dir()
			configPath := home + "/.ppomon.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default values for all keys
	viper.SetDefault("board.url", board.DefaultURL)
	viper.SetDefault("data.dir", "data")
	viper.SetDefault("openrouter.api_key", "")
	viper.SetDefault("openrouter.models", []string{})
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.chat_id", "")
	viper.SetDefault("analysis.recent_scrapes", 6)
	viper.SetDefault("analysis.mode", "compare")
	viper.SetDefault("schedule.scrape_every_hours", 4)
	viper.SetDefault("schedule.notify_at", "21:00")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// dataDir resolves the data directory from the flag or config.
func dataDir() string {
	if dir, _ := rootCmd.PersistentFlags().GetString("datadir"); dir != "" {
		return dir
	}
	return viper.GetString("data.dir")
}

func logsDir() string {
	return filepath.Join(dataDir(), "logs")
}

func analysisDir() string {
	return filepath.Join(dataDir(), "analysis")
}
