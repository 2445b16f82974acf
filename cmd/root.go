package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "danmuz",
	Short: "danmuz webhook ingest service",
	Long:  `danmuz ingests media-server webhooks and dispatches danmaku search tasks`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file")
}

func initConfig() {
	viper.SetConfigFile(cfgFile)

	viper.SetEnvPrefix("DANMUZ")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", ""))
	viper.AutomaticEnv()

	viper.SetDefault("emby.uri", "")
	viper.SetDefault("emby.apiKey", "")
	viper.SetDefault("emby.backoff", time.Millisecond*500)
	viper.SetDefault("emby.maxRetries", 3)

	viper.SetDefault("queue.redisAddr", "localhost:6379")
	viper.SetDefault("queue.name", "default")

	viper.SetDefault("storage.filePath", "danmuz.sqlite")

	viper.SetDefault("server.port", 8080)
}
