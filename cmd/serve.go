package cmd

import (
	"context"
	"net/http"

	"github.com/danmuhq/danmuz/config"
	"github.com/danmuhq/danmuz/pkg/dispatch"
	"github.com/danmuhq/danmuz/pkg/emby"
	mhttp "github.com/danmuhq/danmuz/pkg/http"
	"github.com/danmuhq/danmuz/pkg/logger"
	"github.com/danmuhq/danmuz/pkg/metadata"
	"github.com/danmuhq/danmuz/pkg/storage/sqlite"
	"github.com/danmuhq/danmuz/pkg/webhook"
	"github.com/danmuhq/danmuz/server"
	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the webhook ingest server",
	Long:  `start the webhook ingest server`,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.Get()

		cfg, err := config.New(viper.GetViper())
		if err != nil {
			log.Fatal("failed to read configurations", zap.Error(err))
		}

		var embyClient emby.ClientInterface
		if cfg.Emby.URI != "" {
			client, err := emby.New(cfg.Emby.URI, cfg.Emby.APIKey,
				emby.WithHTTPClient(mhttp.NewRateLimitedHTTPClient(
					mhttp.WithHTTPClient(&http.Client{Timeout: emby.DefaultTimeout}),
					mhttp.WithBaseBackoff(cfg.Emby.BaseBackoff),
					mhttp.WithMaxRetries(cfg.Emby.MaxRetries),
				)),
			)
			if err != nil {
				log.Fatal("failed to create emby client", zap.Error(err))
			}
			embyClient = client
			log.Info("metadata enrichment enabled", zap.String("uri", cfg.Emby.URI))
		} else {
			log.Info("metadata enrichment disabled, no emby uri configured")
		}

		store, err := sqlite.New(cfg.Storage.FilePath)
		if err != nil {
			log.Fatal("failed to create storage connection", zap.Error(err))
		}

		err = store.Init(context.TODO())
		if err != nil {
			log.Fatal("failed to init database", zap.Error(err))
		}

		queue := dispatch.NewQueue(cfg.Queue.RedisAddr, dispatch.WithQueueName(cfg.Queue.Name))
		defer queue.Close()

		enhancer := metadata.NewEnhancer(embyClient)
		service := webhook.NewService(enhancer, queue, store)
		server := server.New(log, service, store)
		log.Error(server.Serve(cfg.Server.Port))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
