package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qrscan/qrscan/internal/config"
	"github.com/qrscan/qrscan/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort         int
	serveWatchConfig  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the qrscan HTTP decode server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		srv := server.New(cfg)
		if err := srv.Serve(); err != nil {
			return fmt.Errorf("starting server: %w", err)
		}

		if serveWatchConfig {
			loader := GetConfigLoader()
			loader.WatchConfig(func(updated *config.Config) {
				slog.Info("config reloaded")
				srv.UpdateConfig(updated)
			})
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "HTTP listen port")
	serveCmd.Flags().BoolVar(&serveWatchConfig, "watch-config", false, "reload configuration on file change")
}
