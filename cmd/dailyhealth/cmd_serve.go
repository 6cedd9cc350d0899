package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dailyhealth/internal/config"
	"dailyhealth/internal/server"
	"dailyhealth/internal/service/runner"
	"dailyhealth/internal/store"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port    int
		devMode bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				a.cfg.Server.Port = port
			}
			if devMode {
				a.cfg.Server.DevMode = true
			}

			dataDir, err := config.EnsureDataDir(a.cfg)
			if err != nil {
				return err
			}
			st, err := store.New(config.DBPath(a.cfg))
			if err != nil {
				return err
			}
			defer st.Close()

			a.logger.Info("data directory ready", zap.String("dir", dataDir))
			srv := server.NewServer(a.cfg, st, runner.New(a.cfg, st, a.logger), a.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "服务端口 (覆盖配置文件)")
	cmd.Flags().BoolVar(&devMode, "dev", false, "开发模式")
	return cmd
}
