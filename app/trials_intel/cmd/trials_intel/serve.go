package main

import (
	"os"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP demo server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			// 初始化日志记录器，包含时间戳、调用者信息、服务ID等上下文
			logger := log.With(log.NewStdLogger(os.Stdout),
				"ts", log.DefaultTimestamp,
				"caller", log.DefaultCaller,
				"service.id", id,
				"service.name", Name,
				"service.version", Version,
			)

			app, cleanup, err := initApp(cfg.LLM, cfg.Concurrency, cfg.Registry, cfg.Session, cfg.DB, cfg.Server, cfg.Vision, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			return app.Run()
		},
	}
}

func newApp(logger log.Logger, hs *http.Server) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(hs),
	)
}
