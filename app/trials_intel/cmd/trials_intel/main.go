package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/config"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/logger"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name 是服务的名称
	Name string = "trials_intel"
	// Version 是服务的版本号
	Version string

	id, _ = os.Hostname()
)

// rootOptions 全局命令行参数
type rootOptions struct {
	confPath string
	mock     bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "trials_intel",
		Short:         "Clinical trial intelligence: registry search, AI classification and portfolio insights",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.confPath, "conf", "app/trials_intel/configs/config.yaml", "config path, eg: --conf config.yaml")
	pf.BoolVar(&opts.mock, "mock", true, "use the mock model instead of a live provider")

	cmd.AddCommand(
		newServeCmd(opts),
		newAnalyzeCmd(opts),
		newVisionCmd(opts),
	)
	return cmd
}

// loadConfig 加载配置并初始化全局日志，--mock 仅在显式指定时覆盖配置
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	path := opts.confPath
	if _, err := os.Stat(path); err != nil && !cmd.Flags().Changed("conf") {
		path = ""
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("无法加载配置文件: %w", err)
	}
	if cmd.Flags().Changed("mock") {
		cfg.LLM.UseMock = opts.mock
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, fmt.Errorf("无法初始化日志: %w", err)
	}
	return cfg, nil
}
