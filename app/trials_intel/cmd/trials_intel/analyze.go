package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/engine"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/llm/factory"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/logger"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/registry"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/storage"
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		condition  string
		maxResults int
		outputName string
		html       bool
		samples    int
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the batch pipeline: search, classify, summarize and save results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if maxResults <= 0 {
				maxResults = cfg.Registry.MaxResults
			}

			ctx := context.Background()
			m, err := factory.NewModel(ctx, cfg.LLM, cfg.Concurrency)
			if err != nil {
				return fmt.Errorf("初始化模型失败: %w", err)
			}

			// 如果配置了数据库信息，则尝试连接
			var store *storage.Storage
			if cfg.DB.Host != "" {
				s, err := storage.NewStorage(cfg.DB)
				if err != nil {
					logger.Log.Errorf("无法连接数据库: %v. 将仅生成文件。", err)
				} else {
					store = s
					defer store.Close()
					if err := store.InitSchema(ctx); err != nil {
						logger.Log.Errorf("初始化表结构失败: %v", err)
					}
				}
			} else {
				logger.Log.Info("未配置数据库信息，跳过数据库连接")
			}

			searcher := registry.NewClient(cfg.Registry.BaseURL, cfg.Registry.Timeout, cfg.Registry.Statuses)
			eng := engine.NewEngine(searcher, m, store, cfg.Output.Dir, cfg.LLM.UseMock)
			res, err := eng.Run(ctx, engine.RunOptions{
				Condition:  condition,
				MaxResults: maxResults,
				OutputName: outputName,
				HTML:       html,
				ProgressCallback: func(status string, p int) {
					logger.Log.Infof("[%3d%%] %s", p, status)
				},
			})
			if err != nil {
				return err
			}

			printSummary(cmd, res, samples)
			return nil
		},
	}

	cmd.Flags().StringVar(&condition, "condition", "CAR-T Cell Therapy", "condition to search for")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "maximum number of trials (default: registry.max_results)")
	cmd.Flags().StringVar(&outputName, "output", "production_analysis.json", "output file name under output.dir")
	cmd.Flags().BoolVar(&html, "html", false, "also render an HTML report")
	cmd.Flags().IntVar(&samples, "samples", 3, "number of sample classifications to print")
	return cmd
}

func printSummary(cmd *cobra.Command, res *engine.Result, samples int) {
	out := cmd.OutOrStdout()
	meta := res.Output.Metadata
	fmt.Fprintf(out, "Analyzed %d trials for %q (%s mode, %s)\n", meta.TotalTrials, meta.Condition, meta.Mode, meta.Model)
	fmt.Fprintf(out, "Results: %s\n", res.JSONPath)
	if res.HTMLPath != "" {
		fmt.Fprintf(out, "Report:  %s\n", res.HTMLPath)
	}

	for i, t := range res.Output.Trials {
		if i >= samples {
			break
		}
		fmt.Fprintf(out, "\n%d. %s [%s]\n", i+1, t.Title, t.NCTID)
		fmt.Fprintf(out, "   Area: %s | Innovation: %s | Potential: %s\n",
			t.Analysis.TherapeuticArea, t.Analysis.InnovationLevel, t.Analysis.CommercialPotential)
		if len(t.Analysis.KeyInsights) > 0 {
			fmt.Fprintf(out, "   %s\n", strings.Join(t.Analysis.KeyInsights, "; "))
		}
	}
}
