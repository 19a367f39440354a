package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/llm"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/llm/factory"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/vision"
)

func newVisionCmd(opts *rootOptions) *cobra.Command {
	var survival, ae, results string

	cmd := &cobra.Command{
		Use:   "vision",
		Short: "Extract findings from a survival curve, an adverse-event table and a results document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if survival == "" {
				survival = cfg.Vision.SurvivalImage
			}
			if ae == "" {
				ae = cfg.Vision.AdverseEventImage
			}
			if results == "" {
				results = cfg.Vision.ResultsDocument
			}

			ctx := context.Background()
			m, err := factory.NewModel(ctx, cfg.LLM, cfg.Concurrency)
			if err != nil {
				return fmt.Errorf("初始化模型失败: %w", err)
			}
			ex := vision.New(m, cfg.LLM.UseMock)

			load := func(path string) (llm.Image, error) {
				if ex.Mock() {
					return llm.Image{}, nil
				}
				return vision.LoadImage(path)
			}

			out := map[string]any{}
			if img, err := load(survival); err != nil {
				out["survival_analysis"] = map[string]string{"error": err.Error()}
			} else {
				out["survival_analysis"] = ex.AnalyzeSurvivalCurve(ctx, img)
			}
			if img, err := load(ae); err != nil {
				out["safety_analysis"] = map[string]string{"error": err.Error()}
			} else {
				out["safety_analysis"] = ex.AnalyzeAdverseEventsTable(ctx, img)
			}
			if doc, err := load(results); err != nil {
				out["trial_results"] = map[string]string{"error": err.Error()}
			} else {
				out["trial_results"] = ex.ExtractTrialResults(ctx, doc)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&survival, "survival", "", "survival curve image (default: vision.survival_image)")
	cmd.Flags().StringVar(&ae, "ae", "", "adverse events table image (default: vision.adverse_event_image)")
	cmd.Flags().StringVar(&results, "results", "", "trial results document (default: vision.results_document)")
	return cmd
}
