package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/analyzer"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/llm"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/logger"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/model"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/registry"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/report"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/storage"
)

// Engine 检索、分类、汇总、落盘的完整流水线
type Engine struct {
	searcher  registry.Searcher
	model     llm.Model
	store     *storage.Storage // 可为 nil
	outputDir string
	mock      bool
}

// NewEngine 创建引擎实例
func NewEngine(searcher registry.Searcher, m llm.Model, store *storage.Storage, outputDir string, mock bool) *Engine {
	return &Engine{
		searcher:  searcher,
		model:     m,
		store:     store,
		outputDir: outputDir,
		mock:      mock,
	}
}

// RunOptions 运行选项
type RunOptions struct {
	Condition        string
	MaxResults       int
	OutputName       string // 默认 production_analysis.json
	HTML             bool
	ProgressCallback func(status string, progress int)
}

// Metadata 输出文件中的运行信息
type Metadata struct {
	Mode        string    `json:"mode"`
	Model       string    `json:"model"`
	Condition   string    `json:"condition"`
	TotalTrials int       `json:"total_trials"`
	RunID       int       `json:"run_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Output 一次运行的完整产出
type Output struct {
	Trials   []model.AnalyzedTrial  `json:"trials"`
	Summary  model.PortfolioSummary `json:"summary"`
	Metadata Metadata               `json:"metadata"`
}

// Result Run 的返回值
type Result struct {
	Output   *Output
	JSONPath string
	HTMLPath string
}

// Run 执行一次分析任务
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	if opts.Condition == "" {
		return nil, fmt.Errorf("no condition provided")
	}
	name := opts.OutputName
	if name == "" {
		name = "production_analysis.json"
	}
	progress := func(status string, p int) {
		if opts.ProgressCallback != nil {
			opts.ProgressCallback(status, p)
		}
	}

	logger.Log.Infof("开始分析 [%s]，最多 %d 个试验", opts.Condition, opts.MaxResults)
	progress("searching", 0)

	// 1. 检索
	trials, err := e.searcher.Search(ctx, &registry.Request{Condition: opts.Condition, MaxResults: opts.MaxResults})
	if err != nil {
		return nil, fmt.Errorf("search trials: %w", err)
	}
	if len(trials) == 0 {
		return nil, fmt.Errorf("no trials found for %q", opts.Condition)
	}
	progress(fmt.Sprintf("found %d trials", len(trials)), 10)

	// 2. 逐个分类，10% -> 80%
	an := analyzer.New(e.model, analyzer.WithProgress(func(done, total int) {
		progress(fmt.Sprintf("analyzed %d/%d", done, total), 10+int(float64(done)/float64(total)*70))
	}))
	analyzed := an.AnalyzeBatch(ctx, trials)

	// 3. 组合汇总
	progress("generating portfolio insights", 85)
	summary := an.Compare(ctx, analyzed)

	out := &Output{
		Trials:  analyzed,
		Summary: summary,
		Metadata: Metadata{
			Mode:        e.mode(),
			Model:       e.model.Name(),
			Condition:   opts.Condition,
			TotalTrials: len(analyzed),
			GeneratedAt: time.Now(),
		},
	}

	// 4. 保存到数据库
	if e.store != nil {
		runID, err := e.store.SaveResult(ctx, storage.RunMeta{
			Condition: opts.Condition,
			Mode:      out.Metadata.Mode,
			Model:     out.Metadata.Model,
		}, &model.AnalysisResult{Trials: analyzed, Summary: summary})
		if err != nil {
			logger.Log.Errorf("保存分析结果失败: %v", err)
		} else {
			out.Metadata.RunID = runID
			logger.Log.Infof("分析结果已保存到数据库 (run %d)", runID)
		}
	}

	// 5. 写文件
	res := &Result{Output: out}
	res.JSONPath, err = storage.SaveJSON(e.outputDir, name, out)
	if err != nil {
		return nil, err
	}
	logger.Log.Infof("已保存: %s", res.JSONPath)

	if opts.HTML {
		htmlPath := filepath.Join(e.outputDir, trimExt(name)+".html")
		if err := report.WriteHTML(htmlPath, report.Data{
			Condition: opts.Condition,
			Date:      out.Metadata.GeneratedAt.Format(time.DateOnly),
			Mode:      out.Metadata.Mode,
			Model:     out.Metadata.Model,
			Trials:    analyzed,
			Summary:   summary,
		}); err != nil {
			logger.Log.Errorf("生成 HTML 失败: %v", err)
		} else {
			res.HTMLPath = htmlPath
		}
	}

	progress("completed", 100)
	return res, nil
}

func (e *Engine) mode() string {
	if e.mock {
		return "mock"
	}
	return "real"
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
