// Package analyzer 对试验做逐个分类，并汇总为组合层面的洞察。
//
// Classify / AnalyzeBatch / Compare 都是全函数：模型调用或解析失败时返回
// 字段完整的兜底结果，错误只记录日志，不向调用方传播。
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/extract"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/llm"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/logger"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/model"
)

const (
	// SentinelPrefix 分析失败时的统一占位文本
	SentinelPrefix = "Analysis pending"
	// ReasonParse 模型输出无法解析
	ReasonParse = "JSON parse error"
	// ReasonModel 模型调用失败
	ReasonModel = "model error"

	// NotAvailable competitive_landscape 缺失时的占位
	NotAvailable = "Not available"
)

// Sentinel 带失败原因的占位文本
func Sentinel(reason string) string {
	return SentinelPrefix + " - " + reason
}

var classificationFields = []string{
	"therapeutic_area",
	"disease_category",
	"intervention_class",
	"target_population",
	"innovation_level",
	"commercial_potential",
}

// Option 配置 Analyzer
type Option func(*Analyzer)

// WithProgress 批量分析每完成一个试验回调一次
func WithProgress(fn func(done, total int)) Option {
	return func(a *Analyzer) { a.progress = fn }
}

// Analyzer 试验分类与组合汇总
type Analyzer struct {
	model    llm.Model
	progress func(done, total int)
}

// New 创建 Analyzer
func New(m llm.Model, opts ...Option) *Analyzer {
	a := &Analyzer{model: m}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ModelName 当前使用的模型名
func (a *Analyzer) ModelName() string { return a.model.Name() }

// Classify 对单个试验分类，总是返回字段完整的结果
func (a *Analyzer) Classify(ctx context.Context, trial model.TrialRecord) model.Classification {
	payload, err := a.generateJSON(ctx, buildClassifyPrompt(trial))
	if err != nil {
		reason := failureReason(err)
		logger.Log.Warnf("试验 [%s] 分类失败 (%s): %v", trial.NCTID, reason, err)
		return fallbackClassification(trial, reason)
	}
	if !isObject(payload) {
		logger.Log.Warnf("试验 [%s] 分类结果不是 JSON 对象: %s", trial.NCTID, extract.Truncate(string(payload.Raw()), extract.SnippetLimit))
		return fallbackClassification(trial, ReasonParse)
	}

	values := make(map[string]string, len(classificationFields))
	for _, field := range classificationFields {
		r := payload.Get(field)
		if !r.Exists() || r.Type == gjson.Null {
			logger.Log.Warnf("试验 [%s] 分类结果缺少字段 %s", trial.NCTID, field)
			values[field] = model.Unknown
			continue
		}
		values[field] = r.String()
	}

	return model.Classification{
		TherapeuticArea:     values["therapeutic_area"],
		DiseaseCategory:     values["disease_category"],
		InterventionClass:   values["intervention_class"],
		TargetPopulation:    values["target_population"],
		InnovationLevel:     values["innovation_level"],
		CommercialPotential: values["commercial_potential"],
		KeyInsights:         stringList(payload.Get("key_insights")),
	}
}

// AnalyzeBatch 按输入顺序逐个分类，输出与输入等长
func (a *Analyzer) AnalyzeBatch(ctx context.Context, trials []model.TrialRecord) []model.AnalyzedTrial {
	logger.Log.Infof("开始分析 %d 个试验 (模型: %s)", len(trials), a.model.Name())
	out := make([]model.AnalyzedTrial, 0, len(trials))
	for i, t := range trials {
		out = append(out, model.AnalyzedTrial{
			TrialRecord: t,
			Analysis:    a.Classify(ctx, t),
		})
		if a.progress != nil {
			a.progress(i+1, len(trials))
		}
	}
	return out
}

// Compare 汇总分类结果并生成组合洞察
func (a *Analyzer) Compare(ctx context.Context, trials []model.AnalyzedTrial) model.PortfolioSummary {
	summary := Tally(trials)

	prompt, err := buildComparePrompt(summary)
	if err != nil {
		logger.Log.Errorf("构造汇总提示词失败: %v", err)
		summary.AIInsights = fallbackInsights(ReasonParse)
		return summary
	}

	payload, err := a.generateJSON(ctx, prompt)
	if err != nil {
		reason := failureReason(err)
		logger.Log.Errorf("生成组合洞察失败 (%s): %v", reason, err)
		summary.AIInsights = fallbackInsights(reason)
		return summary
	}
	if !isObject(payload) {
		logger.Log.Errorf("组合洞察不是 JSON 对象: %s", extract.Truncate(string(payload.Raw()), extract.SnippetLimit))
		summary.AIInsights = fallbackInsights(ReasonParse)
		return summary
	}

	summary.AIInsights = model.AIInsights{
		MarketTrends:            insightList(payload, "market_trends"),
		InvestmentOpportunities: insightList(payload, "investment_opportunities"),
		CompetitiveLandscape:    landscape(payload),
		RiskFactors:             insightList(payload, "risk_factors"),
		Recommendations:         insightList(payload, "recommendations"),
	}
	return summary
}

// Tally 只做计数，不调用模型
func Tally(trials []model.AnalyzedTrial) model.PortfolioSummary {
	s := model.PortfolioSummary{
		TotalTrials:       len(trials),
		ByPhase:           map[string]int{},
		ByTherapeuticArea: map[string]int{},
		ByInnovationLevel: map[string]int{},
		TopInsights:       []string{},
	}
	for _, t := range trials {
		s.ByPhase[orUnknown(t.Phase)]++
		s.ByTherapeuticArea[orUnknown(t.Analysis.TherapeuticArea)]++
		s.ByInnovationLevel[orUnknown(t.Analysis.InnovationLevel)]++
		s.TopInsights = append(s.TopInsights, t.Analysis.KeyInsights...)
	}
	return s
}

func (a *Analyzer) generateJSON(ctx context.Context, prompt string) (*extract.Payload, error) {
	resp, err := a.model.Generate(ctx, llm.Text(prompt))
	if err != nil {
		var pe *llm.ProviderError
		if !errors.As(err, &pe) {
			err = &llm.ProviderError{Provider: "unknown", Model: a.model.Name(), Err: err}
		}
		return nil, err
	}
	logger.Log.Debugf("模型原始输出: %s", extract.Truncate(resp.Text, extract.SnippetLimit))
	return extract.JSON(resp.Text)
}

func failureReason(err error) string {
	var ee *extract.Error
	if errors.As(err, &ee) {
		return ReasonParse
	}
	return ReasonModel
}

func buildClassifyPrompt(t model.TrialRecord) string {
	interventions := t.Interventions
	if interventions == nil {
		interventions = []model.Intervention{}
	}
	ivJSON, err := json.MarshalIndent(interventions, "", "  ")
	if err != nil {
		ivJSON = []byte("[]")
	}
	return fmt.Sprintf(classifyPromptTpl, t.Title, strings.Join(t.Conditions, ", "), t.Phase, ivJSON)
}

func buildComparePrompt(s model.PortfolioSummary) (string, error) {
	counters := struct {
		TotalTrials       int            `json:"total_trials"`
		ByPhase           map[string]int `json:"by_phase"`
		ByTherapeuticArea map[string]int `json:"by_therapeutic_area"`
		ByInnovationLevel map[string]int `json:"by_innovation_level"`
		TopInsights       []string       `json:"top_insights"`
	}{s.TotalTrials, s.ByPhase, s.ByTherapeuticArea, s.ByInnovationLevel, s.TopInsights}

	b, err := json.MarshalIndent(counters, "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(comparePromptTpl, b), nil
}

func fallbackClassification(t model.TrialRecord, reason string) model.Classification {
	c := model.Classification{
		TherapeuticArea:     model.Unknown,
		DiseaseCategory:     model.Unknown,
		InterventionClass:   model.Unknown,
		TargetPopulation:    Sentinel(reason),
		InnovationLevel:     model.Unknown,
		CommercialPotential: model.Unknown,
		KeyInsights:         []string{},
	}
	if len(t.Conditions) > 0 {
		c.TherapeuticArea = t.Conditions[0]
		c.DiseaseCategory = strings.Join(t.Conditions, ", ")
	}
	if len(t.Interventions) > 0 && t.Interventions[0].Type != "" {
		c.InterventionClass = t.Interventions[0].Type
	}
	return c
}

func fallbackInsights(reason string) model.AIInsights {
	s := Sentinel(reason)
	return model.AIInsights{
		MarketTrends:            []string{s},
		InvestmentOpportunities: []string{s},
		CompetitiveLandscape:    SentinelPrefix,
		RiskFactors:             []string{s},
		Recommendations:         []string{s},
	}
}

func insightList(p *extract.Payload, key string) []string {
	r := p.Get(key)
	if !r.Exists() {
		logger.Log.Warnf("组合洞察缺少字段 %s", key)
	}
	return stringList(r)
}

func landscape(p *extract.Payload) string {
	r := p.Get("competitive_landscape")
	if !r.Exists() || r.Type == gjson.Null {
		logger.Log.Warnf("组合洞察缺少字段 competitive_landscape")
		return NotAvailable
	}
	return r.String()
}

// stringList 数组逐项转字符串；单个标量视为一项；其余为空切片
func stringList(r gjson.Result) []string {
	out := []string{}
	switch {
	case r.IsArray():
		for _, v := range r.Array() {
			out = append(out, v.String())
		}
	case r.Type == gjson.String || r.Type == gjson.Number:
		out = append(out, r.String())
	}
	return out
}

func isObject(p *extract.Payload) bool {
	_, ok := p.Value().(map[string]any)
	return ok
}

func orUnknown(s string) string {
	if s == "" {
		return model.Unknown
	}
	return s
}
