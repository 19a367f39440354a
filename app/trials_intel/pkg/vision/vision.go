// Package vision 从试验结果图片（生存曲线、不良事件表、结果页）中提取结构化数据。
//
// 与文本分类不同，这里失败时不做数值兜底，而是返回带 error 的结果。
package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/extract"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/llm"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/logger"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/model"
)

// Extractor 图片结果提取器
type Extractor struct {
	model llm.Model
	mock  bool
}

// New mock 为 true 时直接返回固定结果，不调用模型
func New(m llm.Model, mock bool) *Extractor {
	return &Extractor{model: m, mock: mock}
}

// Mock 是否为 mock 模式
func (e *Extractor) Mock() bool { return e.mock }

// AnalyzeSurvivalCurve 提取 Kaplan-Meier 曲线数据
func (e *Extractor) AnalyzeSurvivalCurve(ctx context.Context, img llm.Image) model.SurvivalResult {
	if e.mock {
		return model.SurvivalResult{SurvivalFinding: MockSurvivalFinding()}
	}
	var f model.SurvivalFinding
	if err := e.extract(ctx, "survival curve", survivalPrompt, survivalValidator, img, &f); err != nil {
		return model.SurvivalResult{Error: err.Error()}
	}
	return model.SurvivalResult{SurvivalFinding: &f}
}

// AnalyzeAdverseEventsTable 提取不良事件表数据
func (e *Extractor) AnalyzeAdverseEventsTable(ctx context.Context, img llm.Image) model.AdverseEventResult {
	if e.mock {
		return model.AdverseEventResult{AdverseEventFinding: MockAdverseEventFinding()}
	}
	var f model.AdverseEventFinding
	if err := e.extract(ctx, "adverse events table", adverseEventPrompt, adverseEventValidator, img, &f); err != nil {
		return model.AdverseEventResult{Error: err.Error()}
	}
	if f.SeriousAEs == nil {
		f.SeriousAEs = []model.SeriousAE{}
	}
	return model.AdverseEventResult{AdverseEventFinding: &f}
}

// ExtractTrialResults 提取完整结果页的主要结论，PDF 仅 anthropic 模型支持
func (e *Extractor) ExtractTrialResults(ctx context.Context, doc llm.Image) model.TrialResultsResult {
	if e.mock {
		return model.TrialResultsResult{TrialResultsFinding: MockTrialResultsFinding()}
	}
	var f model.TrialResultsFinding
	if err := e.extract(ctx, "trial results", trialResultsPrompt, trialResultsValidator, doc, &f); err != nil {
		return model.TrialResultsResult{Error: err.Error()}
	}
	if f.SecondaryEndpoints == nil {
		f.SecondaryEndpoints = []model.EndpointResult{}
	}
	return model.TrialResultsResult{TrialResultsFinding: &f}
}

// extract 调用模型 -> 剥离代码块 -> 校验 -> 解码
func (e *Extractor) extract(ctx context.Context, kind, prompt string, schema *jsonschema.Schema, img llm.Image, out any) error {
	if len(img.Data) == 0 {
		return fmt.Errorf("%s: empty image", kind)
	}
	resp, err := e.model.Generate(ctx, llm.WithImage(prompt, img))
	if err != nil {
		logger.Log.Errorf("分析 %s 失败: %v", kind, err)
		return err
	}
	payload, err := extract.JSON(resp.Text)
	if err != nil {
		logger.Log.Errorf("解析 %s 结果失败: %v", kind, err)
		return err
	}

	clean := sanitize(payload.Value())
	if err := schema.Validate(clean); err != nil {
		logger.Log.Warnf("%s 结果未通过校验: %v", kind, err)
		return fmt.Errorf("%s: invalid result: %w", kind, err)
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode result: %w", kind, err)
	}
	return nil
}

// LoadImage 读取图片或 PDF 文件并识别 MIME 类型
func LoadImage(path string) (llm.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return llm.Image{}, fmt.Errorf("read image failed: %w", err)
	}
	mime := http.DetectContentType(data)
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") && mime != llm.MIMEPDF {
		return llm.Image{}, fmt.Errorf("unsupported file type %s: %s", mime, path)
	}
	return llm.Image{Data: data, MIMEType: mime}, nil
}
