package service

import "github.com/iWorld-y/trials_intel/app/trials_intel/pkg/model"

const (
	defaultCondition  = "CAR-T Cell Therapy"
	defaultMaxResults = 10
)

// SearchRequest POST /api/search
type SearchRequest struct {
	SessionID  string `json:"session_id"`
	Condition  string `json:"condition"`
	MaxResults int    `json:"max_results"`
}

// SearchReply 检索结果
type SearchReply struct {
	Success   bool                `json:"success"`
	SessionID string              `json:"session_id"`
	Trials    []model.TrialRecord `json:"trials"`
	Count     int                 `json:"count"`
}

// AnalyzeRequest POST /api/analyze
type AnalyzeRequest struct {
	SessionID string `json:"session_id"`
}

// AnalyzeReply 分析结果
type AnalyzeReply struct {
	Success   bool                  `json:"success"`
	SessionID string                `json:"session_id"`
	Analysis  *model.AnalysisResult `json:"analysis"`
	RunID     int                   `json:"run_id,omitempty"`
}

// VisionDemoRequest GET /api/vision-demo
type VisionDemoRequest struct{}

// VisionDemoReply 图片分析示例结果
type VisionDemoReply struct {
	Success          bool                     `json:"success"`
	SurvivalAnalysis model.SurvivalResult     `json:"survival_analysis"`
	SafetyAnalysis   model.AdverseEventResult `json:"safety_analysis"`
	TrialResults     model.TrialResultsResult `json:"trial_results"`
}

// StatusRequest GET /api/status
type StatusRequest struct {
	SessionID string `json:"session_id"`
}

// StatusReply 服务状态
type StatusReply struct {
	Status       string `json:"status"`
	GeminiMode   string `json:"gemini_mode"`
	Model        string `json:"model"`
	CachedTrials int    `json:"cached_trials"`
	HasAnalysis  bool   `json:"has_analysis"`
	Sessions     int    `json:"sessions"`
}
