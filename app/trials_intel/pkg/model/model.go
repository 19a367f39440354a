package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Unknown 缺失字段的统一占位值
const Unknown = "Unknown"

// Intervention 干预措施
type Intervention struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// Enrollment 入组人数，负数表示未知，JSON 中输出为 "Unknown"
type Enrollment int

// UnknownEnrollment 未知入组人数
const UnknownEnrollment Enrollment = -1

// Known 是否有确定的入组人数
func (e Enrollment) Known() bool { return e >= 0 }

// MarshalJSON 未知时输出 "Unknown"
func (e Enrollment) MarshalJSON() ([]byte, error) {
	if !e.Known() {
		return json.Marshal(Unknown)
	}
	return []byte(strconv.Itoa(int(e))), nil
}

// UnmarshalJSON 同时接受数字和字符串
func (e *Enrollment) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*e = UnknownEnrollment
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			*e = UnknownEnrollment
			return nil
		}
		*e = Enrollment(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("enrollment: %w", err)
	}
	*e = Enrollment(n)
	return nil
}

// TrialRecord 注册中心返回的一条试验记录，核心逻辑只读
type TrialRecord struct {
	NCTID          string         `json:"nct_id"`
	Title          string         `json:"title"`
	OfficialTitle  string         `json:"official_title"`
	Status         string         `json:"status"`
	Phase          string         `json:"phase"`
	Conditions     []string       `json:"conditions"`
	Interventions  []Intervention `json:"interventions"`
	Enrollment     Enrollment     `json:"enrollment"`
	StartDate      string         `json:"start_date"`
	CompletionDate string         `json:"completion_date"`
	URL            string         `json:"url"`
}

// Classification 单个试验的分类结果，所有字段必须有值
type Classification struct {
	TherapeuticArea     string   `json:"therapeutic_area"`
	DiseaseCategory     string   `json:"disease_category"`
	InterventionClass   string   `json:"intervention_class"`
	TargetPopulation    string   `json:"target_population"`
	InnovationLevel     string   `json:"innovation_level"`
	CommercialPotential string   `json:"commercial_potential"`
	KeyInsights         []string `json:"key_insights"`
}

// AnalyzedTrial 附带分类结果的试验记录副本
type AnalyzedTrial struct {
	TrialRecord
	Analysis Classification `json:"analysis"`
}

// AIInsights 组合层面的生成式洞察，五个字段始终存在
type AIInsights struct {
	MarketTrends            []string `json:"market_trends"`
	InvestmentOpportunities []string `json:"investment_opportunities"`
	CompetitiveLandscape    string   `json:"competitive_landscape"`
	RiskFactors             []string `json:"risk_factors"`
	Recommendations         []string `json:"recommendations"`
}

// PortfolioSummary 组合汇总
type PortfolioSummary struct {
	TotalTrials       int            `json:"total_trials"`
	ByPhase           map[string]int `json:"by_phase"`
	ByTherapeuticArea map[string]int `json:"by_therapeutic_area"`
	ByInnovationLevel map[string]int `json:"by_innovation_level"`
	TopInsights       []string       `json:"top_insights"`
	AIInsights        AIInsights     `json:"ai_insights"`
}

// AnalysisResult 一次批量分析的完整产出
type AnalysisResult struct {
	Trials  []AnalyzedTrial  `json:"trials"`
	Summary PortfolioSummary `json:"summary"`
}
