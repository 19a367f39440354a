package model

// SurvivalFinding Kaplan-Meier 生存曲线提取结果
type SurvivalFinding struct {
	MedianSurvivalTreatment float64 `json:"median_survival_treatment"`
	MedianSurvivalControl   float64 `json:"median_survival_control"`
	HazardRatio             float64 `json:"hazard_ratio"`
	ConfidenceInterval      string  `json:"confidence_interval"`
	PValue                  string  `json:"p_value"`
	Analysis                string  `json:"analysis"`
	DataQuality             string  `json:"data_quality"`
}

// SeriousAE 严重不良事件及发生率（%）
type SeriousAE struct {
	Event string  `json:"event"`
	Rate  float64 `json:"rate"`
}

// AdverseEventFinding 不良事件表提取结果
type AdverseEventFinding struct {
	Grade3PlusTreatment float64     `json:"grade_3_plus_treatment"`
	Grade3PlusControl   float64     `json:"grade_3_plus_control"`
	MostCommonAE        string      `json:"most_common_ae"`
	MostCommonAERate    float64     `json:"most_common_ae_rate"`
	SeriousAEs          []SeriousAE `json:"serious_aes"`
	Analysis            string      `json:"analysis"`
}

// EndpointResult 次要终点结果
type EndpointResult struct {
	Endpoint string `json:"endpoint"`
	Result   string `json:"result"`
}

// TrialResultsFinding 试验结果页提取结果
type TrialResultsFinding struct {
	PrimaryEndpointMet bool             `json:"primary_endpoint_met"`
	PrimaryEndpoint    string           `json:"primary_endpoint"`
	PrimaryResult      string           `json:"primary_result"`
	SecondaryEndpoints []EndpointResult `json:"secondary_endpoints"`
	SafetySummary      string           `json:"safety_summary"`
	Conclusion         string           `json:"conclusion"`
}

// 以下结果类型要么携带完整 Finding，要么只有 Error；
// Finding 为 nil 时 JSON 只输出 {"error": "..."}。

// SurvivalResult 生存曲线分析结果
type SurvivalResult struct {
	*SurvivalFinding
	Error string `json:"error,omitempty"`
}

// AdverseEventResult 不良事件表分析结果
type AdverseEventResult struct {
	*AdverseEventFinding
	Error string `json:"error,omitempty"`
}

// TrialResultsResult 试验结果页分析结果
type TrialResultsResult struct {
	*TrialResultsFinding
	Error string `json:"error,omitempty"`
}
