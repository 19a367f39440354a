package vision

import "github.com/iWorld-y/trials_intel/app/trials_intel/pkg/model"

// MockSurvivalFinding mock 模式下的生存曲线结果
func MockSurvivalFinding() *model.SurvivalFinding {
	return &model.SurvivalFinding{
		MedianSurvivalTreatment: 24.8,
		MedianSurvivalControl:   11.2,
		HazardRatio:             0.42,
		ConfidenceInterval:      "0.31-0.58",
		PValue:                  "< 0.0001",
		Analysis:                "Treatment shows significant survival benefit over control",
		DataQuality:             "High - clear separation of curves",
	}
}

// MockAdverseEventFinding mock 模式下的不良事件表结果
func MockAdverseEventFinding() *model.AdverseEventFinding {
	return &model.AdverseEventFinding{
		Grade3PlusTreatment: 68,
		Grade3PlusControl:   42,
		MostCommonAE:        "Cytokine release syndrome",
		MostCommonAERate:    32,
		SeriousAEs: []model.SeriousAE{
			{Event: "Cytokine release syndrome", Rate: 32},
			{Event: "Neutropenia", Rate: 24},
			{Event: "Infection", Rate: 18},
		},
		Analysis: "Safety profile manageable with standard interventions",
	}
}

// MockTrialResultsFinding mock 模式下的试验结果
func MockTrialResultsFinding() *model.TrialResultsFinding {
	return &model.TrialResultsFinding{
		PrimaryEndpointMet: true,
		PrimaryEndpoint:    "Overall Survival",
		PrimaryResult:      "HR 0.42 (95% CI: 0.31-0.58), p<0.0001",
		SecondaryEndpoints: []model.EndpointResult{
			{Endpoint: "Progression-Free Survival", Result: "HR 0.35, p<0.0001"},
			{Endpoint: "Objective Response Rate", Result: "72% vs 45%, p<0.001"},
		},
		SafetySummary: "Adverse events consistent with known profile",
		Conclusion:    "Treatment demonstrates significant clinical benefit",
	}
}
