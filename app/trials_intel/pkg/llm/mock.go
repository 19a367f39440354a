package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// MockInsightsJSON 组合洞察的固定返回
const MockInsightsJSON = `{
  "market_trends": [
    "Rapid expansion of CAR-T therapies beyond hematologic malignancies",
    "Increasing focus on solid tumor applications",
    "Growing number of Phase 3 trials indicating market maturity"
  ],
  "investment_opportunities": [
    "Next-generation CAR-T platforms with improved safety profiles",
    "Combination therapies pairing CAR-T with checkpoint inhibitors",
    "Manufacturing automation to reduce production costs"
  ],
  "competitive_landscape": "The CAR-T market is dominated by established players with 5-6 approved therapies, but significant opportunity exists in underserved indications and improved manufacturing approaches. Clinical trial activity shows 40% YoY growth.",
  "risk_factors": [
    "High manufacturing costs limiting market penetration",
    "Safety concerns around cytokine release syndrome",
    "Reimbursement challenges in certain markets"
  ],
  "recommendations": [
    "Focus on trials targeting solid tumors for differentiation",
    "Monitor manufacturing innovation for cost reduction opportunities",
    "Track real-world evidence for approved CAR-T therapies"
  ]
}`

// MockClassificationJSON 单个试验分类的固定返回
const MockClassificationJSON = `{
  "therapeutic_area": "Oncology",
  "disease_category": "Hematologic Malignancy",
  "intervention_class": "Biological - CAR-T Cell Therapy",
  "target_population": "Adults with relapsed/refractory B-cell lymphoma",
  "innovation_level": "Novel",
  "commercial_potential": "High",
  "key_insights": [
    "CAR-T therapy represents breakthrough approach for blood cancers",
    "Strong market potential with limited competition in this indication",
    "Phase 3 data suggests significant efficacy improvements over standard care"
  ]
}`

const echoPrefixRunes = 50

var (
	portfolioKeywords      = []string{"summary", "strategic insights", "investor", "market trends", "investment opportunities"}
	classificationKeywords = []string{"classify", "therapeutic_area", "analyze this clinical trial"}
)

// Rule 一条 mock 规则，Match 接收小写后的提示词
type Rule struct {
	Name  string
	Match func(lower string) bool
	Reply func(prompt string) string
}

// DefaultRules 按优先级排列：组合洞察先于分类，因为分类提示词可能也包含组合关键词
func DefaultRules() []Rule {
	return []Rule{
		{Name: "portfolio", Match: containsAny(portfolioKeywords), Reply: constant(MockInsightsJSON)},
		{Name: "classification", Match: containsAny(classificationKeywords), Reply: constant(MockClassificationJSON)},
		{Name: "echo", Match: func(string) bool { return true }, Reply: echo},
	}
}

// MockModel 确定性的规则应答模型，无副作用
type MockModel struct {
	name  string
	rules []Rule
}

var _ Model = (*MockModel)(nil)

// NewMockModel 创建使用默认规则的 mock 模型
func NewMockModel(name string) *MockModel {
	return &MockModel{name: name, rules: DefaultRules()}
}

// NewMockModelWithRules 使用自定义规则
func NewMockModelWithRules(name string, rules []Rule) *MockModel {
	return &MockModel{name: name, rules: rules}
}

func (m *MockModel) Name() string { return m.name }

// Generate 自上而下匹配规则，首个命中的规则生效
func (m *MockModel) Generate(_ context.Context, req *Request) (*Response, error) {
	lower := strings.ToLower(req.Prompt)
	for _, r := range m.rules {
		if r.Match(lower) {
			return &Response{Text: r.Reply(req.Prompt)}, nil
		}
	}
	return &Response{Text: echo(req.Prompt)}, nil
}

// RuleFor 返回命中的规则名，便于测试优先级
func (m *MockModel) RuleFor(prompt string) string {
	lower := strings.ToLower(prompt)
	for _, r := range m.rules {
		if r.Match(lower) {
			return r.Name
		}
	}
	return ""
}

func containsAny(words []string) func(string) bool {
	return func(lower string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}
}

func constant(s string) func(string) string {
	return func(string) string { return s }
}

func echo(prompt string) string {
	head := []rune(prompt)
	if len(head) > echoPrefixRunes {
		head = head[:echoPrefixRunes]
	}
	b, _ := json.Marshal(map[string]string{"analysis": "Mock response for: " + string(head) + "..."})
	return string(b)
}
