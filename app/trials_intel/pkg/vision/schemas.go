package vision

import (
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const survivalSchema = `{
  "type": "object",
  "required": ["median_survival_treatment", "median_survival_control", "hazard_ratio",
               "confidence_interval", "p_value", "analysis", "data_quality"],
  "properties": {
    "median_survival_treatment": {"type": "number", "minimum": 0},
    "median_survival_control": {"type": "number", "minimum": 0},
    "hazard_ratio": {"type": "number", "minimum": 0},
    "confidence_interval": {"type": "string"},
    "p_value": {"type": "string"},
    "analysis": {"type": "string"},
    "data_quality": {"type": "string"}
  }
}`

const adverseEventSchema = `{
  "type": "object",
  "required": ["grade_3_plus_treatment", "grade_3_plus_control", "most_common_ae",
               "most_common_ae_rate", "serious_aes", "analysis"],
  "properties": {
    "grade_3_plus_treatment": {"type": "number", "minimum": 0, "maximum": 100},
    "grade_3_plus_control": {"type": "number", "minimum": 0, "maximum": 100},
    "most_common_ae": {"type": "string"},
    "most_common_ae_rate": {"type": "number", "minimum": 0, "maximum": 100},
    "serious_aes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["event", "rate"],
        "properties": {
          "event": {"type": "string"},
          "rate": {"type": "number", "minimum": 0, "maximum": 100}
        }
      }
    },
    "analysis": {"type": "string"}
  }
}`

const trialResultsSchema = `{
  "type": "object",
  "required": ["primary_endpoint_met", "primary_endpoint", "primary_result",
               "secondary_endpoints", "safety_summary", "conclusion"],
  "properties": {
    "primary_endpoint_met": {"type": "boolean"},
    "primary_endpoint": {"type": "string"},
    "primary_result": {"type": "string"},
    "secondary_endpoints": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["endpoint", "result"],
        "properties": {
          "endpoint": {"type": "string"},
          "result": {"type": "string"}
        }
      }
    },
    "safety_summary": {"type": "string"},
    "conclusion": {"type": "string"}
  }
}`

var (
	survivalValidator     = mustCompile("survival.json", survivalSchema)
	adverseEventValidator = mustCompile("adverse_events.json", adverseEventSchema)
	trialResultsValidator = mustCompile("trial_results.json", trialResultsSchema)
)

// schemaBase 内存中的 schema 使用绝对 id，不随工作目录变化
const schemaBase = "mem://trials_intel/"

func compileSchema(name, raw string) (*jsonschema.Schema, error) {
	url := schemaBase + name
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, strings.NewReader(raw)); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}

func mustCompile(name, raw string) *jsonschema.Schema {
	s, err := compileSchema(name, raw)
	if err != nil {
		panic("compile schema " + name + ": " + err.Error())
	}
	return s
}

// numericFields 模型有时把数字写成 "32" 或 "32%"
var numericFields = map[string]bool{
	"median_survival_treatment": true,
	"median_survival_control":   true,
	"hazard_ratio":              true,
	"grade_3_plus_treatment":    true,
	"grade_3_plus_control":      true,
	"most_common_ae_rate":       true,
	"rate":                      true,
}

// stringFields 模型有时把 p 值写成 0.001 而不是 "0.001"
var stringFields = map[string]bool{
	"confidence_interval": true,
	"p_value":             true,
}

// sanitize 递归处理：数值字段中的数字字符串转为 float64，文本字段中的数字转为字符串
func sanitize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			if s, ok := child.(string); ok && numericFields[k] {
				if f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%")), 64); err == nil {
					out[k] = f
					continue
				}
			}
			if f, ok := child.(float64); ok && stringFields[k] {
				out[k] = strconv.FormatFloat(f, 'g', -1, 64)
				continue
			}
			out[k] = sanitize(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = sanitize(child)
		}
		return out
	default:
		return v
	}
}
