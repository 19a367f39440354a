package vision

const survivalPrompt = `Analyze this Kaplan-Meier survival curve and extract:

1. Median survival time for treatment group (months)
2. Median survival time for control group (months)
3. Hazard ratio (HR)
4. 95% Confidence interval
5. P-value
6. Brief analysis of clinical significance

Provide output in JSON format:
{
  "median_survival_treatment": number,
  "median_survival_control": number,
  "hazard_ratio": number,
  "confidence_interval": "string",
  "p_value": "string",
  "analysis": "string",
  "data_quality": "High/Medium/Low"
}`

const adverseEventPrompt = `Analyze this adverse events table from a clinical trial and extract:

1. Percentage of patients with grade 3 or higher adverse events in the treatment group
2. Percentage of patients with grade 3 or higher adverse events in the control group
3. The most common adverse event and its rate (%)
4. Serious adverse events with their rates (%)
5. Brief assessment of the safety profile

Provide output in JSON format:
{
  "grade_3_plus_treatment": number,
  "grade_3_plus_control": number,
  "most_common_ae": "string",
  "most_common_ae_rate": number,
  "serious_aes": [{"event": "string", "rate": number}],
  "analysis": "string"
}`

const trialResultsPrompt = `Analyze this clinical trial results document and extract:

1. Whether the primary endpoint was met
2. The primary endpoint and its result
3. Secondary endpoints with their results
4. A short safety summary
5. The overall conclusion

Provide output in JSON format:
{
  "primary_endpoint_met": true/false,
  "primary_endpoint": "string",
  "primary_result": "string",
  "secondary_endpoints": [{"endpoint": "string", "result": "string"}],
  "safety_summary": "string",
  "conclusion": "string"
}`
