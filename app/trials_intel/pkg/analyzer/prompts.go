package analyzer

const classifyPromptTpl = `Analyze this clinical trial and provide a structured classification:

Title: %s
Conditions: %s
Phase: %s
Interventions: %s

Provide output in JSON format:
{
  "therapeutic_area": "Oncology/Cardiology/Neurology/etc",
  "disease_category": "specific disease type",
  "intervention_class": "Drug/Device/Biological/etc",
  "target_population": "description",
  "innovation_level": "Novel/Incremental/Standard",
  "commercial_potential": "High/Medium/Low",
  "key_insights": ["insight1", "insight2", "insight3"]
}`

const comparePromptTpl = `Based on this clinical trial data summary, provide strategic insights for pharma investors:

%s

Provide 3-5 actionable insights about:
- Market trends
- Investment opportunities
- Competitive landscape
- Risk factors

Format as JSON:
{
  "market_trends": ["trend1", "trend2"],
  "investment_opportunities": ["opp1", "opp2"],
  "competitive_landscape": "summary",
  "risk_factors": ["risk1", "risk2"],
  "recommendations": ["rec1", "rec2"]
}`
