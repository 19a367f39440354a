package report

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/model"
)

// Data 用于模板渲染的数据
type Data struct {
	Condition string
	Date      string
	Mode      string
	Model     string
	Trials    []model.AnalyzedTrial
	Summary   model.PortfolioSummary
}

// Count 频次表中的一行
type Count struct {
	Label string
	N     int
}

var funcs = template.FuncMap{
	"sorted": sortedCounts,
}

var tpl = template.Must(template.New("report").Funcs(funcs).Parse(htmlTpl))

// Render 渲染报告到 w
func Render(w io.Writer, data Data) error {
	return tpl.Execute(w, data)
}

// WriteHTML 渲染报告到文件
func WriteHTML(path string, data Data) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := Render(f, data); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// sortedCounts 按数量降序，数量相同按标签排序
func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Label: k, N: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Label < out[j].Label
	})
	return out
}

const htmlTpl = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Trials Intel | {{ .Condition }}</title>
    <style>
        :root {
            --primary-color: #2563eb;
            --bg-color: #f8fafc;
            --card-bg: #ffffff;
            --text-main: #1e293b;
            --text-secondary: #64748b;
            --border-color: #e2e8f0;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            background-color: var(--bg-color);
            color: var(--text-main);
            line-height: 1.6;
            margin: 0;
            padding: 20px;
        }
        .container { max-width: 960px; margin: 0 auto; }
        header { text-align: center; margin-bottom: 40px; padding: 20px 0; }
        h1 { font-size: 2.2rem; margin: 0 0 10px 0; }
        .date-info { color: var(--text-secondary); }
        .insights {
            background: #fff;
            padding: 24px;
            border-radius: 12px;
            margin-bottom: 40px;
            box-shadow: 0 4px 6px -1px rgba(0,0,0,0.1);
            border: 1px solid var(--border-color);
        }
        .insight-grid { display: grid; gap: 20px; grid-template-columns: 1fr; }
        @media (min-width: 768px) { .insight-grid { grid-template-columns: 1fr 1fr; } }
        .insight-section { background: #f8fafc; padding: 16px 20px; border-radius: 8px; border-left: 4px solid #cbd5e1; }
        .section-trends { border-left-color: #2563eb; background: #eff6ff; }
        .section-opps { border-left-color: #22c55e; background: #f0fdf4; }
        .section-risks { border-left-color: #ef4444; background: #fef2f2; }
        .section-recs { border-left-color: #a855f7; background: #faf5ff; }
        .section-landscape { grid-column: 1 / -1; }
        .counts { display: grid; gap: 20px; grid-template-columns: repeat(auto-fit, minmax(220px, 1fr)); margin-bottom: 40px; }
        .counts table { width: 100%; border-collapse: collapse; background: #fff; border: 1px solid var(--border-color); }
        .counts td, .counts th { padding: 6px 10px; border-bottom: 1px solid #f1f5f9; text-align: left; }
        .trial-card {
            background: var(--card-bg);
            border-radius: 12px;
            padding: 20px 24px;
            margin-bottom: 20px;
            border: 1px solid var(--border-color);
        }
        .trial-title { font-size: 1.2rem; font-weight: 700; }
        .trial-meta { color: var(--text-secondary); font-size: 0.9rem; }
        .badge { display: inline-block; padding: 2px 10px; border-radius: 20px; background: #e2e8f0; margin-right: 6px; font-size: 0.85rem; }
        .badge-high { background: #dcfce7; color: #166534; }
        a { color: var(--primary-color); text-decoration: none; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>Trials Intel: {{ .Condition }}</h1>
            <div class="date-info">{{ .Date }} • {{ .Summary.TotalTrials }} trials • {{ .Mode }} ({{ .Model }})</div>
        </header>

        {{ with .Summary.AIInsights }}
        <div class="insights">
            <h2>Portfolio insights</h2>
            <div class="insight-grid">
                <div class="insight-section section-trends">
                    <h3>Market trends</h3>
                    <ul>{{ range .MarketTrends }}<li>{{ . }}</li>{{ end }}</ul>
                </div>
                <div class="insight-section section-opps">
                    <h3>Investment opportunities</h3>
                    <ul>{{ range .InvestmentOpportunities }}<li>{{ . }}</li>{{ end }}</ul>
                </div>
                <div class="insight-section section-risks">
                    <h3>Risk factors</h3>
                    <ul>{{ range .RiskFactors }}<li>{{ . }}</li>{{ end }}</ul>
                </div>
                <div class="insight-section section-recs">
                    <h3>Recommendations</h3>
                    <ul>{{ range .Recommendations }}<li>{{ . }}</li>{{ end }}</ul>
                </div>
                <div class="insight-section section-landscape">
                    <h3>Competitive landscape</h3>
                    <p>{{ .CompetitiveLandscape }}</p>
                </div>
            </div>
        </div>
        {{ end }}

        <div class="counts">
            <table>
                <tr><th>Phase</th><th>Trials</th></tr>
                {{ range sorted .Summary.ByPhase }}<tr><td>{{ .Label }}</td><td>{{ .N }}</td></tr>{{ end }}
            </table>
            <table>
                <tr><th>Therapeutic area</th><th>Trials</th></tr>
                {{ range sorted .Summary.ByTherapeuticArea }}<tr><td>{{ .Label }}</td><td>{{ .N }}</td></tr>{{ end }}
            </table>
            <table>
                <tr><th>Innovation</th><th>Trials</th></tr>
                {{ range sorted .Summary.ByInnovationLevel }}<tr><td>{{ .Label }}</td><td>{{ .N }}</td></tr>{{ end }}
            </table>
        </div>

        {{ range .Trials }}
        <div class="trial-card">
            <div class="trial-title"><a href="{{ .URL }}" target="_blank">{{ .Title }}</a></div>
            <div class="trial-meta">{{ .NCTID }} • {{ .Phase }} • {{ .Status }}</div>
            <p>
                <span class="badge">{{ .Analysis.TherapeuticArea }}</span>
                <span class="badge">{{ .Analysis.InnovationLevel }}</span>
                <span class="badge {{ if eq .Analysis.CommercialPotential "High" }}badge-high{{ end }}">{{ .Analysis.CommercialPotential }}</span>
            </p>
            <ul>{{ range .Analysis.KeyInsights }}<li>{{ . }}</li>{{ end }}</ul>
        </div>
        {{ end }}
    </div>
</body>
</html>
`
