package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/logger"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/model"
)

const (
	studyURLPrefix = "https://clinicaltrials.gov/study/"
	maxPageSize    = 100
)

// Client ClinicalTrials.gov v2 API 客户端
type Client struct {
	baseURL  string
	statuses []string
	client   *http.Client
}

// NewClient 创建客户端，timeout 单位为秒，0 表示 30 秒
func NewClient(baseURL string, timeout int, statuses []string) *Client {
	t := time.Duration(timeout) * time.Second
	if t == 0 {
		t = 30 * time.Second
	}
	return &Client{
		baseURL:  baseURL,
		statuses: statuses,
		client:   &http.Client{Timeout: t},
	}
}

// Ensure Client implements Searcher
var _ Searcher = (*Client)(nil)

// Search 按适应症检索试验
func (c *Client) Search(ctx context.Context, req *Request) ([]model.TrialRecord, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	pageSize := req.MaxResults
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	statuses := req.Statuses
	if len(statuses) == 0 {
		statuses = c.statuses
	}

	q := u.Query()
	q.Set("query.cond", req.Condition)
	if len(statuses) > 0 {
		q.Set("filter.overallStatus", strings.Join(statuses, "|"))
	}
	q.Set("pageSize", strconv.Itoa(pageSize))
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("clinicaltrials.gov api error (status %d): %s", res.StatusCode, string(body))
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("clinicaltrials.gov returned invalid json")
	}

	studies := gjson.GetBytes(body, "studies").Array()
	logger.Log.Infof("检索 [%s] 找到 %d 个试验", req.Condition, len(studies))
	if req.MaxResults > 0 && len(studies) > req.MaxResults {
		studies = studies[:req.MaxResults]
	}
	return ParseStudies(studies), nil
}

// ParseStudies 将 API 返回的 study 转换为 TrialRecord，无法识别的条目跳过
func ParseStudies(studies []gjson.Result) []model.TrialRecord {
	trials := make([]model.TrialRecord, 0, len(studies))
	for i, s := range studies {
		if !s.IsObject() {
			logger.Log.Warnf("跳过第 %d 个无法解析的试验条目", i)
			continue
		}
		trials = append(trials, parseStudy(s))
	}
	return trials
}

func parseStudy(s gjson.Result) model.TrialRecord {
	p := s.Get("protocolSection")
	nctID := p.Get("identificationModule.nctId").String()

	phase := "N/A"
	if phases := p.Get("designModule.phases").Array(); len(phases) > 0 {
		phase = phases[0].String()
	}

	conditions := []string{}
	for _, c := range p.Get("conditionsModule.conditions").Array() {
		conditions = append(conditions, c.String())
	}

	interventions := []model.Intervention{}
	for _, iv := range p.Get("armsInterventionsModule.interventions").Array() {
		interventions = append(interventions, model.Intervention{
			Type: orDefault(iv.Get("type"), model.Unknown),
			Name: orDefault(iv.Get("name"), model.Unknown),
		})
	}

	enrollment := model.UnknownEnrollment
	if c := p.Get("designModule.enrollmentInfo.count"); c.Exists() {
		enrollment = model.Enrollment(c.Int())
	}

	return model.TrialRecord{
		NCTID:          orDefault(p.Get("identificationModule.nctId"), model.Unknown),
		Title:          orDefault(p.Get("identificationModule.briefTitle"), "No title"),
		OfficialTitle:  p.Get("identificationModule.officialTitle").String(),
		Status:         orDefault(p.Get("statusModule.overallStatus"), model.Unknown),
		Phase:          phase,
		Conditions:     conditions,
		Interventions:  interventions,
		Enrollment:     enrollment,
		StartDate:      orDefault(p.Get("statusModule.startDateStruct.date"), model.Unknown),
		CompletionDate: orDefault(p.Get("statusModule.completionDateStruct.date"), model.Unknown),
		URL:            studyURLPrefix + nctID,
	}
}

func orDefault(r gjson.Result, def string) string {
	if !r.Exists() || r.String() == "" {
		return def
	}
	return r.String()
}
