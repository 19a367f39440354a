package service

import (
	"context"
	"errors"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/analyzer"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/config"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/llm"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/model"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/registry"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/session"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/storage"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/vision"
)

// TrialsService HTTP 接口的业务实现
type TrialsService struct {
	searcher registry.Searcher
	analyzer *analyzer.Analyzer
	vision   *vision.Extractor
	sessions *session.Store
	store    *storage.Storage // 可为 nil
	server   config.ServerConfig
	visCfg   config.VisionConfig
	log      *log.Helper
}

func NewTrialsService(
	searcher registry.Searcher,
	an *analyzer.Analyzer,
	ve *vision.Extractor,
	sessions *session.Store,
	store *storage.Storage,
	server config.ServerConfig,
	visCfg config.VisionConfig,
	logger log.Logger,
) *TrialsService {
	return &TrialsService{
		searcher: searcher,
		analyzer: an,
		vision:   ve,
		sessions: sessions,
		store:    store,
		server:   server,
		visCfg:   visCfg,
		log:      log.NewHelper(logger),
	}
}

func (s *TrialsService) Search(ctx context.Context, req *SearchRequest) (*SearchReply, error) {
	condition := req.Condition
	if condition == "" {
		condition = defaultCondition
	}
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if maxResults > 100 {
		return nil, kerrors.BadRequest("INVALID_MAX_RESULTS", "max_results must be between 1 and 100")
	}

	s.log.WithContext(ctx).Infof("检索试验: %s (max %d)", condition, maxResults)
	trials, err := s.searcher.Search(ctx, &registry.Request{Condition: condition, MaxResults: maxResults})
	if err != nil {
		s.log.WithContext(ctx).Errorf("检索失败: %v", err)
		return nil, kerrors.ServiceUnavailable("REGISTRY_UNAVAILABLE", err.Error())
	}
	if trials == nil {
		trials = []model.TrialRecord{}
	}

	sess := s.sessions.Resolve(req.SessionID)
	if _, err := s.sessions.SetTrials(sess.ID, condition, trials); err != nil {
		return nil, kerrors.InternalServer("SESSION_ERROR", err.Error())
	}

	return &SearchReply{
		Success:   true,
		SessionID: sess.ID,
		Trials:    trials,
		Count:     len(trials),
	}, nil
}

func (s *TrialsService) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeReply, error) {
	if req.SessionID == "" {
		return nil, kerrors.BadRequest("NO_TRIALS", "No trials to analyze")
	}
	sess, err := s.sessions.Get(req.SessionID)
	if errors.Is(err, session.ErrNotFound) || (err == nil && len(sess.Trials) == 0) {
		return nil, kerrors.BadRequest("NO_TRIALS", "No trials to analyze")
	}
	if err != nil {
		return nil, kerrors.InternalServer("SESSION_ERROR", err.Error())
	}

	trials := sess.Trials
	if limit := s.server.AnalyzeLimit; limit > 0 && len(trials) > limit {
		trials = trials[:limit]
	}
	s.log.WithContext(ctx).Infof("分析会话 [%s] 的 %d 个试验", sess.ID, len(trials))

	analyzed := s.analyzer.AnalyzeBatch(ctx, trials)
	result := &model.AnalysisResult{
		Trials:  analyzed,
		Summary: s.analyzer.Compare(ctx, analyzed),
	}
	if _, err := s.sessions.SetAnalysis(sess.ID, sess.Generation, result); err != nil {
		if errors.Is(err, session.ErrStale) {
			s.log.WithContext(ctx).Warnf("会话 [%s] 在分析期间被新的检索覆盖，丢弃本次结果", sess.ID)
			return nil, kerrors.Conflict("SESSION_CHANGED", "Trials changed during analysis, please analyze again")
		}
		return nil, kerrors.InternalServer("SESSION_ERROR", err.Error())
	}

	reply := &AnalyzeReply{Success: true, SessionID: sess.ID, Analysis: result}
	if s.store != nil {
		runID, err := s.store.SaveResult(ctx, storage.RunMeta{
			Condition: sess.Condition,
			Mode:      s.mode(),
			Model:     s.analyzer.ModelName(),
		}, result)
		if err != nil {
			s.log.WithContext(ctx).Errorf("保存分析结果失败: %v", err)
		} else {
			reply.RunID = runID
		}
	}
	return reply, nil
}

func (s *TrialsService) VisionDemo(ctx context.Context, _ *VisionDemoRequest) (*VisionDemoReply, error) {
	s.log.WithContext(ctx).Info("运行图片分析示例")
	return &VisionDemoReply{
		Success:          true,
		SurvivalAnalysis: s.survival(ctx),
		SafetyAnalysis:   s.adverseEvents(ctx),
		TrialResults:     s.trialResults(ctx),
	}, nil
}

func (s *TrialsService) Status(_ context.Context, req *StatusRequest) (*StatusReply, error) {
	reply := &StatusReply{
		Status:     "online",
		GeminiMode: s.mode(),
		Model:      s.analyzer.ModelName(),
		Sessions:   s.sessions.Len(),
	}
	if req.SessionID != "" {
		if sess, err := s.sessions.Get(req.SessionID); err == nil {
			reply.CachedTrials = len(sess.Trials)
			reply.HasAnalysis = sess.Analysis != nil
		}
	}
	return reply, nil
}

func (s *TrialsService) mode() string {
	if s.vision.Mock() {
		return "mock"
	}
	return "real"
}

func (s *TrialsService) survival(ctx context.Context) model.SurvivalResult {
	img, err := s.loadDemo(s.visCfg.SurvivalImage)
	if err != nil {
		return model.SurvivalResult{Error: err.Error()}
	}
	return s.vision.AnalyzeSurvivalCurve(ctx, img)
}

func (s *TrialsService) adverseEvents(ctx context.Context) model.AdverseEventResult {
	img, err := s.loadDemo(s.visCfg.AdverseEventImage)
	if err != nil {
		return model.AdverseEventResult{Error: err.Error()}
	}
	return s.vision.AnalyzeAdverseEventsTable(ctx, img)
}

func (s *TrialsService) trialResults(ctx context.Context) model.TrialResultsResult {
	doc, err := s.loadDemo(s.visCfg.ResultsDocument)
	if err != nil {
		return model.TrialResultsResult{Error: err.Error()}
	}
	return s.vision.ExtractTrialResults(ctx, doc)
}

// loadDemo mock 模式不读取文件
func (s *TrialsService) loadDemo(path string) (llm.Image, error) {
	if s.vision.Mock() {
		return llm.Image{}, nil
	}
	return vision.LoadImage(path)
}
