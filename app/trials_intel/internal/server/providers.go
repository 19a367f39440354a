package server

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/analyzer"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/config"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/llm"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/llm/factory"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/registry"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/session"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/storage"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/vision"
)

// NewModel 根据 llm 配置创建模型
func NewModel(c config.LLMConfig, cc config.ConcurrencyConfig, logger log.Logger) (llm.Model, error) {
	m, err := factory.NewModel(context.Background(), c, cc)
	if err != nil {
		log.NewHelper(logger).Errorf("Failed to init model: %v", err)
		return nil, err
	}
	return m, nil
}

// NewSearcher 创建 ClinicalTrials.gov 客户端
func NewSearcher(c config.RegistryConfig) registry.Searcher {
	return registry.NewClient(c.BaseURL, c.Timeout, c.Statuses)
}

func NewAnalyzer(m llm.Model) *analyzer.Analyzer {
	return analyzer.New(m)
}

func NewExtractor(m llm.Model, c config.LLMConfig) *vision.Extractor {
	return vision.New(m, c.UseMock)
}

func NewSessionStore(c config.SessionConfig) (*session.Store, error) {
	return session.NewStore(c.MaxEntries)
}

// NewStorage db.host 为空时返回 nil，分析结果只保存在会话中
func NewStorage(c config.DBConfig, logger log.Logger) (*storage.Storage, func(), error) {
	helper := log.NewHelper(logger)
	if c.Host == "" {
		helper.Info("未配置数据库，跳过持久化")
		return nil, func() {}, nil
	}

	store, err := storage.NewStorage(c)
	if err != nil {
		helper.Errorf("Failed to init storage: %v", err)
		return nil, nil, err
	}
	if err := store.InitSchema(context.Background()); err != nil {
		helper.Errorf("Failed to init schema: %v", err)
		_ = store.Close()
		return nil, nil, err
	}

	cleanup := func() {
		helper.Info("Closing storage")
		if err := store.Close(); err != nil {
			helper.Errorf("Failed to close storage: %v", err)
		}
	}
	return store, cleanup, nil
}
