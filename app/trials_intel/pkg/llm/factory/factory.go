package factory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/config"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/llm"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/llm/anthropic"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/llm/openai"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/logger"
)

// NewModel 根据配置创建模型实例：use_mock 时返回 mock，否则按 provider 创建在线模型
func NewModel(ctx context.Context, cfg config.LLMConfig, cc config.ConcurrencyConfig) (llm.Model, error) {
	if cfg.UseMock {
		logger.Log.Infof("使用 MOCK 模型 (%s)", cfg.Model)
		return llm.NewMockModel(cfg.Model), nil
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("llm api key is missing")
	}

	limiter := newLimiter(cc)
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = "gemini"
	}

	logger.Log.Infof("使用在线模型 %s (%s)", provider, cfg.Model)
	switch provider {
	case "gemini", "openai":
		baseURL := cfg.BaseURL
		if baseURL == "" && provider == "gemini" {
			baseURL = config.DefaultGeminiBaseURL
		}
		return openai.NewClient(ctx, openai.Config{
			Provider: provider,
			BaseURL:  baseURL,
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
			Timeout:  time.Duration(cfg.Timeout) * time.Second,
		}, limiter)

	case "anthropic":
		return anthropic.NewClient(cfg.APIKey, cfg.Model, limiter), nil

	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

// GetModel 以模型名和 mock 开关创建模型，其余参数取自 cfg
func GetModel(ctx context.Context, name string, useMock bool, cfg *config.Config) (llm.Model, error) {
	lc := cfg.LLM
	lc.Model = name
	lc.UseMock = useMock
	return NewModel(ctx, lc, cfg.Concurrency)
}

// newLimiter Limit 为 RPM/60，Burst 为 QPS；未配置 RPM 时不限速
func newLimiter(cc config.ConcurrencyConfig) *rate.Limiter {
	if cc.RPM <= 0 {
		return nil
	}
	burst := cc.QPS
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(float64(cc.RPM) / 60.0)
	logger.Log.Infof("限流器已配置: Limit=%.2f req/s, Burst=%d", limit, burst)
	return rate.NewLimiter(limit, burst)
}
