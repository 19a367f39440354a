package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/llm"
	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/logger"
)

const systemPrompt = "You are a JSON generator for clinical-trial intelligence. Respond with JSON only."

// Generator eino ChatModel 中本包用到的部分
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Config OpenAI 兼容接口配置（Gemini 的 OpenAI 兼容端点同样适用）
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// Client 基于 eino 的在线模型
type Client struct {
	provider string
	model    string
	chat     Generator
	limiter  *rate.Limiter
}

var _ llm.Model = (*Client)(nil)

// NewClient 创建在线模型，limiter 可为 nil
func NewClient(ctx context.Context, cfg Config, limiter *rate.Limiter) (*Client, error) {
	chatModel, err := einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}
	return NewClientWithGenerator(cfg.Provider, cfg.Model, chatModel, limiter), nil
}

// NewClientWithGenerator 使用已有的 Generator，便于测试注入
func NewClientWithGenerator(provider, modelName string, chat Generator, limiter *rate.Limiter) *Client {
	if provider == "" {
		provider = "openai"
	}
	return &Client{provider: provider, model: modelName, chat: chat, limiter: limiter}
}

func (c *Client) Name() string { return c.model }

// Generate 单次调用，不做重试
func (c *Client) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.wrap(err)
		}
	}

	for _, img := range req.Images {
		if !strings.HasPrefix(img.MIMEType, "image/") {
			return nil, c.wrap(fmt.Errorf("attachment type %s is not supported, only images are", img.MIMEType))
		}
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		userMessage(req),
	}

	start := time.Now()
	resp, err := c.chat.Generate(ctx, messages)
	if err != nil {
		return nil, c.wrap(err)
	}
	logger.Log.Debugf("模型 [%s] 返回 %d 字节, 耗时 %s", c.model, len(resp.Content), time.Since(start))
	return &llm.Response{Text: resp.Content}, nil
}

func (c *Client) wrap(err error) error {
	return &llm.ProviderError{Provider: c.provider, Model: c.model, Err: err}
}

// userMessage 纯文本走 Content，带图片时使用多模态分片
func userMessage(req *llm.Request) *schema.Message {
	if len(req.Images) == 0 {
		return schema.UserMessage(req.Prompt)
	}
	parts := []schema.ChatMessagePart{
		{Type: schema.ChatMessagePartTypeText, Text: req.Prompt},
	}
	for _, img := range req.Images {
		parts = append(parts, schema.ChatMessagePart{
			Type: schema.ChatMessagePartTypeImageURL,
			ImageURL: &schema.ChatMessageImageURL{
				URL:      img.DataURI(),
				Detail:   schema.ImageURLDetailAuto,
				MIMEType: img.MIMEType,
			},
		})
	}
	return &schema.Message{Role: schema.User, MultiContent: parts}
}
