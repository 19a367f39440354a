package anthropic

import (
	"context"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/llm"
)

const (
	providerName = "anthropic"
	maxTokens    = 4096
	systemPrompt = "You are a JSON generator for clinical-trial intelligence. Respond with strict JSON only."
)

// Messager anthropic Messages 服务中本包用到的部分
type Messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Client 基于 Anthropic Messages API 的在线模型
type Client struct {
	model    string
	messages Messager
	limiter  *rate.Limiter
}

var _ llm.Model = (*Client)(nil)

// NewClient 使用 API Key 创建客户端
func NewClient(apiKey, model string, limiter *rate.Limiter) *Client {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return NewClientWithMessager(model, &c.Messages, limiter)
}

// NewClientWithMessager 注入 Messager，便于测试
func NewClientWithMessager(model string, m Messager, limiter *rate.Limiter) *Client {
	return &Client{model: model, messages: m, limiter: limiter}
}

func (c *Client) Name() string { return c.model }

func (c *Client) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.wrap(err)
		}
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(req.Images)+1)
	for _, img := range req.Images {
		if img.IsPDF() {
			blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: img.Base64()}))
			continue
		}
		blocks = append(blocks, anthropic.NewImageBlockBase64(img.MIMEType, img.Base64()))
	}
	blocks = append(blocks, anthropic.NewTextBlock(req.Prompt))

	resp, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   maxTokens,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return nil, c.wrap(err)
	}

	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return &llm.Response{Text: sb.String()}, nil
}

func (c *Client) wrap(err error) error {
	return &llm.ProviderError{Provider: providerName, Model: c.model, Err: err}
}
