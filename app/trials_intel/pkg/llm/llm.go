// Package llm 定义生成模型的统一调用接口。
//
// 具体实现有两类：确定性的 MockModel，以及 openai / anthropic 子包中的在线模型。
// 调用方只依赖 Model 接口，模型的选择在 factory 中完成。
package llm

import (
	"context"
	"encoding/base64"
	"fmt"
)

// Image 随提示词一起发送的图片，也可以是 PDF 文档
type Image struct {
	Data     []byte
	MIMEType string
}

// DataURI 返回 data:<mime>;base64,... 形式
func (img Image) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", img.MIMEType, img.Base64())
}

// MIMEPDF PDF 附件的 MIME 类型
const MIMEPDF = "application/pdf"

// IsPDF 附件是否为 PDF 文档
func (img Image) IsPDF() bool { return img.MIMEType == MIMEPDF }

// Base64 图片内容的 base64 编码
func (img Image) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

// Request 一次生成请求：纯文本，或文本加图片
type Request struct {
	Prompt string
	Images []Image
}

// Text 纯文本请求
func Text(prompt string) *Request {
	return &Request{Prompt: prompt}
}

// WithImage 文本加单张图片的请求
func WithImage(prompt string, img Image) *Request {
	return &Request{Prompt: prompt, Images: []Image{img}}
}

// Response 模型返回的文本
type Response struct {
	Text string
}

// Model 生成模型
type Model interface {
	Name() string
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// ProviderError 模型调用本身失败（网络、鉴权、配额等）
type ProviderError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s model %s: %v", e.Provider, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
