// Package extract 从模型输出文本中剥离 markdown 代码块并解析 JSON。
package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	fence     = "```"
	jsonFence = "```json"

	// SnippetLimit 错误中保留的原文长度
	SnippetLimit = 200
)

// Error 模型输出无法解析为 JSON
type Error struct {
	Snippet string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract json: %v (text: %q)", e.Err, e.Snippet)
}

func (e *Error) Unwrap() error { return e.Err }

// Payload 解析成功的 JSON 负载
type Payload struct {
	raw   []byte
	value any
}

// Raw 原始 JSON 文本
func (p *Payload) Raw() []byte { return p.raw }

// Value 解码后的通用值
func (p *Payload) Value() any { return p.value }

// Get 按 gjson 路径取值
func (p *Payload) Get(path string) gjson.Result { return gjson.GetBytes(p.raw, path) }

// Has 顶层对象是否包含 key
func (p *Payload) Has(key string) bool {
	obj, ok := p.value.(map[string]any)
	if !ok {
		return false
	}
	_, ok = obj[key]
	return ok
}

// Decode 解码到目标结构
func (p *Payload) Decode(out any) error { return json.Unmarshal(p.raw, out) }

// Isolate 返回待解析的 JSON 文本：优先 ```json 代码块，其次任意代码块，否则原文
func Isolate(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, jsonFence); i >= 0 {
		return strings.TrimSpace(untilFence(text[i+len(jsonFence):]))
	}
	if i := strings.Index(text, fence); i >= 0 {
		return strings.TrimSpace(untilFence(text[i+len(fence):]))
	}
	return text
}

// untilFence 截取到下一个代码块标记；未闭合时取到末尾
func untilFence(s string) string {
	if j := strings.Index(s, fence); j >= 0 {
		return s[:j]
	}
	return s
}

// JSON 隔离并解析模型输出中的 JSON
func JSON(text string) (*Payload, error) {
	body := Isolate(text)
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil, &Error{Snippet: Truncate(body, SnippetLimit), Err: err}
	}
	return &Payload{raw: []byte(body), value: v}, nil
}

// Truncate 按字节截断并附加省略号，不切断多字节字符
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
