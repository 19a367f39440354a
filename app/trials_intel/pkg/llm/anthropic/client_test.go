package anthropic

import (
	"context"
	"errors"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/trials_intel/app/trials_intel/pkg/llm"
)

type fakeMessager struct {
	params anthropic.MessageNewParams
	resp   *anthropic.Message
	err    error
}

func (f *fakeMessager) New(_ context.Context, params anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func TestClient_Generate(t *testing.T) {
	fake := &fakeMessager{resp: &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: `{"a":`},
			{Type: "text", Text: `1}`},
		},
	}}
	c := NewClientWithMessager("claude-sonnet-4-20250514", fake, nil)

	resp, err := c.Generate(context.Background(), llm.WithImage("read the table", llm.Image{Data: []byte("x"), MIMEType: "image/png"}))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, resp.Text)

	assert.Equal(t, anthropic.Model("claude-sonnet-4-20250514"), fake.params.Model)
	require.Len(t, fake.params.Messages, 1)
	// 图片在前，文本在后
	assert.Len(t, fake.params.Messages[0].Content, 2)
}

func TestClient_GeneratePDFDocument(t *testing.T) {
	fake := &fakeMessager{resp: &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{{Type: "text", Text: `{}`}},
	}}
	c := NewClientWithMessager("m", fake, nil)

	doc := llm.Image{Data: []byte("%PDF-1.7"), MIMEType: llm.MIMEPDF}
	_, err := c.Generate(context.Background(), llm.WithImage("results", doc))
	require.NoError(t, err)

	content := fake.params.Messages[0].Content
	require.Len(t, content, 2)
	require.NotNil(t, content[0].OfDocument)
	require.NotNil(t, content[0].OfDocument.Source.OfBase64)
	assert.Equal(t, doc.Base64(), content[0].OfDocument.Source.OfBase64.Data)
	assert.Nil(t, content[0].OfImage)
}

func TestClient_GenerateError(t *testing.T) {
	fake := &fakeMessager{err: errors.New("401 unauthorized")}
	c := NewClientWithMessager("m", fake, nil)

	_, err := c.Generate(context.Background(), llm.Text("x"))
	var pe *llm.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "anthropic", pe.Provider)
}
