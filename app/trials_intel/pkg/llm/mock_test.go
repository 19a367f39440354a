package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockModel_PriorityPortfolioBeforeClassification(t *testing.T) {
	m := NewMockModel("gemini-2.0-flash")
	prompt := "Classify each trial by therapeutic_area, then give strategic insights on market trends."

	assert.Equal(t, "portfolio", m.RuleFor(prompt))

	resp, err := m.Generate(context.Background(), Text(prompt))
	require.NoError(t, err)
	assert.Equal(t, MockInsightsJSON, resp.Text)
}

func TestMockModel_Classification(t *testing.T) {
	m := NewMockModel("gemini-2.0-flash")
	resp, err := m.Generate(context.Background(), Text("Analyze this clinical trial and provide a structured classification"))
	require.NoError(t, err)
	assert.Equal(t, MockClassificationJSON, resp.Text)
}

func TestMockModel_CaseInsensitive(t *testing.T) {
	m := NewMockModel("x")
	assert.Equal(t, "portfolio", m.RuleFor("EXECUTIVE SUMMARY please"))
	assert.Equal(t, "classification", m.RuleFor("CLASSIFY this"))
}

func TestMockModel_Echo(t *testing.T) {
	m := NewMockModel("x")
	prompt := strings.Repeat("abcdefghij", 8)

	resp, err := m.Generate(context.Background(), Text(prompt))
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(resp.Text), &out))
	assert.Equal(t, "Mock response for: "+prompt[:50]+"...", out["analysis"])
}

func TestMockModel_EchoEscapesQuotes(t *testing.T) {
	m := NewMockModel("x")
	resp, err := m.Generate(context.Background(), Text(`say "hi"`))
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(resp.Text)))
}

func TestMockModel_CannedPayloadsAreValidJSON(t *testing.T) {
	assert.True(t, json.Valid([]byte(MockInsightsJSON)))
	assert.True(t, json.Valid([]byte(MockClassificationJSON)))
}

func TestMockModel_IgnoresImages(t *testing.T) {
	m := NewMockModel("x")
	resp, err := m.Generate(context.Background(), WithImage("classify", Image{Data: []byte{1, 2}, MIMEType: "image/png"}))
	require.NoError(t, err)
	assert.Equal(t, MockClassificationJSON, resp.Text)
}

func TestImageDataURI(t *testing.T) {
	img := Image{Data: []byte("hi"), MIMEType: "image/png"}
	assert.Equal(t, "data:image/png;base64,aGk=", img.DataURI())
}

func TestProviderErrorUnwrap(t *testing.T) {
	inner := errors.New("quota exceeded")
	err := error(&ProviderError{Provider: "gemini", Model: "m", Err: inner})
	assert.ErrorIs(t, err, inner)

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Error(), "quota exceeded")
}
