package llmservice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"paper-rag/internal/models"
)

type fakeModel struct {
	messages []llms.MessageContent
	opts     llms.CallOptions
	reply    string
	choices  int
	err      error
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	for _, opt := range options {
		opt(&m.opts)
	}
	if m.err != nil {
		return nil, m.err
	}
	resp := &llms.ContentResponse{}
	for i := 0; i < m.choices; i++ {
		resp.Choices = append(resp.Choices, &llms.ContentChoice{Content: m.reply})
	}
	return resp, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func textOf(t *testing.T, msg llms.MessageContent) string {
	t.Helper()
	require.Len(t, msg.Parts, 1)
	part, ok := msg.Parts[0].(llms.TextContent)
	require.True(t, ok)
	return part.Text
}

func TestGenerate_BuildsMessages(t *testing.T) {
	m := &fakeModel{reply: "Attention.", choices: 1}
	c := NewClientWithModel(m, 0.2, 256)

	got, err := c.Generate(context.Background(), models.AnswerInstruction, "chunk one", "What is used?")
	require.NoError(t, err)
	assert.Equal(t, "Attention.", got)

	require.Len(t, m.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, m.messages[0].Role)
	assert.Equal(t, models.AnswerInstruction, textOf(t, m.messages[0]))
	assert.Equal(t, llms.ChatMessageTypeHuman, m.messages[1].Role)
	assert.Equal(t, "<context>\nchunk one\n</context>\nQuestion: What is used?\n", textOf(t, m.messages[1]))

	assert.InDelta(t, 0.2, m.opts.Temperature, 1e-9)
	assert.Equal(t, 256, m.opts.MaxTokens)
}

func TestGenerate_StripsThinkBlocks(t *testing.T) {
	m := &fakeModel{reply: "<think>\nlet me see\n</think>\n\n  BLEU is a metric. ", choices: 1}
	got, err := NewClientWithModel(m, 0, 0).Generate(context.Background(), "i", "c", "q")
	require.NoError(t, err)
	assert.Equal(t, "BLEU is a metric.", got)
	assert.Zero(t, m.opts.MaxTokens)
}

func TestGenerate_Errors(t *testing.T) {
	cause := errors.New("boom")
	_, err := NewClientWithModel(&fakeModel{err: cause}, 0, 0).Generate(context.Background(), "i", "c", "q")
	assert.ErrorIs(t, err, cause)

	_, err = NewClientWithModel(&fakeModel{choices: 0}, 0, 0).Generate(context.Background(), "i", "c", "q")
	assert.ErrorIs(t, err, errEmptyCompletion)

	_, err = NewClientWithModel(&fakeModel{reply: "<think>only thoughts</think>", choices: 1}, 0, 0).Generate(context.Background(), "i", "c", "q")
	assert.ErrorIs(t, err, errEmptyCompletion)
}
