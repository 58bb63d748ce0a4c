package llmservice

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"paper-rag/internal/config"
	"paper-rag/internal/models"
)

var (
	thinkRe = regexp.MustCompile(models.ThinkTag)

	errEmptyCompletion = errors.New("model returned an empty completion")
)

// Client generates answers with a chat model. It satisfies rag.Generator.
type Client struct {
	llm         llms.Model
	temperature float64
	maxTokens   int
}

// NewClient creates a chat client for the provider in cfg
func NewClient(cfg *config.LLMConfig) (*Client, error) {
	log.Debug().Interface("config", map[string]string{
		"provider": cfg.Provider,
		"base_url": cfg.BaseURL,
		"model":    cfg.Model,
	}).Msg("Creating llm client")

	var (
		llm llms.Model
		err error
	)
	switch cfg.Provider {
	case config.ProviderOllama:
		llm, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	default:
		llm, err = openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.Provider, err)
	}
	return NewClientWithModel(llm, cfg.Temperature, cfg.MaxTokens), nil
}

func NewClientWithModel(llm llms.Model, temperature float64, maxTokens int) *Client {
	return &Client{llm: llm, temperature: temperature, maxTokens: maxTokens}
}

// Generate sends the instruction as the system message and the context and
// question as the user message. Reasoning blocks are removed from the reply.
func (c *Client) Generate(ctx context.Context, instruction, contextBlock, question string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, instruction),
		llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf(models.QuestionPromptTemplate, contextBlock, question)),
	}

	opts := []llms.CallOption{llms.WithTemperature(c.temperature)}
	if c.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.maxTokens))
	}

	resp, err := c.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}

	text := CleanResponse(resp.Choices[0].Content)
	if text == "" {
		return "", errEmptyCompletion
	}
	return text, nil
}

// CleanResponse drops <think> blocks and surrounding whitespace.
func CleanResponse(text string) string {
	return strings.TrimSpace(thinkRe.ReplaceAllString(text, ""))
}
