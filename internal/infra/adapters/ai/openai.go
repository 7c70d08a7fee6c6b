// File: internal/infra/adapters/ai/openai.go
package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkoukk/tiktoken-go"

	"interview-coach/internal/domain/model"
	"interview-coach/internal/domain/ports/adapter"
	"interview-coach/internal/infra/metrics"
)

var _ adapter.TextGenerator = (*OpenAIGenerator)(nil)

// OpenAIGenerator talks to the Chat Completions API of OpenAI or any compatible gateway.
type OpenAIGenerator struct {
	client     openai.Client
	model      string
	maxOut     int64
	maxPrompt  int
	countToken func(string) int
}

func NewOpenAIGenerator(apiKey, baseURL, model string, maxOut int32, maxPromptTokens int) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("openai: empty api key")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIGenerator{
		client:     openai.NewClient(opts...),
		model:      model,
		maxOut:     int64(maxOut),
		maxPrompt:  maxPromptTokens,
		countToken: tokenCounter(model),
	}, nil
}

func (o *OpenAIGenerator) Generate(ctx context.Context, systemInstruction string, history []model.Message, input string) (string, error) {
	history, tokens := trimHistory(o.countToken, o.maxPrompt, systemInstruction, history, input)
	metrics.AddPromptTokens("openai", o.model, tokens)

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	if systemInstruction != "" {
		msgs = append(msgs, openai.SystemMessage(systemInstruction))
	}
	for _, m := range history {
		switch m.Role {
		case model.RoleAI:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		case model.RoleHuman:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	msgs = append(msgs, openai.UserMessage(input))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: msgs,
	}
	if o.maxOut > 0 {
		params.MaxCompletionTokens = openai.Int(o.maxOut)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	for _, c := range resp.Choices {
		if c.Message.Content != "" {
			return c.Message.Content, nil
		}
	}
	return "", errors.New("openai: no choice content")
}

// trimHistory drops the oldest history turns until the prompt fits maxTokens.
// It returns the kept history and its token count. maxTokens <= 0 disables trimming.
func trimHistory(count func(string) int, maxTokens int, system string, history []model.Message, input string) ([]model.Message, int) {
	fixed := count(system) + count(input)
	sizes := make([]int, len(history))
	total := fixed
	for i, m := range history {
		sizes[i] = count(m.Content)
		total += sizes[i]
	}
	start := 0
	for maxTokens > 0 && total > maxTokens && start < len(history) {
		total -= sizes[start]
		start++
	}
	return history[start:], total
}

// tokenCounter returns a tiktoken-backed counter, or a rough estimate when the encoding is unavailable.
func tokenCounter(model string) func(string) int {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		return estimateTokens
	}
	return func(s string) int {
		if s == "" {
			return 0
		}
		return len(enc.Encode(s, nil, nil))
	}
}

func estimateTokens(s string) int {
	n := len([]rune(s))
	if n == 0 {
		return 0
	}
	return n/4 + 1
}

// openAIStatus reports the HTTP status carried by an OpenAI API error, or 0.
func openAIStatus(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr.StatusCode
	}
	return 0
}
