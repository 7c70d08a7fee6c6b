package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"interview-coach/internal/domain/model"
	"interview-coach/internal/domain/ports/adapter"
)

var _ adapter.TextGenerator = (*GeminiGenerator)(nil)

type GeminiGenerator struct {
	client *genai.Client
	model  string
	maxOut int32
}

// NewGeminiGenerator creates a generator backed by the official Gemini SDK.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, maxOut int32) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiGenerator{client: c, model: model, maxOut: maxOut}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, systemInstruction string, history []model.Message, input string) (string, error) {
	cfg := &genai.GenerateContentConfig{MaxOutputTokens: g.maxOut}
	if strings.TrimSpace(systemInstruction) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}

	chat, err := g.client.Chats.Create(ctx, g.model, cfg, toGenAIHistory(history))
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", g.model, err)
	}
	resp, err := chat.SendMessage(ctx, genai.Part{Text: input})
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", g.model, err)
	}
	if text := firstCandidateText(resp); text != "" {
		return text, nil
	}
	return "", fmt.Errorf("gemini %s: empty response", g.model)
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

func toGenAIHistory(msgs []model.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		var role genai.Role
		switch m.Role {
		case model.RoleAI:
			role = genai.RoleModel
		case model.RoleHuman:
			role = genai.RoleUser
		default:
			continue
		}
		out = append(out, genai.NewContentFromText(m.Content, role))
	}
	return out
}

// geminiStatus reports the HTTP status carried by a Gemini API error, or 0.
func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}
