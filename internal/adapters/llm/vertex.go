package llm

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"

	"google.golang.org/genai"

	"github.com/PabloGalante/jarvis-hud/internal/domain"
)

type VertexConfig struct {
	ProjectID string
	Location  string
	ModelName string
}

type VertexClient struct {
	client    *genai.Client
	modelName string
}

// NewVertexClient creates a ChatStreamer based on Vertex AI (Gemini).
func NewVertexClient(ctx context.Context, cfg VertexConfig) (*VertexClient, error) {
	if cfg.ProjectID == "" || cfg.Location == "" {
		return nil, fmt.Errorf("vertex project and location must be set")
	}

	modelName := cfg.ModelName
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.ProjectID,
		Location: cfg.Location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &VertexClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// StreamChat implements domain.ChatStreamer using Vertex AI.
// The first response is pulled before returning so that a rejected request
// surfaces as an error instead of a failed stream.
func (v *VertexClient) StreamChat(ctx context.Context, req domain.ChatRequest) (<-chan domain.ChatChunk, error) {
	var contents []*genai.Content
	for _, m := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	temp := float32(0.7)
	topP := float32(0.9)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(BuildSystemPrompt(req.Personality), genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   int32(8192),
	}

	next, stop := iter.Pull2(v.client.Models.GenerateContentStream(ctx, v.modelName, contents, cfg))

	first, err, ok := next()
	if err != nil {
		stop()
		return nil, classifyGenAIError(err)
	}

	ch := make(chan domain.ChatChunk)
	go func() {
		defer close(ch)
		defer stop()

		resp := first
		for ok {
			if text := resp.Text(); text != "" {
				if !send(ctx, ch, domain.ChatChunk{Delta: text}) {
					return
				}
			}

			resp, err, ok = next()
			if err != nil {
				send(ctx, ch, domain.ChatChunk{Done: true, Err: classifyGenAIError(err)})
				return
			}
		}
		send(ctx, ch, domain.ChatChunk{Done: true})
	}()
	return ch, nil
}

func classifyGenAIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == "RESOURCE_EXHAUSTED" && apiErr.Code != http.StatusTooManyRequests {
			return &domain.UpstreamError{Kind: domain.ErrQuotaExhausted, Status: apiErr.Code, Message: apiErr.Message}
		}
		return domain.UpstreamErrorFromStatus(apiErr.Code, apiErr.Message)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &domain.UpstreamError{Kind: domain.ErrUpstream, Status: http.StatusBadGateway, Message: err.Error()}
}
