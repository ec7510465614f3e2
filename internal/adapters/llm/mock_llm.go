package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/PabloGalante/jarvis-hud/internal/domain"
)

// MockLLM streams a canned reply word by word. Used in local mode.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) StreamChat(ctx context.Context, req domain.ChatRequest) (<-chan domain.ChatChunk, error) {
	var last string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == domain.RoleUser {
			last = req.Messages[i].Content
			break
		}
	}

	reply := fmt.Sprintf("Running diagnostics on %q. All systems nominal, %s.", last, addressWord(req.Personality.AddressStyle))
	return StreamText(ctx, reply), nil
}

// StreamText emits text as whitespace-preserving word chunks followed by Done.
func StreamText(ctx context.Context, text string) <-chan domain.ChatChunk {
	words := strings.SplitAfter(text, " ")
	ch := make(chan domain.ChatChunk, len(words)+1)
	go func() {
		defer close(ch)
		for _, w := range words {
			select {
			case ch <- domain.ChatChunk{Delta: w}:
			case <-ctx.Done():
				ch <- domain.ChatChunk{Done: true, Err: ctx.Err()}
				return
			}
		}
		ch <- domain.ChatChunk{Done: true}
	}()
	return ch
}

func addressWord(a domain.AddressStyle) string {
	switch a {
	case domain.AddressBoss:
		return "boss"
	case domain.AddressCasual, domain.AddressName:
		return "friend"
	default:
		return "sir"
	}
}
