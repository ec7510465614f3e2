package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PabloGalante/jarvis-hud/internal/domain"
)

const defaultEndpointTimeout = 120 * time.Second

// EndpointClient streams replies from a remote chat endpoint speaking the
// POST /chat protocol: a JSON request, a text/event-stream response with
// `data: {"content": "..."}` events terminated by `data: [DONE]`, and
// a JSON {error} body on non-200 statuses.
type EndpointClient struct {
	url    string
	client *http.Client
}

func NewEndpointClient(url string, client *http.Client) (*EndpointClient, error) {
	if url == "" {
		return nil, errors.New("chat endpoint url must be provided")
	}
	if client == nil {
		client = &http.Client{Timeout: defaultEndpointTimeout}
	}
	return &EndpointClient{url: url, client: client}, nil
}

// StreamEvent is one data event of the chat endpoint stream.
type StreamEvent struct {
	Content string `json:"content"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *EndpointClient) StreamChat(ctx context.Context, req domain.ChatRequest) (<-chan domain.ChatChunk, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.UpstreamError{Kind: domain.ErrUpstream, Status: http.StatusBadGateway, Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var eb errorBody
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
			msg = eb.Error
		}
		return nil, domain.UpstreamErrorFromStatus(resp.StatusCode, msg)
	}

	ch := make(chan domain.ChatChunk)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		event := ""
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				event = ""
				continue
			}
			if name, ok := strings.CutPrefix(line, "event:"); ok {
				event = strings.TrimSpace(name)
				continue
			}
			data, ok := strings.CutPrefix(line, "data:")
			if !ok {
				continue
			}
			data = strings.TrimSpace(data)

			if data == "[DONE]" {
				send(ctx, ch, domain.ChatChunk{Done: true})
				return
			}
			if event == "error" {
				var eb errorBody
				_ = json.Unmarshal([]byte(data), &eb)
				send(ctx, ch, domain.ChatChunk{Done: true, Err: &domain.UpstreamError{
					Kind: domain.ErrUpstream, Status: http.StatusBadGateway, Message: eb.Error,
				}})
				return
			}

			var ev StreamEvent
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				send(ctx, ch, domain.ChatChunk{Done: true, Err: fmt.Errorf("decode chunk: %w", err)})
				return
			}
			if ev.Content != "" {
				if !send(ctx, ch, domain.ChatChunk{Delta: ev.Content}) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			send(ctx, ch, domain.ChatChunk{Done: true, Err: fmt.Errorf("read stream: %w", err)})
			return
		}
		send(ctx, ch, domain.ChatChunk{Done: true, Err: &domain.UpstreamError{
			Kind: domain.ErrUpstream, Status: http.StatusBadGateway, Message: "stream ended without [DONE]",
		}})
	}()
	return ch, nil
}
