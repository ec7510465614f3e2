package speech

import (
	"context"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/PabloGalante/jarvis-hud/internal/domain"
)

// Noop is used when no speech backend is configured.
type Noop struct{}

func (Noop) Transcribe(context.Context, io.Reader, string) (string, error) {
	return "", domain.ErrSpeechUnsupported
}

func (Noop) Synthesize(context.Context, string) (io.ReadCloser, error) {
	return nil, domain.ErrSpeechUnsupported
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Voice   string
	// Speed is the TTS playback rate, 0.25 to 4.0. Zero means 1.0.
	Speed float64
}

// OpenAI transcribes with Whisper and synthesizes with the TTS endpoint.
type OpenAI struct {
	client *openai.Client
	voice  openai.SpeechVoice
	speed  float64
}

func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key must be provided for speech")
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	voice := openai.VoiceOnyx
	if cfg.Voice != "" {
		voice = openai.SpeechVoice(cfg.Voice)
	}
	speed := cfg.Speed
	if speed == 0 {
		speed = 1.0
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(oc),
		voice:  voice,
		speed:  speed,
	}, nil
}

func (o *OpenAI) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if filename == "" {
		filename = "speech.webm"
	}
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   audio,
		FilePath: filename,
		Language: "en",
	})
	if err != nil {
		return "", fmt.Errorf("transcribing audio: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// Synthesize returns an MP3 stream. The caller closes it.
func (o *OpenAI) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("nothing to synthesize")
	}
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          o.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          o.speed,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesizing speech: %w", err)
	}
	return resp.ReadCloser, nil
}
