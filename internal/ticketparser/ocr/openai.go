package ocr

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	openai "github.com/sashabaranov/go-openai"
)

const transcribePrompt = "You are an OCR engine. Transcribe every piece of printed text in the image " +
	"exactly as it appears, one printed line per output line, keeping the original script, " +
	"full-width characters and punctuation. Do not translate, summarise or add commentary."

// OpenAIConfig configures the vision-model backend.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Retries     int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// OpenAITranscriber asks a vision chat model to transcribe the ticket.
type OpenAITranscriber struct {
	client      *openai.Client
	model       string
	timeout     time.Duration
	retries     int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	logger      *slog.Logger

	randMu sync.Mutex
	rand   *rand.Rand
}

func NewOpenAITranscriber(cfg OpenAIConfig, logger *slog.Logger) *OpenAITranscriber {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &OpenAITranscriber{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		timeout:     cfg.Timeout,
		retries:     cfg.Retries,
		baseBackoff: cfg.BaseBackoff,
		maxBackoff:  cfg.MaxBackoff,
		logger:      logger,
		rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, image []byte, hints []string) (string, error) {
	if len(image) == 0 {
		return "", errors.New("openai: empty image")
	}
	req := t.buildRequest(image, hints)

	var lastErr error
	for attempt := 0; attempt <= t.retries; attempt++ {
		text, err := t.complete(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !isRetryableOpenAI(err) || attempt >= t.retries {
			break
		}
		t.logger.Warn("openai_retry", "attempt", attempt+1, "error", err)
		d := backoffDuration(t.baseBackoff, attempt, t.jitter)
		if d > t.maxBackoff {
			d = t.maxBackoff
		}
		if err := sleepContext(ctx, d); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("openai: %w", lastErr)
}

func (t *OpenAITranscriber) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	resp, err := t.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (t *OpenAITranscriber) buildRequest(image []byte, hints []string) openai.ChatCompletionRequest {
	dataURL := "data:" + mimetype.Detect(image).String() + ";base64," + base64.StdEncoding.EncodeToString(image)
	instruction := "Transcribe this ticket."
	if len(hints) > 0 {
		instruction += " Expected languages: " + strings.Join(hints, ", ") + "."
	}
	return openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: transcribePrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: instruction},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL, Detail: openai.ImageURLDetailHigh},
					},
				},
			},
		},
	}
}

func (t *OpenAITranscriber) jitter(max int64) int64 {
	if max <= 0 {
		return 0
	}
	t.randMu.Lock()
	defer t.randMu.Unlock()
	return t.rand.Int63n(max + 1)
}

func isRetryableOpenAI(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryStatus(reqErr.HTTPStatusCode)
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func retryStatus(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
}
