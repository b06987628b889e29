package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"alfredoptarigan/skill-evaluator/internal/logger"
)

const openRouterSystemPrompt = "You are an expert career coach who evaluates resumes and interview answers. Reply with JSON only."

// StatusError is a non-2xx response from an HTTP AI provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, logger.TruncateForLog(e.Body, 200))
}

type openRouterService struct {
	client  *resty.Client
	model   string
	opts    GeneratorOptions
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewOpenRouterService talks to an OpenAI-compatible chat completions endpoint.
func NewOpenRouterService(apiKey, baseURL, model string, opts GeneratorOptions, log *zap.Logger) (TextGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing API key (OPENROUTER_API_KEY)")
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	return &openRouterService{
		client:  client,
		model:   model,
		opts:    opts,
		limiter: newLimiter(opts.RequestsPerMinute),
		log:     logger.OrNop(log),
	}, nil
}

func (s *openRouterService) Name() string {
	return "openrouter"
}

func (s *openRouterService) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	payload := map[string]any{
		"model":       s.model,
		"temperature": temperature,
		"messages": []map[string]string{
			{"role": "system", "content": openRouterSystemPrompt},
			{"role": "user", "content": prompt},
		},
	}

	return retryDo(ctx, s.opts.Retry, s.log, "openrouter generate", isRetryableHTTPError, func(ctx context.Context) (string, error) {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := s.client.R().
			SetContext(ctx).
			SetBody(payload).
			Post("/chat/completions")
		if err != nil {
			return "", err
		}
		if resp.IsError() {
			return "", &StatusError{Code: resp.StatusCode(), Body: resp.String()}
		}

		body := resp.String()
		if msg := gjson.Get(body, "error.message"); msg.Exists() {
			return "", fmt.Errorf("openrouter error: %s", msg.String())
		}

		text := gjson.Get(body, "choices.0.message.content").String()
		if strings.TrimSpace(text) == "" {
			return "", ErrEmptyResponse
		}

		s.log.Debug("📊 OpenRouter response received",
			zap.String("model", gjson.Get(body, "model").String()),
			zap.Int("length", len(text)),
		)
		return text, nil
	})
}

func isRetryableHTTPError(err error) bool {
	if se, ok := err.(*StatusError); ok {
		return isRetryableStatus(se.Code)
	}
	return isTransientError(err)
}
