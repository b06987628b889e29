package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"alfredoptarigan/skill-evaluator/internal/logger"
)

const maxEmbedInput = 40000

type GeminiService interface {
	TextGenerator
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type geminiService struct {
	client     *genai.Client
	modelName  string
	embedModel string
	opts       GeneratorOptions
	limiter    *rate.Limiter
	log        *zap.Logger
}

func NewGeminiService(ctx context.Context, apiKey, model, embedModel string, opts GeneratorOptions, log *zap.Logger) (GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing API key (GEMINI_API_KEY)")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:     client,
		modelName:  model,
		embedModel: embedModel,
		opts:       opts,
		limiter:    newLimiter(opts.RequestsPerMinute),
		log:        logger.OrNop(log),
	}, nil
}

func (g *geminiService) Name() string {
	return "gemini"
}

// GenerateText implements TextGenerator.
func (g *geminiService) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	ctx, cancel := withTimeout(ctx, g.opts.Timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: 4096,
	}

	return retryDo(ctx, g.opts.Retry, g.log, "gemini generate", isRetryableGeminiError, func(ctx context.Context) (string, error) {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
		if err != nil {
			return "", err
		}
		if resp == nil || len(resp.Candidates) == 0 {
			return "", fmt.Errorf("no candidates in response")
		}

		text := resp.Text()
		if strings.TrimSpace(text) == "" {
			return "", ErrEmptyResponse
		}

		g.log.Debug("📊 Gemini response received", zap.Int("length", len(text)))
		return text, nil
	})
}

// GenerateEmbedding returns the embedding vector for text, used by the knowledge base.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text for embedding cannot be empty")
	}
	// ~10k tokens
	text = clipTo(text, maxEmbedInput)

	ctx, cancel := withTimeout(ctx, g.opts.Timeout)
	defer cancel()

	return retryDo(ctx, g.opts.Retry, g.log, "gemini embed", isRetryableGeminiError, func(ctx context.Context) ([]float32, error) {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
		if err != nil {
			return nil, err
		}
		if result == nil || len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
			return nil, fmt.Errorf("empty embedding result")
		}

		values := result.Embeddings[0].Values
		for i, v := range values {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return nil, fmt.Errorf("invalid embedding value at index %d", i)
			}
		}
		return values, nil
	})
}

func isRetryableGeminiError(err error) bool {
	// genai returns APIError by value
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return isRetryableStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return isRetryableStatus(apiErrPtr.Code)
	}
	return isTransientError(err)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
