package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/srujanlakku/ai-interview-agent/internal/oracle"
	"github.com/srujanlakku/ai-interview-agent/internal/util"
)

const (
	defaultModel       = "gemini-2.5-pro"
	defaultMaxRetries  = 3
	defaultCallTimeout = 45 * time.Second

	// Quota errors that ask for a long cooldown are not worth blocking an
	// interactive interview turn for.
	maxQuotaDelay = 15 * time.Second
)

var sleep = time.Sleep

var retryDelayRe = regexp.MustCompile(`retry(?:\s+after|\s+in)?\s+(\d+(?:\.\d+)?)\s*s`)

// waitFor sleeps for the given duration unless the context is cancelled
// first.
func waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// chatSession is the minimal surface of *genai.Chat used by the client.
type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// chatCreator abstracts chat construction so tests can substitute fakes.
type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	client *genai.Client
}

func (g *genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	return g.client.Chats.Create(ctx, model, config, history)
}

// Client is an oracle.Completer backed by the Gemini API.
type Client struct {
	chats       chatCreator
	model       string
	maxRetries  int
	callTimeout time.Duration
	logger      *zap.Logger
	maxLogLen   int
}

// Option customizes a Client.
type Option func(*Client)

// WithCallTimeout overrides the per-call deadline applied to every request.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// WithMaxLogLength bounds prompt/response previews emitted at debug level.
func WithMaxLogLength(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxLogLen = n
		}
	}
}

// New creates a Gemini client for the given API key and model.
func New(ctx context.Context, apiKey, model string, maxRetries int, logger *zap.Logger, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		chats:       &genaiChats{client: genaiClient},
		model:       model,
		maxRetries:  maxRetries,
		callTimeout: defaultCallTimeout,
		logger:      logger,
		maxLogLen:   200,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// Complete sends the request to Gemini and returns the flattened textual
// response. Temporary API failures are retried with backoff; exhaustion and
// timeouts surface as oracle.TransientError.
func (c *Client) Complete(ctx context.Context, req oracle.Request) (string, error) {
	if c == nil || c.chats == nil {
		return "", errors.New("gemini client is not initialized")
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{}
	if system := strings.TrimSpace(req.SystemMessage); system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(req.Temperature)
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = req.MaxTokens
	}

	c.logger.Debug("gemini request",
		zap.Int("prompt_length", len(prompt)),
		zap.String("prompt_preview", util.TruncateForLog(prompt, c.maxLogLen)),
	)

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		output, err := c.send(ctx, prompt, config)
		if err == nil {
			c.logger.Debug("gemini response",
				zap.Int("response_length", len(output)),
				zap.String("response_preview", util.TruncateForLog(output, c.maxLogLen)),
			)
			return output, nil
		}

		lastErr = err

		delay, retryable := retryAfter(err, attempt)
		if !retryable || attempt == c.maxRetries {
			break
		}

		c.logger.Warn("gemini call failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if waitErr := waitFor(ctx, delay); waitErr != nil {
			return "", oracle.Transient(waitErr)
		}
	}

	return "", oracle.Transient(lastErr)
}

func (c *Client) send(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	chat, err := c.chats.Create(callCtx, c.model, config, nil)
	if err != nil {
		return "", fmt.Errorf("create chat: %w", err)
	}

	resp, err := chat.SendMessage(callCtx, genai.Part{Text: prompt})
	if err != nil {
		return "", err
	}

	output := flatten(resp)
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

func flatten(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

// retryAfter decides whether the error is worth retrying and with what delay.
func retryAfter(err error, attempt int) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		// Empty responses and transport hiccups get a linear backoff.
		return time.Duration(attempt) * time.Second, true
	}

	switch {
	case apiErr.Code >= http.StatusInternalServerError:
		return time.Duration(attempt) * time.Second, true
	case apiErr.Code == http.StatusTooManyRequests:
		delay := quotaDelay(apiErr.Message)
		if delay > maxQuotaDelay {
			return 0, false
		}
		if delay <= 0 {
			delay = time.Duration(attempt) * time.Second
		}
		return delay, true
	default:
		return 0, false
	}
}

func quotaDelay(message string) time.Duration {
	match := retryDelayRe.FindStringSubmatch(strings.ToLower(message))
	if len(match) != 2 {
		return 0
	}
	seconds, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
