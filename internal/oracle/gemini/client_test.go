package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/srujanlakku/ai-interview-agent/internal/oracle"
)

type fakeChatCreator struct {
	mu    sync.Mutex
	calls []chatCallRecord
	queue []fakeChatResponse
}

type chatCallRecord struct {
	model  string
	config *genai.GenerateContentConfig
	chat   *fakeChat
}

type fakeChatResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeChat struct {
	mu       sync.Mutex
	response fakeChatResponse
	messages []string
}

func (f *fakeChat) SendMessage(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, part := range parts {
		f.messages = append(f.messages, part.Text)
	}
	return f.response.resp, f.response.err
}

func (f *fakeChatCreator) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeChatResponse{resp: resp, err: err})
}

func (f *fakeChatCreator) Create(_ context.Context, model string, config *genai.GenerateContentConfig, _ []*genai.Content) (chatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	chat := &fakeChat{response: res}
	f.calls = append(f.calls, chatCallRecord{model: model, config: config, chat: chat})
	return chat, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func newTestClient(chats *fakeChatCreator, maxRetries int) *Client {
	return &Client{
		chats:       chats,
		model:       "gemini-pro",
		maxRetries:  maxRetries,
		callTimeout: time.Minute,
		logger:      zap.NewNop(),
		maxLogLen:   200,
	}
}

func TestClientRetriesOnTemporaryError(t *testing.T) {
	originalSleep := sleep
	sleep = func(time.Duration) {}
	defer func() { sleep = originalSleep }()

	chats := &fakeChatCreator{}
	chats.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	chats.enqueue(textResponse("retry ok"), nil)

	c := newTestClient(chats, 2)

	output, err := c.Complete(context.Background(), oracle.Request{
		Prompt:        "message",
		SystemMessage: "system",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(chats.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(chats.calls))
	}

	for _, call := range chats.calls {
		if call.config == nil || call.config.SystemInstruction == nil {
			t.Fatalf("expected system instruction to be set")
		}
		if got := call.config.SystemInstruction.Parts[0].Text; got != "system" {
			t.Fatalf("unexpected system instruction: %q", got)
		}
		if len(call.chat.messages) != 1 || call.chat.messages[0] != "message" {
			t.Fatalf("unexpected chat message: %+v", call.chat.messages)
		}
	}
}

func TestClientStopsAfterRetriesExhausted(t *testing.T) {
	originalSleep := sleep
	sleep = func(time.Duration) {}
	defer func() { sleep = originalSleep }()

	chats := &fakeChatCreator{}
	chats.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	chats.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})

	c := newTestClient(chats, 2)

	_, err := c.Complete(context.Background(), oracle.Request{Prompt: "msg"})
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}

	if !oracle.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}

	if len(chats.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(chats.calls))
	}
}

func TestClientDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	chats := &fakeChatCreator{}
	chats.enqueue(nil, genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	})

	c := newTestClient(chats, 3)

	_, err := c.Complete(context.Background(), oracle.Request{Prompt: "msg"})
	if err == nil {
		t.Fatal("expected error when quota delay too long")
	}

	if len(chats.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(chats.calls))
	}
}

func TestClientDoesNotRetryOnClientError(t *testing.T) {
	chats := &fakeChatCreator{}
	chats.enqueue(nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	c := newTestClient(chats, 3)

	if _, err := c.Complete(context.Background(), oracle.Request{Prompt: "msg"}); err == nil {
		t.Fatal("expected error for client error")
	}

	if len(chats.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(chats.calls))
	}
}

func TestClientRejectsEmptyPrompt(t *testing.T) {
	c := newTestClient(&fakeChatCreator{}, 1)

	if _, err := c.Complete(context.Background(), oracle.Request{Prompt: "   "}); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestClientPassesGenerationConfig(t *testing.T) {
	chats := &fakeChatCreator{}
	chats.enqueue(textResponse("ok"), nil)

	c := newTestClient(chats, 1)

	_, err := c.Complete(context.Background(), oracle.Request{
		Prompt:      "msg",
		Temperature: 0.4,
		MaxTokens:   512,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	config := chats.calls[0].config
	if config.Temperature == nil || *config.Temperature != 0.4 {
		t.Fatalf("expected temperature 0.4, got %+v", config.Temperature)
	}
	if config.MaxOutputTokens != 512 {
		t.Fatalf("expected max tokens 512, got %d", config.MaxOutputTokens)
	}
}

func TestWaitForHonorsCancellation(t *testing.T) {
	originalSleep := sleep
	sleep = func(time.Duration) { select {} }
	defer func() { sleep = originalSleep }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := waitFor(ctx, time.Second); err == nil {
		t.Fatal("expected context error")
	}

	if err := waitFor(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error for zero duration: %v", err)
	}
}

func TestQuotaDelayParsing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		message string
		expect  time.Duration
	}{
		{message: "retry after 5 seconds", expect: 5 * time.Second},
		{message: "Retry in 2.5s", expect: 2500 * time.Millisecond},
		{message: "no hint here", expect: 0},
	}

	for _, tt := range tests {
		if got := quotaDelay(tt.message); got != tt.expect {
			t.Fatalf("quotaDelay(%q) = %v, expected %v", tt.message, got, tt.expect)
		}
	}
}
