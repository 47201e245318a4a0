package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/verifyhub/internal/model"
	"github.com/ppiankov/verifyhub/internal/submission"
)

const (
	certURL   = "https://www.coursera.org/account/accomplishments/verify/ABC123"
	socialURL = "https://www.linkedin.com/posts/jane-doe_python-activity-123"
)

func testSubmission() *submission.Submission {
	return &submission.Submission{ID: "sub-1", CertificateURL: certURL, SocialPostURL: socialURL}
}

func testResult() *model.VerificationResult {
	r := model.NewResult()
	r.AddError("LinkedIn post is unavailable or private.")
	r.ExtractedCourseTitle = model.StringPtr("Introduction to Python")
	r.StudentNameMatch = model.Confirmed
	return r.Finalize()
}

// fakeProvider returns canned text
type fakeProvider struct {
	text string
	got  CompletionRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	f.got = req
	return &CompletionResponse{Text: f.text}, nil
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		config  Config
		want    string
		wantErr bool
		desc    string
	}{
		{config: Config{}, want: "", desc: "disabled"},
		{config: Config{Provider: "OpenAI", APIKey: "k"}, want: "openai", desc: "openai"},
		{config: Config{Provider: "claude", APIKey: "k"}, want: "anthropic", desc: "anthropic alias"},
		{config: Config{Provider: "ollama", Model: "llama3.1:8b"}, want: "ollama", desc: "ollama"},
		{config: Config{Provider: "openai"}, wantErr: true, desc: "openai without key"},
		{config: Config{Provider: "ollama"}, wantErr: true, desc: "ollama without model"},
		{config: Config{Provider: "gemini"}, wantErr: true, desc: "unknown provider"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want == "" {
				if p != nil {
					t.Errorf("expected nil provider, got %s", p.Name())
				}
				return
			}
			if p.Name() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, p.Name())
			}
		})
	}
}

func TestOpenAIProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		var req openai.ChatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 2 || req.Messages[0].Role != openai.ChatMessageRoleSystem {
			t.Errorf("unexpected messages %+v", req.Messages)
		}

		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Model: "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: "assistant", Content: "  The post could not be opened.  "},
			}},
			Usage: openai.Usage{TotalTokens: 42},
		})
	}))
	defer server.Close()

	p, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}

	resp, err := p.Complete(context.Background(), CompletionRequest{System: "s", Prompt: "p"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != "The post could not be opened." || resp.TokensUsed != 42 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestOpenAIProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	p, _ := NewOpenAIProvider(Config{APIKey: "k", BaseURL: server.URL})
	if _, err := p.Complete(context.Background(), CompletionRequest{Prompt: "p"}); err == nil {
		t.Error("expected error")
	}
}

func TestAnthropicProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" || r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("unexpected request %s %s", r.URL.Path, r.Header.Get("x-api-key"))
		}
		var req anthropicRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.System != "s" || req.MaxTokens != 300 {
			t.Errorf("unexpected body %+v", req)
		}
		_, _ = w.Write([]byte(`{"model":"claude","content":[{"type":"text","text":"Looks fine."}],"usage":{"input_tokens":10,"output_tokens":5}}`))
	}))
	defer server.Close()

	p, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL + "/"})
	resp, err := p.Complete(context.Background(), CompletionRequest{System: "s", Prompt: "p"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != "Looks fine." || resp.TokensUsed != 15 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestAnthropicProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	p, _ := NewAnthropicProvider(Config{APIKey: "k", BaseURL: server.URL})
	_, err := p.Complete(context.Background(), CompletionRequest{Prompt: "p"})
	if err == nil || !strings.Contains(err.Error(), "rate_limit_error") {
		t.Errorf("expected rate limit error, got %v", err)
	}
}

func TestOllamaProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if r.URL.Path != "/api/generate" || req.Stream || req.Model != "llama3.1:8b" {
			t.Errorf("unexpected request %s %+v", r.URL.Path, req)
		}
		_, _ = w.Write([]byte(`{"model":"llama3.1:8b","response":" ok ","done":true}`))
	}))
	defer server.Close()

	p, _ := NewOllamaProvider(Config{Model: "llama3.1:8b", BaseURL: server.URL})
	resp, err := p.Complete(context.Background(), CompletionRequest{Prompt: "abcdefgh"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != "ok" {
		t.Errorf("unexpected text %q", resp.Text)
	}
	if resp.TokensUsed != 2 {
		t.Errorf("expected estimated token count 2, got %d", resp.TokensUsed)
	}
}

func TestReviewer_Review(t *testing.T) {
	fp := &fakeProvider{text: "The certificate " + certURL + " names the student, but the post was unavailable."}
	r := NewReviewer(fp)

	note, err := r.Review(context.Background(), testSubmission(), testResult())
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if note != fp.text {
		t.Errorf("unexpected note %q", note)
	}
	if !strings.Contains(fp.got.Prompt, "LinkedIn post is unavailable") || fp.got.System == "" {
		t.Errorf("prompt missing result detail: %q", fp.got.Prompt)
	}
}

func TestReviewer_RejectsForeignLinks(t *testing.T) {
	r := NewReviewer(&fakeProvider{text: "See https://example.com/fake-proof."})
	if _, err := r.Review(context.Background(), testSubmission(), testResult()); err == nil {
		t.Error("expected error for foreign link")
	}
}

func TestNewReviewer_Nil(t *testing.T) {
	if NewReviewer(nil) != nil {
		t.Error("expected nil reviewer for nil provider")
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(testSubmission(), testResult())
	for _, want := range []string{certURL, socialURL, "failed", "confirmed", "Introduction to Python", "Social handle: (none)"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestCitedURLs(t *testing.T) {
	got := CitedURLs("See https://a.example/x. Also (https://b.example/y) and https://a.example/x")
	if len(got) != 2 || got[0] != "https://a.example/x" || got[1] != "https://b.example/y" {
		t.Errorf("unexpected urls %v", got)
	}
}

func TestConfigFromModel(t *testing.T) {
	cfg := ConfigFromModel(model.LLMConfig{Provider: "openai", Model: "m", Timeout: 7}, model.HTTPConfig{HTTPSProxy: "http://proxy:3128"})
	if cfg.Provider != "openai" || cfg.Timeout != 7 || cfg.HTTPSProxy != "http://proxy:3128" {
		t.Errorf("unexpected config %+v", cfg)
	}
}
