package llm

import (
	"testing"
)

func TestNewRequiresModel(t *testing.T) {
	_, err := New(&Config{Provider: "openai"})
	if err == nil {
		t.Error("New() without a model should return error")
	}
}

func TestNewDefaults(t *testing.T) {
	p, err := New(&Config{
		Provider: "deepseek",
		Model:    "deepseek-chat",
		APIKey:   "test-key",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p == nil {
		t.Fatal("New() returned nil provider")
	}

	s, ok := p.(*service)
	if !ok {
		t.Fatal("New() did not return *service type")
	}
	if s.maxTokens != 2048 {
		t.Errorf("maxTokens = %v, want 2048", s.maxTokens)
	}
	if s.temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", s.temperature)
	}
}

func TestNewGenericProvider(t *testing.T) {
	p, err := New(&Config{
		Provider: "my-company-proxy",
		Model:    "internal-model",
		BaseURL:  "https://llm.internal/v1",
		APIKey:   "test-key",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p == nil {
		t.Fatal("New() returned nil provider")
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"flagged": true}`, `{"flagged": true}`},
		{"fenced", "```json\n{\"flagged\": false}\n```", `{"flagged": false}`},
		{"prose wrapped", `Here you go: [{"title": "x"}] hope that helps`, `[{"title": "x"}]`},
		{"no json", "no structure at all", "no structure at all"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
