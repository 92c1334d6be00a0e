package ai

import (
	"context"
	"strings"
	"testing"
)

func TestRate(t *testing.T) {
	r := Rates{GPT4: 0.2, GPT35: 0.1, Gemini: 0.1}

	cases := []struct {
		model string
		want  float64
	}{
		{"openai-gpt4", 0.2},
		{"OpenAI-GPT4", 0.2},
		{"openai-gpt3.5", 0.1},
		{"openai-gpt35", 0.1},
		{"gemini", 0.1},
		{"google-gemini", 0.1},
		{"mystery-model", 1.0},
		{"", 1.0},
	}
	for _, tc := range cases {
		if got := r.Rate(tc.model); got != tc.want {
			t.Errorf("Rate(%q) = %v, want %v", tc.model, got, tc.want)
		}
	}
}

func TestCompleteStubWithoutEndpoint(t *testing.T) {
	c := NewClient("", "")
	out, err := c.Complete(context.Background(), "openai-gpt4", "hello")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.Contains(out, "hello") {
		t.Fatalf("stub response %q does not echo the prompt", out)
	}
}
