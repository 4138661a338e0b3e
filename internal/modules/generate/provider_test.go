package generate

import (
	"testing"

	jetapi "go.jetify.com/ai/api"
)

func TestNormalizeProviderType(t *testing.T) {
	cases := map[string]string{
		"Anthropic":          "anthropic",
		"  OpenAI ":          "openai",
		"openai_compatible":  "openai-compatible",
		"OpenAI Compatible":  "openaicompatible",
		"":                   "",
	}
	for in, want := range cases {
		if got := normalizeProviderType(in); got != want {
			t.Errorf("normalizeProviderType(%q) = %q, want %q", in, got, want)
		}
	}

	if !isOpenAICompatibleProviderType("openai_compatible") {
		t.Fatal("openai_compatible should be detected")
	}
	if isOpenAICompatibleProviderType("openai") {
		t.Fatal("plain openai is not the compatible transport")
	}
}

func TestNormalizeOpenAIBaseURL(t *testing.T) {
	cases := map[string]string{
		"":                             "",
		"https://api.example.com":      "https://api.example.com/v1",
		"https://api.example.com/":     "https://api.example.com/v1",
		"https://api.example.com/v1":   "https://api.example.com/v1",
		"https://api.example.com/v1/":  "https://api.example.com/v1",
		"https://api.example.com/alt":  "https://api.example.com/alt/v1",
	}
	for in, want := range cases {
		if got := normalizeOpenAIBaseURL(in); got != want {
			t.Errorf("normalizeOpenAIBaseURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeOpenAICompatibleEndpoint(t *testing.T) {
	cases := map[string]string{
		"":                            "https://api.openai.com",
		"https://api.example.com":     "https://api.example.com",
		"https://api.example.com/v1":  "https://api.example.com",
		"https://api.example.com/v1/": "https://api.example.com",
	}
	for in, want := range cases {
		if got := normalizeOpenAICompatibleEndpoint(in); got != want {
			t.Errorf("normalizeOpenAICompatibleEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractTextFromAIResponse(t *testing.T) {
	resp := &jetapi.Response{
		Content: []jetapi.ContentBlock{
			&jetapi.TextBlock{Text: "part one "},
			&jetapi.TextBlock{Text: "part two"},
		},
	}
	got, err := extractTextFromAIResponse(resp)
	if err != nil {
		t.Fatal(err)
	}
	if got != "part one part two" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractTextFromAIResponseEmpty(t *testing.T) {
	if _, err := extractTextFromAIResponse(nil); err == nil {
		t.Fatal("nil response must error")
	}
	if _, err := extractTextFromAIResponse(&jetapi.Response{}); err == nil {
		t.Fatal("empty response must error")
	}
	resp := &jetapi.Response{Content: []jetapi.ContentBlock{&jetapi.TextBlock{Text: "   "}}}
	if _, err := extractTextFromAIResponse(resp); err == nil {
		t.Fatal("whitespace-only response must error")
	}
}
