package prompt

import (
	"unicode/utf8"

	llmclient "geomentor/internal/llm/client"
)

const (
	// TokenEstimateBuffer is kept free on top of the completion budget.
	TokenEstimateBuffer  = 500
	defaultContextWindow = 8192
	perMessageOverhead   = 4
)

var modelContextWindows = map[string]int{
	"llama-3.1-8b-instant":         131072,
	"llama-3.3-70b-versatile":      131072,
	"meta-llama/llama-guard-4-12b": 131072,
	"openai/gpt-oss-120b":          131072,
	"openai/gpt-oss-20b":           131072,
	"groq/compound":                131072,
	"groq/compound-mini":           131072,
	"gemini-2.5-flash":             1048576,
	"gemini-2.5-pro":               1048576,
}

// ContextWindow returns the model's context size in tokens.
func ContextWindow(model string) int {
	if n, ok := modelContextWindows[model]; ok {
		return n
	}
	return defaultContextWindow
}

// EstimateTokens is a deliberately pessimistic estimate; Cyrillic text
// tokenizes at roughly two characters per token.
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text)/2 + 1
}

func EstimatePromptTokens(messages []llmclient.Message) int {
	total := 0
	for _, m := range messages {
		total += EstimateTokens(m.Content) + perMessageOverhead
	}
	return total
}
