package prompt

import (
	llmclient "geomentor/internal/llm/client"
)

// Build prepends the system prompt to history and drops the oldest turns
// until the estimate fits the model window minus the completion budget.
// A user turn is dropped together with the assistant reply that follows it.
// The latest turn is always kept.
func Build(systemPrompt string, history []llmclient.Message, model string, maxTokens int) []llmclient.Message {
	system := llmclient.Message{Role: llmclient.RoleSystem, Content: systemPrompt}
	budget := ContextWindow(model) - maxTokens - TokenEstimateBuffer

	kept := history
	for {
		msgs := make([]llmclient.Message, 0, len(kept)+1)
		msgs = append(msgs, system)
		msgs = append(msgs, kept...)
		if EstimatePromptTokens(msgs) <= budget || len(kept) <= 1 {
			return msgs
		}
		if kept[0].Role == llmclient.RoleUser {
			kept = kept[1:]
			if len(kept) > 1 && kept[0].Role == llmclient.RoleAssistant {
				kept = kept[1:]
			}
			continue
		}
		kept = kept[1:]
	}
}
