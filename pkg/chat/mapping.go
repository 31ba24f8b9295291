package chat

import (
	"github.com/openai/openai-go/v3"
	"github.com/sealor/chatcli/pkg/conversation"
)

func NewParamsFromMessages(messages []conversation.Message) []openai.ChatCompletionMessageParamUnion {
	var params []openai.ChatCompletionMessageParamUnion

	for _, message := range messages {
		switch message.Role {
		case conversation.RoleAssistant:
			params = append(params, openai.AssistantMessage(message.Content))
		case conversation.RoleSystem:
			params = append(params, openai.SystemMessage(message.Content))
		default:
			params = append(params, openai.UserMessage(message.Content))
		}
	}

	return params
}

func NewCompletionFromOpenAI(result *openai.ChatCompletion) *conversation.Completion {
	completion := &conversation.Completion{
		ID:      result.ID,
		Object:  "chat.completion",
		Created: result.Created,
		Model:   result.Model,
	}

	for _, choice := range result.Choices {
		completion.Choices = append(completion.Choices, conversation.Choice{
			Index:        int(choice.Index),
			Message:      conversation.Message{Role: conversation.RoleAssistant, Content: choice.Message.Content},
			FinishReason: string(choice.FinishReason),
		})
	}

	if result.Usage.TotalTokens > 0 {
		usage := conversation.Usage{
			PromptTokens:     int(result.Usage.PromptTokens),
			CompletionTokens: int(result.Usage.CompletionTokens),
			TotalTokens:      int(result.Usage.TotalTokens),
		}
		completion.Usage = &usage
	}

	return completion
}
