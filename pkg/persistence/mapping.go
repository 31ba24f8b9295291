package persistence

import (
	"fmt"
	"slices"

	"github.com/sealor/chatcli/pkg/conversation"
)

func NewSessionFromConversation(c *conversation.Conversation) *Session {
	session := Session{
		Model:       c.Model,
		Personality: c.Personality,
		Tags:        slices.Clone(c.Tags),
		Plugins:     slices.Clone(c.Plugins),
		Timestamp:   c.Timestamp,
	}

	if c.Usage != nil {
		session.Usage = &Usage{
			PromptTokens:     c.Usage.PromptTokens,
			CompletionTokens: c.Usage.CompletionTokens,
			TotalTokens:      c.Usage.TotalTokens,
		}
	}

	for _, message := range c.Messages {
		session.Messages = append(session.Messages, Message{Role: string(message.Role), Content: message.Content})
	}

	return &session
}

// NewConversationFromSession rebuilds a conversation. The timestamp is not
// carried over; it is set again when the conversation is persisted.
func NewConversationFromSession(session *Session) (*conversation.Conversation, error) {
	c := conversation.New()
	c.Model = session.Model
	c.Personality = session.Personality
	c.AddPlugins(session.Plugins...)
	for _, tag := range session.Tags {
		c.AddTag(tag)
	}

	if u := session.Usage; u != nil {
		usage := conversation.NewUsage(u.PromptTokens, u.CompletionTokens)
		c.Usage = &usage
	}

	for i, message := range session.Messages {
		role, err := conversation.ParseRole(message.Role)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i+1, err)
		}
		c.Append(role, message.Content)
	}

	return c, nil
}
