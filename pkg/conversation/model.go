// Package conversation holds the in-memory chat thread and its mutators
package conversation

import "errors"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultModel is used whenever a conversation carries no model.
const DefaultModel = "gpt-3.5-turbo"

// PersonalityMarker prefixes a personality when it is written as a tag.
const PersonalityMarker = "^"

var (
	ErrNotFound        = errors.New("no matching message found")
	ErrEmptyCompletion = errors.New("completion contains no choices")
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSystem, RoleUser, RoleAssistant:
		return Role(s), nil
	}
	return "", errors.New("unknown role: " + s)
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewUsage keeps TotalTokens consistent with its parts.
func NewUsage(prompt, completion int) Usage {
	return Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion}
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Completion is the raw response snapshot of the most recent completion call.
type Completion struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Reply returns the message of the first choice.
func (c *Completion) Reply() (Message, error) {
	if c == nil || len(c.Choices) == 0 {
		return Message{}, ErrEmptyCompletion
	}
	return c.Choices[0].Message, nil
}
