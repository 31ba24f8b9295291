package conversation

import (
	"slices"
	"strings"
)

type Conversation struct {
	Messages []Message
	// Tags holds plain labels only; the personality lives in its own field.
	Tags        []string
	Personality string
	Plugins     []string
	Model       string
	Usage       *Usage
	Completion  *Completion
	// Timestamp is set by the log store when the snapshot is persisted.
	Timestamp string
}

func New() *Conversation {
	return &Conversation{}
}

func IsPersonalityTag(tag string) bool {
	return strings.HasPrefix(tag, PersonalityMarker)
}

func (c *Conversation) Append(role Role, content string) {
	c.Messages = append(c.Messages, Message{Role: role, Content: content})
}

// AddTag moves tag to the end of the tags, adding it if missing. A
// personality-marked tag replaces the current personality.
func (c *Conversation) AddTag(tag string) {
	if IsPersonalityTag(tag) {
		c.Personality = strings.TrimPrefix(tag, PersonalityMarker)
		return
	}
	c.Tags = append(slices.DeleteFunc(c.Tags, func(t string) bool { return t == tag }), tag)
}

func (c *Conversation) RemoveTag(tag string) {
	if IsPersonalityTag(tag) {
		if c.Personality == strings.TrimPrefix(tag, PersonalityMarker) {
			c.Personality = ""
		}
		return
	}
	c.Tags = slices.DeleteFunc(c.Tags, func(t string) bool { return t == tag })
}

func (c *Conversation) HasTag(tag string) bool {
	if IsPersonalityTag(tag) {
		return c.Personality != "" && c.Personality == strings.TrimPrefix(tag, PersonalityMarker)
	}
	return slices.Contains(c.Tags, tag)
}

// AllTags returns the plain tags followed by the marked personality, which is
// how tags are written to the log.
func (c *Conversation) AllTags() []string {
	tags := slices.Clone(c.Tags)
	if c.Personality != "" {
		tags = append(tags, PersonalityMarker+c.Personality)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags
}

func (c *Conversation) ModelOrDefault() string {
	if c.Model == "" {
		return DefaultModel
	}
	return c.Model
}

// Clone starts a fresh turn from c: messages, plugins and usage are copied,
// only the personality survives from the tags and the completion is dropped.
func (c *Conversation) Clone(model string) *Conversation {
	clone := &Conversation{
		Messages:    slices.Clone(c.Messages),
		Personality: c.Personality,
		Plugins:     slices.Clone(c.Plugins),
		Model:       c.Model,
	}
	if model != "" {
		clone.Model = model
	}
	if c.Usage != nil {
		usage := *c.Usage
		clone.Usage = &usage
	}
	return clone
}

// Question is the message that produced the most recent answer: the
// second-to-last message, or the only one.
func (c *Conversation) Question() string {
	switch n := len(c.Messages); {
	case n == 0:
		return ""
	case n > 1:
		return c.Messages[n-2].Content
	default:
		return c.Messages[0].Content
	}
}

func (c *Conversation) Contains(term string) bool {
	return strings.Contains(c.Question(), term)
}

// Find scans the messages newest first.
func (c *Conversation) Find(predicate func(Message) bool) (Message, error) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if predicate(c.Messages[i]) {
			return c.Messages[i], nil
		}
	}
	return Message{}, ErrNotFound
}

// Summary is the first line of the latest non-assistant message, cut to 80 runes.
func (c *Conversation) Summary() string {
	message, err := c.Find(func(m Message) bool { return m.Role != RoleAssistant })
	if err != nil {
		if len(c.Messages) == 0 {
			return ""
		}
		message = c.Messages[len(c.Messages)-1]
	}
	line, _, _ := strings.Cut(strings.TrimSpace(message.Content), "\n")
	if runes := []rune(line); len(runes) > 80 {
		line = string(runes[:80])
	}
	return line
}

func (c *Conversation) EditLast(content string) error {
	if len(c.Messages) == 0 {
		return ErrNotFound
	}
	c.Messages[len(c.Messages)-1].Content = content
	return nil
}

func (c *Conversation) DropLast() (Message, error) {
	if len(c.Messages) == 0 {
		return Message{}, ErrNotFound
	}
	last := c.Messages[len(c.Messages)-1]
	c.Messages = c.Messages[:len(c.Messages)-1]
	return last, nil
}

// Merge combines conversations given oldest first. Messages, plain tags and
// plugins keep their first occurrence; the last non-empty model wins.
func Merge(personality string, conversations ...*Conversation) *Conversation {
	merged := &Conversation{Personality: personality}
	for _, item := range conversations {
		merged.Messages = mergeList(merged.Messages, item.Messages)
		merged.Tags = mergeList(merged.Tags, item.Tags)
		merged.Plugins = mergeList(merged.Plugins, item.Plugins)
		if item.Model != "" {
			merged.Model = item.Model
		}
	}
	return merged
}

func mergeList[T comparable](list []T, additions []T) []T {
	for _, item := range additions {
		if !slices.Contains(list, item) {
			list = append(list, item)
		}
	}
	return list
}

func (c *Conversation) AddPlugins(names ...string) {
	c.Plugins = mergeList(c.Plugins, names)
}
