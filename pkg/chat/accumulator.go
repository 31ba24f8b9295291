// Package chat talks to the remote completion endpoint and assembles streamed replies
package chat

import (
	"context"
	"strings"

	"github.com/sealor/chatcli/pkg/conversation"
)

// FinishReason is reported for every accumulated reply, truncated or not.
const FinishReason = "stop"

// Fragment is one incremental piece of a streamed response. Zero values mean
// the field was not carried.
type Fragment struct {
	ID      string
	Created int64
	Model   string
	Content string
}

// FragmentSource yields fragments in arrival order; Next blocks until the
// next fragment arrives or the stream ends.
type FragmentSource interface {
	Next() bool
	Fragment() Fragment
	Err() error
}

// metadata resolves each field once: the first fragment carrying it wins.
type metadata struct {
	id      string
	created int64
	model   string
}

func (m *metadata) merge(f Fragment) {
	if m.id == "" {
		m.id = f.ID
	}
	if m.created == 0 {
		m.created = f.Created
	}
	if m.model == "" {
		m.model = f.Model
	}
}

// Accumulate consumes src until it ends or ctx is cancelled. Cancellation is
// observed at fragment boundaries and yields the partial reply without error.
func Accumulate(ctx context.Context, src FragmentSource, onToken func(string)) (*conversation.Completion, error) {
	var meta metadata
	var content strings.Builder

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		default:
		}

		if !src.Next() {
			break
		}

		fragment := src.Fragment()
		meta.merge(fragment)

		if fragment.Content != "" {
			if onToken != nil {
				onToken(fragment.Content)
			}
			content.WriteString(fragment.Content)
		}
	}

	if ctx.Err() == nil {
		if err := src.Err(); err != nil {
			return nil, err
		}
	}

	return &conversation.Completion{
		ID:      meta.id,
		Object:  "chat.completion",
		Created: meta.created,
		Model:   meta.model,
		Choices: []conversation.Choice{{
			Message:      conversation.Message{Role: conversation.RoleAssistant, Content: content.String()},
			FinishReason: FinishReason,
		}},
	}, nil
}
