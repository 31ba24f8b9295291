package conversation

import (
	"context"
	"fmt"
	"slices"
)

// Request is what a Completer sends to the remote endpoint.
type Request struct {
	Model    string
	Messages []Message
	Stream   bool
}

// Completer runs one request/response cycle against a completion endpoint.
// onToken receives every content delta in arrival order.
type Completer interface {
	Complete(ctx context.Context, req Request, onToken func(string)) (*Completion, error)
}

// UsageEstimator counts tokens locally when the endpoint reports no usage.
type UsageEstimator interface {
	Estimate(model string, request []Message, reply string) Usage
}

// Complete asks completer for the next reply and appends it. Every call
// appends another assistant message.
func (c *Conversation) Complete(ctx context.Context, completer Completer, estimator UsageEstimator, stream bool, onToken func(string)) (Message, error) {
	req := Request{
		Model:    c.ModelOrDefault(),
		Messages: slices.Clone(c.Messages),
		Stream:   stream,
	}

	completion, err := completer.Complete(ctx, req, onToken)
	if err != nil {
		return Message{}, fmt.Errorf("complete: %w", err)
	}

	reply, err := completion.Reply()
	if err != nil {
		return Message{}, err
	}
	if reply.Role == "" {
		reply.Role = RoleAssistant
	}

	c.Messages = append(c.Messages, reply)
	c.Completion = completion
	if completion.Usage != nil {
		usage := *completion.Usage
		c.Usage = &usage
	} else {
		usage := estimator.Estimate(req.Model, req.Messages, reply.Content)
		c.Usage = &usage
	}

	return reply, nil
}
