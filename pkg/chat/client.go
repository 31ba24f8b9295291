package chat

import (
	"context"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
	"github.com/sealor/chatcli/pkg/conversation"
)

type ClientOptions struct {
	BaseURL string
	APIKey  string
	// Debug logs every request and response of the underlying client.
	Debug bool
}

// Client implements conversation.Completer on top of the OpenAI chat API.
type Client struct {
	api openai.Client
}

var _ conversation.Completer = (*Client)(nil)

func NewClient(opts ClientOptions) *Client {
	options := []option.RequestOption{}
	if opts.BaseURL != "" {
		options = append(options, option.WithBaseURL(opts.BaseURL))
	}
	if opts.APIKey != "" {
		options = append(options, option.WithAPIKey(opts.APIKey))
	}
	if opts.Debug {
		options = append(options, option.WithDebugLog(nil))
	}
	return &Client{api: openai.NewClient(options...)}
}

func (c *Client) Complete(ctx context.Context, req conversation.Request, onToken func(string)) (*conversation.Completion, error) {
	params := openai.ChatCompletionNewParams{
		Model:    req.Model,
		Messages: NewParamsFromMessages(req.Messages),
	}

	if req.Stream {
		return c.stream(ctx, params, onToken)
	}
	return c.sync(ctx, params, onToken)
}

func (c *Client) stream(ctx context.Context, params openai.ChatCompletionNewParams, onToken func(string)) (*conversation.Completion, error) {
	stream := c.api.Chat.Completions.NewStreaming(ctx, params)

	completion, err := Accumulate(ctx, chunkSource{stream}, onToken)
	closeErr := stream.Close()
	if err != nil {
		return nil, err
	}
	if closeErr != nil && ctx.Err() == nil {
		return nil, closeErr
	}
	return completion, nil
}

func (c *Client) sync(ctx context.Context, params openai.ChatCompletionNewParams, onToken func(string)) (*conversation.Completion, error) {
	result, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}

	completion := NewCompletionFromOpenAI(result)
	if reply, err := completion.Reply(); err == nil && onToken != nil {
		onToken(reply.Content)
	}
	return completion, nil
}

type chunkSource struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
}

func (s chunkSource) Next() bool {
	return s.stream.Next()
}

func (s chunkSource) Fragment() Fragment {
	chunk := s.stream.Current()
	fragment := Fragment{ID: chunk.ID, Created: chunk.Created, Model: chunk.Model}
	if len(chunk.Choices) > 0 {
		fragment.Content = chunk.Choices[0].Delta.Content
	}
	return fragment
}

func (s chunkSource) Err() error {
	return s.stream.Err()
}
