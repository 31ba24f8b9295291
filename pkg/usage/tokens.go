package usage

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sealor/chatcli/pkg/conversation"
	"github.com/sirupsen/logrus"
)

// FallbackEncoding is used for models tiktoken does not know.
const FallbackEncoding = "cl100k_base"

type Tokenizer interface {
	Count(model, text string) int
}

// Counter counts tokens with the encoding tiktoken assigns to a model.
type Counter struct {
	Log logrus.FieldLogger

	mu        sync.Mutex
	encodings map[string]*tiktoken.Tiktoken
}

func NewCounter(log logrus.FieldLogger) *Counter {
	return &Counter{Log: log, encodings: make(map[string]*tiktoken.Tiktoken)}
}

func (c *Counter) Count(model, text string) int {
	enc := c.encoding(model)
	if enc == nil {
		// rough estimate: 4 chars per token
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

func (c *Counter) encoding(model string) *tiktoken.Tiktoken {
	c.mu.Lock()
	defer c.mu.Unlock()

	if enc, ok := c.encodings[model]; ok {
		return enc
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(FallbackEncoding)
	}
	if err != nil {
		c.Log.WithError(err).WithField("model", model).Warn("tokenizer unavailable, estimating")
		enc = nil
	}
	c.encodings[model] = enc
	return enc
}

// Estimator implements conversation.UsageEstimator by local tokenization.
type Estimator struct {
	Tokenizer Tokenizer
}

var _ conversation.UsageEstimator = Estimator{}

func (e Estimator) Estimate(model string, request []conversation.Message, reply string) conversation.Usage {
	prompt := e.Tokenizer.Count(model, FlattenRequest(request))
	completion := e.Tokenizer.Count(model, reply)
	return conversation.NewUsage(prompt, completion)
}

// FlattenRequest renders messages the way they are counted for prompt tokens.
func FlattenRequest(messages []conversation.Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, "role: "+string(m.Role)+" content: "+m.Content+"\n")
	}
	return strings.Join(lines, " ")
}
