// Package usage derives token counts and monetary cost from completions
package usage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sealor/chatcli/pkg/conversation"
	"github.com/sirupsen/logrus"
)

// ProviderNamespace prefixes model ids in provider-namespaced pricing tables.
const ProviderNamespace = "openai/"

var ErrUnknownModel = errors.New("no pricing for model")

// Price is in USD per 1000 tokens.
type Price struct {
	Prompt     float64 `toml:"prompt" yaml:"prompt"`
	Completion float64 `toml:"completion" yaml:"completion"`
}

type Table map[string]Price

// DefaultPrices covers the models the command line offers.
var DefaultPrices = Table{
	"gpt-3.5-turbo":     {Prompt: 0.002, Completion: 0.002},
	"gpt-3.5-turbo-16k": {Prompt: 0.003, Completion: 0.004},
	"gpt-4":             {Prompt: 0.03, Completion: 0.06},
	"gpt-4-32k":         {Prompt: 0.06, Completion: 0.12},
	"gpt-4-turbo":       {Prompt: 0.01, Completion: 0.03},
	"gpt-4o":            {Prompt: 0.005, Completion: 0.015},
	"gpt-4o-mini":       {Prompt: 0.00015, Completion: 0.0006},
}

// Merge returns a copy of t with overrides applied on top.
func (t Table) Merge(overrides Table) Table {
	merged := make(Table, len(t)+len(overrides))
	for model, price := range t {
		merged[model] = price
	}
	for model, price := range overrides {
		merged[model] = price
	}
	return merged
}

// Lookup resolves model exactly, then without its trailing version suffix,
// then in the provider namespace.
func (t Table) Lookup(model string) (Price, error) {
	bases := []string{model}
	if stripped := stripVersion(model); stripped != model {
		bases = append(bases, stripped)
	}
	candidates := bases
	for _, base := range bases {
		candidates = append(candidates, ProviderNamespace+base)
	}

	for _, candidate := range candidates {
		if price, ok := t[candidate]; ok {
			return price, nil
		}
	}
	return Price{}, fmt.Errorf("%w: %s", ErrUnknownModel, model)
}

// stripVersion drops trailing numeric components such as "-0613" or
// "-2024-05-13". Single digits belong to the name, as in "gpt-4".
func stripVersion(model string) string {
	parts := strings.Split(model, "-")
	end := len(parts)
	for end > 1 && isVersion(parts[end-1]) {
		end--
	}
	return strings.Join(parts[:end], "-")
}

func isVersion(s string) bool {
	if len(s) < 2 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Cost is prompt_tokens × prompt price + completion_tokens × completion
// price, with prices per 1000 tokens.
func (t Table) Cost(model string, usage conversation.Usage) (float64, error) {
	price, err := t.Lookup(model)
	if err != nil {
		return 0, err
	}
	return (float64(usage.PromptTokens)*price.Prompt + float64(usage.CompletionTokens)*price.Completion) / 1000, nil
}

// ConversationCost prices the last completion of c. Conversations without
// usage cost nothing.
func (t Table) ConversationCost(c *conversation.Conversation) (float64, error) {
	if c.Usage == nil {
		return 0, nil
	}
	model := c.ModelOrDefault()
	if c.Completion != nil && c.Completion.Model != "" {
		model = c.Completion.Model
	}
	return t.Cost(model, *c.Usage)
}

type Summary struct {
	Tokens int
	Cost   float64
}

// Summarize totals tokens and cost of all conversations persisted at or after
// since. A zero since includes everything.
func (t Table) Summarize(conversations []*conversation.Conversation, since time.Time, log logrus.FieldLogger) Summary {
	var summary Summary
	for _, c := range conversations {
		if !since.IsZero() {
			ts, err := time.Parse(time.RFC3339Nano, c.Timestamp)
			if err != nil || ts.Before(since) {
				continue
			}
		}
		if c.Usage == nil {
			continue
		}

		summary.Tokens += c.Usage.TotalTokens
		cost, err := t.ConversationCost(c)
		if err != nil {
			log.WithError(err).Warn("skipping cost of conversation")
			continue
		}
		summary.Cost += cost
	}
	return summary
}
