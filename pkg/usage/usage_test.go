package usage

import (
	"io"
	"testing"
	"time"

	"github.com/sealor/chatcli/pkg/conversation"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCost_PerThousandTokens(t *testing.T) {
	table := Table{"m": {Prompt: 0.002, Completion: 0.002}}

	cost, err := table.Cost("m", conversation.NewUsage(100, 50))
	require.NoError(t, err)
	assert.InDelta(t, 0.0003, cost, 1e-12)
}

func TestLookup(t *testing.T) {
	table := Table{
		"gpt-3.5-turbo":        {Prompt: 1},
		"gpt-4":                {Prompt: 2},
		"openai/gpt-4o":        {Prompt: 3},
		"openai/o1-2024-12-17": {Prompt: 4},
	}

	tests := []struct {
		model string
		want  float64
	}{
		{"gpt-3.5-turbo", 1},
		{"gpt-3.5-turbo-0301", 1},
		{"gpt-4", 2},
		{"gpt-4-0613", 2},
		{"gpt-4o", 3},
		{"gpt-4o-2024-05-13", 3},
		{"o1-2024-12-17", 4},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			price, err := table.Lookup(tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.want, price.Prompt)
		})
	}

	_, err := table.Lookup("llama3")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestStripVersion(t *testing.T) {
	assert.Equal(t, "gpt-4", stripVersion("gpt-4"))
	assert.Equal(t, "gpt-4", stripVersion("gpt-4-0613"))
	assert.Equal(t, "gpt-4-32k", stripVersion("gpt-4-32k"))
	assert.Equal(t, "gpt-4o", stripVersion("gpt-4o-2024-05-13"))
}

func TestMerge(t *testing.T) {
	merged := DefaultPrices.Merge(Table{"gpt-4": {Prompt: 1, Completion: 1}, "local": {}})

	assert.Equal(t, Price{Prompt: 1, Completion: 1}, merged["gpt-4"])
	assert.Contains(t, merged, "local")
	assert.Equal(t, Price{Prompt: 0.03, Completion: 0.06}, DefaultPrices["gpt-4"])
}

func TestConversationCost(t *testing.T) {
	table := Table{
		"gpt-3.5-turbo": {Prompt: 2, Completion: 2},
		"gpt-4":         {Prompt: 30, Completion: 60},
	}

	c := &conversation.Conversation{Model: "gpt-3.5-turbo"}
	cost, err := table.ConversationCost(c)
	require.NoError(t, err)
	assert.Zero(t, cost)

	usage := conversation.NewUsage(1000, 1000)
	c.Usage = &usage
	cost, err = table.ConversationCost(c)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, cost, 1e-9)

	c.Completion = &conversation.Completion{Model: "gpt-4-0613"}
	cost, err = table.ConversationCost(c)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, cost, 1e-9)
}

func TestSummarize(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	table := Table{"gpt-3.5-turbo": {Prompt: 1, Completion: 1}}
	u1 := conversation.NewUsage(500, 500)
	u2 := conversation.NewUsage(100, 100)
	u3 := conversation.NewUsage(1, 1)

	conversations := []*conversation.Conversation{
		{Usage: &u1, Timestamp: "2026-10-14T23:00:00Z"},
		{Usage: &u2, Timestamp: "2026-10-15T08:30:00.123456+00:00"},
		{Timestamp: "2026-10-15T09:00:00Z"},
		{Usage: &u3, Model: "unknown-model", Timestamp: "2026-10-15T10:00:00Z"},
	}

	all := table.Summarize(conversations, time.Time{}, log)
	assert.Equal(t, 1202, all.Tokens)
	assert.InDelta(t, 1.2, all.Cost, 1e-9)

	today := table.Summarize(conversations, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), log)
	assert.Equal(t, 202, today.Tokens)
	assert.InDelta(t, 0.2, today.Cost, 1e-9)
}

type fakeTokenizer struct {
	texts []string
}

func (f *fakeTokenizer) Count(model, text string) int {
	f.texts = append(f.texts, text)
	return len(text)
}

func TestEstimator(t *testing.T) {
	tokenizer := &fakeTokenizer{}
	estimator := Estimator{Tokenizer: tokenizer}

	request := []conversation.Message{
		{Role: conversation.RoleSystem, Content: "s"},
		{Role: conversation.RoleUser, Content: "q"},
	}
	got := estimator.Estimate("gpt-4", request, "answer")

	flattened := "role: system content: s\n role: user content: q\n"
	assert.Equal(t, []string{flattened, "answer"}, tokenizer.texts)
	assert.Equal(t, conversation.NewUsage(len(flattened), 6), got)
	assert.Equal(t, got.PromptTokens+got.CompletionTokens, got.TotalTokens)
}
