package search

import (
	"testing"

	"github.com/sealor/chatcli/pkg/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turn(question, answer string, tags ...string) *conversation.Conversation {
	c := conversation.New()
	c.Append(conversation.RoleUser, question)
	if answer != "" {
		c.Append(conversation.RoleAssistant, answer)
	}
	for _, tag := range tags {
		c.AddTag(tag)
	}
	return c
}

// history is oldest first, as read from the log.
func history() []*conversation.Conversation {
	return []*conversation.Conversation{
		turn("how do I sort in go", "use slices.Sort", "go"),
		turn("what is a monad", "a monoid in ...", "fp", "^concise"),
		turn("go channels?", "they are pipes"),
		turn("sort a map in go", "collect keys first", "go", "work"),
	}
}

func offsets(matches []Match) []int {
	var out []int
	for _, m := range matches {
		out = append(out, m.Offset)
	}
	return out
}

func TestFilter_ReverseChronologicalOffsets(t *testing.T) {
	h := history()
	matches := Collect(Filter(h, Criteria{}), 0)

	require.Len(t, matches, 4)
	assert.Equal(t, []int{1, 2, 3, 4}, offsets(matches))
	assert.Same(t, h[3], matches[0].Conversation)
	assert.Same(t, h[0], matches[3].Conversation)
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []int
	}{
		{"offsets", Criteria{Offsets: []int{4, 2}}, []int{2, 4}},
		{"tag", Criteria{Tag: "go"}, []int{1, 4}},
		{"personality tag", Criteria{Tag: "^concise"}, []int{3}},
		{"tag is exact", Criteria{Tag: "g"}, nil},
		{"search", Criteria{Search: "sort"}, []int{1, 4}},
		{"search ignores answers", Criteria{Search: "pipes"}, nil},
		{"search and tag", Criteria{Search: "go", Tag: "work"}, []int{1}},
		{"search and offset", Criteria{Search: "go", Offsets: []int{2, 3}}, []int{2}},
		{"no match", Criteria{Tag: "missing"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, offsets(Collect(Filter(history(), tt.criteria), 0)))
		})
	}
}

func TestFilter_SearchSingleMessageUsesIt(t *testing.T) {
	h := []*conversation.Conversation{turn("only question", "")}
	assert.Equal(t, []int{1}, offsets(Collect(Filter(h, Criteria{Search: "only"}), 0)))
}

func TestFilter_IsLazy(t *testing.T) {
	visited := 0
	for offset := range Filter(history(), Criteria{}) {
		visited++
		if offset == 2 {
			break
		}
	}
	assert.Equal(t, 2, visited)
}

func TestSelect(t *testing.T) {
	h := history()

	offset, conv, err := Select(h, Criteria{Tag: "go"})
	require.NoError(t, err)
	assert.Equal(t, 1, offset)
	assert.Same(t, h[3], conv)

	_, _, err = Select(h, Criteria{Offsets: []int{9}})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, conversation.ErrNotFound)
}

func TestCollect_Limit(t *testing.T) {
	assert.Equal(t, []int{1, 2}, offsets(Collect(Filter(history(), Criteria{}), 2)))
}

func TestWithPersonality(t *testing.T) {
	assert.Equal(t, Criteria{Tag: "^concise"}, Criteria{}.WithPersonality("concise"))
	assert.Equal(t, Criteria{Offsets: []int{1}}, Criteria{Offsets: []int{1}}.WithPersonality("concise"))
	assert.Equal(t, Criteria{Search: "x"}, Criteria{Search: "x"}.WithPersonality("concise"))
	assert.Equal(t, Criteria{Tag: "go"}, Criteria{Tag: "go"}.WithPersonality("concise"))
	assert.Equal(t, Criteria{}, Criteria{}.WithPersonality(""))
}
