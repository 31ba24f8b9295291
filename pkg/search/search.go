// Package search selects conversations from the log history by offset, text and tag
package search

import (
	"fmt"
	"iter"
	"slices"

	"github.com/sealor/chatcli/pkg/conversation"
)

// ErrNotFound wraps conversation.ErrNotFound so either sentinel matches.
var ErrNotFound = fmt.Errorf("matching conversation not found: %w", conversation.ErrNotFound)

// Criteria filters the history. Zero fields do not filter.
type Criteria struct {
	// Offsets are 1-based, counted from the most recent entry.
	Offsets []int
	// Search must occur in the question of the conversation.
	Search string
	// Tag must be one of the conversation's tags; "^name" matches a personality.
	Tag string
}

func (c Criteria) IsZero() bool {
	return len(c.Offsets) == 0 && c.Search == "" && c.Tag == ""
}

// WithPersonality filters by the personality tag, unless other criteria
// were given already.
func (c Criteria) WithPersonality(name string) Criteria {
	if name != "" && c.IsZero() {
		c.Tag = conversation.PersonalityMarker + name
	}
	return c
}

func (c Criteria) matches(offset int, conv *conversation.Conversation) bool {
	if len(c.Offsets) > 0 && !slices.Contains(c.Offsets, offset) {
		return false
	}
	if c.Search != "" && !conv.Contains(c.Search) {
		return false
	}
	if c.Tag != "" && !conv.HasTag(c.Tag) {
		return false
	}
	return true
}

// Filter walks history (oldest first) newest first and yields each match with
// its offset.
func Filter(history []*conversation.Conversation, criteria Criteria) iter.Seq2[int, *conversation.Conversation] {
	return func(yield func(int, *conversation.Conversation) bool) {
		for i := len(history) - 1; i >= 0; i-- {
			offset := len(history) - i
			if !criteria.matches(offset, history[i]) {
				continue
			}
			if !yield(offset, history[i]) {
				return
			}
		}
	}
}

// Select returns the most recent match.
func Select(history []*conversation.Conversation, criteria Criteria) (int, *conversation.Conversation, error) {
	for offset, conv := range Filter(history, criteria) {
		return offset, conv, nil
	}
	return 0, nil, ErrNotFound
}

type Match struct {
	Offset       int
	Conversation *conversation.Conversation
}

// Collect gathers up to limit matches, all of them when limit is not positive.
func Collect(seq iter.Seq2[int, *conversation.Conversation], limit int) []Match {
	var matches []Match
	for offset, conv := range seq {
		if limit > 0 && len(matches) >= limit {
			break
		}
		matches = append(matches, Match{Offset: offset, Conversation: conv})
	}
	return matches
}
