package conversation

import (
	"encoding/json"
	"strings"
)

// record is the on-disk shape of a conversation snapshot.
type record struct {
	Messages   []Message   `json:"messages"`
	Completion *Completion `json:"completion"`
	Usage      *Usage      `json:"usage"`
	Tags       []string    `json:"tags"`
	Timestamp  string      `json:"timestamp,omitempty"`
	Plugins    []string    `json:"plugins"`
	Model      *string     `json:"model"`
}

func (c *Conversation) toRecord() record {
	r := record{
		Messages:   c.Messages,
		Completion: c.Completion,
		Usage:      c.Usage,
		Tags:       c.AllTags(),
		Timestamp:  c.Timestamp,
		Plugins:    c.Plugins,
	}
	if r.Messages == nil {
		r.Messages = []Message{}
	}
	if r.Plugins == nil {
		r.Plugins = []string{}
	}
	if c.Model != "" {
		model := c.Model
		r.Model = &model
	}
	return r
}

func (c *Conversation) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.toRecord())
}

// UnmarshalJSON splits personality-marked tags off the plain tags. When more
// than one is present the last one wins.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}

	*c = Conversation{
		Messages:   r.Messages,
		Usage:      r.Usage,
		Completion: r.Completion,
		Plugins:    r.Plugins,
		Timestamp:  r.Timestamp,
	}
	if r.Model != nil {
		c.Model = *r.Model
	}
	for _, tag := range r.Tags {
		if IsPersonalityTag(tag) {
			c.Personality = strings.TrimPrefix(tag, PersonalityMarker)
		} else {
			c.Tags = append(c.Tags, tag)
		}
	}
	return nil
}
