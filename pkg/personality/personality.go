// Package personality provides the starter conversations seeded into a new log
package personality

import (
	_ "embed"
	"fmt"

	"github.com/sealor/chatcli/pkg/conversation"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Personality struct {
	Name    string   `yaml:"name"`
	System  string   `yaml:"system"`
	Model   string   `yaml:"model,omitempty"`
	Plugins []string `yaml:"plugins,omitempty"`
}

// Conversation is the seed for p: its system prompt tagged with p's name.
func (p Personality) Conversation() *conversation.Conversation {
	c := conversation.New()
	c.Append(conversation.RoleSystem, p.System)
	c.Personality = p.Name
	c.Model = p.Model
	c.AddPlugins(p.Plugins...)
	return c
}

func Parse(data []byte) ([]Personality, error) {
	var personalities []Personality
	if err := yaml.Unmarshal(data, &personalities); err != nil {
		return nil, err
	}
	for i, p := range personalities {
		if p.Name == "" || p.System == "" {
			return nil, fmt.Errorf("personality %d: name and system are required", i+1)
		}
	}
	return personalities, nil
}

func Defaults() []Personality {
	personalities, err := Parse(defaultsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded personalities: %v", err))
	}
	return personalities
}

// Seeds returns one fresh conversation per personality.
func Seeds(personalities []Personality) []*conversation.Conversation {
	seeds := make([]*conversation.Conversation, 0, len(personalities))
	for _, p := range personalities {
		seeds = append(seeds, p.Conversation())
	}
	return seeds
}
