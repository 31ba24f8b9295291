// Package persistence handles mapping and YAML serialization of conversations
// for export and import
package persistence

type Session struct {
	Model       string   `yaml:"model,omitempty"`
	Personality string   `yaml:"personality,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
	Plugins     []string `yaml:"plugins,omitempty"`
	Timestamp   string   `yaml:"timestamp,omitempty"`
	Usage       *Usage   `yaml:"usage,omitempty"`

	Messages []Message `yaml:"messages"`
}

type Message struct {
	Role    string `yaml:"role"`
	Content string `yaml:"content"`
}

type Usage struct {
	PromptTokens     int `yaml:"prompt_tokens"`
	CompletionTokens int `yaml:"completion_tokens"`
	TotalTokens      int `yaml:"total_tokens"`
}
