package persistence

import (
	"io"
	"os"

	"github.com/sealor/chatcli/pkg/conversation"
	"gopkg.in/yaml.v3"
)

func Encode(w io.Writer, c *conversation.Conversation) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewSessionFromConversation(c)); err != nil {
		return err
	}
	return enc.Close()
}

func SaveSession(sessionFile string, c *conversation.Conversation) error {
	data, err := yaml.Marshal(NewSessionFromConversation(c))
	if err != nil {
		return err
	}
	if err = os.WriteFile(sessionFile, data, 0640); err != nil {
		return err
	}
	return nil
}

func LoadSession(sessionFile string) (*conversation.Conversation, error) {
	data, err := os.ReadFile(sessionFile)
	if err != nil {
		return nil, err
	}

	var session Session
	if err = yaml.Unmarshal(data, &session); err != nil {
		return nil, err
	}

	return NewConversationFromSession(&session)
}
