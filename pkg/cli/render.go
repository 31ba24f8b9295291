package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sealor/chatcli/pkg/conversation"
	"github.com/sealor/chatcli/pkg/usage"
)

var (
	userColor   = color.New(color.FgMagenta)
	systemColor = color.New(color.FgBlue)
	offsetColor = color.New(color.FgBlue)
	tagColor    = color.New(color.FgGreen)
	modelColor  = color.New(color.FgYellow)
	pluginColor = color.New(color.FgYellow)
)

func printMessage(w io.Writer, m conversation.Message) {
	switch m.Role {
	case conversation.RoleUser:
		userColor.Fprintln(w, m.Content)
	case conversation.RoleSystem:
		systemColor.Fprintln(w, m.Content)
	default:
		fmt.Fprintln(w, m.Content)
	}
}

// printConversation writes every message, or only the latest when short.
func printConversation(w io.Writer, c *conversation.Conversation, long bool) {
	messages := c.Messages
	if !long && len(messages) > 0 {
		messages = messages[len(messages)-1:]
	}
	for i, m := range messages {
		if i > 0 {
			fmt.Fprintln(w)
		}
		printMessage(w, m)
	}
}

type logOptions struct {
	usage   bool
	cost    bool
	plugins bool
	model   bool
}

// logLine renders one conversation for the log listing.
func logLine(offset int, c *conversation.Conversation, opts logOptions, prices usage.Table) string {
	var b strings.Builder
	b.WriteString(offsetColor.Sprintf("%4d:", offset))

	if opts.usage {
		total := 0
		if c.Usage != nil {
			total = c.Usage.TotalTokens
		}
		fmt.Fprintf(&b, " %5d", total)
	}
	if opts.cost {
		cost, _ := prices.ConversationCost(c)
		fmt.Fprintf(&b, " $% .3f", cost)
	}
	if opts.model {
		b.WriteString(" ")
		b.WriteString(modelColor.Sprint(c.ModelOrDefault()))
	}

	b.WriteString(" ")
	b.WriteString(c.Summary())

	if tags := c.AllTags(); len(tags) > 0 {
		b.WriteString(" ")
		b.WriteString(tagColor.Sprint(strings.Join(tags, " ")))
	}
	if opts.plugins && len(c.Plugins) > 0 {
		b.WriteString(" ")
		b.WriteString(pluginColor.Sprint(strings.Join(c.Plugins, " ")))
	}
	return b.String()
}
