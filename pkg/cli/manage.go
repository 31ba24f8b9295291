package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sealor/chatcli/pkg/conversation"
	"github.com/sealor/chatcli/pkg/logstore"
	"github.com/sealor/chatcli/pkg/persistence"
	"github.com/sealor/chatcli/pkg/personality"
	"github.com/sealor/chatcli/pkg/search"
	"github.com/spf13/cobra"
)

// selectLatest is like selectConversation but defaults to the most recent
// conversation.
func (a *App) selectLatest(sel *selection, args []string) (*logstore.Store, *conversation.Conversation, error) {
	criteria, err := sel.criteria(args)
	if err != nil {
		return nil, nil, err
	}
	if criteria.IsZero() {
		criteria.Offsets = []int{1}
	}
	return a.selectConversation(criteria)
}

// snapshot copies c for a new log entry, keeping its tags.
func snapshot(c *conversation.Conversation) *conversation.Conversation {
	s := c.Clone("")
	s.Tags = slices.Clone(c.Tags)
	return s
}

func (a *App) newEditCommand() *cobra.Command {
	var (
		sel    selection
		single bool
	)

	cmd := &cobra.Command{
		Use:   "edit [offset]",
		Short: "Replace the last message of a conversation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, selected, err := a.selectLatest(&sel, args)
			if err != nil {
				return err
			}
			c := snapshot(selected)

			p := newPrompter(a.In, a.Out)
			p.Hint(!single)
			content, err := p.Read(!single)
			if err != nil {
				return err
			}
			if content == "" {
				return errors.New("empty message, nothing changed")
			}

			if err := c.EditLast(content); err != nil {
				return err
			}
			return persistEdit(store, c)
		},
	}

	sel.addFlags(cmd)
	cmd.Flags().BoolVar(&single, "singleline", false, "Read a single line instead of several")
	return cmd
}

func (a *App) newDropCommand() *cobra.Command {
	var sel selection

	cmd := &cobra.Command{
		Use:   "drop [offset]",
		Short: "Remove the last message of a conversation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, selected, err := a.selectLatest(&sel, args)
			if err != nil {
				return err
			}
			c := snapshot(selected)

			dropped, err := c.DropLast()
			if err != nil {
				return err
			}
			if err := persistEdit(store, c); err != nil {
				return err
			}
			fmt.Fprintf(a.Out, "Dropped %s message: %s\n", dropped.Role, summaryLine(dropped.Content))
			return nil
		},
	}

	sel.addFlags(cmd)
	return cmd
}

func (a *App) newMergeCommand() *cobra.Command {
	var (
		sel         selection
		personality string
	)

	cmd := &cobra.Command{
		Use:   "merge [offset...]",
		Short: "Combine the selected conversations into a new one",
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := sel.criteria(args)
			if err != nil {
				return err
			}
			if criteria.IsZero() {
				return errors.New("merge needs offsets, a search term or a tag")
			}

			store, history, err := a.history()
			if err != nil {
				return err
			}
			matches := search.Collect(search.Filter(history, criteria), 0)
			if len(matches) == 0 {
				return search.ErrNotFound
			}

			conversations := make([]*conversation.Conversation, 0, len(matches))
			for _, match := range slices.Backward(matches) {
				conversations = append(conversations, match.Conversation)
			}
			if personality == "" {
				personality = conversations[len(conversations)-1].Personality
			}

			merged := conversation.Merge(personality, conversations...)
			if err := persistEdit(store, merged); err != nil {
				return err
			}
			fmt.Fprintf(a.Out, "Merged %d conversations\n", len(conversations))
			return nil
		},
	}

	sel.addFlags(cmd)
	cmd.Flags().StringVarP(&personality, "personality", "p", "", "Personality of the merged conversation")
	return cmd
}

func (a *App) newTagsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List all tags in the log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, history, err := a.history()
			if err != nil {
				return err
			}

			var tags []string
			for _, c := range history {
				tags = append(tags, c.AllTags()...)
			}
			slices.Sort(tags)
			for _, tag := range slices.Compact(tags) {
				tagColor.Fprintln(a.Out, tag)
			}
			return nil
		},
	}
}

func (a *App) newTagCommand() *cobra.Command {
	var sel selection

	cmd := &cobra.Command{
		Use:   "tag TAG [offset]",
		Short: "Add a tag to a conversation; ^name sets its personality",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, selected, err := a.selectLatest(&sel, args[1:])
			if err != nil {
				return err
			}
			c := snapshot(selected)
			c.AddTag(args[0])
			return persistEdit(store, c)
		},
	}

	sel.addFlags(cmd)
	return cmd
}

func (a *App) newUntagCommand() *cobra.Command {
	var sel selection

	cmd := &cobra.Command{
		Use:   "untag TAG [offset]",
		Short: "Remove a tag from a conversation",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, selected, err := a.selectLatest(&sel, args[1:])
			if err != nil {
				return err
			}
			if !selected.HasTag(args[0]) {
				return fmt.Errorf("conversation has no tag %q", args[0])
			}
			c := snapshot(selected)
			c.RemoveTag(args[0])
			return persistEdit(store, c)
		},
	}

	sel.addFlags(cmd)
	return cmd
}

func (a *App) newShowTagCommand() *cobra.Command {
	var sel selection

	cmd := &cobra.Command{
		Use:   "show-tag [offset]",
		Short: "Print the last tag of a conversation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, err := a.selectLatest(&sel, args)
			if err != nil {
				return err
			}
			tags := c.AllTags()
			if len(tags) == 0 {
				return errors.New("conversation has no tags")
			}
			tagColor.Fprintln(a.Out, tags[len(tags)-1])
			return nil
		},
	}

	sel.addFlags(cmd)
	return cmd
}

func (a *App) newPersonalitiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "personalities",
		Short: "List the personalities used in the log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, history, err := a.history()
			if err != nil {
				return err
			}

			var names []string
			for _, c := range history {
				if c.Personality != "" {
					names = append(names, c.Personality)
				}
			}
			slices.Sort(names)
			for _, name := range slices.Compact(names) {
				fmt.Fprintln(a.Out, name)
			}
			return nil
		},
	}
}

func (a *App) newInitCommand() *cobra.Command {
	var reinit bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a conversation log in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := logstore.New(a.initPath(), a.Log)
			if err := store.Init(reinit, personality.Seeds(personality.Defaults())); err != nil {
				if errors.Is(err, logstore.ErrAlreadyExists) {
					return fmt.Errorf("%w, use --reinit to add the default personalities again", err)
				}
				return err
			}
			fmt.Fprintf(a.Out, "Initialized %s\n", store.Path())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&reinit, "reinit", "r", false, "Append the default personalities to an existing log")
	return cmd
}

func (a *App) newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Convert a legacy log to the current format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := logstore.Find(a.Dir, a.Config.LogFile)
			if err != nil {
				return err
			}
			migrated, err := logstore.New(path, a.Log).Migrate()
			if err != nil {
				return err
			}
			if migrated {
				fmt.Fprintf(a.Out, "Migrated %s to version %s\n", path, logstore.CurrentVersion)
			} else {
				fmt.Fprintf(a.Out, "%s is up to date\n", path)
			}
			return nil
		},
	}
}

func (a *App) newExportCommand() *cobra.Command {
	var sel selection

	cmd := &cobra.Command{
		Use:   "export FILE [offset]",
		Short: "Write a conversation to a YAML file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, err := a.selectLatest(&sel, args[1:])
			if err != nil {
				return err
			}
			return persistence.SaveSession(args[0], c)
		},
	}

	sel.addFlags(cmd)
	return cmd
}

func (a *App) newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Append a conversation read from a YAML file to the log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := persistence.LoadSession(args[0])
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			if err := persistEdit(store, c); err != nil {
				return err
			}
			fmt.Fprintf(a.Out, "Imported %d messages\n", len(c.Messages))
			return nil
		},
	}
}

func summaryLine(content string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(content), "\n")
	return line
}
