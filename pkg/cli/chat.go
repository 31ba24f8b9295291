package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sealor/chatcli/pkg/conversation"
	"github.com/sealor/chatcli/pkg/logstore"
	"github.com/sealor/chatcli/pkg/plugin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type completionFlags struct {
	sync   bool
	stream bool
}

func (f *completionFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.sync, "sync", false, "Wait for the whole answer instead of streaming it")
	cmd.Flags().BoolVar(&f.stream, "stream", false, "Stream the answer even if the config disables streaming")
}

func (f *completionFlags) streaming(cfgStream bool) bool {
	switch {
	case f.sync:
		return false
	case f.stream:
		return true
	default:
		return cfgStream
	}
}

func (a *App) newChatCommand() *cobra.Command {
	var (
		sel         selection
		completion  completionFlags
		quick       bool
		cont        bool
		retry       bool
		personality string
		model       string
		files       []string
		plugins     []string
	)

	cmd := &cobra.Command{
		Use:   "chat [offset]",
		Short: "Start or continue a conversation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.checkModel(model); err != nil {
				return err
			}
			if err := a.Plugins.Check(plugins); err != nil {
				return err
			}

			criteria, err := sel.criteria(args)
			if err != nil {
				return err
			}
			if (cont || retry) && criteria.IsZero() {
				criteria.Offsets = []int{1}
			}
			if criteria.IsZero() {
				if personality == "" {
					personality = a.Config.DefaultPersonality
				}
				criteria = criteria.WithPersonality(personality)
			}

			store, selected, err := a.selectConversation(criteria)
			if err != nil {
				return err
			}

			c := selected.Clone(model)
			if personality != "" {
				c.Personality = personality
			}
			if err := attachFiles(c, files); err != nil {
				return err
			}
			c.AddPlugins(plugins...)
			if c.Model == "" {
				c.Model = a.Config.DefaultModel
			}

			stream := completion.streaming(a.Config.Stream)
			p := newPrompter(a.In, a.Out)
			if !p.tty {
				quick = true
			}

			if retry {
				if _, err := c.DropLast(); err != nil {
					return err
				}
				if err := a.addAnswer(cmd.Context(), store, c, stream); err != nil {
					return err
				}
				if quick {
					return nil
				}
			}

			return a.converse(cmd.Context(), store, c, p, !quick, quick, stream)
		},
	}

	sel.addFlags(cmd)
	completion.addFlags(cmd)
	cmd.Flags().BoolVarP(&quick, "quick", "q", false, "Exit after the first answer and read a single line")
	cmd.Flags().BoolVarP(&cont, "continue", "c", false, "Continue the latest conversation")
	cmd.Flags().BoolVarP(&retry, "retry", "r", false, "Drop the latest answer and ask again")
	cmd.Flags().StringVarP(&personality, "personality", "p", "", "Start from the seed conversation of this personality")
	cmd.Flags().StringVar(&model, "model", "", "Model to ask")
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "Add a file or glob pattern as a user message")
	cmd.Flags().StringArrayVar(&plugins, "plugin", nil, "Enable a plugin for this conversation")
	return cmd
}

func (a *App) newAnswerCommand() *cobra.Command {
	var (
		sel        selection
		completion completionFlags
	)

	cmd := &cobra.Command{
		Use:   "answer [offset]",
		Short: "Ask the model to answer a conversation as it is",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := sel.criteria(args)
			if err != nil {
				return err
			}
			store, c, err := a.selectConversation(criteria)
			if err != nil {
				return err
			}
			return a.addAnswer(cmd.Context(), store, c, completion.streaming(a.Config.Stream))
		},
	}

	sel.addFlags(cmd)
	completion.addFlags(cmd)
	return cmd
}

func (a *App) newAddCommand() *cobra.Command {
	var (
		sel         selection
		role        string
		personality string
		model       string
		plugins     []string
		single      bool
	)

	cmd := &cobra.Command{
		Use:   "add [offset]",
		Short: "Add a message to a conversation without asking the model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := conversation.ParseRole(role)
			if err != nil {
				return err
			}
			if err := a.checkModel(model); err != nil {
				return err
			}
			if err := a.Plugins.Check(plugins); err != nil {
				return err
			}

			criteria, err := sel.criteria(args)
			if err != nil {
				return err
			}

			var store *logstore.Store
			c := conversation.New()
			if criteria.IsZero() {
				if store, err = a.openStore(); err != nil {
					return err
				}
			} else {
				var selected *conversation.Conversation
				if store, selected, err = a.selectConversation(criteria); err != nil {
					return err
				}
				c = selected.Clone(model)
			}

			if personality != "" {
				c.Personality = personality
			}
			c.AddPlugins(plugins...)
			if model != "" {
				c.Model = model
			}
			if c.Model == "" {
				c.Model = a.Config.DefaultModel
			}

			p := newPrompter(a.In, a.Out)
			p.Hint(!single)
			content, err := p.Read(!single)
			if err != nil {
				return err
			}
			if content == "" {
				return errors.New("empty message, nothing added")
			}

			c.Append(r, content)
			return persistEdit(store, c)
		},
	}

	sel.addFlags(cmd)
	cmd.Flags().StringVar(&role, "role", string(conversation.RoleSystem), "Role of the new message (system, user or assistant)")
	cmd.Flags().StringVarP(&personality, "personality", "p", "", "Personality of the conversation")
	cmd.Flags().StringVar(&model, "model", "", "Model of the conversation")
	cmd.Flags().StringArrayVar(&plugins, "plugin", nil, "Enable a plugin for the conversation")
	cmd.Flags().BoolVar(&single, "singleline", false, "Read a single line instead of several")
	return cmd
}

func attachFiles(c *conversation.Conversation, patterns []string) error {
	paths, err := plugin.ExpandFiles(patterns)
	if err != nil {
		return err
	}
	for _, path := range paths {
		content, err := plugin.FormatFile(path)
		if err != nil {
			return err
		}
		c.Append(conversation.RoleUser, content)
	}
	return nil
}

// converse prompts for questions and answers them until the input ends.
func (a *App) converse(ctx context.Context, store *logstore.Store, c *conversation.Conversation, p *prompter, multiline, quick, stream bool) error {
	p.Hint(multiline)
	for {
		question, err := p.Read(multiline)
		if err != nil {
			return err
		}
		if question == "" {
			return nil
		}

		c.Append(conversation.RoleUser, question)
		if err := a.addAnswer(ctx, store, c, stream); err != nil {
			return err
		}
		if quick {
			return nil
		}
	}
}

// addAnswer completes c, logs the new snapshot and feeds plugin follow-ups
// back to the model until there are none. An interrupt stops only the
// running completion; its partial answer is kept.
func (a *App) addAnswer(ctx context.Context, store *logstore.Store, c *conversation.Conversation, stream bool) error {
	for {
		completionCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		reply, err := c.Complete(completionCtx, a.Completer, a.Estimator, stream, func(token string) {
			fmt.Fprint(a.Out, token)
		})
		interrupted := completionCtx.Err() != nil
		stop()
		if err != nil {
			return err
		}
		fmt.Fprintln(a.Out)

		if err := store.Append(c); err != nil {
			return err
		}
		a.Log.WithFields(logrus.Fields{
			"model":  c.ModelOrDefault(),
			"tokens": c.Usage.TotalTokens,
		}).Debug("answer logged")

		if interrupted || ctx.Err() != nil {
			return nil
		}

		followUp, err := a.Plugins.Evaluate(ctx, reply.Content, c.Plugins)
		if err != nil {
			return err
		}
		if followUp == "" {
			return nil
		}
		pluginColor.Fprintln(a.Out, followUp)
		c.Append(conversation.RoleUser, followUp)
	}
}
