package cli

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/sealor/chatcli/pkg/persistence"
	"github.com/sealor/chatcli/pkg/search"
	"github.com/spf13/cobra"
)

func (a *App) newShowCommand() *cobra.Command {
	var (
		sel    selection
		long   bool
		short  bool
		asJSON bool
		asYAML bool
	)

	cmd := &cobra.Command{
		Use:   "show [offset]",
		Short: "Print a conversation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, err := a.selectLatest(&sel, args)
			if err != nil {
				return err
			}

			switch {
			case asJSON:
				enc := json.NewEncoder(a.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(c)
			case asYAML:
				return persistence.Encode(a.Out, c)
			default:
				printConversation(a.Out, c, long && !short)
				return nil
			}
		},
	}

	sel.addFlags(cmd)
	cmd.Flags().BoolVarP(&long, "long", "l", true, "Print every message")
	cmd.Flags().BoolVar(&short, "short", false, "Print only the latest message")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the log entry as JSON")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the conversation as YAML")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")
	return cmd
}

func (a *App) newLogCommand() *cobra.Command {
	var (
		sel    selection
		opts   logOptions
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "log [offset...]",
		Short: "List conversations, most recent last",
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := sel.criteria(args)
			if err != nil {
				return err
			}
			_, history, err := a.history()
			if err != nil {
				return err
			}

			matches := search.Collect(search.Filter(history, criteria), limit)
			prices := a.Config.Prices()
			for _, match := range slices.Backward(matches) {
				if asJSON {
					data, err := json.Marshal(match.Conversation)
					if err != nil {
						return err
					}
					fmt.Fprintf(a.Out, "%s\n", data)
					continue
				}
				fmt.Fprintln(a.Out, logLine(match.Offset, match.Conversation, opts, prices))
			}
			return nil
		},
	}

	sel.addFlags(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Maximum number of conversations, 0 for all")
	cmd.Flags().BoolVarP(&opts.usage, "usage", "u", false, "Show the total tokens")
	cmd.Flags().BoolVar(&opts.cost, "cost", false, "Show the cost in USD")
	cmd.Flags().BoolVar(&opts.plugins, "plugins", false, "Show enabled plugins")
	cmd.Flags().BoolVar(&opts.model, "model", false, "Show the model")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the log entries as JSON lines")
	return cmd
}

func (a *App) newUsageCommand() *cobra.Command {
	var today bool

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Sum tokens and cost over the log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, history, err := a.history()
			if err != nil {
				return err
			}

			var since time.Time
			if today {
				now := time.Now()
				since = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			}

			summary := a.Config.Prices().Summarize(history, since, a.Log)
			fmt.Fprintf(a.Out, "Tokens: %d\n", summary.Tokens)
			fmt.Fprintf(a.Out, "Cost: $%.4f\n", summary.Cost)
			return nil
		},
	}

	cmd.Flags().BoolVar(&today, "today", false, "Only count conversations logged today")
	return cmd
}
