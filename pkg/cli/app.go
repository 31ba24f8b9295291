// Package cli wires the conversation log, selection and completion into commands
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/sealor/chatcli/pkg/chat"
	"github.com/sealor/chatcli/pkg/config"
	"github.com/sealor/chatcli/pkg/conversation"
	"github.com/sealor/chatcli/pkg/logging"
	"github.com/sealor/chatcli/pkg/logstore"
	"github.com/sealor/chatcli/pkg/plugin"
	"github.com/sealor/chatcli/pkg/search"
	"github.com/sealor/chatcli/pkg/usage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "0.4.0"

// App carries the collaborators of all commands. Nil fields are filled in
// from the configuration before a command runs.
type App struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Dir is where the search for the log starts.
	Dir string

	Config    *config.Config
	Log       *logrus.Logger
	Completer conversation.Completer
	Estimator conversation.UsageEstimator
	Plugins   *plugin.Registry

	logOptions logging.Options
}

func NewApp() *App {
	return &App{In: os.Stdin, Out: os.Stdout, Err: os.Stderr, Dir: "."}
}

// Execute runs the command line, falling back to chat when no subcommand is
// named.
func (a *App) Execute(args []string) error {
	return a.ExecuteContext(context.Background(), args)
}

// ExecuteContext is Execute with a parent for every completion context;
// cancelling it interrupts the running completion like SIGINT does.
func (a *App) ExecuteContext(ctx context.Context, args []string) error {
	root := a.NewRootCommand()
	root.SetArgs(withDefaultCommand(root, args, "chat"))
	root.SetIn(a.In)
	root.SetOut(a.Out)
	root.SetErr(a.Err)

	err := root.ExecuteContext(ctx)
	if errors.Is(err, logstore.ErrNotFound) {
		return fmt.Errorf("%w: chatcli not initialized, run `chatcli init` first", err)
	}
	return err
}

func withDefaultCommand(root *cobra.Command, args []string, name string) []string {
	for _, arg := range args {
		switch arg {
		case "-h", "--help", "--version", "help", "completion":
			return args
		}
	}
	if cmd, _, _ := root.Find(args); cmd != root {
		return args
	}
	return append([]string{name}, args...)
}

func (a *App) NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "chatcli",
		Short:         "Ask questions of chat completion models and keep a log of conversations",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVar(&a.logOptions.Debug, "debug", false, "Log debug output, including API requests")
	flags.BoolVar(&a.logOptions.Quiet, "quiet", false, "Only log warnings and errors")
	flags.StringVar(&a.logOptions.Format, "log-format", "text", "Diagnostic log format (text or json)")

	root.AddCommand(
		a.newChatCommand(),
		a.newAnswerCommand(),
		a.newAddCommand(),
		a.newEditCommand(),
		a.newDropCommand(),
		a.newMergeCommand(),
		a.newTagsCommand(),
		a.newTagCommand(),
		a.newUntagCommand(),
		a.newShowTagCommand(),
		a.newPersonalitiesCommand(),
		a.newShowCommand(),
		a.newLogCommand(),
		a.newUsageCommand(),
		a.newInitCommand(),
		a.newMigrateCommand(),
		a.newExportCommand(),
		a.newImportCommand(),
	)
	return root
}

func (a *App) setup() error {
	if a.Log == nil {
		log, err := logging.New(a.Err, a.logOptions)
		if err != nil {
			return err
		}
		a.Log = log
	}

	if a.Config == nil {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		a.Config = cfg
	}

	if a.Completer == nil {
		a.Completer = chat.NewClient(chat.ClientOptions{
			BaseURL: a.Config.APIURL,
			APIKey:  a.Config.APIKey,
			Debug:   a.logOptions.Debug,
		})
	}
	if a.Estimator == nil {
		a.Estimator = usage.Estimator{Tokenizer: usage.NewCounter(a.Log)}
	}
	if a.Plugins == nil {
		a.Plugins = plugin.NewRegistry(a.Log)
	}
	return nil
}

// openStore discovers the log and brings it to the current format.
func (a *App) openStore() (*logstore.Store, error) {
	path, err := logstore.Find(a.Dir, a.Config.LogFile)
	if err != nil {
		return nil, err
	}

	store := logstore.New(path, a.Log)
	if _, err := store.Migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

// initPath is where init creates the log: the working directory unless the
// configured name is absolute.
func (a *App) initPath() string {
	if filepath.IsAbs(a.Config.LogFile) {
		return a.Config.LogFile
	}
	return filepath.Join(a.Dir, a.Config.LogFile)
}

func (a *App) history() (*logstore.Store, []*conversation.Conversation, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}
	history, err := store.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	return store, history, nil
}

// selectConversation loads the log and returns the most recent match.
func (a *App) selectConversation(criteria search.Criteria) (*logstore.Store, *conversation.Conversation, error) {
	store, history, err := a.history()
	if err != nil {
		return nil, nil, err
	}
	_, c, err := search.Select(history, criteria)
	if err != nil {
		return nil, nil, err
	}
	return store, c, nil
}

func (a *App) checkModel(model string) error {
	if model == "" || len(a.Config.Models) == 0 || slices.Contains(a.Config.Models, model) {
		return nil
	}
	return fmt.Errorf("unknown model %q, choose one of %v", model, a.Config.Models)
}

// selection holds the flags shared by commands that pick conversations.
type selection struct {
	search string
	tag    string
}

func (s *selection) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.search, "search", "s", "", "Select by search term")
	cmd.Flags().StringVarP(&s.tag, "tag", "t", "", "Select by tag")
}

func (s *selection) criteria(offsets []string) (search.Criteria, error) {
	criteria := search.Criteria{Search: s.search, Tag: s.tag}
	for _, arg := range offsets {
		offset, err := strconv.Atoi(arg)
		if err != nil || offset < 1 {
			return search.Criteria{}, fmt.Errorf("invalid offset %q", arg)
		}
		criteria.Offsets = append(criteria.Offsets, offset)
	}
	return criteria, nil
}

// persistEdit appends c as a snapshot that did not come from a completion.
func persistEdit(store *logstore.Store, c *conversation.Conversation) error {
	c.Usage = nil
	c.Completion = nil
	return store.Append(c)
}
