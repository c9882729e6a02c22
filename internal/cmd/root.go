package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"ghtool/internal/ctxlog"
	"ghtool/internal/repos"
	"ghtool/pkg/config"
	"ghtool/pkg/github"
)

// rootOptions holds the persistent flags and the state built from them
// before a subcommand runs
type rootOptions struct {
	configPath string
	output     string
	verbose    bool

	stdout io.Writer
	stderr io.Writer

	cfg     *config.Config
	service *repos.Service
}

// NewRootCommand builds the ghtool command tree writing to stdout and stderr
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "ghtool",
		Short: "Query GitHub for recently updated repositories",
		Long: `ghtool lists the most recently updated public GitHub repositories,
optionally filtered by language, and describes repositories by numeric id.

Results are printed as JSON on stdout. Errors go to stderr and set the exit code.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		PersistentPreRunE: opts.setup,
		RunE: func(_ *cobra.Command, _ []string) error {
			return newUsageError("a command is required: list, desc or init")
		},
	}

	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.ghtool/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", outputJSON, "output format: json or table")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "print debug logs to stderr")

	rootCmd.AddCommand(newListCommand(opts))
	rootCmd.AddCommand(newDescCommand(opts))
	rootCmd.AddCommand(newInitCommand(opts))

	return rootCmd
}

// Execute runs ghtool with the process arguments and exits with its code
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// Run executes ghtool with args and returns the process exit code
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCommand(stdout, stderr)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// requests cut short by the caller's own cancellation are not network failures
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			fmt.Fprintln(stderr, "Error: interrupted")
			return ExitInterrupted
		}
		fmt.Fprintf(stderr, "Error: %s\n", singleLine(err.Error()))
		return exitCodeFor(err)
	}
	return ExitOK
}

// setup validates the persistent flags, installs the logger and builds the
// repository service. The bare root command only reports a usage error, so
// it skips all of this.
func (o *rootOptions) setup(cmd *cobra.Command, _ []string) error {
	if !cmd.HasParent() {
		return nil
	}

	if err := validateOutputFormat(o.output); err != nil {
		return err
	}

	logger := ctxlog.New(o.stderr, o.verbose)
	cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))

	// init writes the file Load would read
	if cmd.Name() == initCommandName || cmd.Name() == "help" {
		return nil
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return newInternalError("failed to load configuration", err)
	}

	client, err := github.NewClient(github.ClientConfig{
		BaseURL: cfg.GitHub.BaseURL,
		Token:   cfg.GitHub.Token,
		Timeout: cfg.GitHub.Timeout,
	})
	if err != nil {
		return newInternalError("failed to create GitHub client", err)
	}

	logger.Debug("configuration loaded",
		"base_url", client.BaseURL(),
		"concurrency", cfg.Fetch.Concurrency,
		"authenticated", cfg.GitHub.Token != "")

	o.cfg = cfg
	o.service = repos.NewService(client, cfg.Fetch.Concurrency)
	return nil
}

// render writes a successful result to stdout
func (o *rootOptions) render(summaries []github.RepositorySummary) error {
	return renderSummaries(o.stdout, o.output, summaries)
}

// usageArgs turns an argument validator failure into a usage error
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

func singleLine(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return msg[:i]
	}
	return msg
}
