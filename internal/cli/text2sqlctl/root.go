package text2sqlctl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/text2sql/text2sql/internal/app"
	"github.com/text2sql/text2sql/internal/config"
	"github.com/text2sql/text2sql/internal/nl2sql"
	"github.com/text2sql/text2sql/internal/observability"
)

const serviceName = "text2sql"

type Options struct {
	// Lookup replaces the process environment as the config source.
	Lookup     config.LookupFunc
	Generator  nl2sql.Generator
	HTTPClient *http.Client
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
}

type globalFlags struct {
	databaseURL string
}

// Run executes the CLI and returns the process exit code.
func Run(ctx context.Context, args []string, opts Options) int {
	opts = opts.withDefaults()
	cmd := NewCommand(opts)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func NewCommand(opts Options) *cobra.Command {
	opts = opts.withDefaults()
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "text2sql",
		Short: "Answer natural-language questions with SQL against a relational database",
		Long: `text2sql describes the connected database to a language model, runs the
SQL it generates and prints a report with the question, the SQL and the
results. Without a subcommand it starts the interactive prompt.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd, opts, flags)
		},
	}
	root.SetIn(opts.Stdin)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)
	root.PersistentFlags().StringVar(&flags.databaseURL, "database-url", "", "database URL, overrides TEXT2SQL_DATABASE_URL")

	root.AddCommand(replCmd(opts, flags))
	root.AddCommand(askCmd(opts, flags))
	root.AddCommand(schemaCmd(opts, flags))
	root.AddCommand(smokeCmd(opts, flags))
	root.AddCommand(historyCmd(opts, flags))
	root.AddCommand(pruneCmd(opts, flags))
	return root
}

func (o Options) withDefaults() Options {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = io.Discard
	}
	if o.Stderr == nil {
		o.Stderr = io.Discard
	}
	return o
}

func (o Options) loadConfig(flags *globalFlags) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if o.Lookup != nil {
		cfg, err = config.Load(serviceName, o.Lookup)
	} else {
		cfg, err = config.LoadFromEnv(serviceName)
	}
	if err != nil {
		return config.Config{}, err
	}
	if url := strings.TrimSpace(flags.databaseURL); url != "" {
		cfg.Database.URL = url
	}
	return cfg, nil
}

// openApp loads config and wires the pipeline. Logs go to stderr so the
// reports on stdout stay clean.
func openApp(ctx context.Context, opts Options, flags *globalFlags) (*app.App, error) {
	cfg, err := opts.loadConfig(flags)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(cfg, opts.Stderr)
	return app.New(ctx, cfg, logger, app.Options{Generator: opts.Generator})
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
