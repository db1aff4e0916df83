package text2sqlctl

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/text2sql/text2sql/internal/query"
	"github.com/text2sql/text2sql/internal/sampledb"
)

func askCmd(opts Options, flags *globalFlags) *cobra.Command {
	var remote remoteFlags

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question and print the report",
		Long: `Runs the pipeline once for the question and prints the report.

With --remote the question is sent to a running text2sql API server
instead of the local database.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return fmt.Errorf("question is required")
			}
			if strings.TrimSpace(remote.baseURL) != "" {
				return askRemote(cmd, opts, remote, question)
			}

			application, err := openApp(cmd.Context(), opts, flags)
			if err != nil {
				return err
			}
			defer func() { _ = application.Close() }()

			output, err := application.Runner.Run(cmd.Context(), question)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&remote.baseURL, "remote", "", "text2sql API base URL (e.g. http://localhost:8080)")
	cmd.Flags().StringVar(&remote.apiKey, "api-key", "", "API key for the remote server, defaults to TEXT2SQL_API_KEY")
	cmd.Flags().DurationVar(&remote.timeout, "timeout", 2*time.Minute, "HTTP timeout for --remote")
	return cmd
}

func schemaCmd(opts Options, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the schema description handed to the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := openApp(cmd.Context(), opts, flags)
			if err != nil {
				return err
			}
			defer func() { _ = application.Close() }()

			description, err := application.Catalog.Describe(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), description)
			return nil
		},
	}
}

func smokeCmd(opts Options, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "smoke",
		Short: "Run the fixed sample queries against the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := openApp(cmd.Context(), opts, flags)
			if err != nil {
				return err
			}
			defer func() { _ = application.Close() }()

			out := cmd.OutOrStdout()
			for i, smoke := range sampledb.SmokeQueries {
				result, err := application.Engine.Execute(cmd.Context(), smoke.SQL)
				if err != nil {
					return fmt.Errorf("smoke query %q: %w", smoke.Name, err)
				}
				_, _ = fmt.Fprintf(out, "%d. %s\n%s\n\n", i+1, smoke.Name, query.Render(result))
			}
			return nil
		},
	}
}

func historyCmd(opts Options, flags *globalFlags) *cobra.Command {
	var dayFlag string
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived runs for a day, or print one archived report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day := time.Now().UTC()
			if strings.TrimSpace(dayFlag) != "" {
				parsed, err := time.Parse(time.DateOnly, strings.TrimSpace(dayFlag))
				if err != nil {
					return fmt.Errorf("invalid --day %q: want YYYY-MM-DD", dayFlag)
				}
				day = parsed
			}

			application, err := openApp(cmd.Context(), opts, flags)
			if err != nil {
				return err
			}
			defer func() { _ = application.Close() }()
			if application.Archive == nil {
				return fmt.Errorf("run archive is disabled; set TEXT2SQL_ARCHIVE_BACKEND to local or s3")
			}

			out := cmd.OutOrStdout()
			if strings.TrimSpace(runID) != "" {
				report, err := application.Archive.Report(cmd.Context(), strings.TrimSpace(runID), day)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(out, report)
				return nil
			}

			records, err := application.Archive.List(cmd.Context(), day)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "RUN ID\tSTARTED\tROWS\tQUESTION\tOUTCOME")
			for _, record := range records {
				outcome := "ok"
				if record.Error != "" {
					outcome = record.Error
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					record.RunID,
					record.StartedAt().Format(time.TimeOnly),
					record.ResultRows,
					record.Question,
					outcome,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&dayFlag, "day", "", "UTC day to list (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&runID, "run", "", "print the archived report of this run")
	return cmd
}

func pruneCmd(opts Options, flags *globalFlags) *cobra.Command {
	var keepDays int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete archived runs older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := openApp(cmd.Context(), opts, flags)
			if err != nil {
				return err
			}
			defer func() { _ = application.Close() }()
			if application.Archive == nil {
				return fmt.Errorf("run archive is disabled; set TEXT2SQL_ARCHIVE_BACKEND to local or s3")
			}

			summary, err := application.Archive.Prune(cmd.Context(), keepDays, time.Now())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "scanned %d object(s), deleted %d object(s) from %d run(s)\n",
				summary.ObjectsScanned, summary.ObjectsDeleted, summary.RunsDeleted)
			return err
		},
	}

	cmd.Flags().IntVar(&keepDays, "keep-days", 30, "number of UTC days to keep, including today")
	return cmd
}
