package text2sqlctl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var rule = strings.Repeat("=", 80)

var exampleQuestions = []string{
	"Show all users",
	"Find users who bought laptops",
	"Count total sales for each product",
	"Show top 3 most expensive products",
}

func replCmd(opts Options, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Ask questions interactively until quit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd, opts, flags)
		},
	}
}

func runREPL(cmd *cobra.Command, opts Options, flags *globalFlags) error {
	ctx := cmd.Context()
	application, err := openApp(ctx, opts, flags)
	if err != nil {
		return err
	}
	defer func() { _ = application.Close() }()

	out := cmd.OutOrStdout()
	writeBanner(out)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		_, _ = fmt.Fprint(out, "\nEnter your question: ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if isQuit(question) {
			break
		}
		if question == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		_, _ = fmt.Fprintln(out, "\n"+rule)
		output, err := application.Runner.Run(ctx, question)
		if err != nil {
			_, _ = fmt.Fprintf(out, "Error: %v\n", err)
		} else {
			_, _ = fmt.Fprint(out, output)
		}
		_, _ = fmt.Fprintln(out, rule)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	_, _ = fmt.Fprintln(out, "\nGoodbye!")
	return nil
}

func isQuit(input string) bool {
	switch strings.ToLower(input) {
	case "quit", "exit", "退出":
		return true
	default:
		return false
	}
}

func writeBanner(w io.Writer) {
	_, _ = fmt.Fprintln(w, rule)
	_, _ = fmt.Fprintln(w, "text2sql: natural-language questions answered with SQL")
	_, _ = fmt.Fprintln(w, rule)
	_, _ = fmt.Fprintln(w, "\nTips:")
	_, _ = fmt.Fprintln(w, "  - Describe what you want to query in natural language")
	_, _ = fmt.Fprintln(w, "  - Type 'quit' or 'exit' to quit")
	_, _ = fmt.Fprintln(w, "\nExample questions:")
	for _, question := range exampleQuestions {
		_, _ = fmt.Fprintf(w, "  - %s\n", question)
	}
	_, _ = fmt.Fprintln(w, rule)
}
