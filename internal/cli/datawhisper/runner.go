package datawhisper

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/datawhisper/datawhisper/internal/client"
	"github.com/datawhisper/datawhisper/internal/session"
	"github.com/datawhisper/datawhisper/internal/table"
	"github.com/datawhisper/datawhisper/internal/tui"
)

type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
}

type flags struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	format  string
}

// usageError marks failures caused by the command line itself.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// Run executes the datawhisper command line and returns the process exit
// code: 0 on success, 1 when the query fails and 2 on usage errors.
func Run(ctx context.Context, args []string, defaults Options) int {
	stdin := defaults.Stdin
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	logger := defaults.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	root := newRootCommand(defaults, logger)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	_, _ = fmt.Fprintf(stderr, "Error: %s\n", err)
	var usage usageError
	if errors.As(err, &usage) {
		_, _ = fmt.Fprintln(stderr, root.UsageString())
		return 2
	}
	return 1
}

func newRootCommand(defaults Options, logger *slog.Logger) *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "datawhisper [question]",
		Short: "Ask questions about the customer database in plain language",
		Long: `datawhisper sends a natural language question to the translation service
and shows the generated SQL together with the rows it returned.

Without arguments it opens the interactive view when attached to a terminal
and reads the question from stdin otherwise.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && isTerminal(cmd.InOrStdin()) && isTerminal(cmd.OutOrStdout()) {
				return runInteractive(cmd, f, defaults, logger)
			}
			return runAsk(cmd, f, defaults, logger, args)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	persistent := root.PersistentFlags()
	persistent.StringVar(&f.baseURL, "api-url", firstNonEmpty(defaults.BaseURL, "http://127.0.0.1:8000"), "translation service base URL")
	persistent.StringVar(&f.apiKey, "api-key", defaults.APIKey, "API key sent as X-API-Key")
	persistent.DurationVar(&f.timeout, "timeout", defaults.Timeout, "request timeout (0 disables it)")
	persistent.StringVarP(&f.format, "format", "f", string(table.FormatTable), "result format (table, csv, json, md or html)")
	_ = root.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "csv", "json", "md", "html"}, cobra.ShellCompDirectiveNoFileComp
	})

	ask := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question and print the generated SQL and results",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, f, defaults, logger, args)
		},
	}

	interactive := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive query view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd, f, defaults, logger)
		},
	}

	root.AddCommand(ask, interactive)
	return root
}

func newController(f *flags, defaults Options, logger *slog.Logger) (*session.Controller, *client.Client, error) {
	if f.timeout < 0 {
		return nil, nil, usageError{err: fmt.Errorf("timeout must not be negative")}
	}
	c, err := client.New(client.Config{
		BaseURL:     f.baseURL,
		Credentials: client.StaticCredential(f.apiKey),
		Timeout:     f.timeout,
		HTTPClient:  defaults.HTTPClient,
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, usageError{err: err}
	}
	return session.NewController(c, logger), c, nil
}

func runAsk(cmd *cobra.Command, f *flags, defaults Options, logger *slog.Logger, args []string) error {
	format, err := table.ParseFormat(f.format)
	if err != nil {
		return usageError{err: err}
	}
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		question, err = readQuestion(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}
	if question == "" {
		return usageError{err: errors.New("a question is required")}
	}

	controller, _, err := newController(f, defaults, logger)
	if err != nil {
		return err
	}
	defer controller.Close()

	state, err := controller.Submit(cmd.Context(), question)
	if err != nil {
		return err
	}
	if state.HasError() {
		return errors.New(state.ErrorText)
	}
	return writeOutcome(cmd.OutOrStdout(), state, format)
}

func runInteractive(cmd *cobra.Command, f *flags, defaults Options, logger *slog.Logger) error {
	controller, c, err := newController(f, defaults, logger)
	if err != nil {
		return err
	}
	return tui.Run(cmd.Context(), controller, tui.Options{
		Input:     cmd.InOrStdin(),
		Output:    cmd.OutOrStdout(),
		Endpoint:  c.Endpoint(),
		AltScreen: true,
	})
}

type jsonOutcome struct {
	SQLQuery string      `json:"sql_query"`
	Results  []table.Row `json:"results"`
}

func writeOutcome(w io.Writer, state session.State, format table.Format) error {
	if format == table.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		rows := state.Rows
		if rows == nil {
			rows = []table.Row{}
		}
		return enc.Encode(jsonOutcome{SQLQuery: state.TranslatedQuery, Results: rows})
	}

	if state.TranslatedQuery != "" {
		if _, err := fmt.Fprintf(w, "Generated SQL Query:\n%s\n\n", state.TranslatedQuery); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, "Query Results:"); err != nil {
		return err
	}
	return table.Write(w, state.Rows, format)
}

func readQuestion(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read question from stdin: %w", err)
	}
	return strings.TrimSpace(strings.Join(lines, " ")), nil
}

func isTerminal(v any) bool {
	type fdReader interface {
		Fd() uintptr
	}
	file, ok := v.(fdReader)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
