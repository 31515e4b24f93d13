// Package cli implements the supplierctl command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/supplierdesk/internal/backend"
	"github.com/odyssey-erp/supplierdesk/internal/desk"
)

const (
	envBackendURL     = "BACKEND_URL"
	defaultBackendURL = "http://127.0.0.1:5000"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	backendURL string
	timeout    time.Duration
	output     string
	verbose    bool
}

// invocation carries the parsed flags and output streams to every command.
type invocation struct {
	opts   *globalOptions
	stdout io.Writer
	stderr io.Writer
}

func (rt *invocation) client() *backend.Client {
	return backend.NewClient(rt.opts.backendURL, rt.opts.timeout, nil)
}

func (rt *invocation) logger() *slog.Logger {
	if !rt.opts.verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(rt.stderr, nil))
}

func (rt *invocation) printer() (printer, error) {
	switch rt.opts.output {
	case "table", "":
		return tablePrinter{w: rt.stdout}, nil
	case "json":
		return jsonPrinter{w: rt.stdout}, nil
	default:
		return nil, fmt.Errorf("unknown output %q (want table or json)", rt.opts.output)
	}
}

// NewRootCommand builds the supplierctl command tree writing to stdout and stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	backendURL := os.Getenv(envBackendURL)
	if backendURL == "" {
		backendURL = defaultBackendURL
	}
	rt := &invocation{opts: &globalOptions{}, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "supplierctl",
		Short:         "Manage suppliers and items on the suppliers service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&rt.opts.backendURL, "backend", backendURL, "suppliers service base URL")
	flags.DurationVar(&rt.opts.timeout, "timeout", 10*time.Second, "per request timeout")
	flags.StringVarP(&rt.opts.output, "output", "o", "table", "output format: table or json")
	flags.BoolVarP(&rt.opts.verbose, "verbose", "v", false, "log progress to stderr")

	root.AddCommand(
		newSupplierCommand(rt),
		newItemCommand(rt),
		newSeedCommand(rt),
		newHealthCommand(rt),
	)
	return root
}

// Execute runs the command tree with args and returns the process exit code.
// Backend failures print the server message, or a generic one when the
// server sent none.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(stderr, "error:", describe(err))
		return 1
	}
	return 0
}

func describe(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return backend.Message(err, desk.MsgServerError)
	}
	return err.Error()
}

func newHealthCommand(rt *invocation) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the suppliers service answers and show its version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := rt.client()
			if err := client.Health(cmd.Context()); err != nil {
				return err
			}
			index, err := client.Index(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.stdout, "%s %s at %s is healthy\n", index.Name, index.Version, client.BaseURL())
			return nil
		},
	}
}
