package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/buscacep/internal"
	"github.com/dukerupert/buscacep/internal/address"
	"github.com/dukerupert/buscacep/internal/domain"
	"github.com/dukerupert/buscacep/internal/workflow"
)

// options holds the persistent flags and what PersistentPreRunE builds from them.
type options struct {
	baseURL  string
	timeout  time.Duration
	logLevel string
	json     bool

	logger   *slog.Logger
	lookuper address.Lookuper
}

// Execute runs the cep command tree; Ctrl-C cancels an in-flight lookup.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "cep",
		Short:         "Look up Brazilian postal codes (CEP) on ViaCEP",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := internal.NewConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("base-url") {
				opts.baseURL = cfg.ViaCEP.BaseURL
			}
			if !cmd.Flags().Changed("timeout") {
				opts.timeout = cfg.ViaCEP.Timeout
			}

			opts.logger = internal.NewLogger(cmd.ErrOrStderr(), "dev", opts.logLevel)
			opts.lookuper = address.NewViaCEPClient(address.ViaCEPConfig{
				BaseURL: opts.baseURL,
				Timeout: opts.timeout,
			})
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", address.DefaultBaseURL, "registry base URL (env VIACEP_BASE_URL)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", address.DefaultTimeout, "per-lookup timeout (env VIACEP_TIMEOUT)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "error", "debug, info, warn or error (logs go to stderr)")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print results as JSON")

	root.AddCommand(lookupCmd(opts), interactiveCmd(opts))
	return root
}

func (o *options) newWorkflow() *workflow.Workflow {
	return workflow.New(o.lookuper, workflow.WithLogger(o.logger))
}

// printAddress writes one labeled line per field, or the raw record with --json.
func (o *options) printAddress(w io.Writer, a *address.Address) error {
	if o.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}
	for _, line := range a.Lines() {
		if _, err := fmt.Fprintf(w, "%s: %s\n", line.Label, line.Value); err != nil {
			return err
		}
	}
	return nil
}

type jsonError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// printNotice writes the user-visible message for err.
func (o *options) printNotice(w io.Writer, err error) error {
	if o.json {
		var body jsonError
		body.Error.Code = domain.ErrorCode(err)
		body.Error.Message = address.Notice(err)
		return json.NewEncoder(w).Encode(body)
	}
	_, werr := fmt.Fprintln(w, address.Notice(err))
	return werr
}
