package commands

import (
	"github.com/spf13/cobra"
)

// lookup: resolve a single code and exit non-zero on any failure.
func lookupCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <cep>",
		Short: "Look up one postal code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf := opts.newWorkflow()
			if err := wf.Submit(cmd.Context(), args[0]); err != nil {
				if opts.json {
					_ = opts.printNotice(cmd.OutOrStdout(), err)
				} else {
					_ = opts.printNotice(cmd.ErrOrStderr(), err)
				}
				return err
			}
			return opts.printAddress(cmd.OutOrStdout(), wf.Snapshot().Result)
		},
	}
}
