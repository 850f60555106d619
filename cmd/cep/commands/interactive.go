package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dukerupert/buscacep/internal/workflow"
)

const prompt = "CEP> "

// interactive: one screen, many submissions. Output is driven by state
// notifications, the same way a UI would re-render.
func interactiveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Read postal codes from stdin until EOF or \"sair\"",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			wf := opts.newWorkflow()

			unsubscribe := wf.Subscribe(func(s workflow.State) {
				switch {
				case s.IsLoading:
					fmt.Fprintln(out, "Buscando...")
				case s.Notice != "":
					_ = opts.printNotice(out, s.LastError)
				case s.Result != nil:
					_ = opts.printAddress(out, s.Result)
				}
			})
			defer unsubscribe()

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, prompt)
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}

				line := strings.TrimSpace(scanner.Text())
				switch strings.ToLower(line) {
				case "sair", "exit", "quit":
					return nil
				case "limpar", "clear":
					wf.Reset()
					continue
				}

				// Failures are already rendered through the subscription.
				_ = wf.Submit(cmd.Context(), line)

				if err := cmd.Context().Err(); err != nil {
					return nil
				}
			}
		},
	}
}
