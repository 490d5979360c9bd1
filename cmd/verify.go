package cmd

import (
	"fmt"

	"github.com/bnema/telegram-accounts-cli/internal/application"
	"github.com/spf13/cobra"
)

func newVerifyCmd(state *session) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "verify <phone> <target...>",
		Short: "Check the recent history of up to ten targets for messages sent by an account",
		Args:  cobra.MinimumNArgs(2),
		RunE: state.run(func(cmd *cobra.Command, args []string, app *app) error {
			deliveries, err := app.manager.Dispatch.Verify(cmd.Context(), args[0], args[1:])
			if err != nil {
				return fmt.Errorf("verify %s: %w", args[0], err)
			}
			if asJSON {
				return writeJSON(cmd, deliveries)
			}

			out := cmd.OutOrStdout()
			missing := 0
			for _, d := range deliveries {
				switch d.Status {
				case application.DeliverySent:
					_, _ = fmt.Fprintf(out, "%-8s %s %q\n", d.Status, d.Target, d.Preview)
				case application.DeliveryMissing:
					missing++
					_, _ = fmt.Fprintf(out, "%-8s %s\n", d.Status, d.Target)
				default:
					missing++
					_, _ = fmt.Fprintf(out, "%-8s %s %s\n", d.Status, d.Target, d.Detail)
				}
			}
			if missing > 0 {
				return fmt.Errorf("%d of %d targets without a recent message: %w", missing, len(deliveries), errOperationFailed)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print deliveries as JSON")
	return cmd
}
