package cmd

import (
	"fmt"

	statusadapter "github.com/bnema/telegram-accounts-cli/internal/adapters/render/status"
	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newImportCmd(state *session) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import every account logged in to Telegram Desktop",
		Args:  cobra.NoArgs,
		RunE: state.run(func(cmd *cobra.Command, _ []string, app *app) error {
			result := app.manager.Import.ImportFromDesktop(cmd.Context(), path)

			rows := make([]statusadapter.Result, 0, len(result.Outcomes))
			for i, outcome := range result.Outcomes {
				rows = append(rows, statusadapter.Result{
					Phone:  domain.Phone(fmt.Sprintf("#%d", i+1)),
					OK:     outcome.OK,
					Detail: outcome.Detail,
				})
			}
			title := "Import"
			if result.Path != "" {
				title = "Import from " + result.Path
			}
			return writeResults(cmd, app, title, rows, result.Tally)
		}),
	}

	cmd.Flags().StringVar(&path, "path", "", "tdata directory (default: the platform's Telegram Desktop location)")
	return cmd
}
