package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	statusadapter "github.com/bnema/telegram-accounts-cli/internal/adapters/render/status"
	"github.com/bnema/telegram-accounts-cli/internal/application"
	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newLoginCmd(state *session) *cobra.Command {
	var req application.LoginRequest

	cmd := &cobra.Command{
		Use:   "login <phone>",
		Short: "Log in one account, fetching the code from its verification URL when set",
		Args:  cobra.ExactArgs(1),
		RunE: state.run(func(cmd *cobra.Command, args []string, app *app) error {
			req.Phone = args[0]
			observeLogin(cmd, app)
			outcome := app.manager.Login.Login(cmd.Context(), req)
			return writeOutcome(cmd, outcome)
		}),
	}

	cmd.Flags().StringVar(&req.VerificationURL, "url", "", "verification URL the login code (and 2FA password) is scraped from")
	cmd.Flags().StringVar(&req.Code, "code", "", "login code; skips the URL and the prompt")
	cmd.Flags().StringVar(&req.Password, "password", "", "2FA password; skips the URL and the prompt")

	cmd.AddCommand(newLoginBatchCmd(state))
	return cmd
}

func newLoginBatchCmd(state *session) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <file|->",
		Short: "Log in every \"phone|url\" line of a file (or stdin) one after another",
		Args:  cobra.ExactArgs(1),
		RunE: state.run(func(cmd *cobra.Command, args []string, app *app) error {
			lines, err := readLines(cmd, args[0])
			if err != nil {
				return err
			}
			observeLogin(cmd, app)
			result := app.manager.Login.LoginBatch(cmd.Context(), lines)
			return writeLoginBatch(cmd, app, result)
		}),
	}
}

func observeLogin(cmd *cobra.Command, app *app) {
	errOut := cmd.ErrOrStderr()
	app.manager.Login.Observer = func(phone domain.Phone, loginState domain.LoginState) {
		_, _ = fmt.Fprintf(errOut, "%s: %s\n", phone, loginState)
	}
}

func writeOutcome(cmd *cobra.Command, outcome domain.Outcome) error {
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), outcome.Detail); err != nil {
		return err
	}
	if !outcome.OK {
		return fmt.Errorf("%s: %w", outcome.Reason, errOperationFailed)
	}
	return nil
}

func writeLoginBatch(cmd *cobra.Command, app *app, result application.BatchLoginResult) error {
	rows := make([]statusadapter.Result, 0, len(result.Outcomes))
	for i, outcome := range result.Outcomes {
		rows = append(rows, statusadapter.Result{
			Phone:  domain.Phone(result.Phones[i]),
			OK:     outcome.OK,
			Detail: outcome.Detail,
		})
	}
	return writeResults(cmd, app, "Batch login", rows, result.Tally)
}

func writeResults(cmd *cobra.Command, app *app, title string, rows []statusadapter.Result, tally domain.Tally) error {
	rendered, err := app.resultRenderer(title, rows)
	if err != nil {
		return fmt.Errorf("render results: %w", err)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), rendered); err != nil {
		return err
	}
	if tally.Failed > 0 {
		return fmt.Errorf("%d of %d failed: %w", tally.Failed, tally.Total, errOperationFailed)
	}
	return nil
}

// readLines returns every line of path, or of stdin when path is "-".
func readLines(cmd *cobra.Command, path string) ([]string, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}
