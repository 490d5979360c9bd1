package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/telegram-accounts-cli/internal/adapters/prompt"
	statusadapter "github.com/bnema/telegram-accounts-cli/internal/adapters/render/status"
	"github.com/bnema/telegram-accounts-cli/internal/application"
	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/spf13/cobra"
)

const menuText = `
Telegram Accounts
  1) List accounts
  2) Log in account
  3) Batch login (phone|url lines, empty line to finish)
  4) Import from Telegram Desktop
  5) Send a message
  6) Broadcast from all accounts
  7) Remove account
  8) Exit
`

type menuAction func(cmd *cobra.Command, app *app) error

func newMenuCmd(state *session) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Interactive numbered menu",
		Args:  cobra.NoArgs,
		RunE: state.run(func(cmd *cobra.Command, _ []string, app *app) error {
			return runMenu(cmd, app)
		}),
	}
}

func runMenu(cmd *cobra.Command, app *app) error {
	actions := map[string]menuAction{
		"1": menuList,
		"2": menuLogin,
		"3": menuBatchLogin,
		"4": menuImport,
		"5": menuSend,
		"6": menuBroadcast,
		"7": menuRemove,
	}

	out := cmd.OutOrStdout()
	for {
		_, _ = fmt.Fprint(out, menuText)
		choice, err := app.prompter.Line(cmd.Context(), "Choice: ")
		if errors.Is(err, prompt.ErrNoInput) {
			return nil
		}
		if err != nil {
			return err
		}

		if choice == "8" || strings.EqualFold(choice, "q") {
			return nil
		}
		action, ok := actions[choice]
		if !ok {
			_, _ = fmt.Fprintf(out, "unknown choice %q\n", choice)
			continue
		}
		if err := action(cmd, app); err != nil {
			if errors.Is(err, prompt.ErrNoInput) || errors.Is(err, context.Canceled) {
				return nil
			}
			_, _ = fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func ask(cmd *cobra.Command, app *app, label string) (string, error) {
	return app.prompter.Line(cmd.Context(), label)
}

func menuList(cmd *cobra.Command, app *app) error {
	rows := make([]statusadapter.Row, 0, app.manager.Store.Len())
	for _, account := range app.manager.Store.List() {
		rows = append(rows, statusadapter.Row{Account: account})
	}
	return writeAccountRows(cmd, app, rows)
}

func menuLogin(cmd *cobra.Command, app *app) error {
	phone, err := ask(cmd, app, "Phone: ")
	if err != nil {
		return err
	}
	url, err := ask(cmd, app, "Verification URL (empty to type the code): ")
	if err != nil {
		return err
	}
	observeLogin(cmd, app)
	outcome := app.manager.Login.Login(cmd.Context(), application.LoginRequest{Phone: phone, VerificationURL: url})
	return writeOutcome(cmd, outcome)
}

func menuBatchLogin(cmd *cobra.Command, app *app) error {
	var lines []string
	for {
		line, err := ask(cmd, app, "phone|url: ")
		if errors.Is(err, prompt.ErrNoInput) || (err == nil && line == "") {
			break
		}
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}
	observeLogin(cmd, app)
	return writeLoginBatch(cmd, app, app.manager.Login.LoginBatch(cmd.Context(), lines))
}

func menuImport(cmd *cobra.Command, app *app) error {
	path, err := ask(cmd, app, "tdata path (empty for default): ")
	if err != nil {
		return err
	}
	result := app.manager.Import.ImportFromDesktop(cmd.Context(), path)
	rows := make([]statusadapter.Result, 0, len(result.Outcomes))
	for i, outcome := range result.Outcomes {
		rows = append(rows, statusadapter.Result{Phone: domain.Phone(fmt.Sprintf("#%d", i+1)), OK: outcome.OK, Detail: outcome.Detail})
	}
	return writeResults(cmd, app, "Import", rows, result.Tally)
}

func menuSend(cmd *cobra.Command, app *app) error {
	answers := make([]string, 0, 4)
	for _, label := range []string{"From phone: ", "Target: ", "Message: ", "Verification URL (empty if logged in): "} {
		answer, err := ask(cmd, app, label)
		if err != nil {
			return err
		}
		answers = append(answers, answer)
	}

	var result domain.DispatchResult
	if answers[3] != "" {
		observeLogin(cmd, app)
		result = app.manager.QuickSend(cmd.Context(), answers[0], answers[1], answers[2], answers[3])
	} else {
		result = app.manager.Dispatch.SendFromAccount(cmd.Context(), answers[0], answers[1], domain.Payload{Text: answers[2]})
	}
	return writeOutcome(cmd, result.Outcome)
}

func menuBroadcast(cmd *cobra.Command, app *app) error {
	target, err := ask(cmd, app, "Target: ")
	if err != nil {
		return err
	}
	message, err := ask(cmd, app, "Message: ")
	if err != nil {
		return err
	}
	payload := domain.Payload{Text: message}
	return followDispatch(cmd, app, "Broadcast to "+target, len(app.manager.Store.Authenticated()), app.dispatchDelay, false,
		func(ctx context.Context, opts application.DispatchOptions) ([]domain.DispatchResult, error) {
			return app.manager.Dispatch.SendFromAll(ctx, target, payload, opts)
		})
}

func menuRemove(cmd *cobra.Command, app *app) error {
	phone, err := ask(cmd, app, "Phone to remove: ")
	if err != nil {
		return err
	}
	if err := app.manager.Store.Remove(cmd.Context(), phone); err != nil {
		return fmt.Errorf("remove %s: %w", phone, err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", phone)
	return err
}
