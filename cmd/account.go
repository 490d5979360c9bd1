package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	statusadapter "github.com/bnema/telegram-accounts-cli/internal/adapters/render/status"
	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newAccountCmd(state *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	cmd.AddCommand(
		newAccountListCmd(state),
		newAccountRemoveCmd(state),
		newAccountCheckCmd(state),
	)

	return cmd
}

type accountJSON struct {
	Phone           string     `json:"phone"`
	SessionRef      string     `json:"session_ref"`
	SessionKind     string     `json:"session_kind"`
	VerificationURL string     `json:"verification_url,omitempty"`
	DisplayName     string     `json:"display_name,omitempty"`
	Username        string     `json:"username,omitempty"`
	UserID          int64      `json:"user_id,omitempty"`
	Authenticated   bool       `json:"authenticated"`
	LastActive      *time.Time `json:"last_active,omitempty"`
	Live            *bool      `json:"live,omitempty"`
	Health          string     `json:"health,omitempty"`
}

func toAccountJSON(row statusadapter.Row, live *bool) accountJSON {
	account := row.Account
	out := accountJSON{
		Phone:           string(account.Phone),
		SessionRef:      account.SessionRef,
		SessionKind:     string(account.Kind()),
		VerificationURL: account.VerificationURL,
		DisplayName:     account.Profile.DisplayName,
		Username:        account.Profile.Username,
		UserID:          account.Profile.UserID,
		Authenticated:   account.Authenticated,
		Live:            live,
		Health:          string(row.Health),
	}
	if !account.LastActive.IsZero() {
		lastActive := account.LastActive.UTC()
		out.LastActive = &lastActive
	}
	return out
}

func newAccountListCmd(state *session) *cobra.Command {
	var live bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured accounts",
		RunE: state.run(func(cmd *cobra.Command, _ []string, app *app) error {
			var rows []statusadapter.Row
			var liveness []*bool
			if live {
				for _, entry := range app.manager.ListWithLiveness(cmd.Context()) {
					health := domain.HealthOffline
					if entry.Live {
						health = domain.HealthOnline
					}
					rows = append(rows, statusadapter.Row{Account: entry.Account, Health: health})
					isLive := entry.Live
					liveness = append(liveness, &isLive)
				}
			} else {
				for _, account := range app.manager.Store.List() {
					rows = append(rows, statusadapter.Row{Account: account})
					liveness = append(liveness, nil)
				}
			}

			if asJSON {
				out := make([]accountJSON, 0, len(rows))
				for i, row := range rows {
					out = append(out, toAccountJSON(row, liveness[i]))
				}
				return writeJSON(cmd, out)
			}
			return writeAccountRows(cmd, app, rows)
		}),
	}

	cmd.Flags().BoolVar(&live, "live", false, "connect to every account and check its authorization")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print accounts as JSON")
	return cmd
}

func newAccountRemoveCmd(state *session) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <phone>",
		Aliases: []string{"rm", "delete"},
		Short:   "Remove an account and its stored session",
		Args:    cobra.ExactArgs(1),
		RunE: state.run(func(cmd *cobra.Command, args []string, app *app) error {
			if err := app.manager.Store.Remove(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("remove %s: %w", args[0], err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return err
		}),
	}
}

func newAccountCheckCmd(state *session) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check [phone...]",
		Short: "Classify accounts as online, restricted, frozen or offline",
		RunE: state.run(func(cmd *cobra.Command, args []string, app *app) error {
			total := len(args)
			if total == 0 {
				total = len(app.manager.Store.List())
			}
			health, err := runCheck(cmd.Context(), cmd.ErrOrStderr(), total, func(ctx context.Context, out chan<- domain.AccountHealth) ([]domain.AccountHealth, error) {
				return app.manager.Status.Check(ctx, args, out)
			})
			if err != nil {
				return err
			}

			rows := make([]statusadapter.Row, 0, len(health))
			for _, h := range health {
				account, ok := app.manager.Store.Get(string(h.Phone))
				if !ok {
					account = domain.Account{Phone: h.Phone}
				}
				rows = append(rows, statusadapter.Row{Account: account, Health: h.Health, Detail: h.Detail})
			}

			if asJSON {
				out := make([]accountJSON, 0, len(rows))
				for _, row := range rows {
					out = append(out, toAccountJSON(row, nil))
				}
				return writeJSON(cmd, out)
			}
			return writeAccountRows(cmd, app, rows)
		}),
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print health as JSON")
	return cmd
}

func writeAccountRows(cmd *cobra.Command, app *app, rows []statusadapter.Row) error {
	rendered, err := app.statusRenderer(rows, statusadapter.RenderOptions{
		Now:        app.now(),
		StaleAfter: staleAfter,
	})
	if err != nil {
		return fmt.Errorf("render accounts: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func writeJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
