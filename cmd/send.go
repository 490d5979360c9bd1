package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/telegram-accounts-cli/internal/adapters/plan"
	"github.com/bnema/telegram-accounts-cli/internal/application"
	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/spf13/cobra"
)

var errQuickSendFile = errors.New("--url logs in and sends text only; drop --file")

type payloadFlags struct {
	message string
	file    string
	voice   bool
	delay   time.Duration
}

func (f *payloadFlags) register(cmd *cobra.Command, withDelay bool) {
	flags := cmd.Flags()
	flags.StringVarP(&f.message, "message", "m", "", "message text (caption when --file is set)")
	flags.StringVar(&f.file, "file", "", "path of a file to send instead of plain text")
	flags.BoolVar(&f.voice, "voice", false, "send --file as a voice note")
	if withDelay {
		flags.DurationVar(&f.delay, "delay", 0, "pause between consecutive sends (default dispatch.delay)")
	}
}

func (f *payloadFlags) payload() domain.Payload {
	return domain.Payload{Text: f.message, FilePath: strings.TrimSpace(f.file), Voice: f.voice}
}

// delayFor returns --delay when given, otherwise the configured default.
func (f *payloadFlags) delayFor(cmd *cobra.Command, app *app) time.Duration {
	if cmd.Flags().Changed("delay") && f.delay >= 0 {
		return f.delay
	}
	return app.dispatchDelay
}

func newSendCmd(state *session) *cobra.Command {
	var flags payloadFlags
	var url string

	cmd := &cobra.Command{
		Use:   "send <phone> <target> [message...]",
		Short: "Send one message from one account",
		Long:  "Send one message from one account. With --url the account is logged in first (the code is fetched from the URL) and the text is sent right after.",
		Args:  cobra.MinimumNArgs(2),
		RunE: state.run(func(cmd *cobra.Command, args []string, app *app) error {
			if len(args) > 2 {
				flags.message = strings.Join(args[2:], " ")
			}

			var result domain.DispatchResult
			if url != "" {
				if flags.file != "" {
					return errQuickSendFile
				}
				observeLogin(cmd, app)
				result = app.manager.QuickSend(cmd.Context(), args[0], args[1], flags.message, url)
			} else {
				result = app.manager.Dispatch.SendFromAccount(cmd.Context(), args[0], args[1], flags.payload())
			}
			return writeOutcome(cmd, result.Outcome)
		}),
	}

	flags.register(cmd, false)
	cmd.Flags().StringVar(&url, "url", "", "log in first, fetching the code from this verification URL")

	cmd.AddCommand(
		newSendBroadcastCmd(state),
		newSendMultiCmd(state),
		newSendBatchCmd(state),
		newSendRoundRobinCmd(state),
	)
	return cmd
}

func newSendBroadcastCmd(state *session) *cobra.Command {
	var flags payloadFlags

	cmd := &cobra.Command{
		Use:   "broadcast <target>",
		Short: "Send the same message to one target from every logged-in account",
		Args:  cobra.ExactArgs(1),
		RunE: state.run(func(cmd *cobra.Command, args []string, app *app) error {
			target := args[0]
			total := len(app.manager.Store.Authenticated())
			if app.manager.Dispatch.Policy == domain.BroadcastPolicyLive {
				total = app.manager.Store.Len()
			}
			return runDispatch(cmd, app, "Broadcast to "+target, total, flags.delayFor(cmd, app),
				func(ctx context.Context, opts application.DispatchOptions) ([]domain.DispatchResult, error) {
					return app.manager.Dispatch.SendFromAll(ctx, target, flags.payload(), opts)
				})
		}),
	}

	flags.register(cmd, true)
	return cmd
}

func newSendMultiCmd(state *session) *cobra.Command {
	var flags payloadFlags
	var targets []string

	cmd := &cobra.Command{
		Use:   "multi <phone> [target...]",
		Short: "Send one message from one account to many targets",
		Args:  cobra.MinimumNArgs(1),
		RunE: state.run(func(cmd *cobra.Command, args []string, app *app) error {
			phone := args[0]
			all := append(append([]string{}, args[1:]...), targets...)
			return runDispatch(cmd, app, "Send from "+phone, len(domain.NormalizeTargets(all)), flags.delayFor(cmd, app),
				func(ctx context.Context, opts application.DispatchOptions) ([]domain.DispatchResult, error) {
					return app.manager.Dispatch.SendToMultiple(ctx, phone, all, flags.payload(), opts)
				})
		}),
	}

	flags.register(cmd, true)
	cmd.Flags().StringSliceVar(&targets, "targets", nil, "comma-separated targets")
	return cmd
}

func newSendBatchCmd(state *session) *cobra.Command {
	var flags payloadFlags
	var planPath string

	cmd := &cobra.Command{
		Use:   "batch --plan <file.yaml>",
		Short: "Send from several accounts following an assignment plan",
		Args:  cobra.NoArgs,
		RunE: state.run(func(cmd *cobra.Command, _ []string, app *app) error {
			loaded, err := plan.Load(planPath)
			if err != nil {
				return err
			}

			payload := loaded.Payload
			if cmd.Flags().Changed("message") {
				payload.Text = flags.message
			}
			if cmd.Flags().Changed("file") {
				payload.FilePath = strings.TrimSpace(flags.file)
			}
			if cmd.Flags().Changed("voice") {
				payload.Voice = flags.voice
			}
			delay := flags.delayFor(cmd, app)
			if loaded.HasDelay && !cmd.Flags().Changed("delay") {
				delay = loaded.Delay
			}

			total := 0
			for _, assignment := range loaded.Assignments {
				total += len(domain.NormalizeTargets(assignment.Targets))
			}
			return runDispatch(cmd, app, "Batch send", total, delay,
				func(ctx context.Context, opts application.DispatchOptions) ([]domain.DispatchResult, error) {
					return app.manager.Dispatch.BatchSend(ctx, loaded.Assignments, payload, opts)
				})
		}),
	}

	flags.register(cmd, true)
	cmd.Flags().StringVar(&planPath, "plan", "", "YAML plan file with message and assignments")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func newSendRoundRobinCmd(state *session) *cobra.Command {
	var flags payloadFlags
	var accounts []string
	var targets []string
	var targetsFile string

	cmd := &cobra.Command{
		Use:   "round-robin",
		Short: "Spread targets over accounts: target i goes to account i mod n",
		Args:  cobra.NoArgs,
		RunE: state.run(func(cmd *cobra.Command, _ []string, app *app) error {
			all, err := collectTargets(cmd, targets, targetsFile)
			if err != nil {
				return err
			}
			return runDispatch(cmd, app, "Round-robin send", len(all), flags.delayFor(cmd, app),
				func(ctx context.Context, opts application.DispatchOptions) ([]domain.DispatchResult, error) {
					return app.manager.Dispatch.RoundRobin(ctx, accounts, all, flags.payload(), opts)
				})
		}),
	}

	flags.register(cmd, true)
	cmd.Flags().StringSliceVar(&accounts, "accounts", nil, "comma-separated account phones, in rotation order")
	cmd.Flags().StringSliceVar(&targets, "targets", nil, "comma-separated targets (@handles are accepted)")
	cmd.Flags().StringVar(&targetsFile, "targets-file", "", "file with one target per line")
	return cmd
}

// collectTargets merges --targets with the non-comment lines of --targets-file.
func collectTargets(cmd *cobra.Command, targets []string, path string) ([]string, error) {
	all := append([]string{}, targets...)
	if path == "" {
		return all, nil
	}
	lines, err := readLines(cmd, path)
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		all = append(all, line)
	}
	return all, nil
}
