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

var errScheduleMode = errors.New("choose exactly one of --broadcast, --plan or --accounts with --targets")

type scheduleOptions struct {
	spec      string
	timezone  string
	broadcast string
	planPath  string
	accounts  []string
	targets   []string
	payload   payloadFlags
}

func newScheduleCmd(state *session) *cobra.Command {
	var opts scheduleOptions

	cmd := &cobra.Command{
		Use:   "schedule --cron <spec>",
		Short: "Repeat a dispatch on a cron schedule until interrupted",
		Long:  "Repeat a broadcast, plan or round-robin dispatch on a cron schedule (standard 5 fields, optional seconds, or descriptors like @hourly). Runs until interrupted; an overlapping tick is skipped.",
		Args:  cobra.NoArgs,
		RunE: state.run(func(cmd *cobra.Command, _ []string, app *app) error {
			job, err := opts.job(cmd, app)
			if err != nil {
				return err
			}

			loc := time.Local
			if opts.timezone != "" {
				loc, err = time.LoadLocation(opts.timezone)
				if err != nil {
					return fmt.Errorf("load timezone: %w", err)
				}
			}

			scheduler := application.NewScheduler(loc, app.logger)
			if err := scheduler.Add("dispatch", opts.spec, job); err != nil {
				return err
			}
			for _, entry := range scheduler.Entries() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "scheduled %s (%s), next run %s\n", entry.Name, entry.Spec, entry.Next.Format(time.RFC3339))
			}
			return scheduler.Run(cmd.Context())
		}),
	}

	opts.payload.register(cmd, true)
	cmd.Flags().StringVar(&opts.spec, "cron", "", "cron spec, e.g. \"0 9 * * *\" or @every 1h")
	cmd.Flags().StringVar(&opts.timezone, "timezone", "", "IANA time zone the cron expression is evaluated in (default local)")
	cmd.Flags().StringVar(&opts.broadcast, "broadcast", "", "broadcast to this target from every logged-in account")
	cmd.Flags().StringVar(&opts.planPath, "plan", "", "YAML assignment plan")
	cmd.Flags().StringSliceVar(&opts.accounts, "accounts", nil, "round-robin accounts")
	cmd.Flags().StringSliceVar(&opts.targets, "targets", nil, "round-robin targets")
	_ = cmd.MarkFlagRequired("cron")
	return cmd
}

// job validates the selected mode up front and returns the per-tick dispatch.
func (o *scheduleOptions) job(cmd *cobra.Command, app *app) (application.ScheduledJob, error) {
	modes := 0
	for _, set := range []bool{o.broadcast != "", o.planPath != "", len(o.accounts) > 0 || len(o.targets) > 0} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		return nil, errScheduleMode
	}

	delay := o.payload.delayFor(cmd, app)
	payload := o.payload.payload()

	var dispatch func(ctx context.Context, opts application.DispatchOptions) ([]domain.DispatchResult, error)
	switch {
	case o.broadcast != "":
		if err := payload.Validate(); err != nil {
			return nil, err
		}
		target := strings.TrimSpace(o.broadcast)
		dispatch = func(ctx context.Context, opts application.DispatchOptions) ([]domain.DispatchResult, error) {
			return app.manager.Dispatch.SendFromAll(ctx, target, payload, opts)
		}
	case o.planPath != "":
		loaded, err := plan.Load(o.planPath)
		if err != nil {
			return nil, err
		}
		if o.payload.message != "" || o.payload.file != "" {
			payload = o.payload.payload()
		} else {
			payload = loaded.Payload
		}
		if err := payload.Validate(); err != nil {
			return nil, err
		}
		if loaded.HasDelay && !cmd.Flags().Changed("delay") {
			delay = loaded.Delay
		}
		dispatch = func(ctx context.Context, opts application.DispatchOptions) ([]domain.DispatchResult, error) {
			return app.manager.Dispatch.BatchSend(ctx, loaded.Assignments, payload, opts)
		}
	default:
		if len(o.accounts) == 0 {
			return nil, domain.ErrNoAccountsSelected
		}
		if len(o.targets) == 0 {
			return nil, domain.ErrNoTargets
		}
		if err := payload.Validate(); err != nil {
			return nil, err
		}
		dispatch = func(ctx context.Context, opts application.DispatchOptions) ([]domain.DispatchResult, error) {
			return app.manager.Dispatch.RoundRobin(ctx, o.accounts, o.targets, payload, opts)
		}
	}

	out := cmd.OutOrStdout()
	return func(ctx context.Context, runID string) {
		results, err := dispatch(ctx, application.DispatchOptions{Delay: delay, RunID: runID})
		if err != nil {
			app.logger.Error().Err(err).Str("run", runID).Msg("scheduled dispatch failed")
			return
		}
		_, _ = fmt.Fprintf(out, "%s %s\n", time.Now().Format(time.RFC3339), application.Summary(results))
	}, nil
}
