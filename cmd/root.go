package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

var errOperationFailed = errors.New("one or more operations failed")

func Execute() error {
	return ExecuteContext(context.Background())
}

func ExecuteContext(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// session wires the application on first use so that commands which never
// touch accounts (version, help) work without a readable config.
type session struct {
	configFile string
	logLevel   string
	app        *app
}

func (s *session) get(cmd *cobra.Command) (*app, error) {
	if s.app != nil {
		return s.app, nil
	}
	cfg, err := loadConfig(s.configFile)
	if err != nil {
		return nil, err
	}
	if s.logLevel != "" {
		cfg.Set(keyLogLevel, s.logLevel)
	}
	a, err := wireApp(cmd.Context(), cfg, cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	s.app = a
	return a, nil
}

// run wires the app, invokes fn and releases every connection afterwards.
func (s *session) run(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := s.get(cmd)
		if err != nil {
			return err
		}
		defer s.close()
		return fn(cmd, args, a)
	}
}

func (s *session) close() {
	if s.app != nil {
		s.app.close()
		s.app = nil
	}
}

func newRootCmd() *cobra.Command {
	state := &session{}

	rootCmd := &cobra.Command{
		Use:           "tga",
		Short:         "Telegram Accounts CLI (tga): log in many accounts and send from them",
		Long:          "tga manages a registry of Telegram user accounts: log in with codes scraped from verification URLs, import Telegram Desktop sessions, check account health and dispatch messages by broadcast, fan-out, plan or round-robin.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&state.configFile, "config", "", "config file (default ~/.tga/config.toml)")
	rootCmd.PersistentFlags().StringVar(&state.logLevel, "log-level", "", "log level: trace, debug, info, warn, error, off")

	rootCmd.AddCommand(
		newVersionCmd(),
		newAccountCmd(state),
		newLoginCmd(state),
		newImportCmd(state),
		newSendCmd(state),
		newVerifyCmd(state),
		newScheduleCmd(state),
		newMenuCmd(state),
	)

	return rootCmd
}
