// Package cli is the command-line adapter: a cobra command tree over the
// application service.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"billing-service/internal/app"
	"billing-service/internal/config"
	"billing-service/internal/logger"

	"github.com/spf13/cobra"
)

var version = "dev"

// Execute runs the command tree against os.Args and returns the process exit
// code.
func Execute(ctx context.Context) int {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand builds the full command tree. Configuration is loaded once,
// before any subcommand runs.
func NewRootCommand() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:           "billing",
		Short:         "Invoices, quotes and expenses with offline-tolerant sync",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logger.New(logger.Config{
				Level:      cfg.LogLevel,
				Format:     cfg.LogFormat,
				OutputPath: cfg.LogOutput,
			})
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			rt.cfg = cfg
			rt.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			rt.close()
		},
	}
	root.PersistentFlags().StringVar(&rt.account, "account", os.Getenv("BILLING_ACCOUNT"), "account id the command acts for")

	root.AddCommand(
		newServeCommand(rt),
		newMigrateCommand(rt),
		newTotalsCommand(rt),
		newDocumentsCommand(rt),
		newExportCommand(rt),
		newTokenCommand(rt),
	)
	return root
}

// requireAccount fails commands that act on an account's data without one.
func (rt *runtime) requireAccount() error {
	if rt.account == "" {
		return fmt.Errorf("--account (or BILLING_ACCOUNT) is required")
	}
	return nil
}

// serviceWithStore opens storage when it is configured and returns the service.
// Without DATABASE_URL the service still runs and reports storage as locked.
func (rt *runtime) serviceWithStore(ctx context.Context) (app.ApplicationService, error) {
	if rt.cfg.DatabaseURL != "" {
		if err := rt.openStore(ctx); err != nil {
			return nil, err
		}
	}
	return rt.service(ctx)
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
