package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"pollogram/backend/internal/app"
	"pollogram/backend/internal/config"
	"pollogram/backend/internal/logger"
)

type rootOptions struct {
	app *app.Cached
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "ctl",
		Short:         "Operate the pollogram auth backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log := logger.Init(logger.Options{Level: "warn"})
			opts.app = app.NewCached(config.Load, log)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.app == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return opts.app.Close(ctx)
		},
	}
	cmd.AddCommand(
		newMigrateCommand(),
		newSessionsCommand(opts),
		newUsersCommand(opts),
	)
	return cmd
}
