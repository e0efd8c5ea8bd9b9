package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/financing-wizard/internal/server"
	"github.com/iwvelando/financing-wizard/internal/storage"
	"github.com/iwvelando/financing-wizard/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the configured storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			if conf.Storage.Driver == constants.StorageDriverMemory {
				logger.Info("memory storage has no schema to migrate", zap.String("op", "main.migrate"))
				return nil
			}

			storageConfig := conf.Storage
			storageConfig.Migrate = true
			store, err := storage.Open(cmd.Context(), storageConfig, logger)
			if err != nil {
				return fmt.Errorf("failed to migrate storage: %w", err)
			}
			logger.Info("storage migrated",
				zap.String("op", "main.migrate"),
				zap.String("driver", storageConfig.Driver),
			)
			return store.Close()
		},
	}
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [PASSWORD]",
		Short: "Print the bcrypt hash for the admin password (reads stdin when no argument is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password cannot be empty")
			}

			hash, err := server.HashPassword(password)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
