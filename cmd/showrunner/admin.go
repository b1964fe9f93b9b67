package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/showrunner/internal/auth"
	"github.com/me/showrunner/internal/config"
	"github.com/me/showrunner/internal/logging"
	"github.com/me/showrunner/pkg/model"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagEnvFile, cmd.Flags())
			if err != nil {
				return err
			}
			logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
			st, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			return st.Close()
		},
	}
}

func newCreateAdminCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account, or promote an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return fmt.Errorf("--username is required")
			}
			cfg, err := config.Load(flagEnvFile, cmd.Flags())
			if err != nil {
				return err
			}
			logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
			ctx := cmd.Context()

			st, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()
			authSvc, err := newAuthService(cfg, st, logger)
			if err != nil {
				return err
			}

			u, err := ensureAdmin(ctx, authSvc, username, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is an admin\n", u.Username, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Account username")
	cmd.Flags().StringVar(&email, "email", "", "Email, required when the account does not exist")
	cmd.Flags().StringVar(&password, "password", "", "Password, required when the account does not exist")
	return cmd
}

// ensureAdmin promotes username, registering it first when it does not exist.
func ensureAdmin(ctx context.Context, svc *auth.Service, username, email, password string) (*model.User, error) {
	u, err := svc.GetUserByUsername(ctx, username)
	switch {
	case auth.Is(err, auth.CodeNotFound):
		u, err = svc.Register(ctx, auth.Registration{Username: username, Email: email, Password: password})
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}
	if u.IsAdmin() {
		return u, nil
	}
	return svc.SetRole(ctx, u.ID, model.RoleAdmin)
}
