package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pollogram/backend/internal/app"
	"pollogram/backend/internal/identity/service"
	sessiondomain "pollogram/backend/internal/session/domain"
	userdomain "pollogram/backend/internal/user/domain"
)

func newUsersCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "User administration",
	}
	cmd.AddCommand(newSetRoleCommand(opts), newSeedAdminCommand(opts))
	return cmd
}

func newSetRoleCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <user-id> <USER|MANAGER|ADMIN>",
		Short: "Change a user's role and invalidate their outstanding access tokens",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := userdomain.Role(strings.ToUpper(args[1]))
			if !role.Valid() {
				return fmt.Errorf("unknown role %q", args[1])
			}
			a, err := opts.app.Get(cmd.Context())
			if err != nil {
				return err
			}
			if err := setRole(cmd.Context(), a, args[0], role); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s is now %s\n", args[0], role)
			return nil
		},
	}
}

func newSeedAdminCommand(opts *rootOptions) *cobra.Command {
	var email, username, password string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an ADMIN user (prompts for the password when --password is omitted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := readPassword(cmd)
				if err != nil {
					return err
				}
				password = p
			}
			a, err := opts.app.Get(cmd.Context())
			if err != nil {
				return err
			}
			res, err := a.Auth.SignUp(cmd.Context(), service.SignUpInput{
				Email:    email,
				Username: username,
				Password: password,
			}, sessiondomain.Metadata{UserAgent: "ctl", IPAddress: "local"})
			if err != nil {
				return err
			}
			if err := setRole(cmd.Context(), a, res.User.ID, userdomain.RoleAdmin); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (id=%s)\n", res.User.Email, res.User.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&username, "username", "admin", "admin username")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func setRole(ctx context.Context, a *app.App, userID string, role userdomain.Role) error {
	ok, err := a.Users.UpdateRole(ctx, userID, role)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %s not found", userID)
	}
	if a.Revocations != nil {
		if err := a.Revocations.MarkRevoked(ctx, userID, time.Now()); err != nil {
			return fmt.Errorf("role updated but token watermark failed: %w", err)
		}
	}
	return nil
}

func readPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--password is required when stdin is not a terminal")
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", err
	}
	return string(b), nil
}
