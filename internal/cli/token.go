package cli

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"quiz-attempt-service/internal/auth"
	"quiz-attempt-service/internal/config"
)

// NewTokenCmd mints a bearer token signed with the configured secret, for local testing.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		id  auth.Identity
		ttl time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not configured")
			}
			if id.UserID == "" {
				return errors.New("--user is required")
			}
			raw, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.Issuer).Issue(id, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), raw)
			return err
		},
	}
	cmd.Flags().StringVar(&id.UserID, "user", "", "user id (token subject)")
	cmd.Flags().StringVar(&id.Email, "email", "", "user email")
	cmd.Flags().StringSliceVar(&id.Roles, "role", nil, "role claims, repeatable")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
