package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/quotekit/internal/account"
	"github.com/dmitrymomot/quotekit/internal/auth"
	"github.com/dmitrymomot/quotekit/internal/config"
)

var errMissingEmail = errors.New("--email is required")

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for local testing",
	Long:  `Signs an identity token with AUTH_JWT_SECRET. A random user id is generated when --user-id is omitted.`,
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().String("user-id", "", "user id (uuid)")
	tokenCmd.Flags().String("email", "", "user email")
	tokenCmd.Flags().String("name", "", "display name")
	tokenCmd.Flags().String("role", string(account.RoleUser), "user or admin")
}

func runToken(cmd *cobra.Command, _ []string) error {
	config.LoadDotEnv()

	var cfg config.Auth
	if err := config.ParseInto(&cfg); err != nil {
		return err
	}

	flags := cmd.Flags()
	rawID, _ := flags.GetString("user-id")
	email, _ := flags.GetString("email")
	name, _ := flags.GetString("name")
	role, _ := flags.GetString("role")

	if email == "" {
		return errMissingEmail
	}
	id := uuid.New()
	if rawID != "" {
		parsed, err := uuid.Parse(rawID)
		if err != nil {
			return fmt.Errorf("invalid --user-id: %w", err)
		}
		id = parsed
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	token, err := issuer.Mint(auth.Identity{
		UserID: id,
		Email:  email,
		Name:   name,
		Role:   account.ParseRole(role),
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
