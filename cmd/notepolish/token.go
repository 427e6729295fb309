package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/notepolish/internal/config"
	"github.com/jonathan/notepolish/internal/db"
	"github.com/jonathan/notepolish/internal/server"
	"github.com/jonathan/notepolish/internal/usage"
)

var (
	tokenUserID string
	tokenEmail  string
	tokenCreate bool
	tokenTier   string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a user",
	Long: "Issues a signed JWT that identifies a caller to the API. Pass --user-id to sign for a known ID, " +
		"or --email to look the user up in the database (with --create to add them).",
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user-id", "", "User ID to sign for")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Look the user up by email (requires DATABASE_URL)")
	tokenCmd.Flags().BoolVar(&tokenCreate, "create", false, "Create the user when --email is not found")
	tokenCmd.Flags().StringVar(&tokenTier, "tier", "", "Set the subscription tier (free or pro)")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	if (tokenUserID == "") == (tokenEmail == "") {
		return errors.New("pass exactly one of --user-id or --email")
	}
	if tokenTier != "" && tokenTier != usage.TierFree && tokenTier != usage.TierPro {
		return fmt.Errorf("invalid tier %q (want %s or %s)", tokenTier, usage.TierFree, usage.TierPro)
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	userID, err := resolveTokenUser(cmd.Context())
	if err != nil {
		return err
	}

	token, err := server.NewJWTService(jwtConfig).GenerateToken(userID)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}

func resolveTokenUser(ctx context.Context) (uuid.UUID, error) {
	if tokenUserID != "" {
		id, err := uuid.Parse(tokenUserID)
		if err != nil || id == uuid.Nil {
			return uuid.Nil, fmt.Errorf("invalid --user-id %q", tokenUserID)
		}
		if tokenTier != "" {
			return uuid.Nil, errors.New("--tier requires --email")
		}
		return id, nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return uuid.Nil, err
	}
	if cfg.Database.URL == "" {
		return uuid.Nil, &config.Error{Message: "--email requires DATABASE_URL"}
	}

	database, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return uuid.Nil, err
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return uuid.Nil, err
	}

	user, err := database.GetUserByEmail(ctx, tokenEmail)
	switch {
	case errors.Is(err, usage.ErrUserNotFound) && tokenCreate:
		user, err = database.CreateUser(ctx, tokenEmail, "", tokenTier)
		if err != nil {
			return uuid.Nil, err
		}
		return user.ID, nil
	case err != nil:
		return uuid.Nil, err
	}

	if tokenTier != "" && tokenTier != user.SubscriptionTier {
		if err := database.SetSubscriptionTier(ctx, user.ID, tokenTier); err != nil {
			return uuid.Nil, err
		}
	}
	return user.ID, nil
}
