package main

import (
	"errors"
	"fmt"

	jwtinfra "github.com/go-auth-flow/internal/infrastructure/jwt"
	"github.com/go-auth-flow/internal/pkg/id"
	"github.com/spf13/cobra"
)

var (
	tokenUserID    string
	tokenSessionID string
	tokenDeviceID  string
	tokenRole      string
)

// token signs an access token with JWT_PRIVATE_KEY_PATH, for driving the
// flow locally without the auth backend's login.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign a development access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenUserID == "" {
			return errors.New("--user is required")
		}
		if cfg.JWTPrivateKeyPath == "" {
			return errors.New("JWT_PRIVATE_KEY_PATH is not set")
		}
		p, err := jwtinfra.NewProvider(cfg)
		if err != nil {
			return err
		}
		if tokenSessionID == "" {
			tokenSessionID = id.New()
		}
		tok, err := p.Sign(tokenUserID, tokenDeviceID, tokenRole, tokenSessionID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user", "", "User id (user_id claim)")
	tokenCmd.Flags().StringVar(&tokenSessionID, "session", "", "Session id; a new ULID when empty")
	tokenCmd.Flags().StringVar(&tokenDeviceID, "device", "", "Device id")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "user", "Role claim")
	rootCmd.AddCommand(tokenCmd)
}
