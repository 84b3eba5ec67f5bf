package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-auth-flow/internal/infrastructure/dynamo"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and reset stored flow sessions",
}

func flowRepo(ctx context.Context) (*dynamo.FlowRepo, error) {
	client, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return dynamo.NewFlowRepo(client, cfg.DynamoTables.AuthFlows), nil
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a flow session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		repo, err := flowRepo(ctx)
		if err != nil {
			return err
		}
		sess, err := repo.Get(ctx, args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(sess)
	},
}

// session reset drops the stored state so the next request starts the flow
// over from the user's current contact details.
var sessionResetCmd = &cobra.Command{
	Use:   "reset <session-id>",
	Short: "Delete a flow session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == "" {
			return errors.New("empty session id")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		repo, err := flowRepo(ctx)
		if err != nil {
			return err
		}
		return repo.Delete(ctx, args[0])
	},
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the flow-session table if missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return err
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionShowCmd, sessionResetCmd)
	rootCmd.AddCommand(sessionCmd, bootstrapCmd)
}
