package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/casetree-backend/internal/app"
	"github.com/yungbote/casetree-backend/internal/services"
)

var (
	tokenUserID int64
	tokenTTL    time.Duration
)

// tokenCmd signs a bearer token with JWT_SECRET_KEY for local testing.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a bearer token for a user id",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenUserID <= 0 {
			return fmt.Errorf("--user must be a positive id")
		}
		log, cfg, err := app.Bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()
		tok, err := services.NewAuthService(log, cfg.JWTSecretKey, tokenTTL).IssueToken(tokenUserID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Int64Var(&tokenUserID, "user", 0, "user id to put in the token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
}
