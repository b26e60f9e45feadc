package main

import (
	"fmt"
	"time"

	"github.com/Madhav-Gupta-28/olist-insights/utils"
	"github.com/spf13/cobra"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token [subject]",
	Short: "Mint a bearer token for the HTTP API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := utils.GenerateJWT(args[0], cfg.JWTSecret, tokenTTL)
		if err != nil {
			return fmt.Errorf("JWT_SECRET must be set to mint tokens: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
}
