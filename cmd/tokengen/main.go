// Command tokengen mints bearer tokens and server seed commitments for
// local testing against the API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"casino-engine/internal/config"
	"casino-engine/internal/fairness"
	"casino-engine/internal/models"
	"casino-engine/internal/services"
)

var rootCmd = &cobra.Command{
	Use:   "tokengen",
	Short: "Casino engine developer tools",
}

var tokenCmd = &cobra.Command{
	Use:   "token [subject]",
	Short: "Sign a JWT for subject with the configured secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ttl, err := cmd.Flags().GetDuration("ttl")
		if err != nil {
			return err
		}
		if ttl > 0 {
			cfg.JWTTTL = ttl
		}

		token, err := services.NewJWTService(cfg).GenerateToken(args[0])
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate a server seed and its commitment hash",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := cmd.Flags().GetInt("bytes")
		if err != nil {
			return err
		}
		seed, err := models.GenerateSeed(n)
		if err != nil {
			return err
		}
		fmt.Printf("server_seed=%s\nserver_seed_hash=%s\n", seed, fairness.HashSeed(seed))
		return nil
	},
}

func init() {
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime, defaults to JWT_TTL")
	seedCmd.Flags().Int("bytes", 32, "random bytes in the seed")

	rootCmd.AddCommand(tokenCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
