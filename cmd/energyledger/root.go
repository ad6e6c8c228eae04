package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type demoFlags struct {
	difficulty  int
	workers     int
	rounds      int
	maxAttempts uint64
	export      string
	quiet       bool
}

var flags demoFlags

var rootCmd = &cobra.Command{
	Use:   "energyledger",
	Short: "Proof-of-work ledger for peer-to-peer energy trading",
	Long: `energyledger runs a scripted trading demo on a local blockchain.

Solar panels and forecast models publish production estimates as sell
offers, consumers bid for energy, and every round the matching engine
pairs offers and mines the settled trades into a new block. After each
round the chain is re-verified, and the final report shows the recorded
history together with every participant's balance.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDemo()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().IntVar(&flags.difficulty, "difficulty", 2, "leading zero hex digits required of every block hash")
	rootCmd.Flags().IntVar(&flags.workers, "workers", 1, "goroutines racing on each nonce search")
	rootCmd.Flags().IntVar(&flags.rounds, "rounds", 3, "trading rounds to run")
	rootCmd.Flags().Uint64Var(&flags.maxAttempts, "max-attempts", 0, "cap on nonces tried per block, 0 means no cap")
	rootCmd.Flags().StringVar(&flags.export, "export", "", "write a JSON snapshot of the chain to this file")
	rootCmd.Flags().BoolVar(&flags.quiet, "quiet", false, "suppress the banner and per-round panels")
}
