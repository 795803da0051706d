package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/config"
)

var rolloverCmd = &cobra.Command{
	Use:   "rollover",
	Short: "Move records of past months into the archive",
	Long: `Move every record outside the current month from the active ledger into
the monthly archive. Running it repeatedly is safe.`,
	Args: cobra.NoArgs,
	RunE: runRollover,
}

func init() {
	rootCmd.AddCommand(rolloverCmd)
}

func runRollover(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()

	a, err := openApp(ctx, cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer a.Close()

	moved, err := a.ledger.Rollover(ctx)
	if err != nil {
		return fmt.Errorf("rollover: %w", err)
	}

	fmt.Printf("Current month: %s\n", a.ledger.CurrentPeriod())
	fmt.Printf("Moved %d records to history\n", moved)
	return nil
}
