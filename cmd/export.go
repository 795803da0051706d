package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/renameio"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a month of attendance to an xlsx workbook",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("month", "", "Month to export as YYYY-MM (default: current month)")
	exportCmd.Flags().String("out", "", "Output file (default: absensi_<month>.xlsx)")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, config.Load(), zap.NewNop())
	if err != nil {
		return err
	}
	defer a.Close()

	month := mustGetString(cmd, "month")
	if month == "" {
		month = a.ledger.CurrentPeriod()
	}
	out := mustGetString(cmd, "out")
	if out == "" {
		out = export.FileName(month)
	}

	events, err := a.ledger.PeriodEvents(month)
	if err != nil {
		return err
	}

	f, err := renameio.TempFile("", out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	defer f.Cleanup()

	if err := export.Write(f, month, events); err != nil {
		return err
	}
	if err := f.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	if err := os.Chmod(out, 0o644); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", out, err)
	}

	fmt.Printf("Exported %d records for %s to %s\n", len(events), month, out)
	return nil
}
