package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	// Storage backends register themselves with the database package.
	_ "github.com/kozaktomas/face-attendance/internal/database/jsonfile"
	_ "github.com/kozaktomas/face-attendance/internal/database/postgres"
)

var rootCmd = &cobra.Command{
	Use:   "face-attendance",
	Short: "Face recognition attendance tracking",
	Long: `Face Attendance records attendance by recognizing registered faces.
It serves a kiosk and admin HTTP API, keeps a month-partitioned attendance
ledger and exports monthly spreadsheets.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
