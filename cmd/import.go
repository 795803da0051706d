package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/jsonfile"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a data directory written by an older release",
	Long: `Import users.json, attendance.json, monthly_attendance.json and
location_settings.json from a data directory into the configured backend.
Timestamps without a zone offset are read in the configured TIMEZONE.`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("from", "", "Data directory to import (required)")
	importCmd.Flags().Bool("force", false, "Replace data already present in the backend")
	importCmd.Flags().Bool("dry-run", false, "Read and validate the directory without writing")
	_ = importCmd.MarkFlagRequired("from")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()
	from := mustGetString(cmd, "from")

	snap, err := jsonfile.ReadLegacy(from, cfg.Ledger.Location())
	if err != nil {
		return fmt.Errorf("reading %s: %w", from, err)
	}
	fmt.Printf("Found %d users, %d active records, %d archived records in %d months\n",
		len(snap.Identities), len(snap.Active), snap.Archive.Total(), len(snap.Archive))

	if mustGetBool(cmd, "dry-run") {
		fmt.Println("[DRY-RUN] Nothing written")
		return nil
	}

	backend, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer backend.Close()

	if !mustGetBool(cmd, "force") {
		existing, err := backend.LoadIdentities(ctx)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return errors.New("backend already holds users, use --force to replace them")
		}
	}

	return importSnapshot(ctx, backend, snap)
}

type importStep struct {
	name  string
	count int
	save  func() error
}

// importSnapshot writes every document of snap, advancing a progress bar by
// the number of records each document holds.
func importSnapshot(ctx context.Context, backend database.Backend, snap *jsonfile.Snapshot) error {
	bar := progressbar.NewOptions(snap.Count(),
		progressbar.OptionSetDescription("Importing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("records"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	steps := []importStep{
		{database.DocumentIdentities, len(snap.Identities), func() error { return backend.SaveIdentities(ctx, snap.Identities) }},
		{database.DocumentActive, len(snap.Active), func() error { return backend.SaveActive(ctx, snap.Active) }},
		{database.DocumentArchive, snap.Archive.Total(), func() error { return backend.SaveArchive(ctx, snap.Archive) }},
	}
	if snap.Policy != nil {
		steps = append(steps, importStep{database.DocumentPolicy, 1, func() error { return backend.SavePolicy(ctx, *snap.Policy) }})
	}

	for _, step := range steps {
		if err := step.save(); err != nil {
			return fmt.Errorf("saving %s: %w", step.name, err)
		}
		bar.Add(step.count)
	}
	bar.Finish()

	fmt.Printf("\nImported %d records into %s storage\n", snap.Count(), backend.Name())
	return nil
}
