package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Store the patient's forms for offline use",
	Long: `Fetches every form for the patient from the FHIR server and replaces the
local snapshot, so the list can be browsed later with --offline.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if err := requirePatient(); err != nil {
		return err
	}
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("Synchronising forms for patient %s...\n", patientUUID)
	n, err := svc.Forms.Sync(cmd.Context(), patientUUID, visitUUID)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	cmd.Printf("Stored %d forms.\n", n)
	return nil
}
