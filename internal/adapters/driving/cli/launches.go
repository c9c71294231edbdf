package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var launchesLimit int

var launchesCmd = &cobra.Command{
	Use:   "launches",
	Short: "Show recently opened forms",
	Long: `Lists the forms most recently opened from patientforms, newest first.
Without --patient, launches for every patient are shown.`,
	Args: cobra.NoArgs,
	RunE: runLaunches,
}

func init() {
	launchesCmd.Flags().IntVarP(&launchesLimit, "limit", "n", 20, "maximum number of launches")
	rootCmd.AddCommand(launchesCmd)
}

func runLaunches(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}

	records, err := svc.Actions.History(cmd.Context(), patientUUID, launchesLimit)
	if err != nil {
		return fmt.Errorf("history failed: %w", err)
	}
	if len(records) == 0 {
		cmd.Println("No forms opened yet.")
		return nil
	}

	for _, r := range records {
		name := r.FormName
		if name == "" {
			name = r.FormUUID
		}
		cmd.Printf("%s  %-30s patient %s", r.LaunchedAt.Local().Format("2006-01-02 15:04"), name, r.PatientUUID)
		if r.EncounterUUID != "" {
			cmd.Printf("  encounter %s", r.EncounterUUID)
		}
		cmd.Println()
	}
	return nil
}
