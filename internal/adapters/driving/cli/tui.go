package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui"
	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/views/forms"
	"github.com/custodia-labs/patientforms/internal/logger"
)

// logFile is the TUI log file name, kept next to the config file.
const logFile = "patientforms.log"

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive forms list",
	Long: `Launch the interactive list of the patient's forms.

Controls:
  /        - Filter forms by name
  ↑/k, ↓/j - Navigate
  Enter    - Open the selected form
  r        - Reload
  h        - Recently opened forms
  ?        - Help
  q        - Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	if err := requirePatient(); err != nil {
		return err
	}
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}

	// Logging to the terminal would corrupt the alt screen.
	if svc.Config != nil {
		restore, logErr := logger.ToFile(filepath.Join(filepath.Dir(svc.Config.Path()), logFile))
		if logErr == nil {
			defer restore() //nolint:errcheck // best effort on exit
		}
	}

	ports := tui.NewPorts(svc.Forms, svc.Actions, svc.Locale)
	app, err := tui.NewApp(ports, forms.Config{
		PatientUUID: patientUUID,
		VisitUUID:   visitUUID,
		Offline:     offline,
		Settings:    svc.Settings,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
