// Package cli provides the patientforms command line interface.
// It implements a driving adapter following hexagonal architecture principles.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/core/ports/driven"
	"github.com/custodia-labs/patientforms/internal/core/ports/driving"
	"github.com/custodia-labs/patientforms/internal/logger"
)

// version is set at build time.
var version = "dev"

// ErrPatientRequired is returned by commands that need --patient.
var ErrPatientRequired = errors.New("--patient is required")

// errNotConfigured is returned when no service builder was registered.
var errNotConfigured = errors.New("services not configured")

// Services holds everything the commands need. It is built once per run.
type Services struct {
	Forms    driving.FormService
	Actions  driving.FormActionService
	Locale   driven.LocaleSource
	Config   driven.ConfigStore
	Settings domain.Settings

	// Close releases stores and watchers. Optional.
	Close func() error
}

// Builder creates the services from the config file at configPath.
// An empty configPath selects the default location.
type Builder func(ctx context.Context, configPath string) (*Services, error)

var (
	builder  Builder
	services *Services

	verbose     bool
	configPath  string
	patientUUID string
	visitUUID   string
	offline     bool

	// isTerminal reports whether stdout is an interactive terminal.
	isTerminal = func() bool {
		return term.IsTerminal(int(os.Stdout.Fd()))
	}
)

var rootCmd = &cobra.Command{
	Use:   "patientforms",
	Short: "Browse and open a patient's clinical forms",
	Long: `patientforms lists the clinical forms available for a patient, with the
date each was last completed, and opens them for data entry.

Run without a subcommand to start the interactive list on a terminal, or to
print the list when output is redirected.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	RunE: runRoot,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&configPath, "config", "", "config file (default ~/.patientforms/config.toml)")
	flags.StringVarP(&patientUUID, "patient", "p", "", "patient UUID")
	flags.StringVar(&visitUUID, "visit", "", "visit UUID to scope encounters to")
	flags.BoolVar(&offline, "offline", false, "read forms from the local snapshot")
}

// SetBuilder registers the function that creates services.
func SetBuilder(b Builder) {
	builder = b
	services = nil
}

// Execute runs the root command and releases services afterwards.
func Execute(ctx context.Context) error {
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

func runRoot(cmd *cobra.Command, args []string) error {
	if isTerminal() {
		return runTUI(cmd, args)
	}
	return runList(cmd, args)
}

// loadServices builds the services on first use.
func loadServices(ctx context.Context) (*Services, error) {
	if services != nil {
		return services, nil
	}
	if builder == nil {
		return nil, errNotConfigured
	}
	s, err := builder(ctx, configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	services = s
	return services, nil
}

func closeServices() {
	if services == nil || services.Close == nil {
		services = nil
		return
	}
	if err := services.Close(); err != nil {
		logger.Warn("Failed to close services: %v", err)
	}
	services = nil
}

func requirePatient() error {
	if patientUUID == "" {
		return ErrPatientRequired
	}
	return nil
}
