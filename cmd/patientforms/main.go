// Command patientforms lists a patient's clinical forms and opens them for
// data entry.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/patientforms/internal/adapters/driven/config/file"
	"github.com/custodia-labs/patientforms/internal/adapters/driven/fhir"
	"github.com/custodia-labs/patientforms/internal/adapters/driven/launcher"
	"github.com/custodia-labs/patientforms/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/patientforms/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/patientforms/internal/adapters/driving/cli"
	"github.com/custodia-labs/patientforms/internal/core/ports/driven"
	"github.com/custodia-labs/patientforms/internal/core/services"
	"github.com/custodia-labs/patientforms/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetBuilder(build)
	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// build wires the adapters and services from the config file at configPath.
func build(ctx context.Context, configPath string) (*cli.Services, error) {
	store, err := file.NewConfigStore(configPath)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settings, err := file.DecodeSettings(store)
	if err != nil {
		return nil, err
	}

	var closers []func() error

	var locale driven.LocaleSource
	watcher, err := file.NewLocaleWatcher(store)
	if err != nil {
		logger.Warn("Config changes will not be picked up: %v", err)
	} else {
		locale = watcher
		closers = append(closers, watcher.Close)
	}

	var (
		snapshots driven.SnapshotStore
		launches  driven.LaunchStore
	)
	db, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		logger.Warn("Using in-memory storage, offline snapshots and history will not persist: %v", err)
		snapshots = memory.NewFormStore()
		launches = memory.NewLaunchStore()
	} else {
		snapshots = db.FormStore()
		launches = db.LaunchStore()
		closers = append(closers, db.Close)
	}

	var remote driven.FormSource
	if settings.HasFHIR() {
		client, err := fhir.NewClient(ctx, settings.FHIR)
		if err != nil {
			closeAll(closers)
			return nil, err
		}
		remote = fhir.NewFormSource(client)
	} else {
		logger.Debug("No FHIR server configured (%s); only --offline lists are available", file.KeyFHIRBaseURL)
	}

	browser := launcher.NewBrowser(settings.LaunchTemplate, settings.FHIR.BaseURL, nil)

	return &cli.Services{
		Forms:    services.NewFormService(remote, snapshots, settings.Forms.PageSize),
		Actions:  services.NewFormActionService(browser, launches),
		Locale:   locale,
		Config:   store,
		Settings: settings,
		Close:    func() error { return closeAll(closers) },
	}, nil
}

// closeAll runs closers in reverse order and joins their errors.
func closeAll(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
