// Package launcher opens forms for data entry in the system browser.
package launcher

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/core/ports/driven"
	"github.com/custodia-labs/patientforms/internal/logger"
)

// Ensure Browser implements the interface.
var _ driven.FormLauncher = (*Browser)(nil)

// Template placeholders.
const (
	PlaceholderBase      = "{base}"
	PlaceholderForm      = "{form}"
	PlaceholderPatient   = "{patient}"
	PlaceholderEncounter = "{encounter}"
)

// Opener opens a URL outside the application.
type Opener func(ctx context.Context, rawURL string) error

// Browser launches forms by filling a URL template and opening the result.
type Browser struct {
	template string
	baseURL  string
	open     Opener
}

// NewBrowser creates a launcher for template. baseURL replaces {base}.
// A nil opener uses the operating system's URL handler.
func NewBrowser(template, baseURL string, open Opener) *Browser {
	if template == "" {
		template = domain.DefaultLaunchTemplate
	}
	if open == nil {
		open = OpenURL
	}
	return &Browser{
		template: template,
		baseURL:  strings.TrimRight(baseURL, "/"),
		open:     open,
	}
}

// URL returns the launch URL for a form. Identifiers are escaped.
func (b *Browser) URL(patientUUID string, form domain.FormSummary, encounterUUID string) (string, error) {
	if strings.Contains(b.template, PlaceholderBase) && b.baseURL == "" {
		return "", fmt.Errorf("%w: launch template needs a base URL", domain.ErrInvalidInput)
	}

	r := strings.NewReplacer(
		PlaceholderBase, b.baseURL,
		PlaceholderForm, url.PathEscape(form.UUID),
		PlaceholderPatient, url.QueryEscape(patientUUID),
		PlaceholderEncounter, url.QueryEscape(encounterUUID),
	)
	raw := r.Replace(b.template)

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: launch URL: %v", domain.ErrInvalidInput, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: launch URL must be http or https, got %q", domain.ErrInvalidInput, u.Scheme)
	}
	return raw, nil
}

// Launch opens the form's URL.
func (b *Browser) Launch(ctx context.Context, patientUUID string, form domain.FormSummary, encounterUUID string) error {
	u, err := b.URL(patientUUID, form, encounterUUID)
	if err != nil {
		return err
	}
	logger.Debug("launcher: opening %s", u)
	if err := b.open(ctx, u); err != nil {
		return fmt.Errorf("open %s: %w", u, err)
	}
	return nil
}

// OpenURL opens rawURL with the platform's default handler.
// It returns once the handler has started.
func OpenURL(ctx context.Context, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "linux", "freebsd", "openbsd", "netbsd":
		cmd = exec.Command("xdg-open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
