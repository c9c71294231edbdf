package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/core/listing"
)

var (
	listSearch string
	listJSON   bool
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the patient's forms",
	Long: `Prints every form available for the patient with the date it was last
completed. Forms are grouped by the configured sections.

--search filters by name with the same fuzzy match as the interactive list,
or on the server when forms.remote_search is enabled.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "filter forms by name")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output forms as JSON")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "maximum number of forms (0 for all)")
	rootCmd.AddCommand(listCmd)
}

// listedForm is the JSON shape of one form.
type listedForm struct {
	UUID          string     `json:"uuid"`
	Name          string     `json:"name"`
	Display       string     `json:"display,omitempty"`
	Section       string     `json:"section,omitempty"`
	LastCompleted *time.Time `json:"last_completed,omitempty"`
	Encounter     string     `json:"encounter,omitempty"`
}

func runList(cmd *cobra.Command, _ []string) error {
	if err := requirePatient(); err != nil {
		return err
	}
	if listLimit < 0 {
		return errors.New("--limit must not be negative")
	}
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}

	term := strings.TrimSpace(listSearch)
	query := domain.FormQuery{
		PatientUUID: patientUUID,
		VisitUUID:   visitUUID,
		OrderBy:     svc.Settings.Forms.OrderBy,
	}
	remote := svc.Settings.Forms.RemoteSearch && !offline
	if remote {
		query.SearchTerm = term
	}

	page, err := svc.Forms.ListForms(cmd.Context(), query, offline)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	result := page.Forms
	if !remote {
		result = listing.Filter(term, result)
	}
	if listLimit > 0 && len(result) > listLimit {
		result = result[:listLimit]
	}

	sectioned := len(svc.Settings.Sections) > 0
	sections := []domain.FormSection{{Forms: result}}
	if sectioned {
		sections = listing.Group(result, svc.Settings.Sections)
	}
	if listJSON {
		return outputListJSON(cmd, sections)
	}
	return outputListTable(cmd, sections, sectioned, listing.NewDateFormatter(svc.Settings.Locale))
}

func outputListJSON(cmd *cobra.Command, sections []domain.FormSection) error {
	out := make([]listedForm, 0)
	for _, section := range sections {
		for _, f := range section.Forms {
			out = append(out, listedForm{
				UUID:          f.UUID,
				Name:          f.Name,
				Display:       f.Display,
				Section:       section.Name,
				LastCompleted: f.LastCompleted,
				Encounter:     f.LatestEncounter(),
			})
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal forms: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputListTable(cmd *cobra.Command, sections []domain.FormSection, sectioned bool, dates *listing.DateFormatter) error {
	total := 0
	for _, s := range sections {
		total += len(s.Forms)
	}
	if total == 0 && !sectioned {
		if listSearch != "" {
			cmd.Printf("No forms match %q.\n", listSearch)
		} else {
			cmd.Println("No forms found.")
		}
		return nil
	}

	for i, section := range sections {
		if sectioned {
			if i > 0 {
				cmd.Println()
			}
			cmd.Printf("%s (%d)\n", section.Name, len(section.Forms))
			if len(section.Forms) == 0 {
				cmd.Println("  No forms in this section")
				continue
			}
		}
		for _, f := range section.Forms {
			completed := dates.Format(f.LastCompleted)
			if completed == "" {
				completed = "never"
			}
			cmd.Printf("  %-40s %s\n", f.Label(), completed)
			cmd.Printf("    %s\n", f.UUID)
		}
	}
	return nil
}
