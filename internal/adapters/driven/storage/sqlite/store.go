package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/patientforms/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/core/ports/driven"
)

// dbFile is the database file name inside the data directory.
const dbFile = "patientforms.db"

// Store is a unified SQLite-based storage that provides access to
// the form snapshot and launch history through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.patientforms/data/patientforms.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".patientforms", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// FormStore returns a SnapshotStore interface backed by this store.
func (s *Store) FormStore() driven.SnapshotStore {
	return &formStore{store: s}
}

// LaunchStore returns a LaunchStore interface backed by this store.
func (s *Store) LaunchStore() driven.LaunchStore {
	return &launchStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// apply runs one migration and records its version atomically.
func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Form Store ====================

// formStore implements driven.SnapshotStore.
type formStore struct {
	store *Store
}

var _ driven.SnapshotStore = (*formStore)(nil)

// SaveSnapshot replaces the stored forms for a patient, keeping their order.
func (s *formStore) SaveSnapshot(ctx context.Context, patientUUID string, forms domain.ResultSet) error {
	if patientUUID == "" {
		return fmt.Errorf("%w: patient UUID is required", domain.ErrInvalidInput)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM forms WHERE patient_uuid = ?", patientUUID); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO forms (patient_uuid, form_uuid, name, display, last_completed, encounter_uuids, position, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(patient_uuid, form_uuid) DO UPDATE SET
			name = excluded.name,
			display = excluded.display,
			last_completed = excluded.last_completed,
			encounter_uuids = excluded.encounter_uuids,
			synced_at = excluded.synced_at
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	syncedAt := time.Now().UnixMilli()
	for i, form := range forms {
		encounters := form.EncounterUUIDs
		if encounters == nil {
			encounters = []string{}
		}
		encountersJSON, err := json.Marshal(encounters)
		if err != nil {
			return fmt.Errorf("marshalling encounters: %w", err)
		}
		_, err = stmt.ExecContext(ctx, patientUUID, form.UUID, form.Name, form.Display,
			nullableMillis(form.LastCompleted), string(encountersJSON), i, syncedAt)
		if err != nil {
			return fmt.Errorf("saving form %s: %w", form.UUID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// ListForms returns one page of a patient's stored forms. The search term is
// matched case-insensitively against the name and display label.
// VisitUUID is not consulted; the snapshot already holds the synced visit.
func (s *formStore) ListForms(ctx context.Context, query domain.FormQuery) (domain.FormPage, error) {
	where := "patient_uuid = ?"
	args := []any{query.PatientUUID}
	if term := strings.TrimSpace(query.SearchTerm); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		where += ` AND (LOWER(name) LIKE ? ESCAPE '\' OR LOWER(display) LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern)
	}

	var total int
	row := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM forms WHERE "+where, args...)
	if err := row.Scan(&total); err != nil {
		return domain.FormPage{}, fmt.Errorf("counting forms: %w", err)
	}

	q := `SELECT form_uuid, name, display, last_completed, encounter_uuids
		FROM forms WHERE ` + where + " ORDER BY " + orderClause(query.OrderBy)
	if query.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, query.Limit, query.Offset)
	}

	rows, err := s.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return domain.FormPage{}, fmt.Errorf("querying forms: %w", err)
	}
	defer rows.Close()

	forms := domain.ResultSet{}
	for rows.Next() {
		var (
			form           domain.FormSummary
			lastCompleted  sql.NullInt64
			encountersJSON string
		)
		if err := rows.Scan(&form.UUID, &form.Name, &form.Display, &lastCompleted, &encountersJSON); err != nil {
			return domain.FormPage{}, fmt.Errorf("scanning form: %w", err)
		}
		if lastCompleted.Valid {
			t := time.UnixMilli(lastCompleted.Int64).UTC()
			form.LastCompleted = &t
		}
		if err := json.Unmarshal([]byte(encountersJSON), &form.EncounterUUIDs); err != nil {
			return domain.FormPage{}, fmt.Errorf("unmarshalling encounters: %w", err)
		}
		forms = append(forms, form)
	}
	if err := rows.Err(); err != nil {
		return domain.FormPage{}, fmt.Errorf("iterating forms: %w", err)
	}

	hasMore := query.Limit > 0 && query.Offset+len(forms) < total
	return domain.FormPage{Forms: forms, Total: total, HasMore: hasMore}, nil
}

func orderClause(order domain.OrderBy) string {
	switch order {
	case domain.OrderByName:
		return "LOWER(CASE WHEN display != '' THEN display ELSE name END), position"
	case domain.OrderByLastCompleted:
		return "last_completed IS NULL, last_completed DESC, position"
	default:
		return "position"
	}
}

// escapeLike escapes LIKE wildcards so the term matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nullableMillis(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UnixMilli()
}

// ==================== Launch Store ====================

// launchStore implements driven.LaunchStore.
type launchStore struct {
	store *Store
}

var _ driven.LaunchStore = (*launchStore)(nil)

// SaveLaunch appends a launch record.
func (s *launchStore) SaveLaunch(ctx context.Context, record domain.LaunchRecord) error {
	if record.ID == "" {
		return fmt.Errorf("%w: launch ID is required", domain.ErrInvalidInput)
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO launches (id, patient_uuid, form_uuid, form_name, encounter_uuid, launched_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, record.ID, record.PatientUUID, record.FormUUID, record.FormName,
		record.EncounterUUID, record.LaunchedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("saving launch: %w", err)
	}
	return nil
}

// ListLaunches returns the most recent launches, newest first.
func (s *launchStore) ListLaunches(ctx context.Context, patientUUID string, limit int) ([]domain.LaunchRecord, error) {
	q := `SELECT id, patient_uuid, form_uuid, form_name, encounter_uuid, launched_at FROM launches`
	var args []any
	if patientUUID != "" {
		q += " WHERE patient_uuid = ?"
		args = append(args, patientUUID)
	}
	q += " ORDER BY launched_at DESC, rowid DESC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying launches: %w", err)
	}
	defer rows.Close()

	records := []domain.LaunchRecord{}
	for rows.Next() {
		var (
			rec        domain.LaunchRecord
			launchedAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.PatientUUID, &rec.FormUUID, &rec.FormName,
			&rec.EncounterUUID, &launchedAt); err != nil {
			return nil, fmt.Errorf("scanning launch: %w", err)
		}
		rec.LaunchedAt = time.UnixMilli(launchedAt).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating launches: %w", err)
	}
	return records, nil
}
