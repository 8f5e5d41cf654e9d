package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/fieldwork-labs/centralsync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/fieldwork-labs/centralsync/internal/core/domain"
	"github.com/fieldwork-labs/centralsync/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.centralsync/data/centralsync.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".centralsync", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "centralsync.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
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

// FormStore returns a FormStore interface backed by this store.
func (s *Store) FormStore() driven.FormStore {
	return &formStore{store: s}
}

// ReferenceStore returns a ReferenceStore interface backed by this store.
func (s *Store) ReferenceStore() driven.ReferenceStore {
	return &referenceStore{store: s}
}

// RecordStore returns a RecordStore interface backed by this store.
func (s *Store) RecordStore() driven.RecordStore {
	return &recordStore{store: s}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
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

	// Sort and run migrations
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
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Form Store ====================

// formStore implements driven.FormStore.
type formStore struct {
	store *Store
}

var _ driven.FormStore = (*formStore)(nil)

// Save stores or updates a registration.
func (s *formStore) Save(ctx context.Context, form domain.RegisteredForm) error {
	now := time.Now().UTC()
	if form.CreatedAt.IsZero() {
		form.CreatedAt = now
	}
	form.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO registered_forms (id, module_code, module_type, project_id, form_id,
			synchronize_command, upgrade_command, taxon_list_id, observer_menu_id,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			module_code = excluded.module_code,
			module_type = excluded.module_type,
			project_id = excluded.project_id,
			form_id = excluded.form_id,
			synchronize_command = excluded.synchronize_command,
			upgrade_command = excluded.upgrade_command,
			taxon_list_id = excluded.taxon_list_id,
			observer_menu_id = excluded.observer_menu_id,
			updated_at = excluded.updated_at
	`, form.ID, form.ModuleCode, string(form.ModuleType), form.ProjectID, form.FormID,
		form.SynchronizeCommand, form.UpgradeCommand, form.TaxonListID, form.ObserverMenuID,
		form.CreatedAt, form.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving registered form: %w", err)
	}
	return nil
}

// Get retrieves a registration by ID.
func (s *formStore) Get(ctx context.Context, id string) (*domain.RegisteredForm, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, module_code, module_type, project_id, form_id,
			synchronize_command, upgrade_command, taxon_list_id, observer_menu_id,
			created_at, updated_at
		FROM registered_forms WHERE id = ?
	`, id)

	form, err := scanRegisteredForm(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return form, nil
}

// List returns all registrations.
func (s *formStore) List(ctx context.Context) ([]domain.RegisteredForm, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, module_code, module_type, project_id, form_id,
			synchronize_command, upgrade_command, taxon_list_id, observer_menu_id,
			created_at, updated_at
		FROM registered_forms
		ORDER BY module_code, form_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying registered forms: %w", err)
	}
	defer rows.Close()

	var forms []domain.RegisteredForm //nolint:prealloc // size unknown from query
	for rows.Next() {
		form, err := scanRegisteredForm(rows.Scan)
		if err != nil {
			return nil, err
		}
		forms = append(forms, *form)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating registered forms: %w", err)
	}

	return forms, nil
}

// Delete removes a registration.
func (s *formStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM registered_forms WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting registered form: %w", err)
	}
	return nil
}

// scanRegisteredForm scans one registration from a row scan function.
func scanRegisteredForm(scan func(dest ...any) error) (*domain.RegisteredForm, error) {
	var form domain.RegisteredForm
	var moduleType string
	var createdAt, updatedAt sql.NullTime

	if err := scan(&form.ID, &form.ModuleCode, &moduleType, &form.ProjectID, &form.FormID,
		&form.SynchronizeCommand, &form.UpgradeCommand, &form.TaxonListID, &form.ObserverMenuID,
		&createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning registered form: %w", err)
	}

	form.ModuleType = domain.ModuleType(moduleType)
	if createdAt.Valid {
		form.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		form.UpdatedAt = updatedAt.Time
	}
	return &form, nil
}

// ==================== Reference Store ====================

// referenceStore implements driven.ReferenceStore. The underlying tables
// are populated by external tooling; this adapter only reads them.
type referenceStore struct {
	store *Store
}

var _ driven.ReferenceStore = (*referenceStore)(nil)

// Taxa returns the taxon entries belonging to a list.
func (s *referenceStore) Taxa(ctx context.Context, listID int) ([]domain.TaxonRow, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT cd_nom, nom_complet, nom_vern
		FROM taxa WHERE list_id = ?
		ORDER BY cd_nom
	`, listID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying taxa: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var taxa []domain.TaxonRow //nolint:prealloc // size unknown from query
	for rows.Next() {
		var t domain.TaxonRow
		if err := rows.Scan(&t.CdNom, &t.NomComplet, &t.NomVern); err != nil {
			return nil, fmt.Errorf("scanning taxon: %w", err)
		}
		taxa = append(taxa, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating taxa: %w", err)
	}
	return taxa, nil
}

// Observers returns the observer roster for a menu.
func (s *referenceStore) Observers(ctx context.Context, menuID int) ([]domain.ObserverRow, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id_role, nom_complet
		FROM observers WHERE menu_id = ?
		ORDER BY id_role
	`, menuID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying observers: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var observers []domain.ObserverRow //nolint:prealloc // size unknown from query
	for rows.Next() {
		var o domain.ObserverRow
		if err := rows.Scan(&o.IDRole, &o.NomComplet); err != nil {
			return nil, fmt.Errorf("scanning observer: %w", err)
		}
		observers = append(observers, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating observers: %w", err)
	}
	return observers, nil
}

// Nomenclatures returns the entries whose mnemonic is in the given set.
func (s *referenceStore) Nomenclatures(ctx context.Context, mnemonics []string) ([]domain.NomenclatureRow, error) {
	if len(mnemonics) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(mnemonics))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(mnemonics))
	for i, m := range mnemonics {
		args[i] = m
	}

	rows, err := s.store.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT mnemonique, id_nomenclature, cd_nomenclature, label_default
		FROM nomenclatures WHERE mnemonique IN (%s)
		ORDER BY mnemonique, id_nomenclature
	`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying nomenclatures: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var entries []domain.NomenclatureRow //nolint:prealloc // size unknown from query
	for rows.Next() {
		var n domain.NomenclatureRow
		if err := rows.Scan(&n.Mnemonique, &n.IDNomenclature, &n.CdNomenclature, &n.LabelDefault); err != nil {
			return nil, fmt.Errorf("scanning nomenclature: %w", err)
		}
		entries = append(entries, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nomenclatures: %w", err)
	}
	return entries, nil
}

// ==================== Record Store ====================

// recordStore implements driven.RecordStore.
type recordStore struct {
	store *Store
}

var _ driven.RecordStore = (*recordStore)(nil)

// Save writes one record. Saving the same form/submission pair again
// replaces the payload and keeps the original record identity.
func (s *recordStore) Save(ctx context.Context, record domain.Record) error {
	fieldsJSON, err := json.Marshal(record.Fields)
	if err != nil {
		return fmt.Errorf("marshalling fields: %w", err)
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO records (id, form_id, submission_id, fields, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(form_id, submission_id) DO UPDATE SET
			fields = excluded.fields
	`, record.ID, record.FormID, record.SubmissionID, string(fieldsJSON), record.CreatedAt)

	if err != nil {
		return fmt.Errorf("%w: saving record: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Get retrieves a record by form and submission ID.
func (s *recordStore) Get(ctx context.Context, formID, submissionID string) (*domain.Record, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, form_id, submission_id, fields, created_at
		FROM records WHERE form_id = ? AND submission_id = ?
	`, formID, submissionID)

	record, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

// ListByForm returns all records persisted for a form.
func (s *recordStore) ListByForm(ctx context.Context, formID string) ([]domain.Record, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, form_id, submission_id, fields, created_at
		FROM records WHERE form_id = ?
		ORDER BY created_at
	`, formID)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []domain.Record //nolint:prealloc // size unknown from query
	for rows.Next() {
		record, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

// scanRecord scans one record from a row scan function.
func scanRecord(scan func(dest ...any) error) (*domain.Record, error) {
	var record domain.Record
	var fieldsJSON string
	var createdAt sql.NullTime

	if err := scan(&record.ID, &record.FormID, &record.SubmissionID, &fieldsJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	if err := json.Unmarshal([]byte(fieldsJSON), &record.Fields); err != nil {
		return nil, fmt.Errorf("unmarshaling fields: %w", err)
	}
	if createdAt.Valid {
		record.CreatedAt = createdAt.Time
	}
	return &record, nil
}
