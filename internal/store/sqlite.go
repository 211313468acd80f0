package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/kislerdm/dk-utils/internal/chunker"
	"github.com/kislerdm/dk-utils/internal/flatten"
	"github.com/kislerdm/dk-utils/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id              TEXT PRIMARY KEY,
		ns              TEXT NOT NULL,
		key             TEXT NOT NULL,
		version         INTEGER NOT NULL DEFAULT 1,
		supersedes      TEXT,
		simplify_arrays INTEGER NOT NULL DEFAULT 0,
		tags            TEXT,
		source          TEXT NOT NULL,
		created_at      TEXT NOT NULL,
		deleted_at      TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_records_ns_key ON records(ns, key);
	CREATE INDEX IF NOT EXISTS idx_records_created ON records(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_records_deleted ON records(deleted_at);

	CREATE TABLE IF NOT EXISTS fields (
		record_id TEXT NOT NULL REFERENCES records(id),
		seq       INTEGER NOT NULL,
		path      TEXT NOT NULL,
		value     TEXT NOT NULL,
		PRIMARY KEY (record_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_fields_path ON fields(path);
	`
	_, err := s.db.Exec(schema)
	return err
}

const recordColumns = `r.id, r.ns, r.key, r.version, r.supersedes, r.simplify_arrays, r.tags, r.source,
	r.created_at, r.deleted_at, (SELECT COUNT(*) FROM fields f WHERE f.record_id = r.id)`

func (s *SQLiteStore) Put(ctx context.Context, p PutParams) (*model.Record, error) {
	if p.NS == "" || p.Key == "" {
		return nil, errors.New("ns and key are required")
	}

	flat, err := flatten.Flatten(p.Source, flatten.Options{SimplifyArrays: p.SimplifyArrays})
	if err != nil {
		return nil, fmt.Errorf("flatten: %w", err)
	}
	fields, err := encodeFields(flat)
	if err != nil {
		return nil, err
	}
	source, err := json.Marshal(p.Source)
	if err != nil {
		return nil, fmt.Errorf("encode source: %w", err)
	}

	var tagsJSON *string
	if len(p.Tags) > 0 {
		b, _ := json.Marshal(p.Tags)
		t := string(b)
		tagsJSON = &t
	}

	now := time.Now().UTC()
	id := s.newID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Versions keep counting past soft-deleted rows; supersedes points at
	// the latest live version.
	var maxVersion int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM records WHERE ns = ? AND key = ?`,
		p.NS, p.Key).Scan(&maxVersion)
	if err != nil {
		return nil, fmt.Errorf("lookup previous version: %w", err)
	}
	version := maxVersion + 1

	var prevID string
	var supersedes *string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM records
		 WHERE ns = ? AND key = ? AND deleted_at IS NULL
		 ORDER BY version DESC LIMIT 1`, p.NS, p.Key).Scan(&prevID)
	switch {
	case err == nil:
		supersedes = &prevID
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("lookup previous version: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (id, ns, key, version, supersedes, simplify_arrays, tags, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.NS, p.Key, version, supersedes, p.SimplifyArrays, tagsJSON, string(source),
		now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	if err := insertFields(ctx, tx, id, fields); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	rec := &model.Record{
		ID:             id,
		NS:             p.NS,
		Key:            p.Key,
		Version:        version,
		SimplifyArrays: p.SimplifyArrays,
		Tags:           p.Tags,
		Source:         source,
		FieldCount:     len(fields),
		Fields:         fields,
		Collisions:     flat.Collisions(),
		CreatedAt:      now.Truncate(time.Second),
	}
	if supersedes != nil {
		rec.Supersedes = *supersedes
	}

	return rec, nil
}

func encodeFields(flat *flatten.Flat) ([]model.Field, error) {
	fields := make([]model.Field, 0, flat.Len())
	for _, k := range flat.Keys() {
		v, _ := flat.Get(k)
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", k, err)
		}
		fields = append(fields, model.Field{Path: k, Value: b})
	}
	return fields, nil
}

// insertFields writes fields in multi-row batches to stay under SQLite's
// bound-parameter limit.
func insertFields(ctx context.Context, tx *sql.Tx, recordID string, fields []model.Field) error {
	seq := 0
	for _, batch := range chunker.Split(fields, chunker.DefaultSize) {
		var sb strings.Builder
		sb.WriteString(`INSERT INTO fields (record_id, seq, path, value) VALUES `)
		args := make([]any, 0, len(batch)*4)
		for i, f := range batch {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?)")
			args = append(args, recordID, seq, f.Path, string(f.Value))
			seq++
		}
		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("insert fields: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, p GetParams) ([]model.Record, error) {
	var query string
	var args []any

	switch {
	case p.History:
		query = `SELECT ` + recordColumns + `
				 FROM records r WHERE r.ns = ? AND r.key = ? AND r.deleted_at IS NULL
				 ORDER BY r.version DESC`
		args = []any{p.NS, p.Key}
	case p.Version > 0:
		query = `SELECT ` + recordColumns + `
				 FROM records r WHERE r.ns = ? AND r.key = ? AND r.version = ? AND r.deleted_at IS NULL
				 LIMIT 1`
		args = []any{p.NS, p.Key, p.Version}
	default:
		query = `SELECT ` + recordColumns + `
				 FROM records r WHERE r.ns = ? AND r.key = ? AND r.deleted_at IS NULL
				 ORDER BY r.version DESC LIMIT 1`
		args = []any{p.NS, p.Key}
	}

	records, err := s.queryRecords(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, p.NS, p.Key)
	}

	for i := range records {
		if records[i].Fields, err = s.loadFields(ctx, records[i].ID); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (s *SQLiteStore) loadFields(ctx context.Context, recordID string) ([]model.Field, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, value FROM fields WHERE record_id = ? ORDER BY seq`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []model.Field
	for rows.Next() {
		var f model.Field
		var value string
		if err := rows.Scan(&f.Path, &value); err != nil {
			return nil, err
		}
		f.Value = json.RawMessage(value)
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]model.Record, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	// Build a query that returns only the latest version of each ns+key
	where := []string{"r.deleted_at IS NULL"}
	var args []any

	if p.NS != "" {
		where = append(where, "r.ns = ?")
		args = append(args, p.NS)
	}

	// Tag filtering
	for _, tag := range p.Tags {
		where = append(where, "r.tags LIKE ?")
		args = append(args, "%\""+tag+"\"%")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM records r
		INNER JOIN (
			SELECT ns, key, MAX(version) AS max_ver
			FROM records WHERE deleted_at IS NULL
			GROUP BY ns, key
		) latest ON r.ns = latest.ns AND r.key = latest.key AND r.version = latest.max_ver
		WHERE %s
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT ?`, recordColumns, strings.Join(where, " AND "))
	args = append(args, limit)

	return s.queryRecords(ctx, query, args...)
}

func (s *SQLiteStore) Rm(ctx context.Context, p RmParams) error {
	if p.Hard {
		if p.AllVersions {
			// Delete fields first
			_, err := s.db.ExecContext(ctx,
				`DELETE FROM fields WHERE record_id IN (SELECT id FROM records WHERE ns = ? AND key = ?)`,
				p.NS, p.Key)
			if err != nil {
				return err
			}
			_, err = s.db.ExecContext(ctx, `DELETE FROM records WHERE ns = ? AND key = ?`, p.NS, p.Key)
			return err
		}
		// Hard delete latest only
		id, err := s.latestID(ctx, p.NS, p.Key)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM fields WHERE record_id = ?`, id); err != nil {
			return err
		}
		_, err = s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if p.AllVersions {
		_, err := s.db.ExecContext(ctx,
			`UPDATE records SET deleted_at = ? WHERE ns = ? AND key = ? AND deleted_at IS NULL`,
			now, p.NS, p.Key)
		return err
	}

	// Soft-delete latest version only
	id, err := s.latestID(ctx, p.NS, p.Key)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE records SET deleted_at = ? WHERE id = ?`, now, id)
	return err
}

// latestID finds the latest live record ID for a ns/key pair.
func (s *SQLiteStore) latestID(ctx context.Context, ns, key string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM records WHERE ns = ? AND key = ? AND deleted_at IS NULL
		 ORDER BY version DESC LIMIT 1`, ns, key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s/%s", ErrNotFound, ns, key)
	}
	return id, err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) queryRecords(ctx context.Context, query string, args ...any) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRecord reads recordColumns followed by any extra destinations.
func scanRecord(row scanner, extra ...any) (model.Record, error) {
	var r model.Record
	var supersedes, tagsJSON, deletedAt sql.NullString
	var source, createdAt string
	var simplify bool

	dest := []any{
		&r.ID, &r.NS, &r.Key, &r.Version, &supersedes, &simplify, &tagsJSON, &source,
		&createdAt, &deletedAt, &r.FieldCount,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return r, err
	}

	r.SimplifyArrays = simplify
	r.Source = json.RawMessage(source)
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if supersedes.Valid {
		r.Supersedes = supersedes.String
	}
	if deletedAt.Valid {
		t, _ := time.Parse(time.RFC3339, deletedAt.String)
		r.DeletedAt = &t
	}
	if tagsJSON.Valid {
		json.Unmarshal([]byte(tagsJSON.String), &r.Tags)
	}

	return r, nil
}
