package store

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/kislerdm/dk-utils/internal/flatten"
	"github.com/kislerdm/dk-utils/internal/model"
)

// ExportAll returns all non-deleted records, optionally filtered by namespace.
// Fields are not included; they are rebuilt from Source on import.
func (s *SQLiteStore) ExportAll(ctx context.Context, ns string) ([]model.Record, error) {
	where := []string{"r.deleted_at IS NULL"}
	var args []any

	if ns != "" {
		where = append(where, "r.ns = ?")
		args = append(args, ns)
	}

	query := `SELECT ` + recordColumns + `
	          FROM records r WHERE ` + strings.Join(where, " AND ") + ` ORDER BY r.ns, r.key, r.version`

	return s.queryRecords(ctx, query, args...)
}

// Import stores records from an export, re-flattening each source document.
// Every record becomes a new version of its ns/key.
func (s *SQLiteStore) Import(ctx context.Context, records []model.Record) (int, error) {
	imported := 0
	for _, r := range records {
		src, err := flatten.DecodeJSON(bytes.NewReader(r.Source))
		if err != nil {
			return imported, fmt.Errorf("decode %s/%s v%d: %w", r.NS, r.Key, r.Version, err)
		}
		_, err = s.Put(ctx, PutParams{
			NS:             r.NS,
			Key:            r.Key,
			Source:         src,
			SimplifyArrays: r.SimplifyArrays,
			Tags:           r.Tags,
		})
		if err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
