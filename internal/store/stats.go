package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath        string           `json:"db_path"`
	DBSizeBytes   int64            `json:"db_size_bytes"`
	TotalRecords  int              `json:"total_records"`
	ActiveRecords int              `json:"active_records"`
	TotalFields   int              `json:"total_fields"`
	Namespaces    []NamespaceStats `json:"namespaces"`
}

// NamespaceStats holds per-namespace counts.
type NamespaceStats struct {
	NS    string `json:"ns"`
	Count int    `json:"count"`
	Keys  int    `json:"keys"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&st.TotalRecords)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE deleted_at IS NULL`).Scan(&st.ActiveRecords)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fields`).Scan(&st.TotalFields)

	namespaces, err := s.ListNamespaces(ctx)
	if err != nil {
		return st, err
	}
	st.Namespaces = namespaces

	return st, nil
}

// ListNamespaces returns live record counts per namespace, busiest first.
func (s *SQLiteStore) ListNamespaces(ctx context.Context) ([]NamespaceStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ns, COUNT(*) as cnt, COUNT(DISTINCT key) as keys
		FROM records WHERE deleted_at IS NULL
		GROUP BY ns ORDER BY cnt DESC, ns`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NamespaceStats
	for rows.Next() {
		var ns NamespaceStats
		if err := rows.Scan(&ns.NS, &ns.Count, &ns.Keys); err != nil {
			return nil, err
		}
		out = append(out, ns)
	}
	return out, rows.Err()
}
