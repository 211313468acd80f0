package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kislerdm/dk-utils/internal/model"
)

// SearchParams holds parameters for searching records by flattened field.
type SearchParams struct {
	NS    string
	Path  string          // field path prefix; empty matches every path
	Value json.RawMessage // exact JSON value; nil matches any value
	Limit int
}

// SearchResult wraps a record with the first field that matched.
type SearchResult struct {
	model.Record
	MatchField *model.Field `json:"match_field,omitempty"`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search finds the latest version of records holding a field under the
// given path prefix, optionally with an exact value.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]SearchResult, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where := []string{"r.deleted_at IS NULL"}
	var args []any

	if p.NS != "" {
		where = append(where, "r.ns = ?")
		args = append(args, p.NS)
	}
	if p.Path != "" {
		where = append(where, `f.path LIKE ? ESCAPE '\'`)
		args = append(args, likeEscaper.Replace(p.Path)+"%")
	}
	if p.Value != nil {
		var buf bytes.Buffer
		if err := json.Compact(&buf, p.Value); err != nil {
			return nil, fmt.Errorf("invalid search value: %w", err)
		}
		where = append(where, "f.value = ?")
		args = append(args, buf.String())
	}

	query := fmt.Sprintf(`
		SELECT %s, f.path, f.value
		FROM records r
		INNER JOIN (
			SELECT ns, key, MAX(version) AS max_ver
			FROM records WHERE deleted_at IS NULL
			GROUP BY ns, key
		) latest ON r.ns = latest.ns AND r.key = latest.key AND r.version = latest.max_ver
		INNER JOIN fields f ON f.record_id = r.id
		WHERE %s
		ORDER BY r.created_at DESC, r.id DESC, f.seq`, recordColumns, strings.Join(where, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	seen := map[string]bool{}
	for rows.Next() {
		var path, value string
		r, err := scanRecord(rows, &path, &value)
		if err != nil {
			return nil, err
		}
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		results = append(results, SearchResult{
			Record:     r,
			MatchField: &model.Field{Path: path, Value: json.RawMessage(value)},
		})
		if len(results) == limit {
			break
		}
	}

	return results, rows.Err()
}
