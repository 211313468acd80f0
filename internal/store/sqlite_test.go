package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kislerdm/dk-utils/internal/flatten"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func doc(t *testing.T, src string) flatten.Mapping {
	t.Helper()
	m, err := flatten.DecodeJSON(strings.NewReader(src))
	if err != nil {
		t.Fatalf("decode %s: %v", src, err)
	}
	return m
}

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Put(ctx, PutParams{
		NS: "test", Key: "user", Source: doc(t, `{"user":{"name":"ann","tags":["a","b"]},"n":1}`),
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if rec.Version != 1 {
		t.Errorf("expected version 1, got %d", rec.Version)
	}
	if rec.ID == "" {
		t.Error("expected non-empty ID")
	}
	if rec.FieldCount != 3 {
		t.Errorf("expected 3 fields, got %d", rec.FieldCount)
	}

	got, err := s.Get(ctx, GetParams{NS: "test", Key: "user"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if got[0].FieldCount != 3 {
		t.Errorf("expected field_count 3, got %d", got[0].FieldCount)
	}

	want := []struct{ path, value string }{
		{"user.name", `"ann"`},
		{"user.tags", `["a","b"]`},
		{"n", `1`},
	}
	if len(got[0].Fields) != len(want) {
		t.Fatalf("expected %d fields, got %d", len(want), len(got[0].Fields))
	}
	for i, w := range want {
		f := got[0].Fields[i]
		if f.Path != w.path || string(f.Value) != w.value {
			t.Errorf("field %d: expected %s=%s, got %s=%s", i, w.path, w.value, f.Path, f.Value)
		}
	}
	if string(got[0].Source) != `{"user":{"name":"ann","tags":["a","b"]},"n":1}` {
		t.Errorf("unexpected source %s", got[0].Source)
	}
}

func TestPutSimplifyArrays(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Put(ctx, PutParams{
		NS: "test", Key: "items", SimplifyArrays: true,
		Source: doc(t, `{"items":[{"id":1},{"id":2}]}`),
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	got, _ := s.Get(ctx, GetParams{NS: "test", Key: "items"})
	if !got[0].SimplifyArrays {
		t.Error("expected simplify_arrays to be persisted")
	}
	paths := make([]string, 0, len(got[0].Fields))
	for _, f := range got[0].Fields {
		paths = append(paths, f.Path)
	}
	if strings.Join(paths, ",") != "items_0.id,items_1.id" {
		t.Errorf("unexpected paths %v", paths)
	}
	if rec.FieldCount != 2 {
		t.Errorf("expected 2 fields, got %d", rec.FieldCount)
	}
}

func TestPutReportsCollisions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Put(ctx, PutParams{NS: "test", Key: "c", Source: doc(t, `{"a":{"b":1},"a.b":2}`)})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if len(rec.Collisions) != 1 || rec.Collisions[0] != "a.b" {
		t.Errorf("expected collision on a.b, got %v", rec.Collisions)
	}
	if rec.FieldCount != 1 || string(rec.Fields[0].Value) != "2" {
		t.Errorf("expected last writer to win, got %+v", rec.Fields)
	}
}

func TestPutManyFields(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var sb strings.Builder
	sb.WriteString(`{"wide":{`)
	for i := 0; i < 450; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `"k%03d":%d`, i, i)
	}
	sb.WriteString(`}}`)

	if _, err := s.Put(ctx, PutParams{NS: "test", Key: "wide", Source: doc(t, sb.String())}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, GetParams{NS: "test", Key: "wide"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got[0].Fields) != 450 {
		t.Fatalf("expected 450 fields, got %d", len(got[0].Fields))
	}
	if got[0].Fields[449].Path != "wide.k449" || string(got[0].Fields[449].Value) != "449" {
		t.Errorf("unexpected last field %+v", got[0].Fields[449])
	}
}

func TestPutRequiresNSAndKey(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Put(context.Background(), PutParams{NS: "test"}); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestVersioning(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Put(ctx, PutParams{NS: "ns", Key: "k", Source: doc(t, `{"v":1}`)})
	r2, _ := s.Put(ctx, PutParams{NS: "ns", Key: "k", Source: doc(t, `{"v":2}`)})

	if r2.Version != 2 {
		t.Errorf("expected version 2, got %d", r2.Version)
	}
	if r2.Supersedes == "" {
		t.Error("expected supersedes to be set")
	}

	// Get latest
	got, _ := s.Get(ctx, GetParams{NS: "ns", Key: "k"})
	if string(got[0].Fields[0].Value) != "2" {
		t.Errorf("expected v=2, got %s", got[0].Fields[0].Value)
	}

	// Get history
	hist, _ := s.Get(ctx, GetParams{NS: "ns", Key: "k", History: true})
	if len(hist) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(hist))
	}
	if hist[0].Version != 2 || hist[1].Version != 1 {
		t.Errorf("expected newest first, got v%d, v%d", hist[0].Version, hist[1].Version)
	}

	// Get specific version
	v1, _ := s.Get(ctx, GetParams{NS: "ns", Key: "k", Version: 1})
	if string(v1[0].Fields[0].Value) != "1" {
		t.Errorf("expected v=1, got %s", v1[0].Fields[0].Value)
	}
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), GetParams{NS: "nope", Key: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Put(ctx, PutParams{NS: "a", Key: "k1", Source: doc(t, `{"x":1}`)})
	s.Put(ctx, PutParams{NS: "a", Key: "k2", Source: doc(t, `{"x":2}`)})
	s.Put(ctx, PutParams{NS: "b", Key: "k3", Source: doc(t, `{"x":3}`)})

	all, _ := s.List(ctx, ListParams{})
	if len(all) != 3 {
		t.Errorf("expected 3, got %d", len(all))
	}

	nsA, _ := s.List(ctx, ListParams{NS: "a"})
	if len(nsA) != 2 {
		t.Errorf("expected 2 in ns a, got %d", len(nsA))
	}

	limited, _ := s.List(ctx, ListParams{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("expected 1 with limit, got %d", len(limited))
	}
}

func TestListShowsLatestVersion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Put(ctx, PutParams{NS: "ns", Key: "k", Source: doc(t, `{"v":1}`)})
	s.Put(ctx, PutParams{NS: "ns", Key: "k", Source: doc(t, `{"v":2,"w":3}`)})

	list, _ := s.List(ctx, ListParams{NS: "ns"})
	if len(list) != 1 {
		t.Fatalf("expected 1 (latest only), got %d", len(list))
	}
	if list[0].Version != 2 {
		t.Errorf("expected version 2, got %d", list[0].Version)
	}
	if list[0].FieldCount != 2 {
		t.Errorf("expected 2 fields, got %d", list[0].FieldCount)
	}
}

func TestSoftDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Put(ctx, PutParams{NS: "ns", Key: "k", Source: doc(t, `{"v":1}`)})
	if err := s.Rm(ctx, RmParams{NS: "ns", Key: "k"}); err != nil {
		t.Fatalf("rm: %v", err)
	}

	if _, err := s.Get(ctx, GetParams{NS: "ns", Key: "k"}); err == nil {
		t.Error("expected error after soft delete")
	}
}

func TestSoftDeleteRevealsPreviousVersion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Put(ctx, PutParams{NS: "ns", Key: "k", Source: doc(t, `{"v":1}`)})
	s.Put(ctx, PutParams{NS: "ns", Key: "k", Source: doc(t, `{"v":2}`)})
	s.Rm(ctx, RmParams{NS: "ns", Key: "k"})

	got, err := s.Get(ctx, GetParams{NS: "ns", Key: "k"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got[0].Version != 1 {
		t.Errorf("expected version 1 after deleting latest, got %d", got[0].Version)
	}
}

func TestPutAfterSoftDeleteUsesNewVersion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	r1, _ := s.Put(ctx, PutParams{NS: "ns", Key: "k", Source: doc(t, `{"v":1}`)})
	s.Put(ctx, PutParams{NS: "ns", Key: "k", Source: doc(t, `{"v":2}`)})
	if err := s.Rm(ctx, RmParams{NS: "ns", Key: "k"}); err != nil {
		t.Fatalf("rm: %v", err)
	}

	r3, err := s.Put(ctx, PutParams{NS: "ns", Key: "k", Source: doc(t, `{"v":3}`)})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if r3.Version != 3 {
		t.Errorf("expected version 3, got %d", r3.Version)
	}
	if r3.Supersedes != r1.ID {
		t.Errorf("expected supersedes %s (latest live), got %s", r1.ID, r3.Supersedes)
	}

	var dup int
	s.db.QueryRow(`SELECT COUNT(*) FROM (SELECT version FROM records WHERE ns = 'ns' AND key = 'k'
		GROUP BY version HAVING COUNT(*) > 1)`).Scan(&dup)
	if dup != 0 {
		t.Errorf("expected unique versions, got %d duplicated", dup)
	}

	got, _ := s.Get(ctx, GetParams{NS: "ns", Key: "k"})
	if got[0].Version != 3 || string(got[0].Fields[0].Value) != "3" {
		t.Errorf("expected latest v3 with v=3, got v%d %s", got[0].Version, got[0].Fields[0].Value)
	}
}

func TestHardDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Put(ctx, PutParams{NS: "ns", Key: "k", Source: doc(t, `{"v":1}`)})
	if err := s.Rm(ctx, RmParams{NS: "ns", Key: "k", Hard: true}); err != nil {
		t.Fatalf("rm: %v", err)
	}

	var n int
	s.db.QueryRow(`SELECT COUNT(*) FROM fields`).Scan(&n)
	if n != 0 {
		t.Errorf("expected fields removed, got %d", n)
	}
}

func TestDeleteAllVersions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Put(ctx, PutParams{NS: "ns", Key: "k", Source: doc(t, `{"v":1}`)})
	s.Put(ctx, PutParams{NS: "ns", Key: "k", Source: doc(t, `{"v":2}`)})
	s.Rm(ctx, RmParams{NS: "ns", Key: "k", AllVersions: true})

	if _, err := s.Get(ctx, GetParams{NS: "ns", Key: "k"}); err == nil {
		t.Error("expected error after deleting all versions")
	}
}

func TestRmNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.Rm(context.Background(), RmParams{NS: "ns", Key: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTags(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Put(ctx, PutParams{NS: "ns", Key: "k1", Source: doc(t, `{}`), Tags: []string{"go", "sql"}})
	s.Put(ctx, PutParams{NS: "ns", Key: "k2", Source: doc(t, `{}`), Tags: []string{"go"}})
	s.Put(ctx, PutParams{NS: "ns", Key: "k3", Source: doc(t, `{}`), Tags: []string{"python"}})

	goRecs, _ := s.List(ctx, ListParams{Tags: []string{"go"}})
	if len(goRecs) != 2 {
		t.Errorf("expected 2 with tag go, got %d", len(goRecs))
	}

	both, _ := s.List(ctx, ListParams{Tags: []string{"go", "sql"}})
	if len(both) != 1 {
		t.Errorf("expected 1 with tags go+sql, got %d", len(both))
	}
}

func TestDBPathCreation(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "dir", "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("expected db file to be created")
	}
}
