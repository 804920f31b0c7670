package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docbase-ai/docqa-go/internal/rag"
)

// newTestStore opens an in-memory store that is torn down with the test.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenAppliesPragmas(t *testing.T) {
	t.Parallel()

	// WAL and busy_timeout only apply to file-backed databases, so this test
	// cannot use :memory:.
	s, err := Open(filepath.Join(t.TempDir(), "docqa.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Errorf("journal_mode: want wal, got %q", mode)
	}

	var timeout int
	if err := s.db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("query busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout: want 5000, got %d", timeout)
	}
}

func TestInsertAndListDocuments(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.InsertDocument(ctx, "sky.txt", "the sky is blue")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	id2, err := s.InsertDocument(ctx, "grass.txt", "grass is green")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id1 == id2 {
		t.Fatalf("ids not unique: %d", id1)
	}

	docs, err := s.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("want 2 documents, got %d", len(docs))
	}
	if docs[0].ID != id1 || docs[0].Filename != "sky.txt" || docs[0].Content != "the sky is blue" {
		t.Errorf("unexpected first document: %+v", docs[0])
	}
	if docs[0].Selected || docs[1].Selected {
		t.Error("new documents should not be selected")
	}
}

func TestSaveEmbeddingOverwritesLatest(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.InsertDocument(ctx, "a.txt", "alpha")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := s.SaveEmbedding(ctx, id, []float32{1, 0, 0}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveEmbedding(ctx, id, []float32{0, 1, 0}); err != nil {
		t.Fatalf("re-save: %v", err)
	}

	got, err := s.FetchCandidates(ctx, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want exactly one embedding per document, got %d", len(got))
	}
	if got[0].Vector[0] != 0 || got[0].Vector[1] != 1 {
		t.Errorf("old vector not overwritten: %v", got[0].Vector)
	}
}

func TestSaveEmbeddingRejectsEmptyVector(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.InsertDocument(ctx, "a.txt", "alpha")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := s.SaveEmbedding(ctx, id, nil); !errors.Is(err, rag.ErrInvalidInput) {
		t.Errorf("want ErrInvalidInput, got %v", err)
	}
}

func TestFetchCandidatesFilter(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	var ids []int64
	for _, doc := range []struct {
		name, content string
		vec           []float32
	}{
		{"a.txt", "alpha", []float32{1, 0}},
		{"b.txt", "beta", []float32{0, 1}},
		{"c.txt", "gamma", []float32{1, 1}},
	} {
		id, err := s.InsertDocument(ctx, doc.name, doc.content)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		if err := s.SaveEmbedding(ctx, id, doc.vec); err != nil {
			t.Fatalf("save: %v", err)
		}
		ids = append(ids, id)
	}

	// Nil filter means the whole corpus.
	all, err := s.FetchCandidates(ctx, nil)
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("want 3 candidates, got %d", len(all))
	}

	// A filter restricts to the given ids.
	subset, err := s.FetchCandidates(ctx, []int64{ids[0], ids[2]})
	if err != nil {
		t.Fatalf("fetch subset: %v", err)
	}
	if len(subset) != 2 {
		t.Fatalf("want 2 candidates, got %d", len(subset))
	}
	if subset[0].DocumentID != ids[0] || subset[1].DocumentID != ids[2] {
		t.Errorf("unexpected subset: %+v", subset)
	}
	if subset[0].Content != "alpha" {
		t.Errorf("content not joined: %q", subset[0].Content)
	}

	// Ids with no stored embedding simply yield nothing.
	none, err := s.FetchCandidates(ctx, []int64{9999})
	if err != nil {
		t.Fatalf("fetch unknown: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("want no candidates for unknown id, got %d", len(none))
	}
}

func TestFetchCandidatesSkipsUnembeddedDocuments(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	embedded, err := s.InsertDocument(ctx, "a.txt", "alpha")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.InsertDocument(ctx, "b.txt", "beta"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.SaveEmbedding(ctx, embedded, []float32{1}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.FetchCandidates(ctx, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 || got[0].DocumentID != embedded {
		t.Errorf("want only the embedded document, got %+v", got)
	}
}

func TestSetSelected(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	id1, _ := s.InsertDocument(ctx, "a.txt", "alpha")
	if _, err := s.InsertDocument(ctx, "b.txt", "beta"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	updated, err := s.SetSelected(ctx, []int64{id1, 9999}, true)
	if err != nil {
		t.Fatalf("set selected: %v", err)
	}
	if len(updated) != 1 || updated[0] != id1 {
		t.Errorf("want only %d updated, got %v", id1, updated)
	}

	selected, err := s.SelectedIDs(ctx)
	if err != nil {
		t.Fatalf("selected ids: %v", err)
	}
	if len(selected) != 1 || selected[0] != id1 {
		t.Errorf("want [%d], got %v", id1, selected)
	}

	if _, err := s.SetSelected(ctx, []int64{id1}, false); err != nil {
		t.Fatalf("deselect: %v", err)
	}
	selected, err = s.SelectedIDs(ctx)
	if err != nil {
		t.Fatalf("selected ids: %v", err)
	}
	if len(selected) != 0 {
		t.Errorf("want none selected, got %v", selected)
	}
}

func TestPing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}
