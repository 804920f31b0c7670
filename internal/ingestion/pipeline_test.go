package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/docbase-ai/docqa-go/internal/rag"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return len(f.vector) }

type fakeDocStore struct {
	nextID     int64
	insertedAs string
	saved      map[int64][]float32
	saveErr    error
}

func (f *fakeDocStore) InsertDocument(_ context.Context, filename, content string) (int64, error) {
	f.nextID++
	f.insertedAs = filename
	_ = content
	return f.nextID, nil
}

func (f *fakeDocStore) SaveEmbedding(_ context.Context, documentID int64, vector []float32) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.saved == nil {
		f.saved = map[int64][]float32{}
	}
	f.saved[documentID] = vector
	return nil
}

func TestIngest(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	st := &fakeDocStore{}
	p, err := NewPipeline(emb, st)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	id, err := p.Ingest(context.Background(), "notes.txt", []byte("the sky is blue"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if id != 1 {
		t.Errorf("unexpected id %d", id)
	}
	if st.insertedAs != "notes.txt" {
		t.Errorf("filename not stored: %q", st.insertedAs)
	}
	if len(st.saved[id]) != 2 {
		t.Errorf("embedding not saved: %v", st.saved)
	}
}

func TestIngestUnsupportedFileSkipsStoreAndEmbedder(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{vector: []float32{1}}
	st := &fakeDocStore{}
	p, _ := NewPipeline(emb, st)

	_, err := p.Ingest(context.Background(), "image.png", []byte("data"))
	if !errors.Is(err, rag.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
	if emb.calls != 0 {
		t.Error("embedder was called for an unsupported file")
	}
	if st.nextID != 0 {
		t.Error("document was stored for an unsupported file")
	}
}

func TestIngestEmbedFailureLeavesDocumentUnembedded(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{err: rag.ErrProviderUnavailable}
	st := &fakeDocStore{}
	p, _ := NewPipeline(emb, st)

	_, err := p.Ingest(context.Background(), "notes.txt", []byte("content"))
	if !errors.Is(err, rag.ErrProviderUnavailable) {
		t.Fatalf("want ErrProviderUnavailable, got %v", err)
	}
	if st.nextID != 1 {
		t.Errorf("document row should exist before the embed call, nextID=%d", st.nextID)
	}
	if len(st.saved) != 0 {
		t.Error("embedding saved despite embed failure")
	}
}

func TestNewPipelineNilDependencies(t *testing.T) {
	t.Parallel()

	if _, err := NewPipeline(nil, &fakeDocStore{}); err == nil {
		t.Error("nil embedder accepted")
	}
	if _, err := NewPipeline(&fakeEmbedder{}, nil); err == nil {
		t.Error("nil store accepted")
	}
}
