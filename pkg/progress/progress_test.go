package progress

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"framelabel/pkg/dataset"
	"framelabel/pkg/models"
)

type memStore struct {
	anns    []models.Annotation
	listErr error
}

func (m *memStore) ListAll(ctx context.Context) ([]models.Annotation, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.anns, nil
}

func (m *memStore) Append(ctx context.Context, a models.Annotation) error {
	m.anns = append(m.anns, a)
	return nil
}

func (m *memStore) Close() error { return nil }

func testCatalog(t *testing.T, ids ...string) *dataset.Catalog {
	t.Helper()
	csvPath := filepath.Join(t.TempDir(), "sentences.csv")
	content := "sentence_id,text\n"
	for _, id := range ids {
		content += id + ",sentence for " + id + "\n"
	}
	if err := os.WriteFile(csvPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	data, err := dataset.Load(csvPath, "sentence_id", "text", 1<<20)
	if err != nil {
		t.Fatalf("load dataset: %v", err)
	}
	return data
}

func TestDoneSetFiltersAndDeduplicates(t *testing.T) {
	st := &memStore{anns: []models.Annotation{
		{AnnotatorID: "alice", SentenceID: "s1", Label: models.LabelPositive},
		{AnnotatorID: "alice", SentenceID: "s1", Label: models.LabelNegative},
		{AnnotatorID: "alice", SentenceID: "s2", Label: models.LabelPositive},
		{AnnotatorID: "bob", SentenceID: "s3", Label: models.LabelPositive},
	}}

	done, err := DoneSet(context.Background(), st, "alice")
	if err != nil {
		t.Fatalf("DoneSet: %v", err)
	}
	if len(done) != 2 {
		t.Fatalf("expected 2 distinct sentences, got %d", len(done))
	}
	if _, ok := done["s3"]; ok {
		t.Fatalf("bob's sentence leaked into alice's done set")
	}
}

func TestDoneSetPropagatesStoreError(t *testing.T) {
	boom := errors.New("backend gone")
	st := &memStore{listErr: boom}
	if _, err := DoneSet(context.Background(), st, "alice"); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestSummarizeCapsDoneAtTotal(t *testing.T) {
	done := map[string]struct{}{"s1": {}, "s2": {}, "gone-a": {}, "gone-b": {}}
	p := Summarize("alice", done, 3)
	if p.Done != 3 || p.Remaining != 0 || !p.Exhausted {
		t.Fatalf("unexpected summary: %+v", p)
	}
}

func TestForAnnotator(t *testing.T) {
	data := testCatalog(t, "s1", "s2", "s3")
	st := &memStore{anns: []models.Annotation{
		{AnnotatorID: "alice", SentenceID: "s1", Label: models.LabelPositive},
		{AnnotatorID: "alice", SentenceID: "s1", Label: models.LabelPositive},
		{AnnotatorID: "alice", SentenceID: "s2", Label: models.LabelNegative},
	}}

	p, err := ForAnnotator(context.Background(), st, data, "alice")
	if err != nil {
		t.Fatalf("ForAnnotator: %v", err)
	}
	if p.Done != 2 || p.Total != 3 || p.Remaining != 1 || p.Exhausted {
		t.Fatalf("unexpected progress: %+v", p)
	}

	empty, err := ForAnnotator(context.Background(), st, data, "nobody")
	if err != nil {
		t.Fatalf("ForAnnotator nobody: %v", err)
	}
	if empty.Done != 0 || empty.Remaining != 3 {
		t.Fatalf("unexpected progress for unknown annotator: %+v", empty)
	}
}

func TestCoverageKeepsCatalogOrderAndZeros(t *testing.T) {
	data := testCatalog(t, "s1", "s2", "s3")
	st := &memStore{anns: []models.Annotation{
		{AnnotatorID: "alice", SentenceID: "s2", Label: models.LabelPositive},
		{AnnotatorID: "bob", SentenceID: "s2", Label: models.LabelNegative},
		{AnnotatorID: "alice", SentenceID: "s3", Label: models.LabelPositive},
	}}

	cov, err := Coverage(context.Background(), st, data)
	if err != nil {
		t.Fatalf("Coverage: %v", err)
	}
	if len(cov) != 3 {
		t.Fatalf("expected one entry per catalog sentence, got %d", len(cov))
	}
	want := []SentenceCoverage{
		{SentenceID: "s1", Count: 0},
		{SentenceID: "s2", Count: 2},
		{SentenceID: "s3", Count: 1},
	}
	for i := range want {
		if cov[i] != want[i] {
			t.Fatalf("coverage[%d] = %+v, want %+v", i, cov[i], want[i])
		}
	}
}
