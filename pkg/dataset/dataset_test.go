package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "sentences.csv")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return p
}

func TestLoadIndexesRows(t *testing.T) {
	p := writeCSV(t, "sentence_id,opposite_framing_sentence\n"+
		"s1,The glass is half full\n"+
		"s2,The glass is half empty\n"+
		"s3,Traffic was light today\n")
	c, err := Load(p, "sentence_id", "opposite_framing_sentence", 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("expected 3 sentences, got %d", c.Len())
	}
	ids := c.IDs()
	want := []string{"s1", "s2", "s3"}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("ids[%d] = %q, want %q", i, ids[i], id)
		}
	}
	s, ok := c.Get("s2")
	if !ok || s.Text != "The glass is half empty" {
		t.Fatalf("unexpected sentence for s2: %+v ok=%v", s, ok)
	}
	if _, ok := c.Get("nope"); ok {
		t.Fatalf("expected miss for unknown id")
	}
}

func TestLoadMissingColumn(t *testing.T) {
	p := writeCSV(t, "id,text\na,b\n")
	if _, err := Load(p, "sentence_id", "opposite_framing_sentence", 0); err == nil {
		t.Fatalf("expected error for missing columns")
	}
}

func TestLoadDuplicateIDFirstWins(t *testing.T) {
	p := writeCSV(t, "sentence_id,opposite_framing_sentence\n"+
		"s1,first\n"+
		"s1,second\n")
	c, err := Load(p, "sentence_id", "opposite_framing_sentence", 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 sentence, got %d", c.Len())
	}
	if s, _ := c.Get("s1"); s.Text != "first" {
		t.Fatalf("expected first occurrence to win, got %q", s.Text)
	}
}

func TestLoadSkipsEmptyID(t *testing.T) {
	p := writeCSV(t, "sentence_id,opposite_framing_sentence\n"+
		",orphan text\n"+
		"s1,kept\n")
	c, err := Load(p, "sentence_id", "opposite_framing_sentence", 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Len() != 1 || !c.Has("s1") {
		t.Fatalf("expected only s1, got %v", c.IDs())
	}
}

func TestLoadSizeLimit(t *testing.T) {
	p := writeCSV(t, "sentence_id,opposite_framing_sentence\ns1,text\n")
	if _, err := Load(p, "sentence_id", "opposite_framing_sentence", 10); err == nil {
		t.Fatalf("expected size limit error")
	}
}

func TestLoadNoUsableRows(t *testing.T) {
	p := writeCSV(t, "sentence_id,opposite_framing_sentence\n")
	if _, err := Load(p, "sentence_id", "opposite_framing_sentence", 0); err == nil {
		t.Fatalf("expected error for empty dataset")
	}
}
