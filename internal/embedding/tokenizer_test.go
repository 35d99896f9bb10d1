package embedding

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSimpleTokenizer_Tokenize(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, types := tok.Tokenize("hello world", 10)
	if len(ids) != 10 || len(attn) != 10 || len(types) != 10 {
		t.Fatalf("lengths %d %d %d", len(ids), len(attn), len(types))
	}
	if ids[0] != 101 {
		t.Errorf("expected CLS 101, got %d", ids[0])
	}
	if ids[3] != 102 {
		t.Errorf("expected SEP at 3, got %d", ids[3])
	}
	if attn[3] != 1 || attn[4] != 0 {
		t.Errorf("attention mask = %v", attn)
	}
}

func TestSimpleTokenizer_truncatesKeepingSep(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, _ := tok.Tokenize(strings.Repeat("word ", 50), 8)
	if ids[7] != 102 {
		t.Errorf("last position should be SEP, got %d", ids[7])
	}
	for i, a := range attn {
		if a != 1 {
			t.Errorf("attn[%d] = 0 on a full sequence", i)
		}
	}
}

func testVocab() map[string]int64 {
	return map[string]int64{
		"[PAD]": 0, "[UNK]": 100, "[CLS]": 101, "[SEP]": 102,
		"un": 7, "##aff": 8, "##able": 9, "agreement": 10, ",": 11,
	}
}

func TestWordPieceTokenizer(t *testing.T) {
	tok, err := NewWordPieceTokenizer(testVocab())
	if err != nil {
		t.Fatal(err)
	}
	ids, attn, _ := tok.Tokenize("Unaffable, agreement zzz!", 12)
	want := []int64{101, 7, 8, 9, 11, 10, 100, 100, 102, 0, 0, 0}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
	if attn[8] != 1 || attn[9] != 0 {
		t.Errorf("attention mask = %v", attn)
	}
}

func TestNewWordPieceTokenizer_missingSpecial(t *testing.T) {
	if _, err := NewWordPieceTokenizer(map[string]int64{"[CLS]": 1}); err == nil {
		t.Error("expected error for vocab without [SEP]/[UNK]")
	}
}

func TestLoadWordPieceTokenizer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	if err := os.WriteFile(path, []byte("[PAD]\n[UNK]\n[CLS]\n[SEP]\nlease\n"), 0644); err != nil {
		t.Fatal(err)
	}
	tok, err := LoadWordPieceTokenizer(path)
	if err != nil {
		t.Fatal(err)
	}
	ids, _, _ := tok.Tokenize("Lease", 4)
	if ids[0] != 2 || ids[1] != 4 || ids[2] != 3 || ids[3] != 0 {
		t.Errorf("ids = %v", ids)
	}
	if _, err := LoadWordPieceTokenizer(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing vocab")
	}
}

func TestSplitWords(t *testing.T) {
	words := SplitWords("  a  b  c  ")
	if len(words) != 3 {
		t.Errorf("expected 3 words, got %v", words)
	}
	if SplitWords("") != nil {
		t.Error("empty string should return nil")
	}
}

func TestHashString(t *testing.T) {
	if HashString("abc") != HashString("abc") {
		t.Error("hash should be deterministic")
	}
	if HashString("abc") == HashString("abd") {
		t.Error("distinct inputs should hash differently")
	}
	if HashString("anything") < 0 {
		t.Error("hash must be non-negative")
	}
}
