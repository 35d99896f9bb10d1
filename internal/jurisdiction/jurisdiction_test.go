package jurisdiction

import (
	"context"
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/fouadroumieh/legal-assistant/internal/ner"
)

type fakeRecognizer struct {
	entities []ner.Entity
	err      error
	seen     string
	calls    int
}

func (f *fakeRecognizer) Recognize(_ context.Context, text string) ([]ner.Entity, error) {
	f.calls++
	f.seen = text
	return f.entities, f.err
}

func TestDetect_hints(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"delaware", "governed by the laws of the State of Delaware.", "US"},
		{"germany", "This Agreement is subject to the laws of Germany.", "DE"},
		{"england", "Governed by the laws of England and Wales", "UK"},
		{"south africa", "Republic of South Africa", "ZA"},
		{"dubai", "courts of Dubai", "AE"},
		{"priority US before DE", "Germany-based supplier, New York courts", "US"},
		{"substring hit inside word", "causal analysis", "US"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecognizer{}
			got, err := NewDetector(rec).Detect(context.Background(), tt.text)
			if err != nil {
				t.Fatal(err)
			}
			if got.Code != tt.want || got.Confidence != HintConfidence {
				t.Errorf("Detect = %+v, want %s@%.2f", got, tt.want, HintConfidence)
			}
			if rec.calls != 0 {
				t.Error("recognizer must not run when a hint matched")
			}
		})
	}
}

func TestDetect_entityFallback(t *testing.T) {
	rec := &fakeRecognizer{entities: []ner.Entity{
		{Text: "Acme Inc", Type: ner.TypeOrg},
		{Text: "the Emirate of Abu Dhabi", Type: ner.TypeLoc},
		{Text: "England", Type: ner.TypeGPE},
	}}
	got, err := NewDetector(rec).Detect(context.Background(), "Place of performance per annex.")
	if err != nil {
		t.Fatal(err)
	}
	// UK outranks AE regardless of entity order
	if got.Code != "UK" || got.Confidence != EntityConfidence {
		t.Errorf("Detect = %+v", got)
	}
}

func TestDetect_entityTextLimit(t *testing.T) {
	rec := &fakeRecognizer{}
	long := make([]rune, EntityScanRunes+500)
	for i := range long {
		long[i] = 'ß'
	}
	if _, err := NewDetector(rec).Detect(context.Background(), string(long)); err != nil {
		t.Fatal(err)
	}
	if n := utf8.RuneCountInString(rec.seen); n != EntityScanRunes {
		t.Errorf("recognizer saw %d runes", n)
	}
}

func TestDetect_nothing(t *testing.T) {
	rec := &fakeRecognizer{entities: []ner.Entity{{Text: "France", Type: ner.TypeGPE}, {Text: "Germany Ltd", Type: ner.TypeOrg}}}
	got, err := NewDetector(rec).Detect(context.Background(), "French law applies.")
	if err != nil {
		t.Fatal(err)
	}
	if got != (Result{}) {
		t.Errorf("Detect = %+v, want empty", got)
	}
	got, err = NewDetector(nil).Detect(context.Background(), "French law applies.")
	if err != nil || got != (Result{}) {
		t.Errorf("nil recognizer: %+v, %v", got, err)
	}
}

func TestDetect_recognizerError(t *testing.T) {
	boom := errors.New("ner down")
	got, err := NewDetector(&fakeRecognizer{err: boom}).Detect(context.Background(), "no hints here")
	if !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if got != (Result{}) {
		t.Errorf("result = %+v, want empty", got)
	}
}
