package docid

import (
	"testing"

	"github.com/google/uuid"
)

func TestFromLocation(t *testing.T) {
	id1 := FromLocation("legal-docs", "contracts/nda.pdf")
	id2 := FromLocation("legal-docs", "contracts/nda.pdf")
	if id1 != id2 {
		t.Errorf("same location should give same ID: %q vs %q", id1, id2)
	}
	if id1 != "2817df14-09ba-5262-9e15-c5fd9ab7f4ce" {
		t.Errorf("FromLocation = %q", id1)
	}
	parsed, err := uuid.Parse(id1)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Version() != 5 {
		t.Errorf("version = %d, want 5", parsed.Version())
	}
}

func TestFromLocation_differentKeys(t *testing.T) {
	if FromLocation("b", "a.pdf") == FromLocation("b", "c.pdf") {
		t.Error("different keys should give different IDs")
	}
	if FromLocation("b1", "a.pdf") == FromLocation("b2", "a.pdf") {
		t.Error("different buckets should give different IDs")
	}
}

func TestRandom(t *testing.T) {
	a, b := Random(), Random()
	if a == b {
		t.Error("random IDs should differ")
	}
	if u, err := uuid.Parse(a); err != nil || u.Version() != 4 {
		t.Errorf("Random() = %q, %v", a, err)
	}
}
