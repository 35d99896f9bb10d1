package vector

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrDimensionMismatch is returned when a vector does not match the set's dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrNoAnchors is returned when building a set without anchors.
	ErrNoAnchors = errors.New("no anchors")
)

// AnchorSet holds one unit-length vector per label, in label order. It is
// immutable once built and safe for concurrent use.
type AnchorSet struct {
	dimensions int
	labels     []string
	vectors    [][]float32
}

// NewAnchorSet normalizes and stores vectors[i] under labels[i].
func NewAnchorSet(labels []string, vectors [][]float32) (*AnchorSet, error) {
	if len(labels) != len(vectors) {
		return nil, fmt.Errorf("%d labels for %d vectors", len(labels), len(vectors))
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, ErrNoAnchors
	}
	s := &AnchorSet{
		dimensions: len(vectors[0]),
		labels:     append([]string(nil), labels...),
		vectors:    make([][]float32, len(vectors)),
	}
	for i, v := range vectors {
		if len(v) != s.dimensions {
			return nil, fmt.Errorf("%w: anchor %q has %d, expected %d", ErrDimensionMismatch, labels[i], len(v), s.dimensions)
		}
		s.vectors[i] = Normalized(v)
	}
	return s, nil
}

// Nearest returns the anchor most similar to query. Ties go to the earlier label.
func (s *AnchorSet) Nearest(query []float32) (Match, error) {
	q, err := s.prepare(query)
	if err != nil {
		return Match{}, err
	}
	best := Match{Label: s.labels[0], Score: InnerProduct(q, s.vectors[0])}
	for i := 1; i < len(s.vectors); i++ {
		if score := InnerProduct(q, s.vectors[i]); score > best.Score {
			best = Match{Label: s.labels[i], Score: score}
		}
	}
	return best, nil
}

// Rank scores every anchor against query, most similar first. Equal scores keep label order.
func (s *AnchorSet) Rank(query []float32) ([]Match, error) {
	q, err := s.prepare(query)
	if err != nil {
		return nil, err
	}
	out := make([]Match, len(s.vectors))
	for i, v := range s.vectors {
		out[i] = Match{Label: s.labels[i], Score: InnerProduct(q, v)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// Len returns the number of anchors.
func (s *AnchorSet) Len() int {
	return len(s.labels)
}

// Dimensions returns the anchor vector length.
func (s *AnchorSet) Dimensions() int {
	return s.dimensions
}

func (s *AnchorSet) prepare(query []float32) ([]float32, error) {
	if len(query) != s.dimensions {
		return nil, fmt.Errorf("%w: query has %d, expected %d", ErrDimensionMismatch, len(query), s.dimensions)
	}
	return Normalized(query), nil
}
