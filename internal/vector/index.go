// Package vector scores query embeddings against small sets of labelled anchor vectors.
package vector

// Match is the similarity of a query to one anchor.
type Match struct {
	Label string
	Score float64 // cosine similarity
}

// Scorer ranks labelled anchors against a query embedding.
type Scorer interface {
	Nearest(query []float32) (Match, error)
	Rank(query []float32) ([]Match, error)
	Len() int
}
