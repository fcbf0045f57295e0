// Package metric implements the similarity/distance functions vector search
// ranks by: cosine similarity, Euclidean distance, and dot product.
package metric

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// Kind identifies one of the three supported distance metrics.
type Kind string

const (
	Cosine    Kind = "cosine"
	Euclidean Kind = "euclidean"
	Dot       Kind = "dot"
)

// Valid reports whether k names a supported metric.
func (k Kind) Valid() bool {
	switch k {
	case Cosine, Euclidean, Dot:
		return true
	default:
		return false
	}
}

// CosineSimilarity returns dot(a,b) / (||a||*||b||), in [-1, 1]. If either
// vector has zero norm, similarity is defined as 0.
func CosineSimilarity(a, b []float32) float32 {
	dot := vek32.Dot(a, b)
	normA := float32(math.Sqrt(float64(vek32.Dot(a, a))))
	normB := float32(math.Sqrt(float64(vek32.Dot(b, b))))
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (normA * normB)
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim
}

// EuclideanDistance returns sqrt(sum((a_i-b_i)^2)), in [0, +inf).
func EuclideanDistance(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return float32(math.Sqrt(float64(sum)))
}

// DotProduct returns sum(a_i*b_i).
func DotProduct(a, b []float32) float32 {
	return vek32.Dot(a, b)
}

// Score computes the ranking score for a and b under the metric: higher is
// always better, so Euclidean distance is negated.
func Score(k Kind, a, b []float32) float32 {
	switch k {
	case Cosine:
		return CosineSimilarity(a, b)
	case Euclidean:
		return -EuclideanDistance(a, b)
	case Dot:
		return DotProduct(a, b)
	default:
		return CosineSimilarity(a, b)
	}
}

// Ranked is the minimal shape Compare needs: a score plus the two tie-break
// keys (chunk id, insertion order) shared by every index implementation.
type Ranked interface {
	RankScore() float32
	RankID() string
	RankSeq() int
}

// Compare orders two ranked results best-first: score descending, then
// chunk id ascending, then insertion order ascending. It returns true if a
// should sort before b.
func Compare(a, b Ranked) bool {
	sa, sb := a.RankScore(), b.RankScore()
	if sa != sb {
		return sa > sb
	}
	ia, ib := a.RankID(), b.RankID()
	if ia != ib {
		return ia < ib
	}
	return a.RankSeq() < b.RankSeq()
}
