package search

import (
	"github.com/poiesic/sketchdex/core"
	"github.com/poiesic/sketchdex/index"
)

// FuseScores combines vector similarity with a lexical boost via a weighted
// sum over the vector candidate set. Lexical scores are raw BM25 and live on
// a different scale, so they are normalized by the best lexical score before
// mixing. Candidates found only by the lexical index are not introduced;
// the vector stage defines the candidate set.
func FuseScores(vector, lexical []index.Match, vectorWeight, lexicalWeight float32) []index.Match {
	if len(lexical) == 0 || lexicalWeight == 0 {
		return vector
	}

	maxLex := lexical[0].Score
	for _, m := range lexical[1:] {
		if m.Score > maxLex {
			maxLex = m.Score
		}
	}
	if maxLex <= 0 {
		return vector
	}

	lexScores := make(map[core.PageRef]float32, len(lexical))
	for _, m := range lexical {
		lexScores[m.Ref] = m.Score / maxLex
	}

	fused := make([]index.Match, len(vector))
	for i, m := range vector {
		fused[i] = index.Match{
			Ref:   m.Ref,
			Score: vectorWeight*m.Score + lexicalWeight*lexScores[m.Ref],
		}
	}

	index.SortMatches(fused)
	return fused
}

// dot is the inner product of two equal-length vectors. Both sides are
// normalized before reranking, so this is cosine similarity.
func dot(a, b []float32) float32 {
	var sum float32
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
