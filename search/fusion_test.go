package search

import (
	"testing"

	"github.com/poiesic/sketchdex/core"
	"github.com/poiesic/sketchdex/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ref(doc core.ID, page int) core.PageRef {
	return core.PageRef{DocId: doc, PageNum: page}
}

func TestFuseScoresBoostsLexicalOverlap(t *testing.T) {
	vector := []index.Match{
		{Ref: ref(1, 1), Score: 0.90},
		{Ref: ref(2, 1), Score: 0.88},
	}
	lexical := []index.Match{
		{Ref: ref(2, 1), Score: 4.2},
	}

	fused := FuseScores(vector, lexical, 0.7, 0.3)
	require.Len(t, fused, 2)

	// The lexical match gets the full normalized boost and overtakes.
	assert.Equal(t, ref(2, 1), fused[0].Ref)
	assert.InDelta(t, 0.7*0.88+0.3, fused[0].Score, 1e-6)
	assert.InDelta(t, 0.7*0.90, fused[1].Score, 1e-6)
}

func TestFuseScoresNormalizesByBestLexicalScore(t *testing.T) {
	vector := []index.Match{
		{Ref: ref(1, 1), Score: 0.5},
		{Ref: ref(1, 2), Score: 0.5},
	}
	lexical := []index.Match{
		{Ref: ref(1, 1), Score: 8.0},
		{Ref: ref(1, 2), Score: 2.0},
	}

	fused := FuseScores(vector, lexical, 0.5, 0.5)
	require.Len(t, fused, 2)
	assert.Equal(t, ref(1, 1), fused[0].Ref)
	assert.InDelta(t, 0.5*0.5+0.5*1.0, fused[0].Score, 1e-6)
	assert.InDelta(t, 0.5*0.5+0.5*0.25, fused[1].Score, 1e-6)
}

func TestFuseScoresNeverIntroducesCandidates(t *testing.T) {
	vector := []index.Match{
		{Ref: ref(1, 1), Score: 0.9},
	}
	lexical := []index.Match{
		{Ref: ref(1, 1), Score: 1.0},
		{Ref: ref(9, 9), Score: 10.0}, // lexical-only, must not appear
	}

	fused := FuseScores(vector, lexical, 0.7, 0.3)
	require.Len(t, fused, 1)
	assert.Equal(t, ref(1, 1), fused[0].Ref)
}

func TestFuseScoresPassthrough(t *testing.T) {
	vector := []index.Match{
		{Ref: ref(1, 1), Score: 0.9},
		{Ref: ref(2, 1), Score: 0.8},
	}

	assert.Equal(t, vector, FuseScores(vector, nil, 0.7, 0.3))
	assert.Equal(t, vector, FuseScores(vector, []index.Match{{Ref: ref(2, 1), Score: 1.0}}, 0.7, 0))
}

func TestFuseScoresResultIsSorted(t *testing.T) {
	vector := []index.Match{
		{Ref: ref(1, 1), Score: 0.6},
		{Ref: ref(2, 1), Score: 0.5},
		{Ref: ref(3, 1), Score: 0.4},
	}
	lexical := []index.Match{
		{Ref: ref(3, 1), Score: 5.0},
	}

	fused := FuseScores(vector, lexical, 0.5, 0.5)
	for i := 1; i < len(fused); i++ {
		assert.GreaterOrEqual(t, fused[i-1].Score, fused[i].Score)
	}
	assert.Equal(t, ref(3, 1), fused[0].Ref)
}
