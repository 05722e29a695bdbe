package index

import (
	"context"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/poiesic/sketchdex/core"
	"github.com/poiesic/sketchdex/storage"
)

// BM25 parameters. Standard Okapi values.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// LexicalIndex is a term-frequency index over extracted page text, used as
// a secondary signal to boost vector-search candidates that also match a
// text query. It lives in process memory and is rebuilt from the stored
// page text on startup, so it round-trips with the catalog.
type LexicalIndex struct {
	mu           sync.RWMutex
	termFreqs    map[core.PageRef]map[string]int
	pageLens     map[core.PageRef]int
	docFreqs     map[string]int
	totalLen     int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewLexicalIndex creates an empty lexical index.
func NewLexicalIndex() *LexicalIndex {
	return &LexicalIndex{
		termFreqs:    make(map[core.PageRef]map[string]int),
		pageLens:     make(map[core.PageRef]int),
		docFreqs:     make(map[string]int),
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
	}
}

// Load rebuilds the index from every stored page with a text layer.
func (ix *LexicalIndex) Load(ctx context.Context, docs storage.DocumentRepository) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.termFreqs = make(map[core.PageRef]map[string]int)
	ix.pageLens = make(map[core.PageRef]int)
	ix.docFreqs = make(map[string]int)
	ix.totalLen = 0

	return docs.ForEachPage(ctx, func(page *core.Page) error {
		if page.Text == "" {
			return nil
		}
		ix.addLocked(core.PageRef{DocId: page.DocId, PageNum: page.PageNum}, page.Text)
		return nil
	})
}

// Add indexes the text of one page, replacing any prior text for that page.
func (ix *LexicalIndex) Add(ref core.PageRef, text string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.removeLocked(ref)
	if text != "" {
		ix.addLocked(ref, text)
	}
}

// RemoveDocument drops every page of a document from the index.
func (ix *LexicalIndex) RemoveDocument(docID core.ID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for ref := range ix.termFreqs {
		if ref.DocId == docID {
			ix.removeLocked(ref)
		}
	}
}

// Search scores pages against the query with BM25 and returns up to k
// matches with positive scores, ordered by descending score with
// (doc, page) ascending tie-break. Scores are raw BM25; callers normalize
// before mixing them with other signals.
func (ix *LexicalIndex) Search(query string, k int) []Match {
	terms := ix.tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := len(ix.termFreqs)
	if n == 0 {
		return nil
	}
	avgLen := float64(ix.totalLen) / float64(n)

	var matches []Match
	for ref, freqs := range ix.termFreqs {
		var score float64
		pageLen := float64(ix.pageLens[ref])
		for _, term := range terms {
			tf := float64(freqs[term])
			if tf == 0 {
				continue
			}
			df := float64(ix.docFreqs[term])
			idf := math.Log(1 + (float64(n)-df+0.5)/(df+0.5))
			score += idf * (tf * (bm25K1 + 1)) / (tf + bm25K1*(1-bm25B+bm25B*pageLen/avgLen))
		}
		if score > 0 {
			matches = append(matches, Match{Ref: ref, Score: float32(score)})
		}
	}

	SortMatches(matches)
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches
}

// Pages returns the number of pages holding indexed text.
func (ix *LexicalIndex) Pages() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.termFreqs)
}

// addLocked indexes page text. Must be called with the write lock held.
func (ix *LexicalIndex) addLocked(ref core.PageRef, text string) {
	tokens := ix.tokenize(text)
	if len(tokens) == 0 {
		return
	}

	freqs := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		freqs[tok]++
	}
	for term := range freqs {
		ix.docFreqs[term]++
	}

	ix.termFreqs[ref] = freqs
	ix.pageLens[ref] = len(tokens)
	ix.totalLen += len(tokens)
}

// removeLocked drops one page. Must be called with the write lock held.
func (ix *LexicalIndex) removeLocked(ref core.PageRef) {
	freqs, ok := ix.termFreqs[ref]
	if !ok {
		return
	}
	for term := range freqs {
		ix.docFreqs[term]--
		if ix.docFreqs[term] <= 0 {
			delete(ix.docFreqs, term)
		}
	}
	ix.totalLen -= ix.pageLens[ref]
	delete(ix.termFreqs, ref)
	delete(ix.pageLens, ref)
}

// tokenize splits text into lowercase word tokens with stop words removed.
func (ix *LexicalIndex) tokenize(text string) []string {
	lower := strings.ToLower(text)
	raw := ix.tokenPattern.FindAllString(lower, -1)
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if _, isStop := ix.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"the", "a", "an", "be", "is", "are", "was", "to", "of", "and",
		"in", "that", "have", "it", "for", "not", "on", "with", "as",
		"you", "do", "at", "this", "but", "by", "from",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
