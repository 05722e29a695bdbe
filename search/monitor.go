package search

import (
	"github.com/poiesic/sketchdex/core"
	"github.com/poiesic/sketchdex/index"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query *core.SearchQuery)
	AfterFastStage(matches []index.Match)
	AfterLexicalBoost(matches []index.Match)
	AfterRerank(matches []index.Match)
	Degraded(reason string)
	Finish(results []core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *core.SearchQuery)          {}
func (n *noopMonitor) AfterFastStage(_ []index.Match)     {}
func (n *noopMonitor) AfterLexicalBoost(_ []index.Match)  {}
func (n *noopMonitor) AfterRerank(_ []index.Match)        {}
func (n *noopMonitor) Degraded(_ string)                  {}
func (n *noopMonitor) Finish(_ []core.SearchResult)       {}
