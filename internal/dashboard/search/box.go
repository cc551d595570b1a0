package search

import (
	"sync"

	"github.com/wonny/covidwatch/internal/dashboard/render"
)

// Debouncer delays a call until input has been quiet
type Debouncer interface {
	Call(fn func())
}

// Box is a search input bound to an index and a suggestion list
type Box struct {
	preset    Preset
	renderer  render.SuggestionRenderer
	debouncer Debouncer

	mu    sync.RWMutex
	index *Index
}

// NewBox creates a search box; without a debouncer every keystroke searches
func NewBox(index *Index, p Preset, r render.SuggestionRenderer, d Debouncer) *Box {
	if index == nil {
		index = NewIndex(nil)
	}
	return &Box{index: index, preset: p, renderer: r, debouncer: d}
}

// SetIndex swaps the index once the country list has loaded
func (b *Box) SetIndex(ix *Index) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.index = ix
}

// Input handles a change of the search term
func (b *Box) Input(term string) {
	if b.debouncer == nil {
		b.suggest(term)
		return
	}
	b.debouncer.Call(func() { b.suggest(term) })
}

func (b *Box) suggest(term string) {
	b.mu.RLock()
	ix := b.index
	b.mu.RUnlock()

	b.renderer.RenderSuggestions(ix.SuggestFor(term, b.preset))
}
