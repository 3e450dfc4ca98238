package detector

import (
	"sync"

	"github.com/jaydog12322/Anatta/internal/domain"
)

// QuoteBook holds the latest quote per (instrument, venue) key, latest write
// wins. It is owned by the detector; other components only ever see the
// immutable Quote values it hands back.
type QuoteBook struct {
	mu     sync.RWMutex
	quotes map[string]domain.Quote
}

// NewQuoteBook creates an empty quote book.
func NewQuoteBook() *QuoteBook {
	return &QuoteBook{quotes: make(map[string]domain.Quote)}
}

// bookKey keys the book by venue plus primary-venue code, so both listings of
// one instrument share the instrument identity but not the slot.
func bookKey(v domain.Venue, inst domain.Instrument) string {
	return string(v) + ":" + inst.KRXCode
}

// Put stores q, overwriting any prior quote for the same key.
func (b *QuoteBook) Put(q domain.Quote) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.quotes[bookKey(q.Venue, q.Instrument)] = q
}

// Get returns the latest quote for the given instrument and venue.
func (b *QuoteBook) Get(inst domain.Instrument, v domain.Venue) (domain.Quote, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q, ok := b.quotes[bookKey(v, inst)]
	return q, ok
}

// Len returns the number of populated (instrument, venue) slots.
func (b *QuoteBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.quotes)
}
