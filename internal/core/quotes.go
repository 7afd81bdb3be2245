package core

import "sync"

// DefaultQuotes is the motivational quote rotation shown under the board.
var DefaultQuotes = []string{
	"The secret of getting ahead is getting started.",
	"Small daily improvements are the key to staggering long-term results.",
	"Focus on being productive instead of busy.",
	"Done is better than perfect.",
	"What gets measured gets managed.",
	"Momentum is built one finished task at a time.",
}

// QuoteRotator cycles through a fixed list of quotes. Refresh is the delayed
// side effect of a celebration.
type QuoteRotator struct {
	mu     sync.Mutex
	quotes []string
	idx    int
	bus    *Bus
}

// NewQuoteRotator creates a rotator over quotes, falling back to
// DefaultQuotes when quotes is empty. bus may be nil.
func NewQuoteRotator(quotes []string, bus *Bus) *QuoteRotator {
	if len(quotes) == 0 {
		quotes = DefaultQuotes
	}
	return &QuoteRotator{
		quotes: append([]string(nil), quotes...),
		bus:    bus,
	}
}

// Current returns the quote on display.
func (q *QuoteRotator) Current() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.quotes[q.idx]
}

// Refresh advances to the next quote, publishes it, and returns it.
func (q *QuoteRotator) Refresh() string {
	q.mu.Lock()
	q.idx = (q.idx + 1) % len(q.quotes)
	quote := q.quotes[q.idx]
	q.mu.Unlock()

	q.bus.Publish(Event{Topic: TopicQuoteRefreshed, Message: quote})
	return quote
}
