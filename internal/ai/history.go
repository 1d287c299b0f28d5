package ai

import "sync"

// Kind identifies what an AI result was produced for.
type Kind string

const (
	KindAnalysis    Kind = "analysis"
	KindReply       Kind = "reply"
	KindTranslation Kind = "translation"
	KindInbox       Kind = "inbox"
)

// Result is one generated text kept for the AI panel.
type Result struct {
	Kind      Kind
	MessageID string
	Label     string // tone or target language
	Text      string
}

// History keeps the most recent AI results, trimming the oldest entries
// when the limit is reached. It is safe for concurrent use.
type History struct {
	mu         sync.Mutex
	results    []Result
	maxResults int
}

// NewHistory creates a history holding at most 20 results.
func NewHistory() *History {
	return &History{
		results:    make([]Result, 0, 20),
		maxResults: 20,
	}
}

// Add appends a result, dropping the oldest one once the limit is exceeded.
func (h *History) Add(r Result) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.results = append(h.results, r)
	if len(h.results) > h.maxResults {
		excess := len(h.results) - h.maxResults
		h.results = append(h.results[:0:0], h.results[excess:]...)
	}
}

// ForMessage returns the results for a message, oldest first.
func (h *History) ForMessage(messageID string) []Result {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []Result
	for _, r := range h.results {
		if r.MessageID == messageID {
			out = append(out, r)
		}
	}
	return out
}

// Latest returns the newest result of the given kind for a message.
func (h *History) Latest(messageID string, kind Kind) (Result, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := len(h.results) - 1; i >= 0; i-- {
		r := h.results[i]
		if r.MessageID == messageID && r.Kind == kind {
			return r, true
		}
	}
	return Result{}, false
}

// Reset clears all results. Called when the active mailbox changes.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.results = h.results[:0]
}

// Len returns the number of stored results.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.results)
}
