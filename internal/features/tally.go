package features

import (
	"sort"
	"sync"
)

// UnmappedCount is how often one unmapped value has been seen.
type UnmappedCount struct {
	Field string `json:"field"`
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Tally counts unmapped vocabulary so alias tables can be extended, and
// forwards each sighting to any further observers.
type Tally struct {
	mu     sync.Mutex
	counts map[[2]string]int
	next   []Observer
}

// NewTally returns a Tally that also forwards to next.
func NewTally(next ...Observer) *Tally {
	return &Tally{counts: make(map[[2]string]int), next: next}
}

// Unmapped implements Observer.
func (t *Tally) Unmapped(field, value string) {
	t.mu.Lock()
	t.counts[[2]string{field, value}]++
	t.mu.Unlock()

	for _, o := range t.next {
		o.Unmapped(field, value)
	}
}

// Snapshot returns the counts, most frequent first.
func (t *Tally) Snapshot() []UnmappedCount {
	t.mu.Lock()
	out := make([]UnmappedCount, 0, len(t.counts))
	for k, n := range t.counts {
		out = append(out, UnmappedCount{Field: k[0], Value: k[1], Count: n})
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].Value < out[j].Value
	})
	return out
}
