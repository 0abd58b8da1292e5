package geolib

import "sync"

// History is an in-memory ordered list of results tracked by
// orchestrator. Report and map generators consume it.
type History struct {
	mutex   sync.RWMutex
	entries []ReconciledResult
}

func (h *History) Append(result ReconciledResult) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.entries = append(h.entries, result)
}

// Entries returns a snapshot of the history in insertion order.
func (h *History) Entries() []ReconciledResult {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	rv := make([]ReconciledResult, len(h.entries))

	copy(rv, h.entries)

	return rv
}
