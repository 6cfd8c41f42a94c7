package stationd

import "sync"

// Hub fans tick snapshots out to stream subscribers, keyed by run id.
// Slow subscribers drop messages instead of blocking the executor loop.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan []byte]struct{})}
}

// Subscribe registers a listener for one run and returns its channel and
// an unsubscribe func.
func (h *Hub) Subscribe(runID string) (<-chan []byte, func()) {
	ch := make(chan []byte, 16)

	h.mu.Lock()
	if h.subs[runID] == nil {
		h.subs[runID] = make(map[chan []byte]struct{})
	}
	h.subs[runID][ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		if set, ok := h.subs[runID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, runID)
			}
		}
		h.mu.Unlock()
	}
}

// Publish sends a payload to every subscriber of the run. Full buffers are
// skipped.
func (h *Hub) Publish(runID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[runID] {
		select {
		case ch <- payload:
		default:
		}
	}
}

// Subscribers reports the current listener count for a run.
func (h *Hub) Subscribers(runID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[runID])
}
