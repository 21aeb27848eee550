package bulk_operation

import "sync"

// ProgressHub fans operation snapshots out to websocket subscribers.
type ProgressHub struct {
	mu   sync.Mutex
	subs map[string]map[chan BulkOperation]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{subs: make(map[string]map[chan BulkOperation]struct{})}
}

// Subscribe returns a channel of snapshots for operation id and a function
// that unsubscribes and closes it.
func (h *ProgressHub) Subscribe(id string) (<-chan BulkOperation, func()) {
	ch := make(chan BulkOperation, 8)

	h.mu.Lock()
	if h.subs[id] == nil {
		h.subs[id] = make(map[chan BulkOperation]struct{})
	}
	h.subs[id][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[id], ch)
			if len(h.subs[id]) == 0 {
				delete(h.subs, id)
			}
			close(ch)
		})
	}
}

// Publish never blocks. A slow subscriber loses its oldest pending snapshot,
// so the latest state (in particular the terminal one) is always delivered.
func (h *ProgressHub) Publish(op BulkOperation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[op.ID.Hex()] {
		for {
			select {
			case ch <- op:
			default:
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}
