package gateway

import (
	"github.com/42wim/matrixircd/bridge"
	lru "github.com/hashicorp/golang-lru"
)

// Ledger remembers handled event ids. With a size it only keeps the most
// recent ids, otherwise it grows for the life of the session.
type Ledger struct {
	seen   map[bridge.EventID]struct{}
	recent *lru.Cache
}

func NewLedger(size int) *Ledger {
	if size > 0 {
		cache, err := lru.New(size)
		if err == nil {
			return &Ledger{recent: cache}
		}

		logger.Errorf("dedup cache of size %d: %s, falling back to unbounded", size, err)
	}

	return &Ledger{seen: make(map[bridge.EventID]struct{})}
}

// Seen reports whether id was recorded. The empty id is never seen.
func (l *Ledger) Seen(id bridge.EventID) bool {
	if id == "" {
		return false
	}

	if l.recent != nil {
		return l.recent.Contains(id)
	}

	_, ok := l.seen[id]

	return ok
}

func (l *Ledger) Record(id bridge.EventID) {
	if id == "" {
		return
	}

	if l.recent != nil {
		l.recent.Add(id, struct{}{})
		return
	}

	l.seen[id] = struct{}{}
}

func (l *Ledger) Len() int {
	if l.recent != nil {
		return l.recent.Len()
	}

	return len(l.seen)
}
