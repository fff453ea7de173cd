package app

import (
	"sort"
	"sync"
	"time"

	"billing-service/internal/core"
)

// pendingWrite is a document write that storage has not confirmed.
type pendingWrite struct {
	Doc core.Document

	// LocalID is set when the id came from the local allocator because the
	// sequence could not be reached. Reconcile renumbers it from the server.
	LocalID bool

	// RenumberedFrom is the local id replaced by the server sequence, kept
	// until the renumbered document is stored.
	RenumberedFrom string

	// Obsolete lists rows to delete once Doc is stored, e.g. a finalized
	// draft's provisional id.
	Obsolete []string

	QueuedAt time.Time
}

type outboxKey struct {
	account string
	id      string
}

// Outbox holds pending writes in memory, keyed by account and document id.
type Outbox struct {
	mu      sync.Mutex
	entries map[outboxKey]*pendingWrite
}

// NewOutbox returns an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{entries: make(map[outboxKey]*pendingWrite)}
}

// Put queues w, replacing any write queued under the same id.
func (o *Outbox) Put(w pendingWrite) {
	o.mu.Lock()
	defer o.mu.Unlock()
	w.Doc = cloneDocument(w.Doc)
	w.Obsolete = append([]string(nil), w.Obsolete...)
	o.entries[outboxKey{w.Doc.UserID, w.Doc.ID}] = &w
}

// Get returns the queued version of a document.
func (o *Outbox) Get(accountID, id string) (pendingWrite, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	w, ok := o.entries[outboxKey{accountID, id}]
	if !ok {
		return pendingWrite{}, false
	}
	return w.copy(), true
}

// Remove drops a queued write and reports whether one existed.
func (o *Outbox) Remove(accountID, id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	key := outboxKey{accountID, id}
	_, ok := o.entries[key]
	delete(o.entries, key)
	return ok
}

// List returns the account's queued writes, oldest first.
func (o *Outbox) List(accountID string) []pendingWrite {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []pendingWrite
	for key, w := range o.entries {
		if key.account == accountID {
			out = append(out, w.copy())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QueuedAt.Equal(out[j].QueuedAt) {
			return out[i].Doc.ID < out[j].Doc.ID
		}
		return out[i].QueuedAt.Before(out[j].QueuedAt)
	})
	return out
}

// Count returns the number of queued writes for an account.
func (o *Outbox) Count(accountID string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for key := range o.entries {
		if key.account == accountID {
			n++
		}
	}
	return n
}

func (w *pendingWrite) copy() pendingWrite {
	c := *w
	c.Doc = cloneDocument(w.Doc)
	c.Obsolete = append([]string(nil), w.Obsolete...)
	return c
}

// cloneDocument copies the slices a caller could mutate in place.
func cloneDocument(d core.Document) core.Document {
	d.Items = append([]core.LineItem(nil), d.Items...)
	d.Timeline = append([]core.TimelineEvent(nil), d.Timeline...)
	if d.Discount != nil {
		disc := *d.Discount
		d.Discount = &disc
	}
	return d
}
