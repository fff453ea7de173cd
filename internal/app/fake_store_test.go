package app_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"billing-service/internal/core"
	"billing-service/internal/store"
)

// fakeStore is an in-memory DocumentStore that can be switched offline.
type fakeStore struct {
	mu        sync.Mutex
	offline   bool
	rejectIDs map[string]error
	docs      map[string]core.Document
	clients   map[string]core.Client
	seq       map[string]int
	audit     []store.AuditEntry
	deletes   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rejectIDs: map[string]error{},
		docs:      map[string]core.Document{},
		clients:   map[string]core.Client{},
		seq:       map[string]int{},
	}
}

func key(account, id string) string { return account + "/" + id }

func (f *fakeStore) setOffline(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = v
}

func (f *fakeStore) down() error {
	if f.offline {
		return fmt.Errorf("dial tcp: %w", core.ErrUnreachable)
	}
	return nil
}

func (f *fakeStore) Upsert(_ context.Context, doc *core.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.down(); err != nil {
		return err
	}
	if err := f.rejectIDs[doc.ID]; err != nil {
		return err
	}
	doc.Recompute()
	f.docs[key(doc.UserID, doc.ID)] = *doc
	f.audit = append(f.audit, store.AuditEntry{UserID: doc.UserID, Action: store.ActionUpsert, EntityID: doc.ID})
	return nil
}

func (f *fakeStore) FetchAll(_ context.Context, accountID string) ([]core.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.down(); err != nil {
		return nil, err
	}
	var out []core.Document
	for k, d := range f.docs {
		if strings.HasPrefix(k, accountID+"/") {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, accountID, id string) (*core.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.down(); err != nil {
		return nil, err
	}
	d, ok := f.docs[key(accountID, id)]
	if !ok {
		return nil, fmt.Errorf("document: %w", core.ErrNotFound)
	}
	return &d, nil
}

func (f *fakeStore) Delete(_ context.Context, accountID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.down(); err != nil {
		return err
	}
	if _, ok := f.docs[key(accountID, id)]; !ok {
		return fmt.Errorf("document %s: %w", id, core.ErrNotFound)
	}
	delete(f.docs, key(accountID, id))
	f.deletes = append(f.deletes, id)
	return nil
}

func (f *fakeStore) ReserveID(_ context.Context, accountID string, docType core.DocumentType, prefix string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.down(); err != nil {
		return "", err
	}
	existing := map[string]struct{}{}
	for k := range f.docs {
		if strings.HasPrefix(k, accountID+"/") {
			existing[strings.TrimPrefix(k, accountID+"/")] = struct{}{}
		}
	}
	sk := accountID + string(docType) + prefix
	f.seq[sk]++
	id, used := core.AllocateID(prefix, f.seq[sk], existing)
	f.seq[sk] = used
	return id, nil
}

func (f *fakeStore) UpsertClient(_ context.Context, c *core.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.down(); err != nil {
		return err
	}
	f.clients[key(c.UserID, c.ID)] = *c
	return nil
}

func (f *fakeStore) ListClients(_ context.Context, accountID string) ([]core.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.down(); err != nil {
		return nil, err
	}
	var out []core.Client
	for k, c := range f.clients {
		if strings.HasPrefix(k, accountID+"/") {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteClient(_ context.Context, accountID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[key(accountID, id)]; !ok {
		return fmt.Errorf("client %s: %w", id, core.ErrNotFound)
	}
	delete(f.clients, key(accountID, id))
	return nil
}

func (f *fakeStore) ListAudit(_ context.Context, accountID string, limit int) ([]store.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.AuditEntry
	for i := len(f.audit) - 1; i >= 0 && len(out) < limit; i-- {
		if f.audit[i].UserID == accountID {
			out = append(out, f.audit[i])
		}
	}
	return out, nil
}
