package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"billing-service/internal/ai"
	"billing-service/internal/core"
	"billing-service/internal/export"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Settings are the defaults the service applies to new documents.
type Settings struct {
	DefaultCurrency string
	DefaultTaxRate  decimal.Decimal
	Prefixes        map[core.DocumentType]string
	Now             func() time.Time
}

type appService struct {
	store     DocumentStore
	assistant *ai.Assistant
	outbox    *Outbox
	settings  Settings
	log       *zap.Logger

	// seen holds, per account, every id this process has observed and the last
	// stored version of each document. It backs offline id allocation and
	// offline reads.
	mu   sync.Mutex
	seen map[string]map[string]*core.Document
}

// NewAppService constructs an appService that satisfies ApplicationService.
// docs may be nil when no database is configured; storage operations then
// report core.ErrNotConfigured while totals previews keep working.
func NewAppService(docs DocumentStore, assistant *ai.Assistant, settings Settings, log *zap.Logger) ApplicationService {
	if log == nil {
		log = zap.NewNop()
	}
	if assistant == nil {
		assistant = ai.NewAssistant(ai.NewClientWithProviders(log))
	}
	if settings.DefaultCurrency == "" {
		settings.DefaultCurrency = "USD"
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &appService{
		store:     docs,
		assistant: assistant,
		outbox:    NewOutbox(),
		settings:  settings,
		log:       log.Named("app"),
		seen:      make(map[string]map[string]*core.Document),
	}
}

func (s *appService) now() time.Time {
	return s.settings.Now().UTC()
}

func (s *appService) requireStore() error {
	if s.store == nil {
		return core.NewConfigError("document storage", "DATABASE_URL")
	}
	return nil
}

func (s *appService) prefix(t core.DocumentType) string {
	if p := s.settings.Prefixes[t]; p != "" {
		return p
	}
	return core.DefaultPrefix(t)
}

func (s *appService) buildItems(in []ItemInput) []core.LineItem {
	items := make([]core.LineItem, 0, len(in))
	for _, it := range in {
		rate := s.settings.DefaultTaxRate
		if it.TaxRate != nil {
			rate = *it.TaxRate
		}
		items = append(items, core.LineItem{
			ID:          it.ID,
			Description: it.Description,
			Details:     it.Details,
			Quantity:    it.Quantity,
			Price:       it.Price,
			TaxRate:     rate,
		})
	}
	return items
}

// PreviewTotals prices items and a discount without touching storage.
func (s *appService) PreviewTotals(ctx context.Context, req PreviewTotalsRequest) (*TotalsResult, error) {
	items := s.buildItems(req.Items)
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
	}
	if req.Discount != nil {
		if err := req.Discount.Validate(); err != nil {
			return nil, err
		}
	}
	t := core.ComputeTotals(items, req.Discount)
	return &TotalsResult{Display: t.Rounded(), Exact: t}, nil
}

// SaveDocument creates or edits a document.
func (s *appService) SaveDocument(ctx context.Context, req SaveDocumentRequest) (*DocumentResult, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	if req.ID != "" {
		return s.updateDocument(ctx, req)
	}
	if req.AsDraft && req.Type == core.TypeExpense {
		return nil, fmt.Errorf("%w: expenses are recorded settled and cannot be drafts", core.ErrValidation)
	}

	now := s.now()
	doc := &core.Document{
		UserID:     req.AccountID,
		Type:       req.Type,
		Items:      s.buildItems(req.Items),
		Discount:   req.Discount,
		Currency:   req.Currency,
		Date:       req.Date,
		DueDate:    req.DueDate,
		Notes:      req.Notes,
		ReceiptURL: req.ReceiptURL,
		Extension:  core.Extension{Data: req.Extension},
	}
	if err := s.applyClient(ctx, doc, req); err != nil {
		return nil, err
	}
	doc.Normalize(s.settings.DefaultCurrency)
	if doc.Date.IsZero() {
		doc.Date = dateOnly(now)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	var w pendingWrite
	if !req.AsDraft {
		id, local, err := s.reserveID(ctx, doc.UserID, doc.Type)
		if err != nil {
			return nil, err
		}
		doc.ID = id
		w.LocalID = local
	}
	if err := doc.Open(req.AsDraft, now); err != nil {
		return nil, err
	}
	return s.persist(ctx, doc, w, false)
}

func (s *appService) updateDocument(ctx context.Context, req SaveDocumentRequest) (*DocumentResult, error) {
	doc, err := s.load(ctx, req.AccountID, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Type != "" && req.Type != doc.Type {
		return nil, fmt.Errorf("%w: cannot change a %s into a %s", core.ErrValidation, doc.Type, req.Type)
	}

	if err := doc.Edit(s.buildItems(req.Items), req.Discount, s.now()); err != nil {
		return nil, err
	}
	if err := s.applyClient(ctx, doc, req); err != nil {
		return nil, err
	}
	if req.Currency != "" {
		doc.Currency = req.Currency
	}
	if !req.Date.IsZero() {
		doc.Date = req.Date
	}
	doc.DueDate = req.DueDate
	doc.Notes = req.Notes
	doc.ReceiptURL = req.ReceiptURL
	if req.Extension != nil {
		doc.Extension.Data = req.Extension
	}

	doc.Normalize(s.settings.DefaultCurrency)
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return s.persist(ctx, doc, pendingWrite{}, true)
}

// applyClient snapshots the directory entry named by req.ClientID, or the
// contact fields typed into the request.
func (s *appService) applyClient(ctx context.Context, doc *core.Document, req SaveDocumentRequest) error {
	if req.ClientID == "" {
		doc.ClientName = req.ClientName
		doc.ClientTaxID = req.ClientTaxID
		doc.ClientEmail = req.ClientEmail
		doc.ClientAddress = req.ClientAddress
		return nil
	}

	clients, err := s.store.ListClients(ctx, req.AccountID)
	if err != nil {
		return err
	}
	for i := range clients {
		if clients[i].ID == req.ClientID {
			clients[i].Snapshot(doc)
			return nil
		}
	}
	return fmt.Errorf("client %s: %w", req.ClientID, core.ErrNotFound)
}

// reserveID takes the next id from the server sequence. When the sequence is
// unreachable it allocates against the ids this process has seen and reports
// the id as local so reconcile can renumber it.
func (s *appService) reserveID(ctx context.Context, accountID string, t core.DocumentType) (string, bool, error) {
	id, err := s.reserveServerID(ctx, accountID, t, "")
	if err == nil {
		s.remember(accountID, id)
		return id, false, nil
	}
	if !errors.Is(err, core.ErrUnreachable) {
		return "", false, err
	}

	id, _ = core.AllocateID(s.prefix(t), 1, s.knownIDs(accountID))
	s.remember(accountID, id)
	s.log.Warn("sequence unreachable, allocated id locally",
		zap.String("user_id", accountID), zap.String("id", id))
	return id, true, nil
}

// reserveServerID takes ids from the server sequence until one is not held by
// a queued write other than self. A skipped id that was allocated locally now
// belongs to that write on the server too, so it keeps the id on reconcile.
func (s *appService) reserveServerID(ctx context.Context, accountID string, t core.DocumentType, self string) (string, error) {
	prefix := s.prefix(t)
	for {
		id, err := s.store.ReserveID(ctx, accountID, t, prefix)
		if err != nil {
			return "", err
		}
		if id == self {
			return id, nil
		}
		w, queued := s.outbox.Get(accountID, id)
		if !queued {
			return id, nil
		}
		if w.LocalID {
			w.LocalID = false
			s.outbox.Put(w)
		}
		s.log.Info("sequence id held by a queued write, reserving the next",
			zap.String("user_id", accountID), zap.String("id", id))
	}
}

// remember records an id without a document.
func (s *appService) remember(accountID, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.account(accountID)
	if _, ok := set[id]; !ok {
		set[id] = nil
	}
}

// rememberDocs caches stored versions of documents.
func (s *appService) rememberDocs(accountID string, docs ...core.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.account(accountID)
	for i := range docs {
		d := cloneDocument(docs[i])
		set[d.ID] = &d
	}
}

func (s *appService) forget(accountID, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.seen[accountID][id]; ok && d != nil {
		// Keep the id reserved for local allocation.
		s.seen[accountID][id] = nil
	}
}

func (s *appService) account(accountID string) map[string]*core.Document {
	set, ok := s.seen[accountID]
	if !ok {
		set = make(map[string]*core.Document)
		s.seen[accountID] = set
	}
	return set
}

func (s *appService) cached(accountID, id string) (*core.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.seen[accountID][id]
	if d == nil {
		return nil, false
	}
	c := cloneDocument(*d)
	return &c, true
}

func (s *appService) knownIDs(accountID string) map[string]struct{} {
	s.mu.Lock()
	out := make(map[string]struct{}, len(s.seen[accountID]))
	for id := range s.seen[accountID] {
		out[id] = struct{}{}
	}
	s.mu.Unlock()

	for _, w := range s.outbox.List(accountID) {
		out[w.Doc.ID] = struct{}{}
	}
	return out
}

// load returns the newest known version of a document: the queued one when a
// write is pending, else the stored one, else the last one read before storage
// became unreachable.
func (s *appService) load(ctx context.Context, accountID, id string) (*core.Document, error) {
	if w, ok := s.outbox.Get(accountID, id); ok {
		return &w.Doc, nil
	}
	doc, err := s.store.Get(ctx, accountID, id)
	if err == nil {
		s.rememberDocs(accountID, *doc)
		return doc, nil
	}
	if errors.Is(err, core.ErrUnreachable) {
		if d, ok := s.cached(accountID, id); ok {
			return d, nil
		}
	}
	return nil, err
}

// persist writes doc, folding in any writes already queued for the rows it
// replaces and, when stored is set, for doc itself. A newly numbered document
// never folds a queued write that happens to share its id. An unreachable
// store queues the write instead of failing.
func (s *appService) persist(ctx context.Context, doc *core.Document, w pendingWrite, stored bool) (*DocumentResult, error) {
	w.Doc = *doc
	keys := append([]string(nil), w.Obsolete...)
	if stored {
		keys = append([]string{doc.ID}, keys...)
	} else if _, taken := s.outbox.Get(doc.UserID, doc.ID); taken {
		return nil, fmt.Errorf("failed to persist %s: id is held by a queued write", doc.ID)
	}
	hadQueued := false
	for _, key := range keys {
		prev, ok := s.outbox.Get(doc.UserID, key)
		if !ok {
			continue
		}
		hadQueued = true
		w.LocalID = w.LocalID || prev.LocalID
		if w.RenumberedFrom == "" {
			w.RenumberedFrom = prev.RenumberedFrom
		}
		w.Obsolete = append(w.Obsolete, prev.Obsolete...)
		if w.QueuedAt.IsZero() || prev.QueuedAt.Before(w.QueuedAt) {
			w.QueuedAt = prev.QueuedAt
		}
		s.outbox.Remove(doc.UserID, key)
	}

	err := s.write(ctx, &w)
	switch {
	case err == nil:
		s.rememberDocs(w.Doc.UserID, w.Doc)
		return &DocumentResult{Document: w.Doc, Totals: w.Doc.Totals()}, nil
	case errors.Is(err, core.ErrUnreachable):
		s.queue(w)
		s.log.Warn("storage unreachable, document queued",
			zap.String("user_id", w.Doc.UserID), zap.String("id", w.Doc.ID), zap.Error(err))
		return &DocumentResult{Document: w.Doc, Totals: w.Doc.Totals(), Queued: true}, nil
	default:
		// Keep the document queued if it already was.
		if hadQueued {
			s.queue(w)
		}
		return nil, err
	}
}

func (s *appService) queue(w pendingWrite) {
	now := s.now()
	w.Doc.MarkPendingSync(now)
	if w.QueuedAt.IsZero() {
		w.QueuedAt = now
	}
	s.outbox.Put(w)
}

// write stores w.Doc and deletes its obsolete rows, updating w as each step
// succeeds so a retry after a partial failure never renumbers twice.
func (s *appService) write(ctx context.Context, w *pendingWrite) error {
	if w.LocalID {
		id, err := s.reserveServerID(ctx, w.Doc.UserID, w.Doc.Type, w.Doc.ID)
		if err != nil {
			return err
		}
		if id != w.Doc.ID {
			w.RenumberedFrom = w.Doc.ID
			w.Doc.ID = id
		}
		w.LocalID = false
	}

	note := ""
	if w.RenumberedFrom != "" {
		note = "renumbered from " + w.RenumberedFrom
	}
	doc := cloneDocument(w.Doc)
	doc.MarkSynced(s.now(), note)
	if err := s.store.Upsert(ctx, &doc); err != nil {
		return err
	}
	w.Doc = doc
	w.RenumberedFrom = ""

	for len(w.Obsolete) > 0 {
		old := w.Obsolete[0]
		if old != doc.ID {
			if err := s.store.Delete(ctx, doc.UserID, old); err != nil && !errors.Is(err, core.ErrNotFound) {
				return err
			}
			s.forget(doc.UserID, old)
		}
		w.Obsolete = w.Obsolete[1:]
	}
	return nil
}

// FinalizeDocument turns a draft into a Created document.
func (s *appService) FinalizeDocument(ctx context.Context, accountID, id string) (*DocumentResult, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	doc, err := s.load(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != core.StatusDraft {
		return nil, &core.TransitionError{From: doc.Status, To: core.StatusCreated}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	newID, local, err := s.reserveID(ctx, accountID, doc.Type)
	if err != nil {
		return nil, err
	}
	provisional, err := doc.Finalize(newID, s.now())
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, doc, pendingWrite{LocalID: local, Obsolete: []string{provisional}}, false)
}

// TransitionDocument moves a document to req.Status. Leaving Draft goes
// through FinalizeDocument so the document gets its sequential id.
func (s *appService) TransitionDocument(ctx context.Context, req TransitionRequest) (*DocumentResult, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	doc, err := s.load(ctx, req.AccountID, req.ID)
	if err != nil {
		return nil, err
	}
	if doc.Status == core.StatusDraft && req.Status == core.StatusCreated {
		return s.FinalizeDocument(ctx, req.AccountID, req.ID)
	}
	if err := doc.Transition(req.Status, s.now(), req.Note); err != nil {
		return nil, err
	}
	return s.persist(ctx, doc, pendingWrite{}, true)
}

// RecordDelivery records that a document was sent to, or opened by, its client.
func (s *appService) RecordDelivery(ctx context.Context, req DeliveryRequest) (*DocumentResult, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	doc, err := s.load(ctx, req.AccountID, req.ID)
	if err != nil {
		return nil, err
	}
	if err := doc.RecordDelivery(req.Event, s.now(), req.Note); err != nil {
		return nil, err
	}
	return s.persist(ctx, doc, pendingWrite{}, true)
}

// RecordPayment adds a payment to an invoice.
func (s *appService) RecordPayment(ctx context.Context, req PaymentRequest) (*DocumentResult, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	doc, err := s.load(ctx, req.AccountID, req.ID)
	if err != nil {
		return nil, err
	}
	if err := doc.RecordPayment(req.Amount, s.now()); err != nil {
		return nil, err
	}
	return s.persist(ctx, doc, pendingWrite{}, true)
}

// ListDocuments returns stored documents with queued writes merged over them.
func (s *appService) ListDocuments(ctx context.Context, req ListDocumentsRequest) (*DocumentListResult, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}

	offline := false
	docs, err := s.store.FetchAll(ctx, req.AccountID)
	if err != nil {
		if !errors.Is(err, core.ErrUnreachable) {
			return nil, err
		}
		s.log.Warn("storage unreachable, listing queued documents only",
			zap.String("user_id", req.AccountID), zap.Error(err))
		offline = true
	}
	s.rememberDocs(req.AccountID, docs...)

	queued := s.outbox.List(req.AccountID)
	merged := mergeQueued(docs, queued)

	out := merged[:0]
	for _, d := range merged {
		if req.Type != "" && d.Type != req.Type {
			continue
		}
		if req.Status != "" && d.Status != req.Status {
			continue
		}
		out = append(out, d)
	}
	return &DocumentListResult{Documents: out, Pending: len(queued), Offline: offline}, nil
}

func mergeQueued(stored []core.Document, queued []pendingWrite) []core.Document {
	byID := make(map[string]core.Document, len(stored)+len(queued))
	for _, d := range stored {
		byID[d.ID] = d
	}
	for _, w := range queued {
		for _, old := range w.Obsolete {
			delete(byID, old)
		}
		byID[w.Doc.ID] = w.Doc
	}

	out := make([]core.Document, 0, len(byID))
	for _, d := range byID {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// GetDocument returns one document.
func (s *appService) GetDocument(ctx context.Context, accountID, id string) (*DocumentResult, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	_, queued := s.outbox.Get(accountID, id)
	doc, err := s.load(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	return &DocumentResult{Document: *doc, Totals: doc.Totals(), Queued: queued}, nil
}

// DeleteDocument removes a document and any write queued for it.
func (s *appService) DeleteDocument(ctx context.Context, accountID, id string) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	w, queued := s.outbox.Get(accountID, id)
	if queued {
		s.outbox.Remove(accountID, id)
	}
	err := s.store.Delete(ctx, accountID, id)
	if err == nil || errors.Is(err, core.ErrNotFound) {
		s.forget(accountID, id)
	}
	if !queued {
		return err
	}
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		s.outbox.Put(w)
		return err
	}
	// A queued document may never have reached storage, but the draft row it
	// replaced may have.
	for _, old := range w.Obsolete {
		if err := s.store.Delete(ctx, accountID, old); err != nil && !errors.Is(err, core.ErrNotFound) {
			return err
		}
	}
	return nil
}

// ReconcilePending retries each queued write, oldest first. It stops at the
// first connectivity failure; other failures mark that document Failed and
// move on.
func (s *appService) ReconcilePending(ctx context.Context, accountID string) (*ReconcileResult, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}

	res := &ReconcileResult{}
	for _, listed := range s.outbox.List(accountID) {
		// An earlier write may have handed this one its id.
		w, ok := s.outbox.Get(accountID, listed.Doc.ID)
		if !ok {
			continue
		}
		original := w.Doc.ID
		err := s.write(ctx, &w)
		s.outbox.Remove(accountID, original)

		if err == nil {
			s.rememberDocs(accountID, w.Doc)
			res.Synced = append(res.Synced, w.Doc.ID)
			continue
		}
		if errors.Is(err, core.ErrUnreachable) {
			s.queue(w)
			s.log.Warn("storage still unreachable, reconcile stopped",
				zap.String("user_id", accountID), zap.Error(err))
			break
		}
		w.Doc.MarkSyncFailed()
		s.outbox.Put(w)
		res.Failed = append(res.Failed, w.Doc.ID)
		s.log.Error("queued write rejected",
			zap.String("user_id", accountID), zap.String("id", w.Doc.ID), zap.Error(err))
	}
	res.Remaining = s.outbox.Count(accountID)
	return res, nil
}

// PendingCount returns how many writes are queued for the account.
func (s *appService) PendingCount(accountID string) int {
	return s.outbox.Count(accountID)
}

// ListClients returns the account's client directory.
func (s *appService) ListClients(ctx context.Context, accountID string) (*ClientListResult, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	clients, err := s.store.ListClients(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &ClientListResult{Clients: clients}, nil
}

// SaveClient creates or updates a directory entry.
func (s *appService) SaveClient(ctx context.Context, req SaveClientRequest) (*ClientResult, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	c := core.Client{
		ID:        req.ID,
		UserID:    req.AccountID,
		Name:      req.Name,
		TaxID:     req.TaxID,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		Tags:      req.Tags,
		Notes:     req.Notes,
		Extension: core.Extension{Data: req.Extension},
	}
	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpsertClient(ctx, &c); err != nil {
		return nil, err
	}
	return &ClientResult{Client: c}, nil
}

// DeleteClient removes a directory entry. Documents keep their snapshot.
func (s *appService) DeleteClient(ctx context.Context, accountID, id string) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	return s.store.DeleteClient(ctx, accountID, id)
}

// SuggestPrice asks the assistant for a unit price.
func (s *appService) SuggestPrice(ctx context.Context, req SuggestPriceRequest) (*ai.PriceSuggestion, error) {
	currency := req.Currency
	if currency == "" {
		currency = s.settings.DefaultCurrency
	}
	return s.assistant.SuggestPrice(ctx, req.Description, currency)
}

// SuggestDescription asks the assistant to word a line item.
func (s *appService) SuggestDescription(ctx context.Context, title string) (*ai.DescriptionSuggestion, error) {
	return s.assistant.SuggestDescription(ctx, title)
}

// SuggestDiscount asks the assistant for a discount on a stored or unsaved
// document.
func (s *appService) SuggestDiscount(ctx context.Context, req SuggestDiscountRequest) (*ai.DiscountSuggestion, error) {
	var doc *core.Document
	if req.ID != "" {
		if err := s.requireStore(); err != nil {
			return nil, err
		}
		d, err := s.load(ctx, req.AccountID, req.ID)
		if err != nil {
			return nil, err
		}
		doc = d
	} else {
		doc = &core.Document{
			Type:     req.Type,
			Currency: req.Currency,
			Items:    s.buildItems(req.Items),
			Discount: req.Discount,
		}
		doc.Normalize(s.settings.DefaultCurrency)
		for _, item := range doc.Items {
			if err := item.Validate(); err != nil {
				return nil, err
			}
		}
	}
	return s.assistant.SuggestDiscount(ctx, doc)
}

// ExportDocuments writes the account's register, queued documents included.
func (s *appService) ExportDocuments(ctx context.Context, accountID string, w io.Writer) error {
	list, err := s.ListDocuments(ctx, ListDocumentsRequest{AccountID: accountID})
	if err != nil {
		return err
	}
	return export.WriteRegister(w, list.Documents)
}

// ListAudit returns recent audit entries.
func (s *appService) ListAudit(ctx context.Context, accountID string, limit int) (*AuditResult, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	entries, err := s.store.ListAudit(ctx, accountID, limit)
	if err != nil {
		return nil, err
	}
	return &AuditResult{Entries: entries}, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
