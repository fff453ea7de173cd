package app

import (
	"context"
	"io"

	"billing-service/internal/ai"
	"billing-service/internal/core"
	"billing-service/internal/store"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no display logic of any kind.
type ApplicationService interface {
	// PreviewTotals prices items and a discount without touching storage.
	PreviewTotals(ctx context.Context, req PreviewTotalsRequest) (*TotalsResult, error)

	// SaveDocument creates a document (as a draft or directly Created) or, when
	// req.ID is set, edits an existing one. When storage is unreachable the
	// document is queued with SyncState PendingSync and the result has Queued set.
	SaveDocument(ctx context.Context, req SaveDocumentRequest) (*DocumentResult, error)

	// FinalizeDocument allocates the next sequential id for a draft and moves it
	// to Created. The provisional draft row is removed.
	FinalizeDocument(ctx context.Context, accountID, id string) (*DocumentResult, error)

	// TransitionDocument moves a document along the lifecycle table.
	TransitionDocument(ctx context.Context, req TransitionRequest) (*DocumentResult, error)

	// RecordDelivery appends a sent or opened event without changing status.
	RecordDelivery(ctx context.Context, req DeliveryRequest) (*DocumentResult, error)

	// RecordPayment adds a payment to an invoice.
	RecordPayment(ctx context.Context, req PaymentRequest) (*DocumentResult, error)

	// ListDocuments returns the account's documents with queued writes merged in.
	ListDocuments(ctx context.Context, req ListDocumentsRequest) (*DocumentListResult, error)

	// GetDocument returns one document, preferring a queued version.
	GetDocument(ctx context.Context, accountID, id string) (*DocumentResult, error)

	// DeleteDocument removes a document.
	DeleteDocument(ctx context.Context, accountID, id string) error

	// ReconcilePending retries every queued write for the account. It is only
	// ever invoked by a caller; nothing schedules it.
	ReconcilePending(ctx context.Context, accountID string) (*ReconcileResult, error)

	// PendingCount returns how many writes are queued for the account.
	PendingCount(accountID string) int

	ListClients(ctx context.Context, accountID string) (*ClientListResult, error)
	SaveClient(ctx context.Context, req SaveClientRequest) (*ClientResult, error)
	DeleteClient(ctx context.Context, accountID, id string) error

	SuggestPrice(ctx context.Context, req SuggestPriceRequest) (*ai.PriceSuggestion, error)
	SuggestDescription(ctx context.Context, title string) (*ai.DescriptionSuggestion, error)
	SuggestDiscount(ctx context.Context, req SuggestDiscountRequest) (*ai.DiscountSuggestion, error)

	// ExportDocuments writes the account's document register as XLSX.
	ExportDocuments(ctx context.Context, accountID string, w io.Writer) error

	// ListAudit returns recent audit log entries for the account.
	ListAudit(ctx context.Context, accountID string, limit int) (*AuditResult, error)
}

// DocumentStore is the persistence the service needs. *store.Gateway
// satisfies it.
type DocumentStore interface {
	Upsert(ctx context.Context, doc *core.Document) error
	FetchAll(ctx context.Context, accountID string) ([]core.Document, error)
	Get(ctx context.Context, accountID, id string) (*core.Document, error)
	Delete(ctx context.Context, accountID, id string) error
	ReserveID(ctx context.Context, accountID string, docType core.DocumentType, prefix string) (string, error)

	UpsertClient(ctx context.Context, c *core.Client) error
	ListClients(ctx context.Context, accountID string) ([]core.Client, error)
	DeleteClient(ctx context.Context, accountID, id string) error

	ListAudit(ctx context.Context, accountID string, limit int) ([]store.AuditEntry, error)
}

var _ DocumentStore = (*store.Gateway)(nil)
