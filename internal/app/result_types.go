package app

import (
	"billing-service/internal/core"
	"billing-service/internal/store"
)

// TotalsResult is returned by PreviewTotals. Display holds the totals rounded
// to cents; Exact is what gets persisted.
type TotalsResult struct {
	Display core.Totals
	Exact   core.Totals
}

// DocumentResult is returned by document operations. Queued means the write is
// held locally until ReconcilePending succeeds.
type DocumentResult struct {
	Document core.Document
	Totals   core.Totals
	Queued   bool
}

// DocumentListResult is returned by ListDocuments. Offline means storage could
// not be reached and only queued documents are listed.
type DocumentListResult struct {
	Documents []core.Document
	Pending   int
	Offline   bool
}

// ReconcileResult is returned by ReconcilePending.
type ReconcileResult struct {
	Synced    []string
	Failed    []string
	Remaining int
}

// ClientListResult is returned by ListClients.
type ClientListResult struct {
	Clients []core.Client
}

// ClientResult is returned by SaveClient.
type ClientResult struct {
	Client core.Client
}

// AuditResult is returned by ListAudit.
type AuditResult struct {
	Entries []store.AuditEntry
}
