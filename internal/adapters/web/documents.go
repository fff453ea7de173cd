package web

import (
	"bytes"
	"net/http"
	"time"

	"billing-service/internal/app"
	"billing-service/internal/core"
	"billing-service/internal/export"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type itemBody struct {
	ID          string           `json:"id"`
	Description string           `json:"description" validate:"max=500"`
	Details     string           `json:"details" validate:"max=2000"`
	Quantity    decimal.Decimal  `json:"quantity" validate:"gt=0"`
	Price       decimal.Decimal  `json:"price" validate:"gte=0"`
	TaxRate     *decimal.Decimal `json:"tax_rate" validate:"omitempty,gte=0,lte=100"`
}

type discountBody struct {
	Kind  core.DiscountKind `json:"kind" validate:"required,oneof=PERCENT AMOUNT"`
	Value decimal.Decimal   `json:"value" validate:"gte=0"`
}

type documentBody struct {
	Type    core.DocumentType `json:"type" validate:"omitempty,oneof=invoice quote expense"`
	AsDraft bool              `json:"as_draft"`

	ClientID      string `json:"client_id"`
	ClientName    string `json:"client_name" validate:"required_without=ClientID,max=200"`
	ClientTaxID   string `json:"client_tax_id" validate:"max=50"`
	ClientEmail   string `json:"client_email" validate:"omitempty,email"`
	ClientAddress string `json:"client_address" validate:"max=500"`

	Items    []itemBody    `json:"items" validate:"required,min=1,dive"`
	Discount *discountBody `json:"discount"`
	Currency string        `json:"currency" validate:"omitempty,len=3,alpha"`

	Date       string         `json:"date" validate:"omitempty,datetime=2006-01-02"`
	DueDate    string         `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Notes      string         `json:"notes" validate:"max=5000"`
	ReceiptURL string         `json:"receipt_url" validate:"omitempty,url"`
	Extension  map[string]any `json:"extension"`
}

type transitionBody struct {
	Status core.DocumentStatus `json:"status" validate:"required"`
	Note   string              `json:"note" validate:"max=500"`
}

type deliveryBody struct {
	Event core.TimelineEventType `json:"event" validate:"required,oneof=sent opened"`
	Note  string                 `json:"note" validate:"max=500"`
}

type paymentBody struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

type previewBody struct {
	Items    []itemBody    `json:"items" validate:"required,min=1,dive"`
	Discount *discountBody `json:"discount"`
}

type documentResponse struct {
	Document core.Document `json:"document"`
	Totals   core.Totals   `json:"totals"`
	Queued   bool          `json:"queued"`
}

type documentListResponse struct {
	Documents []core.Document `json:"documents"`
	Pending   int             `json:"pending"`
	Offline   bool            `json:"offline"`
}

func toItems(in []itemBody) []app.ItemInput {
	out := make([]app.ItemInput, 0, len(in))
	for _, it := range in {
		out = append(out, app.ItemInput{
			ID:          it.ID,
			Description: it.Description,
			Details:     it.Details,
			Quantity:    it.Quantity,
			Price:       it.Price,
			TaxRate:     it.TaxRate,
		})
	}
	return out
}

func (d *discountBody) toDiscount() *core.Discount {
	if d == nil {
		return nil
	}
	return &core.Discount{Kind: d.Kind, Value: d.Value}
}

// toRequest converts a validated body. Dates were checked by the validator.
func (b documentBody) toRequest(accountID, id string) app.SaveDocumentRequest {
	req := app.SaveDocumentRequest{
		AccountID:     accountID,
		ID:            id,
		Type:          b.Type,
		AsDraft:       b.AsDraft,
		ClientID:      b.ClientID,
		ClientName:    b.ClientName,
		ClientTaxID:   b.ClientTaxID,
		ClientEmail:   b.ClientEmail,
		ClientAddress: b.ClientAddress,
		Items:         toItems(b.Items),
		Discount:      b.Discount.toDiscount(),
		Currency:      b.Currency,
		Notes:         b.Notes,
		ReceiptURL:    b.ReceiptURL,
		Extension:     b.Extension,
	}
	if t, err := time.Parse(dateLayout, b.Date); err == nil {
		req.Date = t
	}
	if t, err := time.Parse(dateLayout, b.DueDate); err == nil {
		req.DueDate = &t
	}
	return req
}

func (h *Handler) writeDocument(w http.ResponseWriter, status int, res *app.DocumentResult) {
	if res.Queued {
		status = http.StatusAccepted
	}
	writeJSONStatus(w, status, documentResponse{
		Document: res.Document,
		Totals:   res.Totals.Rounded(),
		Queued:   res.Queued,
	})
}

// previewTotals handles POST /api/totals/preview.
func (h *Handler) previewTotals(w http.ResponseWriter, r *http.Request) {
	var body previewBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	res, err := h.svc.PreviewTotals(r.Context(), app.PreviewTotalsRequest{
		Items:    toItems(body.Items),
		Discount: body.Discount.toDiscount(),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res.Display)
}

// listDocuments handles GET /api/documents?type=&status=.
func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	docType := core.DocumentType(q.Get("type"))
	if docType != "" && !docType.Valid() {
		writeError(w, r, "unknown document type "+string(docType), "VALIDATION", http.StatusBadRequest)
		return
	}
	res, err := h.svc.ListDocuments(r.Context(), app.ListDocumentsRequest{
		AccountID: accountFromContext(r.Context()),
		Type:      docType,
		Status:    core.DocumentStatus(q.Get("status")),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	docs := res.Documents
	if docs == nil {
		docs = []core.Document{}
	}
	writeJSON(w, documentListResponse{Documents: docs, Pending: res.Pending, Offline: res.Offline})
}

// createDocument handles POST /api/documents.
func (h *Handler) createDocument(w http.ResponseWriter, r *http.Request) {
	var body documentBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	if body.Type == "" {
		writeError(w, r, "invalid fields: type: required", "VALIDATION", http.StatusBadRequest)
		return
	}
	res, err := h.svc.SaveDocument(r.Context(), body.toRequest(accountFromContext(r.Context()), ""))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeDocument(w, http.StatusCreated, res)
}

// getDocument handles GET /api/documents/{id}.
func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetDocument(r.Context(), accountFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeDocument(w, http.StatusOK, res)
}

// updateDocument handles PUT /api/documents/{id}.
func (h *Handler) updateDocument(w http.ResponseWriter, r *http.Request) {
	var body documentBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	res, err := h.svc.SaveDocument(r.Context(), body.toRequest(accountFromContext(r.Context()), chi.URLParam(r, "id")))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeDocument(w, http.StatusOK, res)
}

// deleteDocument handles DELETE /api/documents/{id}.
func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteDocument(r.Context(), accountFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// finalizeDocument handles POST /api/documents/{id}/finalize.
func (h *Handler) finalizeDocument(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.FinalizeDocument(r.Context(), accountFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeDocument(w, http.StatusOK, res)
}

// transitionDocument handles POST /api/documents/{id}/transition.
func (h *Handler) transitionDocument(w http.ResponseWriter, r *http.Request) {
	var body transitionBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	res, err := h.svc.TransitionDocument(r.Context(), app.TransitionRequest{
		AccountID: accountFromContext(r.Context()),
		ID:        chi.URLParam(r, "id"),
		Status:    body.Status,
		Note:      body.Note,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeDocument(w, http.StatusOK, res)
}

// recordDelivery handles POST /api/documents/{id}/events.
func (h *Handler) recordDelivery(w http.ResponseWriter, r *http.Request) {
	var body deliveryBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	res, err := h.svc.RecordDelivery(r.Context(), app.DeliveryRequest{
		AccountID: accountFromContext(r.Context()),
		ID:        chi.URLParam(r, "id"),
		Event:     body.Event,
		Note:      body.Note,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeDocument(w, http.StatusOK, res)
}

// recordPayment handles POST /api/documents/{id}/payments.
func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var body paymentBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	res, err := h.svc.RecordPayment(r.Context(), app.PaymentRequest{
		AccountID: accountFromContext(r.Context()),
		ID:        chi.URLParam(r, "id"),
		Amount:    body.Amount,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeDocument(w, http.StatusOK, res)
}

// exportDocuments handles GET /api/documents/export. The workbook is built in
// memory so a failure can still be reported as JSON.
func (h *Handler) exportDocuments(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.ExportDocuments(r.Context(), accountFromContext(r.Context()), &buf); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="documents.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

// pendingCount handles GET /api/sync.
func (h *Handler) pendingCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]int{"pending": h.svc.PendingCount(accountFromContext(r.Context()))})
}

// reconcile handles POST /api/sync.
func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ReconcilePending(r.Context(), accountFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	type response struct {
		Synced    []string `json:"synced"`
		Failed    []string `json:"failed"`
		Remaining int      `json:"remaining"`
	}
	writeJSON(w, response{
		Synced:    nonNil(res.Synced),
		Failed:    nonNil(res.Failed),
		Remaining: res.Remaining,
	})
}

// listAudit handles GET /api/audit?limit=.
func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListAudit(r.Context(), accountFromContext(r.Context()), queryLimit(r, 100))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res.Entries)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
