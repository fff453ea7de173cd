package web

import (
	"net/http"

	"billing-service/internal/app"
	"billing-service/internal/core"
)

type suggestPriceBody struct {
	Description string `json:"description" validate:"required,max=1000"`
	Currency    string `json:"currency" validate:"omitempty,len=3,alpha"`
}

type suggestDescriptionBody struct {
	Title string `json:"title" validate:"required,max=200"`
}

// suggestDiscountBody names a stored document by ID, or carries unsaved items.
type suggestDiscountBody struct {
	ID       string            `json:"id"`
	Type     core.DocumentType `json:"type" validate:"omitempty,oneof=invoice quote expense"`
	Currency string            `json:"currency" validate:"omitempty,len=3,alpha"`
	Items    []itemBody        `json:"items" validate:"required_without=ID,dive"`
	Discount *discountBody     `json:"discount"`
}

// suggestPrice handles POST /api/ai/price.
func (h *Handler) suggestPrice(w http.ResponseWriter, r *http.Request) {
	var body suggestPriceBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	res, err := h.svc.SuggestPrice(r.Context(), app.SuggestPriceRequest{
		Description: body.Description,
		Currency:    body.Currency,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// suggestDescription handles POST /api/ai/description.
func (h *Handler) suggestDescription(w http.ResponseWriter, r *http.Request) {
	var body suggestDescriptionBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	res, err := h.svc.SuggestDescription(r.Context(), body.Title)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// suggestDiscount handles POST /api/ai/discount.
func (h *Handler) suggestDiscount(w http.ResponseWriter, r *http.Request) {
	var body suggestDiscountBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	res, err := h.svc.SuggestDiscount(r.Context(), app.SuggestDiscountRequest{
		AccountID: accountFromContext(r.Context()),
		ID:        body.ID,
		Type:      body.Type,
		Currency:  body.Currency,
		Items:     toItems(body.Items),
		Discount:  body.Discount.toDiscount(),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}
