package web

import (
	"net/http"

	"billing-service/internal/app"
	"billing-service/internal/core"

	"github.com/go-chi/chi/v5"
)

type clientBody struct {
	Name      string         `json:"name" validate:"required,max=200"`
	TaxID     string         `json:"tax_id" validate:"max=50"`
	Email     string         `json:"email" validate:"omitempty,email"`
	Phone     string         `json:"phone" validate:"max=50"`
	Address   string         `json:"address" validate:"max=500"`
	Tags      []string       `json:"tags" validate:"max=50,dive,max=50"`
	Notes     []string       `json:"notes" validate:"max=100,dive,max=2000"`
	Extension map[string]any `json:"extension"`
}

func (b clientBody) toRequest(accountID, id string) app.SaveClientRequest {
	return app.SaveClientRequest{
		AccountID: accountID,
		ID:        id,
		Name:      b.Name,
		TaxID:     b.TaxID,
		Email:     b.Email,
		Phone:     b.Phone,
		Address:   b.Address,
		Tags:      b.Tags,
		Notes:     b.Notes,
		Extension: b.Extension,
	}
}

// listClients handles GET /api/clients.
func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListClients(r.Context(), accountFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	clients := res.Clients
	if clients == nil {
		clients = []core.Client{}
	}
	writeJSON(w, clients)
}

// createClient handles POST /api/clients.
func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var body clientBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	res, err := h.svc.SaveClient(r.Context(), body.toRequest(accountFromContext(r.Context()), ""))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res.Client)
}

// updateClient handles PUT /api/clients/{id}.
func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	var body clientBody
	if !h.decodeJSON(w, r, &body) {
		return
	}
	res, err := h.svc.SaveClient(r.Context(), body.toRequest(accountFromContext(r.Context()), chi.URLParam(r, "id")))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res.Client)
}

// deleteClient handles DELETE /api/clients/{id}.
func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteClient(r.Context(), accountFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
