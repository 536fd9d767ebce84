package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"expensetracker/internal/core"
)

// ExpenseService is the application API the handlers drive.
type ExpenseService interface {
	Create(ctx context.Context, raw map[string]any) (core.Expense, error)
	List(ctx context.Context, p core.ListParams) (core.Page, error)
	Get(ctx context.Context, id string) (core.Expense, error)
	Update(ctx context.Context, id string, raw map[string]any) (core.Expense, error)
	Delete(ctx context.Context, id string) (core.Expense, error)
	Ping(ctx context.Context) error
}

const msgDeleted = "Expense deleted"

type expenseHandler struct {
	service ExpenseService
}

func (h *expenseHandler) routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *expenseHandler) create(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeObject(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	e, err := h.service.Create(r.Context(), raw)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, e)
}

func (h *expenseHandler) list(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}
	page, err := h.service.List(r.Context(), params)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondPage(w, page)
}

func (h *expenseHandler) get(w http.ResponseWriter, r *http.Request) {
	e, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, e)
}

func (h *expenseHandler) update(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeObject(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	e, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), raw)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, e)
}

func (h *expenseHandler) delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, msgDeleted)
}
