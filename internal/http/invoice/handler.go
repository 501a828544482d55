package invoice

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ledgerpilot/ledgerpilot/internal/http/api"
	"github.com/ledgerpilot/ledgerpilot/internal/invoice"
)

type Handler struct {
	svc *invoice.Service
}

func NewHandler(svc *invoice.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type invoiceBody struct {
	InvoiceNumber string          `json:"invoice_number"`
	Date          time.Time       `json:"date"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	CustomerName  string          `json:"customer_name"`
	Reference     string          `json:"reference,omitempty"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"status,omitempty"`
}

type invoiceResponse struct {
	ID string `json:"id"`
	invoiceBody
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func fromInvoice(inv *invoice.Invoice) invoiceResponse {
	return invoiceResponse{
		ID: inv.ID,
		invoiceBody: invoiceBody{
			InvoiceNumber: inv.InvoiceNumber,
			Date:          inv.Date,
			DueDate:       inv.DueDate,
			CustomerName:  inv.CustomerName,
			Reference:     inv.Reference,
			Total:         inv.Total,
			Status:        inv.Status,
		},
		CreatedAt: inv.CreatedAt,
		UpdatedAt: inv.UpdatedAt,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var body invoiceBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	inv := &invoice.Invoice{
		InvoiceNumber: body.InvoiceNumber,
		Date:          body.Date,
		DueDate:       body.DueDate,
		CustomerName:  body.CustomerName,
		Reference:     body.Reference,
		Total:         body.Total,
		Status:        body.Status,
	}

	if err := h.svc.Create(r.Context(), inv); err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, fromInvoice(inv))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	invoices, err := h.svc.List(r.Context(), filter)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	out := make([]invoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, fromInvoice(inv))
	}

	api.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, fromInvoice(inv))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var body invoiceBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	inv := &invoice.Invoice{
		ID:            chi.URLParam(r, "id"),
		InvoiceNumber: body.InvoiceNumber,
		Date:          body.Date,
		DueDate:       body.DueDate,
		CustomerName:  body.CustomerName,
		Reference:     body.Reference,
		Total:         body.Total,
		Status:        body.Status,
	}

	if err := h.svc.Update(r.Context(), inv); err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, fromInvoice(inv))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		api.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func filterFromQuery(r *http.Request) (invoice.ListFilter, error) {
	filter := invoice.ListFilter{
		CustomerName: r.URL.Query().Get("customer_name"),
		Status:       r.URL.Query().Get("status"),
	}

	if s := r.URL.Query().Get("date_from"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return filter, errors.New("invalid date_from: expected YYYY-MM-DD")
		}

		filter.DateFrom = &t
	}

	if s := r.URL.Query().Get("date_to"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return filter, errors.New("invalid date_to: expected YYYY-MM-DD")
		}

		filter.DateTo = &t
	}

	return filter, nil
}
