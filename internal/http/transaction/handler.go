package transaction

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerpilot/ledgerpilot/internal/http/api"
	"github.com/ledgerpilot/ledgerpilot/internal/reconcile"
	"github.com/ledgerpilot/ledgerpilot/internal/transaction"
)

type Handler struct {
	orchestrator *reconcile.Orchestrator
	txSvc        *transaction.Service
}

func NewHandler(orchestrator *reconcile.Orchestrator, txSvc *transaction.Service) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		txSvc:        txSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/upload", h.upload)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/match", h.match)
}

type uploadResponse struct {
	Message      string            `json:"message"`
	Report       *api.Report       `json:"report"`
	Transactions []api.Transaction `json:"transactions"`
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	media, ok := api.MediaTypeOf(header)
	if !ok {
		http.Error(w, "unsupported file type: expected CSV or JSON", http.StatusUnsupportedMediaType)
		return
	}

	payload, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}

	txs, report, err := h.orchestrator.UploadBankFeed(r.Context(), payload, media, header.Filename)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, uploadResponse{
		Message:      "File processed successfully",
		Report:       report,
		Transactions: api.FromTransactions(txs),
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txs, err := h.txSvc.List(r.Context(), filter)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, api.FromTransactions(txs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	tx, err := h.txSvc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, api.FromTransaction(tx))
}

type matchRequest struct {
	TransactionIDs []string `json:"transaction_ids"`
}

type matchResponse struct {
	Message      string            `json:"message"`
	Report       *api.Report       `json:"report"`
	Transactions []api.Transaction `json:"transactions"`
}

func (h *Handler) match(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if len(req.TransactionIDs) == 0 {
		http.Error(w, "transaction_ids is required", http.StatusBadRequest)
		return
	}

	txs, report, err := h.orchestrator.MatchTransactions(r.Context(), req.TransactionIDs)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, matchResponse{
		Message:      "Matching completed",
		Report:       report,
		Transactions: api.FromTransactions(txs),
	})
}

func filterFromQuery(r *http.Request) (transaction.ListFilter, error) {
	var filter transaction.ListFilter

	if s := r.URL.Query().Get("status"); s != "" {
		status := transaction.Status(s)
		if !status.Valid() {
			return filter, errors.New("unknown status: " + s)
		}

		filter.Status = &status
	}

	filter.Party = r.URL.Query().Get("party")

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
