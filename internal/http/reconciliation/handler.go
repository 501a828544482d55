package reconciliation

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerpilot/ledgerpilot/internal/export"
	"github.com/ledgerpilot/ledgerpilot/internal/http/api"
	"github.com/ledgerpilot/ledgerpilot/internal/reconcile"
)

type Handler struct {
	orchestrator *reconcile.Orchestrator
	exportSvc    *export.Service
}

func NewHandler(orchestrator *reconcile.Orchestrator, exportSvc *export.Service) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		exportSvc:    exportSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/run", h.run)
	r.Post("/pipeline", h.pipeline)
	r.Get("/status", h.status)
	r.Post("/flag", h.flag)
	r.Post("/approve", h.approve)
	r.Post("/export", h.export)
}

type runResponse struct {
	Message      string            `json:"message"`
	Report       *api.Report       `json:"report"`
	Transactions []api.Transaction `json:"transactions"`
}

// run forwards the uploaded feed to the remote full-reconciliation workflow
// and persists the finalized transactions it returns.
func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
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

	txs, report, err := h.orchestrator.RunFullReconciliation(r.Context(), payload, media, header.Filename)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, runResponse{
		Message:      "Full reconciliation completed",
		Report:       report,
		Transactions: api.FromTransactions(txs),
	})
}

type pipelineRequest struct {
	TransactionIDs []string `json:"transaction_ids"`
}

func (h *Handler) pipeline(w http.ResponseWriter, r *http.Request) {
	var req pipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if len(req.TransactionIDs) == 0 {
		http.Error(w, "transaction_ids is required", http.StatusBadRequest)
		return
	}

	txs, report, err := h.orchestrator.RunPipeline(r.Context(), req.TransactionIDs)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, runResponse{
		Message:      "Pipeline completed",
		Report:       report,
		Transactions: api.FromTransactions(txs),
	})
}

type statusResponse struct {
	Summary      *reconcile.StatusSummary `json:"summary"`
	Transactions []api.Transaction        `json:"transactions"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	days := 7

	if s := r.URL.Query().Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}

		days = n
	}

	summary, txs, err := h.orchestrator.Status(r.Context(), days)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, statusResponse{
		Summary:      summary,
		Transactions: api.FromTransactions(txs),
	})
}

type flagRequest struct {
	TransactionID string `json:"transaction_id"`
	Flag          string `json:"flag"`
	Reason        string `json:"reason"`
}

func (h *Handler) flag(w http.ResponseWriter, r *http.Request) {
	var req flagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	tx, err := h.orchestrator.FlagDiscrepancy(r.Context(), req.TransactionID, req.Flag, req.Reason)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, api.FromTransaction(tx))
}

type approveRequest struct {
	TransactionID string `json:"transaction_id"`
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	tx, err := h.orchestrator.ApproveTransaction(r.Context(), req.TransactionID)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, api.FromTransaction(tx))
}

type exportRequest struct {
	TransactionIDs []string `json:"transaction_ids"`
}

type exportResponse struct {
	Message   string       `json:"message"`
	ReportRef string       `json:"report_ref"`
	Data      *export.Data `json:"data"`
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if len(req.TransactionIDs) == 0 {
		http.Error(w, "transaction_ids is required", http.StatusBadRequest)
		return
	}

	ref, data, err := h.exportSvc.Export(r.Context(), req.TransactionIDs)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, exportResponse{
		Message:   "Report generated",
		ReportRef: ref,
		Data:      data,
	})
}
