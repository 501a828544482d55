package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ledgerpilot/ledgerpilot/internal/http/agents"
	"github.com/ledgerpilot/ledgerpilot/internal/http/invoice"
	"github.com/ledgerpilot/ledgerpilot/internal/http/reconciliation"
	"github.com/ledgerpilot/ledgerpilot/internal/http/transaction"
)

func New(
	transactionsV1 *transaction.Handler,
	reconciliationV1 *reconciliation.Handler,
	invoicesV1 *invoice.Handler,
	agentsV1 *agents.Handler,
	reportsDir string,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/transactions", transactionsV1.Routes)

		r.Route("/reconciliation", reconciliationV1.Routes)

		r.Route("/invoices", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			invoicesV1.Routes(r)
		})

		r.Route("/agents", agentsV1.Routes)
	})

	// Generated reconciliation reports are plain files under reportsDir.
	router.Handle("/reports/*", http.StripPrefix("/reports/", http.FileServer(http.Dir(reportsDir))))

	return router
}
