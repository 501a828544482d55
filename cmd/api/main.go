package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/ledgerpilot/ledgerpilot/internal/agent"
	"github.com/ledgerpilot/ledgerpilot/internal/config"
	"github.com/ledgerpilot/ledgerpilot/internal/database"
	"github.com/ledgerpilot/ledgerpilot/internal/export"
	ledgerHttp "github.com/ledgerpilot/ledgerpilot/internal/http"
	agentsHandler "github.com/ledgerpilot/ledgerpilot/internal/http/agents"
	invoiceHandler "github.com/ledgerpilot/ledgerpilot/internal/http/invoice"
	reconHandler "github.com/ledgerpilot/ledgerpilot/internal/http/reconciliation"
	txHandler "github.com/ledgerpilot/ledgerpilot/internal/http/transaction"
	"github.com/ledgerpilot/ledgerpilot/internal/invoice"
	invoiceStore "github.com/ledgerpilot/ledgerpilot/internal/invoice/store"
	"github.com/ledgerpilot/ledgerpilot/internal/reconcile"
	"github.com/ledgerpilot/ledgerpilot/internal/transaction"
	txStore "github.com/ledgerpilot/ledgerpilot/internal/transaction/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	agentClient := agent.NewHTTPClient(agent.Config{
		BaseURL:      cfg.Agent.BaseURL,
		Timeout:      cfg.Agent.Timeout,
		MaxRetries:   cfg.Agent.MaxRetries,
		RetryBackoff: cfg.Agent.RetryBackoff,
	})

	var (
		transactionService = transaction.NewService(txStore.New(db))
		invoiceService     = invoice.NewService(invoiceStore.New(db))
		orchestrator       = reconcile.NewOrchestrator(transactionService, transaction.NewLifecycle(), agentClient)
		exportService      = export.NewService(transactionService, cfg.Reports.Dir)
	)

	var (
		transactionH = txHandler.NewHandler(orchestrator, transactionService)
		reconH       = reconHandler.NewHandler(orchestrator, exportService)
		invoiceH     = invoiceHandler.NewHandler(invoiceService)
		agentsH      = agentsHandler.NewHandler(agentClient)
	)

	router := ledgerHttp.New(transactionH, reconH, invoiceH, agentsH, cfg.Reports.Dir)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "app", cfg.App.Name, "port", port, "agent_url", cfg.Agent.BaseURL)

	server := &http.Server{
		Addr:         port,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
