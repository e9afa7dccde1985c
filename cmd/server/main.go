package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/jdeck/cashflow/internal/config"
	"github.com/jdeck/cashflow/internal/currency"
	"github.com/jdeck/cashflow/internal/metrics"
	"github.com/jdeck/cashflow/internal/server"
	"github.com/jdeck/cashflow/internal/service"
	"github.com/jdeck/cashflow/internal/storage/sqlite"
	"github.com/jdeck/cashflow/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	table := currency.DefaultTable()
	if !table.Has(cfg.PrimaryCurrency) {
		slog.Error("Primary currency not in currency table", "currency", cfg.PrimaryCurrency, "known", table.Codes())
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	flowMetrics := metrics.NewFlowMetrics(registry)

	router := server.NewRouter(server.Options{
		Ledger:         service.NewLedgerService(store, table),
		Flows:          service.NewFlowService(store, table, cfg.PrimaryCurrency, flowMetrics),
		Table:          table,
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	// h2c allows HTTP/2 without TLS for clients that want multiplexing.
	handler := h2c.NewHandler(router, &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("Server starting", "address", addr, "primary_currency", cfg.PrimaryCurrency)
	if err := http.ListenAndServe(addr, handler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
