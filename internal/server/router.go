// Package server wires the HTTP API: routing, middleware and the JSON
// handlers over the ledger and flow services.
package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jdeck/cashflow/internal/currency"
	"github.com/jdeck/cashflow/internal/service"
)

// Options configures the router.
type Options struct {
	Ledger *service.LedgerService
	Flows  *service.FlowService
	Table  currency.Table

	// AllowedOrigins configures CORS; "*" allows any origin.
	AllowedOrigins []string

	// Metrics, if set, is mounted at /metrics.
	Metrics http.Handler
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(opts.AllowedOrigins) == 1 && opts.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = opts.AllowedOrigins
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	h := &handlers{ledger: opts.Ledger, flows: opts.Flows, table: opts.Table}

	r.GET("/health", h.health)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	api := r.Group("/api")
	{
		api.GET("/currencies", h.listCurrencies)

		api.GET("/users", h.listUsers)
		api.PUT("/users/:id", h.upsertUser)

		api.GET("/events", h.listEvents)
		api.POST("/events", h.createEvent)
		api.DELETE("/events/:id", h.disableEvent)

		api.PUT("/events/:id/splitters/:userId", h.addSplitter)
		api.DELETE("/events/:id/splitters/:userId", h.removeSplitter)

		api.POST("/events/:id/payments", h.addPayment)
		api.DELETE("/payments/:id", h.deletePayment)

		api.GET("/flows", h.computeFlows)
	}

	return r
}
