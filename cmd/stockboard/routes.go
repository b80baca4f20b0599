package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mattressworks/stockboard/internal/gateway"
	"github.com/mattressworks/stockboard/internal/stock/handler"
	"github.com/mattressworks/stockboard/pkg/config"
	"github.com/mattressworks/stockboard/pkg/httputil"
	"github.com/mattressworks/stockboard/pkg/logger"
	"github.com/mattressworks/stockboard/pkg/metrics"
)

const serviceName = "stockboard"

// healthCheck reports the state of one dependency
type healthCheck func(ctx context.Context) map[string]string

// routes holds everything the router needs
type routes struct {
	cfg       *config.Config
	log       *logger.Logger
	auth      *gateway.Auth
	proxy     *gateway.Proxy
	metrics   *metrics.Metrics
	dashboard *handler.DashboardHandler
	stock     *handler.StockHandler
	reports   *handler.ReportHandler
	audit     *handler.AuditHandler
	health    map[string]healthCheck
}

func (rt *routes) handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(rt.log))
	r.Use(httputil.Recoverer(rt.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", httputil.RequestIDHeader},
		ExposedHeaders:   []string{httputil.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", rt.healthHandler)

	if rt.cfg.Metrics.Enabled && rt.metrics != nil {
		r.Method(http.MethodGet, rt.cfg.Metrics.Path, rt.metrics.Handler())
	}

	managers := rt.auth.RequireRole(gateway.RoleAdmin, gateway.RoleManager)
	admins := rt.auth.RequireRole(gateway.RoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes, proxied to the stock API
		r.Post("/auth/login", rt.proxy.ForwardToStockAPI)
		r.Post("/auth/refresh", rt.proxy.ForwardToStockAPI)

		r.Group(func(r chi.Router) {
			r.Use(rt.auth.Middleware)

			r.Get("/dashboard", rt.dashboard.GetStats)
			r.Post("/dashboard/refresh", rt.dashboard.Refresh)

			r.Route("/materials", func(r chi.Router) {
				r.Get("/", rt.dashboard.ListMaterials)
				r.With(managers).Post("/", rt.stock.CreateMaterial)
				r.With(managers).Post("/{id}/add", rt.stock.AddQuantity)
				r.With(managers).Post("/{id}/subtract", rt.stock.SubtractQuantity)
				r.With(managers).Post("/{id}/defects", rt.stock.RecordDefect)
				r.With(admins).Delete("/{id}", rt.stock.DeleteMaterial)
			})

			r.Get("/groups/tree", rt.dashboard.GetGroupTree)
			r.Get("/alerts", rt.dashboard.ListAlerts)

			r.Route("/products", func(r chi.Router) {
				r.Get("/", rt.dashboard.ListProducts)
				r.With(managers).Post("/", rt.stock.CreateProduct)
				r.With(managers).Put("/{id}/materials", rt.stock.AlterMaterials)
			})

			r.Route("/production", func(r chi.Router) {
				r.Get("/", rt.dashboard.ListProduction)
				r.Get("/{id}", rt.dashboard.GetProduction)
				r.Get("/{id}/shortfall", rt.dashboard.GetShortfall)
				r.With(managers).Post("/{id}/produce", rt.stock.Produce)
			})

			r.Get("/transactions", rt.stock.ListTransactions)
			r.Get("/reports/{name}", rt.reports.Download)
			r.With(admins).Get("/audit", rt.audit.List)
		})
	})

	return r
}

func (rt *routes) healthHandler(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":  "healthy",
		"service": serviceName,
	}
	for name, check := range rt.health {
		result := check(r.Context())
		if result["status"] != "up" {
			body["status"] = "degraded"
		}
		body[name] = result
	}

	httputil.JSON(w, http.StatusOK, body)
}
