package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/bazaar-console/api/controllers"
	"github.com/angelmondragon/bazaar-console/api/middleware"
	"github.com/angelmondragon/bazaar-console/internal/console"
	"github.com/angelmondragon/bazaar-console/internal/products"
	"github.com/angelmondragon/bazaar-console/internal/users"
	"github.com/angelmondragon/bazaar-console/pkg/config"
	"github.com/angelmondragon/bazaar-console/pkg/logger"
	"github.com/angelmondragon/bazaar-console/pkg/metrics"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	ws *console.Workspace,
	backend controllers.Pinger,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.Console.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, backend))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/dashboard", controllers.Dashboard(ws, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.ListCollection[users.User, users.Card](ws.Users, logg))
			r.Post("/", controllers.UserCreate(ws.Users, logg))
			r.Get("/{userId}", controllers.GetItem[users.User, users.Card](ws.Users, "userId", logg))
			r.Put("/{userId}", controllers.UserUpdate(ws.Users, logg))
			r.Delete("/{userId}", controllers.DeleteItem[users.User, users.Card](ws.Users, "userId", logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListCollection[products.Product, products.Card](ws.Products, logg))
			r.Post("/", controllers.ProductCreate(cfg, ws.Products, logg))
			r.Get("/category-distribution", controllers.CategoryDistribution(ws.Distribution, logg))
			r.Get("/{productId}", controllers.GetItem[products.Product, products.Card](ws.Products, "productId", logg))
			r.Put("/{productId}", controllers.ProductUpdate(cfg, ws.Products, logg))
			r.Delete("/{productId}", controllers.DeleteItem[products.Product, products.Card](ws.Products, "productId", logg))
		})

		r.Route("/chat", func(r chi.Router) {
			r.Get("/", controllers.ChatView(ws.Chat))
			r.Post("/messages", controllers.ChatSend(cfg, ws.Chat, logg))
		})
	})

	return r
}
