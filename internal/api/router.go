// Package api wires the HTTP surface: routing, middleware and handlers.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Aryamaan9/ResearchPortalCodex/internal/api/handlers"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/api/middleware"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/config"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/document"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/insight"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/qa"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/queue"
	"github.com/Aryamaan9/ResearchPortalCodex/internal/search"
)

// Deps holds the services the router exposes over HTTP. They are constructed
// in main so their lifecycles outlive individual requests.
type Deps struct {
	DB          *pgxpool.Pool
	Redis       *redis.Client
	Config      *config.Config
	Documents   *document.Service
	QueueClient *queue.Client
	Retriever   *search.Retriever
	Index       search.Indexer
	Synthesizer *qa.Synthesizer
	History     *qa.History
	Insights    *insight.Service
	Logger      *slog.Logger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	health := handlers.NewHealthHandler(d.DB, d.Redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	docs := handlers.NewDocumentHandler(d.Documents, d.QueueClient, d.Insights, d.Synthesizer, d.Index, d.Config.Pipeline.MaxUploadBytes, d.Logger)
	searchH := handlers.NewSearchHandler(d.Retriever, d.Logger)
	qaH := handlers.NewQAHandler(d.Synthesizer, d.History, d.Config.Pipeline.HistoryLimit, d.Logger)
	dash := handlers.NewDashboardHandler(d.Documents, d.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard/stats", dash.Stats)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/upload", docs.Upload)
			r.Get("/", docs.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", docs.Get)
				r.Delete("/", docs.Delete)
				r.Get("/status", docs.Status)
				r.Get("/download", docs.Download)
				r.Get("/view", docs.View)
				r.Post("/summary", docs.Summary)
				r.Post("/page-insight", docs.PageInsight)
				r.Post("/ask", docs.Ask)
			})
		})

		r.Post("/search", searchH.Search)

		r.Route("/qa", func(r chi.Router) {
			r.Post("/ask", qaH.Ask)
			r.Get("/history", qaH.History)
		})
	})

	return r
}
