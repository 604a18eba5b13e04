package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/abirzishan32/Tukhor-AI/app"
	"github.com/abirzishan32/Tukhor-AI/handlers"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(deps.Config.Server.RequestTimeout))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := handlers.NewHealthHandler(deps.DB.DB, deps.Index, deps.Logger)
	queryHandler := handlers.NewQueryHandler(deps.RAGService, deps.DocumentService, deps.Logger)
	chatHandler := handlers.NewChatHandler(deps.RAGService, deps.Logger)
	documentHandler := handlers.NewDocumentHandler(deps.DocumentService, deps.Logger)
	evaluationHandler := handlers.NewEvaluationHandler(deps.EvaluationService, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// API v1 routes (all require authentication)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)

		r.Route("/rag", func(r chi.Router) {
			r.Post("/ask", queryHandler.HandleAsk)
			r.Post("/feedback", evaluationHandler.HandleFeedback)
			r.Get("/stats", queryHandler.HandleStats)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", documentHandler.HandleUpload)
			r.Post("/initialize", documentHandler.HandleInitialize)
			r.Get("/", documentHandler.HandleListDocuments)
			r.Get("/{id}", documentHandler.HandleGetDocument)
			r.Delete("/{id}", documentHandler.HandleDeleteDocument)
		})

		r.Route("/chats", func(r chi.Router) {
			r.Get("/", chatHandler.HandleListChats)
			r.Get("/{id}/messages", chatHandler.HandleChatMessages)
			r.Delete("/{id}", chatHandler.HandleDeleteChat)
		})

		r.Route("/evaluation", func(r chi.Router) {
			r.Get("/stats", evaluationHandler.HandleStats)
			r.Get("/messages/{id}", evaluationHandler.HandleGetEvaluation)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
