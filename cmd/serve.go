package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccrestaurant/lead-intel/internal/model"
	"github.com/ccrestaurant/lead-intel/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for enrichment and fact review",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: env.router(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// router builds the full HTTP route tree.
func (e *engineEnv) router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/leads", e.handleListLeads)
		api.Post("/leads", e.handleCreateLead)
		api.Get("/leads/{leadID}", e.handleGetLead)
		api.Post("/leads/{leadID}/enrich", e.handleEnrichLead)
		api.Get("/facts", e.handleListFacts)
		api.Post("/facts/{factID}/review", e.handleReviewFact)
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case model.IsNotFound(err):
		code = http.StatusNotFound
	case model.IsValidation(err):
		code = http.StatusBadRequest
	case model.IsAlreadyReviewed(err):
		code = http.StatusConflict
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func (e *engineEnv) handleListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := e.Store.ListLeads(r.Context(), store.LeadFilter{
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

func (e *engineEnv) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var lead model.LeadProfile
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if lead.CompanyName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "company_name is required"})
		return
	}
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}

	if err := e.Store.CreateLead(r.Context(), &lead); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

func (e *engineEnv) handleGetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := e.Store.GetLead(r.Context(), chi.URLParam(r, "leadID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (e *engineEnv) handleEnrichLead(w http.ResponseWriter, r *http.Request) {
	result, err := e.EnrichLead(r.Context(), chi.URLParam(r, "leadID"), 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (e *engineEnv) handleListFacts(w http.ResponseWriter, r *http.Request) {
	facts, err := e.Store.ListFacts(r.Context(), store.FactFilter{
		Status: model.FactStatus(r.URL.Query().Get("status")),
		LeadID: r.URL.Query().Get("lead_id"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, facts)
}

func (e *engineEnv) handleReviewFact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Decision string `json:"decision"`
		Reason   string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := e.Queue.Decide(r.Context(), chi.URLParam(r, "factID"), model.ReviewDecision(req.Decision), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
