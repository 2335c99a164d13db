package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mnp-lab/mnp-cli/internal/carrier"
	"github.com/mnp-lab/mnp-cli/internal/model"
	"github.com/mnp-lab/mnp-cli/internal/monitoring"
	"github.com/mnp-lab/mnp-cli/internal/profit"
	"github.com/mnp-lab/mnp-cli/internal/revision"
	"github.com/mnp-lab/mnp-cli/internal/risk"
	"github.com/mnp-lab/mnp-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		// Background risk alerting, only when a webhook is configured.
		if cfg.Monitoring.WebhookURL != "" {
			checker := monitoring.NewChecker(
				monitoring.NewCollector(st, reg),
				monitoring.NewAlerter(cfg.Monitoring),
				cfg.Monitoring,
			)
			go checker.Run(ctx)
		}

		r := buildRouter(reg, st)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
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

func buildRouter(reg *carrier.Registry, st store.Store) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	limiter := rate.NewLimiter(rate.Limit(cfg.Server.MutationRatePerSec), cfg.Server.MutationBurst)
	wf := revision.New(st)
	projector := profit.NewProjector(reg, model.CarrierID(cfg.Projection.FallbackCarrier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/lines", func(w http.ResponseWriter, req *http.Request) {
		includeArchived := req.URL.Query().Get("archived") == "true"
		lines, err := st.ListLines(req.Context(), includeArchived)
		if err != nil {
			writeError(w, err)
			return
		}

		asOf := time.Now().UTC()
		type lineWithRisk struct {
			model.ContractLine
			Risk *model.RiskAssessment `json:"risk,omitempty"`
		}
		out := make([]lineWithRisk, 0, len(lines))
		for _, line := range lines {
			row := lineWithRisk{ContractLine: line}
			if a, err := risk.AssessLine(reg, line, asOf); err == nil {
				row.Risk = &a
			}
			out = append(out, row)
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Get("/api/check-transfer", func(w http.ResponseWriter, req *http.Request) {
		from := req.URL.Query().Get("from")
		to := req.URL.Query().Get("to")
		if from == "" || to == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "from and to are required"})
			return
		}
		res, err := reg.CheckTransfer(model.CarrierID(from), model.CarrierID(to))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	r.Post("/api/project", func(w http.ResponseWriter, req *http.Request) {
		var s model.ScenarioConfig
		if err := json.NewDecoder(req.Body).Decode(&s); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		writeJSON(w, http.StatusOK, projector.Project(s))
	})

	r.Get("/api/revisions", func(w http.ResponseWriter, req *http.Request) {
		proposals, err := st.ListProposals(req.Context(), store.ProposalFilter{
			Status:  model.ProposalStatus(req.URL.Query().Get("status")),
			Carrier: model.CarrierID(req.URL.Query().Get("carrier")),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, proposals)
	})

	// Mutations share one token bucket.
	r.Group(func(r chi.Router) {
		r.Use(rateLimit(limiter))

		r.Post("/api/revisions/detect", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Facts []model.ObservedFact `json:"facts"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			created, err := wf.DetectChanges(req.Context(), body.Facts)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"created": created})
		})

		r.Post("/api/revisions/{id}/approve", func(w http.ResponseWriter, req *http.Request) {
			p, err := wf.Approve(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, p)
		})

		r.Post("/api/revisions/{id}/dismiss", func(w http.ResponseWriter, req *http.Request) {
			p, err := wf.Dismiss(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, p)
		})
	})

	return r
}

// rateLimit rejects requests once the mutation token bucket is drained.
func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case eris.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case eris.Is(err, model.ErrInvalidState):
		status = http.StatusConflict
	case eris.Is(err, model.ErrUnknownCarrier):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
