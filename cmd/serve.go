package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/setorlab/choromap/internal/analysis"
	"github.com/setorlab/choromap/internal/render"
	"github.com/setorlab/choromap/internal/store"
)

//go:embed viewer.html
var viewerHTML []byte

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the choropleth viewer and analysis API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Serve.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
		}))

		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write(viewerHTML)
		})

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/api/runs", func(w http.ResponseWriter, req *http.Request) {
			runs, err := st.ListRuns(req.Context(), 50)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, runs)
		})

		r.Get("/api/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
			run, err := st.GetRun(req.Context(), chi.URLParam(req, "id"))
			if eris.Is(err, store.ErrNotFound) {
				http.Error(w, `{"error":"run not found"}`, http.StatusNotFound)
				return
			}
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, run)
		})

		// Runs the configured analysis over the stored data and returns the
		// color-assigned GeoJSON. The viewer calls this on load.
		r.Post("/api/analyze", func(w http.ResponseWriter, req *http.Request) {
			spec, err := buildSpec(cfg.Analyze)
			if err != nil {
				writeError(w, err)
				return
			}
			tracts, err := st.LoadTracts(req.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			events, err := st.LoadEvents(req.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			res, err := analysis.Run(req.Context(), tracts, events, spec)
			if err != nil {
				writeError(w, err)
				return
			}
			fc, err := render.FeatureCollection(res.Enriched)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"run_id":   res.RunID,
				"variants": variantNames(res),
				"summary":  res.Summary,
				"warnings": res.Warnings,
				"geojson":  fc,
			})
		})

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Serve.Port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("serve: listening", zap.Int("port", cfg.Serve.Port))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		}
	},
}

func variantNames(res *analysis.Result) []string {
	names := make([]string, 0, len(res.Variants))
	for name := range res.Variants {
		names = append(names, name)
	}
	return names
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	zap.L().Error("serve: request failed", zap.Error(err))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
