package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tablefare/enrich-cli/internal/ingest"
	"github.com/tablefare/enrich-cli/internal/model"
	"github.com/tablefare/enrich-cli/internal/snapshot"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the snapshot and enrichment HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		// The dataset dashboard is served from another origin.
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/snapshots", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Dataset []model.SourceRecord `json:"dataset"`
				CSVData string               `json:"csv_data"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}

			records := body.Dataset
			if len(records) == 0 && body.CSVData != "" {
				parsed, err := ingest.ReadCSVString(body.CSVData)
				if err != nil {
					writeError(w, http.StatusBadRequest, err.Error())
					return
				}
				records = parsed
			}
			if err := ingest.Validate(records); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}

			snap, status, err := env.Store.Create(req.Context(), records)
			if err != nil {
				zap.L().Error("snapshot create failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "snapshot creation failed")
				return
			}

			code := http.StatusCreated
			if status == snapshot.StatusReused {
				code = http.StatusOK
			}
			writeJSON(w, code, map[string]any{
				"snapshot_id": snap.ID,
				"row_count":   len(snap.Rows),
				"status":      string(status),
			})
		})

		r.Get("/snapshots/{id}", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "id")
			snap, err := env.Store.Get(req.Context(), id)
			if err != nil {
				if eris.Is(err, snapshot.ErrNotFound) {
					writeError(w, http.StatusNotFound, fmt.Sprintf("snapshot %s not found", id))
					return
				}
				zap.L().Error("snapshot lookup failed", zap.String("snapshot_id", id), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "snapshot lookup failed")
				return
			}
			writeJSON(w, http.StatusOK, snap)
		})

		r.Post("/runs", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				SnapshotID string `json:"snapshot_id"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if body.SnapshotID == "" {
				writeError(w, http.StatusBadRequest, "snapshot_id is required")
				return
			}

			res, err := env.Runner.Run(req.Context(), body.SnapshotID)
			if err != nil {
				if eris.Is(err, snapshot.ErrNotFound) {
					writeError(w, http.StatusNotFound,
						fmt.Sprintf("unknown snapshot %s; POST /snapshots to create it first", body.SnapshotID))
					return
				}
				zap.L().Error("run failed", zap.String("snapshot_id", body.SnapshotID), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "run failed")
				return
			}
			writeJSON(w, http.StatusOK, res)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "cmd: server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
