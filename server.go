package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/geotrack/geotrack/geolib"
	"github.com/geotrack/geotrack/storage"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

const serverRequestTimeout = 60 * time.Second

type historyReader interface {
	Recent(context.Context, int) ([]storage.Entry, error)
}

func makeServer(orchestrator *geolib.Orchestrator, history historyReader, conf *config) http.Handler {
	metrics := newHTTPMetrics(orchestrator)
	api := metrics.Instrument(geolib.NewHTTPHandler(orchestrator))
	router := chi.NewRouter()

	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(serverRequestTimeout))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RealIP)

	if conf.BasicAuth.Enabled() {
		router.Use(basicAuth(conf.BasicAuth.User, conf.BasicAuth.Password))
	}

	router.Handle("/metrics", metrics.Handler())

	if history != nil {
		router.Method(http.MethodGet, "/history", metrics.Instrument(persistedHistoryHandler(history)))
	}

	router.Handle("/", api)
	router.Handle("/*", api)

	return router
}

// persistedHistoryHandler serves ?limit= latest persisted entries,
// newest first.
func persistedHistoryHandler(history historyReader) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		limit := storage.DefaultRecentLimit

		if value := req.URL.Query().Get("limit"); value != "" {
			parsed, err := strconv.Atoi(value)
			if err != nil || parsed <= 0 {
				geolib.WriteError(w, err, "Incorrect limit", http.StatusBadRequest)

				return
			}

			limit = parsed
		}

		entries, err := history.Recent(req.Context(), limit)
		if err != nil {
			geolib.WriteError(w, err, "Cannot read history", http.StatusInternalServerError)

			return
		}

		geolib.WriteJSON(w, struct {
			Entries []storage.Entry `json:"entries"`
		}{
			Entries: entries,
		})
	}
}
