package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Handler struct {
	logger      *zap.Logger
	snapshotter snapshotter
	builder     batchBuilder
	driver      submissionDriver
}

func NewHandler(logger *zap.Logger, snapshotter snapshotter, builder batchBuilder, driver submissionDriver) *Handler {
	return &Handler{
		logger:      logger,
		snapshotter: snapshotter,
		builder:     builder,
		driver:      driver,
	}
}

// Router returns the HTTP routes of the service.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(loggingMiddleware(h.logger))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/wallets/{owner}/holdings", h.GetHoldings)
		r.Post("/sweep/build", h.BuildSweep)
		r.Post("/sweep/send", h.SendSweep)
	})
	return r
}
