package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "batchline/internal/errors"
	"batchline/internal/query"
	"batchline/internal/services"
	"batchline/pkg/contracts/domain"
)

// BatchListResponse is the body of GET /api/batches
type BatchListResponse struct {
	Filter  query.Filter         `json:"filter"`
	Count   int                  `json:"count"`
	Batches []domain.BatchRecord `json:"batches"`
}

// BatchHandler serves consolidated batch records
type BatchHandler struct {
	service      DatasetServiceInterface
	location     *time.Location
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewBatchHandler creates a new batch handler. Bare dates in the list filter
// are read in loc.
func NewBatchHandler(service DatasetServiceInterface, loc *time.Location, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *BatchHandler {
	return &BatchHandler{
		service:      service,
		location:     loc,
		logger:       logger.With(slog.String("handler", "batch")),
		errorHandler: errorHandler,
	}
}

// Routes returns the batch routes
func (h *BatchHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.List)
	r.Route("/{batchID}/{equipment}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Get("/cycle", h.Cycle)
	})

	return r
}

// List handles GET /api/batches
func (h *BatchHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := query.FilterFromValues(r.URL.Query(), h.location)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	records, err := h.service.Batches(r.Context(), f)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if records == nil {
		records = []domain.BatchRecord{}
	}

	h.logger.DebugContext(r.Context(), "Listed batches",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("count", len(records)))

	render.JSON(w, r, BatchListResponse{Filter: f, Count: len(records), Batches: records})
}

// Get handles GET /api/batches/{batchID}/{equipment}
func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	batchID, equipment, ok := h.batchKey(w, r)
	if !ok {
		return
	}

	rec, err := h.service.Batch(r.Context(), batchID, equipment)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapError(err, batchID, equipment))
		return
	}
	render.JSON(w, r, rec)
}

// Cycle handles GET /api/batches/{batchID}/{equipment}/cycle
func (h *BatchHandler) Cycle(w http.ResponseWriter, r *http.Request) {
	batchID, equipment, ok := h.batchKey(w, r)
	if !ok {
		return
	}

	ct, err := h.service.Cycle(r.Context(), batchID, equipment)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapError(err, batchID, equipment))
		return
	}
	render.JSON(w, r, ct)
}

// Facets handles GET /api/facets
func (h *BatchHandler) Facets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.service.Facets(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, facets)
}

func (h *BatchHandler) batchKey(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	batchID, err := url.PathUnescape(chi.URLParam(r, "batchID"))
	if err != nil || batchID == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("batchID", "invalid batch id"))
		return "", "", false
	}
	equipment, err := url.PathUnescape(chi.URLParam(r, "equipment"))
	if err != nil || equipment == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("equipment", "invalid equipment group"))
		return "", "", false
	}
	return batchID, equipment, true
}

func (h *BatchHandler) mapError(err error, batchID, equipment string) error {
	if errors.Is(err, services.ErrBatchNotFound) {
		return apierrors.NotFoundError("batch " + batchID + " on " + equipment)
	}
	return err
}
