package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "batchline/internal/errors"
	"batchline/internal/services"
)

// multipartMemory is how much of a multipart upload is held in memory
// before spilling to temporary files.
const multipartMemory = 8 << 20

// DatasetHandler handles dataset upload and lifecycle requests
type DatasetHandler struct {
	service        DatasetServiceInterface
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	maxUploadBytes int64
	uploadMW       []func(http.Handler) http.Handler
}

// NewDatasetHandler creates a dataset handler. maxUploadBytes <= 0 disables
// the size limit.
func NewDatasetHandler(service DatasetServiceInterface, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:        service,
		logger:         logger.With(slog.String("handler", "dataset")),
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
	}
}

// WithUploadMiddleware adds middleware that only wraps the upload route
func (h *DatasetHandler) WithUploadMiddleware(mw ...func(http.Handler) http.Handler) *DatasetHandler {
	h.uploadMW = append(h.uploadMW, mw...)
	return h
}

// Routes returns the dataset routes
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.With(h.uploadMW...).Post("/", h.Upload)
	r.Get("/current", h.Current)
	r.Delete("/current", h.Clear)

	return r
}

// Upload handles POST /api/datasets. The file arrives either as the "file"
// part of a multipart form or as a raw body named by the "name" query value.
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	name, data, err := h.readUpload(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to read upload",
			slog.String("request_id", reqID),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Dataset upload received",
		slog.String("request_id", reqID),
		slog.String("file", name),
		slog.Int("bytes", len(data)))

	summary, err := h.service.Ingest(r.Context(), name, data)
	if err != nil {
		if errors.Is(err, services.ErrEmptyUpload) {
			err = apierrors.ErrValidation("file", "file is empty")
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, summary)
}

func (h *DatasetHandler) readUpload(r *http.Request) (string, []byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		name := r.URL.Query().Get("name")
		if name == "" {
			return "", nil, apierrors.ErrValidation("name", "name query parameter is required for raw uploads")
		}
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return "", nil, fmt.Errorf("read body: %w", err)
		}
		return filepath.Base(name), data, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", nil, maxErr
		}
		return "", nil, apierrors.InvalidRequestWithError(err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, apierrors.ErrValidation("file", "multipart field \"file\" is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", header.Filename, err)
	}
	return filepath.Base(header.Filename), data, nil
}

// Current handles GET /api/datasets/current
func (h *DatasetHandler) Current(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Current(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// Clear handles DELETE /api/datasets/current
func (h *DatasetHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "Clearing dataset",
		slog.String("request_id", middleware.GetReqID(r.Context())))
	h.service.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
