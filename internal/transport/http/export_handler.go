package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apierrors "batchline/internal/errors"
	"batchline/internal/exporter"
	"batchline/internal/query"
	"batchline/pkg/contracts/domain"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportHandler streams the current dataset as CSV or XLSX. Every export
// accepts the same query filter as GET /api/batches.
type ExportHandler struct {
	service      DatasetServiceInterface
	location     *time.Location
	csv          *exporter.CSVWriter
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewExportHandler creates a new export handler
func NewExportHandler(service DatasetServiceInterface, loc *time.Location, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	logger = logger.With(slog.String("handler", "export"))
	return &ExportHandler{
		service:      service,
		location:     loc,
		csv:          exporter.NewCSVWriter().WithLogger(logger),
		logger:       logger,
		errorHandler: errorHandler,
	}
}

// Routes returns the export routes
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/batches.csv", h.csvTable("batches.csv", exporter.BatchTable))
	r.Get("/steps.csv", h.csvTable("steps.csv", exporter.StepTable))
	r.Get("/materials.csv", h.csvTable("materials.csv", exporter.MaterialTable))
	r.Get("/parameters.csv", h.csvTable("parameters.csv", exporter.ParameterTable))
	r.Get("/batches.xlsx", h.Workbook)

	return r
}

func (h *ExportHandler) filtered(w http.ResponseWriter, r *http.Request) ([]domain.BatchRecord, bool) {
	f, err := query.FilterFromValues(r.URL.Query(), h.location)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return nil, false
	}
	records, err := h.service.Batches(r.Context(), f)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return nil, false
	}
	return records, true
}

func (h *ExportHandler) csvTable(filename string, build func([]domain.BatchRecord) exporter.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, ok := h.filtered(w, r)
		if !ok {
			return
		}
		t := build(records)

		var buf bytes.Buffer
		if err := h.csv.WriteTable(&buf, t); err != nil {
			h.errorHandler.HandleError(w, r, fmt.Errorf("export %s: %w", t.Name, err))
			return
		}

		h.logger.InfoContext(r.Context(), "CSV export",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("table", t.Name),
			slog.Int("rows", len(t.Rows)))

		h.send(w, contentTypeCSV, filename, buf.Bytes())
	}
}

// Workbook handles GET /api/export/batches.xlsx
func (h *ExportHandler) Workbook(w http.ResponseWriter, r *http.Request) {
	records, ok := h.filtered(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := exporter.WriteWorkbook(&buf, records); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "XLSX export",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("records", len(records)))

	h.send(w, contentTypeXLSX, "batches.xlsx", buf.Bytes())
}

// send writes a fully rendered file so failures never leave a partial download
func (h *ExportHandler) send(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
