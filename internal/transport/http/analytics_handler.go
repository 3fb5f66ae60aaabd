package http

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "batchline/internal/errors"
	"batchline/internal/services"
	api "batchline/pkg/contracts/api/v1"
	"batchline/pkg/contracts/domain"
)

// DegradationResponse is the body of GET /api/analytics/degradation
type DegradationResponse struct {
	Equipment string                    `json:"equipment,omitempty"`
	Alerts    []domain.DegradationAlert `json:"alerts"`
}

// AnalyticsHandler serves the statistical analyses
type AnalyticsHandler struct {
	service      AnalyticsServiceInterface
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(service AnalyticsServiceInterface, validate *validator.Validate, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:      service,
		validate:     validate,
		logger:       logger.With(slog.String("handler", "analytics")),
		errorHandler: errorHandler,
	}
}

// Routes returns the analytics routes
func (h *AnalyticsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/degradation", h.Degradation)
	r.Post("/capability", h.Capability)
	r.Get("/control-chart", h.ControlChart)
	r.Get("/report", h.Report)

	return r
}

// Degradation handles GET /api/analytics/degradation
func (h *AnalyticsHandler) Degradation(w http.ResponseWriter, r *http.Request) {
	equipment := strings.TrimSpace(r.URL.Query().Get("equipment"))

	alerts, err := h.service.Degradation(r.Context(), equipment)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, DegradationResponse{Equipment: equipment, Alerts: alerts})
}

// Capability handles POST /api/analytics/capability
func (h *AnalyticsHandler) Capability(w http.ResponseWriter, r *http.Request) {
	var req api.CapabilityRequest
	if err := render.Bind(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	sel := services.Selection{EquipmentGroup: req.Equipment, StepName: req.Step, Parameter: req.Parameter}
	res, err := h.service.Capability(r.Context(), sel, req.Values, *req.LSL, *req.USL)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapError(err))
		return
	}

	h.logger.DebugContext(r.Context(), "Capability computed",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("sample_size", res.SampleSize))

	render.JSON(w, r, res)
}

// ControlChart handles GET /api/analytics/control-chart
func (h *AnalyticsHandler) ControlChart(w http.ResponseWriter, r *http.Request) {
	chart, err := h.service.ControlChart(r.Context(), selectionFromQuery(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapError(err))
		return
	}
	render.JSON(w, r, chart)
}

// Report handles GET /api/analytics/report
func (h *AnalyticsHandler) Report(w http.ResponseWriter, r *http.Request) {
	lsl, err := optionalFloat(r, "lsl")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	usl, err := optionalFloat(r, "usl")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	rep, err := h.service.Report(r.Context(), selectionFromQuery(r), lsl, usl)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapError(err))
		return
	}
	render.JSON(w, r, rep)
}

func (h *AnalyticsHandler) mapError(err error) error {
	if errors.Is(err, services.ErrNoSelection) {
		return apierrors.ErrValidation("step", err.Error())
	}
	return err
}

func selectionFromQuery(r *http.Request) services.Selection {
	q := r.URL.Query()
	return services.Selection{
		EquipmentGroup: strings.TrimSpace(q.Get("equipment")),
		StepName:       strings.TrimSpace(q.Get("step")),
		Parameter:      strings.TrimSpace(q.Get("parameter")),
	}
}

func optionalFloat(r *http.Request, name string) (*float64, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, apierrors.ErrValidation(name, "must be a finite number")
	}
	return &f, nil
}
