package assist

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinnote/clinnote/internal/platform/ai"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the completion endpoints on an entitlement-gated
// group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/assist/diagnosis", h.Diagnosis)
	g.POST("/assist/prescription", h.Prescription)
	g.POST("/assist/report", h.Report)
	g.POST("/assist/exam", h.InterpretExam)
}

type askRequest struct {
	Context ClinicalContext `json:"context"`
	Ask     string          `json:"ask"`
}

type completionResponse struct {
	Text string `json:"text"`
}

func (h *Handler) Diagnosis(c echo.Context) error {
	var cc ClinicalContext
	if err := c.Bind(&cc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	text, err := h.svc.Diagnosis(c.Request().Context(), cc)
	if err != nil {
		return completionHTTPError(err)
	}
	return c.JSON(http.StatusOK, completionResponse{Text: text})
}

func (h *Handler) Prescription(c echo.Context) error {
	var cc ClinicalContext
	if err := c.Bind(&cc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	text, err := h.svc.Prescription(c.Request().Context(), cc)
	if err != nil {
		return completionHTTPError(err)
	}
	return c.JSON(http.StatusOK, completionResponse{Text: text})
}

func (h *Handler) Report(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	text, err := h.svc.Report(c.Request().Context(), req.Context, req.Ask)
	if err != nil {
		return completionHTTPError(err)
	}
	return c.JSON(http.StatusOK, completionResponse{Text: text})
}

func (h *Handler) InterpretExam(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	text, err := h.svc.InterpretExam(c.Request().Context(), req.Context, req.Ask)
	if err != nil {
		return completionHTTPError(err)
	}
	return c.JSON(http.StatusOK, completionResponse{Text: text})
}

func completionHTTPError(err error) error {
	if errors.Is(err, ai.ErrMisconfigured) {
		return echo.NewHTTPError(http.StatusInternalServerError, "language model provider is not configured")
	}
	return echo.NewHTTPError(http.StatusBadGateway, err.Error())
}
