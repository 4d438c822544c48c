package documents

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinnote/clinnote/internal/platform/pdf"
)

type Handler struct {
	renderer *pdf.Renderer
}

func NewHandler(renderer *pdf.Renderer) *Handler {
	return &Handler{renderer: renderer}
}

// RegisterRoutes registers the document endpoints on an entitlement-gated
// group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/pdf/certificate", h.Certificate)
	g.POST("/pdf/prescription", h.Prescription)
	g.POST("/pdf/report", h.Report)
}

type documentRequest struct {
	Identifier   string `json:"identifier"`
	Name         string `json:"name"`
	Body         string `json:"body"`
	Physician    string `json:"physician"`
	Registration string `json:"registration"`
	Unit         string `json:"unit"`
}

func (req *documentRequest) toDocument() pdf.Document {
	return pdf.Document{
		PatientName:       req.Name,
		PatientIdentifier: req.Identifier,
		Body:              req.Body,
		Physician:         req.Physician,
		Registration:      req.Registration,
		Unit:              req.Unit,
	}
}

func (h *Handler) Certificate(c echo.Context) error {
	return h.render(c, "certificate.pdf", h.renderer.Certificate)
}

func (h *Handler) Prescription(c echo.Context) error {
	return h.render(c, "prescription.pdf", h.renderer.Prescription)
}

func (h *Handler) Report(c echo.Context) error {
	return h.render(c, "report.pdf", h.renderer.Report)
}

func (h *Handler) render(c echo.Context, filename string, build func(pdf.Document) ([]byte, error)) error {
	var req documentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Identifier == "" || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "identifier and name are required")
	}

	data, err := build(req.toDocument())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "application/pdf", data)
}
