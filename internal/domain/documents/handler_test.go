package documents

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinnote/clinnote/internal/platform/pdf"
)

func doRender(t *testing.T, h echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/pdf/certificate", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestCertificateEndpoint(t *testing.T) {
	h := NewHandler(pdf.NewRenderer(""))

	rec := doRender(t, h.Certificate,
		`{"identifier":"12345678900","name":"Ana Souza","body":"Rest for 3 days.","physician":"Dr. Carla Lima","registration":"CRM 12345","unit":"Unit 7"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "certificate.pdf") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Error("body is not a PDF")
	}
}

func TestRenderRequiresPatientFields(t *testing.T) {
	h := NewHandler(pdf.NewRenderer(""))

	rec := doRender(t, h.Prescription, `{"body":"AMOXICILLIN 500mg"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestReportEndpointFilename(t *testing.T) {
	h := NewHandler(pdf.NewRenderer(""))

	rec := doRender(t, h.Report, `{"identifier":"123","name":"Ana","body":"Findings: unremarkable."}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "report.pdf") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}
