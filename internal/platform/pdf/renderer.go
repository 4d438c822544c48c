// Package pdf renders clinical documents as A4 PDFs.
package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Document carries the fields every rendered clinical document shares.
type Document struct {
	PatientName       string
	PatientIdentifier string
	Body              string
	Physician         string
	Registration      string
	Unit              string
}

// Renderer draws certificates, prescriptions and reports. An optional logo
// image is placed in the header when the configured file exists.
type Renderer struct {
	LogoFile string
	header   string
	subline  string
}

func NewRenderer(logoFile string) *Renderer {
	return &Renderer{
		LogoFile: logoFile,
		header:   "Primary Care Unit - Municipal Health Department",
		subline:  "clinnote - clinical documentation",
	}
}

func (r *Renderer) newPage(title string) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	if r.LogoFile != "" {
		if _, err := os.Stat(r.LogoFile); err == nil {
			pdf.ImageOptions(r.LogoFile, 20, 12, 24, 0, false,
				gofpdf.ImageOptions{ReadDpi: true}, 0, "")
		}
	}

	pdf.SetXY(50, 14)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 6, r.header, "", 1, "L", false, 0, "")
	pdf.SetX(50)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, r.subline, "", 1, "L", false, 0, "")

	pdf.SetY(40)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 11)
	return pdf
}

func (r *Renderer) patientLine(pdf *gofpdf.Fpdf, d Document) {
	pdf.CellFormat(0, 7, fmt.Sprintf("Patient: %s - ID %s", d.PatientName, d.PatientIdentifier),
		"", 1, "L", false, 0, "")
	pdf.Ln(3)
}

func (r *Renderer) footer(pdf *gofpdf.Fpdf, d Document) {
	pdf.Ln(8)
	pdf.CellFormat(0, 7, fmt.Sprintf("Physician: %s - Reg. %s - %s", d.Physician, d.Registration, d.Unit),
		"", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Date: "+time.Now().Format("02/01/2006"), "", 1, "L", false, 0, "")
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Certificate renders a medical certificate. An empty body falls back to the
// standard leave-of-absence wording.
func (r *Renderer) Certificate(d Document) ([]byte, error) {
	pdf := r.newPage("MEDICAL CERTIFICATE")
	r.patientLine(pdf, d)

	body := d.Body
	if body == "" {
		body = "I hereby certify, for all due purposes, that the patient requires a leave of absence."
	}
	pdf.MultiCell(0, 7, body, "", "L", false)

	r.footer(pdf, d)
	return output(pdf)
}

// Prescription renders a simple prescription, one medication per body line.
func (r *Renderer) Prescription(d Document) ([]byte, error) {
	pdf := r.newPage("PRESCRIPTION")
	r.patientLine(pdf, d)

	for _, line := range strings.Split(d.Body, "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		pdf.CellFormat(0, 7, "- "+line, "", 1, "L", false, 0, "")
	}

	r.footer(pdf, d)
	return output(pdf)
}

// Report renders a free-text clinical report.
func (r *Renderer) Report(d Document) ([]byte, error) {
	pdf := r.newPage("CLINICAL REPORT")
	r.patientLine(pdf, d)

	pdf.MultiCell(0, 7, d.Body, "", "L", false)

	r.footer(pdf, d)
	return output(pdf)
}
