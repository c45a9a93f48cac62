package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/zombor/gigguard/internal/benchmark"
	"github.com/zombor/gigguard/internal/parsing"
	"github.com/zombor/gigguard/internal/scanning"
)

// Page geometry in points (Letter)
const (
	margin       = 50.0
	pageWidth    = 612.0
	textWidth    = 500.0
	imageWidth   = 300.0
	imageHeight  = 350.0
	lineHeight   = 15.0
	maxLines     = 12
	receiptImage = "receipt"
)

// Evidence is everything that goes into an evidence pack
type Evidence struct {
	Facts       parsing.ReceiptFacts
	Audit       *benchmark.AuditResult // optional
	Transcript  string                 // optional
	Image       []byte
	ImageType   string
	GeneratedAt time.Time
}

// Render builds the evidence pack PDF
func Render(ev Evidence) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Header
	pdf.SetFont("Helvetica", "B", 20)
	pdf.Text(margin, 50, "GigGuard: Multi-Modal Audit Report")
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(margin, 70, "Generated on: "+ev.GeneratedAt.Format("2006-01-02 15:04:05"))
	pdf.SetLineWidth(1)
	pdf.Line(margin, 95, pageWidth-margin, 95)

	// Section 1
	y := 130.0
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(margin, y, "1. Automated Analysis Result")

	y += 25
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(margin, y, tr("Detected Date: "+ev.Facts.DetectedDate))
	y += 20
	pdf.Text(margin, y, fmt.Sprintf("Total Earnings: INR %v", ev.Facts.TotalEarnings))
	y += 20
	if ev.Facts.PenaltyFlag {
		pdf.SetTextColor(204, 0, 0)
		pdf.Text(margin, y, "STATUS: UNFAIR PENALTY DETECTED")
	} else {
		pdf.SetTextColor(0, 128, 0)
		pdf.Text(margin, y, "STATUS: FAIR PAY VERIFIED")
	}
	pdf.SetTextColor(0, 0, 0)

	if ev.Audit != nil {
		y += 20
		pdf.Text(margin, y, tr(fmt.Sprintf("Regional Benchmark (%s): %v percentile, %s",
			ev.Audit.ModelRegion, ev.Audit.PercentileRank, ev.Audit.AuditStatus)))
	}

	// Section 2
	y += 50
	if ev.Transcript != "" {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.Text(margin, y, "2. Driver's Verbal Testimony (Transcribed)")
		y += 25
		pdf.SetFont("Helvetica", "I", 10)
		lines := wrap(pdf, tr(ev.Transcript), textWidth)
		if len(lines) > maxLines {
			lines = lines[:maxLines]
			lines[maxLines-1] += " ..."
		}
		for _, line := range lines {
			pdf.Text(margin, y, line)
			y += lineHeight
		}
		y += 15
	}

	// Section 3
	y += 40
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(margin, y, "3. Visual Evidence")
	if !drawImage(pdf, ev.Image, ev.ImageType, y+15) {
		pdf.SetFont("Helvetica", "", 12)
		pdf.Text(margin, y+20, "[Image could not be rendered]")
	}

	// Footer
	pdf.SetFont("Helvetica", "", 8)
	pdf.Text(margin, 762, "Powered by GigGuard Voice Witness Protocol")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// drawImage places the receipt inside the image box, keeping its aspect ratio.
// It reports false when the image cannot be decoded.
func drawImage(pdf *gofpdf.Fpdf, data []byte, contentType string, top float64) bool {
	if len(data) == 0 {
		return false
	}
	pngData, err := scanning.ToPNG(data, contentType)
	if err != nil {
		return false
	}

	info := pdf.RegisterImageOptionsReader(receiptImage, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(pngData))
	if pdf.Err() || info == nil {
		pdf.ClearError()
		return false
	}

	w, h := info.Extent()
	if w <= 0 || h <= 0 {
		return false
	}
	scale := imageWidth / w
	if h*scale > imageHeight {
		scale = imageHeight / h
	}

	pdf.ImageOptions(receiptImage, margin, top, w*scale, h*scale, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	return true
}

// wrap splits text into lines no wider than width in the current font
func wrap(pdf *gofpdf.Fpdf, text string, width float64) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if line != "" && pdf.GetStringWidth(candidate) >= width {
			lines = append(lines, line)
			line = word
			continue
		}
		line = candidate
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
