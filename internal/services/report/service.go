// Package report renders a human-readable summary of a completed run as a
// PDF at the run root.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ternarybob/scrutor/internal/models"
)

// SummaryFilename is the report's name at the run root.
const SummaryFilename = "run_summary.pdf"

// Service renders run summaries.
type Service struct {
	logger arbor.ILogger
}

// NewService creates the report service.
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// WriteSummary renders the manifest as markdown, converts it to PDF, and
// writes it at the run root.
func (s *Service) WriteSummary(manifest *models.RunManifest) error {
	markdown := buildSummaryMarkdown(manifest)

	pdfBytes, err := s.renderPDF(markdown)
	if err != nil {
		return fmt.Errorf("failed to render run summary: %w", err)
	}

	path := filepath.Join(manifest.RunPath, SummaryFilename)
	if err := os.WriteFile(path, pdfBytes, 0644); err != nil {
		return fmt.Errorf("failed to write run summary: %w", err)
	}

	s.logger.Info().
		Str("run_id", manifest.RunID).
		Int("bytes", len(pdfBytes)).
		Msg("Run summary written")
	return nil
}

// buildSummaryMarkdown lays out the per-job outcome table and verdict
// totals.
func buildSummaryMarkdown(manifest *models.RunManifest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Run Summary: %s\n\n", manifest.RunID)
	fmt.Fprintf(&b, "Region: %s\n\n", manifest.Region)
	fmt.Fprintf(&b, "Created: %s\n\n", manifest.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Files: %d across %d jobs\n\n", manifest.TotalFiles, manifest.TotalJobs)

	b.WriteString("## Jobs\n\n")
	b.WriteString("| Job | Files | Passed | Failed | Questionable | N/A | Error |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- | --- |\n")
	for _, job := range manifest.Jobs {
		var summary models.ValidationSummary
		if job.ValidationResults != nil {
			summary = job.ValidationResults.Summary
		}
		errText := job.Error
		if errText == "" {
			errText = "-"
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %d | %d | %s |\n",
			job.JobID, job.FileCount,
			summary.Passed, summary.Failed, summary.Questionable, summary.NotApplicable,
			errText)
	}
	b.WriteString("\n")

	for _, job := range manifest.Jobs {
		if job.ValidationResults == nil || len(job.ValidationResults.TariffLineChecks) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## Tariff Lines: job %s\n\n", job.JobID)
		b.WriteString("| Line | Declared | Suggested | Overall |\n")
		b.WriteString("| --- | --- | --- | --- |\n")
		for _, line := range job.ValidationResults.TariffLineChecks {
			fmt.Fprintf(&b, "| %d | %s/%s | %s/%s | %s |\n",
				line.LineNumber,
				line.ExtractedTariffCode, line.ExtractedStatCode,
				line.SuggestedTariffCode, line.SuggestedStatCode,
				line.OverallStatus)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// renderPDF converts summary markdown to PDF bytes.
func (s *Service) renderPDF(markdown string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()
	pdf.SetFont("Arial", "", 9)

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	r := &summaryRenderer{pdf: pdf, source: source}
	if err := ast.Walk(doc, r.walk); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type summaryRenderer struct {
	pdf    *fpdf.Fpdf
	source []byte

	tableRows [][]string
	inTable   bool
}

func (r *summaryRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			size := 14.0
			if node.Level >= 2 {
				size = 12
			}
			r.pdf.Ln(4)
			r.pdf.SetFont("Arial", "B", size)
			r.pdf.MultiCell(0, 7, string(node.Text(r.source)), "", "L", false)
			r.pdf.SetFont("Arial", "", 9)
			return ast.WalkSkipChildren, nil
		}
	case *ast.Paragraph:
		if entering && !r.inTable {
			r.pdf.MultiCell(0, 5, string(node.Text(r.source)), "", "L", false)
			r.pdf.Ln(2)
			return ast.WalkSkipChildren, nil
		}
	case *extast.Table:
		if entering {
			r.inTable = true
			r.tableRows = nil
		} else {
			r.renderTable()
			r.inTable = false
		}
	case *extast.TableHeader, *extast.TableRow:
		if entering {
			r.tableRows = append(r.tableRows, r.extractRow(n))
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func (r *summaryRenderer) extractRow(n ast.Node) []string {
	var cells []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		cells = append(cells, string(c.Text(r.source)))
	}
	return cells
}

func (r *summaryRenderer) renderTable() {
	if len(r.tableRows) == 0 {
		return
	}

	pageWidth, _ := r.pdf.GetPageSize()
	left, _, right, _ := r.pdf.GetMargins()
	usable := pageWidth - left - right
	cols := len(r.tableRows[0])
	colWidth := usable / float64(cols)

	for i, row := range r.tableRows {
		if i == 0 {
			r.pdf.SetFont("Arial", "B", 8)
		} else {
			r.pdf.SetFont("Arial", "", 8)
		}
		for _, cell := range row {
			r.pdf.CellFormat(colWidth, 6, cell, "1", 0, "L", false, 0, "")
		}
		r.pdf.Ln(-1)
	}
	r.pdf.SetFont("Arial", "", 9)
	r.pdf.Ln(3)
}
