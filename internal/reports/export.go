package reports

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/distrohub/mediadesk/internal/metrics"
	"github.com/distrohub/mediadesk/internal/session"
	"github.com/distrohub/mediadesk/internal/util/sanitize"
)

// Format is an export file format.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat accepts "csv" and "pdf", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q: use csv or pdf", s)
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Report is a loaded report ready for export.
type Report struct {
	// Name identifies the report in metrics and file names.
	Name    string
	Title   string
	Filters []Filter
	Table   Table
	Scope   Scope
}

// FileName builds the download name, e.g. "commitments-2024-05-01.csv".
func (r Report) FileName(f Format, now time.Time) string {
	return fmt.Sprintf("%s-%s.%s", r.Name, now.Format(DateLayout), f)
}

// Write renders r in format f and records the export.
func (r Report) Write(w io.Writer, f Format) error {
	var err error
	switch f {
	case FormatCSV:
		err = WriteCSV(w, r.Table)
	case FormatPDF:
		err = WritePDF(w, r.Title, r.Filters, r.Table)
	default:
		err = fmt.Errorf("unsupported export format %q", f)
	}
	if err != nil {
		return err
	}
	metrics.RecordExport(r.Name, string(f), string(r.Scope), r.Table.Len())
	return nil
}

// CommitmentsReport loads the commitments report for export. ScopePage
// exports the page q points at; ScopeAllPages walks every page.
func (s *Service) CommitmentsReport(ctx context.Context, sess *session.Session, q Query, scope Scope) (Report, error) {
	r := Report{Name: "commitments", Title: "Members with Commitments", Filters: q.Filters(), Scope: scope}
	if scope == ScopeAllPages {
		rows, err := s.AllCommitments(ctx, sess, q)
		if err != nil {
			return r, err
		}
		r.Table = CommitmentsTable(rows)
		return r, nil
	}
	page, err := s.Commitments(ctx, sess, q)
	if err != nil {
		return r, err
	}
	r.Table = CommitmentsTable(page.Items)
	return r, nil
}

// MemberReport loads one member's report for export.
func (s *Service) MemberReport(ctx context.Context, sess *session.Session, memberID string, q Query, scope Scope) (Report, error) {
	r := Report{Name: "member-" + memberID, Filters: q.Filters(), Scope: scope}
	load := s.MemberDetails
	if scope == ScopeAllPages {
		load = s.AllMemberDetails
	}
	d, err := load(ctx, sess, memberID, q)
	if err != nil {
		return r, err
	}
	r.Title = "Member Commitments: " + memberTitle(d.Member.Name, d.Member.BusinessName, memberID)
	r.Table = MemberTable(d.Items)
	return r, nil
}

func memberTitle(name, business, id string) string {
	switch {
	case name != "" && business != "":
		return name + " (" + business + ")"
	case name != "":
		return name
	case business != "":
		return business
	}
	return id
}

// WriteCSV writes the header and rows. Fields containing commas, quotes
// or newlines are quoted by encoding/csv; values are cleaned with
// sanitize.Cell first.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		for j := range record {
			record[j] = ""
			if j < len(row) {
				record[j] = sanitize.Cell(row[j])
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

const (
	pdfFont       = "Helvetica"
	pdfRowHeight  = 7.0
	pdfMinColumn  = 14.0
	pdfCellMargin = 2.0
)

// WritePDF writes a landscape A4 table with the title and applied filters
// above it. The header row repeats on every page.
func WritePDF(w io.Writer, title string, filters []Filter, t Table) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("mediadesk", false)
	pdf.SetAutoPageBreak(false, 10)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(pdfFont, "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")

	pdf.SetFont(pdfFont, "", 9)
	pdf.CellFormat(0, 6, "Generated "+time.Now().Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	if len(filters) > 0 {
		parts := make([]string, len(filters))
		for i, f := range filters {
			parts[i] = f.Label + ": " + sanitize.Field(f.Value)
		}
		pdf.MultiCell(0, 5, tr("Filters: "+strings.Join(parts, "; ")), "", "L", false)
	} else {
		pdf.CellFormat(0, 6, "Filters: none", "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	widths := columnWidths(pdf, t)
	header := func() {
		pdf.SetFont(pdfFont, "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, col := range t.Columns {
			pdf.CellFormat(widths[i], pdfRowHeight, tr(col), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(pdfFont, "", 8)
	}
	header()

	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	limit := pageH - bottom - 12
	if len(t.Rows) == 0 {
		pdf.CellFormat(sum(widths), pdfRowHeight, "No rows", "1", 1, "C", false, 0, "")
	}
	for _, row := range t.Rows {
		if pdf.GetY()+pdfRowHeight > limit {
			pdf.AddPage()
			header()
		}
		for i := range t.Columns {
			cell := ""
			if i < len(row) {
				cell = fit(pdf, tr(sanitize.Field(row[i])), widths[i]-pdfCellMargin)
			}
			pdf.CellFormat(widths[i], pdfRowHeight, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// columnWidths splits the printable width in proportion to the widest
// value of each column, with a floor of pdfMinColumn.
func columnWidths(pdf *fpdf.Fpdf, t Table) []float64 {
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	avail := pageW - left - right

	pdf.SetFont(pdfFont, "B", 9)
	want := make([]float64, len(t.Columns))
	for i, col := range t.Columns {
		want[i] = pdf.GetStringWidth(col) + pdfCellMargin*2
	}
	pdf.SetFont(pdfFont, "", 8)
	for _, row := range t.Rows {
		for i := range t.Columns {
			if i < len(row) {
				if w := pdf.GetStringWidth(row[i]) + pdfCellMargin*2; w > want[i] {
					want[i] = w
				}
			}
		}
	}

	total := sum(want)
	widths := make([]float64, len(want))
	for i, w := range want {
		widths[i] = w
		if total > avail {
			widths[i] = w * avail / total
		}
		if widths[i] < pdfMinColumn {
			widths[i] = pdfMinColumn
		}
	}
	return widths
}

// fit truncates s with an ellipsis so it prints within width. s is
// already translated to the single-byte core font encoding.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

func sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}
