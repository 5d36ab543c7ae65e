package finance

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
)

// CSVHeader is the column order of CSV exports.
var CSVHeader = []string{"payment_id", "date", "user_id", "document_ids", "amount", "currency", "status", "affiliate_code", "commission"}

const timestampLayout = "2006-01-02 15:04:05"

// Filename is finance-report-<start>-<end>.<ext>.
func Filename(rep *Report, format string) string {
	return fmt.Sprintf("finance-report-%s-%s.%s", rep.Range.StartLabel(), rep.Range.EndLabel(), format)
}

// Export renders rep as csv, json or pdf.
func (s *DefaultFinanceService) Export(rep *Report, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	var (
		body        []byte
		contentType string
		err         error
	)
	switch format {
	case FormatCSV:
		body, err = s.renderCSV(rep)
		contentType = "text/csv; charset=utf-8"
	case FormatJSON:
		body, err = json.MarshalIndent(rep, "", "  ")
		contentType = "application/json"
	case FormatPDF:
		body, err = s.renderPDF(rep)
		contentType = "application/pdf"
	default:
		return nil, ErrInvalidFormat
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s report: %w", format, err)
	}
	return &ExportFile{Filename: Filename(rep, format), ContentType: contentType, Body: body}, nil
}

func (s *DefaultFinanceService) renderCSV(rep *Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(CSVHeader); err != nil {
		return nil, err
	}
	for _, p := range rep.Payments {
		record := []string{
			p.ID,
			p.EffectiveTime().In(s.loc()).Format(timestampLayout),
			p.UserID,
			strings.Join(p.DocumentIDs, ";"),
			p.Amount.StringFixed(2),
			strings.ToUpper(p.Currency),
			p.Status,
			p.AffiliateCode,
			p.Commission.StringFixed(2),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (s *DefaultFinanceService) renderPDF(rep *Report) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Finance report", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Finance report")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s (grouped by %s)", rep.Range.StartLabel(), rep.Range.EndLabel(), rep.GroupBy))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, "Summary")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 10)
	summary := [][2]string{
		{"Revenue", rep.Totals.Revenue.StringFixed(2)},
		{"Refunded", rep.Totals.Refunded.StringFixed(2)},
		{"Commission", rep.Totals.Commission.StringFixed(2)},
		{"Completed payments", strconv.Itoa(rep.Totals.Completed)},
		{"Pending payments", strconv.Itoa(rep.Totals.Pending)},
		{"Failed payments", strconv.Itoa(rep.Totals.Failed)},
	}
	for _, row := range summary {
		pdf.CellFormat(60, 6, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, row[1], "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	table(pdf, []string{"Period", "Payments", "Completed", "Revenue", "Refunded"}, []float64{40, 30, 30, 40, 40},
		func(emit func(...string)) {
			for _, b := range rep.Buckets {
				emit(b.Period, strconv.Itoa(b.Payments), strconv.Itoa(b.Completed), b.Revenue.StringFixed(2), b.Refunded.StringFixed(2))
			}
		})
	pdf.Ln(4)

	table(pdf, []string{"Date", "Payment", "Status", "Amount", "Commission"}, []float64{40, 60, 25, 30, 25},
		func(emit func(...string)) {
			for _, p := range rep.Payments {
				emit(p.EffectiveTime().In(s.loc()).Format("2006-01-02"), p.ID, p.Status,
					p.Amount.StringFixed(2)+" "+strings.ToUpper(p.Currency), p.Commission.StringFixed(2))
			}
		})

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func table(pdf *fpdf.Fpdf, header []string, widths []float64, rows func(emit func(...string))) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	rows(func(cols ...string) {
		for i, c := range cols {
			align := "L"
			if i > 0 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	})
}
