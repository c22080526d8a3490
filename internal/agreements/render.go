package agreements

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/angelmondragon/wedplan-backend/pkg/calendar"
	"github.com/angelmondragon/wedplan-backend/pkg/money"
)

const (
	pageWidth   = 190.0
	amountWidth = 45.0
	lineHeight  = 7.0
)

// Render lays out the booking agreement as a single-page PDF.
func Render(req Request) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(req.IssuedAt)
	pdf.SetModificationDate(req.IssuedAt)
	pdf.SetTitle("Booking Agreement", true)
	pdf.SetMargins(13, 15, 13)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(pageWidth, 10, "Booking Agreement", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(pageWidth, 6, fmt.Sprintf("Agreement %s", req.SnapshotID), "", 1, "L", false, 0, "")
	pdf.CellFormat(pageWidth, 6, fmt.Sprintf("Issued %s", calendar.FormatLong(req.IssuedAt)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(pageWidth, lineHeight, tr(req.ProductLabel), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(pageWidth, lineHeight, tr("Prepared for "+req.CustomerName), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	if len(req.LineItems) > 0 {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(pageWidth-amountWidth, lineHeight, "Item", "B", 0, "L", false, 0, "")
		pdf.CellFormat(amountWidth, lineHeight, "Amount", "B", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, item := range req.LineItems {
			pdf.CellFormat(pageWidth-amountWidth, lineHeight, tr(item.Description), "", 0, "L", false, 0, "")
			pdf.CellFormat(amountWidth, lineHeight, money.Format(item.AmountCents), "", 1, "R", false, 0, "")
		}
		pdf.Ln(2)
	}

	summary := [][2]string{
		{"Contract total", money.Format(req.TotalCents)},
		{"Paid today", money.Format(req.DepositCents)},
		{"Remaining balance", money.Format(req.RemainingCents)},
	}
	finalDue := "To be scheduled once the wedding date is set"
	if req.FinalDueAt != nil {
		finalDue = calendar.FormatLong(*req.FinalDueAt)
	}
	if req.RemainingCents > 0 {
		summary = append(summary, [2]string{"Balance due by", finalDue})
	}
	pdf.SetFont("Helvetica", "", 11)
	for _, row := range summary {
		pdf.CellFormat(pageWidth-amountWidth, lineHeight, row[0], "T", 0, "L", false, 0, "")
		pdf.CellFormat(amountWidth, lineHeight, row[1], "T", 1, "R", false, 0, "")
	}

	if req.PlanDescription != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(pageWidth, 5, tr(req.PlanDescription), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render agreement: %w", err)
	}
	return buf.Bytes(), nil
}
