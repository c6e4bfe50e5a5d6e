package infra

// pdf.go renders purchase orders with go-pdf/fpdf: company header, supplier
// block, reference and dates, one row per line (product, destination,
// quantity, unit price, total) and a grand total.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sosstock/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// RenderPurchaseOrder writes the PDF for order to w. The order must have its
// Supplier and Items (with Product and DestinationLocation) preloaded.
func RenderPurchaseOrder(w io.Writer, order *model.Order, company string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, tr(company), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(contentW, 6, "Purchase order "+order.ReferenceNumber, "", 1, "L", false, 0, "")
	pdf.Ln(3)

	// ── Supplier and dates ───────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 9)
	if s := order.Supplier; s != nil {
		pdf.CellFormat(contentW, 5, tr("Supplier: "+s.Name), "", 1, "L", false, 0, "")
		if s.ContactName != nil {
			pdf.CellFormat(contentW, 5, tr("Contact: "+*s.ContactName), "", 1, "L", false, 0, "")
		}
		if s.Email != nil {
			pdf.CellFormat(contentW, 5, "Email: "+*s.Email, "", 1, "L", false, 0, "")
		}
	}
	if order.OrderedDate != nil {
		pdf.CellFormat(contentW, 5, "Ordered: "+order.OrderedDate.Format("2006-01-02"), "", 1, "L", false, 0, "")
	}
	if order.ExpectedDeliveryDate != nil {
		pdf.CellFormat(contentW, 5, "Expected delivery: "+order.ExpectedDeliveryDate.Format("2006-01-02"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// ── Lines ────────────────────────────────────────────────────────────────
	cols := []float64{contentW * 0.38, contentW * 0.24, contentW * 0.10, contentW * 0.14, contentW * 0.14}
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range []string{"Product", "Deliver to", "Qty", "Unit price", "Total"} {
		align := "L"
		if i >= 2 {
			align = "R"
		}
		pdf.CellFormat(cols[i], 6, h, "B", 0, align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	total := decimal.Zero
	for _, it := range order.Items {
		name, dest := "", ""
		if it.Product != nil {
			name = it.Product.Name
		}
		if it.DestinationLocation != nil {
			dest = it.DestinationLocation.Name
		}
		price := "-"
		if it.UnitPrice != nil {
			price = it.UnitPrice.StringFixed(2)
		}
		line := it.LineTotal()
		total = total.Add(line)

		pdf.CellFormat(cols[0], 6, tr(truncate(name, 40)), "", 0, "L", false, 0, "")
		pdf.CellFormat(cols[1], 6, tr(truncate(dest, 24)), "", 0, "L", false, 0, "")
		pdf.CellFormat(cols[2], 6, fmt.Sprintf("%d", it.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(cols[3], 6, price, "", 0, "R", false, 0, "")
		pdf.CellFormat(cols[4], 6, line.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(1)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(cols[0]+cols[1]+cols[2]+cols[3], 6, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(cols[4], 6, total.StringFixed(2), "", 1, "R", false, 0, "")

	if order.Notes != nil && *order.Notes != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(contentW, 5, tr(*order.Notes), "", "L", false)
	}

	return pdf.Output(w)
}

// WritePurchaseOrderFile renders the order into dir and returns the file path.
func WritePurchaseOrderFile(order *model.Order, company, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	path := filepath.Join(dir, order.ReferenceNumber+".pdf")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("pdf: create file: %w", err)
	}
	if err := RenderPurchaseOrder(f, order, company); err != nil {
		f.Close()
		return "", fmt.Errorf("pdf: render: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("pdf: close file: %w", err)
	}
	return path, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "."
}
