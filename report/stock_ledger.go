package report

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/acu-erp/acu-erp/internal/inventory"
)

type column struct {
	title string
	width float64
	value func(inventory.StockRecord) string
}

var ledgerColumns = []column{
	{"Item Name", 46, func(r inventory.StockRecord) string { return r.ItemName }},
	{"Item Code", 26, func(r inventory.StockRecord) string { return r.ItemCode }},
	{"Batch", 20, func(r inventory.StockRecord) string { return r.BatchNo }},
	{"Stock", 18, func(r inventory.StockRecord) string { return qty(r.StockQty) }},
	{"Indent", 18, func(r inventory.StockRecord) string { return qty(r.IndentQty) }},
	{"Purchase", 18, func(r inventory.StockRecord) string { return qty(r.PurchaseQty) }},
	{"Vendor", 18, func(r inventory.StockRecord) string { return qty(r.VendorQty) }},
	{"Pur OK", 18, func(r inventory.StockRecord) string { return qty(r.PurStoreOkQty) }},
	{"Vendor OK", 19, func(r inventory.StockRecord) string { return qty(r.VendorOkQty) }},
	{"In-House", 19, func(r inventory.StockRecord) string { return qty(r.InHouseIssuedQty) }},
	{"Vendor Iss.", 19, func(r inventory.StockRecord) string { return qty(r.VendorIssuedQty) }},
	{"Closing", 18, func(r inventory.StockRecord) string { return qty(r.ClosingStock) }},
}

func qty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// StockLedgerPDF renders the stock ledger as a landscape A4 table.
func StockLedgerPDF(rows []inventory.StockRecord, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(277, 10, "Stock Ledger", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(277, 6, "Generated: "+generated.Format("02-Jan-2006 03:04 PM"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(200, 200, 200)
		for _, c := range ledgerColumns {
			pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}
	header()

	var closing float64
	for _, row := range rows {
		if pdf.GetY() > 190 {
			pdf.AddPage()
			header()
		}
		for i, c := range ledgerColumns {
			align := "R"
			if i < 3 {
				align = "L"
			}
			pdf.CellFormat(c.width, 6, c.value(row), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
		closing += row.ClosingStock
	}
	if len(rows) == 0 {
		pdf.CellFormat(277, 8, "No stock records.", "1", 1, "C", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(138, 8, fmt.Sprintf("Rows: %d", len(rows)), "1", 0, "C", true, 0, "")
	pdf.CellFormat(139, 8, "Total closing stock: "+qty(closing), "1", 1, "C", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render stock ledger pdf: %w", err)
	}
	return buf.Bytes(), nil
}
