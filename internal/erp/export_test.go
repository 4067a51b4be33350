package erp

import (
	"bytes"
	"testing"

	"github.com/mikelcalvo/erp-front/internal/lines"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func TestExportLines(t *testing.T) {
	doc := NewDocument(Quotation)
	doc.ID = 3
	doc.Extra["name"] = "S00003"
	doc.Fields["customer_id"] = "2"
	chair := lines.NewComponentLine()
	chair.ComponentID = 1
	chair.Description = "Office chair"
	chair.SetQuantity(decimal.NewFromInt(2))
	chair.SetUnitPrice(decimal.NewFromInt(1000))
	chair.SetTax(decimal.NewFromInt(10))
	doc.Items = []lines.LineItem{lines.NewSectionLine("Seating"), chair}
	doc.Totals = lines.Compute(doc.Items)

	var buf bytes.Buffer
	if err := WriteLines(doc, &buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Lines")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if rows[0][0] != "Quotation S00003" || rows[0][1] != "Draft" {
		t.Fatalf("unexpected title row %v", rows[0])
	}
	// title, three header fields, blank, column headers
	headerRow := 1 + len(Quotation.Fields) + 1
	if rows[headerRow][0] != "Type" || rows[headerRow][6] != "Subtotal" {
		t.Fatalf("unexpected header row %v", rows[headerRow])
	}
	if rows[headerRow+1][0] != "section" || rows[headerRow+1][2] != "Seating" {
		t.Fatalf("unexpected section row %v", rows[headerRow+1])
	}
	if rows[headerRow+2][6] != "2000" {
		t.Fatalf("expected subtotal 2000 got %v", rows[headerRow+2])
	}
	last := rows[len(rows)-1]
	if last[5] != "Total" || last[6] != "2200" {
		t.Fatalf("unexpected total row %v", last)
	}
}
