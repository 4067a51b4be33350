package erp

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var exportHeaders = []string{"Type", "Component", "Description", "Quantity", "Unit Price", "Tax %", "Subtotal"}

// ExportLines builds a workbook with the document header, its lines and
// totals. Amounts are written as numbers so the sheet can recompute them.
func ExportLines(doc *Document) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Lines"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	title := doc.Type.Name
	if ref := doc.Reference(); ref != "" {
		title += " " + ref
	}
	f.SetCellValue(sheet, "A1", title)
	f.SetCellValue(sheet, "B1", doc.Type.StateName(doc.State))

	row := 2
	for _, field := range doc.Type.Fields {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), field)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), doc.Fields[field])
		row++
	}

	row++
	headerRow := row
	for i, header := range exportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), header)
		f.SetColWidth(sheet, col, col, 15)
	}
	f.SetColWidth(sheet, "C", "C", 40)

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err == nil {
		f.SetRowStyle(sheet, headerRow, headerRow, style)
	}

	for _, l := range doc.Items {
		row++
		values := []interface{}{string(l.Kind), "", l.Description}
		if !l.IsSection() {
			values = []interface{}{
				string(l.Kind),
				l.ComponentID,
				l.Description,
				l.Quantity.InexactFloat64(),
				l.UnitPrice.InexactFloat64(),
				l.Tax.InexactFloat64(),
				l.Subtotal().InexactFloat64(),
			}
		}
		for i, v := range values {
			col, _ := excelize.ColumnNumberToName(i + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v)
		}
	}

	row += 2
	for _, total := range []struct {
		label string
		value float64
	}{
		{"Untaxed", doc.Totals.Untaxed.InexactFloat64()},
		{"Tax", doc.Totals.Tax.InexactFloat64()},
		{"Total", doc.Totals.Total.InexactFloat64()},
	} {
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), total.label)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), total.value)
		row++
	}
	return f, nil
}

// WriteLines writes the workbook of doc to w
func WriteLines(doc *Document, w io.Writer) error {
	f, err := ExportLines(doc)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// CmdExport saves a document's lines to an XLSX file
func (c *Client) CmdExport(args []string) error {
	t, id, err := parseDocArgs(args, "erp-front export <type> <id> [file.xlsx]")
	if err != nil {
		return err
	}
	path := fmt.Sprintf("%s-%d.xlsx", t.Key, id)
	if len(args) > 2 {
		path = args[2]
	}
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}

	ctx, cancel := cliContext()
	defer cancel()
	doc, err := c.LoadDocument(ctx, t, id)
	if err != nil {
		return err
	}

	f, err := ExportLines(doc)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("error saving Excel file: %w", err)
	}
	fmt.Printf("%s✓ Exported %d lines to %s%s\n", Green, len(doc.Items), path, Reset)
	return nil
}
