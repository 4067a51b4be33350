package erp

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/mikelcalvo/erp-front/internal/lines"
	"github.com/shopspring/decimal"
)

func testFormatter(locale string) *Formatter {
	return &Formatter{Format: lines.NewNumberFormat(locale, "$")}
}

func TestBuildRequest_SendsRawNumbers(t *testing.T) {
	f := testFormatter("de-DE")
	doc := NewDocument(RFQ)
	doc.ID = 4
	doc.Fields["vendor_id"] = "2"
	doc.Fields["vendor_reference"] = "  WC-88 "

	priced := lines.NewComponentLine()
	priced.ComponentID = 3
	priced.Description = "Wood glue"
	if err := priced.BlurUnitPrice(f.Format, "1.234,50"); err != nil {
		t.Fatalf("blur: %v", err)
	}
	priced.SetTax(decimal.NewFromInt(10))
	missing := lines.NewComponentLine()
	doc.Items = []lines.LineItem{lines.NewSectionLine("Glue"), priced, missing}

	body, err := f.BuildRequest(doc, ActionConfirm)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if body["vendor_id"] != int64(2) {
		t.Fatalf("expected numeric vendor_id got %#v", body["vendor_id"])
	}
	if body["vendor_reference"] != "WC-88" {
		t.Fatalf("expected trimmed reference got %#v", body["vendor_reference"])
	}
	if body["order_deadline"] != nil {
		t.Fatalf("expected empty field sent as null got %#v", body["order_deadline"])
	}
	if body["state"] != OrderConfirmed {
		t.Fatalf("expected target state %d got %v", OrderConfirmed, body["state"])
	}
	if _, ok := body["type"]; ok {
		t.Fatalf("orders carry no type")
	}

	items := body["items"].([]wireItem)
	if len(items) != 3 {
		t.Fatalf("expected 3 items got %d", len(items))
	}
	if items[0].Type != "section" || items[0].ID != nil || items[0].Qty != 0 {
		t.Fatalf("unexpected section %+v", items[0])
	}
	if items[1].ID == nil || *items[1].ID != 3 || items[1].UnitPrice != 1234.5 || items[1].Subtotal != 1234.5 {
		t.Fatalf("unexpected priced line %+v", items[1])
	}
	if items[2].ID != nil {
		t.Fatalf("line without component must send a null id")
	}
	if body["untaxed"] != 1234.5 || body["total"] != 1357.95 {
		t.Fatalf("unexpected totals %v %v", body["untaxed"], body["total"])
	}
}

func TestBuildRequest_InvalidNumericField(t *testing.T) {
	f := testFormatter("en-US")
	doc := NewDocument(Quotation)
	doc.Fields["customer_id"] = "abc"
	if _, err := f.BuildRequest(doc, ActionSave); err == nil {
		t.Fatalf("expected error for non numeric customer")
	}
}

func TestBuildRequest_CreateInvoiceFromOrder(t *testing.T) {
	f := testFormatter("en-US")
	doc := NewDocument(SalesOrder)
	doc.ID = 12
	doc.State = OrderConfirmed
	doc.Fields["customer_id"] = "1"
	doc.Fields["payment_terms"] = "immediate"
	line := lines.NewComponentLine()
	line.ComponentID = 1
	line.SetUnitPrice(decimal.NewFromInt(1000))
	doc.Items = []lines.LineItem{line}

	body, err := f.BuildRequest(doc, ActionCreateInvoice)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := map[string]interface{}{
		"type":           "invoice",
		"state":          InvoiceDraft,
		"payment_status": PaymentUnpaid,
		"customer_id":    int64(1),
		"sales_id":       12,
	}
	for k, v := range want {
		if !reflect.DeepEqual(body[k], v) {
			t.Fatalf("%s: expected %#v got %#v", k, v, body[k])
		}
	}
	if _, ok := body["payment_terms"]; ok {
		t.Fatalf("order header must not leak into the invoice")
	}
	if body["total"] != 1000.0 {
		t.Fatalf("expected total 1000 got %v", body["total"])
	}
}

func TestBuildRequest_InvoiceCarriesType(t *testing.T) {
	f := testFormatter("en-US")
	doc := NewDocument(Bill)
	body, err := f.BuildRequest(doc, ActionCreate)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if body["type"] != "bill" || body["state"] != InvoiceDraft {
		t.Fatalf("unexpected bill body %v", body)
	}
}

func TestApplyResponse_ReplacesEverything(t *testing.T) {
	f := testFormatter("en-US")
	doc := NewDocument(Invoice)
	doc.Fields["reference"] = "typed but unsaved"
	doc.Items = []lines.LineItem{lines.NewComponentLine(), lines.NewComponentLine()}

	data := json.RawMessage(`{"id":5,"name":"INV/00005","state":2,"payment_status":1,"customer_id":2,"sales_id":null,
		"reference":"PO-1","items":[{"id":null,"type":"section","description":"Chairs"},
		{"id":1,"type":"component","description":"Office chair","qty":2,"unit_price":1000,"tax":15,"subtotal":1}],
		"untaxed":2000,"tax":300,"total":2300}`)
	if err := f.ApplyResponse(doc, data); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if doc.ID != 5 || doc.State != InvoicePosted || doc.PaymentStatus != PaymentUnpaid {
		t.Fatalf("unexpected identity %+v", doc)
	}
	if doc.Fields["reference"] != "PO-1" || doc.Fields["customer_id"] != "2" || doc.Fields["sales_id"] != "" {
		t.Fatalf("unexpected fields %v", doc.Fields)
	}
	if len(doc.Items) != 2 || !doc.Items[0].IsSection() {
		t.Fatalf("unexpected items %+v", doc.Items)
	}
	// subtotals are derived locally, never taken from the wire
	if !doc.Items[1].Subtotal().Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("expected derived subtotal 2000 got %s", doc.Items[1].Subtotal())
	}
	if !doc.Totals.Tax.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected server tax 300 got %s", doc.Totals.Tax)
	}
	if doc.Reference() != "INV/00005" {
		t.Fatalf("expected reference kept in extra")
	}
	if _, ok := doc.Extra["items"]; ok {
		t.Fatalf("structural keys must not be copied into extra")
	}
}

func TestApplyResponse_FallsBackToComputedTotals(t *testing.T) {
	f := testFormatter("en-US")
	doc := NewDocument(RFQ)
	data := json.RawMessage(`{"id":1,"state":1,"vendor_id":1,
		"items":[{"id":1,"type":"component","description":"Bolt","qty":4,"unit_price":2.5,"tax":20}]}`)
	if err := f.ApplyResponse(doc, data); err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := lines.Totals{Untaxed: decimal.NewFromInt(10), Tax: decimal.NewFromInt(2), Total: decimal.NewFromInt(12)}
	if !doc.Totals.Equal(want) {
		t.Fatalf("expected %+v got %+v", want, doc.Totals)
	}
}

func TestDistributeErrors(t *testing.T) {
	fe := DistributeErrors(map[string][]string{
		"items.0.id":         {"required", "ignored"},
		"items.2.unit_price": {"must not be negative"},
		"items.1":            {"invalid line"},
		"items":              {"add at least one line"},
		"vendor_id":          {"required"},
		"empty":              {},
	})
	if fe.Row(0, "id") != "required" {
		t.Fatalf("expected first message kept, got %q", fe.Row(0, "id"))
	}
	if fe.Row(2, "unit_price") != "must not be negative" {
		t.Fatalf("unexpected row 2 %v", fe.Rows[2])
	}
	if fe.Row(1, "row") != "invalid line" {
		t.Fatalf("expected row level message on row 1")
	}
	if fe.Field("items") != "add at least one line" || fe.Field("vendor_id") != "required" {
		t.Fatalf("unexpected form errors %v", fe.Form)
	}
	if _, ok := fe.Form["empty"]; ok {
		t.Fatalf("keys without messages are dropped")
	}

	want := []string{
		"line 1 id: required",
		"line 2 row: invalid line",
		"line 3 unit_price: must not be negative",
		"items: add at least one line",
		"vendor_id: required",
	}
	if got := fe.Lines(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v got %v", want, got)
	}
	if !DistributeErrors(nil).Empty() {
		t.Fatalf("expected no errors")
	}
}
