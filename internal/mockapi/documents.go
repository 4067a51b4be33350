package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	resourceRFQs     = "rfqs"
	resourceSales    = "sales"
	resourceInvoices = "invoices"
)

var hundred = decimal.NewFromInt(100)

type item struct {
	ID          *int            `json:"id"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Qty         decimal.Decimal `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Tax         decimal.Decimal `json:"tax"`
}

type document struct {
	ID            int
	Name          string
	Kind          string // bill or invoice, empty for orders
	Date          string
	State         int
	PaymentStatus int
	Header        map[string]interface{}
	Items         []item
}

// keys of a request body that are not header fields
var reserved = map[string]bool{
	"id": true, "name": true, "type": true, "state": true, "payment_status": true,
	"items": true, "untaxed": true, "tax": true, "total": true, "party_name": true, "date": true,
}

type payload struct {
	Type          string   `json:"type"`
	State         *int     `json:"state"`
	PaymentStatus *int     `json:"payment_status"`
	Items         []item   `json:"items"`
	header        map[string]interface{}
	present       map[string]bool
}

func readPayload(c *gin.Context) (*payload, error) {
	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		return nil, err
	}
	p := &payload{header: make(map[string]interface{}), present: make(map[string]bool)}
	for k, v := range raw {
		p.present[k] = true
		var err error
		switch k {
		case "type":
			err = json.Unmarshal(v, &p.Type)
		case "state":
			err = json.Unmarshal(v, &p.State)
		case "payment_status":
			err = json.Unmarshal(v, &p.PaymentStatus)
		case "items":
			err = json.Unmarshal(v, &p.Items)
		default:
			if reserved[k] {
				continue
			}
			var value interface{}
			err = json.Unmarshal(v, &value)
			p.header[k] = value
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
	}
	return p, nil
}

func partyField(resource, kind string) string {
	switch {
	case resource == resourceRFQs, resource == resourceInvoices && kind == "bill":
		return "vendor_id"
	}
	return "customer_id"
}

func (s *Server) partyName(field string, id interface{}) string {
	n, ok := id.(float64)
	if !ok {
		return ""
	}
	parties := s.customers
	if field == "vendor_id" {
		parties = s.vendors
	}
	for _, p := range parties {
		if p.ID == int(n) {
			return p.Name
		}
	}
	return ""
}

func (s *Server) insert(resource string, d *document) *document {
	s.nextID[resource]++
	d.ID = s.nextID[resource]
	if d.Date == "" {
		d.Date = s.now().Format("2006-01-02")
	}
	if d.State == 0 {
		d.State = 1
	}
	if resource == resourceInvoices && d.PaymentStatus == 0 {
		d.PaymentStatus = 1
	}
	d.Name = reference(resource, d.Kind, d.ID)
	s.documents[resource][d.ID] = d
	return d
}

func reference(resource, kind string, id int) string {
	switch {
	case resource == resourceRFQs:
		return fmt.Sprintf("P%05d", id)
	case resource == resourceSales:
		return fmt.Sprintf("S%05d", id)
	case kind == "bill":
		return fmt.Sprintf("BILL/%05d", id)
	}
	return fmt.Sprintf("INV/%05d", id)
}

func totals(items []item) (untaxed, tax decimal.Decimal) {
	for _, it := range items {
		if it.Type == "section" {
			continue
		}
		sub := it.Qty.Mul(it.UnitPrice)
		untaxed = untaxed.Add(sub)
		tax = tax.Add(it.Tax.Div(hundred).Mul(sub))
	}
	return untaxed, tax
}

func (s *Server) render(resource string, d *document) gin.H {
	out := gin.H{}
	for k, v := range d.Header {
		out[k] = v
	}
	field := partyField(resource, d.Kind)
	items := make([]gin.H, 0, len(d.Items))
	for _, it := range d.Items {
		row := gin.H{"id": it.ID, "type": it.Type, "description": it.Description}
		if it.Type == "section" {
			row["qty"], row["unit_price"], row["tax"], row["subtotal"] = 0, 0, 0, 0
		} else {
			row["qty"] = it.Qty.InexactFloat64()
			row["unit_price"] = it.UnitPrice.InexactFloat64()
			row["tax"] = it.Tax.InexactFloat64()
			row["subtotal"] = it.Qty.Mul(it.UnitPrice).InexactFloat64()
		}
		items = append(items, row)
	}
	untaxed, tax := totals(d.Items)
	out["id"] = d.ID
	out["name"] = d.Name
	out["date"] = d.Date
	out["state"] = d.State
	out["party_name"] = s.partyName(field, d.Header[field])
	out["items"] = items
	out["untaxed"] = untaxed.InexactFloat64()
	out["tax"] = tax.InexactFloat64()
	out["total"] = untaxed.Add(tax).InexactFloat64()
	if resource == resourceInvoices {
		out["type"] = d.Kind
		out["payment_status"] = d.PaymentStatus
	}
	return out
}

func (s *Server) summary(resource string, d *document) gin.H {
	untaxed, tax := totals(d.Items)
	row := gin.H{
		"id":         d.ID,
		"name":       d.Name,
		"date":       d.Date,
		"state":      d.State,
		"party_name": s.partyName(partyField(resource, d.Kind), d.Header[partyField(resource, d.Kind)]),
		"total":      untaxed.Add(tax).InexactFloat64(),
	}
	if resource == resourceInvoices {
		row["payment_status"] = d.PaymentStatus
	}
	return row
}

// validate returns field errors keyed the way the real API keys them
func (s *Server) validate(resource, kind string, header map[string]interface{}, items []item, state int) map[string][]string {
	errs := make(map[string][]string)
	field := partyField(resource, kind)
	if name := s.partyName(field, header[field]); name == "" {
		if header[field] == nil {
			errs[field] = []string{"required"}
		} else {
			errs[field] = []string{"unknown party"}
		}
	}
	components := 0
	for i, it := range items {
		if it.Type == "section" {
			continue
		}
		components++
		if it.ID == nil {
			errs[fmt.Sprintf("items.%d.id", i)] = []string{"required"}
		}
		if it.Qty.IsNegative() || it.Qty.IsZero() {
			errs[fmt.Sprintf("items.%d.qty", i)] = []string{"must be greater than 0"}
		}
		if it.UnitPrice.IsNegative() {
			errs[fmt.Sprintf("items.%d.unit_price", i)] = []string{"must not be negative"}
		}
		if it.Tax.IsNegative() || it.Tax.GreaterThan(hundred) {
			errs[fmt.Sprintf("items.%d.tax", i)] = []string{"must be between 0 and 100"}
		}
	}
	confirmed := 3
	if resource == resourceInvoices {
		confirmed = 2
	}
	if state == confirmed && components == 0 {
		errs["items"] = []string{"add at least one line"}
	}
	return errs
}

func parseStates(q string) map[int]bool {
	if q == "" {
		return nil
	}
	states := make(map[int]bool)
	for _, part := range strings.Split(q, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			states[n] = true
		}
	}
	return states
}

func (s *Server) handleList(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()

		states := parseStates(c.Query("state"))
		kind := c.Query("type")
		ids := make([]int, 0, len(s.documents[resource]))
		for id := range s.documents[resource] {
			ids = append(ids, id)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(ids)))

		rows := make([]gin.H, 0, len(ids))
		for _, id := range ids {
			d := s.documents[resource][id]
			if states != nil && !states[d.State] {
				continue
			}
			if kind != "" && d.Kind != kind {
				continue
			}
			rows = append(rows, s.summary(resource, d))
		}
		ok(c, http.StatusOK, rows)
	}
}

func (s *Server) lookup(c *gin.Context, resource string) (*document, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, "invalid id", nil)
		return nil, false
	}
	d, found := s.documents[resource][id]
	if !found {
		fail(c, http.StatusNotFound, fmt.Sprintf("%s %d not found", resource, id), nil)
		return nil, false
	}
	return d, true
}

func (s *Server) handleGet(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if d, found := s.lookup(c, resource); found {
			ok(c, http.StatusOK, s.render(resource, d))
		}
	}
}

func (s *Server) handleCreate(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := readPayload(c)
		if err != nil {
			fail(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()

		kind := ""
		if resource == resourceInvoices {
			kind = p.Type
			if kind != "bill" {
				kind = "invoice"
			}
		}
		state := 1
		if p.State != nil {
			state = *p.State
		}
		if errs := s.validate(resource, kind, p.header, p.Items, state); len(errs) > 0 {
			fail(c, http.StatusUnprocessableEntity, "validation failed", errs)
			return
		}
		d := s.insert(resource, &document{Kind: kind, State: state, Header: p.header, Items: p.Items})
		ok(c, http.StatusCreated, s.render(resource, d))
	}
}

func (s *Server) handleUpdate(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := readPayload(c)
		if err != nil {
			fail(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()

		d, found := s.lookup(c, resource)
		if !found {
			return
		}

		header := make(map[string]interface{}, len(d.Header))
		for k, v := range d.Header {
			header[k] = v
		}
		for k, v := range p.header {
			header[k] = v
		}
		items := d.Items
		if p.present["items"] {
			items = p.Items
		}
		state := d.State
		if p.State != nil {
			state = *p.State
		}

		if errs := s.validate(resource, d.Kind, header, items, state); len(errs) > 0 {
			fail(c, http.StatusUnprocessableEntity, "validation failed", errs)
			return
		}

		if resource == resourceRFQs && state == 3 && d.State != 3 {
			s.addReceipt(d)
		}
		d.Header = header
		d.Items = items
		d.State = state
		if p.PaymentStatus != nil && resource == resourceInvoices {
			d.PaymentStatus = *p.PaymentStatus
		}
		if resource == resourceInvoices && state == 1 {
			d.PaymentStatus = 1
			delete(s.paid, d.ID)
		}
		ok(c, http.StatusOK, s.render(resource, d))
	}
}

func (s *Server) handleDelete(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()

		d, found := s.lookup(c, resource)
		if !found {
			return
		}
		if d.State != 1 {
			fail(c, http.StatusConflict, "only drafts can be deleted", nil)
			return
		}
		delete(s.documents[resource], d.ID)
		ok(c, http.StatusOK, gin.H{"id": d.ID})
	}
}

func (s *Server) addReceipt(d *document) {
	s.receipts = append(s.receipts, receipt{
		ID:            len(s.receipts) + 1,
		Name:          fmt.Sprintf("WH/IN/%05d", len(s.receipts)+1),
		RFQID:         d.ID,
		ScheduledDate: s.now().AddDate(0, 0, 7).Format("2006-01-02"),
		State:         "ready",
	})
}

type paymentPayload struct {
	InvoiceID   int             `json:"invoice_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date"`
	Journal     string          `json:"journal"`
	Memo        string          `json:"memo"`
}

func (s *Server) handleRegisterPayment(c *gin.Context) {
	var p paymentPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, found := s.documents[resourceInvoices][p.InvoiceID]
	if !found {
		fail(c, http.StatusUnprocessableEntity, "validation failed", map[string][]string{"invoice_id": {"unknown invoice"}})
		return
	}
	errs := make(map[string][]string)
	if d.State != 2 {
		errs["invoice_id"] = []string{"invoice is not posted"}
	}
	if !p.Amount.IsPositive() {
		errs["amount"] = []string{"must be greater than 0"}
	}
	if p.PaymentDate == "" {
		errs["payment_date"] = []string{"required"}
	}
	if len(errs) > 0 {
		fail(c, http.StatusUnprocessableEntity, "validation failed", errs)
		return
	}

	s.paid[d.ID] = s.paid[d.ID].Add(p.Amount)
	untaxed, tax := totals(d.Items)
	if s.paid[d.ID].GreaterThanOrEqual(untaxed.Add(tax)) {
		d.PaymentStatus = 2
	}
	ok(c, http.StatusOK, s.render(resourceInvoices, d))
}
