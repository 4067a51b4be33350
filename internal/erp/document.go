package erp

import (
	"github.com/mikelcalvo/erp-front/internal/lines"
)

// Role decides which party and link fields a document uses
type Role string

const (
	RolePurchase Role = "purchase"
	RoleSales    Role = "sales"
)

// Order states (RFQ, purchase order, quotation, sales order)
const (
	OrderDraft     = 1
	OrderSent      = 2
	OrderConfirmed = 3
	OrderCancelled = 4
)

// Invoice states (bill, customer invoice)
const (
	InvoiceDraft     = 1
	InvoicePosted    = 2
	InvoiceCancelled = 3
)

// Invoice payment sub-state
const (
	PaymentUnpaid = 1
	PaymentPaid   = 2
)

// Action is a mutation the user can request on a document
type Action string

const (
	ActionSave            Action = "save"
	ActionSend            Action = "send"
	ActionConfirm         Action = "confirm"
	ActionCancel          Action = "cancel"
	ActionReset           Action = "reset"
	ActionCreate          Action = "create"
	ActionCreateInvoice   Action = "create-invoice"
	ActionRegisterPayment Action = "register-payment"
)

// DocType describes one of the six document screens
type DocType struct {
	Key        string
	Name       string
	Plural     string
	Role       Role
	Resource   string // API collection, e.g. "rfqs"
	Components string // reference endpoint for line components
	PartyField string
	LinkField  string
	ListQuery  string
	Invoice    bool
	Confirmed  int // state reached by the confirm action
	Cancelled  int
	Fields     []string // header fields tracked and submitted
	Numeric    []string // header fields sent as numbers
}

var (
	RFQ = DocType{
		Key: "rfq", Name: "RFQ", Plural: "Requests for Quotation",
		Role: RolePurchase, Resource: "rfqs", Components: "materials",
		PartyField: "vendor_id", LinkField: "rfq_id", ListQuery: "state=1,2,4",
		Confirmed: OrderConfirmed, Cancelled: OrderCancelled,
		Fields:  []string{"vendor_id", "vendor_reference", "order_deadline", "expected_arrival"},
		Numeric: []string{"vendor_id"},
	}
	PurchaseOrder = DocType{
		Key: "po", Name: "Purchase Order", Plural: "Purchase Orders",
		Role: RolePurchase, Resource: "rfqs", Components: "materials",
		PartyField: "vendor_id", LinkField: "rfq_id", ListQuery: "state=3",
		Confirmed: OrderConfirmed, Cancelled: OrderCancelled,
		Fields:  []string{"vendor_id", "vendor_reference", "order_deadline", "expected_arrival"},
		Numeric: []string{"vendor_id"},
	}
	Quotation = DocType{
		Key: "quotation", Name: "Quotation", Plural: "Quotations",
		Role: RoleSales, Resource: "sales", Components: "products",
		PartyField: "customer_id", LinkField: "sales_id", ListQuery: "state=1,2,4",
		Confirmed: OrderConfirmed, Cancelled: OrderCancelled,
		Fields:  []string{"customer_id", "expiration", "payment_terms"},
		Numeric: []string{"customer_id"},
	}
	SalesOrder = DocType{
		Key: "so", Name: "Sales Order", Plural: "Sales Orders",
		Role: RoleSales, Resource: "sales", Components: "products",
		PartyField: "customer_id", LinkField: "sales_id", ListQuery: "state=3",
		Confirmed: OrderConfirmed, Cancelled: OrderCancelled,
		Fields:  []string{"customer_id", "expiration", "payment_terms"},
		Numeric: []string{"customer_id"},
	}
	Bill = DocType{
		Key: "bill", Name: "Bill", Plural: "Bills",
		Role: RolePurchase, Resource: "invoices", Components: "materials",
		PartyField: "vendor_id", LinkField: "rfq_id", ListQuery: "type=bill",
		Invoice: true, Confirmed: InvoicePosted, Cancelled: InvoiceCancelled,
		Fields:  []string{"vendor_id", "rfq_id", "invoice_date", "due_date", "reference"},
		Numeric: []string{"vendor_id", "rfq_id"},
	}
	Invoice = DocType{
		Key: "invoice", Name: "Invoice", Plural: "Invoices",
		Role: RoleSales, Resource: "invoices", Components: "products",
		PartyField: "customer_id", LinkField: "sales_id", ListQuery: "type=invoice",
		Invoice: true, Confirmed: InvoicePosted, Cancelled: InvoiceCancelled,
		Fields:  []string{"customer_id", "sales_id", "invoice_date", "due_date", "reference"},
		Numeric: []string{"customer_id", "sales_id"},
	}
)

// DocTypes lists every document screen in menu order
var DocTypes = []DocType{RFQ, PurchaseOrder, Quotation, SalesOrder, Bill, Invoice}

// LookupDocType finds a document type by key ("rfq", "po", ...)
func LookupDocType(key string) (DocType, bool) {
	for _, t := range DocTypes {
		if t.Key == key {
			return t, true
		}
	}
	return DocType{}, false
}

// Draft is the initial state for every type
func (t DocType) Draft() int { return 1 }

// InvoiceType is the type of invoice created from an order of this type
func (t DocType) InvoiceType() DocType {
	if t.Role == RolePurchase {
		return Bill
	}
	return Invoice
}

// IsNumeric reports whether a header field is sent as a number
func (t DocType) IsNumeric(field string) bool {
	for _, f := range t.Numeric {
		if f == field {
			return true
		}
	}
	return false
}

// StateName returns the display name of a state
func (t DocType) StateName(state int) string {
	if t.Invoice {
		switch state {
		case InvoiceDraft:
			return "Draft"
		case InvoicePosted:
			return "Posted"
		case InvoiceCancelled:
			return "Cancelled"
		}
		return "Unknown"
	}
	switch state {
	case OrderDraft:
		return "Draft"
	case OrderSent:
		return "Sent"
	case OrderConfirmed:
		if t.Role == RolePurchase {
			return "Purchase Order"
		}
		return "Sales Order"
	case OrderCancelled:
		return "Cancelled"
	}
	return "Unknown"
}

// Document is one loaded record in display shape
type Document struct {
	Type          DocType
	ID            int
	State         int
	PaymentStatus int
	Fields        map[string]string
	Items         []lines.LineItem
	Totals        lines.Totals
	Extra         map[string]interface{}
}

// NewDocument returns an empty draft of the given type
func NewDocument(t DocType) *Document {
	fields := make(map[string]string, len(t.Fields))
	for _, f := range t.Fields {
		fields[f] = ""
	}
	return &Document{
		Type:   t,
		State:  t.Draft(),
		Fields: fields,
		Extra:  make(map[string]interface{}),
	}
}

// Clone copies the document so a request can work on it off the UI loop
func (d *Document) Clone() *Document {
	c := *d
	c.Fields = make(map[string]string, len(d.Fields))
	for k, v := range d.Fields {
		c.Fields[k] = v
	}
	c.Items = append([]lines.LineItem(nil), d.Items...)
	c.Extra = make(map[string]interface{}, len(d.Extra))
	for k, v := range d.Extra {
		c.Extra[k] = v
	}
	return &c
}

// IsNew reports whether the document was never saved
func (d *Document) IsNew() bool { return d.ID == 0 }

// Reference is the server assigned number, if any
func (d *Document) Reference() string {
	if ref, ok := d.Extra["name"].(string); ok && ref != "" {
		return ref
	}
	return ""
}

// Editable reports whether lines and header may be changed
func (d *Document) Editable() bool {
	if d.Type.Invoice {
		return d.State == InvoiceDraft
	}
	return d.State == OrderDraft || d.State == OrderSent
}

// Transitions lists the actions offered for the current state. Legality
// of a transition is decided by the API.
func (d *Document) Transitions() []Action {
	if d.IsNew() {
		return []Action{ActionCreate}
	}
	t := d.Type
	if t.Invoice {
		switch d.State {
		case InvoiceDraft:
			return []Action{ActionSave, ActionConfirm, ActionCancel}
		case InvoicePosted:
			if d.PaymentStatus == PaymentPaid {
				return []Action{ActionReset}
			}
			return []Action{ActionRegisterPayment, ActionReset, ActionCancel}
		case InvoiceCancelled:
			return []Action{ActionReset}
		}
		return nil
	}
	switch d.State {
	case OrderDraft:
		return []Action{ActionSave, ActionSend, ActionConfirm, ActionCancel}
	case OrderSent:
		return []Action{ActionSave, ActionConfirm, ActionCancel}
	case OrderConfirmed:
		return []Action{ActionCreateInvoice, ActionCancel}
	case OrderCancelled:
		return []Action{ActionReset}
	}
	return nil
}

// Allows reports whether action is offered for the current state
func (d *Document) Allows(action Action) bool {
	for _, a := range d.Transitions() {
		if a == action {
			return true
		}
	}
	return false
}

// TargetState is the state sent with an action
func (d *Document) TargetState(action Action) int {
	switch action {
	case ActionSend:
		return OrderSent
	case ActionConfirm:
		return d.Type.Confirmed
	case ActionCancel:
		return d.Type.Cancelled
	case ActionReset, ActionCreate, ActionCreateInvoice:
		return d.Type.Draft()
	}
	return d.State
}

// Label is the button text of an action
func (a Action) Label(t DocType) string {
	switch a {
	case ActionSave:
		return "Save"
	case ActionSend:
		return "Send"
	case ActionConfirm:
		if t.Invoice {
			return "Post"
		}
		return "Confirm"
	case ActionCancel:
		return "Cancel"
	case ActionReset:
		return "Reset to draft"
	case ActionCreate:
		return "Create"
	case ActionCreateInvoice:
		if t.Role == RolePurchase {
			return "Create bill"
		}
		return "Create invoice"
	case ActionRegisterPayment:
		return "Register payment"
	}
	return string(a)
}
