package erp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentSummary is one row of a document list
type DocumentSummary struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	PartyName     string          `json:"party_name"`
	Date          string          `json:"date"`
	State         int             `json:"state"`
	PaymentStatus int             `json:"payment_status"`
	Total         decimal.Decimal `json:"total"`
}

// Receipt is a goods receipt attached to a purchase order
type Receipt struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	RFQID         int    `json:"rfq_id"`
	ScheduledDate string `json:"scheduled_date"`
	State         string `json:"state"`
}

func (c *Client) formatter() *Formatter {
	return &Formatter{Format: c.Format}
}

func documentPath(t DocType, id int) string {
	return t.Resource + "/" + strconv.Itoa(id)
}

// LoadDocument fetches one document and maps it into display shape
func (c *Client) LoadDocument(ctx context.Context, t DocType, id int) (*Document, error) {
	env, err := c.Request(ctx, http.MethodGet, documentPath(t, id), nil)
	if err != nil {
		return nil, fmt.Errorf("load %s %d: %w", t.Name, id, err)
	}
	doc := NewDocument(t)
	if err := c.formatter().ApplyResponse(doc, env.Data); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments fetches the list screen rows of a document type
func (c *Client) ListDocuments(ctx context.Context, t DocType) ([]DocumentSummary, error) {
	endpoint := t.Resource
	if t.ListQuery != "" {
		endpoint += "?" + t.ListQuery
	}
	env, err := c.Request(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.Plural, err)
	}
	var rows []DocumentSummary
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", t.Plural, err)
	}
	return rows, nil
}

// Mutate sends action for doc. On success the document is replaced by the
// server's answer; on failure it is left untouched and the error is an
// *APIError whose Errors can be passed to DistributeErrors.
func (c *Client) Mutate(ctx context.Context, doc *Document, action Action) error {
	f := c.formatter()
	body, err := f.BuildRequest(doc, action)
	if err != nil {
		return err
	}

	var env *Envelope
	switch action {
	case ActionCreate:
		env, err = c.Request(ctx, http.MethodPost, doc.Type.Resource, body)
	case ActionCreateInvoice:
		return fmt.Errorf("use CreateFrom to create an invoice")
	case ActionRegisterPayment:
		return fmt.Errorf("use RegisterPayment to pay an invoice")
	default:
		env, err = c.Request(ctx, http.MethodPut, documentPath(doc.Type, doc.ID), body)
	}
	if err != nil {
		LogError(c.Log, "documents", "Mutate", string(action), map[string]interface{}{"type": doc.Type.Key, "id": doc.ID}, err)
		return fmt.Errorf("%s %s %d: %w", action, doc.Type.Key, doc.ID, err)
	}
	return f.ApplyResponse(doc, env.Data)
}

// CreateFrom creates a draft bill or invoice from a confirmed order
func (c *Client) CreateFrom(ctx context.Context, order *Document) (*Document, error) {
	f := c.formatter()
	body, err := f.BuildRequest(order, ActionCreateInvoice)
	if err != nil {
		return nil, err
	}
	target := order.Type.InvoiceType()
	env, err := c.Request(ctx, http.MethodPost, target.Resource, body)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", strings.ToLower(target.Name), err)
	}
	invoice := NewDocument(target)
	if err := f.ApplyResponse(invoice, env.Data); err != nil {
		return nil, err
	}
	return invoice, nil
}

// DeleteDocument removes a draft
func (c *Client) DeleteDocument(ctx context.Context, t DocType, id int) error {
	if _, err := c.Request(ctx, http.MethodDelete, documentPath(t, id), nil); err != nil {
		return fmt.Errorf("delete %s %d: %w", t.Name, id, err)
	}
	return nil
}

// Receipts lists the goods receipts of a purchase order
func (c *Client) Receipts(ctx context.Context, rfqID int) ([]Receipt, error) {
	env, err := c.Request(ctx, http.MethodGet, "receipts?rfq_id="+strconv.Itoa(rfqID), nil)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	var receipts []Receipt
	if err := json.Unmarshal(env.Data, &receipts); err != nil {
		return nil, fmt.Errorf("failed to parse receipts: %w", err)
	}
	return receipts, nil
}

func cliContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func parseDocArgs(args []string, usage string) (DocType, int, error) {
	if len(args) < 2 {
		return DocType{}, 0, fmt.Errorf("usage: %s", usage)
	}
	t, ok := LookupDocType(args[0])
	if !ok {
		return DocType{}, 0, fmt.Errorf("unknown document type: %s (rfq, po, quotation, so, bill, invoice)", args[0])
	}
	id, err := strconv.Atoi(args[1])
	if err != nil {
		return DocType{}, 0, fmt.Errorf("invalid id: %s", args[1])
	}
	return t, id, nil
}

// CmdList prints the documents of a type
func (c *Client) CmdList(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: erp-front list <type>")
	}
	t, ok := LookupDocType(args[0])
	if !ok {
		return fmt.Errorf("unknown document type: %s", args[0])
	}

	fmt.Printf("%sFetching %s...%s\n", Blue, strings.ToLower(t.Plural), Reset)
	ctx, cancel := cliContext()
	defer cancel()

	rows, err := c.ListDocuments(ctx, t)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Printf("%sNo %s found%s\n", Yellow, strings.ToLower(t.Plural), Reset)
		return nil
	}
	fmt.Printf("\n%-6s %-14s %-30s %-16s %s\n", "ID", "NUMBER", "PARTY", "STATE", "TOTAL")
	fmt.Println(strings.Repeat("-", 84))
	for _, r := range rows {
		fmt.Printf("%-6d %-14s %-30s %-16s %s\n", r.ID, r.Name, truncate(r.PartyName, 30), t.StateName(r.State), c.Format.FormatCurrency(r.Total))
	}
	fmt.Printf("\n%sTotal: %d%s\n", Green, len(rows), Reset)
	return nil
}

// CmdShow prints one document with its lines and totals
func (c *Client) CmdShow(args []string) error {
	t, id, err := parseDocArgs(args, "erp-front show <type> <id>")
	if err != nil {
		return err
	}
	ctx, cancel := cliContext()
	defer cancel()

	doc, err := c.LoadDocument(ctx, t, id)
	if err != nil {
		return err
	}

	fmt.Printf("%s%s %s%s  [%s]\n", Cyan, t.Name, doc.Reference(), Reset, t.StateName(doc.State))
	for _, field := range t.Fields {
		fmt.Printf("  %-18s %s\n", field+":", doc.Fields[field])
	}
	fmt.Println()
	for i, l := range doc.Items {
		if l.IsSection() {
			fmt.Printf("  %s== %s ==%s\n", Yellow, l.Description, Reset)
			continue
		}
		fmt.Printf("  %2d. #%-5d %-28s %8s x %12s  %5s%%  %14s\n", i+1, l.ComponentID, truncate(l.Description, 28),
			c.Format.Format(l.Quantity), c.Format.Format(l.UnitPrice), c.Format.Format(l.Tax), c.Format.FormatCurrency(l.Subtotal()))
	}
	fmt.Println()
	fmt.Printf("  Untaxed: %s\n", c.Format.FormatCurrency(doc.Totals.Untaxed))
	fmt.Printf("  Tax:     %s\n", c.Format.FormatCurrency(doc.Totals.Tax))
	fmt.Printf("  %sTotal:   %s%s\n", Green, c.Format.FormatCurrency(doc.Totals.Total), Reset)
	return nil
}

// CmdTransition runs a state action (confirm, send, cancel, reset) from the CLI
func (c *Client) CmdTransition(action Action, args []string) error {
	t, id, err := parseDocArgs(args, fmt.Sprintf("erp-front %s <type> <id>", action))
	if err != nil {
		return err
	}
	ctx, cancel := cliContext()
	defer cancel()

	doc, err := c.LoadDocument(ctx, t, id)
	if err != nil {
		return err
	}
	if !doc.Allows(action) {
		return fmt.Errorf("%s is not available for a %s in state %s", action.Label(t), t.Name, t.StateName(doc.State))
	}

	fmt.Printf("%s%s %s %d...%s\n", Blue, action.Label(t), t.Name, id, Reset)
	if err := c.Mutate(ctx, doc, action); err != nil {
		return describeMutationError(err)
	}
	fmt.Printf("%s✓ %s %d is now %s%s\n", Green, t.Name, doc.ID, t.StateName(doc.State), Reset)
	return nil
}

// CmdBill creates a bill or invoice from a confirmed order
func (c *Client) CmdBill(args []string) error {
	t, id, err := parseDocArgs(args, "erp-front bill <po|so> <id>")
	if err != nil {
		return err
	}
	ctx, cancel := cliContext()
	defer cancel()

	order, err := c.LoadDocument(ctx, t, id)
	if err != nil {
		return err
	}
	if !order.Allows(ActionCreateInvoice) {
		return fmt.Errorf("%s %d must be confirmed first", t.Name, id)
	}
	invoice, err := c.CreateFrom(ctx, order)
	if err != nil {
		return describeMutationError(err)
	}
	fmt.Printf("%s✓ Created %s %d%s\n", Green, strings.ToLower(invoice.Type.Name), invoice.ID, Reset)
	fmt.Printf("  Total: %s\n", c.Format.FormatCurrency(invoice.Totals.Total))
	return nil
}

// describeMutationError expands field errors into one readable error
func describeMutationError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || len(apiErr.Errors) == 0 {
		return err
	}
	return fmt.Errorf("%w\n  %s", err, strings.Join(DistributeErrors(apiErr.Errors).Lines(), "\n  "))
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
