package erp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// PaymentRequest registers a payment against a posted bill or invoice
type PaymentRequest struct {
	InvoiceID   int             `validate:"required,gt=0"`
	Amount      decimal.Decimal `validate:"gt=0"`
	PaymentDate string          `validate:"required,datetime=2006-01-02"`
	Journal     string          `validate:"oneof=bank cash"`
	Memo        string          `validate:"max=120"`
}

// ValidationError lists the rejected fields of a request, field -> tag
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, tag := range e.Fields {
		parts = append(parts, field+": "+tag)
	}
	sort.Strings(parts)
	return "invalid payment: " + strings.Join(parts, ", ")
}

var paymentValidate = newPaymentValidator()

func newPaymentValidator() *validator.Validate {
	v := validator.New()
	// decimals are compared as numbers by gt/lt tags
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// NewPaymentRequest prefills a payment of the full invoice total, dated today
func NewPaymentRequest(doc *Document) PaymentRequest {
	return PaymentRequest{
		InvoiceID:   doc.ID,
		Amount:      doc.Totals.Total,
		PaymentDate: time.Now().Format("2006-01-02"),
		Journal:     "bank",
	}
}

// Validate checks the request before it is sent
func (p PaymentRequest) Validate() error {
	err := paymentValidate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return &ValidationError{Fields: ProcessValidationErrors(verrs)}
	}
	return err
}

// RegisterPayment posts the payment and returns the updated invoice
func (c *Client) RegisterPayment(ctx context.Context, t DocType, p PaymentRequest) (*Document, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	body := map[string]interface{}{
		"invoice_id":   p.InvoiceID,
		"amount":       p.Amount.InexactFloat64(),
		"payment_date": p.PaymentDate,
		"journal":      p.Journal,
		"memo":         p.Memo,
	}
	env, err := c.Request(ctx, http.MethodPost, "register-payments", body)
	if err != nil {
		LogError(c.Log, "payment", "RegisterPayment", "register-payments", body, err)
		return nil, err
	}
	invoice := NewDocument(t)
	if err := c.formatter().ApplyResponse(invoice, env.Data); err != nil {
		return nil, err
	}
	return invoice, nil
}

// CmdPay registers a payment from the command line
func (c *Client) CmdPay(args []string) error {
	if len(args) < 2 {
		fmt.Println("Usage: erp-front pay <bill|invoice> <id> [--amount=X] [--date=YYYY-MM-DD] [--journal=bank|cash] [--memo=TEXT]")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  erp-front pay invoice 12")
		fmt.Println("  erp-front pay bill 7 --amount=500 --journal=cash")
		return nil
	}
	t, id, err := parseDocArgs(args, "erp-front pay <bill|invoice> <id>")
	if err != nil {
		return err
	}
	if !t.Invoice {
		return fmt.Errorf("payments are registered on bills and invoices, not on a %s", t.Name)
	}

	ctx, cancel := cliContext()
	defer cancel()

	doc, err := c.LoadDocument(ctx, t, id)
	if err != nil {
		return err
	}
	if !doc.Allows(ActionRegisterPayment) {
		return fmt.Errorf("%s %d cannot be paid in state %s", t.Name, id, t.StateName(doc.State))
	}

	req := NewPaymentRequest(doc)
	for _, arg := range args[2:] {
		switch {
		case strings.HasPrefix(arg, "--amount="):
			amount, err := c.Format.Unformat(arg[len("--amount="):])
			if err != nil {
				return err
			}
			req.Amount = amount
		case strings.HasPrefix(arg, "--date="):
			req.PaymentDate = arg[len("--date="):]
		case strings.HasPrefix(arg, "--journal="):
			req.Journal = arg[len("--journal="):]
		case strings.HasPrefix(arg, "--memo="):
			req.Memo = arg[len("--memo="):]
		}
	}

	fmt.Printf("%sRegistering payment of %s on %s %d...%s\n", Blue, c.Format.FormatCurrency(req.Amount), t.Name, id, Reset)
	invoice, err := c.RegisterPayment(ctx, t, req)
	if err != nil {
		return describeMutationError(err)
	}
	status := "unpaid"
	if invoice.PaymentStatus == PaymentPaid {
		status = "paid"
	}
	fmt.Printf("%s✓ Payment registered, %s %d is %s%s\n", Green, strings.ToLower(t.Name), invoice.ID, status, Reset)
	return nil
}
