package erp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
)

// Party is a vendor or a customer
type Party struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Component is a product (sales side) or a material (purchase side)
type Component struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
}

// Label is what a line shows when the component has no description
func (c Component) Label() string {
	if c.Description != "" {
		return c.Description
	}
	return c.Name
}

func (c *Client) list(ctx context.Context, endpoint string, out interface{}) error {
	env, err := c.Request(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("list %s: %w", endpoint, err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", endpoint, err)
	}
	return nil
}

// Vendors lists purchase side parties
func (c *Client) Vendors(ctx context.Context) ([]Party, error) {
	var parties []Party
	if err := c.list(ctx, "vendors", &parties); err != nil {
		return nil, err
	}
	return parties, nil
}

// Customers lists sales side parties
func (c *Client) Customers(ctx context.Context) ([]Party, error) {
	var parties []Party
	if err := c.list(ctx, "customers", &parties); err != nil {
		return nil, err
	}
	return parties, nil
}

// Parties lists the parties a document type can be addressed to
func (c *Client) Parties(ctx context.Context, t DocType) ([]Party, error) {
	if t.Role == RolePurchase {
		return c.Vendors(ctx)
	}
	return c.Customers(ctx)
}

// Components lists the products or materials usable on a document type
func (c *Client) Components(ctx context.Context, t DocType) ([]Component, error) {
	var components []Component
	if err := c.list(ctx, t.Components, &components); err != nil {
		return nil, err
	}
	return components, nil
}

// Component fetches the reference price and description of one component
func (c *Client) Component(ctx context.Context, t DocType, id int) (*Component, error) {
	env, err := c.Request(ctx, http.MethodGet, t.Components+"/"+strconv.Itoa(id), nil)
	if err != nil {
		return nil, fmt.Errorf("lookup %s %d: %w", t.Components, id, err)
	}
	var comp Component
	if err := env.decode(&comp); err != nil {
		return nil, err
	}
	return &comp, nil
}
