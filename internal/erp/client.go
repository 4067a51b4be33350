package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mikelcalvo/erp-front/internal/lines"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned for 404 responses
var ErrNotFound = errors.New("not found")

// Envelope is the response shape of every API endpoint
type Envelope struct {
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Message string              `json:"message,omitempty"`
	Success *bool               `json:"success,omitempty"`
}

// APIError is a non-2xx answer to a request. Errors holds field level
// validation messages keyed by dotted path, e.g. "items.0.id".
type APIError struct {
	Status  int
	Message string
	Errors  map[string][]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error %d: %s", e.Status, e.Message)
	}
	if len(e.Errors) > 0 {
		return fmt.Sprintf("API error %d: %d invalid fields", e.Status, len(e.Errors))
	}
	return fmt.Sprintf("API error %d", e.Status)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// LoadError is what a failed page load renders as. It never propagates
// past the view that shows it.
type LoadError struct {
	Error       bool   `json:"error"`
	Status      int    `json:"status"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

// AsLoadError converts any loader failure into the uniform error shape
func AsLoadError(err error) LoadError {
	le := LoadError{Error: true, Status: http.StatusInternalServerError, Message: "Something went wrong"}
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		le.Status = apiErr.Status
		if apiErr.Status == http.StatusNotFound {
			le.Message = "Not found"
			le.Description = "The requested record does not exist or was removed."
		} else {
			le.Description = apiErr.Error()
		}
	case errors.Is(err, context.DeadlineExceeded):
		le.Status = http.StatusGatewayTimeout
		le.Message = "Request timed out"
		le.Description = err.Error()
	case err != nil:
		le.Status = http.StatusServiceUnavailable
		le.Message = "API unreachable"
		le.Description = err.Error()
	}
	return le
}

// Client handles API requests
type Client struct {
	Config     *Config
	HTTPClient *http.Client
	Format     *lines.NumberFormat
	Log        *logrus.Logger
}

// NewClient creates a new API client
func NewClient(config *Config, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = discardLogger()
	}
	return &Client{
		Config: config,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		Format: lines.NewNumberFormat(config.Locale, config.Currency),
		Log:    logger,
	}
}

// Request sends a JSON request and decodes the envelope. Non-2xx answers
// come back as *APIError.
func (c *Client) Request(ctx context.Context, method, endpoint string, body interface{}) (*Envelope, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(endpoint), reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

func (c *Client) url(endpoint string) string {
	return c.Config.APIURL + "/" + strings.TrimLeft(endpoint, "/")
}

func (c *Client) do(req *http.Request) (*Envelope, error) {
	c.Log.WithFields(logrus.Fields{"method": req.Method, "url": req.URL.String()}).Debug("api request")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var env Envelope
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, &env); err != nil {
			if resp.StatusCode >= 300 {
				return nil, &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
			}
			return nil, fmt.Errorf("failed to parse response: %s", string(respBody))
		}
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.Message, Errors: env.Errors}
		c.Log.WithFields(logrus.Fields{"status": resp.StatusCode, "url": req.URL.String()}).Info("api error")
		return nil, apiErr
	}
	if env.Success != nil && !*env.Success {
		return nil, &APIError{Status: resp.StatusCode, Message: env.Message, Errors: env.Errors}
	}
	return &env, nil
}

// decode unmarshals the envelope data into v
func (e *Envelope) decode(v interface{}) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return fmt.Errorf("empty response data")
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to parse data: %w", err)
	}
	return nil
}

// InitInfo is served by /init
type InitInfo struct {
	Company  string `json:"company"`
	Currency string `json:"currency"`
	Version  string `json:"version"`
}

// Init fetches the bootstrap info every screen starts from
func (c *Client) Init(ctx context.Context) (*InitInfo, error) {
	env, err := c.Request(ctx, http.MethodGet, "init", nil)
	if err != nil {
		return nil, err
	}
	var info InitInfo
	if err := env.decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CmdPing tests the connection
func (c *Client) CmdPing() error {
	fmt.Printf("%sTesting connection to %s...%s\n", Blue, c.Config.APIURL, Reset)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	info, err := c.Init(ctx)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	fmt.Printf("%s✓ Connection successful%s\n", Green, Reset)
	if info.Company != "" {
		fmt.Printf("  Company: %s%s%s\n", Yellow, info.Company, Reset)
	}
	if info.Version != "" {
		fmt.Printf("  API version: %s\n", info.Version)
	}
	return nil
}

// CmdConfig shows current configuration
func (c *Client) CmdConfig() error {
	fmt.Printf("%sCurrent configuration:%s\n", Blue, Reset)
	if c.Config.Source != "" {
		fmt.Printf("  Config file: %s\n", c.Config.Source)
	} else {
		fmt.Printf("  Config file: %snone%s (environment only)\n", Yellow, Reset)
	}
	fmt.Printf("  API URL: %s\n", c.Config.APIURL)
	if c.Config.Development() {
		fmt.Printf("  Mode: %s%s%s\n", Yellow, c.Config.Mode, Reset)
	} else {
		fmt.Printf("  Mode: %s%s%s\n", Cyan, c.Config.Mode, Reset)
	}
	fmt.Printf("  Locale: %s (%s)\n", c.Config.Locale, c.Format.FormatCurrency(decimal.New(123456789, -2)))
	fmt.Printf("  State DB: %s\n", c.Config.StateDB)
	fmt.Printf("  Log file: %s\n", c.Config.LogFile)
	return nil
}
