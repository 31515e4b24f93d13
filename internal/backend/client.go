// Package backend is a typed client for the suppliers and items REST service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

const defaultTimeout = 10 * time.Second

// Observer receives one notification per backend call. Status is 0 when the
// request never produced a response.
type Observer interface {
	ObserveBackendCall(op string, status int, elapsed time.Duration)
}

// Client wraps interactions with the suppliers service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	observer   Observer
}

// NewClient constructs a new client. A non-positive timeout falls back to 10s
// and observer may be nil.
func NewClient(baseURL string, timeout time.Duration, observer Observer) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		observer: observer,
	}
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Index fetches the service root document.
func (c *Client) Index(ctx context.Context) (Index, error) {
	var out Index
	err := c.do(ctx, "index", http.MethodGet, "/", nil, &out)
	return out, err
}

// Health checks if the remote service is available.
func (c *Client) Health(ctx context.Context) error {
	var out Health
	return c.do(ctx, "health", http.MethodGet, "/health", nil, &out)
}

// CreateSupplier posts a new supplier and returns the stored record.
func (c *Client) CreateSupplier(ctx context.Context, in SupplierInput) (Supplier, error) {
	var out Supplier
	err := c.do(ctx, "create_supplier", http.MethodPost, "/suppliers", in, &out)
	return out, err
}

// UpdateSupplier replaces the supplier addressed by id.
func (c *Client) UpdateSupplier(ctx context.Context, id int64, in SupplierInput) (Supplier, error) {
	var out Supplier
	err := c.do(ctx, "update_supplier", http.MethodPut, supplierPath(id), in, &out)
	return out, err
}

// GetSupplier retrieves a single supplier.
func (c *Client) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	var out Supplier
	err := c.do(ctx, "get_supplier", http.MethodGet, supplierPath(id), nil, &out)
	return out, err
}

// DeleteSupplier removes a supplier. The service answers 204 whether or not
// the supplier existed.
func (c *Client) DeleteSupplier(ctx context.Context, id int64) error {
	return c.do(ctx, "delete_supplier", http.MethodDelete, supplierPath(id), nil, nil)
}

// ActivateSupplier marks a supplier available.
func (c *Client) ActivateSupplier(ctx context.Context, id int64) (Supplier, error) {
	var out Supplier
	err := c.do(ctx, "activate_supplier", http.MethodPut, supplierPath(id)+"/active", nil, &out)
	return out, err
}

// DeactivateSupplier marks a supplier unavailable.
func (c *Client) DeactivateSupplier(ctx context.Context, id int64) (Supplier, error) {
	var out Supplier
	err := c.do(ctx, "deactivate_supplier", http.MethodDelete, supplierPath(id)+"/deactive", nil, &out)
	return out, err
}

// SearchSuppliers lists suppliers matching q. An empty query lists all.
func (c *Client) SearchSuppliers(ctx context.Context, q SupplierQuery) ([]Supplier, error) {
	path := "/suppliers"
	if qs := q.Encode(); qs != "" {
		path += "?" + qs
	}
	var out []Supplier
	err := c.do(ctx, "search_suppliers", http.MethodGet, path, nil, &out)
	return out, err
}

// ListSuppliersByMinRating lists suppliers rated at least rating.
func (c *Client) ListSuppliersByMinRating(ctx context.Context, rating float64) ([]Supplier, error) {
	var out []Supplier
	err := c.do(ctx, "list_suppliers_by_rating", http.MethodGet, "/suppliers/rating/"+ratingSegment(rating), nil, &out)
	return out, err
}

// ListSuppliersSortedByRating lists all suppliers, best rated first.
func (c *Client) ListSuppliersSortedByRating(ctx context.Context) ([]Supplier, error) {
	var out []Supplier
	err := c.do(ctx, "list_suppliers_sorted", http.MethodGet, "/suppliers/rating", nil, &out)
	return out, err
}

// CreateItem posts a new item.
func (c *Client) CreateItem(ctx context.Context, in ItemInput) (Item, error) {
	var out Item
	err := c.do(ctx, "create_item", http.MethodPost, "/items", in, &out)
	return out, err
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return c.do(ctx, "delete_item", http.MethodDelete, itemPath(id), nil, nil)
}

// ListItems lists every item.
func (c *Client) ListItems(ctx context.Context) ([]Item, error) {
	var out []Item
	err := c.do(ctx, "list_items", http.MethodGet, "/items", nil, &out)
	return out, err
}

// ListSupplierItems lists the items carried by a supplier.
func (c *Client) ListSupplierItems(ctx context.Context, supplierID int64) ([]Item, error) {
	var out []Item
	err := c.do(ctx, "list_supplier_items", http.MethodGet, supplierPath(supplierID)+"/items", nil, &out)
	return out, err
}

// AddItemToSupplier associates an item with a supplier.
func (c *Client) AddItemToSupplier(ctx context.Context, supplierID, itemID int64) (Association, error) {
	var out Association
	err := c.do(ctx, "add_supplier_item", http.MethodPost, supplierPath(supplierID)+itemPath(itemID), nil, &out)
	return out, err
}

// RemoveItemFromSupplier drops the association between an item and a supplier.
func (c *Client) RemoveItemFromSupplier(ctx context.Context, supplierID, itemID int64) error {
	return c.do(ctx, "remove_supplier_item", http.MethodDelete, supplierPath(supplierID)+itemPath(itemID), nil, nil)
}

func supplierPath(id int64) string {
	return "/suppliers/" + strconv.FormatInt(id, 10)
}

func itemPath(id int64) string {
	return "/items/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend: %s: encode: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("backend: %s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		req.Header.Set(middleware.RequestIDHeader, reqID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(op, 0, start)
		return fmt.Errorf("backend: %s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.observe(op, resp.StatusCode, start)

	if resp.StatusCode >= 400 {
		return decodeAPIError(op, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: %s: decode: %w", op, err)
	}
	return nil
}

func (c *Client) observe(op string, status int, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveBackendCall(op, status, time.Since(start))
}
