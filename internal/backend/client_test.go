package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Method      string
	Path        string
	RawQuery    string
	ContentType string
	RequestID   string
	Body        string
}

type fakeService struct {
	mu       sync.Mutex
	requests []capturedRequest
	status   int
	body     string
}

func newFakeService(t *testing.T, status int, body string) (*fakeService, *httptest.Server) {
	t.Helper()
	svc := &fakeService{status: status, body: body}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		svc.mu.Lock()
		svc.requests = append(svc.requests, capturedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			RawQuery:    r.URL.RawQuery,
			ContentType: r.Header.Get("Content-Type"),
			RequestID:   r.Header.Get(middleware.RequestIDHeader),
			Body:        string(raw),
		})
		svc.mu.Unlock()
		if svc.body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(svc.status)
		_, _ = io.WriteString(w, svc.body)
	}))
	t.Cleanup(srv.Close)
	return svc, srv
}

func (s *fakeService) only(t *testing.T) capturedRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.requests, 1, "expected exactly one request")
	return s.requests[0]
}

type recordingObserver struct {
	ops      []string
	statuses []int
}

func (o *recordingObserver) ObserveBackendCall(op string, status int, elapsed time.Duration) {
	o.ops = append(o.ops, op)
	o.statuses = append(o.statuses, status)
}

func TestCreateSupplierSendsPayload(t *testing.T) {
	svc, srv := newFakeService(t, http.StatusCreated, `{"id":7,"name":"Acme","available":true,"address":"1 Main St","rating":4.5}`)
	client := NewClient(srv.URL, time.Second, nil)

	rating := 4.5
	got, err := client.CreateSupplier(context.Background(), SupplierInput{Name: "Acme", Available: true, Address: "1 Main St", Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, Supplier{ID: 7, Name: "Acme", Available: true, Address: "1 Main St", Rating: 4.5}, got)

	req := svc.only(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/suppliers", req.Path)
	assert.Equal(t, "application/json", req.ContentType)
	assert.JSONEq(t, `{"name":"Acme","available":true,"address":"1 Main St","rating":4.5}`, req.Body)
}

func TestCreateSupplierSendsNullRating(t *testing.T) {
	svc, srv := newFakeService(t, http.StatusCreated, `{"id":1,"name":"Acme"}`)
	client := NewClient(srv.URL, time.Second, nil)

	_, err := client.CreateSupplier(context.Background(), SupplierInput{Name: "Acme"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Acme","available":false,"address":"","rating":null}`, svc.only(t).Body)
}

func TestSupplierEndpoints(t *testing.T) {
	record := `{"id":3,"name":"Bolt","available":false,"address":"x","rating":2}`
	cases := []struct {
		name   string
		call   func(c *Client) error
		method string
		path   string
	}{
		{"update", func(c *Client) error {
			_, err := c.UpdateSupplier(context.Background(), 3, SupplierInput{Name: "Bolt"})
			return err
		}, http.MethodPut, "/suppliers/3"},
		{"get", func(c *Client) error {
			_, err := c.GetSupplier(context.Background(), 3)
			return err
		}, http.MethodGet, "/suppliers/3"},
		{"activate", func(c *Client) error {
			_, err := c.ActivateSupplier(context.Background(), 3)
			return err
		}, http.MethodPut, "/suppliers/3/active"},
		{"deactivate", func(c *Client) error {
			_, err := c.DeactivateSupplier(context.Background(), 3)
			return err
		}, http.MethodDelete, "/suppliers/3/deactive"},
		{"items of supplier", func(c *Client) error {
			_, err := c.ListSupplierItems(context.Background(), 3)
			return err
		}, http.MethodGet, "/suppliers/3/items"},
		{"by min rating", func(c *Client) error {
			_, err := c.ListSuppliersByMinRating(context.Background(), 4)
			return err
		}, http.MethodGet, "/suppliers/rating/4.0"},
		{"sorted by rating", func(c *Client) error {
			_, err := c.ListSuppliersSortedByRating(context.Background())
			return err
		}, http.MethodGet, "/suppliers/rating"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := record
			if tc.method == http.MethodGet && tc.path != "/suppliers/3" {
				body = "[" + record + "]"
			}
			svc, srv := newFakeService(t, http.StatusOK, body)
			require.NoError(t, tc.call(NewClient(srv.URL, time.Second, nil)))
			req := svc.only(t)
			assert.Equal(t, tc.method, req.Method)
			assert.Equal(t, tc.path, req.Path)
		})
	}
}

func TestDeleteEndpointsAcceptNoContent(t *testing.T) {
	cases := []struct {
		name string
		call func(c *Client) error
		path string
	}{
		{"supplier", func(c *Client) error { return c.DeleteSupplier(context.Background(), 9) }, "/suppliers/9"},
		{"item", func(c *Client) error { return c.DeleteItem(context.Background(), 4) }, "/items/4"},
		{"association", func(c *Client) error { return c.RemoveItemFromSupplier(context.Background(), 9, 4) }, "/suppliers/9/items/4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, srv := newFakeService(t, http.StatusNoContent, "")
			require.NoError(t, tc.call(NewClient(srv.URL, time.Second, nil)))
			req := svc.only(t)
			assert.Equal(t, http.MethodDelete, req.Method)
			assert.Equal(t, tc.path, req.Path)
		})
	}
}

func TestSearchSuppliersBuildsQueryFromNonEmptyFields(t *testing.T) {
	svc, srv := newFakeService(t, http.StatusOK, `[{"id":1,"name":"Acme"},{"id":2,"name":"Acme"}]`)
	client := NewClient(srv.URL, time.Second, nil)

	got, err := client.SearchSuppliers(context.Background(), SupplierQuery{Name: "Acme", Available: true, Address: "Main St"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	req := svc.only(t)
	assert.Equal(t, "/suppliers", req.Path)
	assert.Equal(t, "name=Acme&available=true&address=Main+St", req.RawQuery)
}

func TestSearchSuppliersWithoutFilters(t *testing.T) {
	svc, srv := newFakeService(t, http.StatusOK, `[]`)
	client := NewClient(srv.URL, time.Second, nil)

	got, err := client.SearchSuppliers(context.Background(), SupplierQuery{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, "", svc.only(t).RawQuery)
}

func TestSupplierQueryEncode(t *testing.T) {
	rating := 3.5
	cases := []struct {
		name  string
		query SupplierQuery
		want  string
	}{
		{"empty", SupplierQuery{}, ""},
		{"available false is omitted", SupplierQuery{Name: "a"}, "name=a"},
		{"address only", SupplierQuery{Address: "x y"}, "address=x+y"},
		{"available only", SupplierQuery{Available: true}, "available=true"},
		{"extra filters", SupplierQuery{ItemID: 5, MinRating: &rating}, "item-id=5&rating=3.5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.query.Encode())
		})
	}
}

func TestItemEndpoints(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		svc, srv := newFakeService(t, http.StatusCreated, `{"id":11,"name":"bolt"}`)
		item, err := NewClient(srv.URL, time.Second, nil).CreateItem(context.Background(), ItemInput{Name: "bolt"})
		require.NoError(t, err)
		assert.Equal(t, Item{ID: 11, Name: "bolt"}, item)
		req := svc.only(t)
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/items", req.Path)
		assert.JSONEq(t, `{"name":"bolt"}`, req.Body)
	})
	t.Run("list", func(t *testing.T) {
		svc, srv := newFakeService(t, http.StatusOK, `[{"id":1,"name":"a"},{"id":2,"name":"b"}]`)
		items, err := NewClient(srv.URL, time.Second, nil).ListItems(context.Background())
		require.NoError(t, err)
		assert.Len(t, items, 2)
		assert.Equal(t, http.MethodGet, svc.only(t).Method)
	})
	t.Run("associate", func(t *testing.T) {
		svc, srv := newFakeService(t, http.StatusCreated, `{"supplier_id":2,"item_id":8}`)
		link, err := NewClient(srv.URL, time.Second, nil).AddItemToSupplier(context.Background(), 2, 8)
		require.NoError(t, err)
		assert.Equal(t, Association{SupplierID: 2, ItemID: 8}, link)
		req := svc.only(t)
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/suppliers/2/items/8", req.Path)
	})
}

func TestErrorResponseCarriesServerMessage(t *testing.T) {
	_, srv := newFakeService(t, http.StatusNotFound, `{"status":404,"error":"Not Found","message":"Supplier with id '5' was not found."}`)
	client := NewClient(srv.URL, time.Second, nil)

	_, err := client.GetSupplier(context.Background(), 5)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "get_supplier", apiErr.Op)
	assert.Equal(t, "Supplier with id '5' was not found.", apiErr.Message)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "Supplier with id '5' was not found.", Message(err, "fallback"))
}

func TestErrorResponseWithoutJSONUsesFallback(t *testing.T) {
	_, srv := newFakeService(t, http.StatusInternalServerError, "")
	client := NewClient(srv.URL, time.Second, nil)

	err := client.DeleteSupplier(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.Equal(t, "Server error!", Message(err, "Server error!"))
}

func TestTransportErrorIsWrapped(t *testing.T) {
	_, srv := newFakeService(t, http.StatusOK, "")
	srv.Close()
	observer := &recordingObserver{}
	client := NewClient(srv.URL, time.Second, observer)

	_, err := client.ListItems(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend: list_items:")
	assert.Equal(t, "fallback", Message(err, "fallback"))
	assert.Equal(t, []int{0}, observer.statuses)
}

func TestRequestIDIsForwarded(t *testing.T) {
	svc, srv := newFakeService(t, http.StatusOK, `{"status":"OK"}`)
	client := NewClient(srv.URL, time.Second, nil)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	require.NoError(t, client.Health(ctx))
	req := svc.only(t)
	assert.Equal(t, "/health", req.Path)
	assert.Equal(t, "req-42", req.RequestID)
}

func TestObserverSeesEveryCall(t *testing.T) {
	_, srv := newFakeService(t, http.StatusOK, `{"name":"Supplier Demo REST API Service","version":"1.0","paths":"http://x/suppliers"}`)
	observer := &recordingObserver{}
	client := NewClient(srv.URL+"/", time.Second, observer)

	index, err := client.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.0", index.Version)
	assert.Equal(t, []string{"index"}, observer.ops)
	assert.Equal(t, []int{http.StatusOK}, observer.statuses)
}

func TestDecodeFailureIsReported(t *testing.T) {
	_, srv := newFakeService(t, http.StatusOK, `not json`)
	client := NewClient(srv.URL, time.Second, nil)

	_, err := client.GetSupplier(context.Background(), 1)
	require.Error(t, err)
	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}
