package deskhttp

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/supplierdesk/internal/backend"
	"github.com/odyssey-erp/supplierdesk/internal/desk"
	"github.com/odyssey-erp/supplierdesk/internal/shared"
	"github.com/odyssey-erp/supplierdesk/internal/view"
)

// memoryBackend is an in-memory suppliers service.
type memoryBackend struct {
	suppliers map[int64]backend.Supplier
	items     map[int64]backend.Item
	links     map[int64][]int64
	nextID    int64
	err       error
	removed   [][2]int64
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		suppliers: map[int64]backend.Supplier{},
		items:     map[int64]backend.Item{},
		links:     map[int64][]int64{},
	}
}

func (m *memoryBackend) id() int64 {
	m.nextID++
	return m.nextID
}

func notFound(op string) error {
	return &backend.APIError{Op: op, StatusCode: http.StatusNotFound, Message: "Not Found"}
}

func (m *memoryBackend) CreateSupplier(_ context.Context, in backend.SupplierInput) (backend.Supplier, error) {
	if m.err != nil {
		return backend.Supplier{}, m.err
	}
	sup := backend.Supplier{ID: m.id(), Name: in.Name, Available: in.Available, Address: in.Address}
	if in.Rating != nil {
		sup.Rating = *in.Rating
	}
	m.suppliers[sup.ID] = sup
	return sup, nil
}

func (m *memoryBackend) UpdateSupplier(_ context.Context, id int64, in backend.SupplierInput) (backend.Supplier, error) {
	if _, ok := m.suppliers[id]; !ok {
		return backend.Supplier{}, notFound("update_supplier")
	}
	sup := backend.Supplier{ID: id, Name: in.Name, Available: in.Available, Address: in.Address}
	if in.Rating != nil {
		sup.Rating = *in.Rating
	}
	m.suppliers[id] = sup
	return sup, nil
}

func (m *memoryBackend) GetSupplier(_ context.Context, id int64) (backend.Supplier, error) {
	sup, ok := m.suppliers[id]
	if !ok {
		return backend.Supplier{}, notFound("get_supplier")
	}
	return sup, nil
}

func (m *memoryBackend) DeleteSupplier(_ context.Context, id int64) error {
	delete(m.suppliers, id)
	return m.err
}

func (m *memoryBackend) ActivateSupplier(ctx context.Context, id int64) (backend.Supplier, error) {
	return m.setAvailable(id, true)
}

func (m *memoryBackend) DeactivateSupplier(ctx context.Context, id int64) (backend.Supplier, error) {
	return m.setAvailable(id, false)
}

func (m *memoryBackend) setAvailable(id int64, available bool) (backend.Supplier, error) {
	sup, ok := m.suppliers[id]
	if !ok {
		return backend.Supplier{}, notFound("toggle_supplier")
	}
	sup.Available = available
	m.suppliers[id] = sup
	return sup, nil
}

func (m *memoryBackend) SearchSuppliers(_ context.Context, q backend.SupplierQuery) ([]backend.Supplier, error) {
	var out []backend.Supplier
	for id := int64(1); id <= m.nextID; id++ {
		sup, ok := m.suppliers[id]
		if !ok || (q.Name != "" && sup.Name != q.Name) {
			continue
		}
		out = append(out, sup)
	}
	return out, nil
}

func (m *memoryBackend) CreateItem(_ context.Context, in backend.ItemInput) (backend.Item, error) {
	item := backend.Item{ID: m.id(), Name: in.Name}
	m.items[item.ID] = item
	return item, nil
}

func (m *memoryBackend) DeleteItem(_ context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

func (m *memoryBackend) ListItems(context.Context) ([]backend.Item, error) {
	var out []backend.Item
	for id := int64(1); id <= m.nextID; id++ {
		if item, ok := m.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memoryBackend) ListSupplierItems(_ context.Context, supplierID int64) ([]backend.Item, error) {
	if _, ok := m.suppliers[supplierID]; !ok {
		return nil, notFound("list_supplier_items")
	}
	out := []backend.Item{}
	for _, id := range m.links[supplierID] {
		out = append(out, m.items[id])
	}
	return out, nil
}

func (m *memoryBackend) AddItemToSupplier(_ context.Context, supplierID, itemID int64) (backend.Association, error) {
	m.links[supplierID] = append(m.links[supplierID], itemID)
	return backend.Association{SupplierID: supplierID, ItemID: itemID}, nil
}

func (m *memoryBackend) RemoveItemFromSupplier(_ context.Context, supplierID, itemID int64) error {
	m.removed = append(m.removed, [2]int64{supplierID, itemID})
	if m.err != nil {
		return m.err
	}
	kept := m.links[supplierID][:0]
	for _, id := range m.links[supplierID] {
		if id != itemID {
			kept = append(kept, id)
		}
	}
	m.links[supplierID] = kept
	return nil
}

type testDesk struct {
	router  http.Handler
	backend *memoryBackend
	session *shared.Session
}

func newTestDesk(t *testing.T) *testDesk {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	templates, err := view.NewEngine()
	require.NoError(t, err)

	sess, err := sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := newMemoryBackend()
	handler := NewHandler(logger, desk.New(mem, logger), templates, shared.NewCSRFManager("csrfsecret"))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(shared.ContextWithSession(r.Context(), sess)))
		})
	})
	handler.MountRoutes(r)
	return &testDesk{router: r, backend: mem, session: sess}
}

func (d *testDesk) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	d.router.ServeHTTP(rr, req)
	return rr
}

func (d *testDesk) get(t *testing.T) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	d.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	return rr
}

func (d *testDesk) state(t *testing.T) desk.State {
	t.Helper()
	var st desk.State
	_, err := d.session.GetJSON(stateKey, &st)
	require.NoError(t, err)
	return st
}

func supplierForm(id, name, available, address, rating string) url.Values {
	return url.Values{
		fieldSupplierID:        {id},
		fieldSupplierName:      {name},
		fieldSupplierAvailable: {available},
		fieldSupplierAddress:   {address},
		fieldSupplierRating:    {rating},
		fieldItemID:            {""},
		fieldItemName:          {""},
	}
}

func TestCreateSupplierRedirectsWithFlash(t *testing.T) {
	d := newTestDesk(t)

	rr := d.post(t, "/suppliers/create", supplierForm("", "Acme", "true", "1 Main St", "4.5"))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	st := d.state(t)
	assert.Equal(t, desk.SupplierForm{ID: "1", Name: "Acme", Available: "true", Address: "1 Main St", Rating: "4.50"}, st.Supplier)
	assert.Nil(t, st.Flash)

	page := d.get(t)
	require.Equal(t, http.StatusOK, page.Code)
	body := page.Body.String()
	assert.Contains(t, body, `flash-success`)
	assert.Contains(t, body, ">Success</div>")
	assert.Contains(t, body, `id="supplier_id" name="supplier_id" value="1"`)

	// The flash is shown once.
	again := d.get(t).Body.String()
	assert.NotContains(t, again, ">Success</div>")
	assert.Contains(t, again, `value="Acme"`)
}

func TestRetrieveMissingSupplierShowsServiceMessage(t *testing.T) {
	d := newTestDesk(t)

	d.post(t, "/suppliers/retrieve", supplierForm("42", "stale", "true", "old", "1"))

	st := d.state(t)
	assert.Equal(t, desk.SupplierForm{ID: "42"}, st.Supplier)
	flash := d.session.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, desk.FlashError, flash.Kind)
	assert.Equal(t, "Not Found", flash.Message)
}

func TestInvalidSupplierIDSkipsBackend(t *testing.T) {
	d := newTestDesk(t)

	d.post(t, "/suppliers/delete", supplierForm("abc", "", "", "", ""))

	flash := d.session.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, desk.MsgInvalidSupplier, flash.Message)
}

func TestClearKeepsItemForm(t *testing.T) {
	d := newTestDesk(t)
	form := supplierForm("3", "Acme", "false", "addr", "2")
	form.Set(fieldItemID, "9")
	form.Set(fieldItemName, "bolt")

	d.post(t, "/suppliers/clear", form)

	st := d.state(t)
	assert.Equal(t, desk.SupplierForm{}, st.Supplier)
	assert.Equal(t, desk.ItemForm{ID: "9", Name: "bolt"}, st.Item)
	assert.Nil(t, d.session.PopFlash())
}

func TestUnknownActionIsNotFound(t *testing.T) {
	d := newTestDesk(t)

	for _, path := range []string{"/suppliers/explode", "/items/update", "/supplier-items/purge"} {
		rr := d.post(t, path, url.Values{})
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
	}
}

func TestSearchRendersResultRows(t *testing.T) {
	d := newTestDesk(t)
	d.post(t, "/suppliers/create", supplierForm("", "Acme", "true", "a", "3"))
	d.post(t, "/suppliers/create", supplierForm("", "Zenith", "false", "b", "4.25"))

	d.post(t, "/suppliers/search", supplierForm("", "", "", "", ""))

	st := d.state(t)
	require.Len(t, st.SupplierResults, 2)
	assert.Equal(t, "Acme", st.Supplier.Name)

	body := d.get(t).Body.String()
	assert.Contains(t, body, `id="row_0"`)
	assert.Contains(t, body, `id="row_1"`)
	assert.Contains(t, body, "<td>4.25</td>")
}

func TestSupplierItemsListAndRemove(t *testing.T) {
	d := newTestDesk(t)
	d.post(t, "/suppliers/create", supplierForm("", "Acme", "true", "a", "3"))
	d.post(t, "/items/create", url.Values{fieldItemName: {"bolt"}})
	d.post(t, "/items/create", url.Values{fieldItemName: {"nut"}})

	d.post(t, "/supplier-items/add", url.Values{fieldSupplierID: {"1"}, fieldItemID: {"2"}})
	d.post(t, "/supplier-items/add", url.Values{fieldSupplierID: {"1"}, fieldItemID: {"3"}})
	d.post(t, "/supplier-items/list", url.Values{fieldSupplierID: {"1"}})

	st := d.state(t)
	require.NotNil(t, st.SupplierItems)
	assert.Len(t, st.SupplierItems.Items, 2)

	body := d.get(t).Body.String()
	assert.Contains(t, body, `name="row_item_id" value="2"`)
	assert.Contains(t, body, `name="row_item_id" value="3"`)

	d.post(t, "/supplier-items/remove", url.Values{fieldRowSupplierID: {"1"}, fieldRowItemID: {"2"}})

	st = d.state(t)
	require.Len(t, st.SupplierItems.Items, 1)
	assert.Equal(t, int64(3), st.SupplierItems.Items[0].ID)
	assert.Equal(t, "Acme", st.Supplier.Name, "row forms must not wipe the supplier form")
	assert.Equal(t, [][2]int64{{1, 2}}, d.backend.removed)
}

func TestRemoveRowWithBadIDs(t *testing.T) {
	d := newTestDesk(t)

	d.post(t, "/supplier-items/remove", url.Values{fieldRowSupplierID: {"x"}, fieldRowItemID: {"1"}})
	flash := d.session.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, desk.MsgInvalidSupplier, flash.Message)

	d.post(t, "/supplier-items/remove", url.Values{fieldRowSupplierID: {"1"}, fieldRowItemID: {""}})
	flash = d.session.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, desk.MsgInvalidItem, flash.Message)
	assert.Empty(t, d.backend.removed)
}

func TestCorruptStateStartsOver(t *testing.T) {
	d := newTestDesk(t)
	d.session.Set(stateKey, "{not json")

	rr := d.get(t)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `id="supplier_id" name="supplier_id" value=""`)
	assert.Empty(t, d.session.Get(stateKey), "corrupt state should be dropped from the session")
}

func TestMissingSessionFails(t *testing.T) {
	templates, err := view.NewEngine()
	require.NoError(t, err)
	handler := NewHandler(nil, desk.New(newMemoryBackend(), nil), templates, shared.NewCSRFManager("x"))
	r := chi.NewRouter()
	handler.MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
