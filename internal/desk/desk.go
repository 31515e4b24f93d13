// Package desk implements the supplier desk actions: each action reads the
// forms, issues one call to the suppliers service and writes the outcome back
// into the page state.
package desk

import (
	"context"
	"log/slog"

	"github.com/odyssey-erp/supplierdesk/internal/backend"
)

// Backend is the part of the suppliers service the desk talks to.
type Backend interface {
	CreateSupplier(ctx context.Context, in backend.SupplierInput) (backend.Supplier, error)
	UpdateSupplier(ctx context.Context, id int64, in backend.SupplierInput) (backend.Supplier, error)
	GetSupplier(ctx context.Context, id int64) (backend.Supplier, error)
	DeleteSupplier(ctx context.Context, id int64) error
	ActivateSupplier(ctx context.Context, id int64) (backend.Supplier, error)
	DeactivateSupplier(ctx context.Context, id int64) (backend.Supplier, error)
	SearchSuppliers(ctx context.Context, q backend.SupplierQuery) ([]backend.Supplier, error)
	CreateItem(ctx context.Context, in backend.ItemInput) (backend.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	ListItems(ctx context.Context) ([]backend.Item, error)
	ListSupplierItems(ctx context.Context, supplierID int64) ([]backend.Item, error)
	AddItemToSupplier(ctx context.Context, supplierID, itemID int64) (backend.Association, error)
	RemoveItemFromSupplier(ctx context.Context, supplierID, itemID int64) error
}

// Desk runs the form actions against a Backend.
type Desk struct {
	backend Backend
	logger  *slog.Logger
}

// New constructs a Desk. A nil logger discards output.
func New(b Backend, logger *slog.Logger) *Desk {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Desk{backend: b, logger: logger}
}

// CreateSupplier posts the supplier form as a new supplier.
func (d *Desk) CreateSupplier(ctx context.Context, st *State) {
	st.Flash = nil
	sup, err := d.backend.CreateSupplier(ctx, st.Supplier.input())
	if err != nil {
		d.fail(st, "create supplier", err, backend.Message(err, MsgServerError))
		return
	}
	st.Supplier.fill(sup)
	st.setFlash(FlashSuccess, MsgSuccess)
}

// UpdateSupplier saves the supplier form over the supplier it names.
func (d *Desk) UpdateSupplier(ctx context.Context, st *State) {
	st.Flash = nil
	id, ok := parseID(st.Supplier.ID)
	if !ok {
		st.setFlash(FlashError, MsgInvalidSupplier)
		return
	}
	sup, err := d.backend.UpdateSupplier(ctx, id, st.Supplier.input())
	if err != nil {
		d.fail(st, "update supplier", err, backend.Message(err, MsgServerError))
		return
	}
	st.Supplier.fill(sup)
	st.setFlash(FlashSuccess, MsgSuccess)
}

// RetrieveSupplier loads the supplier named by the id field. On failure the
// fields are cleared, the id is kept.
func (d *Desk) RetrieveSupplier(ctx context.Context, st *State) {
	st.Flash = nil
	id, ok := parseID(st.Supplier.ID)
	if !ok {
		st.Supplier.clearFields()
		st.setFlash(FlashError, MsgInvalidSupplier)
		return
	}
	sup, err := d.backend.GetSupplier(ctx, id)
	if err != nil {
		st.Supplier.clearFields()
		d.fail(st, "retrieve supplier", err, backend.Message(err, MsgServerError))
		return
	}
	st.Supplier.fill(sup)
	st.setFlash(FlashSuccess, MsgSuccess)
}

// DeleteSupplier removes the supplier named by the id field.
func (d *Desk) DeleteSupplier(ctx context.Context, st *State) {
	st.Flash = nil
	id, ok := parseID(st.Supplier.ID)
	if !ok {
		st.setFlash(FlashError, MsgInvalidSupplier)
		return
	}
	if err := d.backend.DeleteSupplier(ctx, id); err != nil {
		d.fail(st, "delete supplier", err, MsgServerError)
		return
	}
	st.Supplier.clearFields()
	st.setFlash(FlashSuccess, MsgSupplierDeleted)
}

// ActivateSupplier marks the supplier named by the id field available.
func (d *Desk) ActivateSupplier(ctx context.Context, st *State) {
	d.toggle(ctx, st, "activate supplier", d.backend.ActivateSupplier)
}

// DeactivateSupplier marks the supplier named by the id field unavailable.
func (d *Desk) DeactivateSupplier(ctx context.Context, st *State) {
	d.toggle(ctx, st, "deactivate supplier", d.backend.DeactivateSupplier)
}

func (d *Desk) toggle(ctx context.Context, st *State, action string, call func(context.Context, int64) (backend.Supplier, error)) {
	st.Flash = nil
	id, ok := parseID(st.Supplier.ID)
	if !ok {
		st.setFlash(FlashError, MsgInvalidSupplier)
		return
	}
	sup, err := call(ctx, id)
	if err != nil {
		d.fail(st, action, err, backend.Message(err, MsgServerError))
		return
	}
	st.Supplier.fill(sup)
	st.setFlash(FlashSuccess, MsgSuccess)
}

// SearchSuppliers lists suppliers matching the non-empty form fields and
// copies the first match into the form.
func (d *Desk) SearchSuppliers(ctx context.Context, st *State) {
	st.Flash = nil
	results, err := d.backend.SearchSuppliers(ctx, st.Supplier.query())
	if err != nil {
		d.fail(st, "search suppliers", err, backend.Message(err, MsgServerError))
		return
	}
	st.SupplierResults = results
	st.SuppliersSearched = true
	if len(results) > 0 {
		st.Supplier.fill(results[0])
	}
	st.setFlash(FlashSuccess, MsgSuccess)
}

// Clear empties the supplier form, including the id, and the flash.
func (d *Desk) Clear(st *State) {
	st.Supplier = SupplierForm{}
	st.Flash = nil
}

// CreateItem posts the item form as a new item.
func (d *Desk) CreateItem(ctx context.Context, st *State) {
	st.Flash = nil
	item, err := d.backend.CreateItem(ctx, backend.ItemInput{Name: st.Item.Name})
	if err != nil {
		d.fail(st, "create item", err, backend.Message(err, MsgServerError))
		return
	}
	st.Item.fill(item)
	st.setFlash(FlashSuccess, MsgSuccess)
}

// DeleteItem removes the item named by the item id field.
func (d *Desk) DeleteItem(ctx context.Context, st *State) {
	st.Flash = nil
	id, ok := parseID(st.Item.ID)
	if !ok {
		st.setFlash(FlashError, MsgInvalidItem)
		return
	}
	if err := d.backend.DeleteItem(ctx, id); err != nil {
		d.fail(st, "delete item", err, MsgServerError)
		return
	}
	st.Item = ItemForm{}
	st.setFlash(FlashSuccess, MsgItemDeleted)
}

// SearchItems lists every item and copies the first into the item form.
func (d *Desk) SearchItems(ctx context.Context, st *State) {
	st.Flash = nil
	items, err := d.backend.ListItems(ctx)
	if err != nil {
		d.fail(st, "search items", err, backend.Message(err, MsgServerError))
		return
	}
	st.ItemResults = items
	st.ItemsSearched = true
	if len(items) > 0 {
		st.Item.fill(items[0])
	}
	st.setFlash(FlashSuccess, MsgSuccess)
}

// ListSupplierItems loads the items carried by the supplier in the form.
func (d *Desk) ListSupplierItems(ctx context.Context, st *State) {
	st.Flash = nil
	id, ok := parseID(st.Supplier.ID)
	if !ok {
		st.setFlash(FlashError, MsgInvalidSupplier)
		return
	}
	items, err := d.backend.ListSupplierItems(ctx, id)
	if err != nil {
		d.fail(st, "list supplier items", err, backend.Message(err, MsgServerError))
		return
	}
	st.SupplierItems = &SupplierItems{SupplierID: id, Items: items}
	st.setFlash(FlashSuccess, MsgSuccess)
}

// AddItemToSupplier links the item in the item form to the supplier in the
// supplier form.
func (d *Desk) AddItemToSupplier(ctx context.Context, st *State) {
	st.Flash = nil
	supplierID, ok := parseID(st.Supplier.ID)
	if !ok {
		st.setFlash(FlashError, MsgInvalidSupplier)
		return
	}
	itemID, ok := parseID(st.Item.ID)
	if !ok {
		st.setFlash(FlashError, MsgInvalidItem)
		return
	}
	if _, err := d.backend.AddItemToSupplier(ctx, supplierID, itemID); err != nil {
		d.fail(st, "add supplier item", err, backend.Message(err, MsgServerError))
		return
	}
	st.setFlash(FlashSuccess, MsgSuccess)
}

// RemoveItemFromSupplier drops a row of the supplier items table and unlinks
// the item. The row is gone whatever the service answers.
func (d *Desk) RemoveItemFromSupplier(ctx context.Context, st *State, supplierID, itemID int64) {
	st.Flash = nil
	st.dropSupplierItem(supplierID, itemID)
	if err := d.backend.RemoveItemFromSupplier(ctx, supplierID, itemID); err != nil {
		d.fail(st, "remove supplier item", err, backend.Message(err, MsgServerError))
		return
	}
	st.setFlash(FlashSuccess, MsgSuccess)
}

func (s *State) dropSupplierItem(supplierID, itemID int64) {
	if s.SupplierItems == nil || s.SupplierItems.SupplierID != supplierID {
		return
	}
	kept := s.SupplierItems.Items[:0]
	for _, item := range s.SupplierItems.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	s.SupplierItems.Items = kept
}

func (d *Desk) fail(st *State, action string, err error, msg string) {
	d.logger.Warn(action+" failed", slog.Any("error", err))
	st.setFlash(FlashError, msg)
}
