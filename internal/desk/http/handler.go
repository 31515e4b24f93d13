// Package deskhttp serves the supplier desk page and its form actions.
package deskhttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/supplierdesk/internal/desk"
	"github.com/odyssey-erp/supplierdesk/internal/shared"
	"github.com/odyssey-erp/supplierdesk/internal/view"
)

const (
	stateKey  = "desk_state"
	pageTitle = "Supplier Desk"
)

// Form fields posted by the desk page.
const (
	fieldSupplierID        = "supplier_id"
	fieldSupplierName      = "supplier_name"
	fieldSupplierAvailable = "supplier_available"
	fieldSupplierAddress   = "supplier_address"
	fieldSupplierRating    = "supplier_rating"
	fieldItemID            = "item_id"
	fieldItemName          = "item_name"
	fieldRowSupplierID     = "row_supplier_id"
	fieldRowItemID         = "row_item_id"
)

// action has the shape of a *desk.Desk method expression.
type action func(d *desk.Desk, ctx context.Context, st *desk.State)

var supplierActions = map[string]action{
	"create":     (*desk.Desk).CreateSupplier,
	"update":     (*desk.Desk).UpdateSupplier,
	"retrieve":   (*desk.Desk).RetrieveSupplier,
	"delete":     (*desk.Desk).DeleteSupplier,
	"activate":   (*desk.Desk).ActivateSupplier,
	"deactivate": (*desk.Desk).DeactivateSupplier,
	"search":     (*desk.Desk).SearchSuppliers,
	"clear": func(d *desk.Desk, _ context.Context, st *desk.State) {
		d.Clear(st)
	},
}

var itemActions = map[string]action{
	"create": (*desk.Desk).CreateItem,
	"delete": (*desk.Desk).DeleteItem,
	"search": (*desk.Desk).SearchItems,
}

var supplierItemActions = map[string]action{
	"list": (*desk.Desk).ListSupplierItems,
	"add":  (*desk.Desk).AddItemToSupplier,
}

// Handler wires the desk page to HTTP.
type Handler struct {
	logger    *slog.Logger
	desk      *desk.Desk
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a desk HTTP handler.
func NewHandler(logger *slog.Logger, d *desk.Desk, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		desk:      d,
		templates: templates,
		csrf:      csrf,
	}
}

// MountRoutes registers HTTP routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showDesk)
	r.Post("/suppliers/{action}", h.dispatch(supplierActions))
	r.Post("/items/{action}", h.dispatch(itemActions))
	r.Route("/supplier-items", func(r chi.Router) {
		r.Post("/remove", h.removeSupplierItem)
		r.Post("/{action}", h.dispatch(supplierItemActions))
	})
}

func (h *Handler) showDesk(w http.ResponseWriter, r *http.Request) {
	sess, err := shared.RequireSession(r.Context())
	if err != nil {
		h.logger.Error("show desk", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	st := h.loadState(sess)
	csrfToken, err := h.csrf.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Error("ensure csrf token", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data := view.TemplateData{
		Title:       pageTitle,
		CSRFToken:   csrfToken,
		Flash:       sess.PopFlash(),
		CurrentPath: r.URL.Path,
		Data:        st,
	}
	if err := h.templates.Render(w, "pages/desk.html", data); err != nil {
		h.logger.Error("render desk", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) dispatch(actions map[string]action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, ok := actions[chi.URLParam(r, "action")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		sess, st, ok := h.begin(w, r)
		if !ok {
			return
		}
		mergeForm(r, st)
		run(h.desk, r.Context(), st)
		h.finish(w, r, sess, st)
	}
}

func (h *Handler) removeSupplierItem(w http.ResponseWriter, r *http.Request) {
	sess, st, ok := h.begin(w, r)
	if !ok {
		return
	}
	supplierID, err := strconv.ParseInt(strings.TrimSpace(r.PostFormValue(fieldRowSupplierID)), 10, 64)
	if err != nil {
		st.Flash = &desk.Flash{Kind: desk.FlashError, Message: desk.MsgInvalidSupplier}
		h.finish(w, r, sess, st)
		return
	}
	itemID, err := strconv.ParseInt(strings.TrimSpace(r.PostFormValue(fieldRowItemID)), 10, 64)
	if err != nil {
		st.Flash = &desk.Flash{Kind: desk.FlashError, Message: desk.MsgInvalidItem}
		h.finish(w, r, sess, st)
		return
	}
	h.desk.RemoveItemFromSupplier(r.Context(), st, supplierID, itemID)
	h.finish(w, r, sess, st)
}

func (h *Handler) begin(w http.ResponseWriter, r *http.Request) (*shared.Session, *desk.State, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return nil, nil, false
	}
	sess, err := shared.RequireSession(r.Context())
	if err != nil {
		h.logger.Error("desk action", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, nil, false
	}
	return sess, h.loadState(sess), true
}

// finish stores the state, hands its flash to the session and redirects back
// to the page.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, sess *shared.Session, st *desk.State) {
	if st.Flash != nil {
		sess.AddFlash(shared.FlashMessage{Kind: st.Flash.Kind, Message: st.Flash.Message})
		st.Flash = nil
	}
	if err := sess.SetJSON(stateKey, st); err != nil {
		h.logger.Error("store desk state", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) loadState(sess *shared.Session) *desk.State {
	st := &desk.State{}
	if _, err := sess.GetJSON(stateKey, st); err != nil {
		h.logger.Warn("discard desk state", slog.Any("error", err))
		sess.Delete(stateKey)
		return &desk.State{}
	}
	return st
}

// mergeForm copies the posted fields over the stored state. Fields missing
// from the post keep their stored value.
func mergeForm(r *http.Request, st *desk.State) {
	set := func(field string, dst *string) {
		if r.PostForm.Has(field) {
			*dst = r.PostForm.Get(field)
		}
	}
	set(fieldSupplierID, &st.Supplier.ID)
	set(fieldSupplierName, &st.Supplier.Name)
	set(fieldSupplierAvailable, &st.Supplier.Available)
	set(fieldSupplierAddress, &st.Supplier.Address)
	set(fieldSupplierRating, &st.Supplier.Rating)
	set(fieldItemID, &st.Item.ID)
	set(fieldItemName, &st.Item.Name)
}
