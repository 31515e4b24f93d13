package desk

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/supplierdesk/internal/backend"
)

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Messages shown in the flash area.
const (
	MsgSuccess         = "Success"
	MsgServerError     = "Server error!"
	MsgSupplierDeleted = "Supplier has been Deleted!"
	MsgItemDeleted     = "Item has been Deleted!"
	MsgInvalidSupplier = "Invalid supplier ID"
	MsgInvalidItem     = "Invalid item ID"
)

var ratingPrinter = message.NewPrinter(language.English)

// FormatRating renders a rating for display with two fraction digits and
// grouped thousands.
func FormatRating(rating float64) string {
	return ratingPrinter.Sprintf("%.2f", rating)
}

// formRating renders a rating for an editable field. It must parse back with
// strconv.ParseFloat, so no grouping.
func formRating(rating float64) string {
	return strconv.FormatFloat(rating, 'f', 2, 64)
}

// SupplierForm holds the supplier fields exactly as typed by the operator.
type SupplierForm struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Available string `json:"available"`
	Address   string `json:"address"`
	Rating    string `json:"rating"`
}

// ItemForm holds the item fields.
type ItemForm struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Flash is the one-line status shown above the forms.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SupplierItems is the table of items carried by one supplier.
type SupplierItems struct {
	SupplierID int64          `json:"supplier_id"`
	Items      []backend.Item `json:"items"`
}

// State is everything the desk page shows. The searched flags keep a result
// table on the page after a search that matched nothing.
type State struct {
	Supplier          SupplierForm       `json:"supplier"`
	Item              ItemForm           `json:"item"`
	Flash             *Flash             `json:"flash,omitempty"`
	SupplierResults   []backend.Supplier `json:"supplier_results,omitempty"`
	ItemResults       []backend.Item     `json:"item_results,omitempty"`
	SupplierItems     *SupplierItems     `json:"supplier_items,omitempty"`
	SuppliersSearched bool               `json:"suppliers_searched,omitempty"`
	ItemsSearched     bool               `json:"items_searched,omitempty"`
}

func (s *State) setFlash(kind, msg string) {
	s.Flash = &Flash{Kind: kind, Message: msg}
}

// fill copies a supplier record into the form.
func (f *SupplierForm) fill(sup backend.Supplier) {
	f.ID = strconv.FormatInt(sup.ID, 10)
	f.Name = sup.Name
	f.Available = strconv.FormatBool(sup.Available)
	f.Address = sup.Address
	f.Rating = formRating(sup.Rating)
}

// clearFields empties every field except the id.
func (f *SupplierForm) clearFields() {
	f.Name = ""
	f.Available = ""
	f.Address = ""
	f.Rating = ""
}

func (f SupplierForm) input() backend.SupplierInput {
	in := backend.SupplierInput{
		Name:      f.Name,
		Available: f.Available == "true",
		Address:   f.Address,
	}
	rating, err := strconv.ParseFloat(strings.TrimSpace(f.Rating), 64)
	if err == nil && !math.IsNaN(rating) && !math.IsInf(rating, 0) {
		in.Rating = &rating
	}
	return in
}

func (f SupplierForm) query() backend.SupplierQuery {
	return backend.SupplierQuery{
		Name:      f.Name,
		Available: f.Available == "true",
		Address:   f.Address,
	}
}

func (f *ItemForm) fill(item backend.Item) {
	f.ID = strconv.FormatInt(item.ID, 10)
	f.Name = item.Name
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
