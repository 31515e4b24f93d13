package backend

// Supplier is a vendor record as served by the suppliers service.
type Supplier struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Available bool    `json:"available"`
	Address   string  `json:"address"`
	Rating    float64 `json:"rating"`
}

// SupplierInput is the payload for creating or updating a supplier.
// Rating is sent as null when the operator left it empty or non-numeric.
type SupplierInput struct {
	Name      string   `json:"name"`
	Available bool     `json:"available"`
	Address   string   `json:"address"`
	Rating    *float64 `json:"rating"`
}

// Item is a product record that suppliers can carry.
type Item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ItemInput is the payload for creating an item.
type ItemInput struct {
	Name string `json:"name"`
}

// Association links an item to the supplier carrying it.
type Association struct {
	SupplierID int64 `json:"supplier_id"`
	ItemID     int64 `json:"item_id"`
}

// Index describes the service root document.
type Index struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Paths   string `json:"paths"`
}

// Health is the body of the health endpoint.
type Health struct {
	Status string `json:"status"`
}
