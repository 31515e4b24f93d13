package backend

import (
	"net/url"
	"strconv"
	"strings"
)

// SupplierQuery filters the supplier collection. Zero values are left out of
// the query string.
type SupplierQuery struct {
	Name      string
	Available bool
	Address   string
	ItemID    int64
	MinRating *float64
}

// Encode renders the query in the order name, available, address, item-id,
// rating. Only non-empty fields are included and availability is only sent
// when true.
func (q SupplierQuery) Encode() string {
	parts := make([]string, 0, 5)
	if q.Name != "" {
		parts = append(parts, "name="+url.QueryEscape(q.Name))
	}
	if q.Available {
		parts = append(parts, "available=true")
	}
	if q.Address != "" {
		parts = append(parts, "address="+url.QueryEscape(q.Address))
	}
	if q.ItemID > 0 {
		parts = append(parts, "item-id="+strconv.FormatInt(q.ItemID, 10))
	}
	if q.MinRating != nil {
		parts = append(parts, "rating="+strconv.FormatFloat(*q.MinRating, 'f', -1, 64))
	}
	return strings.Join(parts, "&")
}

// ratingSegment formats a rating as a path segment. The service only routes
// ratings that carry a decimal point, so whole numbers get ".0".
func ratingSegment(rating float64) string {
	s := strconv.FormatFloat(rating, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
