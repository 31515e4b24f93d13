package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/odyssey-erp/supplierdesk/internal/backend"
	"github.com/odyssey-erp/supplierdesk/internal/desk"
	"github.com/odyssey-erp/supplierdesk/internal/seed"
)

type printer interface {
	Suppliers([]backend.Supplier) error
	Items([]backend.Item) error
	Association(backend.Association) error
	SeedResult(seed.Result) error
	Done(message string) error
}

type tablePrinter struct {
	w io.Writer
}

func (p tablePrinter) table(header string, rows func(w io.Writer)) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, header)
	rows(tw)
	return tw.Flush()
}

func (p tablePrinter) Suppliers(suppliers []backend.Supplier) error {
	return p.table("ID\tNAME\tAVAILABLE\tADDRESS\tRATING", func(w io.Writer) {
		for _, s := range suppliers {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", s.ID, s.Name, strconv.FormatBool(s.Available), s.Address, desk.FormatRating(s.Rating))
		}
	})
}

func (p tablePrinter) Items(items []backend.Item) error {
	return p.table("ID\tNAME", func(w io.Writer) {
		for _, it := range items {
			_, _ = fmt.Fprintf(w, "%d\t%s\n", it.ID, it.Name)
		}
	})
}

func (p tablePrinter) Association(a backend.Association) error {
	return p.table("SUPPLIER\tITEM", func(w io.Writer) {
		_, _ = fmt.Fprintf(w, "%d\t%d\n", a.SupplierID, a.ItemID)
	})
}

func (p tablePrinter) SeedResult(r seed.Result) error {
	return p.table("DELETED SUPPLIERS\tDELETED ITEMS\tSUPPLIERS\tITEMS\tLINKS", func(w io.Writer) {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\n", r.DeletedSuppliers, r.DeletedItems, r.Suppliers, r.Items, r.Links)
	})
}

func (p tablePrinter) Done(message string) error {
	_, err := fmt.Fprintln(p.w, message)
	return err
}

type jsonPrinter struct {
	w io.Writer
}

func (p jsonPrinter) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p jsonPrinter) Suppliers(suppliers []backend.Supplier) error {
	if suppliers == nil {
		suppliers = []backend.Supplier{}
	}
	return p.encode(suppliers)
}

func (p jsonPrinter) Items(items []backend.Item) error {
	if items == nil {
		items = []backend.Item{}
	}
	return p.encode(items)
}

func (p jsonPrinter) Association(a backend.Association) error { return p.encode(a) }

func (p jsonPrinter) SeedResult(r seed.Result) error { return p.encode(r) }

func (p jsonPrinter) Done(message string) error {
	return p.encode(map[string]string{"message": message})
}
