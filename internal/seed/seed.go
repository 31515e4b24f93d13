// Package seed loads supplier and item fixtures into the suppliers service.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/odyssey-erp/supplierdesk/internal/backend"
)

// deleteConcurrency bounds parallel deletes while wiping the service.
const deleteConcurrency = 4

// Backend is the part of the suppliers service a seed run needs.
type Backend interface {
	SearchSuppliers(ctx context.Context, q backend.SupplierQuery) ([]backend.Supplier, error)
	DeleteSupplier(ctx context.Context, id int64) error
	ListItems(ctx context.Context) ([]backend.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	CreateSupplier(ctx context.Context, in backend.SupplierInput) (backend.Supplier, error)
	CreateItem(ctx context.Context, in backend.ItemInput) (backend.Item, error)
	AddItemToSupplier(ctx context.Context, supplierID, itemID int64) (backend.Association, error)
}

// Supplier is one fixture supplier.
type Supplier struct {
	Name      string   `yaml:"name" validate:"required"`
	Available bool     `yaml:"available"`
	Address   string   `yaml:"address"`
	Rating    *float64 `yaml:"rating" validate:"omitempty,gte=0"`
}

// Item is one fixture item.
type Item struct {
	Name string `yaml:"name" validate:"required"`
}

// Link carries an item by a supplier, both named.
type Link struct {
	Supplier string `yaml:"supplier" validate:"required"`
	Item     string `yaml:"item" validate:"required"`
}

// Fixture is the content of a fixture file.
type Fixture struct {
	Suppliers []Supplier `yaml:"suppliers" validate:"dive"`
	Items     []Item     `yaml:"items" validate:"dive"`
	Links     []Link     `yaml:"links" validate:"dive"`
}

// Result counts what a seed run did.
type Result struct {
	DeletedSuppliers int `json:"deleted_suppliers"`
	DeletedItems     int `json:"deleted_items"`
	Suppliers        int `json:"suppliers"`
	Items            int `json:"items"`
	Links            int `json:"links"`
}

// ErrInvalidFixture wraps every fixture validation failure.
var ErrInvalidFixture = errors.New("seed: invalid fixture")

// LoadFile reads a fixture from path.
func LoadFile(path string) (Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("seed: open fixture: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a YAML fixture. Unknown keys are rejected.
func Load(r io.Reader) (Fixture, error) {
	var fx Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && !errors.Is(err, io.EOF) {
		return Fixture{}, fmt.Errorf("seed: decode fixture: %w", err)
	}
	if err := fx.Validate(); err != nil {
		return Fixture{}, err
	}
	return fx, nil
}

// Validate checks required fields, duplicate names and that every link names
// a fixture supplier and item.
func (fx Fixture) Validate() error {
	if err := validator.New().Struct(fx); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}
	suppliers := make(map[string]struct{}, len(fx.Suppliers))
	for _, s := range fx.Suppliers {
		if _, dup := suppliers[s.Name]; dup {
			return fmt.Errorf("%w: duplicate supplier %q", ErrInvalidFixture, s.Name)
		}
		suppliers[s.Name] = struct{}{}
	}
	items := make(map[string]struct{}, len(fx.Items))
	for _, it := range fx.Items {
		if _, dup := items[it.Name]; dup {
			return fmt.Errorf("%w: duplicate item %q", ErrInvalidFixture, it.Name)
		}
		items[it.Name] = struct{}{}
	}
	for _, l := range fx.Links {
		if _, ok := suppliers[l.Supplier]; !ok {
			return fmt.Errorf("%w: link names unknown supplier %q", ErrInvalidFixture, l.Supplier)
		}
		if _, ok := items[l.Item]; !ok {
			return fmt.Errorf("%w: link names unknown item %q", ErrInvalidFixture, l.Item)
		}
	}
	return nil
}

// Apply wipes every supplier and item from the service, then creates the
// fixture records in file order and links them.
func Apply(ctx context.Context, b Backend, fx Fixture, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var res Result

	suppliers, err := b.SearchSuppliers(ctx, backend.SupplierQuery{})
	if err != nil {
		return res, fmt.Errorf("seed: list suppliers: %w", err)
	}
	if err := deleteAll(ctx, len(suppliers), func(ctx context.Context, i int) error {
		return b.DeleteSupplier(ctx, suppliers[i].ID)
	}); err != nil {
		return res, fmt.Errorf("seed: delete suppliers: %w", err)
	}
	res.DeletedSuppliers = len(suppliers)

	items, err := b.ListItems(ctx)
	if err != nil {
		return res, fmt.Errorf("seed: list items: %w", err)
	}
	if err := deleteAll(ctx, len(items), func(ctx context.Context, i int) error {
		return b.DeleteItem(ctx, items[i].ID)
	}); err != nil {
		return res, fmt.Errorf("seed: delete items: %w", err)
	}
	res.DeletedItems = len(items)
	logger.Info("seed wiped service", slog.Int("suppliers", res.DeletedSuppliers), slog.Int("items", res.DeletedItems))

	supplierIDs := make(map[string]int64, len(fx.Suppliers))
	for _, s := range fx.Suppliers {
		created, err := b.CreateSupplier(ctx, backend.SupplierInput{
			Name:      s.Name,
			Available: s.Available,
			Address:   s.Address,
			Rating:    s.Rating,
		})
		if err != nil {
			return res, fmt.Errorf("seed: create supplier %q: %w", s.Name, err)
		}
		supplierIDs[s.Name] = created.ID
		res.Suppliers++
	}

	itemIDs := make(map[string]int64, len(fx.Items))
	for _, it := range fx.Items {
		created, err := b.CreateItem(ctx, backend.ItemInput{Name: it.Name})
		if err != nil {
			return res, fmt.Errorf("seed: create item %q: %w", it.Name, err)
		}
		itemIDs[it.Name] = created.ID
		res.Items++
	}

	for _, l := range fx.Links {
		if _, err := b.AddItemToSupplier(ctx, supplierIDs[l.Supplier], itemIDs[l.Item]); err != nil {
			return res, fmt.Errorf("seed: link %q to %q: %w", l.Item, l.Supplier, err)
		}
		res.Links++
	}
	logger.Info("seed applied", slog.Int("suppliers", res.Suppliers), slog.Int("items", res.Items), slog.Int("links", res.Links))
	return res, nil
}

func deleteAll(ctx context.Context, n int, del func(ctx context.Context, i int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error { return del(ctx, i) })
	}
	return g.Wait()
}
