package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/supplierdesk/internal/backend"
	"github.com/odyssey-erp/supplierdesk/internal/desk"
)

type supplierFlags struct {
	name      string
	available bool
	address   string
	rating    string
}

func (f *supplierFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "supplier name")
	cmd.Flags().BoolVar(&f.available, "available", false, "supplier is available")
	cmd.Flags().StringVar(&f.address, "address", "", "supplier address")
	cmd.Flags().StringVar(&f.rating, "rating", "", "supplier rating; empty sends null")
}

func (f *supplierFlags) input() (backend.SupplierInput, error) {
	in := backend.SupplierInput{Name: f.name, Available: f.available, Address: f.address}
	if raw := strings.TrimSpace(f.rating); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return in, fmt.Errorf("invalid --rating %q", f.rating)
		}
		in.Rating = &rating
	}
	return in, nil
}

func parseID(kind, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s id %q", kind, raw)
	}
	return id, nil
}

func newSupplierCommand(rt *invocation) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "supplier",
		Aliases: []string{"suppliers"},
		Short:   "Manage suppliers",
	}
	cmd.AddCommand(
		newSupplierCreateCommand(rt),
		newSupplierUpdateCommand(rt),
		newSupplierLookupCommand(rt, "get", "Show one supplier", (*backend.Client).GetSupplier),
		newSupplierDeleteCommand(rt),
		newSupplierLookupCommand(rt, "activate", "Mark a supplier available", (*backend.Client).ActivateSupplier),
		newSupplierLookupCommand(rt, "deactivate", "Mark a supplier unavailable", (*backend.Client).DeactivateSupplier),
		newSupplierSearchCommand(rt),
		newSupplierTopCommand(rt),
		newSupplierItemsCommand(rt),
	)
	return cmd
}

func newSupplierCreateCommand(rt *invocation) *cobra.Command {
	var flags supplierFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a supplier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			in, err := flags.input()
			if err != nil {
				return err
			}
			sup, err := rt.client().CreateSupplier(cmd.Context(), in)
			if err != nil {
				return err
			}
			return out.Suppliers([]backend.Supplier{sup})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newSupplierUpdateCommand(rt *invocation) *cobra.Command {
	var flags supplierFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a supplier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			id, err := parseID("supplier", args[0])
			if err != nil {
				return err
			}
			in, err := flags.input()
			if err != nil {
				return err
			}
			sup, err := rt.client().UpdateSupplier(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			return out.Suppliers([]backend.Supplier{sup})
		},
	}
	flags.bind(cmd)
	return cmd
}

type supplierCall func(c *backend.Client, ctx context.Context, id int64) (backend.Supplier, error)

func newSupplierLookupCommand(rt *invocation, use, short string, call supplierCall) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			id, err := parseID("supplier", args[0])
			if err != nil {
				return err
			}
			sup, err := call(rt.client(), cmd.Context(), id)
			if err != nil {
				return err
			}
			return out.Suppliers([]backend.Supplier{sup})
		},
	}
}

func newSupplierDeleteCommand(rt *invocation) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a supplier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			id, err := parseID("supplier", args[0])
			if err != nil {
				return err
			}
			if err := rt.client().DeleteSupplier(cmd.Context(), id); err != nil {
				return err
			}
			return out.Done(desk.MsgSupplierDeleted)
		},
	}
}

func newSupplierSearchCommand(rt *invocation) *cobra.Command {
	var (
		q         backend.SupplierQuery
		minRating string
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "List suppliers matching the given filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			if raw := strings.TrimSpace(minRating); raw != "" {
				rating, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return fmt.Errorf("invalid --min-rating %q", minRating)
				}
				q.MinRating = &rating
			}
			suppliers, err := rt.client().SearchSuppliers(cmd.Context(), q)
			if err != nil {
				return err
			}
			return out.Suppliers(suppliers)
		},
	}
	cmd.Flags().StringVar(&q.Name, "name", "", "exact supplier name")
	cmd.Flags().BoolVar(&q.Available, "available", false, "only available suppliers")
	cmd.Flags().StringVar(&q.Address, "address", "", "exact supplier address")
	cmd.Flags().Int64Var(&q.ItemID, "item-id", 0, "only suppliers carrying this item")
	cmd.Flags().StringVar(&minRating, "min-rating", "", "minimum rating")
	return cmd
}

func newSupplierTopCommand(rt *invocation) *cobra.Command {
	var minRating float64
	cmd := &cobra.Command{
		Use:   "top",
		Short: "List suppliers by rating, best first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			client := rt.client()
			var suppliers []backend.Supplier
			if cmd.Flags().Changed("min-rating") {
				suppliers, err = client.ListSuppliersByMinRating(cmd.Context(), minRating)
			} else {
				suppliers, err = client.ListSuppliersSortedByRating(cmd.Context())
			}
			if err != nil {
				return err
			}
			return out.Suppliers(suppliers)
		},
	}
	cmd.Flags().Float64Var(&minRating, "min-rating", 0, "only suppliers rated at least this")
	return cmd
}

func newSupplierItemsCommand(rt *invocation) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Manage the items a supplier carries",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list <supplier-id>",
			Short: "List the items of a supplier",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := rt.printer()
				if err != nil {
					return err
				}
				supplierID, err := parseID("supplier", args[0])
				if err != nil {
					return err
				}
				items, err := rt.client().ListSupplierItems(cmd.Context(), supplierID)
				if err != nil {
					return err
				}
				return out.Items(items)
			},
		},
		&cobra.Command{
			Use:   "add <supplier-id> <item-id>",
			Short: "Link an item to a supplier",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := rt.printer()
				if err != nil {
					return err
				}
				supplierID, itemID, err := parsePair(args)
				if err != nil {
					return err
				}
				assoc, err := rt.client().AddItemToSupplier(cmd.Context(), supplierID, itemID)
				if err != nil {
					return err
				}
				return out.Association(assoc)
			},
		},
		&cobra.Command{
			Use:   "remove <supplier-id> <item-id>",
			Short: "Unlink an item from a supplier",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := rt.printer()
				if err != nil {
					return err
				}
				supplierID, itemID, err := parsePair(args)
				if err != nil {
					return err
				}
				if err := rt.client().RemoveItemFromSupplier(cmd.Context(), supplierID, itemID); err != nil {
					return err
				}
				return out.Done(desk.MsgSuccess)
			},
		},
	)
	return cmd
}

func parsePair(args []string) (int64, int64, error) {
	supplierID, err := parseID("supplier", args[0])
	if err != nil {
		return 0, 0, err
	}
	itemID, err := parseID("item", args[1])
	if err != nil {
		return 0, 0, err
	}
	return supplierID, itemID, nil
}
