package cli

import (
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/supplierdesk/internal/backend"
	"github.com/odyssey-erp/supplierdesk/internal/desk"
)

func newItemCommand(rt *invocation) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "item",
		Aliases: []string{"items"},
		Short:   "Manage items",
	}

	var name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			item, err := rt.client().CreateItem(cmd.Context(), backend.ItemInput{Name: name})
			if err != nil {
				return err
			}
			return out.Items([]backend.Item{item})
		},
	}
	create.Flags().StringVar(&name, "name", "", "item name")

	cmd.AddCommand(
		create,
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete an item",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := rt.printer()
				if err != nil {
					return err
				}
				id, err := parseID("item", args[0])
				if err != nil {
					return err
				}
				if err := rt.client().DeleteItem(cmd.Context(), id); err != nil {
					return err
				}
				return out.Done(desk.MsgItemDeleted)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List every item",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				out, err := rt.printer()
				if err != nil {
					return err
				}
				items, err := rt.client().ListItems(cmd.Context())
				if err != nil {
					return err
				}
				return out.Items(items)
			},
		},
	)
	return cmd
}
