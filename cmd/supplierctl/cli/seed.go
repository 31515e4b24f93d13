package cli

import (
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/supplierdesk/internal/seed"
)

func newSeedCommand(rt *invocation) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Replace every supplier and item with the fixture contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := rt.printer()
			if err != nil {
				return err
			}
			fx, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}
			res, err := seed.Apply(cmd.Context(), rt.client(), fx, rt.logger())
			if err != nil {
				return err
			}
			return out.SeedResult(res)
		},
	}
}
