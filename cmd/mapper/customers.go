package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/invoice-mapper/internal/cli"
)

func customersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "customers",
		Short: "List known customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			customers, err := store.ListCustomers(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(customers) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No customers yet. Use 'mapper list upload' to add one."))
				return nil
			}
			for _, id := range customers {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
}
