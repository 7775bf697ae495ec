package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/invoice-mapper/internal/cli"
	"github.com/Veraticus/invoice-mapper/internal/model"
)

func memoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect and edit confirmed mappings",
		Long:  `Show or set the confirmed invoice item mappings remembered for a customer.`,
	}

	cmd.AddCommand(showMemoryCmd())
	cmd.AddCommand(setMemoryCmd())

	return cmd
}

func showMemoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <customer>",
		Short: "Show a customer's confirmed mappings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			memory, err := newEngine(store).Mappings(ctx, args[0])
			if err != nil {
				return err
			}

			return cli.RenderMemory(cmd.OutOrStdout(), memory)
		},
	}
}

func setMemoryCmd() *cobra.Command {
	var noMatch bool

	cmd := &cobra.Command{
		Use:   "set <customer> <invoice_item> [resolved]",
		Short: "Record a confirmed mapping",
		Long: `Record the reference list item an invoice item maps to, or with --no-match
record that it has no counterpart. The value is stored as given.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			customerID, invoiceItem := args[0], args[1]

			var resolved *string
			switch {
			case noMatch && len(args) == 3:
				return fmt.Errorf("--no-match cannot be combined with a resolved item")
			case !noMatch && len(args) == 2:
				return fmt.Errorf("a resolved item is required unless --no-match is set")
			case !noMatch:
				resolved = model.StringPtr(args[2])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := newEngine(store).ApplyDecision(ctx, customerID, invoiceItem, resolved); err != nil {
				return err
			}

			target := "(no match)"
			if resolved != nil {
				target = *resolved
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s: %q → %s", customerID, invoiceItem, target)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noMatch, "no-match", false, "Record that the invoice item has no reference list counterpart")

	return cmd
}
