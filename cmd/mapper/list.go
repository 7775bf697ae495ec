package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/invoice-mapper/internal/cli"
	"github.com/Veraticus/invoice-mapper/internal/model"
)

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Manage customer reference lists",
		Long:  `Upload and inspect the reference list each customer's invoices are mapped onto.`,
	}

	cmd.AddCommand(uploadListCmd())
	cmd.AddCommand(showListCmd())

	return cmd
}

func uploadListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <customer> <file>",
		Short: "Replace a customer's reference list",
		Long: `Upload a JSON or YAML file containing a flat list of strings. The new list
replaces the old one wholesale; confirmed mappings are kept.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			customerID, path := args[0], args[1]

			format, err := model.ListFormatFromFilename(path)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			items, err := model.DecodeReferenceList(data, format)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := newEngine(store).InitializeCustomer(ctx, customerID, items); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Saved %d items from %s as the reference list for %s", len(items), filepath.Base(path), customerID)))
			return nil
		},
	}
}

func showListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <customer>",
		Short: "Show a customer's reference list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			list, err := newEngine(store).ReferenceList(ctx, args[0])
			if err != nil {
				return err
			}

			return cli.RenderReferenceList(cmd.OutOrStdout(), list)
		},
	}
}
