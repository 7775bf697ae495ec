package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/invoice-mapper/internal/cli"
	"github.com/Veraticus/invoice-mapper/internal/common"
	"github.com/Veraticus/invoice-mapper/internal/engine"
	"github.com/Veraticus/invoice-mapper/internal/model"
	"github.com/Veraticus/invoice-mapper/internal/tui"
	"github.com/Veraticus/invoice-mapper/internal/tui/themes"
)

func mapCmd() *cobra.Command {
	var (
		useTUI   bool
		noReview bool
	)

	cmd := &cobra.Command{
		Use:   "map <customer> <invoice>",
		Short: "Map an invoice onto a customer's reference list",
		Long: `Extract the line items of an invoice (pdf, png, jpg, jpeg or txt), suggest a
reference list item for each one and review the suggestions that are not
already in the customer's mapping memory. Every decision is saved as it is made.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			customerID, path := args[0], args[1]
			out := cmd.OutOrStdout()

			mediaType, err := model.MediaTypeFromFilename(path)
			if err != nil {
				return err
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			eng, err := newResolvingEngine(ctx, store)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Mapping %s for %s", filepath.Base(path), customerID)))

			res, err := eng.ProcessDocument(ctx, customerID, model.Document{
				Name:      filepath.Base(path),
				MediaType: mediaType,
				Content:   content,
			})
			if err != nil {
				if errors.Is(err, common.ErrNoListConfigured) {
					return fmt.Errorf("%w: upload one with 'mapper list upload %s <file>'", err, customerID)
				}
				return err
			}

			if err := cli.RenderResolution(out, res); err != nil {
				return err
			}
			if noReview || len(res.NeedsReview) == 0 {
				return nil
			}

			interrupts := cli.NewInterruptHandler(out)
			reviewCtx := interrupts.HandleInterrupts(ctx, customerID)

			prompter := cli.NewCLIPrompter(cmd.InOrStdin(), out)
			var reviewer engine.Reviewer = prompter
			if useTUI {
				reviewer = tui.New(tui.WithTheme(themes.ByName(viper.GetString("tui.theme"))))
			} else {
				prompter.EnableProgress()
			}

			stats, err := eng.Review(reviewCtx, customerID, res.NeedsReview, reviewer)
			prompter.ShowCompletion(stats)
			if err != nil {
				if interrupts.WasInterrupted() {
					return nil
				}
				if errors.Is(err, tui.ErrReviewAborted) {
					slog.Info("Review aborted", "customer_id", customerID, "saved", stats.Written())
					return nil
				}
				return err
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&useTUI, "tui", false, "Review suggestions in a full-screen terminal UI")
	cmd.Flags().BoolVar(&noReview, "no-review", false, "Only print the resolution, skip the review loop")

	return cmd
}
