package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/invoice-mapper/internal/model"
)

const noMatchLabel = "(no match)"

// RenderResolution writes the auto-confirmed and needs-review tables of a run.
func RenderResolution(w io.Writer, res model.Resolution) error {
	if len(res.AutoConfirmed) == 0 && len(res.NeedsReview) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No items were found on the invoice to map."))
		return err
	}

	if len(res.AutoConfirmed) > 0 {
		if _, err := fmt.Fprintln(w, FormatTitle(fmt.Sprintf("Auto-Confirmed Mappings (from Memory): %d", len(res.AutoConfirmed)))); err != nil {
			return err
		}
		if err := writeItemTable(w, "Mapped To", res.AutoConfirmed); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	if len(res.NeedsReview) == 0 {
		_, err := fmt.Fprintln(w, FormatSuccess("All items were auto-confirmed from memory."))
		return err
	}

	if _, err := fmt.Fprintln(w, FormatTitle(fmt.Sprintf("New Items Needing Review: %d", len(res.NeedsReview)))); err != nil {
		return err
	}
	return writeItemTable(w, "Suggestion", res.NeedsReview)
}

// RenderMemory writes a customer's confirmed mappings in key order.
func RenderMemory(w io.Writer, memory model.MappingMemory) error {
	if len(memory) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No confirmed mappings yet."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\n", headerStyle.Render("Invoice Item"), headerStyle.Render("Resolves To"))
	fmt.Fprintf(tw, "%s\t%s\n", strings.Repeat("-", 30), strings.Repeat("-", 30))
	for _, key := range memory.Keys() {
		fmt.Fprintf(tw, "%s\t%s\n", key, resolvedLabel(memory[key]))
	}
	return tw.Flush()
}

// RenderReferenceList writes a customer's reference list with 1-based numbers.
func RenderReferenceList(w io.Writer, list model.ReferenceList) error {
	if !list.Configured() {
		_, err := fmt.Fprintln(w, FormatWarning(fmt.Sprintf("No reference list uploaded for %s.", list.CustomerID)))
		return err
	}
	if len(list.Items) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("The reference list is empty."))
		return err
	}

	for i, item := range list.Items {
		if _, err := fmt.Fprintf(w, "  %3d. %s\n", i+1, item); err != nil {
			return err
		}
	}
	return nil
}

func writeItemTable(w io.Writer, targetHeader string, items []model.MappedItem) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	headers := []string{"Invoice Item", "Code", "Qty", "Price", "Amount", targetHeader, "Notes"}
	styled := make([]string, len(headers))
	rules := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = headerStyle.Render(h)
		rules[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(styled, "\t"))
	fmt.Fprintln(tw, strings.Join(rules, "\t"))

	for _, item := range items {
		code := "-"
		if item.ProductCode != nil {
			code = *item.ProductCode
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			item.InvoiceItem,
			code,
			formatNumber(item.Quantity),
			formatNumber(item.Price),
			formatNumber(item.Amount),
			resolvedLabel(item.SuggestedItem),
			item.Notes)
	}

	return tw.Flush()
}

func formatNumber(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func resolvedLabel(v *string) string {
	if v == nil {
		return noMatchLabel
	}
	return *v
}
