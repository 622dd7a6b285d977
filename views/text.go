package views

import (
	"fmt"
	"io"
	"text/tabwriter"

	"billingDesk/cart"
	"billingDesk/models"
)

// WriteCartTable prints the cart the way the till shows it.
func WriteCartTable(w io.Writer, c cart.Cart) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPRODUCT\tPRICE\tQTY\tSUBTOTAL")
	for _, line := range c.Lines() {
		fmt.Fprintf(tw, "%d\t%s\t$%s\t%d\t$%s\n", line.Index, line.Name, line.UnitPrice, line.Quantity, line.Subtotal)
	}
	fmt.Fprintf(tw, "\t\t\tTOTAL\t%s\n", c.FormattedTotal())
	return tw.Flush()
}

func WriteSearchResults(w io.Writer, results []models.SearchResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No products found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, r := range results {
		fmt.Fprintf(tw, "%d\t%s\tSKU: %s\t$%s\n", i, r.Name, r.Sku, cart.ToFixed(r.Price, 2))
	}
	return tw.Flush()
}
