package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/secdesk/backend/internal/analytics"
	"github.com/secdesk/backend/internal/models"
	"github.com/secdesk/backend/internal/services"
	"github.com/secdesk/backend/internal/store"
	"github.com/spf13/cobra"
)

var summaryTop int

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the incident summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		gdb, _, closeDB, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		summary, err := services.NewIncidentService(store.NewGormStore(gdb), nil).Summary(ctx)
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				analytics.Summary
				TopCategories []analytics.LabelCount `json:"topCategories"`
				TopLocations  []analytics.LabelCount `json:"topLocations"`
			}{summary, summary.TopCategories(summaryTop), summary.TopLocations(summaryTop)})
		}
		return printSummary(summary)
	},
}

func init() {
	summaryCmd.Flags().IntVarP(&summaryTop, "top", "n", 5, "Number of top categories and locations")
	rootCmd.AddCommand(summaryCmd)
}

func printSummary(s analytics.Summary) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Total\t%d\n", s.Total)
	fmt.Fprintf(w, "Critical\t%d\t%s\n", s.Critical, s.Percent(s.Critical))
	fmt.Fprintf(w, "High\t%d\t%s\n", s.High, s.Percent(s.High))
	for _, status := range models.Statuses {
		fmt.Fprintf(w, "Status %s\t%d\t%s\n", status, s.ByStatus[status], s.Percent(s.ByStatus[status]))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "TOP CATEGORIES\tCOUNT")
	for _, lc := range s.TopCategories(summaryTop) {
		fmt.Fprintf(w, "%s\t%d\n", lc.Label, lc.Count)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "TOP LOCATIONS\tCOUNT")
	for _, lc := range s.TopLocations(summaryTop) {
		fmt.Fprintf(w, "%s\t%d\n", lc.Label, lc.Count)
	}
	return w.Flush()
}
