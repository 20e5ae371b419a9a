package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	reportsDomain "aoi-dashboard/internal/domain/reports"

	"github.com/spf13/cobra"
)

var summaryCommand = &cobra.Command{
	Use:   "summary",
	Short: "Print yesterday's overkill summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		srv, cleanup, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		summary, err := srv.Reports().BuildYesterdaySummary(ctx)
		if err != nil {
			return err
		}
		return printSummary(cmd.OutOrStdout(), summary)
	},
}

// printSummary 以表格輸出；超過門檻的列以 * 標示。
func printSummary(w io.Writer, s reportsDomain.YesterdaySummary) error {
	fmt.Fprintf(w, "Date: %s  Threshold: %g%%\n", s.Date, s.Threshold)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tDrawing_No\tDevice_Id\tPass Rate(%)\tOverkill Rate(%)")
	for _, r := range s.Rows {
		mark := ""
		if r.Exceeded {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, r.DrawingNo, r.DeviceID, r.PassRate, r.OverkillRate)
	}
	if len(s.Rows) == 0 {
		fmt.Fprintln(tw, "\t(no records)\t\t\t")
	}
	if len(s.Rows) > 1 {
		fmt.Fprintf(tw, "\tAverage\t\t%g\t%g\n", s.AveragePassRate, s.AverageOverkillRate)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	dispatch := "N"
	if s.NeedsDispatch {
		dispatch = "Y"
	}
	_, err := fmt.Fprintf(w, "Needs dispatch: %s\n", dispatch)
	return err
}
