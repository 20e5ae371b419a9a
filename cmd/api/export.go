package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"aoi-dashboard/internal/application/reports"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var exportOpts struct {
	drawing string
	machine string
	format  string
	out     string
}

var exportCommand = &cobra.Command{
	Use:   "export",
	Short: "Export inspection records as csv or xlsx",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	exportCommand.Flags().StringVar(&exportOpts.drawing, "drawing", "", "Drawing_No filter")
	exportCommand.Flags().StringVar(&exportOpts.machine, "machine", "", "Machine_Id filter")
	exportCommand.Flags().StringVar(&exportOpts.format, "format", "xlsx", "Output format (csv, xlsx)")
	exportCommand.Flags().StringVarP(&exportOpts.out, "out", "o", "", "Output file (default: generated name)")
}

func runExport(ctx context.Context, stdout io.Writer) error {
	if exportOpts.format != "csv" && exportOpts.format != "xlsx" {
		return fmt.Errorf("unsupported format %q", exportOpts.format)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	srv, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	q := reports.Query{DrawingNo: exportOpts.drawing, MachineID: exportOpts.machine}
	rows, err := srv.Reports().ExportRows(ctx, q)
	if err != nil {
		return err
	}

	path := exportOpts.out
	if path == "" {
		path = reports.ExportFileName(q) + "." + exportOpts.format
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if exportOpts.format == "csv" {
		err = reports.WriteCSV(f, rows)
	} else {
		err = reports.WriteXLSX(f, rows)
	}
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"rows": len(rows), "file": path}).Info("export written")
	fmt.Fprintln(stdout, path)
	return nil
}
