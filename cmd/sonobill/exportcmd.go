package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/sonobill/internal/exitcode"
	"github.com/gyeh/sonobill/internal/export"
	"github.com/gyeh/sonobill/internal/normalize"
	"github.com/gyeh/sonobill/internal/pdfexport"
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export the report for the active selection",
	Long:  "Formats: " + formatList() + ". The file is named relatorio_exames_<DD-MM-YYYY>.<ext> unless --out is given.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var exportFlags struct {
	out string
	dir string
}

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportFlags.out, "out", "o", "", "Output file, or - for stdout")
	f.StringVar(&exportFlags.dir, "dir", ".", "Directory for the default file name")
	rootCmd.AddCommand(exportCmd)
}

func formatList() string {
	var names []string
	for _, f := range export.Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func exportExit(err error) int {
	var pe *export.PhaseError
	if errors.As(err, &pe) {
		switch pe.Phase {
		case export.PhaseGate:
			return exitcode.ExportBlocked
		case export.PhaseVerify:
			return exitcode.Inconsistent
		}
	}
	return exitcode.ExportError
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(args[0])
	if err != nil {
		fail(exitcode.UsageError, err, export.UserMessage(err))
	}

	ctx := context.Background()
	sess, closeStore := mustSession(ctx)
	defer closeStore()

	pipe := export.NewPipeline(pdfexport.NewExporter(pdfexport.TextRasterizer{}, log), log)
	req := export.Request{
		Format:    format,
		Selection: sess.Selection(),
		Report:    sess.Report(time.Now()),
	}

	var buf bytes.Buffer
	sum, err := pipe.Run(ctx, req, &buf)
	if err != nil {
		fmt.Fprintln(os.Stderr, export.UserMessage(err))
		fail(exportExit(err), err, "export failed")
	}

	if exportFlags.out == "-" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}
	path := exportFlags.out
	if path == "" {
		path = filepath.Join(exportFlags.dir, sum.Filename)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		fail(exitcode.ExportError, err, "write export file failed")
	}

	fmt.Printf("Exported %s: %d rows, %s", path, sum.Rows, normalize.BRL(sum.GrandTotal))
	if sum.Pages > 0 {
		fmt.Printf(", %d pages", sum.Pages)
	}
	fmt.Println()
	return nil
}
