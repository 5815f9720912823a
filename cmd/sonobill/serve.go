package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gyeh/sonobill/internal/config"
	"github.com/gyeh/sonobill/internal/exitcode"
	"github.com/gyeh/sonobill/internal/export"
	"github.com/gyeh/sonobill/internal/httpapi"
	"github.com/gyeh/sonobill/internal/pdfexport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the report page and editing API on the local machine",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", config.DefaultAddr, "Listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, closeStore := mustSession(ctx)
	defer closeStore()

	pipe := export.NewPipeline(pdfexport.NewExporter(pdfexport.TextRasterizer{}, log), log)
	e := httpapi.NewServer(httpapi.NewHandler(sess, pipe, log), log)

	if err := httpapi.Serve(ctx, e, cfg.Addr, log); err != nil {
		fail(exitcode.UsageError, err, "server failed")
	}
	return nil
}
